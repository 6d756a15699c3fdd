// Command generate_demo creates a demo catalog of public domain books with
// a publisher account that can edit them.
// Usage: go run cmd/generate_demo/main.go [-db path/to/demo.db]
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/publishers"
)

const (
	defaultDemoDatabasePath = "./demo/demo.db"
	demoPassword            = "demo-password-please-change"
)

type demoPublisher struct {
	Name  string
	User  string
	Books []catalog.BookInput
}

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	log.Printf("Generating demo database at %s...", *dbPath)

	// Start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing demo database: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		log.Fatalf("Failed to create demo directory: %v", err)
	}

	db, err := database.NewDatabase(config.Database{Driver: config.DriverSQLite, Path: *dbPath}, database.Options{})
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	svc := catalog.NewService(db.DB, nil)
	pubRepo := publishers.NewRepository(db.DB)
	authSvc := auth.NewService(db.DB, config.Auth{JWTSecret: "demo", BcryptCost: 10})

	for _, dp := range demoCatalog() {
		publisher, err := pubRepo.GetOrCreate(dp.Name)
		if err != nil {
			log.Fatalf("Failed to create publisher %s: %v", dp.Name, err)
		}

		email := dp.User + "@demo.local"
		if _, err := authSvc.CreateUser(dp.User, email, demoPassword, &publisher.ID); err != nil {
			log.Fatalf("Failed to create user %s: %v", dp.User, err)
		}

		actor := catalog.ActingUser{PublisherID: &publisher.ID}
		for _, in := range dp.Books {
			view, err := svc.CreateBook(ctx, actor, in)
			if err != nil {
				log.Printf("Failed to save book %s: %v", in.Title, err)
				continue
			}
			log.Printf("Saved: %s (%d authors, %s)", view.Title, len(view.Author), view.Publisher)
		}
	}

	log.Printf("Demo database ready. Log in as any demo user with password %q", demoPassword)
}

func demoCatalog() []demoPublisher {
	return []demoPublisher{
		{
			Name: "Stoa Classics",
			User: "stoa",
			Books: []catalog.BookInput{
				{
					Title:       "Meditations",
					Description: "Private notes on Stoic philosophy written by a Roman emperor on campaign.",
					Authors:     []string{"Marcus Aurelius"},
				},
				{
					Title:       "Letters from a Stoic",
					Description: "One hundred and twenty-four letters on living well, addressed to Lucilius.",
					Authors:     []string{"Seneca"},
				},
				{
					Title:       "The Republic",
					Description: "A Socratic dialogue on justice and the ideal city.",
					Authors:     []string{"Plato"},
				},
				{
					Title:       "The Art of War",
					Description: "An ancient treatise on strategy, tactics and the conduct of war.",
					Authors:     []string{"Sun Tzu"},
				},
			},
		},
		{
			Name: "Northbridge House",
			User: "northbridge",
			Books: []catalog.BookInput{
				{
					Title:       "Pride and Prejudice",
					Description: "Elizabeth Bennet and Mr. Darcy misjudge each other across Regency England.",
					Authors:     []string{"Jane Austen"},
				},
				{
					Title:       "Frankenstein",
					Description: "A young scientist creates life and is undone by what he made.",
					Authors:     []string{"Mary Shelley"},
				},
				{
					Title:       "The Picture of Dorian Gray",
					Description: "A portrait ages in place of its subject.",
					Authors:     []string{"Oscar Wilde"},
				},
				{
					Title:       "The Communist Manifesto",
					Description: "A political pamphlet published in 1848.",
					Authors:     []string{"Karl Marx", "Friedrich Engels"},
				},
			},
		},
		{
			Name: "Volga Press",
			User: "volga",
			Books: []catalog.BookInput{
				{
					Title:       "War and Peace",
					Description: "Five aristocratic families through the Napoleonic invasion of Russia.",
					Authors:     []string{"Leo Tolstoy"},
				},
				{
					Title:       "Crime and Punishment",
					Description: "A student in St. Petersburg commits a murder and lives with it.",
					Authors:     []string{"Fyodor Dostoevsky"},
				},
				{
					Title:       "On the Origin of Species",
					Description: "The theory of evolution by natural selection.",
					Authors:     []string{"Charles Darwin"},
				},
			},
		},
	}
}
