package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/database/publishers"
)

// SeedCommand fills a catalog from a SQL dump or with generated data.
type SeedCommand struct {
	DatabasePath      string
	SQLFile           string
	Generate          bool
	Publishers        int
	BooksPerPublisher int
	RandSeed          int64
	Verbose           bool

	Config *config.Config
	Out    io.Writer
}

func NewSeedCommand(cfg *config.Config) *SeedCommand {
	return &SeedCommand{Config: cfg}
}

func (cmd *SeedCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", "", "SQLite database file (default: DATABASE_* environment settings)")
	fs.StringVar(&cmd.SQLFile, "sql", "", "Execute the SQL statements in this file")
	fs.BoolVar(&cmd.Generate, "generate", false, "Generate random publishers, authors and books")
	fs.IntVar(&cmd.Publishers, "publishers", 3, "Number of publishers to generate")
	fs.IntVar(&cmd.BooksPerPublisher, "books", 10, "Number of books to generate per publisher")
	fs.Int64Var(&cmd.RandSeed, "seed", 0, "Random seed for -generate (0: time based)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Log every SQL statement")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed (-sql <file> | -generate) [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Seed the catalog database.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s seed -sql dump.sql\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s seed -generate -publishers 5 -books 20 -seed 42\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.SQLFile == "" && !cmd.Generate {
		return fmt.Errorf("one of -sql or -generate is required")
	}
	if cmd.Generate && (cmd.Publishers < 1 || cmd.BooksPerPublisher < 0) {
		return fmt.Errorf("-publishers must be positive and -books non-negative")
	}
	return nil
}

func (cmd *SeedCommand) Run() error {
	out := stdout(cmd.Out)

	db, err := openDatabase(cmd.Config, cmd.DatabasePath, cmd.Verbose)
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd.SQLFile != "" {
		if err := cmd.runScript(db, out); err != nil {
			return err
		}
	}

	if cmd.Generate {
		seed := cmd.RandSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return Generate(context.Background(), db, GenerateOptions{
			Publishers:        cmd.Publishers,
			BooksPerPublisher: cmd.BooksPerPublisher,
			Rand:              rand.New(rand.NewSource(seed)),
			Out:               out,
		})
	}
	return nil
}

func (cmd *SeedCommand) runScript(db *database.Database, out io.Writer) error {
	script, err := os.ReadFile(cmd.SQLFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cmd.SQLFile, err)
	}

	n, err := db.ExecScript(string(script))
	if err != nil {
		return fmt.Errorf("failed to execute %s: %w", cmd.SQLFile, err)
	}

	fmt.Fprintf(out, "Executed %d statements from %s\n", n, cmd.SQLFile)
	return nil
}

// GenerateOptions controls random catalog generation.
type GenerateOptions struct {
	Publishers        int
	BooksPerPublisher int
	Rand              *rand.Rand
	Out               io.Writer
}

// Generate creates publishers and books with one to three authors each.
// Books go through the catalog workflow, so authors are shared by name
// and a repeated title under the same publisher is merged.
func Generate(ctx context.Context, db *database.Database, opts GenerateOptions) error {
	out := stdout(opts.Out)
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	svc := catalog.NewService(db.DB, nil)
	pubRepo := publishers.NewRepository(db.DB.WithContext(ctx))
	bookRepo := books.NewRepository(db.DB.WithContext(ctx))

	authorPool := make([]string, 0, 2*opts.Publishers+3)
	for i := 0; i < cap(authorPool); i++ {
		authorPool = append(authorPool, randomPersonName(rng))
	}

	created := 0
	for p := 0; p < opts.Publishers; p++ {
		publisher, err := pubRepo.GetOrCreate(randomPublisherName(rng, p))
		if err != nil {
			return fmt.Errorf("failed to create publisher: %w", err)
		}

		before, err := bookRepo.CountByPublisher(publisher.ID)
		if err != nil {
			return fmt.Errorf("failed to count books of %s: %w", publisher.Name, err)
		}

		actor := catalog.ActingUser{PublisherID: &publisher.ID}
		for b := 0; b < opts.BooksPerPublisher; b++ {
			n := 1 + rng.Intn(3)
			names := make([]string, 0, n)
			for i := 0; i < n; i++ {
				names = append(names, authorPool[rng.Intn(len(authorPool))])
			}

			_, err := svc.CreateBook(ctx, actor, catalog.BookInput{
				Title:       randomTitle(rng),
				Description: randomDescription(rng),
				Authors:     names,
			})
			if err != nil {
				return fmt.Errorf("failed to create book for %s: %w", publisher.Name, err)
			}
		}

		// repeated titles merge into one book, so count what was stored
		after, err := bookRepo.CountByPublisher(publisher.ID)
		if err != nil {
			return fmt.Errorf("failed to count books of %s: %w", publisher.Name, err)
		}
		created += int(after - before)

		fmt.Fprintf(out, "Publisher %q: %d new books\n", publisher.Name, after-before)
	}

	fmt.Fprintf(out, "Generated %d books for %d publishers\n", created, opts.Publishers)
	return nil
}

var (
	firstNames = []string{
		"Ada", "Boris", "Clara", "Dmitri", "Elena", "Frank", "Greta", "Hugo",
		"Irene", "Jonas", "Katya", "Leo", "Mira", "Nikolai", "Olga", "Pavel",
	}
	lastNames = []string{
		"Abbott", "Brandt", "Castillo", "Doyle", "Eriksen", "Fischer", "Gordon",
		"Hale", "Ivanova", "Jensen", "Keller", "Lindqvist", "Morozov", "Novak",
	}
	words = []string{
		"Adventure", "Mystery", "Journey", "Discovery", "Secrets", "Dreams", "Hope",
		"Love", "War", "Peace", "Science", "Nature", "Technology", "History", "Future",
		"Past", "Reality", "Imagination", "Wisdom", "Light", "Darkness", "World",
		"Universe", "Time", "Space", "Mind", "Soul",
	}
	publisherSuffixes = []string{"Press", "Books", "House", "Publishing", "& Sons"}
)

func pick(rng *rand.Rand, from []string) string {
	return from[rng.Intn(len(from))]
}

func randomPersonName(rng *rand.Rand) string {
	return pick(rng, firstNames) + " " + pick(rng, lastNames)
}

// randomPublisherName is unique per index so every generated publisher is new.
func randomPublisherName(rng *rand.Rand, index int) string {
	return fmt.Sprintf("%s %s %d", pick(rng, words), pick(rng, publisherSuffixes), index+1)
}

func randomTitle(rng *rand.Rand) string {
	return fmt.Sprintf("The %s of %s", pick(rng, words), pick(rng, words))
}

func randomDescription(rng *rand.Rand) string {
	return fmt.Sprintf("A book about %s and %s.", pick(rng, words), pick(rng, words))
}
