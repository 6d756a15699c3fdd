package cli

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
)

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.Auth{JWTSecret: "test-secret", BcryptCost: 4},
	}
}

func tempDBPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "cli.db")
}

func openTestDB(t *testing.T, path string) *database.Database {
	t.Helper()
	db, err := openDatabase(testConfig(), path, false)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func count(t *testing.T, db *database.Database, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.DB.Model(model).Count(&n).Error)
	return n
}

func TestSeedCommand_ParseFlags(t *testing.T) {
	t.Run("requires a mode", func(t *testing.T) {
		cmd := NewSeedCommand(testConfig())
		assert.Error(t, cmd.ParseFlags(nil))
	})

	t.Run("generate with counts", func(t *testing.T) {
		cmd := NewSeedCommand(testConfig())
		require.NoError(t, cmd.ParseFlags([]string{"-generate", "-publishers", "2", "-books", "4", "-seed", "7"}))
		assert.True(t, cmd.Generate)
		assert.Equal(t, 2, cmd.Publishers)
		assert.Equal(t, 4, cmd.BooksPerPublisher)
		assert.Equal(t, int64(7), cmd.RandSeed)
	})

	t.Run("rejects zero publishers", func(t *testing.T) {
		cmd := NewSeedCommand(testConfig())
		assert.Error(t, cmd.ParseFlags([]string{"-generate", "-publishers", "0"}))
	})
}

func TestSeedCommand_SQLFile(t *testing.T) {
	dbPath := tempDBPath(t)
	sqlPath := filepath.Join(t.TempDir(), "dump.sql")
	script := `
-- publishers
INSERT INTO publishers (id, name, created_at, updated_at) VALUES (1, 'Ace; Books', '2024-01-01', '2024-01-01');
INSERT INTO authors (id, name, created_at, updated_at) VALUES (1, 'Frank Herbert', '2024-01-01', '2024-01-01');
INSERT INTO books (id, title, description, publisher_id, created_at, updated_at)
  VALUES (1, 'Dune', 'It''s about spice', 1, '2024-01-01', '2024-01-01');
INSERT INTO book_authors (book_id, author_id) VALUES (1, 1);
`
	require.NoError(t, os.WriteFile(sqlPath, []byte(script), 0o600))

	var out bytes.Buffer
	cmd := NewSeedCommand(testConfig())
	cmd.Out = &out
	require.NoError(t, cmd.ParseFlags([]string{"-db", dbPath, "-sql", sqlPath}))
	require.NoError(t, cmd.Run())

	assert.Contains(t, out.String(), "Executed 4 statements")

	db := openTestDB(t, dbPath)
	var book entities.Book
	require.NoError(t, db.DB.Preload("Authors").Preload("Publisher").First(&book, 1).Error)
	assert.Equal(t, "It's about spice", book.Description)
	assert.Equal(t, "Ace; Books", book.Publisher.Name)
	require.Len(t, book.Authors, 1)
	assert.Equal(t, "Frank Herbert", book.Authors[0].Name)
}

func TestSeedCommand_SQLFileRollsBackOnError(t *testing.T) {
	dbPath := tempDBPath(t)
	sqlPath := filepath.Join(t.TempDir(), "broken.sql")
	script := `INSERT INTO publishers (name, created_at, updated_at) VALUES ('Ace', '2024-01-01', '2024-01-01');
INSERT INTO nowhere VALUES (1);`
	require.NoError(t, os.WriteFile(sqlPath, []byte(script), 0o600))

	cmd := NewSeedCommand(testConfig())
	cmd.Out = &bytes.Buffer{}
	require.NoError(t, cmd.ParseFlags([]string{"-db", dbPath, "-sql", sqlPath}))

	err := cmd.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 2")

	db := openTestDB(t, dbPath)
	assert.Zero(t, count(t, db, &entities.Publisher{}))
}

func TestGenerate(t *testing.T) {
	db := openTestDB(t, tempDBPath(t))

	var out bytes.Buffer
	err := Generate(context.Background(), db, GenerateOptions{
		Publishers:        2,
		BooksPerPublisher: 5,
		Rand:              rand.New(rand.NewSource(42)),
		Out:               &out,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), count(t, db, &entities.Publisher{}))
	books := count(t, db, &entities.Book{})
	assert.Positive(t, books)
	assert.LessOrEqual(t, books, int64(10))

	var all []entities.Book
	require.NoError(t, db.DB.Preload("Authors").Find(&all).Error)
	for _, b := range all {
		assert.NotEmpty(t, b.Authors, "book %q has no authors", b.Title)
		assert.LessOrEqual(t, len(b.Authors), 3)
	}
	assert.Contains(t, out.String(), "for 2 publishers")
}

func TestGenerate_CountsOnlyStoredBooks(t *testing.T) {
	db := openTestDB(t, tempDBPath(t))
	opts := func(out *bytes.Buffer) GenerateOptions {
		return GenerateOptions{
			Publishers:        2,
			BooksPerPublisher: 4,
			Rand:              rand.New(rand.NewSource(7)),
			Out:               out,
		}
	}

	var first bytes.Buffer
	require.NoError(t, Generate(context.Background(), db, opts(&first)))
	stored := count(t, db, &entities.Book{})
	assert.Contains(t, first.String(), fmt.Sprintf("Generated %d books", stored))

	// same seed: same publishers and titles, every book merges
	var second bytes.Buffer
	require.NoError(t, Generate(context.Background(), db, opts(&second)))
	assert.Equal(t, stored, count(t, db, &entities.Book{}))
	assert.Contains(t, second.String(), "Generated 0 books for 2 publishers")
	assert.Contains(t, second.String(), ": 0 new books")
}

func TestCreatePublisherCommand(t *testing.T) {
	dbPath := tempDBPath(t)

	cmd := NewCreatePublisherCommand(testConfig())
	var out bytes.Buffer
	cmd.Out = &out
	require.NoError(t, cmd.ParseFlags([]string{"-db", dbPath, "-name", "  Ace Books "}))
	require.NoError(t, cmd.Run())
	assert.Contains(t, out.String(), `"Ace Books" with id 1`)

	// names are unique
	dup := NewCreatePublisherCommand(testConfig())
	dup.Out = &bytes.Buffer{}
	require.NoError(t, dup.ParseFlags([]string{"-db", dbPath, "-name", "Ace Books"}))
	assert.Error(t, dup.Run())

	assert.Error(t, NewCreatePublisherCommand(testConfig()).ParseFlags([]string{"-name", " "}))
}

func TestCreateUserCommand(t *testing.T) {
	dbPath := tempDBPath(t)

	pub := NewCreatePublisherCommand(testConfig())
	pub.Out = &bytes.Buffer{}
	require.NoError(t, pub.ParseFlags([]string{"-db", dbPath, "-name", "Ace"}))
	require.NoError(t, pub.Run())

	var out bytes.Buffer
	cmd := NewCreateUserCommand(testConfig())
	cmd.Out = &out
	require.NoError(t, cmd.ParseFlags([]string{
		"-db", dbPath,
		"-username", "alice",
		"-email", "alice@example.com",
		"-password", "correct-horse-battery",
		"-publisher", "1",
	}))
	require.NoError(t, cmd.Run())

	var token string
	for _, line := range strings.Split(out.String(), "\n") {
		if rest, ok := strings.CutPrefix(line, "API token (shown once): "); ok {
			token = rest
		}
	}
	require.NotEmpty(t, token)

	db := openTestDB(t, dbPath)
	user, kind, err := auth.NewService(db.DB, testConfig().Auth).ResolveBearer(token)
	require.NoError(t, err)
	assert.Equal(t, auth.AuthTypeAPIToken, kind)
	assert.Equal(t, "alice", user.Username)
	require.NotNil(t, user.PublisherID)
	assert.Equal(t, uint(1), *user.PublisherID)
}

func TestCreateUserCommand_UnknownPublisher(t *testing.T) {
	cmd := NewCreateUserCommand(testConfig())
	cmd.Out = &bytes.Buffer{}
	require.NoError(t, cmd.ParseFlags([]string{
		"-db", tempDBPath(t),
		"-username", "bob",
		"-email", "bob@example.com",
		"-password", "correct-horse-battery",
		"-publisher", "9",
	}))

	assert.Error(t, cmd.Run())
}

func TestCreateUserCommand_RequiresFlags(t *testing.T) {
	cmd := NewCreateUserCommand(testConfig())
	assert.Error(t, cmd.ParseFlags([]string{"-username", "bob"}))
}

func TestPrintStats(t *testing.T) {
	db := openTestDB(t, tempDBPath(t))

	ace := &entities.Publisher{Name: "Ace"}
	tor := &entities.Publisher{Name: "Tor"}
	require.NoError(t, db.DB.Create(ace).Error)
	require.NoError(t, db.DB.Create(tor).Error)
	herbert := &entities.Author{Name: "Herbert"}
	lonely := &entities.Author{Name: "Lonely"}
	require.NoError(t, db.DB.Create(herbert).Error)
	require.NoError(t, db.DB.Create(lonely).Error)
	dune := &entities.Book{Title: "Dune", Description: "Spice", PublisherID: ace.ID}
	require.NoError(t, db.DB.Create(dune).Error)
	require.NoError(t, db.DB.Create(&entities.BookAuthor{BookID: dune.ID, AuthorID: herbert.ID}).Error)

	var out bytes.Buffer
	require.NoError(t, PrintStats(db, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, []string{"1", "Ace", "1"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2", "Tor", "0"}, strings.Fields(lines[2]))
	assert.Contains(t, out.String(), "Authors: 2 (1 without books)")
}
