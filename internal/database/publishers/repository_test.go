package publishers

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarian/internal/database"
)

func setupTestDB(t *testing.T) *Repository {
	dbPath := filepath.Join(t.TempDir(), "publishers.db")

	db, err := gorm.Open(sqlite.Open(database.SQLiteDSN(dbPath)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewRepository(db)
}

func TestRepository_Create(t *testing.T) {
	repo := setupTestDB(t)

	p, err := repo.Create("Ace Books")

	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, "Ace Books", p.Name)
}

func TestRepository_Create_DuplicateName(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.Create("Ace Books")
	require.NoError(t, err)
	_, err = repo.Create("Ace Books")

	assert.Error(t, err)
}

func TestRepository_GetOrCreate(t *testing.T) {
	repo := setupTestDB(t)

	first, err := repo.GetOrCreate("Tor")
	require.NoError(t, err)
	second, err := repo.GetOrCreate("Tor")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	byID, err := repo.GetByID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tor", byID.Name)
}

func TestRepository_ListAll(t *testing.T) {
	repo := setupTestDB(t)
	for _, name := range []string{"A", "B"} {
		_, err := repo.Create(name)
		require.NoError(t, err)
	}

	all, err := repo.ListAll()

	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].Name)
	assert.Equal(t, "B", all[1].Name)
}
