package ledger

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spechub/pkg/database"
	"spechub/pkg/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func TestRecordMissAggregatesHits(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.RecordMiss(ctx, models.CategoryCPU, "Apple M2 Chip", "registry lookup"))
	require.NoError(t, repo.RecordMiss(ctx, models.CategoryCPU, "Apple M2 Chip", "template decode"))
	require.NoError(t, repo.RecordMiss(ctx, models.CategoryVGA, "Mystery Card", "registry lookup"))

	misses, err := repo.List(ctx, models.CategoryCPU, 0)
	require.NoError(t, err)
	require.Len(t, misses, 1)
	assert.Equal(t, "Apple M2 Chip", misses[0].Name)
	assert.Equal(t, 2, misses[0].Hits)
	assert.Equal(t, "template decode", misses[0].LastContext)

	all, err := repo.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	// most frequent first
	assert.Equal(t, "Apple M2 Chip", all[0].Name)
}

func TestClearRemovesResolvedNames(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.RecordMiss(ctx, models.CategoryVGA, "Card A", ""))
	require.NoError(t, repo.RecordMiss(ctx, models.CategoryVGA, "Card B", ""))

	require.NoError(t, repo.Clear(ctx, models.CategoryVGA, []string{"Card A"}))

	misses, err := repo.List(ctx, models.CategoryVGA, 0)
	require.NoError(t, err)
	require.Len(t, misses, 1)
	assert.Equal(t, "Card B", misses[0].Name)
}
