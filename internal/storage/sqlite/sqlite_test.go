package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/aanand-mishra/roster-api/internal/storage"
	"github.com/aanand-mishra/roster-api/internal/storage/storagetest"
	"github.com/aanand-mishra/roster-api/internal/types"
)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "roster.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStoreContract(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStore: func() storage.Storage { return newTestDB(t) },
	})
}

func TestFindAllKeepsInsertOrderAcrossUpdates(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	first, err := db.Save(ctx, types.Student{Name: "Andrew", Age: 17, Gender: "Male"})
	require.NoError(t, err)
	_, err = db.Save(ctx, types.Student{ID: "2", Name: "Victoria", Age: 17, Gender: "Female"})
	require.NoError(t, err)

	first.Name = "Andrii"
	_, err = db.Save(ctx, first)
	require.NoError(t, err)

	all, err := db.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Andrii", all[0].Name)
	assert.Equal(t, "Victoria", all[1].Name)
}

func TestNewIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.db")

	db, err := New(path)
	require.NoError(t, err)
	_, err = db.Save(context.Background(), types.Student{ID: "3", Name: "Borys", Age: 19, Gender: "Male"})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	found, err := reopened.FindByID(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "Borys", found.Name)
}
