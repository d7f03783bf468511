package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/browserwing/nopo/models"
)

func openTestDB(t *testing.T) *BoltDB {
	t.Helper()
	db, err := NewBoltDB(filepath.Join(t.TempDir(), "data", "nopo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPageCRUD(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()

	older := &models.PageDefinition{ID: "p1", Name: "login", CreatedAt: now.Add(-time.Hour)}
	newer := &models.PageDefinition{ID: "p2", Name: "search", CreatedAt: now}
	require.NoError(t, db.SavePage(older))
	require.NoError(t, db.SavePage(newer))

	got, err := db.GetPage("p1")
	require.NoError(t, err)
	assert.Equal(t, "login", got.Name)

	pages, err := db.ListPages()
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "p2", pages[0].ID)

	got.Name = "sign-in"
	got.CreatedAt = time.Time{}
	require.NoError(t, db.UpdatePage(got))
	got, err = db.GetPage("p1")
	require.NoError(t, err)
	assert.Equal(t, "sign-in", got.Name)
	assert.WithinDuration(t, older.CreatedAt, got.CreatedAt, time.Second)
	assert.False(t, got.UpdatedAt.IsZero())

	err = db.UpdatePage(&models.PageDefinition{ID: "ghost"})
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = db.GetPage("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePageRemovesRuns(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()

	require.NoError(t, db.SavePage(&models.PageDefinition{ID: "p1", Name: "a"}))
	require.NoError(t, db.SaveRun(&models.Run{ID: "r1", PageID: "p1", StartTime: now.Add(-time.Minute)}))
	require.NoError(t, db.SaveRun(&models.Run{ID: "r2", PageID: "p1", StartTime: now}))
	require.NoError(t, db.SaveRun(&models.Run{ID: "r3", PageID: "p2", StartTime: now}))

	runs, err := db.ListRuns("p1")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r2", runs[0].ID)

	all, err := db.ListRuns("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, db.DeletePage("p1"))
	runs, err = db.ListRuns("p1")
	require.NoError(t, err)
	assert.Empty(t, runs)

	run, err := db.GetRun("r3")
	require.NoError(t, err)
	assert.Equal(t, "p2", run.PageID)

	assert.ErrorIs(t, db.DeletePage("p1"), ErrNotFound)

	require.NoError(t, db.DeleteRunsByPageID("p2"))
	_, err = db.GetRun("r3")
	assert.ErrorIs(t, err, ErrNotFound)
}
