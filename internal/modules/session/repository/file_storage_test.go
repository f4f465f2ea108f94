package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reshetovitsme/telegram-channel-archiver/internal/modules/session/domain"
)

func TestCheckpointRoundTrip(t *testing.T) {
	repo, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	cp := &domain.Checkpoint{
		Channel:   "somechannel",
		Dir:       "/tmp/somechannel_20240301_120000",
		Cursor:    4242,
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Save(cp))

	got, err := repo.Get("somechannel")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cp.Dir, got.Dir)
	assert.Equal(t, int64(4242), got.Cursor)
	assert.False(t, got.Done)
}

func TestGetMissingCheckpointReturnsNil(t *testing.T) {
	repo, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	got, err := repo.Get("nothing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveOverwritesPreviousCheckpoint(t *testing.T) {
	repo, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.Save(&domain.Checkpoint{Channel: "ch", Cursor: 100}))
	require.NoError(t, repo.Save(&domain.Checkpoint{Channel: "ch", Cursor: 50}))

	got, err := repo.Get("ch")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(50), got.Cursor)
}

func TestClearRemovesCheckpoint(t *testing.T) {
	repo, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.Save(&domain.Checkpoint{Channel: "ch", Cursor: 1}))
	require.NoError(t, repo.Clear("ch"))

	got, err := repo.Get("ch")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Clearing twice is not an error.
	assert.NoError(t, repo.Clear("ch"))
}

func TestChannelNamesAreSanitizedForStatePaths(t *testing.T) {
	repo, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.Save(&domain.Checkpoint{Channel: "weird/chan:nel", Cursor: 7}))

	got, err := repo.Get("weird/chan:nel")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.Cursor)
}
