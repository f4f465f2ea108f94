package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reshetovitsme/telegram-channel-archiver/internal/modules/export/domain"
)

func testRecord(id int64, text string, mediaPath *string) *domain.Record {
	return &domain.Record{
		ID:        id,
		Date:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Minute),
		Sender:    "channel",
		Text:      text,
		MediaPath: mediaPath,
	}
}

func readJSONExport(t *testing.T, dir string) []*domain.Record {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "messages.json"))
	require.NoError(t, err)

	var records []*domain.Record
	require.NoError(t, json.Unmarshal(data, &records))
	return records
}

func TestAppendKeepsBothSinksInSync(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFileStorage(dir, "testchannel", time.Now())
	require.NoError(t, err)
	defer w.Close()

	media := "photos/photo_2.jpg"
	require.NoError(t, w.Append(testRecord(3, "hello", nil)))
	require.NoError(t, w.Append(testRecord(2, "with media", &media)))
	require.NoError(t, w.Append(testRecord(1, "", nil)))

	records := readJSONExport(t, dir)
	require.Len(t, records, 3)
	assert.Equal(t, w.Count(), len(records))

	// Order in the JSON export matches append order.
	assert.Equal(t, int64(3), records[0].ID)
	assert.Equal(t, int64(2), records[1].ID)
	assert.Equal(t, int64(1), records[2].ID)
	require.NotNil(t, records[1].MediaPath)
	assert.Equal(t, media, *records[1].MediaPath)
	assert.Nil(t, records[0].MediaPath)

	text, err := os.ReadFile(filepath.Join(dir, "messages.txt"))
	require.NoError(t, err)
	log := string(text)
	assert.Contains(t, log, "Channel: testchannel")
	assert.Contains(t, log, "Message ID: 3")
	assert.Contains(t, log, "Media: photos/photo_2.jpg")
	assert.Equal(t, 3, strings.Count(log, "Message ID:"), "one block per record")

	// Text log block order matches the JSON export order.
	assert.Less(t, strings.Index(log, "Message ID: 3"), strings.Index(log, "Message ID: 2"))
	assert.Less(t, strings.Index(log, "Message ID: 2"), strings.Index(log, "Message ID: 1"))
}

func TestNullMediaPathIsExportedAsNull(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFileStorage(dir, "testchannel", time.Now())
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Append(testRecord(1, "text only", nil)))

	data, err := os.ReadFile(filepath.Join(dir, "messages.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"media_path": null`)
}

func TestReopenResumesExistingExport(t *testing.T) {
	dir := t.TempDir()

	w, err := NewFileStorage(dir, "testchannel", time.Now())
	require.NoError(t, err)
	require.NoError(t, w.Append(testRecord(5, "first", nil)))
	require.NoError(t, w.Append(testRecord(4, "second", nil)))
	require.NoError(t, w.Close())

	// Reopen as a resumed run would.
	w, err = NewFileStorage(dir, "testchannel", time.Now())
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, 2, w.Count())
	require.NoError(t, w.Append(testRecord(3, "third", nil)))

	records := readJSONExport(t, dir)
	require.Len(t, records, 3)
	assert.Equal(t, []int64{5, 4, 3}, []int64{records[0].ID, records[1].ID, records[2].ID})

	text, err := os.ReadFile(filepath.Join(dir, "messages.txt"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(text), "Channel: testchannel"), "header written once")
	assert.Equal(t, 3, strings.Count(string(text), "Message ID:"))
}

func TestExportIsDurableAfterEveryAppend(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFileStorage(dir, "testchannel", time.Now())
	require.NoError(t, err)
	defer w.Close()

	for id := int64(10); id > 0; id-- {
		require.NoError(t, w.Append(testRecord(id, "msg", nil)))
		// Both sinks are already on disk, without waiting for Close.
		assert.Len(t, readJSONExport(t, dir), int(11-id))
	}
}
