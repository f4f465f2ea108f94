package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/reshetovitsme/telegram-channel-archiver/internal/modules/export/domain"
)

// FileStorage implements export.Writer with two sinks under one directory:
// messages.txt (human-readable log) and messages.json (ordered record array).
type FileStorage struct {
	jsonPath string
	text     *os.File
	records  []*domain.Record
	mu       sync.Mutex
}

// NewFileStorage opens both export sinks under dir. When the directory
// already holds exports from an interrupted run, existing records are loaded
// back so appends continue the same ordered sequence.
func NewFileStorage(dir, channelName string, startedAt time.Time) (Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, oops.With("dir", dir, "context", "failed to create export directory").Wrap(err)
	}

	jsonPath := filepath.Join(dir, "messages.json")
	var records []*domain.Record
	if data, err := os.ReadFile(jsonPath); err == nil {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, oops.With("path", jsonPath, "context", "failed to parse existing export").Wrap(err)
		}
	}

	textPath := filepath.Join(dir, "messages.txt")
	text, err := os.OpenFile(textPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, oops.With("path", textPath, "context", "failed to open text export").Wrap(err)
	}

	s := &FileStorage{
		jsonPath: jsonPath,
		text:     text,
		records:  records,
	}

	info, err := text.Stat()
	if err != nil {
		text.Close()
		return nil, oops.With("path", textPath, "context", "failed to stat text export").Wrap(err)
	}
	if info.Size() == 0 {
		header := fmt.Sprintf("Channel: %s\nDownload started: %s\n%s\n\n",
			channelName, startedAt.Format(time.RFC3339), strings.Repeat("=", 80))
		if _, err := text.WriteString(header); err != nil {
			text.Close()
			return nil, oops.With("path", textPath, "context", "failed to write export header").Wrap(err)
		}
	}

	return s, nil
}

// Append writes the record to both sinks and persists them before returning.
func (s *FileStorage) Append(record *domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Message ID: %d\n", record.ID)
	fmt.Fprintf(&b, "Date: %s\n", record.Date.Format(time.RFC3339))
	fmt.Fprintf(&b, "Sender: %s\n", record.Sender)
	if record.Text != "" {
		fmt.Fprintf(&b, "Text: %s\n", record.Text)
	}
	if record.MediaPath != nil {
		fmt.Fprintf(&b, "Media: %s\n", *record.MediaPath)
	}
	b.WriteString(strings.Repeat("-", 80) + "\n\n")

	if _, err := s.text.WriteString(b.String()); err != nil {
		return oops.With("message_id", record.ID, "context", "failed to write text export").Wrap(err)
	}
	if err := s.text.Sync(); err != nil {
		return oops.With("message_id", record.ID, "context", "failed to sync text export").Wrap(err)
	}

	s.records = append(s.records, record)
	return s.flushJSON()
}

// Count returns the number of records currently exported.
func (s *FileStorage) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *FileStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.Close()
}

// flushJSON rewrites the JSON export atomically so a crash never leaves a
// truncated array behind.
func (s *FileStorage) flushJSON() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return oops.With("context", "failed to marshal export records").Wrap(err)
	}

	tmp := s.jsonPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return oops.With("path", tmp, "context", "failed to write JSON export").Wrap(err)
	}
	if err := os.Rename(tmp, s.jsonPath); err != nil {
		return oops.With("path", s.jsonPath, "context", "failed to replace JSON export").Wrap(err)
	}
	return nil
}
