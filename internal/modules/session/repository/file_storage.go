package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/oops"

	"github.com/reshetovitsme/telegram-channel-archiver/internal/modules/session/domain"
	mediaService "github.com/reshetovitsme/telegram-channel-archiver/internal/modules/media/service"
)

// FileStorage implements session.Repository using the file system, one JSON
// checkpoint file per channel under <root>/.state.
type FileStorage struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStorage creates a new file-based checkpoint repository
func NewFileStorage(basePath string) (Repository, error) {
	statePath := filepath.Join(basePath, ".state")
	if err := os.MkdirAll(statePath, 0755); err != nil {
		return nil, oops.With("base_path", basePath, "context", "failed to create state directory").Wrap(err)
	}

	return &FileStorage{basePath: statePath}, nil
}

func (s *FileStorage) Save(checkpoint *domain.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return oops.With("channel", checkpoint.Channel, "context", "failed to marshal checkpoint").Wrap(err)
	}

	return os.WriteFile(s.path(checkpoint.Channel), data, 0644)
}

// Get returns the stored checkpoint for the channel, or nil when none exists.
func (s *FileStorage) Get(channel string) (*domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(channel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, oops.With("channel", channel, "context", "failed to read checkpoint").Wrap(err)
	}

	var checkpoint domain.Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, oops.With("channel", channel, "context", "failed to unmarshal checkpoint").Wrap(err)
	}

	return &checkpoint, nil
}

func (s *FileStorage) Clear(channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(channel)); err != nil && !os.IsNotExist(err) {
		return oops.With("channel", channel, "context", "failed to clear checkpoint").Wrap(err)
	}
	return nil
}

func (s *FileStorage) path(channel string) string {
	return filepath.Join(s.basePath, mediaService.Sanitize(channel)+".json")
}
