package repository

import (
	"github.com/reshetovitsme/telegram-channel-archiver/internal/modules/session/domain"
)

// Repository defines the interface for checkpoint persistence
// This abstraction allows easy replacement of storage implementations
type Repository interface {
	Save(checkpoint *domain.Checkpoint) error
	Get(channel string) (*domain.Checkpoint, error)
	Clear(channel string) error
}
