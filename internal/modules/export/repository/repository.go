package repository

import (
	"github.com/reshetovitsme/telegram-channel-archiver/internal/modules/export/domain"
)

// Writer defines the interface for the synchronized message exports. Both
// sinks are durably updated before Append returns, so an interrupted run
// leaves them consistent with each other.
type Writer interface {
	Append(record *domain.Record) error
	Count() int
	Close() error
}
