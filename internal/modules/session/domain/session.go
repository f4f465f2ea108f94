package domain

import (
	"time"

	messageDomain "github.com/reshetovitsme/telegram-channel-archiver/internal/modules/message/domain"
)

// Session is the run-wide mutable state of one archive run. It is owned by a
// single retrieval loop and never shared between goroutines; the output
// directory it points at is exclusively owned for the session's lifetime.
type Session struct {
	Channel   string
	Dir       string
	StartedAt time.Time
	Limit     int   // 0 means no limit
	Cursor    int64 // lowest successfully processed message ID
	Stats     Stats
}

// Stats holds the per-category counters reported in the final summary.
type Stats struct {
	Messages  int `json:"messages"`
	Photos    int `json:"photos"`
	Videos    int `json:"videos"`
	Documents int `json:"documents"`
	Audio     int `json:"audio"`
	Errors    int `json:"errors"`
}

// CountMedia records one stored file of the given category.
func (s *Stats) CountMedia(category messageDomain.MediaType) {
	switch category {
	case messageDomain.MediaTypePhoto:
		s.Photos++
	case messageDomain.MediaTypeVideo:
		s.Videos++
	case messageDomain.MediaTypeDocument:
		s.Documents++
	case messageDomain.MediaTypeAudio:
		s.Audio++
	}
}

// Files returns the total number of stored media files.
func (s *Stats) Files() int {
	return s.Photos + s.Videos + s.Documents + s.Audio
}

// Checkpoint records where an interrupted run stopped so a later run can
// pick up after the recorded cursor instead of starting over.
type Checkpoint struct {
	Channel   string    `json:"channel"`
	Dir       string    `json:"dir"`
	Cursor    int64     `json:"cursor"`
	Done      bool      `json:"done"`
	UpdatedAt time.Time `json:"updated_at"`
}
