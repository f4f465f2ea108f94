package domain

import "time"

// Record is one exported message entry. The JSON field set is the export
// format contract; MediaPath is the path of the saved file relative to the
// run directory, null when the message carried no media.
type Record struct {
	ID        int64     `json:"id"`
	Date      time.Time `json:"date"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	MediaPath *string   `json:"media_path"`
}
