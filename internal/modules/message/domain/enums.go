//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// MediaType represents the category a media file is stored under
// ENUM(photo,video,document,audio)
type MediaType string

// PayloadKind represents the structural shape of a provider media payload
// ENUM(photo,document,voice)
type PayloadKind string
