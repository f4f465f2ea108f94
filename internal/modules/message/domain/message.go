package domain

import "time"

// Message is a single channel history entry as fetched from the provider.
// Immutable once fetched.
type Message struct {
	ID         int64
	Date       time.Time
	Sender     string
	Text       string
	Attachment *Attachment
}

// Attachment describes a media payload attached to a message. Ref is the
// provider's opaque download reference; only the transport that produced it
// knows how to turn it back into bytes.
type Attachment struct {
	Kind     PayloadKind
	MIMEType string
	Filename string
	Size     int64
	Ref      any
}

// Channel is a resolved channel handle returned by the transport.
type Channel struct {
	ID         int64
	AccessHash int64
	Username   string
	Title      string
}

// DisplayName returns the channel title, falling back to the username
func (c *Channel) DisplayName() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Username
}

// Folder returns the output subdirectory dedicated to a media category.
func (t MediaType) Folder() string {
	if t == MediaTypeAudio {
		return "audio"
	}
	return string(t) + "s"
}
