package service

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/reshetovitsme/telegram-channel-archiver/internal/modules/message/domain"
)

const maxFilenameLen = 255

// Classify maps a payload descriptor to its storage category. Voice notes
// are audio regardless of the declared MIME type; structural photos are
// photos; everything the MIME type does not identify files under documents,
// so no attachment is ever dropped for lack of classification.
func Classify(kind domain.PayloadKind, mimeType string) domain.MediaType {
	switch kind {
	case domain.PayloadKindVoice:
		return domain.MediaTypeAudio
	case domain.PayloadKindPhoto:
		return domain.MediaTypePhoto
	}

	switch primaryToken(mimeType) {
	case "image":
		return domain.MediaTypePhoto
	case "video":
		return domain.MediaTypeVideo
	case "audio":
		return domain.MediaTypeAudio
	default:
		return domain.MediaTypeDocument
	}
}

// Namer assigns collision-free filenames within a single run. It is used by
// a single retrieval loop and is not safe for concurrent use.
type Namer struct {
	used map[string]struct{}
}

// NewNamer creates a namer with an empty reservation set
func NewNamer() *Namer {
	return &Namer{used: make(map[string]struct{})}
}

// Name classifies the attachment and returns its category together with a
// filename that is unique within that category folder for this run. The
// provider-declared name is preferred when present; otherwise a name is
// synthesized from the message ID and the MIME type.
func (n *Namer) Name(messageID int64, attachment *domain.Attachment) (domain.MediaType, string) {
	category := Classify(attachment.Kind, attachment.MIMEType)

	name := Sanitize(attachment.Filename)
	if name == "" {
		name = synthesize(messageID, category, attachment.MIMEType)
	}

	return category, n.reserve(category, name, messageID)
}

// Reserve marks a filename as taken in a category folder. Used when resuming
// a run so earlier files are never clobbered.
func (n *Namer) Reserve(category domain.MediaType, name string) {
	n.used[string(category)+"/"+name] = struct{}{}
}

func (n *Namer) reserve(category domain.MediaType, name string, messageID int64) string {
	key := string(category) + "/" + name
	if _, taken := n.used[key]; !taken {
		n.used[key] = struct{}{}
		return name
	}

	// Disambiguate by appending the message identifier; a counter covers the
	// pathological case of a declared name that already carries it.
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := fmt.Sprintf("%s_%d%s", base, messageID, ext)
	for i := 2; ; i++ {
		key = string(category) + "/" + candidate
		if _, taken := n.used[key]; !taken {
			n.used[key] = struct{}{}
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d_%d%s", base, messageID, i, ext)
	}
}

// Sanitize removes characters that are invalid in filenames and caps the
// length so any declared name is safe to write to disk.
func Sanitize(name string) string {
	const invalid = `<>:"/\|?*`

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if strings.ContainsRune(invalid, r) || r < 0x20 {
			b.WriteRune('_')
		} else {
			b.WriteRune(r)
		}
	}

	out := strings.TrimSpace(b.String())
	if len(out) > maxFilenameLen {
		out = out[:maxFilenameLen]
	}
	return out
}

func synthesize(messageID int64, category domain.MediaType, mimeType string) string {
	if category == domain.MediaTypePhoto {
		return fmt.Sprintf("photo_%d.jpg", messageID)
	}
	return fmt.Sprintf("file_%d.%s", messageID, extensionFor(mimeType))
}

func primaryToken(mimeType string) string {
	token, _, _ := strings.Cut(mimeType, "/")
	return strings.ToLower(strings.TrimSpace(token))
}

func extensionFor(mimeType string) string {
	_, subtype, found := strings.Cut(mimeType, "/")
	if !found || subtype == "" {
		return "bin"
	}
	// "audio/ogg; codecs=opus" and "svg+xml" style subtypes carry extra
	// tokens that do not belong in an extension.
	subtype, _, _ = strings.Cut(subtype, ";")
	subtype, _, _ = strings.Cut(subtype, "+")
	subtype = strings.TrimSpace(strings.ToLower(subtype))
	if subtype == "" {
		return "bin"
	}
	return subtype
}
