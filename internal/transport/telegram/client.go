package telegram

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/samber/oops"

	messageDomain "github.com/reshetovitsme/telegram-channel-archiver/internal/modules/message/domain"
	apperrors "github.com/reshetovitsme/telegram-channel-archiver/internal/shared/errors"
)

// Client adapts the MTProto API to the retrieval loop's transport contract.
type Client struct {
	api *tg.Client
	dl  *downloader.Downloader
}

// New creates a new transport client on top of an authorized API connection
func New(api *tg.Client) *Client {
	return &Client{
		api: api,
		dl:  downloader.NewDownloader(),
	}
}

// ResolveChannel looks up a public channel by username.
func (c *Client) ResolveChannel(ctx context.Context, identifier string) (*messageDomain.Channel, error) {
	resolved, err := c.api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{
		Username: identifier,
	})
	if err != nil {
		return nil, mapError(err)
	}

	for _, chat := range resolved.Chats {
		channel, ok := chat.(*tg.Channel)
		if !ok {
			continue
		}
		return &messageDomain.Channel{
			ID:         channel.ID,
			AccessHash: channel.AccessHash,
			Username:   channel.Username,
			Title:      channel.Title,
		}, nil
	}

	// The username resolved to a user or a basic group.
	return nil, oops.With("identifier", identifier).Wrap(apperrors.ErrChannelNotFound)
}

// FetchHistoryPage returns up to limit messages strictly older than beforeID,
// newest first. Service messages (joins, pins, title changes) carry no user
// content and are dropped; when a whole provider page consists of them the
// fetch continues past it, so an empty return always means end of history.
func (c *Client) FetchHistoryPage(ctx context.Context, channel *messageDomain.Channel, beforeID int64, limit int) ([]*messageDomain.Message, error) {
	offset := int(beforeID)
	for {
		history, err := c.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer: &tg.InputPeerChannel{
				ChannelID:  channel.ID,
				AccessHash: channel.AccessHash,
			},
			OffsetID: offset,
			Limit:    limit,
		})
		if err != nil {
			return nil, mapError(err)
		}

		var raw []tg.MessageClass
		switch page := history.(type) {
		case *tg.MessagesChannelMessages:
			raw = page.Messages
		case *tg.MessagesMessagesSlice:
			raw = page.Messages
		case *tg.MessagesMessages:
			raw = page.Messages
		default:
			return nil, oops.With("type", history.TypeName()).Errorf("unexpected history response")
		}
		if len(raw) == 0 {
			return nil, nil
		}

		messages := make([]*messageDomain.Message, 0, len(raw))
		for _, m := range raw {
			msg, ok := m.(*tg.Message)
			if !ok {
				continue
			}
			messages = append(messages, convertMessage(msg))
		}
		if len(messages) > 0 {
			return messages, nil
		}

		// Whole page was service messages; continue below the oldest of them.
		offset = oldestID(raw)
	}
}

func oldestID(raw []tg.MessageClass) int {
	oldest := 0
	for _, m := range raw {
		if id := m.GetID(); oldest == 0 || id < oldest {
			oldest = id
		}
	}
	return oldest
}

// FetchMedia streams the attachment's bytes into w and reports how many were
// written.
func (c *Client) FetchMedia(ctx context.Context, attachment *messageDomain.Attachment, w io.Writer) (int64, error) {
	location, ok := attachment.Ref.(tg.InputFileLocationClass)
	if !ok {
		return 0, oops.With("filename", attachment.Filename).Errorf("attachment carries no download location")
	}

	counter := &countingWriter{w: w}
	if _, err := c.dl.Download(c.api, location).Stream(ctx, counter); err != nil {
		return counter.n, mapError(err)
	}
	return counter.n, nil
}

func convertMessage(msg *tg.Message) *messageDomain.Message {
	return &messageDomain.Message{
		ID:         int64(msg.ID),
		Date:       time.Unix(int64(msg.Date), 0).UTC(),
		Sender:     senderOf(msg),
		Text:       msg.Message,
		Attachment: convertMedia(msg.Media),
	}
}

func senderOf(msg *tg.Message) string {
	if author, ok := msg.GetPostAuthor(); ok && author != "" {
		return author
	}
	if from, ok := msg.GetFromID(); ok {
		switch peer := from.(type) {
		case *tg.PeerUser:
			return fmt.Sprintf("user_%d", peer.UserID)
		case *tg.PeerChannel:
			return fmt.Sprintf("channel_%d", peer.ChannelID)
		case *tg.PeerChat:
			return fmt.Sprintf("chat_%d", peer.ChatID)
		}
	}
	return "channel"
}

// convertMedia maps a provider media payload to a downloadable attachment.
// Payloads with no file behind them (link previews, polls, locations) map to
// nil and the message is archived as text only.
func convertMedia(media tg.MessageMediaClass) *messageDomain.Attachment {
	switch m := media.(type) {
	case *tg.MessageMediaPhoto:
		photo, ok := m.GetPhoto()
		if !ok {
			return nil
		}
		p, ok := photo.(*tg.Photo)
		if !ok {
			return nil
		}
		thumb, size, ok := largestPhotoSize(p.Sizes)
		if !ok {
			return nil
		}
		return &messageDomain.Attachment{
			Kind:     messageDomain.PayloadKindPhoto,
			MIMEType: "image/jpeg",
			Size:     int64(size),
			Ref: &tg.InputPhotoFileLocation{
				ID:            p.ID,
				AccessHash:    p.AccessHash,
				FileReference: p.FileReference,
				ThumbSize:     thumb,
			},
		}

	case *tg.MessageMediaDocument:
		document, ok := m.GetDocument()
		if !ok {
			return nil
		}
		d, ok := document.(*tg.Document)
		if !ok {
			return nil
		}

		kind := messageDomain.PayloadKindDocument
		var filename string
		for _, attr := range d.Attributes {
			switch a := attr.(type) {
			case *tg.DocumentAttributeFilename:
				filename = a.FileName
			case *tg.DocumentAttributeAudio:
				if a.Voice {
					kind = messageDomain.PayloadKindVoice
				}
			}
		}

		return &messageDomain.Attachment{
			Kind:     kind,
			MIMEType: d.MimeType,
			Filename: filename,
			Size:     d.Size,
			Ref: &tg.InputDocumentFileLocation{
				ID:            d.ID,
				AccessHash:    d.AccessHash,
				FileReference: d.FileReference,
			},
		}
	}

	return nil
}

// largestPhotoSize picks the thumb type holding the most bytes. Progressive
// sizes record cumulative byte counts, the last being the full image.
func largestPhotoSize(sizes []tg.PhotoSizeClass) (string, int, bool) {
	var (
		thumb string
		best  int
		found bool
	)
	for _, s := range sizes {
		switch size := s.(type) {
		case *tg.PhotoSize:
			if size.Size >= best {
				thumb, best, found = size.Type, size.Size, true
			}
		case *tg.PhotoSizeProgressive:
			var total int
			for _, n := range size.Sizes {
				if n > total {
					total = n
				}
			}
			if total >= best {
				thumb, best, found = size.Type, total, true
			}
		}
	}
	return thumb, best, found
}

// mapError translates provider errors into the application's error domain so
// the retrieval loop never has to know RPC error codes.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if wait, ok := tgerr.AsFloodWait(err); ok {
		return &apperrors.FloodWaitError{Wait: wait}
	}
	if tgerr.Is(err, "USERNAME_NOT_OCCUPIED", "USERNAME_INVALID", "CHANNEL_INVALID") {
		return oops.With("cause", err.Error()).Wrap(apperrors.ErrChannelNotFound)
	}
	if tgerr.Is(err, "CHANNEL_PRIVATE", "CHAT_ADMIN_REQUIRED") {
		return oops.With("cause", err.Error()).Wrap(apperrors.ErrAccessDenied)
	}
	return err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
