package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/oops"

	exportDomain "github.com/reshetovitsme/telegram-channel-archiver/internal/modules/export/domain"
	exportRepo "github.com/reshetovitsme/telegram-channel-archiver/internal/modules/export/repository"
	mediaService "github.com/reshetovitsme/telegram-channel-archiver/internal/modules/media/service"
	messageDomain "github.com/reshetovitsme/telegram-channel-archiver/internal/modules/message/domain"
	sessionDomain "github.com/reshetovitsme/telegram-channel-archiver/internal/modules/session/domain"
	sessionRepo "github.com/reshetovitsme/telegram-channel-archiver/internal/modules/session/repository"
	"github.com/reshetovitsme/telegram-channel-archiver/internal/shared/backoff"
	"github.com/reshetovitsme/telegram-channel-archiver/internal/shared/config"
	apperrors "github.com/reshetovitsme/telegram-channel-archiver/internal/shared/errors"
)

// Transport is the provider capability the retrieval loop consumes: channel
// resolution, ordered history pages, and media byte streams. Any compliant
// client can back it, including a test double.
//
// FetchHistoryPage returns messages strictly older than beforeID (all
// newest-first when beforeID is 0); an empty page signals end of history.
type Transport interface {
	ResolveChannel(ctx context.Context, identifier string) (*messageDomain.Channel, error)
	FetchHistoryPage(ctx context.Context, channel *messageDomain.Channel, beforeID int64, limit int) ([]*messageDomain.Message, error)
	FetchMedia(ctx context.Context, attachment *messageDomain.Attachment, w io.Writer) (int64, error)
}

// Service drives the archive run: pagination over channel history, media
// download and classification, export writing, and checkpointing.
type Service struct {
	cfg         *config.Config
	checkpoints sessionRepo.Repository
}

// New creates a new archive service
func New(cfg *config.Config, checkpoints sessionRepo.Repository) *Service {
	return &Service{
		cfg:         cfg,
		checkpoints: checkpoints,
	}
}

// Run archives the history of one channel. Messages are processed strictly
// one at a time, newest first; processing stops when history is exhausted,
// the limit is reached, or ctx is cancelled. Cancellation finalizes the
// session exactly like completion and is not an error. A fatal abort after
// exhausted retries surfaces as *errors.AbortedError carrying the cursor.
func (s *Service) Run(ctx context.Context, transport Transport, identifier string, limit int) (*sessionDomain.Session, error) {
	identifier = strings.TrimPrefix(identifier, "@")

	channel, err := transport.ResolveChannel(ctx, identifier)
	if err != nil {
		return nil, oops.With("channel", identifier).Wrap(err)
	}

	sess, resumed, err := s.prepareSession(channel, identifier, limit)
	if err != nil {
		return nil, err
	}

	writer, err := exportRepo.NewFileStorage(filepath.Join(sess.Dir, "messages"), channel.DisplayName(), sess.StartedAt)
	if err != nil {
		return sess, err
	}
	defer writer.Close()

	namer := mediaService.NewNamer()
	if resumed {
		s.seedNamer(namer, sess.Dir)
	}

	slog.Info("Starting download",
		"channel", channel.DisplayName(),
		"dir", sess.Dir,
		"resumed", resumed,
		"cursor", sess.Cursor,
		"limit", sess.Limit)

	complete, runErr := s.retrieve(ctx, transport, channel, sess, writer, namer)
	s.finalize(sess, complete)
	return sess, runErr
}

// retrieve is the pagination loop. complete is true when history was
// exhausted or the limit was reached; a cancelled run is not complete but
// not an error either.
func (s *Service) retrieve(
	ctx context.Context,
	transport Transport,
	channel *messageDomain.Channel,
	sess *sessionDomain.Session,
	writer exportRepo.Writer,
	namer *mediaService.Namer,
) (bool, error) {
	ctrl := backoff.New(s.cfg.BackoffBase(), s.cfg.BackoffCeiling(), s.cfg.MaxRetries)

	for {
		if ctx.Err() != nil {
			slog.Info("Cancellation requested, finalizing", "cursor", sess.Cursor)
			return false, nil
		}

		page, err := s.fetchPage(ctx, transport, channel, sess.Cursor, ctrl)
		if err != nil {
			if stderrors.Is(err, apperrors.ErrRetriesExhausted) {
				return false, &apperrors.AbortedError{Cursor: sess.Cursor, Err: err}
			}
			if stderrors.Is(err, context.Canceled) {
				return false, nil
			}
			return false, err
		}
		if len(page) == 0 {
			return true, nil
		}
		ctrl.Reset()

		for _, msg := range page {
			if sess.Limit > 0 && sess.Stats.Messages >= sess.Limit {
				return true, nil
			}
			if ctx.Err() != nil {
				slog.Info("Cancellation requested, finalizing", "cursor", sess.Cursor)
				return false, nil
			}

			if err := s.processMessage(ctx, transport, sess, writer, namer, msg); err != nil {
				// processMessage only fails on cancellation; the interrupted
				// message is left for the resumed run.
				return false, nil
			}

			sess.Cursor = msg.ID
			s.saveCheckpoint(sess, false)

			if sess.Stats.Messages%100 == 0 {
				slog.Info("Progress", "messages", sess.Stats.Messages, "files", sess.Stats.Files(), "errors", sess.Stats.Errors)
			}
		}
	}
}

// fetchPage fetches one history page, retrying through the backoff
// controller. Resolution errors pass through untouched; exhausted retries
// surface as ErrRetriesExhausted.
func (s *Service) fetchPage(
	ctx context.Context,
	transport Transport,
	channel *messageDomain.Channel,
	beforeID int64,
	ctrl *backoff.Controller,
) ([]*messageDomain.Message, error) {
	for {
		pageCtx, cancel := context.WithTimeout(ctx, s.cfg.PageTimeout())
		page, err := transport.FetchHistoryPage(pageCtx, channel, beforeID, s.cfg.PageSize)
		cancel()
		if err == nil {
			return page, nil
		}
		if stderrors.Is(err, apperrors.ErrChannelNotFound) || stderrors.Is(err, apperrors.ErrAccessDenied) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if wait, ok := apperrors.AsFloodWait(err); ok {
			slog.Warn("Rate limited", "wait", wait, "cursor", beforeID)
		} else {
			slog.Warn("Page fetch failed, retrying", "cursor", beforeID, "error", err)
		}
		if werr := ctrl.Wait(ctx, err); werr != nil {
			return nil, werr
		}
	}
}

// processMessage downloads the attachment (if any) and appends the export
// record. Local failures are absorbed into statistics; the only returned
// error is cancellation mid-message.
func (s *Service) processMessage(
	ctx context.Context,
	transport Transport,
	sess *sessionDomain.Session,
	writer exportRepo.Writer,
	namer *mediaService.Namer,
	msg *messageDomain.Message,
) error {
	var mediaPath *string
	if msg.Attachment != nil {
		rel, category, err := s.downloadMedia(ctx, transport, sess, namer, msg)
		switch {
		case err == nil:
			mediaPath = &rel
			sess.Stats.CountMedia(category)
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			sess.Stats.Errors++
			slog.Error("Failed to download media", "message_id", msg.ID, "error", err)
		}
	}

	record := &exportDomain.Record{
		ID:        msg.ID,
		Date:      msg.Date,
		Sender:    msg.Sender,
		Text:      msg.Text,
		MediaPath: mediaPath,
	}
	if err := writer.Append(record); err != nil {
		sess.Stats.Errors++
		slog.Error("Failed to append export record", "message_id", msg.ID, "error", err)
	}

	sess.Stats.Messages++
	return nil
}

// downloadMedia writes the attachment into its category folder and returns
// the path relative to the run directory. Throttling and transient failures
// are retried with a dedicated controller; a partially written file is
// always removed so the tree never holds truncated output.
func (s *Service) downloadMedia(
	ctx context.Context,
	transport Transport,
	sess *sessionDomain.Session,
	namer *mediaService.Namer,
	msg *messageDomain.Message,
) (string, messageDomain.MediaType, error) {
	category, name := namer.Name(msg.ID, msg.Attachment)
	rel := filepath.Join(category.Folder(), name)
	target := filepath.Join(sess.Dir, rel)

	ctrl := backoff.New(s.cfg.BackoffBase(), s.cfg.BackoffCeiling(), s.cfg.MaxRetries)
	for {
		err := s.fetchToFile(ctx, transport, msg.Attachment, target)
		if err == nil {
			return rel, category, nil
		}
		if ctx.Err() != nil {
			return "", category, err
		}
		if werr := ctrl.Wait(ctx, err); werr != nil {
			// Exhausted retries on a single file stay a per-item error.
			return "", category, werr
		}
	}
}

func (s *Service) fetchToFile(ctx context.Context, transport Transport, attachment *messageDomain.Attachment, target string) error {
	f, err := os.Create(target)
	if err != nil {
		return oops.With("path", target, "context", "failed to create media file").Wrap(err)
	}

	mediaCtx, cancel := context.WithTimeout(ctx, s.cfg.MediaTimeout())
	defer cancel()

	_, err = transport.FetchMedia(mediaCtx, attachment, f)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(target)
		return err
	}
	return nil
}

// prepareSession either resumes an interrupted run into its original
// directory or creates a fresh timestamped tree with the category folders.
func (s *Service) prepareSession(channel *messageDomain.Channel, identifier string, limit int) (*sessionDomain.Session, bool, error) {
	now := time.Now()

	cp, err := s.checkpoints.Get(identifier)
	if err != nil {
		slog.Warn("Failed to read checkpoint, starting fresh", "channel", identifier, "error", err)
	}
	if cp != nil && !cp.Done {
		if _, statErr := os.Stat(cp.Dir); statErr == nil {
			sess := &sessionDomain.Session{
				Channel:   identifier,
				Dir:       cp.Dir,
				StartedAt: now,
				Limit:     limit,
				Cursor:    cp.Cursor,
			}
			if err := s.createLayout(sess.Dir); err != nil {
				return nil, false, err
			}
			return sess, true, nil
		}
		// Stale checkpoint pointing at a removed tree.
		slog.Warn("Checkpoint directory is gone, starting fresh", "channel", identifier, "dir", cp.Dir)
	}

	name := mediaService.Sanitize(channel.DisplayName())
	if name == "" {
		name = identifier
	}
	dir := filepath.Join(s.cfg.OutputRoot, fmt.Sprintf("%s_%s", name, now.Format("20060102_150405")))
	if err := s.createLayout(dir); err != nil {
		return nil, false, err
	}

	return &sessionDomain.Session{
		Channel:   identifier,
		Dir:       dir,
		StartedAt: now,
		Limit:     limit,
	}, false, nil
}

func (s *Service) createLayout(dir string) error {
	for _, sub := range []string{
		messageDomain.MediaTypePhoto.Folder(),
		messageDomain.MediaTypeVideo.Folder(),
		messageDomain.MediaTypeDocument.Folder(),
		messageDomain.MediaTypeAudio.Folder(),
		"messages",
	} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return oops.With("dir", dir, "context", "failed to create output directory").Wrap(err)
		}
	}
	return nil
}

// seedNamer reserves filenames already written by the interrupted part of
// the run so a resumed run never clobbers them.
func (s *Service) seedNamer(namer *mediaService.Namer, dir string) {
	for _, category := range []messageDomain.MediaType{
		messageDomain.MediaTypePhoto,
		messageDomain.MediaTypeVideo,
		messageDomain.MediaTypeDocument,
		messageDomain.MediaTypeAudio,
	} {
		entries, err := os.ReadDir(filepath.Join(dir, category.Folder()))
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				namer.Reserve(category, entry.Name())
			}
		}
	}
}

func (s *Service) saveCheckpoint(sess *sessionDomain.Session, done bool) {
	cp := &sessionDomain.Checkpoint{
		Channel:   sess.Channel,
		Dir:       sess.Dir,
		Cursor:    sess.Cursor,
		Done:      done,
		UpdatedAt: time.Now(),
	}
	if err := s.checkpoints.Save(cp); err != nil {
		slog.Error("Failed to save checkpoint", "channel", sess.Channel, "error", err)
	}
}

// finalize records the resumption state and logs the summary. It runs on
// every outcome: completion, clean cancellation, and fatal abort.
func (s *Service) finalize(sess *sessionDomain.Session, complete bool) {
	if complete {
		if err := s.checkpoints.Clear(sess.Channel); err != nil {
			slog.Error("Failed to clear checkpoint", "channel", sess.Channel, "error", err)
		}
	} else {
		s.saveCheckpoint(sess, false)
	}

	slog.Info("Download finished",
		"complete", complete,
		"messages", sess.Stats.Messages,
		"photos", sess.Stats.Photos,
		"videos", sess.Stats.Videos,
		"documents", sess.Stats.Documents,
		"audio", sess.Stats.Audio,
		"errors", sess.Stats.Errors,
		"dir", sess.Dir)
}
