package service

import (
	"context"

	"github.com/reshetovitsme/tg-media-relay/internal/modules/media/domain"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/media/workspace"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/progress"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/errors"
	"github.com/samber/oops"
)

// FetchAndRepublish downloads one message's payload and republishes it to req.ChatID.
// Failures are replied to the user here and returned wrapped as reported.
func (s *Service) FetchAndRepublish(ctx context.Context, req Request, msg *domain.Message) error {
	if err := s.checkDownloadSize(ctx, msg); err != nil {
		s.reply(ctx, req.ChatID, errors.UserMessage(err))
		return errors.Reported(err)
	}

	scope := workspace.NewScope()
	defer s.release(req.JobID, scope)

	path, err := s.ws.PayloadPath(req.JobID, msg.ID, fileName(msg))
	if err != nil {
		return s.fail(ctx, req, err)
	}
	scope.Track(path)
	scope.TrackDir(s.ws.JobDir(req.JobID))
	if msg.Kind == domain.MediaKindVideo {
		s.trackThumbnails(scope, req.JobID, msg.ID)
	}

	statusID := s.reply(ctx, req.ChatID, "📥 Downloading Progress...")
	defer s.deleteStatus(req.ChatID, statusID)

	down := s.tracker(req.ChatID, statusID, progress.Downloading)
	if err := s.source.Download(ctx, msg, path, down.Func(ctx)); err != nil {
		return s.fail(ctx, req, oops.With("job_id", req.JobID, "message_id", msg.ID).Wrap(err))
	}
	s.logger.Info("Downloaded media", "job_id", req.JobID, "path", path)

	if err := s.checkUploadSize(path); err != nil {
		return s.fail(ctx, req, err)
	}

	item := s.build(ctx, req.JobID, msg, path, scope)
	s.logger.Info("Uploading media", "job_id", req.JobID, "path", path, "kind", item.Kind())

	up := s.tracker(req.ChatID, statusID, progress.Uploading)
	if err := s.publisher.Send(ctx, req.ChatID, item, up.Func(ctx)); err != nil {
		return s.fail(ctx, req, oops.With("job_id", req.JobID, "message_id", msg.ID, "kind", item.Kind()).Wrap(err))
	}

	s.record(ctx, req, msg, 1)
	return nil
}

// build classifies msg and prepares the matching upload variant. Video and audio
// are probed; video also gets a thumbnail.
func (s *Service) build(ctx context.Context, jobID string, msg *domain.Message, path string, scope *workspace.Scope) domain.Republish {
	switch msg.Kind {
	case domain.MediaKindPhoto:
		return domain.NewPhoto(path, msg.Caption)
	case domain.MediaKindVideo:
		info := s.prober.Probe(ctx, path)
		duration := info.Duration
		if duration == 0 {
			duration = msg.Duration
		}
		thumb := s.thumbs.Resolve(ctx, jobID, msg, path, duration)
		scope.Track(thumb.Path)
		return domain.NewVideo(path, msg.Caption, duration, thumb)
	case domain.MediaKindAudio:
		info := s.prober.Probe(ctx, path)
		if info.Duration == 0 {
			info.Duration = msg.Duration
		}
		if info.Artist == "" {
			info.Artist = msg.Performer
		}
		if info.Title == "" {
			info.Title = msg.Title
		}
		return domain.NewAudio(path, msg.Caption, info)
	case domain.MediaKindAnimation:
		return domain.NewAnimation(path, msg.Caption)
	default:
		return domain.NewDocument(path, msg.Caption)
	}
}

func (s *Service) trackThumbnails(scope *workspace.Scope, jobID string, messageID int) {
	scope.Track(s.ws.ThumbPath(jobID, messageID, domain.ThumbnailOriginReused.String()))
	scope.Track(s.ws.ThumbPath(jobID, messageID, domain.ThumbnailOriginGenerated.String()))
}

func (s *Service) tracker(chatID int64, statusID int, action progress.Action) *progress.Tracker {
	if statusID == 0 {
		return nil
	}
	return progress.NewTracker(s.notifier, s.templates, chatID, statusID, action, s.cfg.ProgressInterval)
}

// fail replies once and marks err as reported. Cancellation is passed through silently.
func (s *Service) fail(ctx context.Context, req Request, err error) error {
	if errors.IsCancelled(err) || ctx.Err() != nil {
		return err
	}
	s.logger.Error("Failed to relay media", "job_id", req.JobID, "url", req.Ref.URL(), "error", err)
	s.reply(ctx, req.ChatID, errors.UserMessage(err))
	return errors.Reported(err)
}
