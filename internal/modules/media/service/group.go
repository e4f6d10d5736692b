package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/reshetovitsme/tg-media-relay/internal/modules/media/domain"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/media/workspace"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/progress"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"
)

// FetchAndRepublishGroup relays a whole media group. It reports true when at
// least one item was prepared and sent, by the group send or the per-item fallback.
func (s *Service) FetchAndRepublishGroup(ctx context.Context, req Request, msg *domain.Message) (bool, error) {
	siblings, err := s.source.Group(ctx, msg)
	if err != nil {
		return false, oops.With("job_id", req.JobID, "group_id", msg.GroupID).Wrap(err)
	}
	items := lo.Filter(siblings, func(m *domain.Message, _ int) bool { return m.HasMedia() })

	scope := workspace.NewScope()
	defer s.release(req.JobID, scope)
	scope.TrackDir(s.ws.JobDir(req.JobID))

	statusID := s.reply(ctx, req.ChatID, "📥 Downloading media group...")
	defer s.deleteStatus(req.ChatID, statusID)
	s.logger.Info("Downloading media group", "job_id", req.JobID, "items", len(items))

	valid, err := s.prepareGroup(ctx, req, items, scope, newGroupProgress(s.tracker(req.ChatID, statusID, progress.Downloading), len(items)))
	if err != nil {
		return false, err
	}
	s.logger.Info("Valid media count", "job_id", req.JobID, "count", len(valid))

	if len(valid) == 0 {
		s.reply(ctx, req.ChatID, "❌ No valid media found in the media group.")
		return false, nil
	}

	sent := len(valid)
	if err := s.publisher.SendGroup(ctx, req.ChatID, valid); err != nil {
		if errors.IsCancelled(err) || ctx.Err() != nil {
			return false, err
		}
		s.logger.Warn("Media group send failed, falling back to individual uploads", "job_id", req.JobID, "error", err)
		s.reply(ctx, req.ChatID, "❌ Failed to send media group, trying individual uploads")
		if sent, err = s.sendIndividually(ctx, req, valid); err != nil {
			return false, err
		}
	}

	if sent == 0 {
		return false, nil
	}

	s.record(ctx, req, msg, sent)
	return true, nil
}

// prepareGroup downloads items concurrently into index slots, keeping source order.
// Every path is tracked before its download starts. Per-item failures leave an empty slot.
func (s *Service) prepareGroup(ctx context.Context, req Request, items []*domain.Message, scope *workspace.Scope, gp *groupProgress) ([]domain.Republish, error) {
	slots := make([]domain.Republish, len(items))
	paths := make([]string, len(items))

	for i, m := range items {
		path, err := s.ws.PayloadPath(req.JobID, m.ID, fileName(m))
		if err != nil {
			return nil, oops.With("job_id", req.JobID, "message_id", m.ID).Wrap(err)
		}
		paths[i] = path
		scope.Track(path)
		if m.Kind == domain.MediaKindVideo {
			s.trackThumbnails(scope, req.JobID, m.ID)
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.GroupConcurrency)

	for i, m := range items {
		g.Go(func() error {
			if err := s.source.Download(ctx, m, paths[i], gp.slot(ctx, i)); err != nil {
				if errors.IsCancelled(err) || ctx.Err() != nil {
					return err
				}
				s.logger.Info("Error downloading media", "job_id", req.JobID, "message_id", m.ID, "error", err)
				return nil
			}
			if err := s.checkUploadSize(paths[i]); err != nil {
				s.logger.Warn("Skipping group item", "job_id", req.JobID, "message_id", m.ID, "error", err)
				return nil
			}
			slots[i] = s.build(ctx, req.JobID, m, paths[i], scope)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return lo.Filter(slots, func(r domain.Republish, _ int) bool { return r != nil }), nil
}

// sendIndividually returns how many items made it out.
func (s *Service) sendIndividually(ctx context.Context, req Request, items []domain.Republish) (int, error) {
	sent := 0
	for _, item := range items {
		if err := s.publisher.Send(ctx, req.ChatID, item, nil); err != nil {
			if errors.IsCancelled(err) || ctx.Err() != nil {
				return sent, err
			}
			s.logger.Warn("Failed to upload individual media", "job_id", req.JobID, "path", item.LocalPath(), "error", err)
			s.reply(ctx, req.ChatID, fmt.Sprintf("Failed to upload individual media: %v", err))
			continue
		}
		sent++
	}
	return sent, nil
}

// groupProgress sums per-item counters into one tracker.
type groupProgress struct {
	tracker *progress.Tracker
	mu      sync.Mutex
	done    []int64
	total   []int64
}

func newGroupProgress(tracker *progress.Tracker, n int) *groupProgress {
	return &groupProgress{tracker: tracker, done: make([]int64, n), total: make([]int64, n)}
}

func (g *groupProgress) slot(ctx context.Context, i int) progress.Func {
	return func(done, total int64) {
		g.mu.Lock()
		g.done[i], g.total[i] = done, total
		sumDone, sumTotal := lo.Sum(g.done), lo.Sum(g.total)
		g.mu.Unlock()
		g.tracker.Update(ctx, sumDone, sumTotal)
	}
}
