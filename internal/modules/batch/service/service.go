package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/reshetovitsme/tg-media-relay/internal/modules/media/domain"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/errors"
	"github.com/samber/oops"
)

const (
	// BatchDelay is the pause between posts of /bdl.
	BatchDelay = 3 * time.Second
	// RangeDelay is the pause between posts of /dlrange.
	RangeDelay = 2 * time.Second
)

// Resolver fetches a single post.
type Resolver interface {
	Resolve(ctx context.Context, ref domain.PostReference) (*domain.Message, error)
}

// Dispatch relays one resolved post as a tracked, cancellable unit and waits for it.
type Dispatch func(ctx context.Context, ref domain.PostReference, msg *domain.Message) error

// Service walks a message ID range sequentially.
type Service struct {
	resolver Resolver
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	logger   *slog.Logger
}

// New creates a range driver pausing delay between consecutive IDs.
func New(resolver Resolver, delay time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		resolver: resolver,
		delay:    delay,
		sleep:    sleep,
		logger:   logger,
	}
}

// WithSleep replaces the inter-item wait.
func (s *Service) WithSleep(fn func(ctx context.Context, d time.Duration) error) *Service {
	s.sleep = fn
	return s
}

// Validate checks that start and end describe a non-empty range in one chat.
func Validate(start, end domain.PostReference) error {
	if !start.SameChat(end) {
		return errors.Validation("Both links must be from the same channel.")
	}
	if start.MessageID > end.MessageID {
		return errors.Validation("Invalid range: start ID cannot exceed end ID.")
	}
	return nil
}

// Run visits every ID from start to end inclusive. On cancellation it stops at once
// and returns the counts so far together with ErrCancelled.
func (s *Service) Run(ctx context.Context, start, end domain.PostReference, dispatch Dispatch) (domain.BatchResult, error) {
	var res domain.BatchResult
	if err := Validate(start, end); err != nil {
		return res, err
	}

	for id := start.MessageID; id <= end.MessageID; id++ {
		if id > start.MessageID {
			if err := s.sleep(ctx, s.delay); err != nil {
				return res, s.cancelled(start, id, err)
			}
		}

		ref := start.WithMessageID(id)
		msg, err := s.resolver.Resolve(ctx, ref)
		if err != nil {
			if errors.IsCancelled(err) || ctx.Err() != nil {
				return res, s.cancelled(start, id, err)
			}
			res.Failed++
			s.logger.Error("Error at post", "url", ref.URL(), "error", err)
			continue
		}

		if msg == nil || (!msg.HasMedia() && !msg.InGroup() && !msg.HasText()) {
			res.Skipped++
			continue
		}

		if err := dispatch(ctx, ref, msg); err != nil {
			if errors.IsCancelled(err) || ctx.Err() != nil {
				return res, s.cancelled(start, id, err)
			}
			res.Failed++
			s.logger.Error("Error at post", "url", ref.URL(), "error", err)
			continue
		}
		res.Downloaded++
	}

	s.logger.Info("Batch complete", "chat", start.Chat, "from", start.MessageID, "to", end.MessageID,
		"downloaded", res.Downloaded, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}

func (s *Service) cancelled(start domain.PostReference, id int, cause error) error {
	s.logger.Info("Batch cancelled", "chat", start.Chat, "at", id, "cause", cause)
	return oops.With("chat", start.Chat, "message_id", id).Wrapf(errors.ErrCancelled, "%v", cause)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
