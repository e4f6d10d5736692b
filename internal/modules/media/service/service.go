package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	historyDomain "github.com/reshetovitsme/tg-media-relay/internal/modules/history/domain"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/media/domain"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/media/workspace"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/progress"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/errors"
	"github.com/samber/oops"
)

const (
	MiB = int64(1024 * 1024)

	DefaultDownloadLimit = 2000 * MiB
	PremiumDownloadLimit = 4000 * MiB

	DefaultGroupConcurrency = 4
)

// Source is the user-session view of the platform.
type Source interface {
	Resolve(ctx context.Context, ref domain.PostReference) (*domain.Message, error)
	Group(ctx context.Context, msg *domain.Message) ([]*domain.Message, error)
	Download(ctx context.Context, msg *domain.Message, path string, onProgress progress.Func) error
	Premium(ctx context.Context) bool
}

// Publisher uploads prepared items to the destination chat.
type Publisher interface {
	Send(ctx context.Context, chatID int64, item domain.Republish, onProgress progress.Func) error
	SendGroup(ctx context.Context, chatID int64, items []domain.Republish) error
	SendText(ctx context.Context, chatID int64, text domain.Text) error
	UploadLimit() int64
}

// Notifier posts and maintains status replies in the requesting chat.
type Notifier interface {
	Reply(ctx context.Context, chatID int64, text string) (int, error)
	Edit(ctx context.Context, chatID int64, messageID int, text string) error
	Delete(ctx context.Context, chatID int64, messageID int) error
}

type Prober interface {
	Probe(ctx context.Context, path string) domain.MediaInfo
}

type ThumbnailResolver interface {
	Resolve(ctx context.Context, jobID string, msg *domain.Message, videoPath string, duration int) domain.ThumbnailHandle
}

type Recorder interface {
	Record(ctx context.Context, record historyDomain.Record)
}

// Request is one relay job.
type Request struct {
	JobID       string
	ChatID      int64
	Ref         domain.PostReference
	RequestedBy int64
}

// Config tunes the pipeline.
type Config struct {
	ProgressInterval time.Duration
	GroupConcurrency int
}

// Service fetches posts through the user session and republishes them through the bot.
type Service struct {
	source    Source
	publisher Publisher
	notifier  Notifier
	prober    Prober
	thumbs    ThumbnailResolver
	templates progress.TemplateSource
	history   Recorder
	ws        *workspace.Workspace
	cfg       Config
	logger    *slog.Logger
}

// New creates a new media service. history may be nil.
func New(
	source Source,
	publisher Publisher,
	notifier Notifier,
	prober Prober,
	thumbs ThumbnailResolver,
	templates progress.TemplateSource,
	history Recorder,
	ws *workspace.Workspace,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if cfg.GroupConcurrency <= 0 {
		cfg.GroupConcurrency = DefaultGroupConcurrency
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = progress.DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:    source,
		publisher: publisher,
		notifier:  notifier,
		prober:    prober,
		thumbs:    thumbs,
		templates: templates,
		history:   history,
		ws:        ws,
		cfg:       cfg,
		logger:    logger,
	}
}

// Handle resolves req.Ref and relays it. Every failure except cancellation is
// replied to the user exactly once; the error is returned for accounting.
func (s *Service) Handle(ctx context.Context, req Request) error {
	msg, err := s.source.Resolve(ctx, req.Ref)
	if err != nil {
		return s.report(ctx, req, oops.With("job_id", req.JobID, "ref", req.Ref.String()).Wrap(err))
	}
	return s.HandleMessage(ctx, req, msg)
}

// HandleMessage relays an already resolved message.
func (s *Service) HandleMessage(ctx context.Context, req Request, msg *domain.Message) error {
	s.logger.Info("Downloading media from URL", "job_id", req.JobID, "url", req.Ref.URL())

	var err error
	switch {
	case msg == nil:
		s.reply(ctx, req.ChatID, "No media or text found in the post URL.")
	case msg.InGroup():
		err = s.handleGroup(ctx, req, msg)
	case msg.HasMedia():
		err = s.FetchAndRepublish(ctx, req, msg)
	case msg.HasText():
		err = s.relayText(ctx, req, msg)
	default:
		s.reply(ctx, req.ChatID, "No media or text found in the post URL.")
	}
	return s.report(ctx, req, err)
}

func (s *Service) handleGroup(ctx context.Context, req Request, msg *domain.Message) error {
	if err := s.checkDownloadSize(ctx, msg); err != nil {
		return err
	}

	ok, err := s.FetchAndRepublishGroup(ctx, req, msg)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Reported(oops.With("job_id", req.JobID, "group_id", msg.GroupID).Wrapf(errors.ErrTransientFetch, "no media sent from group"))
	}
	return nil
}

func (s *Service) relayText(ctx context.Context, req Request, msg *domain.Message) error {
	text := msg.Text
	if text.Empty() {
		text = msg.Caption
	}
	if err := s.publisher.SendText(ctx, req.ChatID, text); err != nil {
		return oops.With("job_id", req.JobID, "message_id", msg.ID).Wrap(err)
	}
	s.record(ctx, req, msg, 0)
	return nil
}

// checkDownloadSize enforces the download ceiling of the acting session.
func (s *Service) checkDownloadSize(ctx context.Context, msg *domain.Message) error {
	if !msg.SizeLimited() {
		return nil
	}
	limit := DefaultDownloadLimit
	if s.source.Premium(ctx) {
		limit = PremiumDownloadLimit
	}
	if msg.FileSize > limit {
		return errors.SizeLimit("The file size exceeds the %s download limit (%s).",
			humanize.IBytes(uint64(limit)), humanize.IBytes(uint64(msg.FileSize)))
	}
	return nil
}

func (s *Service) checkUploadSize(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return oops.With("path", path).Wrap(err)
	}
	if limit := s.publisher.UploadLimit(); limit > 0 && info.Size() > limit {
		return errors.SizeLimit("The file size exceeds the %s upload limit (%s).",
			humanize.IBytes(uint64(limit)), humanize.IBytes(uint64(info.Size())))
	}
	return nil
}

// report replies with err unless it was already reported or is a cancellation.
func (s *Service) report(ctx context.Context, req Request, err error) error {
	if err == nil {
		return nil
	}
	if errors.IsCancelled(err) || ctx.Err() != nil {
		s.logger.Info("Relay cancelled", "job_id", req.JobID, "url", req.Ref.URL())
		return err
	}
	if !errors.IsReported(err) {
		s.logger.Error("Relay failed", "job_id", req.JobID, "url", req.Ref.URL(), "error", err)
		s.reply(ctx, req.ChatID, errors.UserMessage(err))
	}
	return err
}

func (s *Service) reply(ctx context.Context, chatID int64, text string) int {
	id, err := s.notifier.Reply(ctx, chatID, text)
	if err != nil {
		s.logger.Warn("Failed to reply", "chat_id", chatID, "error", err)
	}
	return id
}

func (s *Service) deleteStatus(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	// status cleanup must happen even when the job context is cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.notifier.Delete(ctx, chatID, messageID); err != nil {
		s.logger.Debug("Failed to delete status message", "chat_id", chatID, "message_id", messageID, "error", err)
	}
}

func (s *Service) release(jobID string, scope *workspace.Scope) {
	removed := scope.Release()
	if len(removed) > 0 {
		s.logger.Debug("Cleaned up temp files", "job_id", jobID, "count", len(removed))
	}
}

func (s *Service) record(ctx context.Context, req Request, msg *domain.Message, items int) {
	if s.history == nil {
		return
	}
	caption := msg.Caption.Body
	if caption == "" {
		caption = msg.Text.Body
	}
	s.history.Record(ctx, historyDomain.Record{
		JobID:       req.JobID,
		Chat:        req.Ref.Chat,
		MessageID:   msg.ID,
		Kind:        msg.Kind,
		Caption:     caption,
		Link:        req.Ref.WithMessageID(msg.ID).URL(),
		RequestedBy: req.RequestedBy,
		Items:       items,
	})
}

// fileName picks the workspace name for a payload.
func fileName(msg *domain.Message) string {
	if msg.FileName != "" {
		return msg.FileName
	}
	switch msg.Kind {
	case domain.MediaKindPhoto:
		return fmt.Sprintf("photo_%d.jpg", msg.ID)
	case domain.MediaKindVideo:
		return fmt.Sprintf("video_%d.mp4", msg.ID)
	case domain.MediaKindAudio:
		return fmt.Sprintf("audio_%d.mp3", msg.ID)
	case domain.MediaKindAnimation:
		return fmt.Sprintf("animation_%d.mp4", msg.ID)
	default:
		return fmt.Sprintf("document_%d", msg.ID)
	}
}
