package progress

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	templateDomain "github.com/reshetovitsme/tg-media-relay/internal/modules/template/domain"
)

const (
	barWidth        = 10
	barFilled       = "▓"
	barEmpty        = "░"
	DefaultInterval = 5 * time.Second
)

// Func receives transfer progress in bytes.
type Func func(done, total int64)

// Action labels a transfer direction.
type Action struct {
	Emoji string
	Label string
}

var (
	Downloading = Action{Emoji: "📥", Label: "Downloading"}
	Uploading   = Action{Emoji: "📤", Label: "Uploading"}
	Completed   = Action{Emoji: "✅", Label: "Completed"}
)

// State is one progress sample.
type State struct {
	Action Action
	Done   int64
	Total  int64
	Start  time.Time
	Now    time.Time
}

// Render fills the known placeholders of cfg.Text. Unknown placeholders are kept verbatim.
func Render(cfg templateDomain.Config, st State) string {
	elapsed := st.Now.Sub(st.Start)
	if elapsed < 0 {
		elapsed = 0
	}

	var fraction float64
	if st.Total > 0 {
		fraction = min(float64(st.Done)/float64(st.Total), 1)
	}

	var speed float64
	if secs := elapsed.Seconds(); secs > 0 {
		speed = float64(st.Done) / secs
	}

	eta := "-"
	if speed > 0 && st.Total > st.Done {
		eta = FormatDuration(time.Duration(float64(st.Total-st.Done)/speed) * time.Second)
	} else if st.Total > 0 && st.Done >= st.Total {
		eta = "0s"
	}

	action := st.Action
	if st.Total > 0 && st.Done >= st.Total {
		action = Action{Emoji: Completed.Emoji, Label: st.Action.Label}
	}

	filled := int(fraction * barWidth)
	r := strings.NewReplacer(
		"{bar}", strings.Repeat(barFilled, filled)+strings.Repeat(barEmpty, barWidth-filled),
		"{percentage}", fmt.Sprintf("%.2f", fraction*100),
		"{current}", humanize.IBytes(uint64(max(st.Done, 0))),
		"{total}", humanize.IBytes(uint64(max(st.Total, 0))),
		"{speed}", humanize.IBytes(uint64(speed)),
		"{elapsed}", FormatDuration(elapsed),
		"{eta}", eta,
		"{status_emoji}", action.Emoji,
		"{status_message}", action.Label,
	)
	return r.Replace(cfg.Text)
}

// FormatDuration renders a duration as 1h2m3s, dropping sub-second precision.
func FormatDuration(d time.Duration) string {
	return d.Truncate(time.Second).String()
}

// Notifier edits the status message a tracker renders into.
type Notifier interface {
	Edit(ctx context.Context, chatID int64, messageID int, text string) error
}

// TemplateSource yields the template to render with; read on every render.
type TemplateSource interface {
	Active() templateDomain.Config
}

// Tracker turns byte counters into throttled status message edits.
type Tracker struct {
	notifier  Notifier
	templates TemplateSource
	chatID    int64
	messageID int
	action    Action
	interval  time.Duration
	start     time.Time
	now       func() time.Time
	logger    *slog.Logger

	mu       sync.Mutex
	last     time.Time
	lastText string
}

// NewTracker creates a tracker editing messageID in chatID.
func NewTracker(notifier Notifier, templates TemplateSource, chatID int64, messageID int, action Action, interval time.Duration) *Tracker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Tracker{
		notifier:  notifier,
		templates: templates,
		chatID:    chatID,
		messageID: messageID,
		action:    action,
		interval:  interval,
		start:     time.Now(),
		now:       time.Now,
		logger:    slog.Default(),
	}
}

// WithClock replaces the time source.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	t.start = now()
	return t
}

// Func adapts the tracker to a progress callback bound to ctx.
func (t *Tracker) Func(ctx context.Context) Func {
	return func(done, total int64) {
		t.Update(ctx, done, total)
	}
}

// Update renders and edits when the interval has elapsed or the transfer finished.
func (t *Tracker) Update(ctx context.Context, done, total int64) {
	if t == nil || t.notifier == nil {
		return
	}

	now := t.now()
	finished := total > 0 && done >= total

	t.mu.Lock()
	if !finished && !t.last.IsZero() && now.Sub(t.last) < t.interval {
		t.mu.Unlock()
		return
	}
	t.last = now

	cfg := templateDomain.DefaultConfig()
	if t.templates != nil {
		cfg = t.templates.Active()
	}
	text := Render(cfg, State{Action: t.action, Done: done, Total: total, Start: t.start, Now: now})
	if text == t.lastText {
		t.mu.Unlock()
		return
	}
	t.lastText = text
	t.mu.Unlock()

	if err := t.notifier.Edit(ctx, t.chatID, t.messageID, text); err != nil {
		t.logger.Debug("Progress edit failed", "chat_id", t.chatID, "message_id", t.messageID, "error", err)
	}
}
