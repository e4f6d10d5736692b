package telegram

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
	batchService "github.com/reshetovitsme/tg-media-relay/internal/modules/batch/service"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/console"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/media/domain"
	mediaService "github.com/reshetovitsme/tg-media-relay/internal/modules/media/service"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/system"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/task"
	templateRepository "github.com/reshetovitsme/tg-media-relay/internal/modules/template/repository"
	templateService "github.com/reshetovitsme/tg-media-relay/internal/modules/template/service"
	userRepository "github.com/reshetovitsme/tg-media-relay/internal/modules/user/repository"
	userService "github.com/reshetovitsme/tg-media-relay/internal/modules/user/service"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/command"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerID    = int64(1)
	strangerID = int64(99)
	chatID     = int64(500)
)

type fakeRelayer struct {
	mu    sync.Mutex
	reqs  []mediaService.Request
	msgs  []*domain.Message
	done  chan struct{}
	crash bool
}

func (f *fakeRelayer) Handle(_ context.Context, req mediaService.Request) error {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func (f *fakeRelayer) HandleMessage(_ context.Context, req mediaService.Request, msg *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.crash {
		panic("nil caption")
	}
	f.reqs = append(f.reqs, req)
	f.msgs = append(f.msgs, msg)
	return nil
}

type fakeRunner struct {
	res    domain.BatchResult
	err    error
	block  bool
	called chan [2]int
}

func (f *fakeRunner) Run(ctx context.Context, start, end domain.PostReference, _ batchService.Dispatch) (domain.BatchResult, error) {
	f.called <- [2]int{start.MessageID, end.MessageID}
	if f.block {
		<-ctx.Done()
		return f.res, ctx.Err()
	}
	return f.res, f.err
}

type noRelays struct{}

func (noRelays) Count() (int, error) { return 0, nil }

type shellRunner struct{}

func (shellRunner) Run(_ context.Context, _ string, args ...string) (command.Result, error) {
	return command.Result{Stdout: []byte("ran " + args[len(args)-1])}, nil
}

type harness struct {
	h       *Handler
	bot     *fakeBot
	relayer *fakeRelayer
	batch   *fakeRunner
	tasks   *task.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	userRepo, err := userRepository.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	users := userService.New(userRepo, ownerID, nil)

	templateRepo, err := templateRepository.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	templates := templateService.New(templateRepo)

	fb := newFakeBot()
	notifier := NewNotifier()
	notifier.SetBot(fb)

	tasks := task.NewRegistry(nil)
	t.Cleanup(func() { _ = tasks.Shutdown() })

	relayer := &fakeRelayer{done: make(chan struct{}, 4)}
	batch := &fakeRunner{called: make(chan [2]int, 1)}
	cfg := &config.Config{LogFile: t.TempDir() + "/missing.txt"}

	h := New(
		cfg,
		relayer,
		batch,
		batch,
		tasks,
		users,
		templates,
		console.New(shellRunner{}, users, 0, nil),
		system.New(time.Now(), t.TempDir(), tasks, noRelays{}, users),
		notifier,
		nil,
	)
	return &harness{h: h, bot: fb, relayer: relayer, batch: batch, tasks: tasks}
}

func update(from int64, text string) *models.Update {
	return &models.Update{Message: &models.Message{
		Text: text,
		Chat: models.Chat{ID: chatID},
		From: &models.User{ID: from, Username: "someone"},
	}}
}

func (hs *harness) lastText(t *testing.T) string {
	t.Helper()
	texts := hs.bot.Texts()
	require.NotEmpty(t, texts)
	return texts[len(texts)-1]
}

func TestGuardRejectsStranger(t *testing.T) {
	hs := newHarness(t)

	hs.h.guard(hs.h.handleStart)(context.Background(), nil, update(strangerID, "/start"))

	assert.Equal(t, "❌ You are not authorized to use this bot.", hs.lastText(t))
}

func TestDownloadWithoutLink(t *testing.T) {
	hs := newHarness(t)

	hs.h.handleDownload(context.Background(), nil, update(ownerID, "/dl"))

	assert.Equal(t, "Provide a post URL after the /dl command.", hs.lastText(t))
}

func TestDownloadInvalidLink(t *testing.T) {
	hs := newHarness(t)

	hs.h.handleDownload(context.Background(), nil, update(ownerID, "/dl https://example.com/x/1"))

	assert.True(t, strings.HasPrefix(hs.lastText(t), "❌ Invalid post link"))
	assert.Empty(t, hs.relayer.reqs)
}

func TestPlainLinkStartsRelay(t *testing.T) {
	hs := newHarness(t)

	hs.h.HandleUpdate(context.Background(), nil, update(ownerID, "https://t.me/somechannel/42"))

	select {
	case <-hs.relayer.done:
	case <-time.After(time.Second):
		t.Fatal("relay was not started")
	}
	hs.relayer.mu.Lock()
	defer hs.relayer.mu.Unlock()
	require.Len(t, hs.relayer.reqs, 1)
	req := hs.relayer.reqs[0]
	assert.Equal(t, "somechannel", req.Ref.Chat)
	assert.Equal(t, 42, req.Ref.MessageID)
	assert.Equal(t, chatID, req.ChatID)
	assert.Equal(t, ownerID, req.RequestedBy)
	assert.NotEmpty(t, req.JobID)
}

func TestBatchArguments(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"missing end", "/bdl https://t.me/a/1", "🚀 Batch Download Process"},
		{"not a t.me link", "/bdl https://t.me/a/1 http://t.me/a/2", "🚀 Batch Download Process"},
		{"different chats", "/bdl https://t.me/a/1 https://t.me/other/2", "❌ Both links must be from the same channel."},
		{"reversed", "/bdl https://t.me/a/5 https://t.me/a/2", "❌ Invalid range: start ID cannot exceed end ID."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newHarness(t)
			hs.h.handleBatch(context.Background(), nil, update(ownerID, tt.text))
			assert.True(t, strings.HasPrefix(hs.lastText(t), tt.want), hs.lastText(t))
		})
	}
}

func TestBatchReportsSummary(t *testing.T) {
	hs := newHarness(t)
	hs.batch.res = domain.BatchResult{Downloaded: 2, Skipped: 1}

	hs.h.handleBatch(context.Background(), nil, update(ownerID, "/bdl https://t.me/a/100 https://t.me/a/102"))

	assert.Equal(t, [2]int{100, 102}, <-hs.batch.called)
	assert.Eventually(t, func() bool {
		texts := hs.bot.Texts()
		return len(texts) == 2 && texts[1] == BatchSummary(hs.batch.res)
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "📥 Downloading posts 100–102…", hs.bot.Texts()[0])
}

func TestKillAllCancelsBatch(t *testing.T) {
	hs := newHarness(t)
	hs.batch.block = true
	hs.batch.res = domain.BatchResult{Downloaded: 1}

	hs.h.handleBatch(context.Background(), nil, update(ownerID, "/dlrange https://t.me/a/1 https://t.me/a/9"))
	<-hs.batch.called

	hs.h.handleKillAll(context.Background(), nil, update(ownerID, "/killall"))

	assert.Contains(t, hs.bot.Texts(), "Cancelled 1 running task(s).")
	assert.Eventually(t, func() bool {
		for _, text := range hs.bot.Texts() {
			if text == "❌ Batch canceled after downloading 1 posts." {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestDispatchWaitsForRelay(t *testing.T) {
	hs := newHarness(t)
	ref := domain.PostReference{Chat: "a", MessageID: 3}
	msg := &domain.Message{ID: 3, Kind: domain.MediaKindPhoto}

	err := hs.h.dispatch(chatID, ownerID)(context.Background(), ref, msg)

	require.NoError(t, err)
	require.Len(t, hs.relayer.msgs, 1)
	assert.Same(t, msg, hs.relayer.msgs[0])
}

func TestDispatchReportsCrashedRelay(t *testing.T) {
	hs := newHarness(t)
	hs.relayer.crash = true

	err := hs.h.dispatch(chatID, ownerID)(context.Background(), domain.PostReference{Chat: "a", MessageID: 3}, &domain.Message{ID: 3})

	require.Error(t, err)
	assert.Zero(t, hs.h.tasks.Len())
}

func TestTemplateInline(t *testing.T) {
	hs := newHarness(t)

	hs.h.handleTemplate(context.Background(), nil, update(ownerID, "/template {bar} {percentage}%"))

	assert.Equal(t, "✅ Custom progress template updated (in-memory).", hs.lastText(t))
	assert.Equal(t, "{bar} {percentage}%", hs.h.templates.Active().Text)
}

func TestTemplatePromptCancel(t *testing.T) {
	hs := newHarness(t)

	hs.h.handleTemplate(context.Background(), nil, update(ownerID, "/template"))
	assert.True(t, strings.HasPrefix(hs.lastText(t), "Please send your new progress template now."))

	hs.h.HandleUpdate(context.Background(), nil, update(ownerID, "/cancel"))

	assert.Eventually(t, func() bool {
		texts := hs.bot.Texts()
		return texts[len(texts)-1] == "❌ Cancelled."
	}, time.Second, 10*time.Millisecond)
}

func TestTemplatePromptAnswer(t *testing.T) {
	hs := newHarness(t)

	hs.h.handleTemplate(context.Background(), nil, update(ownerID, "/template"))
	hs.h.HandleUpdate(context.Background(), nil, update(ownerID, "{status_emoji} {percentage}%"))

	assert.Eventually(t, func() bool {
		return hs.h.templates.Active().Text == "{status_emoji} {percentage}%"
	}, time.Second, 10*time.Millisecond)
}

func TestResetTemplate(t *testing.T) {
	hs := newHarness(t)
	require.NoError(t, hs.h.templates.Set("custom"))

	hs.h.handleResetTemplate(context.Background(), nil, update(ownerID, "/retemp"))

	assert.Equal(t, "🔄 Template reset to default (in-memory and file).", hs.lastText(t))
	assert.NotEqual(t, "custom", hs.h.templates.Active().Text)
}

func TestLogsMissing(t *testing.T) {
	hs := newHarness(t)

	hs.h.handleLogs(context.Background(), nil, update(ownerID, "/logs"))

	assert.Equal(t, "Not exists", hs.lastText(t))
}

func TestBashOwnerOnly(t *testing.T) {
	hs := newHarness(t)

	hs.h.handleBash(context.Background(), nil, update(strangerID, "/bash ls"))
	assert.Equal(t, "❌ You are not allowed to use this command.", hs.lastText(t))

	hs.h.handleBash(context.Background(), nil, update(ownerID, "/bash ls -la"))
	assert.Contains(t, hs.lastText(t), "ran ls -la")
}

func TestBashHistory(t *testing.T) {
	hs := newHarness(t)
	hs.h.handleBash(context.Background(), nil, update(ownerID, "/bash uptime"))

	hs.h.handleBashHistory(context.Background(), nil, update(ownerID, "/bhis"))

	assert.Contains(t, hs.lastText(t), "<code>uptime</code>")
}

func TestPingEditsReply(t *testing.T) {
	hs := newHarness(t)

	hs.h.handlePing(context.Background(), nil, update(ownerID, "/ping"))

	assert.Equal(t, "🏓 Pong!", hs.lastText(t))
	require.Len(t, hs.bot.edits, 1)
	assert.Contains(t, hs.bot.edits[0], "🏓 PONG!")
}

func TestArgs(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, args("/bdl  a   b"))
	assert.Nil(t, args(""))
	assert.Equal(t, "echo  hi", argText("/bash echo  hi"))
	assert.Equal(t, "", argText("/bash"))
}
