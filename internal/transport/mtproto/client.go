package mtproto

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/errors"
	"github.com/samber/oops"
)

// Client is the user session used to read posts the bot cannot see.
type Client struct {
	client *telegram.Client
	api    *tg.Client
	logger *slog.Logger

	mu     sync.RWMutex
	peers  map[string]tg.InputPeerClass
	self   *tg.User
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a user-session client backed by a session file.
func New(appID int, appHash, sessionPath string, logger *slog.Logger) (*Client, error) {
	if err := os.MkdirAll(filepath.Dir(sessionPath), 0700); err != nil {
		return nil, oops.With("session_path", sessionPath, "context", "failed to create session dir").Wrap(err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := telegram.NewClient(appID, appHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: sessionPath},
	})

	return &Client{
		client: client,
		logger: logger,
		peers:  make(map[string]tg.InputPeerClass),
	}, nil
}

// Start connects and blocks until the session is usable. The connection is kept
// open until ctx ends or Close is called. An unauthorized session is an error;
// run the login command to create one.
func (c *Client) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	ready := make(chan error, 1)
	done := make(chan struct{})

	c.mu.Lock()
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		c.logger.Info("Starting user session run loop")
		err := c.client.Run(ctx, func(ctx context.Context) error {
			status, err := c.client.Auth().Status(ctx)
			if err != nil {
				return oops.With("context", "auth status check failed").Wrap(err)
			}
			if !status.Authorized {
				return errors.ErrSessionNotReady
			}

			c.mu.Lock()
			c.api = c.client.API()
			c.self = status.User
			c.mu.Unlock()

			select {
			case ready <- nil:
			default:
			}

			c.logger.Info("User session is ready", "user_id", status.User.ID, "premium", status.User.Premium)
			<-ctx.Done()
			return ctx.Err()
		})
		if err != nil && !errors.IsCancelled(err) {
			c.logger.Error("User session run loop exited with error", "error", err)
		}
		select {
		case ready <- err:
		default:
		}
	}()

	select {
	case err := <-ready:
		if err != nil {
			cancel()
			return oops.With("context", "failed to start user session").Wrap(err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the run loop and waits for it to exit.
func (c *Client) Close() error {
	c.mu.RLock()
	cancel, done := c.cancel, c.done
	c.mu.RUnlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// Shutdown is called by the DI container.
func (c *Client) Shutdown() error {
	return c.Close()
}

func (c *Client) rpc() (*tg.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.api == nil {
		return nil, errors.ErrSessionNotReady
	}
	return c.api, nil
}

// Premium reports whether the session user has premium limits.
func (c *Client) Premium(_ context.Context) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.self != nil && c.self.Premium
}

func (c *Client) cachedPeer(key string) (tg.InputPeerClass, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.peers[key]
	return p, ok
}

func (c *Client) cachePeer(key string, peer tg.InputPeerClass) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peers[key] = peer
}
