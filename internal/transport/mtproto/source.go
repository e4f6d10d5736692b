package mtproto

import (
	"context"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/media/domain"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/progress"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/errors"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/retry"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

var peerErrors = []string{
	"CHANNEL_INVALID",
	"CHANNEL_PRIVATE",
	"CHAT_ID_INVALID",
	"PEER_ID_INVALID",
	"USERNAME_INVALID",
	"USERNAME_NOT_OCCUPIED",
	"CHAT_FORBIDDEN",
}

var policy = retry.Policy{
	MaxAttempts: 3,
	BaseDelay:   time.Second,
	Retryable: func(err error) bool {
		return !tgerr.Is(err, peerErrors...) && !errors.Is(err, errors.ErrPeerUnavailable)
	},
	WaitHint: tgerr.AsFloodWait,
}

// Resolve fetches the post ref points to. A deleted or missing post yields a nil message.
func (c *Client) Resolve(ctx context.Context, ref domain.PostReference) (*domain.Message, error) {
	peer, err := c.resolvePeer(ctx, ref)
	if err != nil {
		return nil, err
	}

	msgs, err := c.fetch(ctx, ref.Chat, peer, []tg.InputMessageClass{&tg.InputMessageID{ID: ref.MessageID}})
	if err != nil {
		return nil, err
	}
	return lo.FirstOr(msgs, nil), nil
}

// Group returns the album msg belongs to, ordered by message ID.
func (c *Client) Group(ctx context.Context, msg *domain.Message) ([]*domain.Message, error) {
	rem, err := remoteOf(msg)
	if err != nil {
		return nil, err
	}

	msgs, err := c.fetch(ctx, msg.Chat, rem.peer, groupWindow(msg.ID))
	if err != nil {
		return nil, err
	}

	group := lo.Filter(msgs, func(m *domain.Message, _ int) bool { return m.GroupID == msg.GroupID })
	sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
	return group, nil
}

// Download writes the payload of msg to path. Each attempt starts from an empty file.
func (c *Client) Download(ctx context.Context, msg *domain.Message, path string, onProgress progress.Func) error {
	rem, err := remoteOf(msg)
	if err != nil {
		return err
	}
	if rem.file == nil {
		return oops.With("message_id", msg.ID).Errorf("message has no downloadable media")
	}

	return c.download(ctx, "download_media", rem.file, path, msg.FileSize, onProgress)
}

// DownloadThumbnail writes the platform thumbnail of msg to path.
func (c *Client) DownloadThumbnail(ctx context.Context, msg *domain.Message, path string) error {
	rem, err := remoteOf(msg)
	if err != nil {
		return err
	}
	if rem.thumb == nil {
		return oops.With("message_id", msg.ID).Errorf("message has no thumbnail")
	}

	return c.download(ctx, "download_thumbnail", rem.thumb, path, 0, nil)
}

func (c *Client) download(ctx context.Context, name string, loc tg.InputFileLocationClass, path string, total int64, onProgress progress.Func) error {
	api, err := c.rpc()
	if err != nil {
		return err
	}

	return retry.WithRetry(ctx, name, func(ctx context.Context) error {
		f, err := os.Create(path)
		if err != nil {
			return oops.With("path", path).Wrap(err)
		}
		defer f.Close()

		w := &countingWriter{w: f, total: total, onProgress: onProgress}
		if _, err := downloader.NewDownloader().Download(api, loc).Stream(ctx, w); err != nil {
			return oops.With("path", path).Wrap(mapError(err))
		}
		return nil
	}, policy)
}

func (c *Client) fetch(ctx context.Context, chat string, peer tg.InputPeerClass, ids []tg.InputMessageClass) ([]*domain.Message, error) {
	api, err := c.rpc()
	if err != nil {
		return nil, err
	}

	var res tg.MessagesMessagesClass
	err = retry.WithRetry(ctx, "get_messages", func(ctx context.Context) error {
		var err error
		if ch, ok := peer.(*tg.InputPeerChannel); ok {
			res, err = api.ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{
				Channel: &tg.InputChannel{ChannelID: ch.ChannelID, AccessHash: ch.AccessHash},
				ID:      ids,
			})
		} else {
			res, err = api.MessagesGetMessages(ctx, ids)
		}
		return mapError(err)
	}, policy)
	if err != nil {
		return nil, oops.With("chat", chat).Wrap(err)
	}

	var raw []tg.MessageClass
	switch r := res.(type) {
	case *tg.MessagesMessages:
		raw = r.Messages
	case *tg.MessagesMessagesSlice:
		raw = r.Messages
	case *tg.MessagesChannelMessages:
		raw = r.Messages
	}

	return lo.FilterMap(raw, func(m tg.MessageClass, _ int) (*domain.Message, bool) {
		msg, ok := m.(*tg.Message)
		if !ok {
			return nil, false
		}
		return toMessage(chat, peer, msg), true
	}), nil
}

// resolvePeer maps a chat reference to an input peer. Usernames are resolved
// directly; numeric IDs must be known from the session's dialogs.
func (c *Client) resolvePeer(ctx context.Context, ref domain.PostReference) (tg.InputPeerClass, error) {
	key := peerKey(ref.Chat)
	if peer, ok := c.cachedPeer(key); ok {
		return peer, nil
	}

	if _, numeric := ref.NumericChat(); numeric {
		if err := c.loadDialogs(ctx); err != nil {
			return nil, err
		}
		if peer, ok := c.cachedPeer(key); ok {
			return peer, nil
		}
		return nil, oops.With("chat", ref.Chat).Wrapf(errors.ErrPeerUnavailable, "chat not found in dialogs")
	}

	api, err := c.rpc()
	if err != nil {
		return nil, err
	}

	var resolved *tg.ContactsResolvedPeer
	err = retry.WithRetry(ctx, "resolve_username", func(ctx context.Context) error {
		var err error
		resolved, err = api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: key})
		return mapError(err)
	}, policy)
	if err != nil {
		return nil, oops.With("chat", ref.Chat).Wrap(err)
	}

	peer, ok := inputPeer(resolved.Peer, resolved.Chats, resolved.Users)
	if !ok {
		return nil, oops.With("chat", ref.Chat).Wrapf(errors.ErrPeerUnavailable, "unsupported peer %T", resolved.Peer)
	}
	c.cachePeer(key, peer)
	return peer, nil
}

// loadDialogs caches every chat of the first dialogs page under its numeric IDs.
func (c *Client) loadDialogs(ctx context.Context) error {
	api, err := c.rpc()
	if err != nil {
		return err
	}

	var res tg.MessagesDialogsClass
	err = retry.WithRetry(ctx, "get_dialogs", func(ctx context.Context) error {
		var err error
		res, err = api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
			Limit:      100,
			OffsetPeer: &tg.InputPeerEmpty{},
		})
		return err
	}, policy)
	if err != nil {
		return oops.With("context", "failed to list dialogs").Wrap(err)
	}

	var chats []tg.ChatClass
	var users []tg.UserClass
	switch d := res.(type) {
	case *tg.MessagesDialogs:
		chats, users = d.Chats, d.Users
	case *tg.MessagesDialogsSlice:
		chats, users = d.Chats, d.Users
	}

	for _, ch := range chats {
		switch v := ch.(type) {
		case *tg.Channel:
			peer := &tg.InputPeerChannel{ChannelID: v.ID, AccessHash: v.AccessHash}
			c.cachePeer(peerKey("-100"+strconv.FormatInt(v.ID, 10)), peer)
			if v.Username != "" {
				c.cachePeer(peerKey(v.Username), peer)
			}
		case *tg.Chat:
			c.cachePeer(peerKey(strconv.FormatInt(v.ID, 10)), &tg.InputPeerChat{ChatID: v.ID})
		}
	}
	for _, u := range users {
		if v, ok := u.(*tg.User); ok {
			c.cachePeer(peerKey(strconv.FormatInt(v.ID, 10)), &tg.InputPeerUser{UserID: v.ID, AccessHash: v.AccessHash})
		}
	}
	c.logger.Debug("Loaded dialogs into peer cache", "chats", len(chats), "users", len(users))
	return nil
}

func inputPeer(peer tg.PeerClass, chats []tg.ChatClass, users []tg.UserClass) (tg.InputPeerClass, bool) {
	switch p := peer.(type) {
	case *tg.PeerChannel:
		for _, ch := range chats {
			if v, ok := ch.(*tg.Channel); ok && v.ID == p.ChannelID {
				return &tg.InputPeerChannel{ChannelID: v.ID, AccessHash: v.AccessHash}, true
			}
		}
	case *tg.PeerUser:
		for _, u := range users {
			if v, ok := u.(*tg.User); ok && v.ID == p.UserID {
				return &tg.InputPeerUser{UserID: v.ID, AccessHash: v.AccessHash}, true
			}
		}
	case *tg.PeerChat:
		return &tg.InputPeerChat{ChatID: p.ChatID}, true
	}
	return nil, false
}

func remoteOf(msg *domain.Message) (*remote, error) {
	rem, ok := msg.Raw.(*remote)
	if !ok || rem == nil {
		return nil, oops.With("message_id", msg.ID).Errorf("message was not fetched by the user session")
	}
	return rem, nil
}

// mapError turns access failures into ErrPeerUnavailable.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if tgerr.Is(err, peerErrors...) {
		return oops.Wrapf(errors.Join(errors.ErrPeerUnavailable, err), "peer unavailable")
	}
	return err
}

// countingWriter reports bytes written so far against the expected total.
type countingWriter struct {
	w          io.Writer
	done       int64
	total      int64
	onProgress progress.Func
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.done += int64(n)
	if c.onProgress != nil {
		c.onProgress(c.done, max(c.total, c.done))
	}
	return n, err
}
