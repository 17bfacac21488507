// Package client is the single entry point the presentation layer talks to:
// it composes the store, the persistence mirror, the transport bridge, the
// dispatcher, and the directory resolver, and derives the screen to render
// from the active relationship.
package client

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"hangout-chat/go-client/internal/bridge"
	"hangout-chat/go-client/internal/channel"
	"hangout-chat/go-client/internal/directory"
	"hangout-chat/go-client/internal/dispatch"
	"hangout-chat/go-client/internal/platform/metrics"
	"hangout-chat/go-client/internal/platform/ratelimiter"
	"hangout-chat/go-client/internal/session"
	"hangout-chat/go-client/internal/storage"
	"hangout-chat/go-client/internal/store"
	"hangout-chat/go-client/pkg/models"
)

type Options struct {
	Identity     session.Identity
	Channel      channel.Channel
	DirectoryURL string
	HTTPClient   *http.Client
	DataDir      string
	Secret       string
	Limiter      *ratelimiter.CommandLimiter
	Logger       *slog.Logger
	Now          func() time.Time
}

type Client struct {
	identity   session.Identity
	store      *store.Store
	mirror     *storage.RelationshipStateStore
	bridge     *bridge.Bridge
	dispatcher *dispatch.Dispatcher
	resolver   *directory.Resolver
	logger     *slog.Logger
}

// meteredMirror counts durable record writes on top of the real store.
type meteredMirror struct {
	inner *storage.RelationshipStateStore
}

func (m *meteredMirror) Persist(rels []models.Relationship) error {
	if err := m.inner.Persist(rels); err != nil {
		metrics.MirrorWrites.WithLabelValues("error").Inc()
		return err
	}
	metrics.MirrorWrites.WithLabelValues("ok").Inc()
	return nil
}

func New(opts Options) (*Client, error) {
	if err := opts.Identity.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mirror := storage.NewRelationshipStateStore(logger)
	mirror.Configure(opts.DataDir, opts.Identity.Username, opts.Secret)

	st := store.New(&meteredMirror{inner: mirror}, logger)

	br := bridge.New(st, logger)
	br.Attach(opts.Channel)

	d := dispatch.New(dispatch.Options{
		Store:    st,
		Channel:  opts.Channel,
		Identity: opts.Identity,
		Limiter:  opts.Limiter,
		Logger:   logger,
		Now:      opts.Now,
	})

	resolver := directory.NewResolver(st,
		directory.NewClient(opts.DirectoryURL, opts.Identity.Token, opts.HTTPClient), logger)

	c := &Client{
		identity:   opts.Identity,
		store:      st,
		mirror:     mirror,
		bridge:     br,
		dispatcher: d,
		resolver:   resolver,
		logger:     logger,
	}
	c.warnOnExpiringToken(opts.Now)
	return c, nil
}

// Bootstrap loads the durable record once, at session start.
func (c *Client) Bootstrap() error {
	rels, err := c.mirror.Bootstrap()
	if err != nil {
		return err
	}
	c.store.Dispatch(store.RelationshipsLoaded{Relationships: rels})
	c.logger.Info("relationship cache loaded", "count", len(rels))
	return nil
}

// ReplaceChannel swaps in a new connected channel, re-attaching the bridge
// so exactly one inbound handler stays live.
func (c *Client) ReplaceChannel(ch channel.Channel) {
	c.bridge.Attach(ch)
	c.dispatcher.SetChannel(ch)
}

func (c *Client) State() store.State { return c.store.Snapshot() }

// Subscribe observes every store transition. The facade re-derives the
// screen per update; callers typically render ActiveScreen().
func (c *Client) Subscribe(fn func(store.State)) func() {
	return c.store.Subscribe(fn)
}

// ActiveScreen projects the active relationship's state into the screen to
// render. No selection means the directory screen.
func (c *Client) ActiveScreen() models.Screen {
	active, ok := c.store.Snapshot().ActiveRelationship()
	if !ok {
		return models.ScreenDirectory
	}
	return models.ScreenFor(active)
}

func (c *Client) Invite(ctx context.Context) error      { return c.dispatcher.Invite(ctx) }
func (c *Client) Accept(ctx context.Context) error      { return c.dispatcher.Accept(ctx) }
func (c *Client) Decline(ctx context.Context) error     { return c.dispatcher.Decline(ctx) }
func (c *Client) Block(ctx context.Context) error       { return c.dispatcher.Block(ctx) }
func (c *Client) Unblock(ctx context.Context) error     { return c.dispatcher.Unblock(ctx) }
func (c *Client) SendMessage(ctx context.Context) error { return c.dispatcher.SendMessage(ctx) }

func (c *Client) SelectExisting(username string) { c.dispatcher.SelectExisting(username) }

func (c *Client) SelectFromDirectory(user models.User) models.Relationship {
	return c.dispatcher.SelectFromDirectory(user)
}

func (c *Client) StartSearch(ctx context.Context, text string) {
	c.resolver.StartSearch(ctx, text)
}

func (c *Client) SetSearchText(text string) { c.dispatcher.SetSearchText(text) }

func (c *Client) SetPendingMessageText(text string) { c.dispatcher.SetPendingMessageText(text) }

func (c *Client) warnOnExpiringToken(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	exp, ok := session.TokenExpiry(c.identity.Token)
	if !ok {
		return
	}
	if remaining := exp.Sub(now()); remaining < time.Hour {
		c.logger.Warn("session token expires soon", "remaining", remaining.String())
	}
}
