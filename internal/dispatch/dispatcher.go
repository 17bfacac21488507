// Package dispatch implements the verbs a user can invoke on a relationship.
// Each command composes an outbound envelope, sends it, and marks the store
// loading; the relationship state itself only moves when the matching
// acknowledgement comes back through the bridge.
package dispatch

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"hangout-chat/go-client/internal/channel"
	"hangout-chat/go-client/internal/platform/metrics"
	"hangout-chat/go-client/internal/platform/ratelimiter"
	"hangout-chat/go-client/internal/protocol"
	"hangout-chat/go-client/internal/session"
	"hangout-chat/go-client/internal/store"
	"hangout-chat/go-client/pkg/models"
)

var (
	ErrNoActiveRelationship = errors.New("no relationship is selected")
	ErrRateLimited          = errors.New("commands to this counterpart are rate limited")
)

const sendTimeout = 5 * time.Second

// Dispatcher turns user intent into outbound envelopes plus store actions.
type Dispatcher struct {
	store   *store.Store
	channel channel.Channel
	limiter *ratelimiter.CommandLimiter
	logger  *slog.Logger
	now     func() time.Time
}

type Options struct {
	Store    *store.Store
	Channel  channel.Channel
	Identity session.Identity
	Limiter  *ratelimiter.CommandLimiter
	Logger   *slog.Logger
	Now      func() time.Time
}

func New(opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	// Every command log line carries the session owner (fingerprinted by the
	// privacylog handler) so multi-account hosts can attribute traffic.
	logger = logger.With("owner", opts.Identity.Username)
	return &Dispatcher{
		store:   opts.Store,
		channel: opts.Channel,
		limiter: opts.Limiter,
		logger:  logger,
		now:     now,
	}
}

// SetChannel swaps the outbound channel, e.g. after a reconnect performed by
// the owner of the connection.
func (d *Dispatcher) SetChannel(ch channel.Channel) {
	d.channel = ch
}

// Invite sends the invite command with the pending message text attached.
func (d *Dispatcher) Invite(ctx context.Context) error {
	state := d.store.Snapshot()
	return d.send(ctx, protocol.CommandInvite, &models.ChatMessage{
		Text:      state.PendingMessageText,
		Timestamp: d.now().UnixMilli(),
	})
}

func (d *Dispatcher) Accept(ctx context.Context) error {
	return d.send(ctx, protocol.CommandAccept, nil)
}

func (d *Dispatcher) Decline(ctx context.Context) error {
	return d.send(ctx, protocol.CommandDecline, nil)
}

func (d *Dispatcher) Block(ctx context.Context) error {
	return d.send(ctx, protocol.CommandBlock, nil)
}

func (d *Dispatcher) Unblock(ctx context.Context) error {
	return d.send(ctx, protocol.CommandUnblock, nil)
}

// SendMessage sends the chat command carrying the pending message text.
func (d *Dispatcher) SendMessage(ctx context.Context) error {
	state := d.store.Snapshot()
	return d.send(ctx, protocol.CommandMessage, &models.ChatMessage{
		Text:      state.PendingMessageText,
		Timestamp: d.now().UnixMilli(),
	})
}

// SelectExisting activates a cached relationship by username. A miss clears
// the selection; it is never an error.
func (d *Dispatcher) SelectExisting(username string) {
	d.store.Dispatch(store.RelationshipSelected{Username: username})
}

// SelectFromDirectory creates (or re-activates) a relationship for a
// directory user with a local invite intent. The durable record is updated
// synchronously through the store effect before any network round trip.
func (d *Dispatcher) SelectFromDirectory(user models.User) models.Relationship {
	rel := models.Relationship{
		Username: user.Username,
		Email:    user.Email,
		State:    models.StateInviteIntent,
		Phase:    models.PhasePendingIntent,
	}
	d.store.Dispatch(store.NewRelationshipSelected{Relationship: rel})
	return rel
}

func (d *Dispatcher) SetSearchText(text string) {
	d.store.Dispatch(store.SearchTextChanged{Text: text})
}

func (d *Dispatcher) SetPendingMessageText(text string) {
	d.store.Dispatch(store.PendingMessageTextChanged{Text: text})
}

// send builds and ships one command envelope for the active relationship.
// Failures are dispatched as CommandFailed so the UI can tell a dead send
// from one awaiting acknowledgement.
func (d *Dispatcher) send(ctx context.Context, cmd protocol.Command, msg *models.ChatMessage) error {
	active, ok := d.store.Snapshot().ActiveRelationship()
	if !ok {
		metrics.CommandFailures.WithLabelValues(string(cmd), "no_active").Inc()
		d.store.Dispatch(store.CommandFailed{Err: ErrNoActiveRelationship})
		return ErrNoActiveRelationship
	}
	if !d.limiter.Allow(active.Username, d.now()) {
		metrics.CommandFailures.WithLabelValues(string(cmd), "rate_limited").Inc()
		d.store.Dispatch(store.CommandFailed{Err: ErrRateLimited})
		return ErrRateLimited
	}

	frame, err := protocol.EncodeOutbound(protocol.Outbound{
		Username: active.Username,
		Email:    active.Email,
		Message:  msg,
		Command:  cmd,
	})
	if err != nil {
		metrics.CommandFailures.WithLabelValues(string(cmd), "encode").Inc()
		d.store.Dispatch(store.CommandFailed{Err: err})
		return err
	}

	traceID := ulid.MustNew(ulid.Timestamp(d.now()), rand.Reader).String()
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := d.channel.Send(sendCtx, frame); err != nil {
		metrics.CommandFailures.WithLabelValues(string(cmd), "send").Inc()
		d.logger.Error("command send failed",
			"command", string(cmd), "trace_id", traceID, "username", active.Username, "error", err)
		d.store.Dispatch(store.CommandFailed{Err: err})
		return err
	}

	metrics.CommandsSent.WithLabelValues(string(cmd)).Inc()
	d.logger.Debug("command sent",
		"command", string(cmd), "trace_id", traceID, "username", active.Username)
	d.store.Dispatch(store.CommandStarted{Command: string(cmd)})
	return nil
}
