// Package bridge routes inbound channel envelopes into the relationship
// store: acknowledgements reconcile the active relationship, peer events
// reconcile (or create) the counterpart's entry. All durable writes follow
// from the store's own persistence effect; the bridge never touches the
// record directly.
package bridge

import (
	"errors"
	"log/slog"

	"hangout-chat/go-client/internal/channel"
	"hangout-chat/go-client/internal/platform/metrics"
	"hangout-chat/go-client/internal/protocol"
	"hangout-chat/go-client/internal/store"
	"hangout-chat/go-client/pkg/models"
)

var (
	errNoActiveRelationship = errors.New("acknowledgement arrived with no active relationship")
	errUnknownCounterpart   = errors.New("peer event for unknown counterpart")
)

// Bridge owns the single inbound handler of the channel.
type Bridge struct {
	store  *store.Store
	logger *slog.Logger
}

func New(st *store.Store, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{store: st, logger: logger}
}

// Attach installs the bridge as the channel's handler set. Calling it again
// (for a replacement channel) is safe: the channel contract keeps exactly one
// handler set live.
func (b *Bridge) Attach(ch channel.Channel) {
	ch.Attach(channel.Handlers{
		OnMessage: b.handleFrame,
		OnOpen: func() {
			metrics.ChannelEvents.WithLabelValues("open").Inc()
			b.logger.Info("channel opened")
		},
		OnClose: func() {
			metrics.ChannelEvents.WithLabelValues("close").Inc()
			b.logger.Info("channel closed")
		},
		OnError: func(err error) {
			metrics.ChannelEvents.WithLabelValues("error").Inc()
			b.logger.Error("channel errored", "error", err)
			b.store.Dispatch(store.FaultReported{Err: err})
		},
	})
}

// handleFrame classifies one inbound frame. Nothing in here may panic; every
// failure becomes a reported fault and the frame is dropped.
func (b *Bridge) handleFrame(data []byte) {
	in, err := protocol.DecodeInbound(data)
	if err != nil {
		metrics.ProtocolErrors.Inc()
		b.logger.Warn("dropping undecodable frame", "error", err)
		b.store.Dispatch(store.FaultReported{Err: err})
		return
	}

	switch in.Category {
	case protocol.CategoryAcknowledgement:
		b.reconcileAcknowledgement(in)
	case protocol.CategoryPeer:
		b.reconcilePeerEvent(in)
	}
}

// reconcileAcknowledgement confirms the session user's own prior command: the
// active relationship's state becomes the acknowledged kind. The active
// entry is read from the live store at reconciliation time, never from a
// value captured at subscription time. Every other field, the attached
// message included, is preserved.
func (b *Bridge) reconcileAcknowledgement(in protocol.Inbound) {
	active, ok := b.store.Snapshot().ActiveRelationship()
	if !ok {
		metrics.DroppedFrames.WithLabelValues("no_active").Inc()
		b.logger.Warn("dropping acknowledgement", "kind", string(in.Kind), "error", errNoActiveRelationship)
		b.store.Dispatch(store.FaultReported{Err: errNoActiveRelationship})
		return
	}

	updated := active.WithState(in.Kind.State()).WithMessage(in.Message)
	metrics.Acknowledgements.WithLabelValues(string(in.Kind)).Inc()
	b.logger.Debug("acknowledgement reconciled",
		"kind", string(in.Kind), "username", updated.Username)
	b.store.Dispatch(store.RelationshipStateReconciled{Relationship: updated})
}

// reconcilePeerEvent applies an action the counterpart took. The match over
// kinds is closed: INVITER is first contact and synthesizes a new entry from
// the envelope; the five other kinds update the existing entry and drop the
// frame when no entry exists.
func (b *Bridge) reconcilePeerEvent(in protocol.Inbound) {
	var updated models.Relationship

	switch in.Kind {
	case protocol.PeerInviter:
		updated = models.Relationship{
			Username: in.Username,
			Email:    in.Email,
			State:    in.Kind.State(),
			Phase:    models.PhaseConfirmed,
			Message:  in.Message,
		}
	case protocol.PeerAccepter, protocol.PeerDecliner, protocol.PeerBlocker, protocol.PeerUnblocker, protocol.PeerMessanger:
		existing, ok := b.store.Snapshot().Relationship(in.Username)
		if !ok {
			metrics.DroppedFrames.WithLabelValues("unknown_counterpart").Inc()
			b.logger.Warn("dropping peer event",
				"kind", string(in.Kind), "username", in.Username, "error", errUnknownCounterpart)
			b.store.Dispatch(store.FaultReported{Err: errUnknownCounterpart})
			return
		}
		updated = existing.WithState(in.Kind.State()).WithMessage(in.Message)
	default:
		// DecodeInbound already enforces the closed set.
		return
	}

	metrics.PeerEvents.WithLabelValues(string(in.Kind)).Inc()
	b.logger.Debug("peer event reconciled",
		"kind", string(in.Kind), "username", updated.Username)
	b.store.Dispatch(store.RelationshipStateReconciled{Relationship: updated})
}
