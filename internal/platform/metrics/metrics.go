// Package metrics exposes prometheus counters for the relationship sync
// engine. Everything registers on the default registerer so the daemon's
// /metrics handler picks it up without extra wiring.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CommandsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hangout",
		Subsystem: "dispatch",
		Name:      "commands_sent_total",
		Help:      "Outbound relationship commands sent over the channel.",
	}, []string{"command"})

	CommandFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hangout",
		Subsystem: "dispatch",
		Name:      "command_failures_total",
		Help:      "Outbound commands that failed before or during send.",
	}, []string{"command", "reason"})

	Acknowledgements = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hangout",
		Subsystem: "bridge",
		Name:      "acknowledgements_total",
		Help:      "Acknowledgement envelopes reconciled, by confirmed kind.",
	}, []string{"kind"})

	PeerEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hangout",
		Subsystem: "bridge",
		Name:      "peer_events_total",
		Help:      "Peer event envelopes reconciled, by kind.",
	}, []string{"kind"})

	ProtocolErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hangout",
		Subsystem: "bridge",
		Name:      "protocol_errors_total",
		Help:      "Inbound frames rejected for an unrecognized category or kind.",
	})

	DroppedFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hangout",
		Subsystem: "bridge",
		Name:      "dropped_frames_total",
		Help:      "Inbound frames dropped after classification, by reason.",
	}, []string{"reason"})

	ChannelEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hangout",
		Subsystem: "channel",
		Name:      "lifecycle_events_total",
		Help:      "Channel lifecycle signals observed (open, close, error).",
	}, []string{"event"})

	DirectoryLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hangout",
		Subsystem: "directory",
		Name:      "lookups_total",
		Help:      "Remote directory lookups, by kind and outcome.",
	}, []string{"kind", "outcome"})

	MirrorWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hangout",
		Subsystem: "storage",
		Name:      "mirror_writes_total",
		Help:      "Durable record writes, by outcome.",
	}, []string{"outcome"})
)
