package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Package-level collectors registered once against the default registry and
// exposed at /metrics.
var (
	ConnectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaychat_connections_total",
		Help: "Total number of websocket connections admitted",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relaychat_active_sessions",
		Help: "Number of currently registered chat sessions",
	})

	MessagesBroadcast = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaychat_messages_broadcast_total",
		Help: "Total number of chat messages fanned out to sessions",
	})

	MessagesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relaychat_messages_dropped_total",
		Help: "Total number of inbound frames dropped before broadcast",
	}, []string{"reason"})

	KicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaychat_kicks_total",
		Help: "Total number of sessions removed by moderation",
	})

	BotRepliesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaychat_bot_replies_total",
		Help: "Total number of bot replies fanned out",
	})
)

// Drop reasons used with MessagesDropped.
const (
	DropRateLimited   = "rate_limited"
	DropUnknownSender = "unknown_sender"
	DropProtocol      = "protocol"
	DropDecode        = "decode"
)
