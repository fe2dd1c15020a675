package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks sockets currently registered in the hub.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "whisp",
		Subsystem: "realtime",
		Name:      "active_connections",
		Help:      "Number of websocket connections registered in the hub.",
	})

	// DeliveredPayloads counts payloads handed to a connection's send buffer.
	DeliveredPayloads = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "whisp",
		Subsystem: "realtime",
		Name:      "delivered_payloads_total",
		Help:      "Payloads delivered to registered connections via broadcast.",
	})

	// MessagesPersisted counts messages accepted and written to the store.
	MessagesPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "whisp",
		Subsystem: "chat",
		Name:      "messages_persisted_total",
		Help:      "Messages persisted through the send path.",
	})

	// MessageErrors counts recoverable per-message failures by kind.
	MessageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "whisp",
		Subsystem: "chat",
		Name:      "message_errors_total",
		Help:      "Recoverable per-message errors reported back to senders.",
	}, []string{"code"})
)
