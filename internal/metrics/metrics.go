package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	roomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "musictogether",
		Name:      "rooms_active",
		Help:      "Number of rooms with at least one live connection",
	})

	connectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "musictogether",
		Name:      "connections_active",
		Help:      "Number of live websocket connections across all rooms",
	})

	messagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "musictogether",
		Name:      "messages_received_total",
		Help:      "Inbound room messages by type",
	}, []string{"type"})

	broadcastFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "musictogether",
		Name:      "broadcast_failures_total",
		Help:      "Sends that failed during room fan-out",
	})
)

// SetUsage records the current room and connection counts.
func SetUsage(rooms, connections int) {
	roomsActive.Set(float64(rooms))
	connectionsActive.Set(float64(connections))
}

func MessageReceived(msgType string) {
	messagesReceived.WithLabelValues(msgType).Inc()
}

func BroadcastFailure() {
	broadcastFailures.Inc()
}

// Handler exposes the default Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
