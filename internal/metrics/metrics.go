package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	sentCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wabridge_messages_sent_total",
		Help: "Total outbound messages delivered to the provider",
	})
	failedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wabridge_messages_failed_total",
		Help: "Total send attempts that failed",
	})
	exhaustedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wabridge_messages_exhausted_total",
		Help: "Total messages that hit the retry ceiling",
	})
	receiptCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wabridge_receipts_total",
		Help: "Delivery receipts processed, by provider status",
	}, []string{"status"})
	inboundCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wabridge_inbound_bridged_total",
		Help: "Inbound messages bridged into conversations",
	})
	heldCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wabridge_inbound_held_total",
		Help: "Inbound messages routed to the holding area",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordSent()      { sentCounter.Inc() }
func RecordFailed()    { failedCounter.Inc() }
func RecordExhausted() { exhaustedCounter.Inc() }

func RecordReceipt(status string) { receiptCounter.WithLabelValues(status).Inc() }

func RecordInboundBridged() { inboundCounter.Inc() }
func RecordInboundHeld()    { heldCounter.Inc() }
