package api

import (
	"net/http"

	"github.com/nextprop/wabridge/internal/metrics"
)

func Router(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", h.Health)

	mux.HandleFunc("GET /v1/scheduler/status", h.SchedulerStatus)
	mux.HandleFunc("POST /v1/scheduler/start", h.SchedulerStart)
	mux.HandleFunc("POST /v1/scheduler/stop", h.SchedulerStop)
	mux.HandleFunc("POST /v1/scheduler/tick", h.SchedulerTick)

	mux.HandleFunc("POST /v1/messages", h.EnqueueMessage)
	mux.HandleFunc("GET /v1/messages/sent", h.ListSentMessages)
	mux.HandleFunc("GET /v1/messages/failed", h.ListFailedMessages)

	mux.HandleFunc("GET /v1/inbound/holding", h.ListHeldInbound)

	mux.HandleFunc("GET /v1/webhook", h.WebhookVerify)
	mux.HandleFunc("POST /v1/webhook", h.WebhookReceive)

	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("wabridge"))
	})

	return mux
}
