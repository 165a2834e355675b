package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Provider webhook payload: entries carry changes, each change value holds
// inbound messages and/or delivery status updates.
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []inboundMessage `json:"messages"`
				Statuses []statusUpdate   `json:"statuses"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type inboundMessage struct {
	From string `json:"from"`
	ID   string `json:"id"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
}

type statusUpdate struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// WebhookVerify answers the provider's subscription handshake.
func (h *Handler) WebhookVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("hub.mode") != "subscribe" || q.Get("hub.verify_token") != h.verifyToken || h.verifyToken == "" {
		http.Error(w, "verification failed", http.StatusForbidden)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(q.Get("hub.challenge")))
}

// WebhookReceive ingests delivery receipts and inbound messages. It always
// answers 200 for well-formed payloads; business outcomes are recorded as
// data and logs, never as webhook failures the provider would retry forever.
func (h *Handler) WebhookReceive(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, st := range change.Value.Statuses {
				h.ingest.HandleDeliveryReceipt(ctx, st.ID, st.Status)
			}

			for _, msg := range change.Value.Messages {
				if msg.Text == nil {
					slog.Info("ignoring non-text inbound message", "type", msg.Type, "external_id", msg.ID)
					continue
				}
				h.ingest.HandleInboundMessage(ctx, msg.From, msg.Text.Body, msg.ID)
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"received": true})
}
