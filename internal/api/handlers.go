package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/nextprop/wabridge/internal/model"
	"github.com/nextprop/wabridge/internal/phone"
	"github.com/nextprop/wabridge/internal/repo"
	"github.com/nextprop/wabridge/internal/scheduler"
	"github.com/nextprop/wabridge/internal/service"
)

type Handler struct {
	sched   *scheduler.Scheduler
	queue   repo.QueueRepository
	holding repo.HoldingRepository
	ingest  *service.Ingestor
	norm    phone.Normalizer

	verifyToken string
}

func NewHandler(
	s *scheduler.Scheduler,
	queue repo.QueueRepository,
	holding repo.HoldingRepository,
	ingest *service.Ingestor,
	norm phone.Normalizer,
	verifyToken string,
) *Handler {
	return &Handler{
		sched:       s,
		queue:       queue,
		holding:     holding,
		ingest:      ingest,
		norm:        norm,
		verifyToken: verifyToken,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

func (h *Handler) SchedulerStart(w http.ResponseWriter, r *http.Request) {
	h.sched.Start()
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

func (h *Handler) SchedulerStop(w http.ResponseWriter, r *http.Request) {
	h.sched.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

func (h *Handler) SchedulerTick(w http.ResponseWriter, r *http.Request) {
	if !h.sched.TickNow() {
		writeJSON(w, http.StatusConflict, map[string]any{
			"triggered": false,
			"running":   h.sched.IsRunning(),
		})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"triggered": true})
}

type enqueueRequest struct {
	SourceMessageID *int64   `json:"sourceMessageId"`
	RecipientPhone  string   `json:"recipientPhone"`
	Content         string   `json:"content"`
	TemplateName    *string  `json:"templateName"`
	TemplateParams  []string `json:"templateParams"`
}

func (h *Handler) EnqueueMessage(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	if req.RecipientPhone == "" {
		http.Error(w, "recipientPhone is required", http.StatusBadRequest)
		return
	}
	hasTemplate := req.TemplateName != nil && *req.TemplateName != ""
	if req.Content == "" && !hasTemplate {
		http.Error(w, "one of content or templateName is required", http.StatusBadRequest)
		return
	}

	id, err := h.queue.Enqueue(r.Context(), repo.EnqueueParams{
		SourceMessageID: req.SourceMessageID,
		RecipientPhone:  h.norm.Normalize(req.RecipientPhone),
		Content:         req.Content,
		TemplateName:    req.TemplateName,
		TemplateParams:  req.TemplateParams,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *Handler) ListSentMessages(w http.ResponseWriter, r *http.Request) {
	h.listByStatus(w, r, model.Sent)
}

func (h *Handler) ListFailedMessages(w http.ResponseWriter, r *http.Request) {
	h.listByStatus(w, r, model.Failed)
}

func (h *Handler) listByStatus(w http.ResponseWriter, r *http.Request, status model.Status) {
	limit := parseInt(r.URL.Query().Get("limit"), 50)
	offset := parseInt(r.URL.Query().Get("offset"), 0)

	items, err := h.queue.ListByStatus(r.Context(), status, limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) ListHeldInbound(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 50)
	offset := parseInt(r.URL.Query().Get("offset"), 0)

	held, err := h.holding.List(r.Context(), limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": held})
}

func parseInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
