package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/clinicleads/internal/application/services"
	"github.com/zatekoja/clinicleads/internal/domain/entities"
	"github.com/zatekoja/clinicleads/internal/domain/providers"
)

// StatusStreamHandler streams landing-page status over Server-Sent Events
// until generation resolves. Page events, when a bus is set, wake the
// stream before the next poll.
type StatusStreamHandler struct {
	service      LandingPageService
	events       providers.EventBus
	pollInterval time.Duration
	heartbeat    time.Duration
}

// NewStatusStreamHandler creates a new status stream handler
func NewStatusStreamHandler(service LandingPageService, pollInterval time.Duration) *StatusStreamHandler {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &StatusStreamHandler{
		service:      service,
		pollInterval: pollInterval,
		heartbeat:    15 * time.Second,
	}
}

// WithEventBus subscribes streams to page events on bus.
func (h *StatusStreamHandler) WithEventBus(bus providers.EventBus) *StatusStreamHandler {
	h.events = bus
	return h
}

// StreamStatus handles GET /api/landing-pages/{doctorId}/{quizType}/events
func (h *StatusStreamHandler) StreamStatus(w http.ResponseWriter, r *http.Request) {
	session := sessionID(w, r)
	doctorID, quizTag := r.PathValue("doctorId"), r.PathValue("quizType")

	// The first view may start generation; errors are answered as plain JSON.
	view, err := h.service.View(r.Context(), session, doctorID, quizTag)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// The stream outlives the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	h.sendEvent(w, "status", view)
	flusher.Flush()
	if view.Status != services.PageStatusLoading {
		return
	}

	changes := h.subscribe(r, doctorID, string(view.QuizType))

	poll := time.NewTicker(h.pollInterval)
	defer poll.Stop()
	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if view = h.refresh(w, flusher, r, session, doctorID, quizTag, view); view == nil {
				return
			}
		case <-poll.C:
			if view = h.refresh(w, flusher, r, session, doctorID, quizTag, view); view == nil {
				return
			}
		}
	}
}

// refresh re-reads the page and sends it when status or attempt changed.
// It returns the latest view, or nil once the stream is finished.
func (h *StatusStreamHandler) refresh(w http.ResponseWriter, flusher http.Flusher, r *http.Request, session, doctorID, quizTag string, current *services.PageView) *services.PageView {
	next, err := h.service.View(r.Context(), session, doctorID, quizTag)
	if err != nil {
		h.sendEvent(w, "error", map[string]string{"error": "failed to read page status"})
		flusher.Flush()
		return nil
	}
	if next.Status == current.Status && next.Attempt == current.Attempt {
		return current
	}
	h.sendEvent(w, "status", next)
	flusher.Flush()
	if next.Status != services.PageStatusLoading {
		return nil
	}
	return next
}

// subscribe returns page events for the stream, or nil when there is no bus.
func (h *StatusStreamHandler) subscribe(r *http.Request, doctorID, quizType string) <-chan *entities.PageEvent {
	if h.events == nil {
		return nil
	}
	changes, err := h.events.Subscribe(r.Context(), providers.GetPageChannel(doctorID, quizType))
	if err != nil {
		log.Warn().Err(err).Str("doctor_id", doctorID).Msg("page events unavailable, polling only")
		return nil
	}
	return changes
}

func (h *StatusStreamHandler) sendEvent(w http.ResponseWriter, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Warn().Err(err).Str("event", event).Msg("failed to encode SSE event")
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
}
