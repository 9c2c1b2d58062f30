package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/zatekoja/clinicleads/internal/application/services"
	"github.com/zatekoja/clinicleads/internal/domain/entities"
)

// LandingPageService defines the landing-page operations used by the handler.
type LandingPageService interface {
	View(ctx context.Context, sessionID, doctorID, quizTag string) (*services.PageView, error)
	Retry(ctx context.Context, sessionID, doctorID, quizTag string) (*services.PageView, error)
	EditSection(ctx context.Context, sessionID, doctorID, quizTag, key string) (*entities.EditableSection, error)
	SaveSection(ctx context.Context, sessionID, doctorID, quizTag string, section *entities.EditableSection) (*services.PageView, error)
	SaveColors(ctx context.Context, sessionID, doctorID, quizTag string, colors entities.ChatbotColors) (*services.PageView, error)
	Delete(ctx context.Context, sessionID, doctorID, quizTag string) error
	Compact(ctx context.Context, doctorID, quizTag string) (*entities.LandingContent, int, error)
	Doctor(ctx context.Context, doctorID string) (*entities.DoctorProfile, error)
}

// LandingPageHandler handles landing-page HTTP requests
type LandingPageHandler struct {
	service LandingPageService
}

// NewLandingPageHandler creates a new landing page handler
func NewLandingPageHandler(service LandingPageService) *LandingPageHandler {
	return &LandingPageHandler{service: service}
}

// GetLandingPage handles GET /api/landing-pages/{doctorId}/{quizType}
func (h *LandingPageHandler) GetLandingPage(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.View(r.Context(), sessionID(w, r), r.PathValue("doctorId"), r.PathValue("quizType"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, viewStatus(view), view)
}

// RetryLandingPage handles POST /api/landing-pages/{doctorId}/{quizType}/retry
func (h *LandingPageHandler) RetryLandingPage(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Retry(r.Context(), sessionID(w, r), r.PathValue("doctorId"), r.PathValue("quizType"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, viewStatus(view), view)
}

// GetSection handles GET /api/landing-pages/{doctorId}/{quizType}/sections/{sectionKey}
func (h *LandingPageHandler) GetSection(w http.ResponseWriter, r *http.Request) {
	section, err := h.service.EditSection(r.Context(), sessionID(w, r),
		r.PathValue("doctorId"), r.PathValue("quizType"), r.PathValue("sectionKey"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, section)
}

// SaveSection handles PUT /api/landing-pages/{doctorId}/{quizType}/sections/{sectionKey}
func (h *LandingPageHandler) SaveSection(w http.ResponseWriter, r *http.Request) {
	var section entities.EditableSection
	if err := json.NewDecoder(r.Body).Decode(&section); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	section.Key = r.PathValue("sectionKey")

	view, err := h.service.SaveSection(r.Context(), sessionID(w, r), r.PathValue("doctorId"), r.PathValue("quizType"), &section)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

// SaveColors handles PUT /api/landing-pages/{doctorId}/{quizType}/colors
func (h *LandingPageHandler) SaveColors(w http.ResponseWriter, r *http.Request) {
	var colors entities.ChatbotColors
	if err := json.NewDecoder(r.Body).Decode(&colors); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	view, err := h.service.SaveColors(r.Context(), sessionID(w, r), r.PathValue("doctorId"), r.PathValue("quizType"), colors)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

// DeleteLandingPage handles DELETE /api/landing-pages/{doctorId}/{quizType}
func (h *LandingPageHandler) DeleteLandingPage(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), sessionID(w, r), r.PathValue("doctorId"), r.PathValue("quizType")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompactLandingPage handles POST /api/landing-pages/{doctorId}/{quizType}/compact
func (h *LandingPageHandler) CompactLandingPage(w http.ResponseWriter, r *http.Request) {
	canonical, removed, err := h.service.Compact(r.Context(), r.PathValue("doctorId"), r.PathValue("quizType"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"removed": removed,
	}
	if canonical != nil {
		response["canonicalId"] = canonical.ID
	}
	respondWithJSON(w, http.StatusOK, response)
}

// GetDoctor handles GET /api/doctors/{doctorId}
func (h *LandingPageHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Doctor(r.Context(), r.PathValue("doctorId"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// viewStatus answers 202 while generation is running.
func viewStatus(view *services.PageView) int {
	if view.Status == services.PageStatusLoading {
		return http.StatusAccepted
	}
	return http.StatusOK
}
