package handlers_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/clinicleads/internal/adapters/events"
	"github.com/zatekoja/clinicleads/internal/api/handlers"
	"github.com/zatekoja/clinicleads/internal/application/services"
	"github.com/zatekoja/clinicleads/internal/domain/entities"
	"github.com/zatekoja/clinicleads/internal/domain/providers"
	apperrors "github.com/zatekoja/clinicleads/pkg/errors"
)

type MockLandingPageService struct {
	mock.Mock
}

func (m *MockLandingPageService) View(ctx context.Context, sessionID, doctorID, quizTag string) (*services.PageView, error) {
	args := m.Called(ctx, sessionID, doctorID, quizTag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PageView), args.Error(1)
}

func (m *MockLandingPageService) Retry(ctx context.Context, sessionID, doctorID, quizTag string) (*services.PageView, error) {
	args := m.Called(ctx, sessionID, doctorID, quizTag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PageView), args.Error(1)
}

func (m *MockLandingPageService) EditSection(ctx context.Context, sessionID, doctorID, quizTag, key string) (*entities.EditableSection, error) {
	args := m.Called(ctx, sessionID, doctorID, quizTag, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EditableSection), args.Error(1)
}

func (m *MockLandingPageService) SaveSection(ctx context.Context, sessionID, doctorID, quizTag string, section *entities.EditableSection) (*services.PageView, error) {
	args := m.Called(ctx, sessionID, doctorID, quizTag, section)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PageView), args.Error(1)
}

func (m *MockLandingPageService) SaveColors(ctx context.Context, sessionID, doctorID, quizTag string, colors entities.ChatbotColors) (*services.PageView, error) {
	args := m.Called(ctx, sessionID, doctorID, quizTag, colors)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PageView), args.Error(1)
}

func (m *MockLandingPageService) Delete(ctx context.Context, sessionID, doctorID, quizTag string) error {
	args := m.Called(ctx, sessionID, doctorID, quizTag)
	return args.Error(0)
}

func (m *MockLandingPageService) Compact(ctx context.Context, doctorID, quizTag string) (*entities.LandingContent, int, error) {
	args := m.Called(ctx, doctorID, quizTag)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).(*entities.LandingContent), args.Int(1), args.Error(2)
}

func (m *MockLandingPageService) Doctor(ctx context.Context, doctorID string) (*entities.DoctorProfile, error) {
	args := m.Called(ctx, doctorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DoctorProfile), args.Error(1)
}

func newMux(service handlers.LandingPageService) *http.ServeMux {
	h := handlers.NewLandingPageHandler(service)
	stream := handlers.NewStatusStreamHandler(service, 5*time.Millisecond)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/doctors/{doctorId}", h.GetDoctor)
	mux.HandleFunc("GET /api/landing-pages/{doctorId}/{quizType}", h.GetLandingPage)
	mux.HandleFunc("GET /api/landing-pages/{doctorId}/{quizType}/events", stream.StreamStatus)
	mux.HandleFunc("POST /api/landing-pages/{doctorId}/{quizType}/retry", h.RetryLandingPage)
	mux.HandleFunc("GET /api/landing-pages/{doctorId}/{quizType}/sections/{sectionKey}", h.GetSection)
	mux.HandleFunc("PUT /api/landing-pages/{doctorId}/{quizType}/sections/{sectionKey}", h.SaveSection)
	mux.HandleFunc("PUT /api/landing-pages/{doctorId}/{quizType}/colors", h.SaveColors)
	mux.HandleFunc("DELETE /api/landing-pages/{doctorId}/{quizType}", h.DeleteLandingPage)
	mux.HandleFunc("POST /api/landing-pages/{doctorId}/{quizType}/compact", h.CompactLandingPage)
	return mux
}

func TestLandingPageHandler_GetLandingPage(t *testing.T) {
	t.Run("loading answers 202", func(t *testing.T) {
		service := new(MockLandingPageService)
		service.On("View", mock.Anything, "tab-1", "d1", "nose").
			Return(&services.PageView{DoctorID: "d1", QuizType: "NOSE", Status: services.PageStatusLoading, Attempt: 1}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/landing-pages/d1/nose", nil)
		req.Header.Set(handlers.SessionHeader, "tab-1")
		rec := httptest.NewRecorder()
		newMux(service).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "loading", body["status"])
		service.AssertExpectations(t)
	})

	t.Run("ready answers 200", func(t *testing.T) {
		service := new(MockLandingPageService)
		service.On("View", mock.Anything, "tab-1", "d1", "TNSS").
			Return(&services.PageView{Status: services.PageStatusReady, Content: &entities.GeneratedContent{Headline: "Breathe Easier"}}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/landing-pages/d1/TNSS?session=tab-1", nil)
		rec := httptest.NewRecorder()
		newMux(service).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "tab-1", rec.Header().Get(handlers.SessionHeader))
		assert.Contains(t, rec.Body.String(), "Breathe Easier")
	})

	t.Run("missing session gets a fresh identity", func(t *testing.T) {
		service := new(MockLandingPageService)
		service.On("View", mock.Anything, mock.AnythingOfType("string"), "d1", "nose").
			Return(&services.PageView{Status: services.PageStatusReady}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/landing-pages/d1/nose", nil)
		rec := httptest.NewRecorder()
		newMux(service).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get(handlers.SessionHeader))
	})
}

func TestLandingPageHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", apperrors.NewNotFoundError("doctor d1"), http.StatusNotFound},
		{"validation", apperrors.NewValidationError("unknown quiz type x"), http.StatusBadRequest},
		{"conflict", apperrors.NewConflictError("page has no content to edit"), http.StatusConflict},
		{"configuration", apperrors.NewConfigurationError("content generation is not configured"), http.StatusServiceUnavailable},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockLandingPageService)
			service.On("View", mock.Anything, "tab-1", "d1", "x").Return(nil, tt.err)

			req := httptest.NewRequest(http.MethodGet, "/api/landing-pages/d1/x", nil)
			req.Header.Set(handlers.SessionHeader, "tab-1")
			rec := httptest.NewRecorder()
			newMux(service).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.NotContains(t, rec.Body.String(), "boom")
		})
	}
}

func TestLandingPageHandler_SaveSection(t *testing.T) {
	service := new(MockLandingPageService)
	service.On("SaveSection", mock.Anything, "tab-1", "d1", "nose", mock.MatchedBy(func(s *entities.EditableSection) bool {
		return s.Key == "headline" && s.Kind == entities.SectionKindText && s.Text == "New headline"
	})).Return(&services.PageView{Status: services.PageStatusReady, Saved: false}, nil)

	body := `{"key":"ignored","kind":"text","text":"New headline"}`
	req := httptest.NewRequest(http.MethodPut, "/api/landing-pages/d1/nose/sections/headline", strings.NewReader(body))
	req.Header.Set(handlers.SessionHeader, "tab-1")
	rec := httptest.NewRecorder()
	newMux(service).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"saved":false`)
	service.AssertExpectations(t)
}

func TestLandingPageHandler_SaveSectionRejectsBadBody(t *testing.T) {
	service := new(MockLandingPageService)

	req := httptest.NewRequest(http.MethodPut, "/api/landing-pages/d1/nose/sections/headline", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	newMux(service).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	service.AssertNotCalled(t, "SaveSection", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLandingPageHandler_GetSection(t *testing.T) {
	service := new(MockLandingPageService)
	service.On("EditSection", mock.Anything, "tab-1", "d1", "nose", "symptoms").
		Return(&entities.EditableSection{Key: "symptoms", Kind: entities.SectionKindMultiline, Text: "a\nb"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/landing-pages/d1/nose/sections/symptoms", nil)
	req.Header.Set(handlers.SessionHeader, "tab-1")
	rec := httptest.NewRecorder()
	newMux(service).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var section entities.EditableSection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &section))
	assert.Equal(t, "a\nb", section.Text)
}

func TestLandingPageHandler_SaveColors(t *testing.T) {
	service := new(MockLandingPageService)
	colors := entities.ChatbotColors{Primary: "#111111", Background: "#222222", Text: "#333333"}
	service.On("SaveColors", mock.Anything, "tab-1", "d1", "nose", colors).
		Return(&services.PageView{Status: services.PageStatusReady, Colors: colors, Saved: true}, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/landing-pages/d1/nose/colors",
		strings.NewReader(`{"primary":"#111111","background":"#222222","text":"#333333"}`))
	req.Header.Set(handlers.SessionHeader, "tab-1")
	rec := httptest.NewRecorder()
	newMux(service).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	service.AssertExpectations(t)
}

func TestLandingPageHandler_RetryDeleteCompact(t *testing.T) {
	service := new(MockLandingPageService)
	service.On("Retry", mock.Anything, "tab-1", "d1", "nose").
		Return(&services.PageView{Status: services.PageStatusLoading, Attempt: 2}, nil)
	service.On("Delete", mock.Anything, "tab-1", "d1", "nose").Return(nil)
	service.On("Compact", mock.Anything, "d1", "nose").Return(&entities.LandingContent{ID: "r2"}, 2, nil)
	mux := newMux(service)

	do := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set(handlers.SessionHeader, "tab-1")
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPost, "/api/landing-pages/d1/nose/retry")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"attempt":2`)

	rec = do(http.MethodDelete, "/api/landing-pages/d1/nose")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(http.MethodPost, "/api/landing-pages/d1/nose/compact")
	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "r2", body["canonicalId"])
	assert.Equal(t, float64(2), body["removed"])
}

func TestLandingPageHandler_GetDoctor(t *testing.T) {
	service := new(MockLandingPageService)
	service.On("Doctor", mock.Anything, "d1").Return(&entities.DoctorProfile{ID: "d1", Name: "Dr. Jane Smith"}, nil)
	service.On("Doctor", mock.Anything, "missing").Return(nil, apperrors.NewNotFoundError("doctor missing"))
	mux := newMux(service)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/doctors/d1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dr. Jane Smith")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/doctors/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusStreamHandler_StreamsUntilResolved(t *testing.T) {
	service := new(MockLandingPageService)
	service.On("View", mock.Anything, "tab-1", "d1", "nose").
		Return(&services.PageView{Status: services.PageStatusLoading, Attempt: 1}, nil).Twice()
	service.On("View", mock.Anything, "tab-1", "d1", "nose").
		Return(&services.PageView{Status: services.PageStatusReady, Attempt: 1}, nil)

	server := httptest.NewServer(newMux(service))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/landing-pages/d1/nose/events", nil)
	require.NoError(t, err)
	req.Header.Set(handlers.SessionHeader, "tab-1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var statuses []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			var view services.PageView
			require.NoError(t, json.Unmarshal([]byte(data), &view))
			statuses = append(statuses, view.Status)
		}
	}

	assert.Equal(t, []string{services.PageStatusLoading, services.PageStatusReady}, statuses)
}

func TestStatusStreamHandler_WakesOnPageEvent(t *testing.T) {
	service := new(MockLandingPageService)
	service.On("View", mock.Anything, "tab-1", "d1", "nose").
		Return(&services.PageView{QuizType: "NOSE", Status: services.PageStatusLoading, Attempt: 1}, nil).Once()
	service.On("View", mock.Anything, "tab-1", "d1", "nose").
		Return(&services.PageView{QuizType: "NOSE", Status: services.PageStatusReady, Attempt: 1}, nil)

	bus := events.NewMemoryEventBus()
	defer bus.Close()

	// Polling alone would never finish within the test.
	stream := handlers.NewStatusStreamHandler(service, time.Hour).WithEventBus(bus)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/landing-pages/{doctorId}/{quizType}/events", stream.StreamStatus)
	server := httptest.NewServer(mux)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = bus.Publish(ctx, providers.GetPageChannel("d1", "NOSE"),
					entities.NewPageEvent("d1", "NOSE", entities.PageEventGenerationResolved, 1))
			}
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/landing-pages/d1/nose/events", nil)
	require.NoError(t, err)
	req.Header.Set(handlers.SessionHeader, "tab-1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var statuses []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if data, ok := strings.CutPrefix(scanner.Text(), "data: "); ok {
			var view services.PageView
			require.NoError(t, json.Unmarshal([]byte(data), &view))
			statuses = append(statuses, view.Status)
		}
	}

	assert.Equal(t, []string{services.PageStatusLoading, services.PageStatusReady}, statuses)
}

func TestHealthHandler(t *testing.T) {
	ok := handlers.NewHealthHandler(map[string]handlers.HealthCheck{
		"database": func(ctx context.Context) error { return nil },
	})
	rec := httptest.NewRecorder()
	ok.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	failing := handlers.NewHealthHandler(map[string]handlers.HealthCheck{
		"database": func(ctx context.Context) error { return nil },
		"redis":    func(ctx context.Context) error { return errors.New("connection refused") },
	})
	rec = httptest.NewRecorder()
	failing.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}
