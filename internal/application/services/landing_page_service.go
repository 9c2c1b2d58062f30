package services

import (
	"context"
	"errors"
	"time"

	"github.com/zatekoja/clinicleads/internal/domain/entities"
	"github.com/zatekoja/clinicleads/internal/domain/providers"
	"github.com/zatekoja/clinicleads/internal/domain/repositories"
	"github.com/zatekoja/clinicleads/internal/infrastructure/observability"
	"github.com/zatekoja/clinicleads/internal/quiz"
	apperrors "github.com/zatekoja/clinicleads/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Page statuses reported to clients.
const (
	PageStatusLoading = "loading"
	PageStatusReady   = "ready"
	PageStatusFailed  = "failed"
)

// GenerationFailedMessage is shown when the generator could not be reached.
const GenerationFailedMessage = "Content generation failed. Please try again."

// PageView is what a viewer sees for one landing page.
type PageView struct {
	DoctorID string                     `json:"doctorId"`
	QuizType quiz.Type                  `json:"quizType"`
	Status   string                     `json:"status"`
	Attempt  int                        `json:"attempt"`
	Content  *entities.GeneratedContent `json:"content,omitempty"`
	Rendered *entities.GeneratedContent `json:"rendered,omitempty"`
	Error    string                     `json:"error,omitempty"`
	Colors   entities.ChatbotColors     `json:"chatbotColors"`
	Doctor   *entities.DoctorProfile    `json:"doctor,omitempty"`
	Saved    bool                       `json:"saved"`
}

// LandingPageService runs the landing-page pipeline for viewer sessions:
// serve stored content when usable, otherwise generate it in the background.
type LandingPageService struct {
	doctors   repositories.DoctorRepository
	store     *ContentStore
	generator providers.CompletionProvider
	prompts   *PromptBuilder
	catalog   *quiz.Catalog
	sessions  *SessionRegistry
	events    providers.EventBus
	timeout   time.Duration

	// spawn starts background generation; tests replace it to control ordering.
	spawn func(func())
}

// NewLandingPageService creates the service. generator may be nil when no
// credential is configured; pages that need generation then fail with a
// configuration error.
func NewLandingPageService(
	doctors repositories.DoctorRepository,
	store *ContentStore,
	generator providers.CompletionProvider,
	catalog *quiz.Catalog,
	sessions *SessionRegistry,
	timeout time.Duration,
) *LandingPageService {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &LandingPageService{
		doctors:   doctors,
		store:     store,
		generator: generator,
		prompts:   NewPromptBuilder(catalog),
		catalog:   catalog,
		sessions:  sessions,
		timeout:   timeout,
		spawn:     func(fn func()) { go fn() },
	}
}

// WithSpawner replaces how background generation is started.
func (s *LandingPageService) WithSpawner(spawn func(func())) *LandingPageService {
	s.spawn = spawn
	return s
}

// WithEventBus announces page changes on bus.
func (s *LandingPageService) WithEventBus(bus providers.EventBus) *LandingPageService {
	s.events = bus
	return s
}

// ResolveQuizType maps a tag or alias to its canonical quiz type.
func (s *LandingPageService) ResolveQuizType(tag string) (quiz.Type, error) {
	def, ok := s.catalog.Lookup(tag)
	if !ok {
		return "", apperrors.NewValidationError("unknown quiz type " + tag)
	}
	return def.Type, nil
}

// View returns the page for a viewer. The first view of a session loads the
// profile and stored record; if the record is not usable, generation starts
// and the page reports loading until it resolves.
func (s *LandingPageService) View(ctx context.Context, sessionID, doctorID, quizTag string) (*PageView, error) {
	quizType, err := s.ResolveQuizType(quizTag)
	if err != nil {
		return nil, err
	}
	if doctorID == "" {
		return nil, apperrors.NewValidationError("doctor ID is required")
	}

	session := s.sessions.Get(SessionKey{SessionID: sessionID, DoctorID: doctorID, QuizType: quizType})
	if snap := session.Snapshot(); snap.State != PageNotStarted {
		return s.viewOf(doctorID, quizType, snap), nil
	}

	profile, record, err := s.load(ctx, doctorID, quizType)
	if err != nil {
		return nil, err
	}

	var colors entities.ChatbotColors
	if record != nil {
		colors = record.Colors
	}
	session.SetContext(profile, colors)

	if s.store.IsUsable(record) {
		session.Adopt(record)
		return s.viewOf(doctorID, quizType, session.Snapshot()), nil
	}

	if s.generator == nil {
		return nil, &apperrors.AppError{
			Type:    apperrors.ErrorTypeConfiguration,
			Message: "content generation is not configured",
			Err:     providers.ErrGeneratorNotConfigured,
		}
	}

	if attempt, ok := session.Begin(); ok {
		s.startGeneration(ctx, session, attempt, profile, doctorID, quizType)
	}
	return s.viewOf(doctorID, quizType, session.Snapshot()), nil
}

// Retry starts a new generation attempt for the viewer's page. Whatever an
// older attempt produces afterwards is discarded.
func (s *LandingPageService) Retry(ctx context.Context, sessionID, doctorID, quizTag string) (*PageView, error) {
	quizType, err := s.ResolveQuizType(quizTag)
	if err != nil {
		return nil, err
	}
	if doctorID == "" {
		return nil, apperrors.NewValidationError("doctor ID is required")
	}
	if s.generator == nil {
		return nil, &apperrors.AppError{
			Type:    apperrors.ErrorTypeConfiguration,
			Message: "content generation is not configured",
			Err:     providers.ErrGeneratorNotConfigured,
		}
	}

	session := s.sessions.Get(SessionKey{SessionID: sessionID, DoctorID: doctorID, QuizType: quizType})
	profile := session.Snapshot().Profile
	if profile == nil {
		profile, err = s.doctors.GetByID(ctx, doctorID)
		if err != nil {
			return nil, err
		}
		session.SetContext(profile, entities.ChatbotColors{})
	}

	attempt := session.Retry()
	s.startGeneration(ctx, session, attempt, profile, doctorID, quizType)
	return s.viewOf(doctorID, quizType, session.Snapshot()), nil
}

// Delete removes the stored page and resets the viewer's session.
func (s *LandingPageService) Delete(ctx context.Context, sessionID, doctorID, quizTag string) error {
	quizType, err := s.ResolveQuizType(quizTag)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, doctorID, quizType); err != nil {
		return err
	}
	s.publish(ctx, doctorID, quizType, entities.PageEventContentDeleted, 0)
	if session, ok := s.sessions.Peek(SessionKey{SessionID: sessionID, DoctorID: doctorID, QuizType: quizType}); ok {
		session.Reset()
	}
	return nil
}

// Compact reconciles duplicate records for a page.
func (s *LandingPageService) Compact(ctx context.Context, doctorID, quizTag string) (*entities.LandingContent, int, error) {
	quizType, err := s.ResolveQuizType(quizTag)
	if err != nil {
		return nil, 0, err
	}
	return s.store.Compact(ctx, doctorID, quizType)
}

// Doctor returns a doctor profile.
func (s *LandingPageService) Doctor(ctx context.Context, doctorID string) (*entities.DoctorProfile, error) {
	if doctorID == "" {
		return nil, apperrors.NewValidationError("doctor ID is required")
	}
	return s.doctors.GetByID(ctx, doctorID)
}

// load fetches the profile and the stored record in parallel. A store
// failure is logged and treated as no record.
func (s *LandingPageService) load(ctx context.Context, doctorID string, quizType quiz.Type) (*entities.DoctorProfile, *entities.LandingContent, error) {
	var (
		profile *entities.DoctorProfile
		record  *entities.LandingContent
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.doctors.GetByID(gctx, doctorID)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		r, err := s.store.Fetch(gctx, doctorID, quizType)
		if err != nil {
			if !apperrors.IsNotFound(err) && !errors.Is(err, context.Canceled) {
				observability.LoggerFromContext(ctx).Warn().
					Err(err).
					Str("doctor_id", doctorID).
					Str("quiz_type", string(quizType)).
					Msg("failed to read stored landing content, regenerating")
			}
			return nil
		}
		record = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return profile, record, nil
}

func (s *LandingPageService) startGeneration(ctx context.Context, session *PageSession, attempt int, profile *entities.DoctorProfile, doctorID string, quizType quiz.Type) {
	// Generation outlives the request that started it.
	bg := observability.WithPage(context.WithoutCancel(ctx), doctorID, string(quizType))
	s.spawn(func() {
		gctx, cancel := context.WithTimeout(bg, s.timeout)
		defer cancel()
		s.generate(gctx, session, attempt, profile, doctorID, quizType)
	})
}

func (s *LandingPageService) generate(ctx context.Context, session *PageSession, attempt int, profile *entities.DoctorProfile, doctorID string, quizType quiz.Type) {
	ctx, span := observability.StartSpan(ctx, "LandingPageService.generate")
	defer span.End()

	logger := observability.LoggerFromContext(ctx).With().
		Int("attempt", attempt).
		Str("provider", s.generator.Name()).
		Logger()
	start := time.Now()

	text, err := s.generator.Complete(ctx, s.prompts.Build(profile, quizType))
	if err != nil {
		observability.RecordError(span, err)
		logger.Error().Err(err).Msg("landing content generation failed")
		if session.Resolve(attempt, PageOutcome{Err: err}) {
			observability.RecordGeneration(ctx, string(quizType), "generation_error", time.Since(start))
			s.publish(ctx, doctorID, quizType, entities.PageEventGenerationResolved, attempt)
		} else {
			observability.RecordGeneration(ctx, string(quizType), "stale", time.Since(start))
		}
		return
	}

	outcome := PageOutcome{}
	var payload entities.ContentPayload
	result := "success"
	content, err := ExtractContent(text)
	var extractionErr *ExtractionError
	switch {
	case errors.As(err, &extractionErr):
		logger.Warn().Str("raw", extractionErr.Raw).Msg("could not parse generated landing content")
		payload = extractionErr.Payload()
		outcome.Failure = payload.Failure
		result = "extraction_error"
	default:
		payload = entities.ContentPayloadOf(content)
		outcome.Content = content
	}

	// A superseded attempt neither shows nor stores its result.
	if !session.Resolve(attempt, outcome) {
		logger.Info().Msg("discarding result of superseded attempt")
		observability.RecordGeneration(ctx, string(quizType), "stale", time.Since(start))
		return
	}

	saved := s.persist(ctx, "generate", doctorID, quizType, payload, session.Snapshot().Colors)
	if !session.MarkSavedFor(attempt, saved) {
		logger.Info().Msg("attempt superseded while persisting")
		s.restoreCurrent(ctx, session, doctorID, quizType)
		observability.RecordGeneration(ctx, string(quizType), "stale", time.Since(start))
		return
	}

	s.publish(ctx, doctorID, quizType, entities.PageEventGenerationResolved, attempt)
	observability.RecordGeneration(ctx, string(quizType), result, time.Since(start))
}

// restoreCurrent runs after a superseded attempt finished writing. The write
// may have replaced what a newer attempt stored, so the session's current
// result is written again; a session reset since then has its record removed.
func (s *LandingPageService) restoreCurrent(ctx context.Context, session *PageSession, doctorID string, quizType quiz.Type) {
	snap := session.Snapshot()
	switch {
	case snap.State == PageNotStarted:
		if err := s.store.Delete(ctx, doctorID, quizType); err != nil {
			observability.LoggerFromContext(ctx).Error().
				Err(err).
				Msg("failed to remove landing content of reset session")
		}
	case snap.State == PageDone && snap.Outcome.Content != nil:
		saved := s.persist(ctx, "restore", doctorID, quizType, entities.ContentPayloadOf(snap.Outcome.Content), snap.Colors)
		session.MarkSavedFor(snap.Attempt, saved)
	case snap.State == PageDone && snap.Outcome.Failure != nil:
		saved := s.persist(ctx, "restore", doctorID, quizType, entities.ContentPayload{Failure: snap.Outcome.Failure}, snap.Colors)
		session.MarkSavedFor(snap.Attempt, saved)
	}
}

// publish announces a page change. Delivery is best effort.
func (s *LandingPageService) publish(ctx context.Context, doctorID string, quizType quiz.Type, eventType entities.PageEventType, attempt int) {
	if s.events == nil {
		return
	}
	event := entities.NewPageEvent(doctorID, string(quizType), eventType, attempt)
	if err := s.events.Publish(ctx, providers.GetPageChannel(doctorID, string(quizType)), event); err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("doctor_id", doctorID).
			Str("event_type", string(eventType)).
			Msg("failed to publish page event")
	}
}

func (s *LandingPageService) viewOf(doctorID string, quizType quiz.Type, snap PageSnapshot) *PageView {
	view := &PageView{
		DoctorID: doctorID,
		QuizType: quizType,
		Attempt:  snap.Attempt,
		Colors:   snap.Colors.OrDefault(),
		Doctor:   snap.Profile,
		Saved:    snap.Outcome.Saved,
	}

	switch {
	case snap.State == PageInFlight:
		view.Status = PageStatusLoading
	case snap.Outcome.Content != nil:
		view.Status = PageStatusReady
		view.Content = snap.Outcome.Content
		condition := ""
		if def, ok := s.catalog.Lookup(string(quizType)); ok {
			condition = def.Condition
		}
		view.Rendered = snap.Outcome.Content.WithFallbacks(snap.Profile, condition)
	case snap.Outcome.Failure != nil:
		view.Status = PageStatusFailed
		view.Error = snap.Outcome.Failure.Error
	default:
		view.Status = PageStatusFailed
		view.Error = GenerationFailedMessage
	}
	return view
}
