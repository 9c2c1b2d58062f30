package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/zatekoja/clinicleads/internal/domain/entities"
	"github.com/zatekoja/clinicleads/internal/quiz"
)

// PageState is the generation state of one viewer's landing page.
type PageState int

const (
	// PageNotStarted: nothing loaded or generated yet.
	PageNotStarted PageState = iota
	// PageInFlight: generation for the current attempt is running.
	PageInFlight
	// PageDone: the current attempt resolved, or stored content was adopted.
	PageDone
)

func (s PageState) String() string {
	switch s {
	case PageNotStarted:
		return "not_started"
	case PageInFlight:
		return "in_flight"
	case PageDone:
		return "done"
	}
	return fmt.Sprintf("PageState(%d)", int(s))
}

// PageOutcome is what an attempt resolved to. Exactly one of Content,
// Failure and Err is set.
type PageOutcome struct {
	Content *entities.GeneratedContent
	Failure *entities.FailurePayload
	Err     error
	// Saved is false when the outcome could not be persisted.
	Saved bool
}

// PageSnapshot is a consistent copy of a session's state.
type PageSnapshot struct {
	State   PageState
	Attempt int
	Outcome PageOutcome
	Profile *entities.DoctorProfile
	Colors  entities.ChatbotColors
}

// PageSession owns the generation latch and retry gate for one viewer and
// one (doctor, quiz type). Attempt numbers only grow; a resolution is applied
// only if its attempt is still the current one.
type PageSession struct {
	mu      sync.Mutex
	state   PageState
	attempt int
	outcome PageOutcome
	profile *entities.DoctorProfile
	colors  entities.ChatbotColors
}

// NewPageSession creates a session in PageNotStarted.
func NewPageSession() *PageSession {
	return &PageSession{}
}

// Begin starts the first attempt. It succeeds only from PageNotStarted.
func (s *PageSession) Begin() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != PageNotStarted {
		return s.attempt, false
	}
	s.attempt++
	s.state = PageInFlight
	return s.attempt, true
}

// Retry starts a new attempt, superseding any attempt still in flight.
func (s *PageSession) Retry() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempt++
	s.state = PageInFlight
	return s.attempt
}

// IsCurrent reports whether attempt is the latest one and still unresolved.
func (s *PageSession) IsCurrent(attempt int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == PageInFlight && s.attempt == attempt
}

// Resolve applies outcome if attempt is current. Stale resolutions are
// dropped and reported as false.
func (s *PageSession) Resolve(attempt int, outcome PageOutcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != PageInFlight || s.attempt != attempt {
		return false
	}
	s.state = PageDone
	s.outcome = outcome
	return true
}

// Adopt marks stored content as the session's result without generating.
// It only applies from PageNotStarted.
func (s *PageSession) Adopt(record *entities.LandingContent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != PageNotStarted || record == nil {
		return false
	}
	s.state = PageDone
	s.outcome = PageOutcome{Content: record.Payload.Content.Clone(), Saved: true}
	s.colors = record.Colors
	return true
}

// SetContext records the profile and the colors of any stored record, used
// by later attempts and edits.
func (s *PageSession) SetContext(profile *entities.DoctorProfile, colors entities.ChatbotColors) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = profile
	if !colors.IsZero() {
		s.colors = colors
	}
}

// Edit replaces the displayed content. It fails unless the session holds a
// document.
func (s *PageSession) Edit(fn func(content *entities.GeneratedContent) error) (*entities.GeneratedContent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != PageDone || s.outcome.Content == nil {
		return nil, fmt.Errorf("no content to edit")
	}
	next := s.outcome.Content.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.outcome.Content = next
	return next.Clone(), nil
}

// SetColors replaces the chatbot colors.
func (s *PageSession) SetColors(colors entities.ChatbotColors) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colors = colors
}

// MarkSaved records whether the displayed content is persisted.
func (s *PageSession) MarkSaved(saved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcome.Saved = saved
}

// MarkSavedFor records whether attempt's result is persisted. It reports
// false, changing nothing, once attempt is no longer the session's result.
func (s *PageSession) MarkSavedFor(attempt int, saved bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != PageDone || s.attempt != attempt {
		return false
	}
	s.outcome.Saved = saved
	return true
}

// Reset returns the session to PageNotStarted. The attempt counter keeps
// growing so results of earlier attempts stay stale.
func (s *PageSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = PageNotStarted
	s.outcome = PageOutcome{}
	s.colors = entities.ChatbotColors{}
}

// Snapshot returns a copy of the current state.
func (s *PageSession) Snapshot() PageSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := PageSnapshot{
		State:   s.state,
		Attempt: s.attempt,
		Outcome: s.outcome,
		Profile: s.profile,
		Colors:  s.colors,
	}
	out.Outcome.Content = s.outcome.Content.Clone()
	return out
}

// SessionKey identifies a page session.
type SessionKey struct {
	SessionID string
	DoctorID  string
	QuizType  quiz.Type
}

// SessionRegistry holds page sessions in a size-bounded LRU whose entries
// expire after ttl without access.
type SessionRegistry struct {
	mu    sync.Mutex
	cache *expirable.LRU[SessionKey, *PageSession]
}

// NewSessionRegistry creates a registry.
func NewSessionRegistry(size int, ttl time.Duration) *SessionRegistry {
	if size <= 0 {
		size = 10000
	}
	return &SessionRegistry{
		cache: expirable.NewLRU[SessionKey, *PageSession](size, nil, ttl),
	}
}

// Get returns the session for key, creating it when absent. Access extends
// the session's lifetime.
func (r *SessionRegistry) Get(key SessionKey) *PageSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.cache.Get(key)
	if !ok {
		session = NewPageSession()
	}
	r.cache.Add(key, session)
	return session
}

// Peek returns the session for key without creating or refreshing it.
func (r *SessionRegistry) Peek(key SessionKey) (*PageSession, bool) {
	return r.cache.Peek(key)
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	return r.cache.Len()
}
