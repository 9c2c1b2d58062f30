package services

import (
	"context"

	"github.com/zatekoja/clinicleads/internal/domain/entities"
	"github.com/zatekoja/clinicleads/internal/infrastructure/observability"
	"github.com/zatekoja/clinicleads/internal/quiz"
	apperrors "github.com/zatekoja/clinicleads/pkg/errors"
)

// SaveSection applies an edited section to the viewer's page and persists
// the whole document. The edit is visible immediately; a failed write is
// logged and reported through PageView.Saved, never as an error.
func (s *LandingPageService) SaveSection(ctx context.Context, sessionID, doctorID, quizTag string, section *entities.EditableSection) (*PageView, error) {
	if section == nil {
		return nil, apperrors.NewValidationError("section is required")
	}
	if _, err := entities.SectionKindFor(section.Key); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	quizType, session, err := s.editableSession(ctx, sessionID, doctorID, quizTag)
	if err != nil {
		return nil, err
	}

	var applyErr error
	content, err := session.Edit(func(c *entities.GeneratedContent) error {
		applyErr = c.ApplyEdit(section)
		return applyErr
	})
	if applyErr != nil {
		return nil, apperrors.NewValidationError(applyErr.Error())
	}
	if err != nil {
		return nil, apperrors.NewConflictError("page has no content to edit")
	}

	snap := session.Snapshot()
	saved := s.persist(ctx, "save_section", doctorID, quizType, entities.ContentPayloadOf(content), snap.Colors)
	session.MarkSaved(saved)
	return s.viewOf(doctorID, quizType, session.Snapshot()), nil
}

// SaveColors sets the chatbot colors of the viewer's page and persists them
// with the current document.
func (s *LandingPageService) SaveColors(ctx context.Context, sessionID, doctorID, quizTag string, colors entities.ChatbotColors) (*PageView, error) {
	quizType, session, err := s.editableSession(ctx, sessionID, doctorID, quizTag)
	if err != nil {
		return nil, err
	}

	session.SetColors(colors)
	snap := session.Snapshot()
	saved := s.persist(ctx, "save_colors", doctorID, quizType, entities.ContentPayloadOf(snap.Outcome.Content), colors)
	session.MarkSaved(saved)
	return s.viewOf(doctorID, quizType, session.Snapshot()), nil
}

// editableSession returns the viewer's session once it holds a document,
// loading the page first if the session is new.
func (s *LandingPageService) editableSession(ctx context.Context, sessionID, doctorID, quizTag string) (quiz.Type, *PageSession, error) {
	quizType, err := s.ResolveQuizType(quizTag)
	if err != nil {
		return "", nil, err
	}

	key := SessionKey{SessionID: sessionID, DoctorID: doctorID, QuizType: quizType}
	if s.sessions.Get(key).Snapshot().State == PageNotStarted {
		if _, err := s.View(ctx, sessionID, doctorID, quizTag); err != nil {
			return "", nil, err
		}
	}

	session := s.sessions.Get(key)
	if snap := session.Snapshot(); snap.State != PageDone || snap.Outcome.Content == nil {
		return "", nil, apperrors.NewConflictError("page has no content to edit")
	}
	return quizType, session, nil
}

func (s *LandingPageService) persist(ctx context.Context, operation, doctorID string, quizType quiz.Type, payload entities.ContentPayload, colors entities.ChatbotColors) bool {
	ctx = observability.WithPage(ctx, doctorID, string(quizType))
	if _, err := s.store.Upsert(ctx, doctorID, quizType, payload, colors); err != nil {
		observability.RecordPersistFailure(ctx, operation)
		observability.LoggerFromContext(ctx).Error().
			Err(err).
			Str("operation", operation).
			Msg("failed to persist landing content")
		return false
	}
	s.publish(ctx, doctorID, quizType, entities.PageEventContentSaved, 0)
	return true
}

// EditSection returns an edit buffer holding the current value of one
// section of the viewer's page.
func (s *LandingPageService) EditSection(ctx context.Context, sessionID, doctorID, quizTag, key string) (*entities.EditableSection, error) {
	if _, err := entities.SectionKindFor(key); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	_, session, err := s.editableSession(ctx, sessionID, doctorID, quizTag)
	if err != nil {
		return nil, err
	}
	return session.Snapshot().Outcome.Content.BeginEdit(key)
}
