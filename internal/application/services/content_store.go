package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/clinicleads/internal/domain/entities"
	"github.com/zatekoja/clinicleads/internal/domain/repositories"
	"github.com/zatekoja/clinicleads/internal/infrastructure/observability"
	"github.com/zatekoja/clinicleads/internal/quiz"
	apperrors "github.com/zatekoja/clinicleads/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// ContentStore keeps at most one canonical landing content record per
// (doctor, quiz type). The underlying repository does not enforce that, so
// reads reconcile duplicates left by earlier write races.
type ContentStore struct {
	repo    repositories.LandingContentRepository
	catalog *quiz.Catalog
	now     func() time.Time
}

// NewContentStore creates a new content store.
func NewContentStore(repo repositories.LandingContentRepository, catalog *quiz.Catalog) *ContentStore {
	return &ContentStore{
		repo:    repo,
		catalog: catalog,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source, for tests.
func (s *ContentStore) WithClock(now func() time.Time) *ContentStore {
	s.now = now
	return s
}

// Fetch returns the canonical record for the key, or a NOT_FOUND error. When
// duplicates exist the newest is returned and the rest are deleted; a failed
// deletion is logged and does not fail the read.
func (s *ContentStore) Fetch(ctx context.Context, doctorID string, quizType quiz.Type) (*entities.LandingContent, error) {
	if err := validateKey(doctorID, quizType); err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, "ContentStore.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("doctor.id", doctorID), attribute.String("quiz.type", string(quizType)))

	records, err := s.repo.ListByKey(ctx, doctorID, quizType)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	switch len(records) {
	case 0:
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("landing content for doctor %s and quiz %s not found", doctorID, quizType))
	case 1:
		return records[0], nil
	}

	canonical, removed, err := s.removeDuplicates(ctx, quizType, records)
	if err != nil {
		observability.RecordError(span, err)
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("doctor_id", doctorID).
			Str("quiz_type", string(quizType)).
			Int("duplicates", len(records)-1).
			Msg("failed to remove duplicate landing content records")
	} else {
		observability.LoggerFromContext(ctx).Info().
			Str("doctor_id", doctorID).
			Str("quiz_type", string(quizType)).
			Str("canonical_id", canonical.ID).
			Int("removed", removed).
			Msg("compacted duplicate landing content records")
	}
	return canonical, nil
}

// Compact reduces the key to its canonical record and returns it together
// with the number of records removed. Running it again removes nothing.
// Unlike Fetch it reports deletion failures.
func (s *ContentStore) Compact(ctx context.Context, doctorID string, quizType quiz.Type) (*entities.LandingContent, int, error) {
	if err := validateKey(doctorID, quizType); err != nil {
		return nil, 0, err
	}

	records, err := s.repo.ListByKey(ctx, doctorID, quizType)
	if err != nil {
		return nil, 0, err
	}
	if len(records) == 0 {
		return nil, 0, nil
	}
	return s.removeDuplicates(ctx, quizType, records)
}

func (s *ContentStore) removeDuplicates(ctx context.Context, quizType quiz.Type, records []*entities.LandingContent) (*entities.LandingContent, int, error) {
	canonical := Canonical(records)
	if len(records) == 1 {
		return canonical, 0, nil
	}

	stale := make([]string, 0, len(records)-1)
	for _, r := range records {
		if r.ID != canonical.ID {
			stale = append(stale, r.ID)
		}
	}

	removed, err := s.repo.DeleteByIDs(ctx, stale)
	observability.RecordCompaction(ctx, string(quizType), removed)
	return canonical, removed, err
}

// Canonical picks the record duplicate reconciliation keeps: latest update,
// then latest creation, then highest id.
func Canonical(records []*entities.LandingContent) *entities.LandingContent {
	var best *entities.LandingContent
	for _, r := range records {
		if r == nil {
			continue
		}
		if best == nil || r.NewerThan(best) {
			best = r
		}
	}
	return best
}

// Upsert updates the canonical record in place or inserts a new one. Two
// concurrent upserts for a new key can both insert; the next read compacts
// the loser away.
func (s *ContentStore) Upsert(ctx context.Context, doctorID string, quizType quiz.Type, payload entities.ContentPayload, colors entities.ChatbotColors) (*entities.LandingContent, error) {
	if err := validateKey(doctorID, quizType); err != nil {
		return nil, err
	}
	if payload.IsEmpty() {
		return nil, apperrors.NewValidationError("content is required")
	}

	ctx, span := observability.StartSpan(ctx, "ContentStore.Upsert")
	defer span.End()
	span.SetAttributes(attribute.String("doctor.id", doctorID), attribute.String("quiz.type", string(quizType)))

	existing, err := s.Fetch(ctx, doctorID, quizType)
	if err != nil && !apperrors.IsNotFound(err) {
		observability.RecordError(span, err)
		return nil, err
	}

	if existing == nil {
		// Narrow the insert race: another writer may have inserted since Fetch.
		records, err := s.repo.ListByKey(ctx, doctorID, quizType)
		if err != nil {
			observability.RecordError(span, err)
			return nil, err
		}
		existing = Canonical(records)
	}

	now := s.now()
	if existing != nil {
		updated := *existing
		updated.Payload = payload
		updated.Colors = colors
		updated.UpdatedAt = &now
		if err := s.repo.Update(ctx, &updated); err != nil {
			observability.RecordError(span, err)
			return nil, err
		}
		return &updated, nil
	}

	record := &entities.LandingContent{
		ID:        uuid.New().String(),
		DoctorID:  doctorID,
		QuizType:  quizType,
		Payload:   payload,
		Colors:    colors,
		CreatedAt: now,
		UpdatedAt: &now,
	}
	if err := s.repo.Insert(ctx, record); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return record, nil
}

// Delete removes every record for the key. Deleting a missing record is not an error.
func (s *ContentStore) Delete(ctx context.Context, doctorID string, quizType quiz.Type) error {
	if err := validateKey(doctorID, quizType); err != nil {
		return err
	}
	_, err := s.repo.DeleteByKey(ctx, doctorID, quizType)
	return err
}

// IsUsable reports whether a stored record can be served without
// regenerating: it holds a document, not a failure payload, and every field
// the quiz type requires is populated.
func (s *ContentStore) IsUsable(record *entities.LandingContent) bool {
	if record == nil || record.Payload.Content == nil || record.Payload.IsFailure() {
		return false
	}
	var required []string
	if s.catalog != nil {
		required = s.catalog.RequiredFields(record.QuizType)
	}
	return len(record.Payload.Content.MissingFields(required)) == 0
}

func validateKey(doctorID string, quizType quiz.Type) error {
	if doctorID == "" {
		return apperrors.NewValidationError("doctor ID is required")
	}
	if quizType == "" {
		return apperrors.NewValidationError("quiz type is required")
	}
	return nil
}
