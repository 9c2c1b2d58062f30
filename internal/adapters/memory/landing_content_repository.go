// Package memory provides in-process repositories for local development and
// tests. Data does not survive a restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/zatekoja/clinicleads/internal/domain/entities"
	"github.com/zatekoja/clinicleads/internal/domain/repositories"
	"github.com/zatekoja/clinicleads/internal/quiz"
	apperrors "github.com/zatekoja/clinicleads/pkg/errors"
)

// LandingContentRepository stores records in a map keyed by id. Like the SQL
// table it does not enforce one record per key.
type LandingContentRepository struct {
	mu      sync.RWMutex
	records map[string]*entities.LandingContent
}

var _ repositories.LandingContentRepository = (*LandingContentRepository)(nil)

// NewLandingContentRepository creates an empty repository.
func NewLandingContentRepository() *LandingContentRepository {
	return &LandingContentRepository{
		records: make(map[string]*entities.LandingContent),
	}
}

// ListByKey returns copies of the records for the key, ordered by id.
func (r *LandingContentRepository) ListByKey(ctx context.Context, doctorID string, quizType quiz.Type) ([]*entities.LandingContent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entities.LandingContent
	for _, rec := range r.records {
		if rec.DoctorID == doctorID && rec.QuizType == quizType {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Insert stores a copy of content.
func (r *LandingContentRepository) Insert(ctx context.Context, content *entities.LandingContent) error {
	if content == nil || content.ID == "" {
		return apperrors.NewValidationError("landing content with an id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[content.ID]; ok {
		return apperrors.NewConflictError("landing content " + content.ID + " already exists")
	}
	r.records[content.ID] = content.Clone()
	return nil
}

// Update overwrites payload, colors and updated_at.
func (r *LandingContentRepository) Update(ctx context.Context, content *entities.LandingContent) error {
	if content == nil {
		return apperrors.NewValidationError("landing content is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.records[content.ID]
	if !ok {
		return apperrors.NewNotFoundError("landing content " + content.ID + " not found")
	}
	next := content.Clone()
	existing.Payload = next.Payload
	existing.Colors = next.Colors
	existing.UpdatedAt = next.UpdatedAt
	return nil
}

// DeleteByIDs removes the given records.
func (r *LandingContentRepository) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for _, id := range ids {
		if _, ok := r.records[id]; ok {
			delete(r.records, id)
			removed++
		}
	}
	return removed, nil
}

// DeleteByKey removes every record for the key.
func (r *LandingContentRepository) DeleteByKey(ctx context.Context, doctorID string, quizType quiz.Type) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, rec := range r.records {
		if rec.DoctorID == doctorID && rec.QuizType == quizType {
			delete(r.records, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored records across all keys.
func (r *LandingContentRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
