package repositories

import (
	"context"

	"github.com/zatekoja/clinicleads/internal/domain/entities"
	"github.com/zatekoja/clinicleads/internal/quiz"
)

// LandingContentRepository defines the interface for landing-page content
// storage. It is a plain row store: it does not enforce one record per
// (doctor, quiz type) key, so ListByKey may return duplicates left behind by
// earlier write races.
type LandingContentRepository interface {
	// ListByKey returns every record stored for the key, in no particular order.
	ListByKey(ctx context.Context, doctorID string, quizType quiz.Type) ([]*entities.LandingContent, error)

	// Insert stores a new record.
	Insert(ctx context.Context, content *entities.LandingContent) error

	// Update overwrites payload, colors and updated_at of the record with content.ID.
	Update(ctx context.Context, content *entities.LandingContent) error

	// DeleteByIDs removes the given records and returns how many were removed.
	DeleteByIDs(ctx context.Context, ids []string) (int, error)

	// DeleteByKey removes every record for the key. Removing nothing is not an error.
	DeleteByKey(ctx context.Context, doctorID string, quizType quiz.Type) (int, error)
}
