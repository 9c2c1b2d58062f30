package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/zatekoja/clinicleads/internal/domain/entities"
	"github.com/zatekoja/clinicleads/internal/domain/repositories"
	"github.com/zatekoja/clinicleads/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/clinicleads/internal/quiz"
	apperrors "github.com/zatekoja/clinicleads/pkg/errors"
)

var landingContentColumns = []interface{}{
	"id", "doctor_id", "quiz_type", "content", "chatbot_colors", "created_at", "updated_at",
}

// LandingContentAdapter implements LandingContentRepository over SQL.
type LandingContentAdapter struct {
	db *goqu.Database
}

// NewLandingContentAdapter creates a landing content adapter backed by PostgreSQL.
func NewLandingContentAdapter(client *postgres.Client) repositories.LandingContentRepository {
	return NewLandingContentAdapterWithDB(client.DB(), "postgres")
}

// NewLandingContentAdapterWithDB creates an adapter on any database/sql
// handle whose goqu dialect is registered.
func NewLandingContentAdapterWithDB(db *sql.DB, dialect string) *LandingContentAdapter {
	return &LandingContentAdapter{db: goqu.New(dialect, db)}
}

// ListByKey returns every record stored for the key.
func (a *LandingContentAdapter) ListByKey(ctx context.Context, doctorID string, quizType quiz.Type) ([]*entities.LandingContent, error) {
	query, args, err := a.db.From(landingContentTable).
		Prepared(true).
		Select(landingContentColumns...).
		Where(goqu.Ex{"doctor_id": doctorID, "quiz_type": string(quizType)}).
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build landing content query", err)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list landing content", err)
	}
	defer rows.Close()

	var records []*entities.LandingContent
	for rows.Next() {
		record, err := scanLandingContent(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate landing content", err)
	}
	return records, nil
}

// Insert stores a new record.
func (a *LandingContentAdapter) Insert(ctx context.Context, content *entities.LandingContent) error {
	if content == nil || content.ID == "" {
		return apperrors.NewValidationError("landing content with an id is required")
	}

	payload, colors, err := encodeLandingContent(content)
	if err != nil {
		return err
	}

	record := goqu.Record{
		"id":             content.ID,
		"doctor_id":      content.DoctorID,
		"quiz_type":      string(content.QuizType),
		"content":        payload,
		"chatbot_colors": colors,
		"created_at":     content.CreatedAt,
		"updated_at":     nullTime(content),
	}

	query, args, err := a.db.Insert(landingContentTable).Prepared(true).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build landing content insert", err)
	}
	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to insert landing content", err)
	}
	return nil
}

// Update overwrites payload, colors and updated_at of an existing record.
func (a *LandingContentAdapter) Update(ctx context.Context, content *entities.LandingContent) error {
	if content == nil || content.ID == "" {
		return apperrors.NewValidationError("landing content with an id is required")
	}

	payload, colors, err := encodeLandingContent(content)
	if err != nil {
		return err
	}

	query, args, err := a.db.Update(landingContentTable).
		Prepared(true).
		Set(goqu.Record{
			"content":        payload,
			"chatbot_colors": colors,
			"updated_at":     nullTime(content),
		}).
		Where(goqu.Ex{"id": content.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build landing content update", err)
	}

	result, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update landing content", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to read affected rows", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("landing content %s", content.ID))
	}
	return nil
}

// DeleteByIDs removes the given records.
func (a *LandingContentAdapter) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return a.delete(ctx, goqu.Ex{"id": ids})
}

// DeleteByKey removes every record for the key.
func (a *LandingContentAdapter) DeleteByKey(ctx context.Context, doctorID string, quizType quiz.Type) (int, error) {
	return a.delete(ctx, goqu.Ex{"doctor_id": doctorID, "quiz_type": string(quizType)})
}

func (a *LandingContentAdapter) delete(ctx context.Context, where goqu.Ex) (int, error) {
	query, args, err := a.db.Delete(landingContentTable).Prepared(true).Where(where).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build landing content delete", err)
	}

	result, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to delete landing content", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to read affected rows", err)
	}
	return int(affected), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLandingContent(row rowScanner) (*entities.LandingContent, error) {
	var (
		record    entities.LandingContent
		quizType  string
		payload   []byte
		colors    []byte
		updatedAt sql.NullTime
	)

	if err := row.Scan(&record.ID, &record.DoctorID, &quizType, &payload, &colors, &record.CreatedAt, &updatedAt); err != nil {
		return nil, apperrors.NewInternalError("failed to scan landing content", err)
	}

	record.QuizType = quiz.Type(quizType)
	if updatedAt.Valid {
		t := updatedAt.Time
		record.UpdatedAt = &t
	}

	// A payload that no longer parses is kept as an empty record so
	// reconciliation can still see and replace it.
	if err := json.Unmarshal(payload, &record.Payload); err != nil {
		record.Payload = entities.ContentPayload{}
	}
	if len(colors) > 0 {
		if err := json.Unmarshal(colors, &record.Colors); err != nil {
			record.Colors = entities.ChatbotColors{}
		}
	}
	return &record, nil
}

func encodeLandingContent(content *entities.LandingContent) (string, sql.NullString, error) {
	payload, err := json.Marshal(content.Payload)
	if err != nil {
		return "", sql.NullString{}, apperrors.NewInternalError("failed to encode landing content", err)
	}

	var colors sql.NullString
	if !content.Colors.IsZero() {
		data, err := json.Marshal(content.Colors)
		if err != nil {
			return "", sql.NullString{}, apperrors.NewInternalError("failed to encode chatbot colors", err)
		}
		colors = sql.NullString{String: string(data), Valid: true}
	}
	return string(payload), colors, nil
}

func nullTime(content *entities.LandingContent) sql.NullTime {
	if content.UpdatedAt == nil || content.UpdatedAt.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *content.UpdatedAt, Valid: true}
}
