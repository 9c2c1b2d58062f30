package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/zatekoja/clinicleads/internal/domain/entities"
	"github.com/zatekoja/clinicleads/internal/domain/repositories"
	"github.com/zatekoja/clinicleads/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/clinicleads/pkg/errors"
)

// DoctorAdapter reads doctor profiles from SQL.
type DoctorAdapter struct {
	db *goqu.Database
}

// NewDoctorAdapter creates a doctor adapter backed by PostgreSQL.
func NewDoctorAdapter(client *postgres.Client) repositories.DoctorRepository {
	return NewDoctorAdapterWithDB(client.DB(), "postgres")
}

// NewDoctorAdapterWithDB creates a doctor adapter on any registered goqu dialect.
func NewDoctorAdapterWithDB(db *sql.DB, dialect string) *DoctorAdapter {
	return &DoctorAdapter{db: goqu.New(dialect, db)}
}

// GetByID retrieves a doctor profile by ID
func (a *DoctorAdapter) GetByID(ctx context.Context, id string) (*entities.DoctorProfile, error) {
	query, args, err := a.db.From(doctorProfilesTable).
		Prepared(true).
		Select("id", "name", "credentials", "locations", "testimonials", "website", "avatar_url", "created_at", "updated_at").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build doctor query", err)
	}

	var (
		profile      entities.DoctorProfile
		locations    []byte
		testimonials []byte
		avatarURL    sql.NullString
	)
	err = a.db.QueryRowContext(ctx, query, args...).Scan(
		&profile.ID,
		&profile.Name,
		&profile.Credentials,
		&locations,
		&testimonials,
		&profile.Website,
		&avatarURL,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("doctor %s", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get doctor", err)
	}

	if avatarURL.Valid {
		profile.AvatarURL = &avatarURL.String
	}
	if err := unmarshalJSONColumn(locations, &profile.Locations); err != nil {
		return nil, apperrors.NewInternalError("failed to decode doctor locations", err)
	}
	if err := unmarshalJSONColumn(testimonials, &profile.Testimonials); err != nil {
		return nil, apperrors.NewInternalError("failed to decode doctor testimonials", err)
	}
	return &profile, nil
}

// Save inserts or replaces a profile. Profiles are owned by another system;
// this exists for seeding local databases and tests.
func (a *DoctorAdapter) Save(ctx context.Context, profile *entities.DoctorProfile) error {
	locations, err := json.Marshal(nonNil(profile.Locations))
	if err != nil {
		return apperrors.NewInternalError("failed to encode doctor locations", err)
	}
	testimonials, err := json.Marshal(nonNil(profile.Testimonials))
	if err != nil {
		return apperrors.NewInternalError("failed to encode doctor testimonials", err)
	}

	var avatarURL sql.NullString
	if profile.AvatarURL != nil {
		avatarURL = sql.NullString{String: *profile.AvatarURL, Valid: true}
	}

	record := goqu.Record{
		"id":           profile.ID,
		"name":         profile.Name,
		"credentials":  profile.Credentials,
		"locations":    string(locations),
		"testimonials": string(testimonials),
		"website":      profile.Website,
		"avatar_url":   avatarURL,
		"created_at":   profile.CreatedAt,
		"updated_at":   profile.UpdatedAt,
	}

	query, args, err := a.db.Insert(doctorProfilesTable).
		Prepared(true).
		Rows(record).
		OnConflict(goqu.DoUpdate("id", goqu.Record{
			"name":         goqu.I("excluded.name"),
			"credentials":  goqu.I("excluded.credentials"),
			"locations":    goqu.I("excluded.locations"),
			"testimonials": goqu.I("excluded.testimonials"),
			"website":      goqu.I("excluded.website"),
			"avatar_url":   goqu.I("excluded.avatar_url"),
			"updated_at":   goqu.I("excluded.updated_at"),
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build doctor upsert", err)
	}
	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to save doctor", err)
	}
	return nil
}

func unmarshalJSONColumn(data []byte, dst interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
