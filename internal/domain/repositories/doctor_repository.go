package repositories

import (
	"context"

	"github.com/zatekoja/clinicleads/internal/domain/entities"
)

// DoctorRepository reads doctor profiles.
type DoctorRepository interface {
	GetByID(ctx context.Context, id string) (*entities.DoctorProfile, error)
}
