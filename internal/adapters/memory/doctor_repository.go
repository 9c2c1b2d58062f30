package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/zatekoja/clinicleads/internal/domain/entities"
	"github.com/zatekoja/clinicleads/internal/domain/repositories"
	apperrors "github.com/zatekoja/clinicleads/pkg/errors"
)

// DoctorRepository serves doctor profiles from memory.
type DoctorRepository struct {
	mu       sync.RWMutex
	profiles map[string]entities.DoctorProfile
}

var _ repositories.DoctorRepository = (*DoctorRepository)(nil)

// NewDoctorRepository creates a repository holding profiles.
func NewDoctorRepository(profiles ...*entities.DoctorProfile) *DoctorRepository {
	r := &DoctorRepository{profiles: make(map[string]entities.DoctorProfile)}
	for _, p := range profiles {
		r.Put(p)
	}
	return r
}

// Put stores a copy of profile.
func (r *DoctorRepository) Put(profile *entities.DoctorProfile) {
	if profile == nil || profile.ID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.ID] = copyProfile(*profile)
}

// GetByID returns a copy of the profile.
func (r *DoctorRepository) GetByID(ctx context.Context, id string) (*entities.DoctorProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("doctor with id %s not found", id))
	}
	out := copyProfile(p)
	return &out, nil
}

func copyProfile(p entities.DoctorProfile) entities.DoctorProfile {
	p.Locations = append([]entities.PracticeLocation(nil), p.Locations...)
	p.Testimonials = append([]entities.Testimonial(nil), p.Testimonials...)
	if p.AvatarURL != nil {
		avatar := *p.AvatarURL
		p.AvatarURL = &avatar
	}
	return p
}
