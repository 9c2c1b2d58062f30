// Package seed loads doctor profiles from YAML for local databases.
package seed

import (
	"fmt"
	"os"
	"time"

	"github.com/zatekoja/clinicleads/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

type doctorFile struct {
	Doctors []doctorEntry `yaml:"doctors"`
}

type doctorEntry struct {
	ID           string             `yaml:"id"`
	Name         string             `yaml:"name"`
	Credentials  string             `yaml:"credentials"`
	Website      string             `yaml:"website"`
	AvatarURL    string             `yaml:"avatar_url"`
	Locations    []locationEntry    `yaml:"locations"`
	Testimonials []testimonialEntry `yaml:"testimonials"`
}

type locationEntry struct {
	City    string `yaml:"city"`
	Address string `yaml:"address"`
	Phone   string `yaml:"phone"`
}

type testimonialEntry struct {
	Text     string `yaml:"text"`
	Author   string `yaml:"author"`
	Location string `yaml:"location"`
}

// LoadDoctors reads profiles from a YAML file.
func LoadDoctors(path string) ([]*entities.DoctorProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseDoctors(data)
}

// ParseDoctors decodes profiles. Every entry needs an id and a name.
func ParseDoctors(data []byte) ([]*entities.DoctorProfile, error) {
	var file doctorFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	now := time.Now().UTC()
	profiles := make([]*entities.DoctorProfile, 0, len(file.Doctors))
	for i, d := range file.Doctors {
		if d.ID == "" || d.Name == "" {
			return nil, fmt.Errorf("doctor %d: id and name are required", i)
		}

		profile := &entities.DoctorProfile{
			ID:          d.ID,
			Name:        d.Name,
			Credentials: d.Credentials,
			Website:     d.Website,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if d.AvatarURL != "" {
			avatar := d.AvatarURL
			profile.AvatarURL = &avatar
		}
		for _, l := range d.Locations {
			profile.Locations = append(profile.Locations, entities.PracticeLocation{City: l.City, Address: l.Address, Phone: l.Phone})
		}
		for _, t := range d.Testimonials {
			profile.Testimonials = append(profile.Testimonials, entities.Testimonial{Text: t.Text, Author: t.Author, Location: t.Location})
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}
