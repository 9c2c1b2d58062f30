package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/clinicleads/internal/domain/entities"
)

func TestSectionKindFor(t *testing.T) {
	tests := []struct {
		key  string
		want entities.SectionKind
	}{
		{"headline", entities.SectionKindText},
		{"cta", entities.SectionKindText},
		{"intro", entities.SectionKindMultiline},
		{"symptoms", entities.SectionKindMultiline},
		{"comparisonTable", entities.SectionKindTable},
		{"testimonials", entities.SectionKindTestimonials},
		{"locations", entities.SectionKindLocations},
		{"treatmentOverviews.Balloon Sinuplasty", entities.SectionKindMultiline},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := entities.SectionKindFor(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "footer", "treatmentOverviews.", "treatmentOverviews"} {
		_, err := entities.SectionKindFor(bad)
		assert.Error(t, err, bad)
	}
}

func TestGeneratedContent_EditRoundTrip(t *testing.T) {
	content := &entities.GeneratedContent{
		Headline: "Old",
		Symptoms: []string{"Congestion", "Snoring"},
		TreatmentOverviews: []entities.TreatmentOverview{
			{Name: "VivAer", Overview: "Radiofrequency"},
		},
	}

	t.Run("list sections edit as one item per line", func(t *testing.T) {
		section, err := content.BeginEdit("symptoms")
		require.NoError(t, err)
		assert.Equal(t, "Congestion\nSnoring", section.Text)

		section.Text = "Congestion\n\n  Facial pressure  \n"
		require.NoError(t, content.ApplyEdit(section))
		assert.Equal(t, []string{"Congestion", "Facial pressure"}, content.Symptoms)
	})

	t.Run("buffer is a copy until applied", func(t *testing.T) {
		section, err := content.BeginEdit("headline")
		require.NoError(t, err)
		section.Text = "New"
		assert.Equal(t, "Old", content.Headline)

		require.NoError(t, content.ApplyEdit(section))
		assert.Equal(t, "New", content.Headline)
	})

	t.Run("treatment overview is addressed by name", func(t *testing.T) {
		section, err := content.BeginEdit("treatmentOverviews.VivAer")
		require.NoError(t, err)
		assert.Equal(t, "Radiofrequency", section.Text)

		require.NoError(t, content.ApplyEdit(&entities.EditableSection{Key: "treatmentOverviews.Balloon", Text: "Dilation"}))
		assert.Len(t, content.TreatmentOverviews, 2)
	})

	t.Run("kind mismatch is rejected", func(t *testing.T) {
		err := content.ApplyEdit(&entities.EditableSection{Key: "headline", Kind: entities.SectionKindTable})
		assert.Error(t, err)
	})

	t.Run("tables and lists are copied", func(t *testing.T) {
		rows := []entities.ComparisonRow{{"A", "B", "C", "D"}}
		require.NoError(t, content.ApplyEdit(&entities.EditableSection{Key: "comparisonTable", Table: rows}))
		rows[0][0] = "Z"
		assert.Equal(t, "A", content.ComparisonTable[0][0])
	})
}

func TestGeneratedContent_WithFallbacks(t *testing.T) {
	profile := &entities.DoctorProfile{
		Name:         "Dr. Jane Smith",
		Locations:    []entities.PracticeLocation{{City: "Fort Worth", Address: "6801 Oakmont Blvd", Phone: "(817) 332-8848"}},
		Testimonials: []entities.Testimonial{{Text: "Great", Author: "Pat"}},
	}
	stored := &entities.GeneratedContent{Headline: "Breathe Easier"}

	rendered := stored.WithFallbacks(profile, "nasal obstruction")

	assert.Equal(t, "Breathe Easier", rendered.Headline)
	assert.Contains(t, rendered.Intro, "Dr. Jane Smith")
	assert.Equal(t, profile.Testimonials, rendered.Testimonials)
	assert.Equal(t, "Visit us at 6801 Oakmont Blvd, Fort Worth, (817) 332-8848", rendered.Contact)
	assert.NotEmpty(t, rendered.CTA)

	// the stored document is untouched
	assert.Empty(t, stored.Intro)
	assert.Nil(t, stored.Testimonials)

	empty := (*entities.GeneratedContent)(nil).WithFallbacks(nil, "")
	assert.Equal(t, "Find Relief from Nasal And Sinus Symptoms", empty.Headline)
	assert.Equal(t, "Contact our office to schedule an appointment.", empty.Contact)
}
