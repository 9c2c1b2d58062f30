package entities

import (
	"fmt"
	"strings"
)

// WithFallbacks returns a copy of the document with empty fields filled from
// the profile or with generic copy, for rendering only. The result must not
// be persisted: stored content stays exactly what the generator or an editor
// produced.
func (c *GeneratedContent) WithFallbacks(profile *DoctorProfile, condition string) *GeneratedContent {
	out := c.Clone()
	if out == nil {
		out = &GeneratedContent{}
	}

	doctor := "our specialist"
	if profile != nil && strings.TrimSpace(profile.Name) != "" {
		doctor = profile.Name
	}
	if condition == "" {
		condition = "nasal and sinus symptoms"
	}

	if !out.Populated(FieldHeadline) {
		out.Headline = fmt.Sprintf("Find Relief from %s", titleCase(condition))
		out.forget(FieldHeadline)
	}
	if !out.Populated(FieldIntro) {
		out.Intro = fmt.Sprintf("Take the quick assessment and learn how %s can help.", doctor)
		out.forget(FieldIntro)
	}
	if !out.Populated(FieldTestimonials) && profile != nil {
		out.Testimonials = append([]Testimonial(nil), profile.Testimonials...)
		out.forget(FieldTestimonials)
	}
	if !out.Populated(FieldLocations) && profile != nil {
		out.Locations = append([]PracticeLocation(nil), profile.Locations...)
		out.forget(FieldLocations)
	}
	if !out.Populated(FieldContact) {
		out.Contact = contactLine(profile)
		out.forget(FieldContact)
	}
	if !out.Populated(FieldCTA) {
		out.CTA = "Schedule a consultation today"
		out.forget(FieldCTA)
	}
	return out
}

func contactLine(profile *DoctorProfile) string {
	if profile == nil || len(profile.Locations) == 0 {
		return "Contact our office to schedule an appointment."
	}
	loc := profile.Locations[0]
	parts := []string{}
	for _, p := range []string{loc.Address, loc.City, loc.Phone} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "Contact our office to schedule an appointment."
	}
	return "Visit us at " + strings.Join(parts, ", ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
