package services

import (
	"fmt"
	"strings"

	"github.com/zatekoja/clinicleads/internal/domain/entities"
	"github.com/zatekoja/clinicleads/internal/quiz"
)

const placeholder = "(not provided)"

// PromptBuilder turns a doctor profile and quiz type into the instruction
// sent to the generator. It is pure templating and never fails.
type PromptBuilder struct {
	catalog *quiz.Catalog
}

// NewPromptBuilder creates a prompt builder backed by catalog.
func NewPromptBuilder(catalog *quiz.Catalog) *PromptBuilder {
	return &PromptBuilder{catalog: catalog}
}

// Build returns the landing-page generation prompt.
func (b *PromptBuilder) Build(profile *entities.DoctorProfile, quizType quiz.Type) string {
	if profile == nil {
		profile = &entities.DoctorProfile{}
	}

	quizName, condition, about := string(quizType), "nasal and sinus symptoms", ""
	if b.catalog != nil {
		if def, ok := b.catalog.Lookup(string(quizType)); ok {
			quizName, condition, about = def.DisplayName, def.Condition, def.Description
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Write the content for a patient-facing landing page for the %s quiz", quizName)
	if about != "" {
		fmt.Fprintf(&sb, ", %s", about)
	}
	fmt.Fprintf(&sb, ". The page promotes the practice below to patients with %s.\n\n", condition)

	sb.WriteString("Practice details:\n")
	fmt.Fprintf(&sb, "- Doctor: %s\n", orPlaceholder(profile.Name))
	fmt.Fprintf(&sb, "- Credentials: %s\n", orPlaceholder(profile.Credentials))
	fmt.Fprintf(&sb, "- Website: %s\n", orPlaceholder(profile.Website))
	if len(profile.Locations) == 0 {
		fmt.Fprintf(&sb, "- Locations: %s\n", placeholder)
	}
	for _, loc := range profile.Locations {
		fmt.Fprintf(&sb, "- Location: %s, %s, phone %s\n",
			orPlaceholder(loc.City), orPlaceholder(loc.Address), orPlaceholder(loc.Phone))
	}

	sb.WriteString("\nTestimonials:\n")
	if len(profile.Testimonials) == 0 {
		sb.WriteString("The practice has no testimonials yet. Invent exactly two short, realistic patient testimonials.\n")
	}
	for _, t := range profile.Testimonials {
		fmt.Fprintf(&sb, "- %q by %s (%s)\n", t.Text, orPlaceholder(t.Author), orPlaceholder(t.Location))
	}

	sb.WriteString("\nRespond with a single JSON object and nothing else. Use exactly these keys:\n")
	for _, key := range entities.GeneratedFields {
		fmt.Fprintf(&sb, "- %s: %s\n", key, fieldShapes[key])
	}
	return sb.String()
}

var fieldShapes = map[string]string{
	entities.FieldHeadline:           "string, a short attention-grabbing headline",
	entities.FieldIntro:              "string, one introductory paragraph",
	entities.FieldWhatIs:             "string, explains the condition in plain language",
	entities.FieldCauses:             "string, common causes",
	entities.FieldSymptoms:           "array of strings",
	entities.FieldTreatments:         "array of strings, treatment options offered",
	entities.FieldComparisonTable:    "array of rows, each row an array of exactly four strings: treatment, pros, cons, invasiveness",
	entities.FieldTreatmentOverviews: "array of objects with name and overview strings",
	entities.FieldWhyChoose:          "array of strings, reasons to choose this doctor",
	entities.FieldTestimonials:       "array of objects with text, author and location strings",
	entities.FieldContact:            "string, how to reach the practice",
	entities.FieldCTA:                "string, a call to action to take the quiz or book a visit",
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}
