package entities

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/zatekoja/clinicleads/internal/quiz"
)

// ComparisonRow is one row of the treatment comparison table, normally
// treatment, pros, cons, invasiveness. Rows are kept with the cells the
// generator produced.
type ComparisonRow []string

// TreatmentOverview is a prose overview of a named treatment.
type TreatmentOverview struct {
	Name     string `json:"name"`
	Overview string `json:"overview"`
}

// GeneratedContent is the structured landing-page document produced by the
// generator. Every field is optional. A decoded document keeps every key
// exactly as parsed and writes it back unchanged; the typed fields are views
// for rendering and editing, and a value of the wrong JSON type has an empty
// view without being dropped.
type GeneratedContent struct {
	Headline           string              `json:"headline,omitempty"`
	Intro              string              `json:"intro,omitempty"`
	WhatIs             string              `json:"whatIs,omitempty"`
	Causes             string              `json:"causes,omitempty"`
	Symptoms           []string            `json:"symptoms,omitempty"`
	Treatments         []string            `json:"treatments,omitempty"`
	ComparisonTable    []ComparisonRow     `json:"comparisonTable,omitempty"`
	TreatmentOverviews []TreatmentOverview `json:"treatmentOverviews,omitempty"`
	WhyChoose          []string            `json:"whyChoose,omitempty"`
	Testimonials       []Testimonial       `json:"testimonials,omitempty"`
	Locations          []PracticeLocation  `json:"locations,omitempty"`
	Contact            string              `json:"contact,omitempty"`
	CTA                string              `json:"cta,omitempty"`

	// fields holds the decoded document. A key is removed once its typed
	// value is changed, so the new value is written instead.
	fields map[string]json.RawMessage
}

// contentView has GeneratedContent's fields without its JSON methods.
type contentView GeneratedContent

// Document field keys, as they appear in the generated JSON.
const (
	FieldHeadline           = "headline"
	FieldIntro              = "intro"
	FieldWhatIs             = "whatIs"
	FieldCauses             = "causes"
	FieldSymptoms           = "symptoms"
	FieldTreatments         = "treatments"
	FieldComparisonTable    = "comparisonTable"
	FieldTreatmentOverviews = "treatmentOverviews"
	FieldWhyChoose          = "whyChoose"
	FieldTestimonials       = "testimonials"
	FieldLocations          = "locations"
	FieldContact            = "contact"
	FieldCTA                = "cta"
)

// GeneratedFields lists the keys the generator is asked to produce, in prompt order.
var GeneratedFields = []string{
	FieldHeadline,
	FieldIntro,
	FieldWhatIs,
	FieldCauses,
	FieldSymptoms,
	FieldTreatments,
	FieldComparisonTable,
	FieldTreatmentOverviews,
	FieldWhyChoose,
	FieldTestimonials,
	FieldContact,
	FieldCTA,
}

// UnmarshalJSON keeps the object as parsed and decodes the typed views.
// A list field given as a single string views as a one-item list.
func (c *GeneratedContent) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*c = GeneratedContent{fields: fields}
	decodeField(fields, FieldHeadline, &c.Headline)
	decodeField(fields, FieldIntro, &c.Intro)
	decodeField(fields, FieldWhatIs, &c.WhatIs)
	decodeField(fields, FieldCauses, &c.Causes)
	decodeList(fields, FieldSymptoms, &c.Symptoms)
	decodeList(fields, FieldTreatments, &c.Treatments)
	decodeField(fields, FieldComparisonTable, &c.ComparisonTable)
	decodeField(fields, FieldTreatmentOverviews, &c.TreatmentOverviews)
	decodeList(fields, FieldWhyChoose, &c.WhyChoose)
	decodeField(fields, FieldTestimonials, &c.Testimonials)
	decodeField(fields, FieldLocations, &c.Locations)
	decodeField(fields, FieldContact, &c.Contact)
	decodeField(fields, FieldCTA, &c.CTA)
	return nil
}

// MarshalJSON writes the decoded keys unchanged and the typed value of every
// other populated field.
func (c GeneratedContent) MarshalJSON() ([]byte, error) {
	typed, err := json.Marshal(contentView(c))
	if err != nil {
		return nil, err
	}
	if len(c.fields) == 0 {
		return typed, nil
	}

	merged := make(map[string]json.RawMessage, len(c.fields))
	if err := json.Unmarshal(typed, &merged); err != nil {
		return nil, err
	}
	for key, raw := range c.fields {
		merged[key] = raw
	}
	return json.Marshal(merged)
}

func decodeField[T any](fields map[string]json.RawMessage, key string, dst *T) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err == nil {
		*dst = v
	}
}

func decodeList(fields map[string]json.RawMessage, key string, dst *[]string) {
	decodeField(fields, key, dst)
	if *dst != nil {
		return
	}
	var single string
	decodeField(fields, key, &single)
	if strings.TrimSpace(single) != "" {
		*dst = []string{single}
	}
}

// forget drops the decoded value of key so the typed value is written.
func (c *GeneratedContent) forget(key string) {
	delete(c.fields, key)
}

// Populated reports whether the named field holds a non-empty string or a
// non-empty sequence. A decoded value is judged as parsed, whatever its key.
func (c *GeneratedContent) Populated(field string) bool {
	if raw, ok := c.fields[field]; ok {
		return rawPopulated(raw)
	}
	switch field {
	case FieldHeadline:
		return strings.TrimSpace(c.Headline) != ""
	case FieldIntro:
		return strings.TrimSpace(c.Intro) != ""
	case FieldWhatIs:
		return strings.TrimSpace(c.WhatIs) != ""
	case FieldCauses:
		return strings.TrimSpace(c.Causes) != ""
	case FieldSymptoms:
		return len(c.Symptoms) > 0
	case FieldTreatments:
		return len(c.Treatments) > 0
	case FieldComparisonTable:
		return len(c.ComparisonTable) > 0
	case FieldTreatmentOverviews:
		return len(c.TreatmentOverviews) > 0
	case FieldWhyChoose:
		return len(c.WhyChoose) > 0
	case FieldTestimonials:
		return len(c.Testimonials) > 0
	case FieldLocations:
		return len(c.Locations) > 0
	case FieldContact:
		return strings.TrimSpace(c.Contact) != ""
	case FieldCTA:
		return strings.TrimSpace(c.CTA) != ""
	}
	return false
}

func rawPopulated(raw json.RawMessage) bool {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text) != ""
	}
	var seq []json.RawMessage
	if err := json.Unmarshal(raw, &seq); err == nil {
		return len(seq) > 0
	}
	return false
}

// MissingFields returns the entries of required that are not populated.
func (c *GeneratedContent) MissingFields(required []string) []string {
	var missing []string
	for _, field := range required {
		if !c.Populated(field) {
			missing = append(missing, field)
		}
	}
	return missing
}

// Clone returns a deep copy.
func (c *GeneratedContent) Clone() *GeneratedContent {
	if c == nil {
		return nil
	}
	out := *c
	out.Symptoms = append([]string(nil), c.Symptoms...)
	out.Treatments = append([]string(nil), c.Treatments...)
	out.ComparisonTable = copyRows(c.ComparisonTable)
	out.TreatmentOverviews = append([]TreatmentOverview(nil), c.TreatmentOverviews...)
	out.WhyChoose = append([]string(nil), c.WhyChoose...)
	out.Testimonials = append([]Testimonial(nil), c.Testimonials...)
	out.Locations = append([]PracticeLocation(nil), c.Locations...)
	if c.fields != nil {
		out.fields = make(map[string]json.RawMessage, len(c.fields))
		for key, raw := range c.fields {
			out.fields[key] = raw
		}
	}
	return &out
}

func copyRows(rows []ComparisonRow) []ComparisonRow {
	if rows == nil {
		return nil
	}
	out := make([]ComparisonRow, len(rows))
	for i, row := range rows {
		out[i] = append(ComparisonRow(nil), row...)
	}
	return out
}

// ChatbotColors are the display colors of the landing page's chatbot widget.
type ChatbotColors struct {
	Primary    string `json:"primary"`
	Background string `json:"background"`
	Text       string `json:"text"`
}

// DefaultChatbotColors is used when a record carries no colors.
var DefaultChatbotColors = ChatbotColors{
	Primary:    "#2563eb",
	Background: "#ffffff",
	Text:       "#111827",
}

// IsZero reports whether no color is set.
func (c ChatbotColors) IsZero() bool {
	return c == ChatbotColors{}
}

// OrDefault returns c, or DefaultChatbotColors when c is empty.
func (c ChatbotColors) OrDefault() ChatbotColors {
	if c.IsZero() {
		return DefaultChatbotColors
	}
	return c
}

// LandingContent is the persisted landing-page record. At most one canonical
// record exists per (DoctorID, QuizType) once duplicates are compacted.
type LandingContent struct {
	ID        string         `json:"id" db:"id"`
	DoctorID  string         `json:"doctor_id" db:"doctor_id"`
	QuizType  quiz.Type      `json:"quiz_type" db:"quiz_type"`
	Payload   ContentPayload `json:"content" db:"content"`
	Colors    ChatbotColors  `json:"chatbot_colors" db:"chatbot_colors"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time     `json:"updated_at,omitempty" db:"updated_at"`
}

// LastModified returns UpdatedAt, falling back to CreatedAt when the record
// was never updated.
func (l *LandingContent) LastModified() time.Time {
	if l.UpdatedAt != nil && !l.UpdatedAt.IsZero() {
		return *l.UpdatedAt
	}
	return l.CreatedAt
}

// NewerThan orders records for duplicate reconciliation: later LastModified
// first, then later CreatedAt, then the larger ID so the choice is stable.
func (l *LandingContent) NewerThan(other *LandingContent) bool {
	lm, om := l.LastModified(), other.LastModified()
	if !lm.Equal(om) {
		return lm.After(om)
	}
	if !l.CreatedAt.Equal(other.CreatedAt) {
		return l.CreatedAt.After(other.CreatedAt)
	}
	return l.ID > other.ID
}

// Clone returns a deep copy.
func (l *LandingContent) Clone() *LandingContent {
	if l == nil {
		return nil
	}
	out := *l
	out.Payload.Content = l.Payload.Content.Clone()
	if l.Payload.Failure != nil {
		failure := *l.Payload.Failure
		out.Payload.Failure = &failure
	}
	if l.UpdatedAt != nil {
		updated := *l.UpdatedAt
		out.UpdatedAt = &updated
	}
	return &out
}
