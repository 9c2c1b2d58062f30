package entities

import (
	"fmt"
	"strings"
)

// SectionKind is the shape of an editable section's working value.
type SectionKind string

const (
	SectionKindText         SectionKind = "text"
	SectionKindMultiline    SectionKind = "multiline"
	SectionKindTable        SectionKind = "table"
	SectionKindTestimonials SectionKind = "testimonials"
	SectionKindLocations    SectionKind = "locations"
)

// treatmentOverviewPrefix addresses one overview: "treatmentOverviews.<name>".
const treatmentOverviewPrefix = FieldTreatmentOverviews + "."

// EditableSection is the edit buffer for one section of a landing page. It
// lives only between "edit" and "save"/"cancel"; saving writes the whole
// document back, not just this section.
type EditableSection struct {
	Key          string             `json:"key"`
	Kind         SectionKind        `json:"kind"`
	Text         string             `json:"text,omitempty"`
	Table        []ComparisonRow    `json:"table,omitempty"`
	Testimonials []Testimonial      `json:"testimonials,omitempty"`
	Locations    []PracticeLocation `json:"locations,omitempty"`
}

// SectionKindFor returns the kind of the section addressed by key.
func SectionKindFor(key string) (SectionKind, error) {
	switch key {
	case FieldHeadline, FieldCTA:
		return SectionKindText, nil
	case FieldIntro, FieldWhatIs, FieldCauses, FieldContact,
		FieldSymptoms, FieldTreatments, FieldWhyChoose:
		return SectionKindMultiline, nil
	case FieldComparisonTable:
		return SectionKindTable, nil
	case FieldTestimonials:
		return SectionKindTestimonials, nil
	case FieldLocations:
		return SectionKindLocations, nil
	}
	if name, ok := strings.CutPrefix(key, treatmentOverviewPrefix); ok && strings.TrimSpace(name) != "" {
		return SectionKindMultiline, nil
	}
	return "", fmt.Errorf("unknown section %q", key)
}

// BeginEdit copies the current value of the section into a new buffer.
func (c *GeneratedContent) BeginEdit(key string) (*EditableSection, error) {
	kind, err := SectionKindFor(key)
	if err != nil {
		return nil, err
	}

	section := &EditableSection{Key: key, Kind: kind}
	switch key {
	case FieldHeadline:
		section.Text = c.Headline
	case FieldCTA:
		section.Text = c.CTA
	case FieldIntro:
		section.Text = c.Intro
	case FieldWhatIs:
		section.Text = c.WhatIs
	case FieldCauses:
		section.Text = c.Causes
	case FieldContact:
		section.Text = c.Contact
	case FieldSymptoms:
		section.Text = strings.Join(c.Symptoms, "\n")
	case FieldTreatments:
		section.Text = strings.Join(c.Treatments, "\n")
	case FieldWhyChoose:
		section.Text = strings.Join(c.WhyChoose, "\n")
	case FieldComparisonTable:
		section.Table = copyRows(c.ComparisonTable)
	case FieldTestimonials:
		section.Testimonials = append([]Testimonial(nil), c.Testimonials...)
	case FieldLocations:
		section.Locations = append([]PracticeLocation(nil), c.Locations...)
	default:
		name := strings.TrimPrefix(key, treatmentOverviewPrefix)
		for _, o := range c.TreatmentOverviews {
			if o.Name == name {
				section.Text = o.Overview
				break
			}
		}
	}
	return section, nil
}

// ApplyEdit writes the buffer back into the document.
func (c *GeneratedContent) ApplyEdit(section *EditableSection) error {
	if section == nil {
		return fmt.Errorf("section is required")
	}
	kind, err := SectionKindFor(section.Key)
	if err != nil {
		return err
	}
	if section.Kind != "" && section.Kind != kind {
		return fmt.Errorf("section %q is %s, not %s", section.Key, kind, section.Kind)
	}

	switch section.Key {
	case FieldHeadline:
		c.Headline = strings.TrimSpace(section.Text)
	case FieldCTA:
		c.CTA = strings.TrimSpace(section.Text)
	case FieldIntro:
		c.Intro = section.Text
	case FieldWhatIs:
		c.WhatIs = section.Text
	case FieldCauses:
		c.Causes = section.Text
	case FieldContact:
		c.Contact = section.Text
	case FieldSymptoms:
		c.Symptoms = splitLines(section.Text)
	case FieldTreatments:
		c.Treatments = splitLines(section.Text)
	case FieldWhyChoose:
		c.WhyChoose = splitLines(section.Text)
	case FieldComparisonTable:
		c.ComparisonTable = copyRows(section.Table)
	case FieldTestimonials:
		c.Testimonials = append([]Testimonial(nil), section.Testimonials...)
	case FieldLocations:
		c.Locations = append([]PracticeLocation(nil), section.Locations...)
	default:
		c.setTreatmentOverview(strings.TrimPrefix(section.Key, treatmentOverviewPrefix), section.Text)
		c.forget(FieldTreatmentOverviews)
		return nil
	}
	c.forget(section.Key)
	return nil
}

func (c *GeneratedContent) setTreatmentOverview(name, overview string) {
	for i := range c.TreatmentOverviews {
		if c.TreatmentOverviews[i].Name == name {
			c.TreatmentOverviews[i].Overview = overview
			return
		}
	}
	c.TreatmentOverviews = append(c.TreatmentOverviews, TreatmentOverview{Name: name, Overview: overview})
}

func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
