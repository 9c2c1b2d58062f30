// Package quiz holds the catalog of symptom-assessment questionnaires that
// landing pages are generated for.
package quiz

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtinCatalog []byte

// Type is a quiz-type tag such as NOSE or TNSS.
type Type string

const (
	TypeNOSE   Type = "NOSE"
	TypeSNOT12 Type = "SNOT-12"
	TypeSNOT22 Type = "SNOT-22"
	TypeTNSS   Type = "TNSS"
)

// Definition describes one questionnaire.
type Definition struct {
	Type           Type     `yaml:"type"`
	Aliases        []string `yaml:"aliases"`
	DisplayName    string   `yaml:"display_name"`
	Condition      string   `yaml:"condition"`
	Description    string   `yaml:"description"`
	RequiredFields []string `yaml:"required_fields"`
}

// Catalog resolves quiz tags (and their aliases) to definitions.
type Catalog struct {
	byKey map[string]*Definition
	order []Type
}

type catalogFile struct {
	Quizzes []Definition `yaml:"quizzes"`
}

// Builtin returns the catalog embedded in the binary.
func Builtin() *Catalog {
	c, err := Parse(builtinCatalog)
	if err != nil {
		panic(fmt.Sprintf("quiz: invalid builtin catalog: %v", err))
	}
	return c
}

// Parse reads a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse quiz catalog: %w", err)
	}

	c := &Catalog{byKey: make(map[string]*Definition)}
	for i := range file.Quizzes {
		def := &file.Quizzes[i]
		if def.Type == "" {
			return nil, fmt.Errorf("quiz catalog entry %d has no type", i)
		}
		keys := append([]string{string(def.Type)}, def.Aliases...)
		for _, key := range keys {
			norm := normalize(key)
			if existing, ok := c.byKey[norm]; ok && existing.Type != def.Type {
				return nil, fmt.Errorf("quiz key %q maps to both %s and %s", key, existing.Type, def.Type)
			}
			c.byKey[norm] = def
		}
		c.order = append(c.order, def.Type)
	}
	return c, nil
}

// Lookup resolves a tag or alias, case-insensitively.
func (c *Catalog) Lookup(tag string) (*Definition, bool) {
	def, ok := c.byKey[normalize(tag)]
	return def, ok
}

// Types lists the canonical tags in catalog order.
func (c *Catalog) Types() []Type {
	out := make([]Type, len(c.order))
	copy(out, c.order)
	return out
}

// RequiredFields returns the fields that must be populated for stored content
// of this quiz type to be served without regeneration. Unknown types require
// nothing.
func (c *Catalog) RequiredFields(t Type) []string {
	def, ok := c.Lookup(string(t))
	if !ok {
		return nil
	}
	return def.RequiredFields
}

func normalize(tag string) string {
	return strings.ToUpper(strings.TrimSpace(tag))
}
