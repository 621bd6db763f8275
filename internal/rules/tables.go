// Package rules holds the ordered keyword tables that drive classification
// and the classifier itself. Tables are plain data loaded from YAML so rule
// sets can be versioned and swapped in tests; the defaults are embedded in
// the binary.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/hurricane-triage/internal/domain"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// CategoryRule pairs a category with its pattern set. Rule order in the table
// decides precedence: the first category with any match wins.
type CategoryRule struct {
	Category domain.Category
	Patterns []*regexp.Regexp
}

// ActionTypeRule pairs an action-type label with its pattern set.
type ActionTypeRule struct {
	Label    string
	Patterns []*regexp.Regexp
}

// Table is an immutable, ordered set of classification rules. All patterns
// are matched against lowercased text, so patterns must be written lowercase.
type Table struct {
	ActionKeywords []*regexp.Regexp
	Categories     []CategoryRule
	UrgencyHigh    []*regexp.Regexp
	UrgencyMedium  []*regexp.Regexp
	ActionTypes    []ActionTypeRule

	// City names per county, matched as plain substrings.
	BrowardCities   []string
	MiamiDadeCities []string
}

// rulesFile mirrors the YAML layout.
type rulesFile struct {
	ActionKeywords []string `yaml:"action_keywords"`
	Categories     []struct {
		Category string   `yaml:"category"`
		Patterns []string `yaml:"patterns"`
	} `yaml:"categories"`
	Urgency struct {
		High   []string `yaml:"high"`
		Medium []string `yaml:"medium"`
	} `yaml:"urgency"`
	ActionTypes []struct {
		Label    string   `yaml:"label"`
		Patterns []string `yaml:"patterns"`
	} `yaml:"action_types"`
	Locations struct {
		Broward   []string `yaml:"broward"`
		MiamiDade []string `yaml:"miami_dade"`
	} `yaml:"locations"`
}

var validCategories = map[domain.Category]bool{
	domain.CategoryShelter:        true,
	domain.CategoryMedical:        true,
	domain.CategoryFoodWater:      true,
	domain.CategoryUtilities:      true,
	domain.CategoryTransportation: true,
}

// Default returns the embedded rule tables. The embedded file is validated at
// test time, so a parse failure here is a build defect.
func Default() (*Table, error) {
	return Parse(defaultRulesYAML)
}

// LoadFile reads rule tables from a YAML file, for deployments that override
// the embedded defaults.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and compiles a YAML rule document, preserving list order.
func Parse(data []byte) (*Table, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	t := &Table{
		BrowardCities:   f.Locations.Broward,
		MiamiDadeCities: f.Locations.MiamiDade,
	}

	var err error
	if t.ActionKeywords, err = compileAll(f.ActionKeywords); err != nil {
		return nil, fmt.Errorf("action_keywords: %w", err)
	}
	if t.UrgencyHigh, err = compileAll(f.Urgency.High); err != nil {
		return nil, fmt.Errorf("urgency.high: %w", err)
	}
	if t.UrgencyMedium, err = compileAll(f.Urgency.Medium); err != nil {
		return nil, fmt.Errorf("urgency.medium: %w", err)
	}

	for _, c := range f.Categories {
		cat := domain.Category(c.Category)
		if !validCategories[cat] {
			return nil, fmt.Errorf("unknown category %q", c.Category)
		}
		patterns, err := compileAll(c.Patterns)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", c.Category, err)
		}
		t.Categories = append(t.Categories, CategoryRule{Category: cat, Patterns: patterns})
	}

	for _, a := range f.ActionTypes {
		if a.Label == "" {
			return nil, fmt.Errorf("action type with empty label")
		}
		patterns, err := compileAll(a.Patterns)
		if err != nil {
			return nil, fmt.Errorf("action type %s: %w", a.Label, err)
		}
		t.ActionTypes = append(t.ActionTypes, ActionTypeRule{Label: a.Label, Patterns: patterns})
	}

	return t, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}
