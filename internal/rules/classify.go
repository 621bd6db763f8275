package rules

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/couchcryptid/hurricane-triage/internal/domain"
)

// Classification is the structured output of classifying one bulletin.
// Category is empty when no category pattern matched; the caller substitutes
// its fallback. ActionType is only set for actionable bulletins. County and
// City may both be nil.
type Classification struct {
	Mode       domain.Mode
	Category   domain.Category
	Urgency    domain.Urgency
	ActionType *string
	County     *domain.County
	City       *string
}

// Classify applies the rule tables to cleaned bulletin text and the source
// authority's label. It is total: every input, including the empty string,
// yields a complete classification.
func (t *Table) Classify(text, sourceLabel string) Classification {
	lowered := strings.ToLower(text)

	c := Classification{
		Mode:     t.detectMode(lowered),
		Category: t.detectCategory(lowered),
		Urgency:  t.detectUrgency(lowered),
	}
	if c.Mode == domain.ModeAction {
		c.ActionType = t.detectActionType(lowered)
	}
	c.County, c.City = t.inferLocation(lowered, sourceLabel)
	return c
}

func (t *Table) detectMode(lowered string) domain.Mode {
	if anyMatch(t.ActionKeywords, lowered) {
		return domain.ModeAction
	}
	return domain.ModeInfo
}

func (t *Table) detectCategory(lowered string) domain.Category {
	for _, rule := range t.Categories {
		if anyMatch(rule.Patterns, lowered) {
			return rule.Category
		}
	}
	return ""
}

func (t *Table) detectUrgency(lowered string) domain.Urgency {
	if anyMatch(t.UrgencyHigh, lowered) {
		return domain.UrgencyHigh
	}
	if anyMatch(t.UrgencyMedium, lowered) {
		return domain.UrgencyMedium
	}
	return domain.UrgencyLow
}

func (t *Table) detectActionType(lowered string) *string {
	for _, rule := range t.ActionTypes {
		if anyMatch(rule.Patterns, lowered) {
			label := rule.Label
			return &label
		}
	}
	return nil
}

// inferLocation resolves county and city with a deliberate, asymmetric
// precedence that is part of the classification contract:
//
//  1. The source label's county marker is the weakest hint; a "miami" marker
//     overwrites a "broward" one when both appear.
//  2. A Broward city mention in the text always wins, overwriting any
//     source-based hint.
//  3. A Miami-Dade city mention only fills in when the county is still unset.
func (t *Table) inferLocation(lowered, sourceLabel string) (*domain.County, *string) {
	var county *domain.County
	var city *string

	loweredSource := strings.ToLower(sourceLabel)
	if strings.Contains(loweredSource, "broward") {
		county = countyPtr(domain.CountyBroward)
	}
	if strings.Contains(loweredSource, "miami") {
		county = countyPtr(domain.CountyMiamiDade)
	}

	for _, name := range t.BrowardCities {
		if strings.Contains(lowered, name) {
			county = countyPtr(domain.CountyBroward)
			titled := titleCase(name)
			city = &titled
			break
		}
	}
	if county == nil {
		for _, name := range t.MiamiDadeCities {
			if strings.Contains(lowered, name) {
				county = countyPtr(domain.CountyMiamiDade)
				titled := titleCase(name)
				city = &titled
				break
			}
		}
	}

	return county, city
}

func anyMatch(patterns []*regexp.Regexp, lowered string) bool {
	for _, re := range patterns {
		if re.MatchString(lowered) {
			return true
		}
	}
	return false
}

func countyPtr(c domain.County) *domain.County {
	return &c
}

// titleCase uppercases every letter that follows a non-letter, so hyphenated
// names come out right: "miami-dade" -> "Miami-Dade".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}
