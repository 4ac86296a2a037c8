package catalog

import (
	"strconv"
	"strings"
)

// Selector is the browsing state that drives the displayed list. Category is
// a taxonomy id or one of ViewFeatured, ViewSaved, ViewSearch.
type Selector struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	SearchQuery string `json:"searchQuery,omitempty"`
}

// DefaultSelector is the landing view.
func DefaultSelector() Selector {
	return Selector{Category: ViewFeatured}
}

// Subcategory is a parsed subcategory selector.
type Subcategory struct {
	GradeBand       string
	DurationMinutes int
	HasDuration     bool
}

// ParseSubcategory splits a selector such as "grades-3-4-5min" into its grade
// band and duration. Mindfulness selectors and known grade bands are taken
// as-is. Otherwise the text before the last hyphen is the grade band, and a
// suffix that is not a positive "<N>min" is dropped so filtering degrades to
// grade band only.
func ParseSubcategory(category, raw string) Subcategory {
	if category == CategoryMindfulness || IsGradeBand(raw) {
		return Subcategory{GradeBand: raw}
	}

	idx := strings.LastIndex(raw, "-")
	if idx <= 0 {
		return Subcategory{GradeBand: raw}
	}

	minutes, ok := parseMinutes(raw[idx+1:])
	if !ok {
		return Subcategory{GradeBand: raw[:idx]}
	}

	return Subcategory{
		GradeBand:       raw[:idx],
		DurationMinutes: minutes,
		HasDuration:     true,
	}
}

// ComposeSubcategory builds the selector string for a grade band and duration.
// Mindfulness and a zero duration yield the bare grade band.
func ComposeSubcategory(category, gradeBand string, minutes int) string {
	if category == CategoryMindfulness || minutes <= 0 {
		return gradeBand
	}
	return gradeBand + "-" + strconv.Itoa(minutes) + "min"
}

func parseMinutes(suffix string) (int, bool) {
	digits, found := strings.CutSuffix(suffix, "min")
	if !found || digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
