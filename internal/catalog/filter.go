package catalog

import (
	"math"

	"github.com/wellness-in-schools/video-library/internal/db/models"
)

const (
	// DurationToleranceMinutes is how far a video's length may sit from the
	// requested bucket and still match.
	DurationToleranceMinutes = 1.0

	// UnknownDurationMinutes is the bucket assumed for videos with no length.
	// TODO: confirm with product whether untimed videos should match no bucket instead.
	UnknownDurationMinutes = 5
)

// Filter narrows videos to those matching the subcategory selector for
// category, preserving input order. An empty selector returns videos as-is.
func Filter(videos []*models.Video, category, selector string) []*models.Video {
	if selector == "" {
		return videos
	}
	return FilterAny(videos, category, []string{selector})
}

// FilterAny keeps videos matching at least one of the selectors, preserving
// input order. No selectors returns videos as-is.
func FilterAny(videos []*models.Video, category string, selectors []string) []*models.Video {
	if len(selectors) == 0 {
		return videos
	}

	parsed := make([]Subcategory, 0, len(selectors))
	for _, s := range selectors {
		if s != "" {
			parsed = append(parsed, ParseSubcategory(category, s))
		}
	}
	if len(parsed) == 0 {
		return videos
	}

	out := make([]*models.Video, 0, len(videos))
	for _, v := range videos {
		for _, sel := range parsed {
			if sel.Matches(v) {
				out = append(out, v)
				break
			}
		}
	}
	return out
}

// Matches reports whether v carries the grade band and, when the selector has
// one, falls within the duration tolerance.
func (s Subcategory) Matches(v *models.Video) bool {
	if !v.Subcategory.Contains(s.GradeBand) {
		return false
	}
	if !s.HasDuration {
		return true
	}
	return matchesDuration(v.DurationSeconds, s.DurationMinutes)
}

func matchesDuration(seconds *int, minutes int) bool {
	if seconds == nil {
		return minutes == UnknownDurationMinutes
	}
	return math.Abs(float64(*seconds)/60-float64(minutes)) <= DurationToleranceMinutes
}
