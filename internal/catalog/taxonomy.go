// Package catalog holds the video taxonomy and the pure filtering rules that
// narrow a category listing to a grade band and duration.
package catalog

import "slices"

// Category ids.
const (
	CategoryWorkoutSports = "workout-sports"
	CategoryDanceMove     = "dance-move"
	CategoryYoga          = "yoga"
	CategoryMindfulness   = "mindfulness"
)

// Pseudo-categories a browsing selector can hold besides a taxonomy id.
const (
	ViewFeatured = "featured"
	ViewSaved    = "saved"
	ViewSearch   = "search"
)

// Category is one top-level taxonomy bucket.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Categories is the fixed taxonomy in display order.
var Categories = []Category{
	{ID: CategoryWorkoutSports, Name: "Workout & Sports", Color: "#28b6ea"},
	{ID: CategoryDanceMove, Name: "Dance & Move", Color: "#8cc63e"},
	{ID: CategoryYoga, Name: "Yoga", Color: "#f7981e"},
	{ID: CategoryMindfulness, Name: "Mindfulness", Color: "#8cc63e"},
}

// GradeBands are the subcategory tags a video can carry.
var GradeBands = []string{"pre-k-2", "grades-3-4", "grades-5-8", "high-school"}

// StandardDurations are the allowed video lengths in seconds.
var StandardDurations = []int{300, 600, 900, 1200}

// AgeGroups are the allowed audience labels.
var AgeGroups = []string{"pre-school", "elementary", "middle", "high", "all"}

// IsCategory reports whether id is a taxonomy category.
func IsCategory(id string) bool {
	return slices.ContainsFunc(Categories, func(c Category) bool { return c.ID == id })
}

// IsGradeBand reports whether band is a known subcategory tag.
func IsGradeBand(band string) bool {
	return slices.Contains(GradeBands, band)
}

// IsAgeGroup reports whether group is a known audience label.
func IsAgeGroup(group string) bool {
	return slices.Contains(AgeGroups, group)
}

// IsStandardDuration reports whether seconds is one of the standard lengths.
func IsStandardDuration(seconds int) bool {
	return slices.Contains(StandardDurations, seconds)
}
