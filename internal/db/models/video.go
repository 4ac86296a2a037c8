package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Subcategories is the set of grade bands a video is tagged with.
// Older records stored a single band as a bare string; UnmarshalJSON accepts
// both shapes so callers always see a list.
type Subcategories []string

// UnmarshalJSON accepts `"grades-3-4"`, `["grades-3-4"]` and `null`.
func (s *Subcategories) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*s = Subcategories{}
			return nil
		}
		*s = Subcategories{single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("subcategory must be a string or a list of strings: %w", err)
	}
	*s = Subcategories(list)
	return nil
}

// Contains reports whether band is one of the tagged grade bands.
func (s Subcategories) Contains(band string) bool {
	return slices.Contains(s, band)
}

// Video is a catalog entry pointing at an externally hosted file.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Video struct {
	ID                 uuid.UUID     `json:"id"`
	Title              string        `json:"title"`
	Description        string        `json:"description"`
	Category           string        `json:"category"`
	Subcategory        Subcategories `json:"subcategory"`
	ExternalContentID  string        `json:"externalContentId"`
	ExternalContentURL string        `json:"externalContentUrl"`
	ThumbnailURL       *string       `json:"thumbnailUrl,omitempty"`
	DurationSeconds    *int          `json:"durationSeconds,omitempty"`
	Instructor         string        `json:"instructor"`
	AgeGroup           string        `json:"ageGroup"`
	Tags               []string      `json:"tags"`
	ViewCount          int64         `json:"viewCount"`
	Featured           bool          `json:"featured"`
	Order              int           `json:"order"`
	IsActive           bool          `json:"isActive"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// DefaultAgeGroup is applied when a video is saved without one.
const DefaultAgeGroup = "all"

// NewVideo creates an active video with a fresh id and timestamps.
func NewVideo(title, category, externalContentID, externalContentURL string) *Video {
	now := time.Now()
	return &Video{
		ID:                 uuid.New(),
		Title:              title,
		Category:           category,
		ExternalContentID:  externalContentID,
		ExternalContentURL: externalContentURL,
		AgeGroup:           DefaultAgeGroup,
		Subcategory:        Subcategories{},
		Tags:               []string{},
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}
