package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wellness-in-schools/video-library/internal/catalog"
	"github.com/wellness-in-schools/video-library/internal/db"
	"github.com/wellness-in-schools/video-library/internal/db/models"
	"github.com/wellness-in-schools/video-library/internal/db/repository"
	"github.com/wellness-in-schools/video-library/internal/validation"
	"github.com/wellness-in-schools/video-library/pkg/logger"
)

// Content id patterns, tried in order.
var contentIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/d/([a-zA-Z0-9-_]+)`),
	regexp.MustCompile(`id=([a-zA-Z0-9-_]+)`),
	regexp.MustCompile(`file/d/([a-zA-Z0-9-_]+)`),
}

// ExtractContentID pulls the hosted file id out of a pasted share URL. When
// no pattern matches, the trimmed input is returned unchanged with
// matched=false.
func ExtractContentID(rawURL string) (id string, matched bool) {
	rawURL = strings.TrimSpace(rawURL)
	for _, re := range contentIDPatterns {
		if m := re.FindStringSubmatch(rawURL); len(m) == 2 {
			return m[1], true
		}
	}
	return rawURL, false
}

// ParseTags splits a comma separated list, trimming entries and dropping
// blanks and repeats while keeping first-seen order.
func ParseTags(raw string) []string {
	tags := []string{}
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// VideoDraft is an admin's create or edit submission.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type VideoDraft struct {
	Title              string
	Description        string
	Category           string
	Subcategory        []string
	ExternalContentURL string
	DurationSeconds    *int
	Instructor         string
	AgeGroup           string
	Tags               string
	Featured           bool
	Order              int
	ThumbnailURL       *string
	IsActive           *bool
}

// Editor validates and persists admin changes to the catalog.
type Editor struct {
	videos     repository.VideoRepository
	thumbnails ThumbnailStore
	validator  *validation.Validator
	onChange   func()
	strict     bool
}

// NewEditor creates an Editor. onChange runs after every successful write so
// read caches can be dropped. In strict mode a URL without a recognisable
// content id is rejected instead of being stored as-is.
func NewEditor(videos repository.VideoRepository, thumbnails ThumbnailStore, validator *validation.Validator, onChange func(), strict bool) *Editor {
	if onChange == nil {
		onChange = func() {}
	}
	return &Editor{
		videos:     videos,
		thumbnails: thumbnails,
		validator:  validator,
		onChange:   onChange,
		strict:     strict,
	}
}

// ValidateSubmission checks draft and returns the normalised fields ready to
// persist. Every failed field is reported, not just the first.
func (e *Editor) ValidateSubmission(draft *VideoDraft) (*models.Video, error) {
	verr := &ValidationError{}

	title := strings.TrimSpace(draft.Title)
	if err := e.validator.ValidateRequiredText("title", title); err != nil {
		verr.add("title", err.Error())
	}

	if !catalog.IsCategory(draft.Category) {
		verr.add("category", "category must be one of workout-sports, dance-move, yoga, mindfulness")
	}

	bands := make(models.Subcategories, 0, len(draft.Subcategory))
	unknownBand := false
	for _, b := range draft.Subcategory {
		b = strings.TrimSpace(b)
		if b == "" || bands.Contains(b) {
			continue
		}
		if !catalog.IsGradeBand(b) {
			verr.add("subcategory", "unknown grade band "+b)
			unknownBand = true
			continue
		}
		bands = append(bands, b)
	}
	if len(bands) == 0 && !unknownBand {
		verr.add("subcategory", "select at least one grade band")
	}

	contentURL := strings.TrimSpace(draft.ExternalContentURL)
	var contentID string
	if contentURL == "" {
		verr.add("externalContentUrl", "video URL is required")
	} else {
		id, matched := ExtractContentID(contentURL)
		switch {
		case id == "":
			verr.add("externalContentUrl", "could not extract a content id from the URL")
		case !matched && e.strict:
			verr.add("externalContentUrl", "URL is not a recognised share link")
		case !matched:
			logger.L().Warn("Content id not recognised, storing URL as id", zap.String("url", contentURL))
		}
		contentID = id
	}

	if draft.DurationSeconds != nil && !catalog.IsStandardDuration(*draft.DurationSeconds) {
		verr.add("durationSeconds", "duration must be one of 300, 600, 900, 1200 seconds")
	}

	ageGroup := strings.TrimSpace(draft.AgeGroup)
	if ageGroup == "" {
		ageGroup = models.DefaultAgeGroup
	} else if !catalog.IsAgeGroup(ageGroup) {
		verr.add("ageGroup", "age group must be one of pre-school, elementary, middle, high, all")
	}

	if draft.ThumbnailURL != nil && strings.TrimSpace(*draft.ThumbnailURL) == "" {
		draft.ThumbnailURL = nil
	}

	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	video := models.NewVideo(title, draft.Category, contentID, contentURL)
	video.Description = strings.TrimSpace(draft.Description)
	video.Subcategory = bands
	video.DurationSeconds = draft.DurationSeconds
	video.Instructor = strings.TrimSpace(draft.Instructor)
	video.AgeGroup = ageGroup
	video.Tags = ParseTags(draft.Tags)
	video.Featured = draft.Featured
	video.Order = draft.Order
	video.ThumbnailURL = draft.ThumbnailURL
	if draft.IsActive != nil {
		video.IsActive = *draft.IsActive
	}
	return video, nil
}

// UploadThumbnail stores an image and returns its reference path.
func (e *Editor) UploadThumbnail(ctx context.Context, upload ThumbnailUpload) (string, error) {
	ref, err := e.thumbnails.Save(ctx, upload)
	if err != nil {
		logger.L().Warn("Thumbnail upload failed", zap.String("filename", upload.Filename), zap.Error(err))
		return "", err
	}
	return ref, nil
}

// Create validates and inserts a video. When thumbnail is set it is uploaded
// first and the submission is aborted if that fails.
func (e *Editor) Create(ctx context.Context, draft *VideoDraft, thumbnail *ThumbnailUpload) (*models.Video, error) {
	uploaded, err := e.attachThumbnail(ctx, draft, thumbnail)
	if err != nil {
		return nil, err
	}

	video, err := e.ValidateSubmission(draft)
	if err != nil {
		e.discardThumbnail(ctx, uploaded)
		return nil, err
	}

	if err := e.videos.Create(ctx, video); err != nil {
		e.discardThumbnail(ctx, uploaded)
		return nil, e.writeError(err, video.ID)
	}

	e.onChange()
	logger.L().Info("Video created",
		zap.String("videoId", video.ID.String()),
		zap.String("externalContentId", video.ExternalContentID),
	)
	return video, nil
}

// Update replaces the editable fields of an existing video. The view count
// is preserved.
func (e *Editor) Update(ctx context.Context, id uuid.UUID, draft *VideoDraft, thumbnail *ThumbnailUpload) (*models.Video, error) {
	existing, err := e.videos.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "video", id.String())
	}

	uploaded, err := e.attachThumbnail(ctx, draft, thumbnail)
	if err != nil {
		return nil, err
	}
	if draft.ThumbnailURL == nil {
		draft.ThumbnailURL = existing.ThumbnailURL
	}
	if draft.IsActive == nil {
		draft.IsActive = &existing.IsActive
	}

	video, err := e.ValidateSubmission(draft)
	if err != nil {
		e.discardThumbnail(ctx, uploaded)
		return nil, err
	}
	video.ID = existing.ID
	video.CreatedAt = existing.CreatedAt

	if err := e.videos.Update(ctx, video); err != nil {
		e.discardThumbnail(ctx, uploaded)
		return nil, e.writeError(err, id)
	}

	e.onChange()
	logger.L().Info("Video updated", zap.String("videoId", id.String()))
	return video, nil
}

// Delete hides a video from every read path. Saved references and view
// history are kept.
func (e *Editor) Delete(ctx context.Context, id uuid.UUID) error {
	if err := e.videos.SetActive(ctx, id, false); err != nil {
		return notFoundOr(err, "video", id.String())
	}
	e.onChange()
	logger.L().Info("Video deactivated", zap.String("videoId", id.String()))
	return nil
}

// List returns every video including inactive ones, newest first.
func (e *Editor) List(ctx context.Context) ([]*models.Video, error) {
	return e.videos.ListAll(ctx)
}

func (e *Editor) attachThumbnail(ctx context.Context, draft *VideoDraft, thumbnail *ThumbnailUpload) (string, error) {
	if thumbnail == nil {
		return "", nil
	}
	ref, err := e.UploadThumbnail(ctx, *thumbnail)
	if err != nil {
		return "", err
	}
	draft.ThumbnailURL = &ref
	return ref, nil
}

func (e *Editor) discardThumbnail(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := e.thumbnails.Remove(ctx, ref); err != nil {
		logger.L().Warn("Failed to remove orphaned thumbnail", zap.String("ref", ref), zap.Error(err))
	}
}

func (e *Editor) writeError(err error, id uuid.UUID) error {
	switch {
	case db.IsDuplicateKey(err):
		return &ConflictError{Message: "a video with this content id already exists"}
	case db.IsNotFound(err):
		return &NotFoundError{Resource: "video", ID: id.String()}
	default:
		logger.L().Error("Video write failed", zap.String("videoId", id.String()), zap.Error(err))
		return err
	}
}
