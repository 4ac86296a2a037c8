// Package client is a typed client for the video library HTTP API.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/wellness-in-schools/video-library/internal/catalog"
	dbmodels "github.com/wellness-in-schools/video-library/internal/db/models"
	"github.com/wellness-in-schools/video-library/internal/models"
	"github.com/wellness-in-schools/video-library/internal/retry"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
	userAgent      = "wellness-video-library-client/1.0"
)

// APIError is a non-2xx answer from the API.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type APIError struct {
	Status     int
	Message    string
	Fields     []models.FieldErrorDTO
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsThrottled reports whether err is a 429 or 503 answer, the statuses reads
// are retried on.
func IsThrottled(err error) bool {
	return IsStatus(err, http.StatusTooManyRequests) || IsStatus(err, http.StatusServiceUnavailable)
}

// Client talks to the API. It is safe for concurrent use once configured.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	policy     retry.Policy
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends token as the bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default 10s-timeout client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryPolicy replaces the read retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// New creates a Client for the API rooted at baseURL, e.g.
// "http://localhost:8080/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		policy:     retry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Categories lists the fixed taxonomy.
func (c *Client) Categories(ctx context.Context) ([]catalog.Category, error) {
	var out []catalog.Category
	return out, c.read(ctx, "/videos/categories", &out)
}

// ListByCategory lists a category, narrowed by any of the given selectors.
func (c *Client) ListByCategory(ctx context.Context, category string, selectors ...string) ([]*dbmodels.Video, error) {
	path := "/videos/category/" + url.PathEscape(category)
	if len(selectors) > 0 {
		q := url.Values{}
		for _, s := range selectors {
			q.Add("subcategory", s)
		}
		path += "?" + q.Encode()
	}
	return c.videos(ctx, path)
}

// ListFeatured lists the featured videos.
func (c *Client) ListFeatured(ctx context.Context) ([]*dbmodels.Video, error) {
	return c.videos(ctx, "/videos/featured")
}

// ListBySubcategories lists videos tagged with any of bands.
func (c *Client) ListBySubcategories(ctx context.Context, bands []string) ([]*dbmodels.Video, error) {
	return c.videos(ctx, "/videos/subcategory/"+url.PathEscape(strings.Join(bands, ",")))
}

// Search finds videos by title, description, instructor or tag.
func (c *Client) Search(ctx context.Context, query string) ([]*dbmodels.Video, error) {
	if strings.TrimSpace(query) == "" {
		return []*dbmodels.Video{}, nil
	}
	return c.videos(ctx, "/videos/search/"+url.PathEscape(query))
}

// ListSaved lists the caller's saved videos.
func (c *Client) ListSaved(ctx context.Context) ([]*dbmodels.Video, error) {
	return c.videos(ctx, "/users/saved-videos")
}

// GetVideo fetches one video.
func (c *Client) GetVideo(ctx context.Context, id uuid.UUID) (*dbmodels.Video, error) {
	var out dbmodels.Video
	if err := c.read(ctx, "/videos/"+id.String(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Leaderboard returns the top limit users; limit <= 0 uses the server default.
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]dbmodels.LeaderboardEntry, error) {
	path := "/videos/leaderboard/top"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []dbmodels.LeaderboardEntry
	return out, c.read(ctx, path, &out)
}

// TrackView records a view by the caller. It is never retried.
func (c *Client) TrackView(ctx context.Context, videoID uuid.UUID) (*models.ViewResponse, error) {
	var out models.ViewResponse
	if err := c.do(ctx, http.MethodPost, "/videos/"+videoID.String()+"/view", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveVideo adds a video to the caller's saved list.
func (c *Client) SaveVideo(ctx context.Context, videoID uuid.UUID) error {
	return c.do(ctx, http.MethodPost, "/users/saved-videos/"+videoID.String(), nil, nil)
}

// UnsaveVideo removes a video from the caller's saved list.
func (c *Client) UnsaveVideo(ctx context.Context, videoID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/users/saved-videos/"+videoID.String(), nil, nil)
}

// VerifySitePassword checks the site gate password. A wrong password is not
// an error.
func (c *Client) VerifySitePassword(ctx context.Context, password string) (bool, error) {
	var out models.VerifyResponse
	err := c.do(ctx, http.MethodPost, "/site-settings/verify-password", models.PasswordRequest{Password: password}, &out)
	if IsStatus(err, http.StatusUnauthorized) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return out.Verified, nil
}

func (c *Client) videos(ctx context.Context, path string) ([]*dbmodels.Video, error) {
	var out []*dbmodels.Video
	if err := c.read(ctx, path, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []*dbmodels.Video{}
	}
	return out, nil
}

// read is an idempotent GET, retried while the API is throttling.
func (c *Client) read(ctx context.Context, path string, out any) error {
	return retry.Do(ctx, c.policy, IsThrottled, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, path, nil, out)
	})
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp, b)
	}
	if out == nil || len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode response: %w body=%q", err, string(b[:min(len(b), 200)]))
	}
	return nil
}

func decodeError(resp *http.Response, body []byte) error {
	apiErr := &APIError{Status: resp.StatusCode}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		apiErr.RetryAfter = time.Duration(secs) * time.Second
	}

	var envelope models.ErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		apiErr.Message = envelope.Message
		apiErr.Fields = envelope.Errors
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body[:min(len(body), 200)]))
	return apiErr
}
