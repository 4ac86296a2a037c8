// Package navigation remembers where a browsing session was before it opened
// a video, and replays that view when the session comes back.
package navigation

import (
	"context"

	"go.uber.org/zap"

	"github.com/wellness-in-schools/video-library/internal/catalog"
	"github.com/wellness-in-schools/video-library/internal/db/models"
	"github.com/wellness-in-schools/video-library/pkg/logger"
)

// Catalog is the read side of the API a browsing session needs.
// *client.Client satisfies it.
type Catalog interface {
	ListFeatured(ctx context.Context) ([]*models.Video, error)
	ListByCategory(ctx context.Context, category string, selectors ...string) ([]*models.Video, error)
	ListSaved(ctx context.Context) ([]*models.Video, error)
	Search(ctx context.Context, query string) ([]*models.Video, error)
}

// State of the snapshot slot.
type State int

const (
	Idle State = iota
	Snapshotted
)

func (s State) String() string {
	if s == Snapshotted {
		return "snapshotted"
	}
	return "idle"
}

// Restored is the outcome of replaying a snapshot.
type Restored struct {
	Selector catalog.Selector
	Videos   []*models.Video
	// FellBack is set when the featured list was served instead of the
	// snapshot's own view.
	FellBack bool
}

// Machine holds at most one snapshot. It belongs to a single browsing session
// and is not safe for concurrent use.
type Machine struct {
	catalog  Catalog
	snapshot *catalog.Selector
}

// NewMachine returns an idle Machine reading from c.
func NewMachine(c Catalog) *Machine {
	return &Machine{catalog: c}
}

// State reports whether a snapshot is held.
func (m *Machine) State() State {
	if m.snapshot == nil {
		return Idle
	}
	return Snapshotted
}

// SaveSnapshot captures sel, replacing any snapshot not yet consumed.
func (m *Machine) SaveSnapshot(sel catalog.Selector) {
	m.snapshot = &sel
}

// Snapshot returns the held selector.
func (m *Machine) Snapshot() (catalog.Selector, bool) {
	if m.snapshot == nil {
		return catalog.Selector{}, false
	}
	return *m.snapshot, true
}

// Restore computes the list for the held snapshot and leaves it in place.
// With no snapshot, or when the replay fails, the featured list is returned.
// An error is only returned if the featured list cannot be read either.
func (m *Machine) Restore(ctx context.Context) (Restored, error) {
	if m.snapshot == nil {
		return m.featured(ctx)
	}

	sel := *m.snapshot
	videos, err := Resolve(ctx, m.catalog, sel)
	if err != nil {
		if ctx.Err() != nil {
			return Restored{}, ctx.Err()
		}
		logger.L().Warn("failed to replay navigation snapshot, showing featured",
			zap.String("category", sel.Category),
			zap.String("subcategory", sel.Subcategory),
			zap.String("searchQuery", sel.SearchQuery),
			zap.Error(err),
		)
		return m.featured(ctx)
	}
	return Restored{Selector: sel, Videos: videos}, nil
}

// Consume discards the snapshot. Call it once the caller has finished reading
// the snapshot's fields.
func (m *Machine) Consume() {
	m.snapshot = nil
}

func (m *Machine) featured(ctx context.Context) (Restored, error) {
	videos, err := m.catalog.ListFeatured(ctx)
	if err != nil {
		return Restored{}, err
	}
	return Restored{Selector: catalog.DefaultSelector(), Videos: videos, FellBack: true}, nil
}

// Resolve fetches the list a selector shows. The first applicable rule wins:
// a search query, then a subcategory within a taxonomy category, then the
// saved and featured views, then a bare category. Anything else is featured.
func Resolve(ctx context.Context, c Catalog, sel catalog.Selector) ([]*models.Video, error) {
	switch {
	case sel.SearchQuery != "":
		return c.Search(ctx, sel.SearchQuery)
	case sel.Subcategory != "" && catalog.IsCategory(sel.Category):
		return c.ListByCategory(ctx, sel.Category, sel.Subcategory)
	case sel.Category == catalog.ViewSaved:
		return c.ListSaved(ctx)
	case sel.Category == catalog.ViewFeatured:
		return c.ListFeatured(ctx)
	case catalog.IsCategory(sel.Category):
		return c.ListByCategory(ctx, sel.Category)
	default:
		return c.ListFeatured(ctx)
	}
}
