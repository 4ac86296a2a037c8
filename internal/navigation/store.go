package navigation

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/wellness-in-schools/video-library/internal/catalog"
	"github.com/wellness-in-schools/video-library/internal/db/models"
	"github.com/wellness-in-schools/video-library/pkg/client"
)

// Messages shown when a list cannot be loaded.
const (
	MsgTooManyRequests = "Too many requests. Please wait a moment and refresh the page."
	MsgLoadFailed      = "Failed to load videos"
)

// View is what a browsing session currently shows.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type View struct {
	Selector catalog.Selector
	Videos   []*models.Video
	Loading  bool
	Err      string
	Version  uint64
}

// Action changes the selector.
type Action interface {
	apply(catalog.Selector) catalog.Selector
}

// SelectCategory switches to a category or pseudo-view and clears any
// subcategory or search.
type SelectCategory struct{ Category string }

func (a SelectCategory) apply(catalog.Selector) catalog.Selector {
	return catalog.Selector{Category: a.Category}
}

// SelectSubcategory narrows the current category. An empty value clears it.
type SelectSubcategory struct{ Subcategory string }

func (a SelectSubcategory) apply(s catalog.Selector) catalog.Selector {
	s.Subcategory = a.Subcategory
	s.SearchQuery = ""
	return s
}

// Search switches to search results. An empty query returns to featured.
type Search struct{ Query string }

func (a Search) apply(catalog.Selector) catalog.Selector {
	if a.Query == "" {
		return catalog.DefaultSelector()
	}
	return catalog.Selector{Category: catalog.ViewSearch, SearchQuery: a.Query}
}

// Replace sets the selector wholesale, e.g. from a restored snapshot.
type Replace struct{ Selector catalog.Selector }

func (a Replace) apply(catalog.Selector) catalog.Selector { return a.Selector }

// Store is the selector and list of a browsing session. Subscribers see every
// change. Safe for concurrent use.
type Store struct {
	catalog Catalog

	mu     sync.Mutex
	view   View
	nextID int
	subs   map[int]func(View)
}

// NewStore returns a Store on the featured view. Nothing is loaded until Load.
func NewStore(c Catalog) *Store {
	return &Store{
		catalog: c,
		view:    View{Selector: catalog.DefaultSelector()},
		subs:    make(map[int]func(View)),
	}
}

// View returns the current view.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Subscribe registers fn for every change and returns a func removing it.
// fn runs without the store lock held.
func (s *Store) Subscribe(fn func(View)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Dispatch applies a to the selector. It does not fetch; call Load.
func (s *Store) Dispatch(a Action) View {
	s.mu.Lock()
	s.view.Selector = a.apply(s.view.Selector)
	v := s.view
	s.mu.Unlock()

	s.notify(v)
	return v
}

// Load fetches the list for the current selector. A result that arrives after
// a newer Load started is dropped, so only the latest selector's list is ever
// shown.
func (s *Store) Load(ctx context.Context) View {
	s.mu.Lock()
	s.view.Version++
	s.view.Loading = true
	version := s.view.Version
	sel := s.view.Selector
	started := s.view
	s.mu.Unlock()

	s.notify(started)

	videos, err := Resolve(ctx, s.catalog, sel)

	s.mu.Lock()
	if s.view.Version != version {
		v := s.view
		s.mu.Unlock()
		return v
	}
	s.view.Loading = false
	if err != nil {
		s.view.Videos = []*models.Video{}
		s.view.Err = loadErrorMessage(err)
	} else {
		s.view.Videos = videos
		s.view.Err = ""
	}
	v := s.view
	s.mu.Unlock()

	s.notify(v)
	return v
}

func (s *Store) notify(v View) {
	s.mu.Lock()
	fns := make([]func(View), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

func loadErrorMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusTooManyRequests {
			return MsgTooManyRequests
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
	}
	return MsgLoadFailed
}
