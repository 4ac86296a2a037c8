package service

import (
	"time"
	"unsafe"

	"github.com/coocood/freecache"
	"github.com/goccy/go-json"

	"github.com/wellness-in-schools/video-library/internal/db/models"
)

// ListCache keeps encoded video lists in process memory.
type ListCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Clear()
}

type freeListCache struct {
	cache *freecache.Cache
	ttl   int
}

// NewListCache returns a freecache backed ListCache, or a cache that never
// hits when sizeMB is not positive.
func NewListCache(sizeMB int, ttl time.Duration) ListCache {
	if sizeMB <= 0 {
		return noopCache{}
	}
	return &freeListCache{
		cache: freecache.NewCache(sizeMB * 1024 * 1024),
		ttl:   max(int(ttl.Seconds()), 1),
	}
}

// NoopListCache returns a ListCache that stores nothing.
func NoopListCache() ListCache {
	return noopCache{}
}

// unsafeStringToBytes converts string to []byte without allocation.
// freecache copies keys internally, so the result is never modified.
func unsafeStringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func (c *freeListCache) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get(unsafeStringToBytes(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *freeListCache) Set(key string, value []byte) {
	_ = c.cache.Set(unsafeStringToBytes(key), value, c.ttl)
}

func (c *freeListCache) Clear() {
	c.cache.Clear()
}

type noopCache struct{}

func (noopCache) Get(_ string) ([]byte, bool) { return nil, false }
func (noopCache) Set(_ string, _ []byte)      {}
func (noopCache) Clear()                      {}

func encodeVideos(videos []*models.Video) ([]byte, error) {
	return json.Marshal(videos)
}

func decodeVideos(data []byte) ([]*models.Video, error) {
	var videos []*models.Video
	if err := json.Unmarshal(data, &videos); err != nil {
		return nil, err
	}
	if videos == nil {
		videos = []*models.Video{}
	}
	return videos, nil
}
