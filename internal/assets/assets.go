// Package assets handles external skin texture lookup and caching.
package assets

import (
	"errors"
	"fmt"
	"image"
	"path"
	"strings"
	"sync"

	"github.com/Faultbox/hmp-terrain/internal/export"
	"github.com/Faultbox/hmp-terrain/pkg/encoding"
)

// ErrNotFound is returned when no search directory holds a texture.
var ErrNotFound = errors.New("texture not found")

// Manager resolves external texture names against a list of directories.
// It is safe for concurrent use.
type Manager struct {
	dirs  []string
	cache *Cache
	mu    sync.RWMutex
}

var _ export.TextureSource = (*Manager)(nil)

// NewManager creates a manager searching dirs.
func NewManager(dirs ...string) *Manager {
	m := &Manager{cache: NewCache()}
	for _, d := range dirs {
		m.AddDir(d)
	}
	return m
}

// AddDir adds a search directory. Directories are searched in reverse
// order (last added = highest priority).
func (m *Manager) AddDir(dir string) {
	if dir == "" {
		return
	}
	m.mu.Lock()
	m.dirs = append(m.dirs, dir)
	m.mu.Unlock()
}

// LoadTexture loads a texture by the name stored in a skin. Names are
// tried as relative paths first, then by base name alone, since skins
// often carry the absolute path of the authoring machine.
func (m *Manager) LoadTexture(name string) (image.Image, error) {
	key := cacheKey(name)
	if img, ok := m.cache.Get(key); ok {
		return img, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rel := encoding.NormalizePath(name)
	if i := strings.IndexByte(rel, ':'); i >= 0 {
		rel = rel[i+1:]
	}
	rel = strings.TrimLeft(rel, "/")
	candidates := []string{rel}
	if base := path.Base(rel); base != rel {
		candidates = append(candidates, base)
	}

	var lastErr error
	for i := len(m.dirs) - 1; i >= 0; i-- {
		for _, c := range candidates {
			img, err := export.LoadExternalTexture(m.dirs[i], c)
			if err == nil {
				m.cache.Set(key, img)
				return img, nil
			}
			lastErr = err
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, name, lastErr)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// Close drops all cached textures.
func (m *Manager) Close() {
	m.cache.Clear()
}

func cacheKey(name string) string {
	return strings.ToLower(encoding.NormalizePath(name))
}

// Cache is a simple in-memory cache for decoded textures.
type Cache struct {
	data map[string]image.Image
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]image.Image),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	img, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return img, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = img
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]image.Image)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
