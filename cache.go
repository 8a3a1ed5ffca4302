package devnotes

import (
	"fmt"
	"sync"
	"time"
)

// publishedCache is an in-memory cache of the published post list with TTL.
// Public reads and feeds hit this instead of the store; every successful
// mutation calls Invalidate.
type publishedCache struct {
	mu      sync.RWMutex
	posts   []Post
	fetched time.Time
	ttl     time.Duration
	store   ContentStore
}

func newPublishedCache(s ContentStore, ttl time.Duration) *publishedCache {
	return &publishedCache{store: s, ttl: ttl}
}

func (c *publishedCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *publishedCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.mu.Unlock()
}

// Published returns the cached published posts, newest first.
func (c *publishedCache) Published() ([]Post, error) {
	c.mu.RLock()
	if c.valid() {
		posts := c.posts
		c.mu.RUnlock()
		return posts, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.posts, nil
	}
	posts, err := c.store.ListPosts(true)
	if err != nil {
		return nil, err
	}
	c.posts = posts
	c.fetched = time.Now()
	return posts, nil
}

// Get returns a single published post by slug from the cache.
func (c *publishedCache) Get(slug string) (Post, error) {
	posts, err := c.Published()
	if err != nil {
		return Post{}, err
	}
	for _, p := range posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Post{}, fmt.Errorf("%w: post %q", ErrNotFound, slug)
}
