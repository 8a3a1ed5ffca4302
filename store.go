package devnotes

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ContentStore is the slug-addressed post/tag repository the HTTP layer is
// built on. Implementations must keep tag references consistent: deleting a
// tag removes it from every post before any reader can observe the gap.
type ContentStore interface {
	ListTags() ([]Tag, error)
	CreateTag(name, slug string) (Tag, error)
	UpdateTag(id int, name, slug string) (Tag, error)
	DeleteTag(id int) error

	GetPost(id int) (Post, error)
	GetPostBySlug(slug string, requirePublished bool) (Post, error)
	ListPosts(onlyPublished bool) ([]Post, error)
	CreatePost(f PostFields) (Post, error)
	UpdatePost(id int, f PostFields) (Post, error)
	PublishPost(id int) (Post, error)
	UnpublishPost(id int) (Post, error)
	DeletePost(id int) error

	QueryPosts(f Filter, page, size int) (Page, error)

	GetSettings() (Settings, error)
	PatchSettings(p SettingsPatch) (Settings, error)

	Close() error
}

// nextID returns the next identifier for a namespace: max(existing)+1, or 1
// when the set is empty.
func nextID(existing []int) int {
	next := 1
	for _, id := range existing {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

// MemoryStore is an in-memory ContentStore. One mutex guards all state so
// writes — including the tag-delete cascade — are atomic with respect to
// readers. Ids are high-water marked and never reused, even after deletes.
type MemoryStore struct {
	mu         sync.RWMutex
	tags       []Tag
	posts      []Post // newest first
	settings   Settings
	lastTagID  int
	lastPostID int

	now func() time.Time
}

// NewMemoryStore returns an empty store with default settings.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		settings: defaultSettings(),
		now:      time.Now,
	}
}

func defaultSettings() Settings {
	return Settings{
		Title:    "DevNotes",
		Subtitle: "Notes on building, deploying, and learning in public.",
	}
}

func (s *MemoryStore) allocTagID() int {
	ids := make([]int, 0, len(s.tags)+1)
	for _, t := range s.tags {
		ids = append(ids, t.ID)
	}
	ids = append(ids, s.lastTagID)
	s.lastTagID = nextID(ids)
	return s.lastTagID
}

func (s *MemoryStore) allocPostID() int {
	ids := make([]int, 0, len(s.posts)+1)
	for _, p := range s.posts {
		ids = append(ids, p.ID)
	}
	ids = append(ids, s.lastPostID)
	s.lastPostID = nextID(ids)
	return s.lastPostID
}

// ListTags returns all tags in creation order.
func (s *MemoryStore) ListTags() ([]Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Tag, len(s.tags))
	copy(out, s.tags)
	return out, nil
}

// CreateTag adds a tag, failing with ErrConflict if the slug is taken.
func (s *MemoryStore) CreateTag(name, slug string) (Tag, error) {
	name = strings.TrimSpace(name)
	slug = strings.TrimSpace(slug)
	if name == "" || slug == "" {
		return Tag{}, fmt.Errorf("%w: tag name and slug are required", ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tags {
		if t.Slug == slug {
			return Tag{}, fmt.Errorf("%w: tag slug %q", ErrConflict, slug)
		}
	}
	tag := Tag{ID: s.allocTagID(), Name: name, Slug: slug}
	s.tags = append(s.tags, tag)
	return tag, nil
}

// UpdateTag replaces a tag's name and slug in place. The new slug must not
// collide with a different tag. Posts referencing the tag see the new value.
func (s *MemoryStore) UpdateTag(id int, name, slug string) (Tag, error) {
	name = strings.TrimSpace(name)
	slug = strings.TrimSpace(slug)
	if name == "" || slug == "" {
		return Tag{}, fmt.Errorf("%w: tag name and slug are required", ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, t := range s.tags {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Tag{}, fmt.Errorf("%w: tag %d", ErrNotFound, id)
	}
	for _, t := range s.tags {
		if t.ID != id && t.Slug == slug {
			return Tag{}, fmt.Errorf("%w: tag slug %q", ErrConflict, slug)
		}
	}
	s.tags[idx].Name = name
	s.tags[idx].Slug = slug
	updated := s.tags[idx]
	for pi := range s.posts {
		for ti := range s.posts[pi].Tags {
			if s.posts[pi].Tags[ti].ID == id {
				s.posts[pi].Tags[ti] = updated
			}
		}
	}
	return updated, nil
}

// DeleteTag removes a tag and strips it from every post's tag set. Both
// happen under the same lock, so no reader sees a dangling reference.
func (s *MemoryStore) DeleteTag(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, t := range s.tags {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: tag %d", ErrNotFound, id)
	}
	s.tags = append(s.tags[:idx], s.tags[idx+1:]...)
	for pi := range s.posts {
		kept := s.posts[pi].Tags[:0]
		for _, t := range s.posts[pi].Tags {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		s.posts[pi].Tags = kept
	}
	return nil
}

// GetPost returns a post by id regardless of status.
func (s *MemoryStore) GetPost(id int) (Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.posts {
		if p.ID == id {
			return clonePost(p), nil
		}
	}
	return Post{}, fmt.Errorf("%w: post %d", ErrNotFound, id)
}

// GetPostBySlug returns a post by slug. With requirePublished set, drafts
// are indistinguishable from missing posts.
func (s *MemoryStore) GetPostBySlug(slug string, requirePublished bool) (Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.posts {
		if p.Slug != slug {
			continue
		}
		if requirePublished && p.Status != StatusPublished {
			break
		}
		return clonePost(p), nil
	}
	return Post{}, fmt.Errorf("%w: post %q", ErrNotFound, slug)
}

// ListPosts returns posts newest first, optionally only published ones.
func (s *MemoryStore) ListPosts(onlyPublished bool) ([]Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(onlyPublished), nil
}

// CreatePost adds a post. Status defaults to DRAFT; creating as PUBLISHED
// stamps publishedAt immediately. Unknown tag ids are dropped, not rejected:
// a stale tag selection in a long-lived editor form should not fail the save.
func (s *MemoryStore) CreatePost(f PostFields) (Post, error) {
	if err := validatePostFields(f); err != nil {
		return Post{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.Slug == f.Slug {
			return Post{}, fmt.Errorf("%w: post slug %q", ErrConflict, f.Slug)
		}
	}
	status := f.Status
	if status == "" {
		status = StatusDraft
	}
	post := Post{
		ID:              s.allocPostID(),
		Title:           f.Title,
		Slug:            f.Slug,
		Excerpt:         f.Excerpt,
		Body:            f.Body,
		Tags:            s.resolveTags(f.TagIDs),
		CoverImageURL:   f.CoverImageURL,
		Status:          status,
		ReadTimeMinutes: f.ReadTimeMinutes,
	}
	if status == StatusPublished {
		now := s.now()
		post.PublishedAt = &now
	}
	s.posts = append([]Post{post}, s.posts...)
	return clonePost(post), nil
}

// UpdatePost replaces every mutable field of a post. An included status is
// applied as-is: update never stamps or clears publishedAt — only the
// publish and unpublish transitions touch the timestamp.
func (s *MemoryStore) UpdatePost(id int, f PostFields) (Post, error) {
	if err := validatePostFields(f); err != nil {
		return Post{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, p := range s.posts {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Post{}, fmt.Errorf("%w: post %d", ErrNotFound, id)
	}
	for _, p := range s.posts {
		if p.ID != id && p.Slug == f.Slug {
			return Post{}, fmt.Errorf("%w: post slug %q", ErrConflict, f.Slug)
		}
	}
	post := s.posts[idx]
	post.Title = f.Title
	post.Slug = f.Slug
	post.Excerpt = f.Excerpt
	post.Body = f.Body
	post.Tags = s.resolveTags(f.TagIDs)
	post.CoverImageURL = f.CoverImageURL
	post.ReadTimeMinutes = f.ReadTimeMinutes
	if f.Status != "" {
		post.Status = f.Status
	}
	s.posts[idx] = post
	return clonePost(post), nil
}

// PublishPost sets status to PUBLISHED and stamps publishedAt to now, even
// when the post is already published.
func (s *MemoryStore) PublishPost(id int) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.posts {
		if p.ID != id {
			continue
		}
		now := s.now()
		s.posts[i].Status = StatusPublished
		s.posts[i].PublishedAt = &now
		return clonePost(s.posts[i]), nil
	}
	return Post{}, fmt.Errorf("%w: post %d", ErrNotFound, id)
}

// UnpublishPost sets status to DRAFT and clears publishedAt.
func (s *MemoryStore) UnpublishPost(id int) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.posts {
		if p.ID != id {
			continue
		}
		s.posts[i].Status = StatusDraft
		s.posts[i].PublishedAt = nil
		return clonePost(s.posts[i]), nil
	}
	return Post{}, fmt.Errorf("%w: post %d", ErrNotFound, id)
}

// DeletePost removes a post by id.
func (s *MemoryStore) DeletePost(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.posts {
		if p.ID == id {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: post %d", ErrNotFound, id)
}

// QueryPosts filters and paginates posts. Zero-based pages; a page past the
// end yields empty content with the totals still correct.
func (s *MemoryStore) QueryPosts(f Filter, page, size int) (Page, error) {
	s.mu.RLock()
	posts := s.snapshot(false)
	s.mu.RUnlock()
	return queryPosts(posts, f, page, size)
}

// GetSettings returns the current settings.
func (s *MemoryStore) GetSettings() (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSettings(s.settings), nil
}

// PatchSettings merges the supplied fields into the singleton and returns
// the updated record.
func (s *MemoryStore) PatchSettings(p SettingsPatch) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = applyPatch(s.settings, p)
	return cloneSettings(s.settings), nil
}

// Close is a no-op; it exists for parity with the SQLite store.
func (s *MemoryStore) Close() error { return nil }

// snapshot copies posts out so callers can work without the lock.
func (s *MemoryStore) snapshot(onlyPublished bool) []Post {
	out := make([]Post, 0, len(s.posts))
	for _, p := range s.posts {
		if onlyPublished && p.Status != StatusPublished {
			continue
		}
		out = append(out, clonePost(p))
	}
	return out
}

// resolveTags maps tag ids to registry tags, in registry order. Ids absent
// from the registry are skipped. Caller must hold the lock.
func (s *MemoryStore) resolveTags(ids []int) []Tag {
	want := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []Tag
	for _, t := range s.tags {
		if _, ok := want[t.ID]; ok {
			out = append(out, t)
		}
	}
	return out
}

func validatePostFields(f PostFields) error {
	if strings.TrimSpace(f.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if strings.TrimSpace(f.Slug) == "" {
		return fmt.Errorf("%w: slug is required", ErrInvalid)
	}
	if f.Status != "" && f.Status != StatusDraft && f.Status != StatusPublished {
		return fmt.Errorf("%w: unknown status %q", ErrInvalid, f.Status)
	}
	return nil
}

func applyPatch(s Settings, p SettingsPatch) Settings {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Subtitle != nil {
		s.Subtitle = *p.Subtitle
	}
	if p.AuthorName != nil {
		s.AuthorName = *p.AuthorName
	}
	if p.AuthorBio != nil {
		s.AuthorBio = *p.AuthorBio
	}
	if p.ProfileImageURL != nil {
		s.ProfileImageURL = *p.ProfileImageURL
	}
	if p.SocialLinks != nil {
		links := make(map[string]string, len(p.SocialLinks))
		for k, v := range p.SocialLinks {
			links[k] = v
		}
		s.SocialLinks = links
	}
	return s
}

func clonePost(p Post) Post {
	if p.Tags != nil {
		tags := make([]Tag, len(p.Tags))
		copy(tags, p.Tags)
		p.Tags = tags
	}
	if p.PublishedAt != nil {
		at := *p.PublishedAt
		p.PublishedAt = &at
	}
	return p
}

func cloneSettings(s Settings) Settings {
	if s.SocialLinks != nil {
		links := make(map[string]string, len(s.SocialLinks))
		for k, v := range s.SocialLinks {
			links[k] = v
		}
		s.SocialLinks = links
	}
	return s
}
