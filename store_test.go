package devnotes

import (
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	return NewMemoryStore()
}

func mustCreateTag(t *testing.T, s ContentStore, name, slug string) Tag {
	t.Helper()
	tag, err := s.CreateTag(name, slug)
	if err != nil {
		t.Fatalf("CreateTag(%q, %q) failed: %v", name, slug, err)
	}
	return tag
}

func mustCreatePost(t *testing.T, s ContentStore, f PostFields) Post {
	t.Helper()
	post, err := s.CreatePost(f)
	if err != nil {
		t.Fatalf("CreatePost(%q) failed: %v", f.Slug, err)
	}
	return post
}

func TestNextID(t *testing.T) {
	tests := []struct {
		existing []int
		want     int
	}{
		{nil, 1},
		{[]int{}, 1},
		{[]int{1}, 2},
		{[]int{3, 1, 2}, 4},
		{[]int{7}, 8},
	}
	for _, tt := range tests {
		if got := nextID(tt.existing); got != tt.want {
			t.Errorf("nextID(%v) = %d, want %d", tt.existing, got, tt.want)
		}
	}
}

func TestCreateTagAssignsSequentialIDs(t *testing.T) {
	s := newTestStore(t)

	first := mustCreateTag(t, s, "React", "react")
	second := mustCreateTag(t, s, "Go", "go")

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("ids = %d, %d, want 1, 2", first.ID, second.ID)
	}
}

func TestTagIDsNotReusedAfterDelete(t *testing.T) {
	s := newTestStore(t)

	mustCreateTag(t, s, "React", "react")
	second := mustCreateTag(t, s, "Go", "go")

	if err := s.DeleteTag(second.ID); err != nil {
		t.Fatalf("DeleteTag failed: %v", err)
	}
	third := mustCreateTag(t, s, "DevOps", "devops")
	if third.ID <= second.ID {
		t.Errorf("new tag id = %d, want greater than deleted id %d", third.ID, second.ID)
	}
}

func TestCreateTagSlugConflict(t *testing.T) {
	s := newTestStore(t)
	mustCreateTag(t, s, "React", "react")

	_, err := s.CreateTag("React Native", "react")
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	tags, _ := s.ListTags()
	if len(tags) != 1 {
		t.Errorf("tag count = %d after failed create, want 1", len(tags))
	}
}

func TestCreateTagValidation(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateTag("", "slug"); !errors.Is(err, ErrInvalid) {
		t.Errorf("empty name: expected ErrInvalid, got %v", err)
	}
	if _, err := s.CreateTag("Name", "  "); !errors.Is(err, ErrInvalid) {
		t.Errorf("blank slug: expected ErrInvalid, got %v", err)
	}
}

func TestUpdateTag(t *testing.T) {
	s := newTestStore(t)
	tag := mustCreateTag(t, s, "React", "react")
	mustCreateTag(t, s, "Go", "go")

	// Renaming while keeping the same slug must not self-conflict.
	updated, err := s.UpdateTag(tag.ID, "ReactJS", "react")
	if err != nil {
		t.Fatalf("UpdateTag failed: %v", err)
	}
	if updated.Name != "ReactJS" || updated.ID != tag.ID {
		t.Errorf("updated = %+v, want name ReactJS with id %d", updated, tag.ID)
	}

	if _, err := s.UpdateTag(tag.ID, "React", "go"); !errors.Is(err, ErrConflict) {
		t.Errorf("colliding slug: expected ErrConflict, got %v", err)
	}
	if _, err := s.UpdateTag(999, "X", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id: expected ErrNotFound, got %v", err)
	}
}

func TestUpdateTagReflectedOnPosts(t *testing.T) {
	s := newTestStore(t)
	tag := mustCreateTag(t, s, "React", "react")
	post := mustCreatePost(t, s, PostFields{Title: "A", Slug: "a", TagIDs: []int{tag.ID}})

	if _, err := s.UpdateTag(tag.ID, "ReactJS", "reactjs"); err != nil {
		t.Fatalf("UpdateTag failed: %v", err)
	}

	got, err := s.GetPost(post.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if len(got.Tags) != 1 || got.Tags[0].Slug != "reactjs" {
		t.Errorf("post tags = %+v, want the renamed tag", got.Tags)
	}
}

func TestDeleteTagCascades(t *testing.T) {
	s := newTestStore(t)
	react := mustCreateTag(t, s, "React", "react")
	golang := mustCreateTag(t, s, "Go", "go")

	post := mustCreatePost(t, s, PostFields{
		Title:  "A",
		Slug:   "a",
		TagIDs: []int{react.ID, golang.ID},
	})
	if len(post.Tags) != 2 {
		t.Fatalf("post tags = %d, want 2", len(post.Tags))
	}

	if err := s.DeleteTag(react.ID); err != nil {
		t.Fatalf("DeleteTag failed: %v", err)
	}

	got, err := s.GetPost(post.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if len(got.Tags) != 1 || got.Tags[0].ID != golang.ID || got.Tags[0].Slug != "go" {
		t.Errorf("post tags after cascade = %+v, want only the go tag", got.Tags)
	}

	tags, _ := s.ListTags()
	if len(tags) != 1 {
		t.Errorf("tag count = %d, want 1", len(tags))
	}
}

func TestDeleteTagNotFound(t *testing.T) {
	s := newTestStore(t)
	if err := s.DeleteTag(42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreatePostDefaultsToDraft(t *testing.T) {
	s := newTestStore(t)
	post := mustCreatePost(t, s, PostFields{Title: "A", Slug: "a"})

	if post.Status != StatusDraft {
		t.Errorf("status = %q, want DRAFT", post.Status)
	}
	if post.PublishedAt != nil {
		t.Errorf("publishedAt = %v, want nil for a draft", post.PublishedAt)
	}
}

func TestCreatePublishedPostStampsTime(t *testing.T) {
	s := newTestStore(t)
	stamp := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return stamp }

	post := mustCreatePost(t, s, PostFields{Title: "A", Slug: "a", Status: StatusPublished})

	if post.Status != StatusPublished {
		t.Errorf("status = %q, want PUBLISHED", post.Status)
	}
	if post.PublishedAt == nil || !post.PublishedAt.Equal(stamp) {
		t.Errorf("publishedAt = %v, want %v", post.PublishedAt, stamp)
	}
}

func TestCreatePostDropsUnknownTagIDs(t *testing.T) {
	s := newTestStore(t)
	react := mustCreateTag(t, s, "React", "react")

	post := mustCreatePost(t, s, PostFields{
		Title:  "A",
		Slug:   "a",
		TagIDs: []int{react.ID, 999},
	})
	if len(post.Tags) != 1 || post.Tags[0].ID != react.ID {
		t.Errorf("tags = %+v, want only the known tag", post.Tags)
	}
}

func TestCreatePostSlugConflict(t *testing.T) {
	s := newTestStore(t)
	mustCreatePost(t, s, PostFields{Title: "A", Slug: "a"})

	_, err := s.CreatePost(PostFields{Title: "Another", Slug: "a"})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestCreatePostValidation(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreatePost(PostFields{Slug: "a"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("missing title: expected ErrInvalid, got %v", err)
	}
	if _, err := s.CreatePost(PostFields{Title: "A"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("missing slug: expected ErrInvalid, got %v", err)
	}
	if _, err := s.CreatePost(PostFields{Title: "A", Slug: "a", Status: "ARCHIVED"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("unknown status: expected ErrInvalid, got %v", err)
	}
}

func TestPostIDsNotReusedAfterDelete(t *testing.T) {
	s := newTestStore(t)
	mustCreatePost(t, s, PostFields{Title: "A", Slug: "a"})
	second := mustCreatePost(t, s, PostFields{Title: "B", Slug: "b"})

	if err := s.DeletePost(second.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	third := mustCreatePost(t, s, PostFields{Title: "C", Slug: "c"})
	if third.ID <= second.ID {
		t.Errorf("new post id = %d, want greater than deleted id %d", third.ID, second.ID)
	}
}

func TestUpdatePostReplacesFields(t *testing.T) {
	s := newTestStore(t)
	tag := mustCreateTag(t, s, "Go", "go")
	post := mustCreatePost(t, s, PostFields{Title: "A", Slug: "a", Excerpt: "old", Body: "old body"})

	updated, err := s.UpdatePost(post.ID, PostFields{
		Title:           "A2",
		Slug:            "a2",
		Excerpt:         "new",
		Body:            "new body",
		TagIDs:          []int{tag.ID},
		CoverImageURL:   "https://example.com/cover.jpg",
		ReadTimeMinutes: 7,
	})
	if err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}
	if updated.Title != "A2" || updated.Slug != "a2" || updated.Excerpt != "new" || updated.Body != "new body" {
		t.Errorf("updated = %+v, want replaced fields", updated)
	}
	if len(updated.Tags) != 1 || updated.Tags[0].ID != tag.ID {
		t.Errorf("tags = %+v, want the go tag", updated.Tags)
	}
	if updated.ReadTimeMinutes != 7 || updated.CoverImageURL != "https://example.com/cover.jpg" {
		t.Errorf("metadata not replaced: %+v", updated)
	}
	// Status omitted from the update: stays DRAFT.
	if updated.Status != StatusDraft {
		t.Errorf("status = %q, want DRAFT", updated.Status)
	}
}

func TestUpdatePostSlugConflictLeavesPostUnchanged(t *testing.T) {
	s := newTestStore(t)
	mustCreatePost(t, s, PostFields{Title: "First", Slug: "first"})
	post := mustCreatePost(t, s, PostFields{Title: "Second", Slug: "second"})

	_, err := s.UpdatePost(post.ID, PostFields{Title: "Renamed", Slug: "first"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, err := s.GetPost(post.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != "Second" || got.Slug != "second" {
		t.Errorf("post mutated by failed update: %+v", got)
	}
}

func TestUpdatePostSameSlugNoConflict(t *testing.T) {
	s := newTestStore(t)
	post := mustCreatePost(t, s, PostFields{Title: "A", Slug: "a"})

	if _, err := s.UpdatePost(post.ID, PostFields{Title: "A2", Slug: "a"}); err != nil {
		t.Errorf("updating with own slug should not conflict: %v", err)
	}
}

func TestUpdateStatusDoesNotTouchPublishedAt(t *testing.T) {
	s := newTestStore(t)
	stamp := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return stamp }
	post := mustCreatePost(t, s, PostFields{Title: "A", Slug: "a"})

	// Raw status flip to PUBLISHED through update: no timestamp is stamped.
	updated, err := s.UpdatePost(post.ID, PostFields{Title: "A", Slug: "a", Status: StatusPublished})
	if err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}
	if updated.Status != StatusPublished {
		t.Errorf("status = %q, want PUBLISHED", updated.Status)
	}
	if updated.PublishedAt != nil {
		t.Errorf("publishedAt = %v, want nil: only Publish stamps it", updated.PublishedAt)
	}

	// Publish properly, then flip back to DRAFT through update: the
	// timestamp survives because only Unpublish clears it.
	if _, err := s.PublishPost(post.ID); err != nil {
		t.Fatalf("PublishPost failed: %v", err)
	}
	updated, err = s.UpdatePost(post.ID, PostFields{Title: "A", Slug: "a", Status: StatusDraft})
	if err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}
	if updated.Status != StatusDraft {
		t.Errorf("status = %q, want DRAFT", updated.Status)
	}
	if updated.PublishedAt == nil || !updated.PublishedAt.Equal(stamp) {
		t.Errorf("publishedAt = %v, want %v preserved", updated.PublishedAt, stamp)
	}
}

func TestPublishUnpublishRoundTrip(t *testing.T) {
	s := newTestStore(t)
	first := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)
	current := first
	s.now = func() time.Time { return current }

	post := mustCreatePost(t, s, PostFields{Title: "A", Slug: "a"})

	published, err := s.PublishPost(post.ID)
	if err != nil {
		t.Fatalf("PublishPost failed: %v", err)
	}
	if published.PublishedAt == nil || !published.PublishedAt.Equal(first) {
		t.Errorf("publishedAt = %v, want %v", published.PublishedAt, first)
	}

	unpublished, err := s.UnpublishPost(post.ID)
	if err != nil {
		t.Fatalf("UnpublishPost failed: %v", err)
	}
	if unpublished.Status != StatusDraft || unpublished.PublishedAt != nil {
		t.Errorf("after unpublish: status=%q publishedAt=%v, want DRAFT and nil", unpublished.Status, unpublished.PublishedAt)
	}

	current = second
	republished, err := s.PublishPost(post.ID)
	if err != nil {
		t.Fatalf("PublishPost failed: %v", err)
	}
	if republished.PublishedAt == nil || !republished.PublishedAt.Equal(second) {
		t.Errorf("publishedAt = %v, want the second publish time %v", republished.PublishedAt, second)
	}
}

func TestPublishRefreshesTimestamp(t *testing.T) {
	s := newTestStore(t)
	first := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := first
	s.now = func() time.Time { return current }

	post := mustCreatePost(t, s, PostFields{Title: "A", Slug: "a", Status: StatusPublished})

	current = first.Add(time.Hour)
	republished, err := s.PublishPost(post.ID)
	if err != nil {
		t.Fatalf("PublishPost failed: %v", err)
	}
	if republished.PublishedAt == nil || !republished.PublishedAt.Equal(current) {
		t.Errorf("publishedAt = %v, want refreshed to %v", republished.PublishedAt, current)
	}
}

func TestPublishNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.PublishPost(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.UnpublishPost(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetPostBySlug(t *testing.T) {
	s := newTestStore(t)
	mustCreatePost(t, s, PostFields{Title: "Draft", Slug: "draft"})
	mustCreatePost(t, s, PostFields{Title: "Live", Slug: "live", Status: StatusPublished})

	if _, err := s.GetPostBySlug("live", true); err != nil {
		t.Errorf("published lookup failed: %v", err)
	}
	if _, err := s.GetPostBySlug("draft", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("draft must look missing to public reads, got %v", err)
	}
	if _, err := s.GetPostBySlug("draft", false); err != nil {
		t.Errorf("admin lookup of draft failed: %v", err)
	}
	if _, err := s.GetPostBySlug("nope", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeletePost(t *testing.T) {
	s := newTestStore(t)
	post := mustCreatePost(t, s, PostFields{Title: "A", Slug: "a"})

	if err := s.DeletePost(post.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, err := s.GetPost(post.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeletePost(post.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestSettingsDefaults(t *testing.T) {
	s := newTestStore(t)
	settings, err := s.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if settings.Title == "" {
		t.Error("default settings should have a title")
	}
}

func TestPatchSettingsMergesOnlyProvidedFields(t *testing.T) {
	s := newTestStore(t)
	title := "My Blog"
	author := "Alex"
	if _, err := s.PatchSettings(SettingsPatch{Title: &title, AuthorName: &author}); err != nil {
		t.Fatalf("PatchSettings failed: %v", err)
	}

	subtitle := "About things"
	settings, err := s.PatchSettings(SettingsPatch{Subtitle: &subtitle})
	if err != nil {
		t.Fatalf("PatchSettings failed: %v", err)
	}
	if settings.Title != "My Blog" || settings.AuthorName != "Alex" {
		t.Errorf("earlier fields lost: %+v", settings)
	}
	if settings.Subtitle != "About things" {
		t.Errorf("subtitle = %q, want %q", settings.Subtitle, subtitle)
	}
}

func TestPatchSettingsReplacesSocialLinks(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.PatchSettings(SettingsPatch{SocialLinks: map[string]string{
		"twitter": "https://twitter.com/old",
		"github":  "https://github.com/old",
	}}); err != nil {
		t.Fatalf("PatchSettings failed: %v", err)
	}

	settings, err := s.PatchSettings(SettingsPatch{SocialLinks: map[string]string{
		"github": "https://github.com/new",
	}})
	if err != nil {
		t.Fatalf("PatchSettings failed: %v", err)
	}
	if len(settings.SocialLinks) != 1 || settings.SocialLinks["github"] != "https://github.com/new" {
		t.Errorf("socialLinks = %v, want replaced map", settings.SocialLinks)
	}
}
