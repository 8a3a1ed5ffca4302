package devnotes

import (
	"fmt"
	"strings"
)

// queryPosts runs filtering and pagination over a post snapshot. It is
// shared by both store implementations and the published-post cache.
func queryPosts(posts []Post, f Filter, page, size int) (Page, error) {
	if size <= 0 {
		return Page{}, fmt.Errorf("%w: page size must be positive", ErrInvalid)
	}
	if page < 0 {
		return Page{}, fmt.Errorf("%w: page must not be negative", ErrInvalid)
	}
	return paginate(filterPosts(posts, f), page, size), nil
}

func filterPosts(posts []Post, f Filter) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if f.OnlyPublished && p.Status != StatusPublished {
			continue
		}
		if f.TagSlug != "" && !hasTagSlug(p, f.TagSlug) {
			continue
		}
		if f.Text != "" && !matchesText(p, f.Text) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func hasTagSlug(p Post, slug string) bool {
	for _, t := range p.Tags {
		if t.Slug == slug {
			return true
		}
	}
	return false
}

// matchesText is a case-insensitive substring match over title, excerpt,
// and body. No tokenization, no ranking.
func matchesText(p Post, text string) bool {
	q := strings.ToLower(text)
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Excerpt), q) ||
		strings.Contains(strings.ToLower(p.Body), q)
}

func paginate(posts []Post, page, size int) Page {
	total := len(posts)
	totalPages := (total + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}
	content := []Post{}
	if start := page * size; start < total {
		end := start + size
		if end > total {
			end = total
		}
		content = posts[start:end]
	}
	return Page{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalPages:    totalPages,
		TotalElements: total,
	}
}
