package devnotes

import "time"

// PostStatus is the publication state of a post.
type PostStatus string

const (
	StatusDraft     PostStatus = "DRAFT"
	StatusPublished PostStatus = "PUBLISHED"
)

// Tag labels posts. Slugs are unique across tags; ids are never reused.
type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Post is the core content type. The body is opaque to the store — it is
// carried, never parsed.
type Post struct {
	ID              int        `json:"id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Excerpt         string     `json:"excerpt"`
	Body            string     `json:"body"`
	Tags            []Tag      `json:"tags"`
	CoverImageURL   string     `json:"coverImageUrl,omitempty"`
	Status          PostStatus `json:"status"`
	PublishedAt     *time.Time `json:"publishedAt,omitempty"`
	ReadTimeMinutes int        `json:"readTimeMinutes,omitempty"`
}

// PostFields is the mutable field set accepted by post create and update.
// Tag ids are resolved against the registry; unknown ids are dropped.
// An empty Status means DRAFT on create and "keep current" on update.
type PostFields struct {
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Excerpt         string     `json:"excerpt"`
	Body            string     `json:"body"`
	TagIDs          []int      `json:"tagIds"`
	CoverImageURL   string     `json:"coverImageUrl"`
	ReadTimeMinutes int        `json:"readTimeMinutes"`
	Status          PostStatus `json:"status"`
}

// Settings is the singleton site metadata record.
type Settings struct {
	Title           string            `json:"title"`
	Subtitle        string            `json:"subtitle,omitempty"`
	AuthorName      string            `json:"authorName,omitempty"`
	AuthorBio       string            `json:"authorBio,omitempty"`
	ProfileImageURL string            `json:"profileImageUrl,omitempty"`
	SocialLinks     map[string]string `json:"socialLinks,omitempty"`
}

// SettingsPatch carries only the fields the caller wants to overwrite.
// Nil fields are left untouched; a non-nil SocialLinks replaces the map.
type SettingsPatch struct {
	Title           *string           `json:"title"`
	Subtitle        *string           `json:"subtitle"`
	AuthorName      *string           `json:"authorName"`
	AuthorBio       *string           `json:"authorBio"`
	ProfileImageURL *string           `json:"profileImageUrl"`
	SocialLinks     map[string]string `json:"socialLinks"`
}

// Filter selects posts for QueryPosts. Zero values mean "no constraint".
type Filter struct {
	OnlyPublished bool
	TagSlug       string
	Text          string
}

// Page is one slice of a filtered post listing.
type Page struct {
	Content       []Post `json:"content"`
	Page          int    `json:"page"`
	Size          int    `json:"size"`
	TotalPages    int    `json:"totalPages"`
	TotalElements int    `json:"totalElements"`
}

// AuthResponse is returned by a successful login.
type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
}
