package devnotes

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a ContentStore backed by SQLite. AUTOINCREMENT row ids
// give the never-reused, monotonically increasing identifiers; the tag
// delete cascade runs inside one transaction. A store-level mutex
// serializes the check-then-write sequences (slug uniqueness, cascades).
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteStore opens (or creates) the database at path, ensures the data
// directory exists, and runs schema migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL for concurrent readers, busy timeout so writers wait instead of
	// failing with SQLITE_BUSY, synchronous=NORMAL is safe under WAL.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS tags (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS posts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    excerpt TEXT NOT NULL DEFAULT '',
    body TEXT NOT NULL DEFAULT '',
    cover_image_url TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'DRAFT',
    published_at TEXT,
    read_time_minutes INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS post_tags (
    post_id INTEGER NOT NULL,
    tag_id INTEGER NOT NULL,
    PRIMARY KEY (post_id, tag_id)
);
CREATE TABLE IF NOT EXISTS settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    data TEXT NOT NULL
);
`)
	if err != nil {
		return err
	}
	data, err := json.Marshal(defaultSettings())
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT OR IGNORE INTO settings (id, data) VALUES (1, ?)`, string(data))
	return err
}

// ListTags returns all tags in creation order.
func (s *SQLiteStore) ListTags() ([]Tag, error) {
	rows, err := s.db.Query(`SELECT id, name, slug FROM tags ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *SQLiteStore) CreateTag(name, slug string) (Tag, error) {
	name = strings.TrimSpace(name)
	slug = strings.TrimSpace(slug)
	if name == "" || slug == "" {
		return Tag{}, fmt.Errorf("%w: tag name and slug are required", ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var existing int
	err := s.db.QueryRow(`SELECT id FROM tags WHERE slug = ?`, slug).Scan(&existing)
	if err == nil {
		return Tag{}, fmt.Errorf("%w: tag slug %q", ErrConflict, slug)
	}
	if err != sql.ErrNoRows {
		return Tag{}, err
	}
	res, err := s.db.Exec(`INSERT INTO tags (name, slug) VALUES (?, ?)`, name, slug)
	if err != nil {
		return Tag{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Tag{}, err
	}
	return Tag{ID: int(id), Name: name, Slug: slug}, nil
}

func (s *SQLiteStore) UpdateTag(id int, name, slug string) (Tag, error) {
	name = strings.TrimSpace(name)
	slug = strings.TrimSpace(slug)
	if name == "" || slug == "" {
		return Tag{}, fmt.Errorf("%w: tag name and slug are required", ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var exists int
	if err := s.db.QueryRow(`SELECT id FROM tags WHERE id = ?`, id).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return Tag{}, fmt.Errorf("%w: tag %d", ErrNotFound, id)
		}
		return Tag{}, err
	}
	var other int
	err := s.db.QueryRow(`SELECT id FROM tags WHERE slug = ? AND id != ?`, slug, id).Scan(&other)
	if err == nil {
		return Tag{}, fmt.Errorf("%w: tag slug %q", ErrConflict, slug)
	}
	if err != sql.ErrNoRows {
		return Tag{}, err
	}
	if _, err := s.db.Exec(`UPDATE tags SET name = ?, slug = ? WHERE id = ?`, name, slug, id); err != nil {
		return Tag{}, err
	}
	return Tag{ID: id, Name: name, Slug: slug}, nil
}

// DeleteTag removes the tag and its post associations in one transaction.
func (s *SQLiteStore) DeleteTag(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	res, err := tx.Exec(`DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: tag %d", ErrNotFound, id)
	}
	if _, err := tx.Exec(`DELETE FROM post_tags WHERE tag_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetPost(id int) (Post, error) {
	posts, err := s.loadPosts(`WHERE p.id = ?`, id)
	if err != nil {
		return Post{}, err
	}
	if len(posts) == 0 {
		return Post{}, fmt.Errorf("%w: post %d", ErrNotFound, id)
	}
	return posts[0], nil
}

func (s *SQLiteStore) GetPostBySlug(slug string, requirePublished bool) (Post, error) {
	posts, err := s.loadPosts(`WHERE p.slug = ?`, slug)
	if err != nil {
		return Post{}, err
	}
	if len(posts) == 0 || (requirePublished && posts[0].Status != StatusPublished) {
		return Post{}, fmt.Errorf("%w: post %q", ErrNotFound, slug)
	}
	return posts[0], nil
}

func (s *SQLiteStore) ListPosts(onlyPublished bool) ([]Post, error) {
	if onlyPublished {
		return s.loadPosts(`WHERE p.status = ?`, string(StatusPublished))
	}
	return s.loadPosts(``)
}

func (s *SQLiteStore) CreatePost(f PostFields) (Post, error) {
	if err := validatePostFields(f); err != nil {
		return Post{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var existing int
	err := s.db.QueryRow(`SELECT id FROM posts WHERE slug = ?`, f.Slug).Scan(&existing)
	if err == nil {
		return Post{}, fmt.Errorf("%w: post slug %q", ErrConflict, f.Slug)
	}
	if err != sql.ErrNoRows {
		return Post{}, err
	}
	status := f.Status
	if status == "" {
		status = StatusDraft
	}
	var publishedAt any
	if status == StatusPublished {
		publishedAt = s.now().UTC().Format(time.RFC3339Nano)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return Post{}, err
	}
	defer tx.Rollback()
	res, err := tx.Exec(`INSERT INTO posts (title, slug, excerpt, body, cover_image_url, status, published_at, read_time_minutes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Title, f.Slug, f.Excerpt, f.Body, f.CoverImageURL, string(status), publishedAt, f.ReadTimeMinutes)
	if err != nil {
		return Post{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Post{}, err
	}
	if err := replacePostTags(tx, int(id), f.TagIDs); err != nil {
		return Post{}, err
	}
	if err := tx.Commit(); err != nil {
		return Post{}, err
	}
	return s.GetPost(int(id))
}

func (s *SQLiteStore) UpdatePost(id int, f PostFields) (Post, error) {
	if err := validatePostFields(f); err != nil {
		return Post{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var exists int
	if err := s.db.QueryRow(`SELECT id FROM posts WHERE id = ?`, id).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return Post{}, fmt.Errorf("%w: post %d", ErrNotFound, id)
		}
		return Post{}, err
	}
	var other int
	err := s.db.QueryRow(`SELECT id FROM posts WHERE slug = ? AND id != ?`, f.Slug, id).Scan(&other)
	if err == nil {
		return Post{}, fmt.Errorf("%w: post slug %q", ErrConflict, f.Slug)
	}
	if err != sql.ErrNoRows {
		return Post{}, err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return Post{}, err
	}
	defer tx.Rollback()
	// Status is written only when supplied; published_at is never touched
	// here. The publish and unpublish transitions own the timestamp.
	if f.Status != "" {
		_, err = tx.Exec(`UPDATE posts SET title = ?, slug = ?, excerpt = ?, body = ?, cover_image_url = ?, read_time_minutes = ?, status = ? WHERE id = ?`,
			f.Title, f.Slug, f.Excerpt, f.Body, f.CoverImageURL, f.ReadTimeMinutes, string(f.Status), id)
	} else {
		_, err = tx.Exec(`UPDATE posts SET title = ?, slug = ?, excerpt = ?, body = ?, cover_image_url = ?, read_time_minutes = ? WHERE id = ?`,
			f.Title, f.Slug, f.Excerpt, f.Body, f.CoverImageURL, f.ReadTimeMinutes, id)
	}
	if err != nil {
		return Post{}, err
	}
	if _, err := tx.Exec(`DELETE FROM post_tags WHERE post_id = ?`, id); err != nil {
		return Post{}, err
	}
	if err := replacePostTags(tx, id, f.TagIDs); err != nil {
		return Post{}, err
	}
	if err := tx.Commit(); err != nil {
		return Post{}, err
	}
	return s.GetPost(id)
}

func (s *SQLiteStore) PublishPost(id int) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp := s.now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.Exec(`UPDATE posts SET status = ?, published_at = ? WHERE id = ?`,
		string(StatusPublished), stamp, id)
	if err != nil {
		return Post{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Post{}, err
	}
	if n == 0 {
		return Post{}, fmt.Errorf("%w: post %d", ErrNotFound, id)
	}
	return s.GetPost(id)
}

func (s *SQLiteStore) UnpublishPost(id int) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`UPDATE posts SET status = ?, published_at = NULL WHERE id = ?`,
		string(StatusDraft), id)
	if err != nil {
		return Post{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Post{}, err
	}
	if n == 0 {
		return Post{}, fmt.Errorf("%w: post %d", ErrNotFound, id)
	}
	return s.GetPost(id)
}

func (s *SQLiteStore) DeletePost(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	res, err := tx.Exec(`DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: post %d", ErrNotFound, id)
	}
	if _, err := tx.Exec(`DELETE FROM post_tags WHERE post_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) QueryPosts(f Filter, page, size int) (Page, error) {
	posts, err := s.ListPosts(false)
	if err != nil {
		return Page{}, err
	}
	return queryPosts(posts, f, page, size)
}

func (s *SQLiteStore) GetSettings() (Settings, error) {
	var data string
	if err := s.db.QueryRow(`SELECT data FROM settings WHERE id = 1`).Scan(&data); err != nil {
		return Settings{}, err
	}
	var settings Settings
	if err := json.Unmarshal([]byte(data), &settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func (s *SQLiteStore) PatchSettings(p SettingsPatch) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.GetSettings()
	if err != nil {
		return Settings{}, err
	}
	updated := applyPatch(current, p)
	data, err := json.Marshal(updated)
	if err != nil {
		return Settings{}, err
	}
	if _, err := s.db.Exec(`UPDATE settings SET data = ? WHERE id = 1`, string(data)); err != nil {
		return Settings{}, err
	}
	return updated, nil
}

// replacePostTags inserts associations for the tag ids that actually exist;
// unknown ids are dropped the same way the in-memory store drops them.
func replacePostTags(tx *sql.Tx, postID int, tagIDs []int) error {
	seen := make(map[int]struct{}, len(tagIDs))
	for _, tagID := range tagIDs {
		if _, dup := seen[tagID]; dup {
			continue
		}
		seen[tagID] = struct{}{}
		var exists int
		err := tx.QueryRow(`SELECT id FROM tags WHERE id = ?`, tagID).Scan(&exists)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO post_tags (post_id, tag_id) VALUES (?, ?)`, postID, tagID); err != nil {
			return err
		}
	}
	return nil
}

// loadPosts reads posts (newest first) plus their tags in registry order.
func (s *SQLiteStore) loadPosts(where string, args ...any) ([]Post, error) {
	rows, err := s.db.Query(`SELECT p.id, p.title, p.slug, p.excerpt, p.body, p.cover_image_url, p.status, p.published_at, p.read_time_minutes
		FROM posts p `+where+` ORDER BY p.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var posts []Post
	index := make(map[int]int)
	for rows.Next() {
		var p Post
		var status string
		var publishedAt sql.NullString
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Body, &p.CoverImageURL, &status, &publishedAt, &p.ReadTimeMinutes); err != nil {
			return nil, err
		}
		p.Status = PostStatus(status)
		if publishedAt.Valid {
			at, err := time.Parse(time.RFC3339Nano, publishedAt.String)
			if err != nil {
				return nil, fmt.Errorf("parse published_at for post %d: %w", p.ID, err)
			}
			p.PublishedAt = &at
		}
		index[p.ID] = len(posts)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}
	tagRows, err := s.db.Query(`SELECT pt.post_id, t.id, t.name, t.slug
		FROM post_tags pt JOIN tags t ON t.id = pt.tag_id ORDER BY t.id`)
	if err != nil {
		return nil, err
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var postID int
		var t Tag
		if err := tagRows.Scan(&postID, &t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		if i, ok := index[postID]; ok {
			posts[i].Tags = append(posts[i].Tags, t)
		}
	}
	return posts, tagRows.Err()
}
