package devnotes

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Trimmed  ", "trimmed"},
		{"Already-slugged", "already-slugged"},
		{"Symbols & Stuff!", "symbols-stuff"},
		{"CamelCase123", "camelcase123"},
		{"", ""},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base     string
		segments []string
		want     string
	}{
		{"http://example.com", []string{"posts", "hello"}, "http://example.com/posts/hello"},
		{"http://example.com/base", []string{"uploads", "a.jpg"}, "http://example.com/base/uploads/a.jpg"},
		{"http://example.com", nil, "http://example.com"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.segments...); got != tt.want {
			t.Errorf("BuildURL(%q, %v) = %q, want %q", tt.base, tt.segments, got, tt.want)
		}
	}
}
