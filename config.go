package devnotes

import "time"

// SiteConfig holds all configuration for a devnotes server. Fields are
// populated from environment variables; zero values fall back to defaults.
type SiteConfig struct {
	URL  string `env:"SITE_URL"`  // Canonical URL for feeds and sitemap
	Addr string `env:"ADDR"`      // Listen address (default ":8080")

	DatabasePath string `env:"DATABASE_PATH"` // SQLite path; empty runs in-memory
	UploadsDir   string `env:"UPLOADS_DIR"`   // Where uploaded images land

	AdminEmail    string        `env:"ADMIN_EMAIL"`    // Admin login identifier
	AdminPassword string        `env:"ADMIN_PASSWORD"` // Required: admin login password
	TokenSecret   string        `env:"TOKEN_SECRET"`   // Required: bearer token signing secret
	TokenTTL      time.Duration `env:"TOKEN_TTL"`      // Token lifetime (default 1h)

	AllowedOrigins []string      `env:"ALLOWED_ORIGINS"` // CORS origins for the SPA
	PostCacheTTL   time.Duration `env:"POST_CACHE_TTL"`  // Published-list cache TTL (default 5min)
}

func (c *SiteConfig) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.URL == "" {
		c.URL = "http://localhost:8080"
	}
	if c.UploadsDir == "" {
		c.UploadsDir = "public/uploads"
	}
	if c.AdminEmail == "" {
		c.AdminEmail = "admin@example.com"
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = time.Hour
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithStore injects a ContentStore, overriding the config-driven choice.
func WithStore(s ContentStore) Option {
	return func(a *App) {
		a.Store = s
	}
}

// WithCustomRoutes registers additional routes on the Echo instance before
// the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}
