// Package devnotes is a headless blog content server built with Go and Echo.
// It owns the post/tag/settings store behind a JSON API: public reading
// endpoints, a bearer-gated admin surface, image uploads, RSS, and a sitemap.
//
// The store is transport-independent — it can run in memory or on SQLite —
// and the HTTP layer only translates requests into store operations and
// store errors into status codes.
package devnotes

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// App is the central devnotes application. It wires together the store,
// cache, access gate, handlers, and middleware.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  ContentStore

	cache        *publishedCache
	gate         *Gate
	loginLimiter *LoginLimiter
	customRoutes []func(*App)
}

// New creates a new devnotes App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes the store, cache, middleware, and routes, then starts
// the server.
func (a *App) Start() error {
	if err := a.init(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// init wires everything short of listening; split out so tests can drive
// the full stack through httptest.
func (a *App) init() error {
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("devnotes: AdminPassword is required")
	}
	if a.Config.TokenSecret == "" {
		return fmt.Errorf("devnotes: TokenSecret is required")
	}

	if a.Store == nil {
		if a.Config.DatabasePath != "" {
			store, err := NewSQLiteStore(a.Config.DatabasePath)
			if err != nil {
				return fmt.Errorf("devnotes: init store: %w", err)
			}
			a.Store = store
		} else {
			a.Store = NewMemoryStore()
		}
	}

	a.cache = newPublishedCache(a.Store, a.Config.PostCacheTTL)
	a.gate = NewGate(a.Config.TokenSecret, a.Config.TokenTTL)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Uploaded images are plain static files; the store only ever holds
	// their URLs.
	e.Static("/uploads", a.Config.UploadsDir)

	e.GET("/feed.xml", a.handleFeed)
	e.GET("/sitemap.xml", a.handleSitemap)

	api := e.Group("/api")
	api.GET("/posts", a.handleListPosts)
	api.GET("/posts/:slug", a.handleGetPost)
	api.GET("/tags", a.handleListTags)
	api.GET("/settings/public", a.handlePublicSettings)
	api.POST("/auth/login", a.handleLogin)

	admin := api.Group("/admin", a.requireAdmin)
	admin.GET("/posts", a.handleAdminListPosts)
	admin.POST("/posts", a.handleAdminCreatePost)
	admin.GET("/posts/:id", a.handleAdminGetPost)
	admin.PUT("/posts/:id", a.handleAdminUpdatePost)
	admin.DELETE("/posts/:id", a.handleAdminDeletePost)
	admin.POST("/posts/:id/publish", a.handleAdminPublishPost)
	admin.POST("/posts/:id/unpublish", a.handleAdminUnpublishPost)
	admin.GET("/tags", a.handleAdminListTags)
	admin.POST("/tags", a.handleAdminCreateTag)
	admin.PUT("/tags/:id", a.handleAdminUpdateTag)
	admin.DELETE("/tags/:id", a.handleAdminDeleteTag)
	admin.GET("/settings", a.handleAdminSettings)
	admin.PUT("/settings", a.handleAdminUpdateSettings)
	admin.POST("/uploads", a.handleImageUpload)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
