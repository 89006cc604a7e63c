// Package blockpress is a server-rendered blog built with Go, Echo and
// html/template. Posts are sequences of typed content blocks stored in
// SQLite or PostgreSQL and served as HTML pages, a JSON API, RSS and a
// sitemap.
package blockpress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/blockpress/markdown"
	"github.com/eringen/blockpress/storage"
	"github.com/eringen/blockpress/views"
)

// API clients may make apiRateLimit requests per apiRateWindow per IP.
const (
	apiRateLimit  = 120
	apiRateWindow = time.Minute
)

const shutdownTimeout = 10 * time.Second

// App is the central blockpress application. It wires together the
// repository, cache, views, handlers and middleware.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Repo   storage.Repository
	Cache  *PostCache
	Blog   *Blog
	Views  *views.Engine
	Logger *slog.Logger

	apiLimiter   *RequestLimiter
	customRoutes []func(*App)
	ownsRepo     bool
	ready        bool
}

// New creates an App with the given configuration. Nothing is opened until
// Setup or Start.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	a := &App{
		Config:   cfg,
		Echo:     e,
		Logger:   slog.Default(),
		ownsRepo: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Setup opens the repository unless one was supplied, builds the cache and
// the template engine, and registers middleware and routes. It runs once;
// later calls return nil.
func (a *App) Setup(ctx context.Context) error {
	if a.ready {
		return nil
	}
	if a.Repo == nil {
		repo, err := storage.Open(ctx, a.Config.DatabaseURL)
		if err != nil {
			return fmt.Errorf("blockpress: open storage: %w", err)
		}
		a.Repo = repo
	}

	cache, err := NewPostCache(a.Repo, a.Config.PostCacheTTL)
	if err != nil {
		return err
	}
	a.Cache = cache
	a.Blog = NewBlog(a.Repo, cache)

	engine, err := views.New(a.Config.Views(), markdown.New())
	if err != nil {
		return fmt.Errorf("blockpress: init views: %w", err)
	}
	a.Views = engine

	a.apiLimiter = NewRequestLimiter(apiRateLimit, apiRateWindow)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// Start sets the App up and serves HTTP until ctx is cancelled, then shuts
// the server down gracefully.
func (a *App) Start(ctx context.Context) error {
	if err := a.Setup(ctx); err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() {
		a.Logger.Info("listening", "addr", a.Config.Addr, "url", a.Config.URL)
		errc <- a.Echo.Start(a.Config.Addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.Echo.Shutdown(shutdownCtx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/static/*", echo.WrapHandler(http.FileServer(http.FS(StaticAssets))))
	e.GET("/healthz", a.handleHealth)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/", a.handleHome)
	e.GET("/blog", a.handleBlogList)
	e.GET("/blog/:slug", a.handlePost)
	e.GET("/contact", a.handleContact)

	api := e.Group("/api", a.apiLimiter.Middleware)
	api.GET("/blog", a.handleAPIList)
	api.GET("/blog/:slug", a.handleAPIPost)
}

// Close releases the cache, the rate limiter and, when the App opened it,
// the repository.
func (a *App) Close() error {
	if a.apiLimiter != nil {
		a.apiLimiter.Stop()
	}
	if a.Cache != nil {
		a.Cache.Close()
	}
	if a.Repo != nil && a.ownsRepo {
		return a.Repo.Close()
	}
	return nil
}
