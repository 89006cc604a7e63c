package blockpress

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"

	"github.com/eringen/blockpress/storage"
	"github.com/eringen/blockpress/views"
)

// SiteConfig holds all configuration for a blockpress site.
type SiteConfig struct {
	Name         string `toml:"name"`          // Site name (default "Blog")
	URL          string `toml:"url"`           // Canonical URL (default "http://localhost:3000")
	Description  string `toml:"description"`   // Site description for RSS and meta tags
	Author       string `toml:"author"`        // Author name for JSON-LD
	ContactEmail string `toml:"contact_email"` // Shown on the contact page

	Addr        string `toml:"addr"`         // Listen address (default ":3000")
	DatabaseURL string `toml:"database_url"` // SQLite path or postgres:// URL (default "data/blog.db")

	PostsPerPage  int           `toml:"posts_per_page"`   // Blog list page size (default 10)
	APIMaxPerPage int           `toml:"api_max_per_page"` // Upper bound of per_page on the API (default 100)
	PostCacheTTL  time.Duration `toml:"post_cache_ttl"`   // Post cache TTL (default 5min)

	LogFile string `toml:"log_file"` // Rotated JSON log file; empty logs to stderr only
	Debug   bool   `toml:"debug"`
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimRight(c.URL, "/")
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = "data/blog.db"
	}
	if c.PostsPerPage <= 0 {
		c.PostsPerPage = 10
	}
	if c.APIMaxPerPage <= 0 {
		c.APIMaxPerPage = 100
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
}

// Validate checks the values a running site depends on.
func (c SiteConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&c.URL, validation.Required, is.URL),
		validation.Field(&c.ContactEmail, is.EmailFormat),
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.DatabaseURL, validation.Required),
		validation.Field(&c.PostsPerPage, validation.Min(1), validation.Max(c.APIMaxPerPage)),
		validation.Field(&c.APIMaxPerPage, validation.Min(1)),
		validation.Field(&c.PostCacheTTL, validation.Min(time.Duration(0))),
	)
}

// Views returns the subset of the configuration page templates read.
func (c SiteConfig) Views() views.SiteConfig {
	return views.SiteConfig{
		Name:         c.Name,
		URL:          c.URL,
		Description:  c.Description,
		Author:       c.Author,
		ContactEmail: c.ContactEmail,
	}
}

// LoadConfig builds a SiteConfig. Sources are applied in order, later ones
// winning: the TOML file at path (or $BLOCKPRESS_CONFIG), a .env file in
// the working directory, then the process environment. Defaults fill what
// is still unset, and the result is validated.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path == "" {
		path = os.Getenv("BLOCKPRESS_CONFIG")
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("blockpress: read config %s: %w", path, err)
		}
	}
	// godotenv.Load never overrides variables already set in the process.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("blockpress: read .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("blockpress: invalid config: %w", err)
	}
	return cfg, nil
}

func (c *SiteConfig) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("SITE_NAME", &c.Name)
	str("SITE_URL", &c.URL)
	str("SITE_DESCRIPTION", &c.Description)
	str("SITE_AUTHOR", &c.Author)
	str("SITE_CONTACT_EMAIL", &c.ContactEmail)
	str("ADDR", &c.Addr)
	str("DATABASE_URL", &c.DatabaseURL)
	str("LOG_FILE", &c.LogFile)

	for key, dst := range map[string]*int{
		"POSTS_PER_PAGE":   &c.PostsPerPage,
		"API_MAX_PER_PAGE": &c.APIMaxPerPage,
	} {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("blockpress: %s: %w", key, err)
			}
			*dst = n
		}
	}
	if v, ok := lookup("POST_CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("blockpress: POST_CACHE_TTL: %w", err)
		}
		c.PostCacheTTL = d
	}
	if v, ok := lookup("DEBUG"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("blockpress: DEBUG: %w", err)
		}
		c.Debug = b
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are set up.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithRepository makes the App read posts from r instead of opening
// DatabaseURL. The App does not close r.
func WithRepository(r storage.Repository) Option {
	return func(a *App) {
		a.Repo = r
		a.ownsRepo = false
	}
}

// WithLogger replaces the App's logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}
