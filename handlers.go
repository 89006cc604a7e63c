package blockpress

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/blockpress/views"
)

func (a *App) handleHome(c echo.Context) error {
	return Render(c, a.Views.Home())
}

func (a *App) handleBlogList(c echo.Context) error {
	page := queryInt(c, "page", 1)
	res, err := a.Blog.ListPosts(c.Request().Context(), page, a.Config.PostsPerPage)
	if err != nil {
		return err
	}
	return Render(c, a.Views.BlogList(res.Posts, res.Page, res.TotalPages))
}

func (a *App) handlePost(c echo.Context) error {
	post, err := a.Blog.GetPost(c.Request().Context(), c.Param("slug"))
	if errors.Is(err, ErrNotFound) {
		return echo.ErrNotFound
	}
	if err != nil {
		return err
	}
	return Render(c, a.Views.BlogPost(post))
}

func (a *App) handleContact(c echo.Context) error {
	return Render(c, a.Views.Contact())
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.allPosts(c)
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	res, err := a.Blog.ListPosts(c.Request().Context(), 1, feedSize)
	if err != nil {
		return err
	}
	return a.renderRSS(c, res.Posts)
}

// handleRobots allows every crawler and points it at the sitemap.
func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nAllow: /\n\nSitemap: " + views.BuildURL(a.Config.URL, "sitemap.xml") + "\n"
	return c.String(http.StatusOK, body)
}

func (a *App) handleHealth(c echo.Context) error {
	if _, err := a.Repo.CountPosts(c.Request().Context()); err != nil {
		a.Logger.Error("health check failed", "err", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// queryInt reads a positive integer query parameter. Missing, malformed and
// non-positive values all yield fallback.
func queryInt(c echo.Context, name string, fallback int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func isAPI(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
	case errors.Is(err, ErrNotFound):
		code = http.StatusNotFound
	}

	// Error responses must not outlive the fault in shared caches.
	if code == http.StatusNotFound || code >= 500 {
		c.Response().Header().Set("Cache-Control", "no-store")
	}

	switch {
	case code == http.StatusNotFound:
		if isAPI(c) {
			_ = c.JSON(code, apiError{Error: "Not found"})
			return
		}
		if rerr := RenderStatus(c, code, a.Views.NotFound()); rerr != nil {
			a.Logger.Error("render not found page", "err", rerr)
			_ = c.String(code, http.StatusText(code))
		}
	case code >= 500:
		a.Logger.Error("server error",
			"method", c.Request().Method,
			"uri", c.Request().RequestURI,
			"err", err)
		if isAPI(c) {
			_ = c.JSON(code, apiError{Error: "Internal server error"})
			return
		}
		if rerr := RenderStatus(c, code, a.Views.ServerError()); rerr != nil {
			a.Logger.Error("render error page", "err", rerr)
			_ = c.String(code, http.StatusText(code))
		}
	default:
		a.Echo.DefaultHTTPErrorHandler(err, c)
	}
}
