package blockpress

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/blockpress/content"
	"github.com/eringen/blockpress/views"
)

// Sitemaps are capped at 50,000 URLs.
const (
	sitemapBatch    = 500
	sitemapMaxPosts = 50000 - 3
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// allPosts pages through every published post, newest first.
func (a *App) allPosts(c echo.Context) ([]content.PostSummary, error) {
	var posts []content.PostSummary
	for page := 1; len(posts) < sitemapMaxPosts; page++ {
		res, err := a.Blog.ListPosts(c.Request().Context(), page, sitemapBatch)
		if err != nil {
			return nil, err
		}
		posts = append(posts, res.Posts...)
		if page >= res.TotalPages {
			break
		}
	}
	if len(posts) > sitemapMaxPosts {
		posts = posts[:sitemapMaxPosts]
	}
	return posts, nil
}

func (a *App) renderSitemap(c echo.Context, posts []content.PostSummary) error {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: views.BuildURL(base)},
		{Loc: views.BuildURL(base, "blog")},
		{Loc: views.BuildURL(base, "contact")},
	}
	for _, p := range posts {
		urls = append(urls, sitemapURL{
			Loc:     views.BuildURL(base, "blog", p.Slug),
			LastMod: p.UpdatedAt.UTC().Format("2006-01-02"),
		})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
