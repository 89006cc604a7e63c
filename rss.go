package blockpress

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/blockpress/content"
	"github.com/eringen/blockpress/views"
)

// feedSize is the number of newest posts listed in the RSS feed.
const feedSize = 20

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title     string    `xml:"title"`
	Link      string    `xml:"link"`
	PubDate   string    `xml:"pubDate,omitempty"`
	GUID      rssGUID   `xml:"guid"`
	Enclosure *rssImage `xml:"enclosure,omitempty"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssImage struct {
	URL    string `xml:"url,attr"`
	Length int    `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

func (a *App) renderRSS(c echo.Context, posts []content.PostSummary) error {
	base := a.Config.URL
	items := make([]rssItem, 0, len(posts))
	var newest time.Time
	for _, p := range posts {
		item := rssItem{
			Title: p.Title,
			Link:  views.BuildURL(base, "blog", p.Slug),
			GUID:  rssGUID{Value: p.ID.String()},
		}
		if p.PublishedAt != nil {
			item.PubDate = p.PublishedAt.UTC().Format(time.RFC1123Z)
			if p.PublishedAt.After(newest) {
				newest = *p.PublishedAt
			}
		}
		if p.CoverImage != nil {
			item.Enclosure = &rssImage{URL: absoluteURL(base, *p.CoverImage), Type: imageMIME(*p.CoverImage)}
		}
		items = append(items, item)
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        base,
			Description: a.Config.Description,
			Items:       items,
		},
	}
	if !newest.IsZero() {
		feed.Channel.LastBuildDate = newest.UTC().Format(time.RFC1123Z)
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(feed)
}
