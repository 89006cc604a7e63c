package views

import (
	"html/template"

	"github.com/eringen/blockpress/content"
)

// SiteConfig holds the site-wide values every page template reads.
type SiteConfig struct {
	Name         string // SITE_NAME
	URL          string // SITE_URL, no trailing slash
	Description  string // SITE_DESCRIPTION
	Author       string // SITE_AUTHOR
	ContactEmail string // SITE_CONTACT_EMAIL
}

// HomePage is the context of home.html.
type HomePage struct {
	Title       string
	Description string
	Site        SiteConfig
	JSONLD      template.JS
}

// BlogListPage is the context of blog_list.html.
type BlogListPage struct {
	Title      string
	Site       SiteConfig
	Posts      []content.PostSummary
	Pagination Pagination
}

// BlogPostPage is the context of blog_post.html.
type BlogPostPage struct {
	Title  string
	Site   SiteConfig
	Post   content.Post
	JSONLD template.JS
}

// ContactPage is the context of contact.html.
type ContactPage struct {
	Title string
	Site  SiteConfig
}

// ErrorPage is the context of not_found.html and error.html.
type ErrorPage struct {
	Title string
	Site  SiteConfig
}

// Pagination carries the navigation state of a list page.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	HasPrev     bool
	HasNext     bool
	PrevPage    int
	NextPage    int
}

// NewPagination computes the navigation fields for page out of totalPages.
// PrevPage falls back to 1 and NextPage to totalPages at the edges.
func NewPagination(page, totalPages int) Pagination {
	p := Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		HasPrev:     page > 1,
		HasNext:     page < totalPages,
		PrevPage:    1,
		NextPage:    totalPages,
	}
	if p.HasPrev {
		p.PrevPage = page - 1
	}
	if p.HasNext {
		p.NextPage = page + 1
	}
	return p
}
