// Package views holds the site's page templates and the engine that
// renders them.
//
// Templates are embedded html/template files parsed once by New. Each page
// gets its own template set made of base.html plus the page file, and a
// typed context struct listing exactly the fields it reads.
package views

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/blockpress/blocks"
	"github.com/eringen/blockpress/content"
	"github.com/eringen/blockpress/markdown"
)

// Page template names.
const (
	PageHome     = "home.html"
	PageBlogList = "blog_list.html"
	PageBlogPost = "blog_post.html"
	PageContact  = "contact.html"
	PageNotFound = "not_found.html"
	PageError    = "error.html"
)

const layout = "base.html"

var pageNames = []string{PageHome, PageBlogList, PageBlogPost, PageContact, PageNotFound, PageError}

//go:embed templates/*.html
var templateFS embed.FS

// Engine renders pages. Its template set is read-only after New, so one
// Engine serves concurrent requests.
type Engine struct {
	site   SiteConfig
	md     *markdown.Renderer
	blocks *blocks.Renderer
	pages  map[string]*template.Template
}

// New parses every page template. A parse error here is a startup failure.
func New(site SiteConfig, md *markdown.Renderer) (*Engine, error) {
	e := &Engine{
		site:   site,
		md:     md,
		blocks: blocks.New(md),
		pages:  make(map[string]*template.Template, len(pageNames)),
	}
	funcs := e.funcs()
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/"+layout, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("views: parse %s: %w", name, err)
		}
		e.pages[name] = t
	}
	return e, nil
}

// Site returns the configuration pages are rendered with.
func (e *Engine) Site() SiteConfig {
	return e.site
}

// Page returns a component that executes the named page against data.
// Failures are reported as *TemplateError.
func (e *Engine) Page(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, ok := e.pages[name]
		if !ok {
			return &TemplateError{Page: name, Err: ErrTemplateNotFound}
		}
		if err := t.ExecuteTemplate(w, layout, data); err != nil {
			return &TemplateError{Page: name, Err: err}
		}
		return nil
	})
}

// Home is the landing page.
func (e *Engine) Home() templ.Component {
	return e.Page(PageHome, HomePage{
		Title:       e.site.Name,
		Description: e.site.Description,
		Site:        e.site,
		JSONLD:      template.JS(WebsiteJsonLD(e.site)),
	})
}

// BlogList is one page of post summaries.
func (e *Engine) BlogList(posts []content.PostSummary, page, totalPages int) templ.Component {
	return e.Page(PageBlogList, BlogListPage{
		Title:      "Blog - " + e.site.Name,
		Site:       e.site,
		Posts:      posts,
		Pagination: NewPagination(page, totalPages),
	})
}

// BlogPost is a full post with every block rendered.
func (e *Engine) BlogPost(post content.Post) templ.Component {
	return e.Page(PageBlogPost, BlogPostPage{
		Title:  post.Title + " - " + e.site.Name,
		Site:   e.site,
		Post:   post,
		JSONLD: template.JS(BlogPostingJsonLD(e.site, post)),
	})
}

// Contact is the static contact page.
func (e *Engine) Contact() templ.Component {
	return e.Page(PageContact, ContactPage{Title: "Contact - " + e.site.Name, Site: e.site})
}

// NotFound is shown for unknown routes and missing posts.
func (e *Engine) NotFound() templ.Component {
	return e.Page(PageNotFound, ErrorPage{Title: "Not found - " + e.site.Name, Site: e.site})
}

// ServerError is shown for internal failures.
func (e *Engine) ServerError() templ.Component {
	return e.Page(PageError, ErrorPage{Title: "Something went wrong - " + e.site.Name, Site: e.site})
}

// RenderHome returns the home page document.
func (e *Engine) RenderHome() (string, error) {
	return renderString(e.Home())
}

// RenderBlogList returns a blog list page document.
func (e *Engine) RenderBlogList(posts []content.PostSummary, page, totalPages int) (string, error) {
	return renderString(e.BlogList(posts, page, totalPages))
}

// RenderBlogPost returns a post page document.
func (e *Engine) RenderBlogPost(post content.Post) (string, error) {
	return renderString(e.BlogPost(post))
}

// RenderContact returns the contact page document.
func (e *Engine) RenderContact() (string, error) {
	return renderString(e.Contact())
}

// RenderNotFound returns the not-found page document.
func (e *Engine) RenderNotFound() (string, error) {
	return renderString(e.NotFound())
}

// RenderError returns the server error page document.
func (e *Engine) RenderError() (string, error) {
	return renderString(e.ServerError())
}

func renderString(cmp templ.Component) (string, error) {
	var buf bytes.Buffer
	if err := cmp.Render(context.Background(), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
