package views

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/eringen/blockpress/blocks"
	"github.com/eringen/blockpress/content"
	"github.com/eringen/blockpress/markdown"
)

var testSite = SiteConfig{
	Name:         "Field Notes",
	URL:          "https://notes.example.com",
	Description:  "Writing about small systems.",
	Author:       "Sam Doe",
	ContactEmail: "hello@example.com",
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(testSite, markdown.New())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}

func ptr[T any](v T) *T { return &v }

type foreignBlock struct{ content.Heading }

func TestNewPagination(t *testing.T) {
	tests := []struct {
		page, total int
		want        Pagination
	}{
		{1, 5, Pagination{CurrentPage: 1, TotalPages: 5, HasPrev: false, HasNext: true, PrevPage: 1, NextPage: 2}},
		{3, 5, Pagination{CurrentPage: 3, TotalPages: 5, HasPrev: true, HasNext: true, PrevPage: 2, NextPage: 4}},
		{5, 5, Pagination{CurrentPage: 5, TotalPages: 5, HasPrev: true, HasNext: false, PrevPage: 4, NextPage: 5}},
		{1, 1, Pagination{CurrentPage: 1, TotalPages: 1, HasPrev: false, HasNext: false, PrevPage: 1, NextPage: 1}},
		{1, 0, Pagination{CurrentPage: 1, TotalPages: 0, HasPrev: false, HasNext: false, PrevPage: 1, NextPage: 0}},
	}
	for _, tt := range tests {
		if got := NewPagination(tt.page, tt.total); got != tt.want {
			t.Errorf("NewPagination(%d, %d) = %+v, want %+v", tt.page, tt.total, got, tt.want)
		}
	}
}

func TestRenderHome(t *testing.T) {
	e := newTestEngine(t)
	out, err := e.RenderHome()
	if err != nil {
		t.Fatalf("RenderHome failed: %v", err)
	}
	if !strings.Contains(out, "<title>Field Notes</title>") {
		t.Errorf("home title missing:\n%s", out)
	}
	if !strings.Contains(out, `"@type":"WebSite"`) {
		t.Errorf("home should embed WebSite JSON-LD:\n%s", out)
	}
	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Errorf("home should be a full document")
	}
}

func TestRenderBlogPost(t *testing.T) {
	e := newTestEngine(t)
	published := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	post := content.Post{
		Title:       "Hello",
		Slug:        "hello",
		PublishedAt: &published,
		Blocks: content.Blocks{
			content.Heading{Text: "Intro"},
			content.Paragraph{Markdown: "**bold** text"},
		},
		CreatedAt: published,
		UpdatedAt: published,
	}

	out, err := e.RenderBlogPost(post)
	if err != nil {
		t.Fatalf("RenderBlogPost failed: %v", err)
	}
	if !strings.Contains(out, "<title>Hello - Field Notes</title>") {
		t.Errorf("post title missing:\n%s", out)
	}
	if !strings.Contains(out, "<strong>bold</strong>") {
		t.Errorf("paragraph markdown not rendered:\n%s", out)
	}
	if !strings.Contains(out, ">Intro</h2>") {
		t.Errorf("heading block not rendered:\n%s", out)
	}
	if strings.Index(out, "Intro") > strings.Index(out, "<strong>bold</strong>") {
		t.Errorf("blocks rendered out of order")
	}
	if !strings.Contains(out, "March 05, 2024") {
		t.Errorf("publish date not formatted:\n%s", out)
	}
	if !strings.Contains(out, `"@type":"BlogPosting"`) {
		t.Errorf("post should embed BlogPosting JSON-LD")
	}
}

func TestRenderBlogPostEscapesTitle(t *testing.T) {
	e := newTestEngine(t)
	out, err := e.RenderBlogPost(content.Post{Title: "Tom & <Jerry>", Slug: "tj"})
	if err != nil {
		t.Fatalf("RenderBlogPost failed: %v", err)
	}
	if strings.Contains(out, "<Jerry>") {
		t.Errorf("title should be escaped:\n%s", out)
	}
	if !strings.Contains(out, "Tom &amp; &lt;Jerry&gt;") {
		t.Errorf("escaped title missing:\n%s", out)
	}
}

func TestRenderBlogList(t *testing.T) {
	e := newTestEngine(t)
	published := time.Now().Add(-2 * time.Hour)
	posts := []content.PostSummary{
		{Title: "Second", Slug: "second", PublishedAt: &published},
		{Title: "First", Slug: "first", PublishedAt: &published, CoverImage: ptr("/static/first.png")},
	}

	out, err := e.RenderBlogList(posts, 2, 3)
	if err != nil {
		t.Fatalf("RenderBlogList failed: %v", err)
	}
	for _, want := range []string{
		"<title>Blog - Field Notes</title>",
		`href="/blog/second"`,
		`href="/blog/first"`,
		`src="/static/first.png"`,
		`href="/blog?page=1"`,
		`href="/blog?page=3"`,
		"Page 2 of 3",
		"2 hours ago",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("blog list missing %q", want)
		}
	}
}

func TestRenderBlogListSinglePageHasNoNav(t *testing.T) {
	e := newTestEngine(t)
	out, err := e.RenderBlogList(nil, 1, 1)
	if err != nil {
		t.Fatalf("RenderBlogList failed: %v", err)
	}
	if strings.Contains(out, `class="pagination`) {
		t.Errorf("single page should not render pagination")
	}
	if !strings.Contains(out, "No posts yet.") {
		t.Errorf("empty state missing")
	}
}

func TestRenderContactAndErrors(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		name   string
		render func() (string, error)
		want   string
	}{
		{"contact", e.RenderContact, "mailto:hello@example.com"},
		{"not found", e.RenderNotFound, "Page not found"},
		{"error", e.RenderError, "Something went wrong"},
	}
	for _, tt := range tests {
		out, err := tt.render()
		if err != nil {
			t.Fatalf("%s: render failed: %v", tt.name, err)
		}
		if !strings.Contains(out, tt.want) {
			t.Errorf("%s: missing %q", tt.name, tt.want)
		}
	}
}

func TestPageUnknownTemplate(t *testing.T) {
	e := newTestEngine(t)
	_, err := renderString(e.Page("nope.html", nil))
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("err = %v, want ErrTemplateNotFound", err)
	}
	var te *TemplateError
	if !errors.As(err, &te) || te.Page != "nope.html" {
		t.Fatalf("err = %v, want *TemplateError for nope.html", err)
	}
}

func TestPageMissingContextField(t *testing.T) {
	e := newTestEngine(t)
	_, err := renderString(e.Page(PageBlogPost, ContactPage{Title: "x", Site: testSite}))
	var te *TemplateError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TemplateError", err)
	}
}

func TestRenderBlockFilterRejectsForeignBlock(t *testing.T) {
	e := newTestEngine(t)
	post := content.Post{
		Title:  "Odd",
		Slug:   "odd",
		Blocks: content.Blocks{foreignBlock{content.Heading{Text: "x"}}},
	}
	_, err := e.RenderBlogPost(post)
	var te *TemplateError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TemplateError", err)
	}
}

func TestRenderBlockFilter(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.renderBlock("not a block"); !errors.Is(err, blocks.ErrUnknownBlock) {
		t.Fatalf("err = %v, want unknown block error", err)
	}
	got, err := e.renderBlock(content.Heading{Text: "Hi"})
	if err != nil {
		t.Fatalf("renderBlock failed: %v", err)
	}
	if !strings.Contains(string(got), ">Hi</h2>") {
		t.Errorf("renderBlock = %q", got)
	}
}

func TestMarkdownFilter(t *testing.T) {
	e := newTestEngine(t)
	got, err := e.markdown("*hi*")
	if err != nil {
		t.Fatalf("markdown failed: %v", err)
	}
	if !strings.Contains(string(got), "<em>hi</em>") {
		t.Errorf("markdown = %q", got)
	}
	if _, err := e.markdown(42); err == nil {
		t.Errorf("markdown(42) should fail")
	}
}

func TestDateFilter(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	tests := []struct {
		name    string
		value   any
		pattern []string
		want    string
	}{
		{"default pattern", ts, nil, "2024-03-05 14:07:09"},
		{"custom pattern", ts, []string{"%B %d, %Y"}, "March 05, 2024"},
		{"empty pattern uses default", ts, []string{""}, "2024-03-05 14:07:09"},
		{"pointer", &ts, []string{"%Y"}, "2024"},
		{"rfc3339 string", "2024-03-05T14:07:09+02:00", nil, "2024-03-05 12:07:09"},
		{"space separated utc", "2024-03-05 14:07:09Z", nil, "2024-03-05 14:07:09"},
		{"space separated offset", "2024-03-05 14:07:09.5-01:00", []string{"%H:%M"}, "15:07"},
	}
	for _, tt := range tests {
		got, err := formatDate(tt.value, tt.pattern...)
		if err != nil {
			t.Fatalf("%s: formatDate failed: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: formatDate = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestDateFilterErrors(t *testing.T) {
	var nilTime *time.Time
	for _, v := range []any{"yesterday", "2024-03-05 14:07:09", 1700000000, nilTime, nil} {
		if _, err := formatDate(v); err == nil {
			t.Errorf("formatDate(%#v) should fail", v)
		}
	}
}

func TestBlogPostingJsonLD(t *testing.T) {
	published := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	post := content.Post{
		Title:       "Hello",
		Slug:        "hello",
		PublishedAt: &published,
		Blocks:      content.Blocks{content.Paragraph{Markdown: "Some **strong** words."}},
	}
	got := BlogPostingJsonLD(testSite, post)
	for _, want := range []string{
		`"url":"https://notes.example.com/blog/hello"`,
		`"datePublished":"2024-03-05T00:00:00Z"`,
		`"description":"Some strong words."`,
		`"headline":"Hello"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("JSON-LD missing %s:\n%s", want, got)
		}
	}
}
