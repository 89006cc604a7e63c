// Package blocks renders content blocks to self-contained HTML fragments.
package blocks

import (
	"errors"
	"fmt"
	"html"
	"html/template"
	"net/url"
	"strings"

	"github.com/eringen/blockpress/content"
	"github.com/eringen/blockpress/markdown"
)

// ErrUnknownBlock is returned for a value that is not one of the content
// block variants.
var ErrUnknownBlock = errors.New("blocks: unknown block variant")

// Renderer turns blocks into HTML. It holds no mutable state and is safe
// for concurrent use.
type Renderer struct {
	md *markdown.Renderer
}

// New returns a Renderer that uses md for markdown-bearing fields.
func New(md *markdown.Renderer) *Renderer {
	return &Renderer{md: md}
}

// Render returns the fragment for b. The result is already escaped and
// sanitized, so templates insert it verbatim.
func (r *Renderer) Render(b content.Block) (template.HTML, error) {
	var out string
	switch b := b.(type) {
	case content.Heading:
		out = fmt.Sprintf(`<h2 class="text-2xl font-bold text-gray-900 mb-4">%s</h2>`, Escape(b.Text))
	case content.Paragraph:
		out = fmt.Sprintf(`<div class="prose prose-lg max-w-none mb-6">%s</div>`, r.md.Render(b.Markdown))
	case content.Code:
		out = fmt.Sprintf(`<div class="bg-gray-900 rounded-lg p-4 mb-6 overflow-x-auto">
    <pre><code class="language-%s text-gray-100 font-mono text-sm">%s</code></pre>
</div>`, Escape(b.Language), Escape(b.Code))
	case content.Callout:
		th := calloutTheme(b.Style)
		out = fmt.Sprintf(`<div class="border-l-4 %s %s %s p-4 mb-6 rounded-r-lg">
    <div class="flex items-start">
        <span class="text-lg mr-3 flex-shrink-0">%s</span>
        <div class="prose prose-sm max-w-none">%s</div>
    </div>
</div>`, th.border, th.bg, th.text, th.icon, r.md.Render(b.Markdown))
	case content.Card:
		out = fmt.Sprintf(`<div class="bg-white border border-gray-200 rounded-lg p-6 mb-6 hover:shadow-md transition-shadow">
    <h3 class="text-lg font-semibold text-gray-900 mb-2">%s</h3>
    <p class="text-gray-600 mb-4">%s</p>
    <a href="%s" class="inline-flex items-center text-blue-600 hover:text-blue-800 font-medium" target="_blank" rel="noopener noreferrer">Read more →</a>
</div>`, Escape(b.Title), Escape(b.Description), Escape(SafeURL(b.Link)))
	case content.Image:
		caption := ""
		if b.Caption != nil {
			caption = fmt.Sprintf(`
    <figcaption class="text-center text-gray-600 text-sm mt-2">%s</figcaption>`, Escape(*b.Caption))
		}
		out = fmt.Sprintf(`<figure class="mb-6">
    <img src="%s" alt="%s" class="w-full rounded-lg shadow-sm" loading="lazy">%s
</figure>`, Escape(SafeURL(b.Src)), Escape(b.Alt), caption)
	case content.Quote:
		author := ""
		if b.Author != nil {
			author = fmt.Sprintf(`
    <cite class="text-gray-600 text-sm font-medium">— %s</cite>`, Escape(*b.Author))
		}
		out = fmt.Sprintf(`<blockquote class="border-l-4 border-gray-300 pl-6 py-4 mb-6 italic text-gray-700 bg-gray-50 rounded-r-lg">
    <p class="text-lg mb-2">“%s”</p>%s
</blockquote>`, Escape(b.Text), author)
	default:
		return "", fmt.Errorf("%w: %T", ErrUnknownBlock, b)
	}
	return template.HTML(out), nil
}

type theme struct {
	bg, border, text, icon string
}

var calloutThemes = map[string]theme{
	content.CalloutWarning: {"bg-yellow-50", "border-yellow-200", "text-yellow-800", "⚠️"},
	content.CalloutInfo:    {"bg-blue-50", "border-blue-200", "text-blue-800", "ℹ️"},
	content.CalloutSuccess: {"bg-green-50", "border-green-200", "text-green-800", "✅"},
	content.CalloutError:   {"bg-red-50", "border-red-200", "text-red-800", "❌"},
}

var defaultTheme = theme{"bg-gray-50", "border-gray-200", "text-gray-800", "📝"}

func calloutTheme(style string) theme {
	if th, ok := calloutThemes[style]; ok {
		return th
	}
	return defaultTheme
}

// Escape escapes & < > " and ' for use in element text and quoted
// attribute values.
func Escape(s string) string {
	return html.EscapeString(s)
}

// SafeURL returns raw unless it carries a scheme other than http, https,
// mailto or tel, in which case it returns "#". Relative URLs pass through.
func SafeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" || strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return val
	}
	parsed, err := url.Parse(val)
	if err != nil {
		return "#"
	}
	switch strings.ToLower(parsed.Scheme) {
	case "", "http", "https", "mailto", "tel":
		return val
	default:
		return "#"
	}
}
