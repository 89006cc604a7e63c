// Package markdown converts post markdown into sanitized, styled HTML.
//
// The pipeline runs in a fixed order: goldmark parses and renders the
// source (raw HTML included), a bluemonday allow-list policy strips
// everything not explicitly permitted, and a final substitution pass adds
// presentation classes to a fixed set of tag openings.
package markdown

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// LinkRel is set on every anchor the renderer emits.
const LinkRel = "noopener noreferrer"

// LinkClass is prepended to the class list of every anchor.
const LinkClass = "text-blue-600 hover:text-blue-800 underline"

// Renderer is safe for concurrent use. Build it once and share it.
type Renderer struct {
	md      goldmark.Markdown
	policy  *bluemonday.Policy
	classes []substitution
}

type substitution struct {
	old, new string
}

// New returns a Renderer with strikethrough, tables, footnotes, task lists
// and smart punctuation enabled.
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Strikethrough,
			extension.Table,
			extension.Footnote,
			extension.TaskList,
			extension.Typographer,
		),
		// Raw HTML reaches the sanitizer, which is the only gate.
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &Renderer{md: md, policy: Policy(), classes: classSubstitutions}
}

// Policy returns the sanitizer allow-list used for rendered markdown.
func Policy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "strong", "em", "code", "pre", "blockquote",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li",
		"table", "thead", "tbody", "tr", "td", "th",
		"a", "img", "del", "ins", "sup", "sub",
	)
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")
	p.AllowAttrs("class").OnElements("code", "pre")
	p.AllowAttrs("class", "id").Globally()
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(true)
	return p
}

// Render converts src to sanitized HTML. It never fails: a conversion error
// is logged and whatever was produced up to that point is kept.
func (r *Renderer) Render(src string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		slog.Warn("markdown conversion failed", slog.Any("err", err))
	}
	clean := r.policy.SanitizeReader(&buf).String()
	return r.addClasses(clean)
}

// classSubstitutions is applied in order, each one over the whole output of
// the previous step, so a bare <pre><code> ends up with both the block and
// the inline code classes. Anchors are styled afterwards by styleAnchors.
// Both must only ever run on sanitized HTML: there every '<' that is not a
// tag has already been escaped, and so has every '"' and '>' inside an
// attribute value.
var classSubstitutions = []substitution{
	{"<code>", `<code class="bg-gray-100 px-1 py-0.5 rounded text-sm font-mono">`},
	{"<pre><code", `<pre class="bg-gray-900 text-gray-100 p-4 rounded-lg overflow-x-auto"><code`},
	{"<blockquote>", `<blockquote class="border-l-4 border-gray-300 pl-4 py-2 italic text-gray-700">`},
	{"<table>", `<table class="min-w-full divide-y divide-gray-200 my-4">`},
	{"<thead>", `<thead class="bg-gray-50">`},
	{"<th>", `<th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">`},
	{"<td>", `<td class="px-6 py-4 whitespace-nowrap text-sm text-gray-900">`},
	{"<ul>", `<ul class="list-disc list-inside space-y-1 my-4">`},
	{"<ol>", `<ol class="list-decimal list-inside space-y-1 my-4">`},
	{"<li>", `<li class="text-gray-700">`},
}

func (r *Renderer) addClasses(s string) string {
	for _, sub := range r.classes {
		s = strings.ReplaceAll(s, sub.old, sub.new)
	}
	return styleAnchors(s)
}

var (
	anchorTag = regexp.MustCompile(`<a ([^>]*)>`)
	classAttr = regexp.MustCompile(`(?:^|\s)class="([^"]*)"`)
)

// styleAnchors gives every anchor LinkClass and LinkRel. A class the anchor
// already carries is merged into the same attribute.
func styleAnchors(s string) string {
	return anchorTag.ReplaceAllStringFunc(s, func(tag string) string {
		attrs := tag[len("<a ") : len(tag)-1]
		class := LinkClass
		if m := classAttr.FindStringSubmatchIndex(attrs); m != nil {
			if existing := strings.TrimSpace(attrs[m[2]:m[3]]); existing != "" {
				class += " " + existing
			}
			attrs = attrs[:m[0]] + attrs[m[1]:]
		}
		var b strings.Builder
		b.WriteString(`<a class="`)
		b.WriteString(class)
		b.WriteString(`" rel="` + LinkRel + `"`)
		if attrs = strings.TrimSpace(attrs); attrs != "" {
			b.WriteString(" ")
			b.WriteString(attrs)
		}
		b.WriteString(">")
		return b.String()
	})
}
