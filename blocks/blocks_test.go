package blocks

import (
	"errors"
	"strings"
	"testing"

	"github.com/eringen/blockpress/content"
	"github.com/eringen/blockpress/markdown"
)

var testRenderer = New(markdown.New())

func strPtr(s string) *string { return &s }

func render(t *testing.T, b content.Block) string {
	t.Helper()
	got, err := testRenderer.Render(b)
	if err != nil {
		t.Fatalf("Render(%#v): %v", b, err)
	}
	return string(got)
}

type foreignBlock struct{ content.Heading }

func TestRenderHeadingEscapes(t *testing.T) {
	got := render(t, content.Heading{Text: `Tom & "Jerry" <3 'em`})
	want := `<h2 class="text-2xl font-bold text-gray-900 mb-4">Tom &amp; &#34;Jerry&#34; &lt;3 &#39;em</h2>`
	if got != want {
		t.Errorf("heading = %q, want %q", got, want)
	}
}

func TestRenderParagraphUsesMarkdown(t *testing.T) {
	got := render(t, content.Paragraph{Markdown: "**bold** text"})
	if !strings.Contains(got, "<strong>bold</strong> text") {
		t.Errorf("paragraph = %q", got)
	}
	if !strings.HasPrefix(got, `<div class="prose prose-lg max-w-none mb-6">`) {
		t.Errorf("paragraph wrapper missing: %q", got)
	}
}

func TestRenderParagraphSanitizes(t *testing.T) {
	got := render(t, content.Paragraph{Markdown: "hi <script>alert(1)</script>"})
	if strings.Contains(got, "<script") {
		t.Errorf("script must be stripped: %q", got)
	}
}

func TestRenderCodeIsVerbatim(t *testing.T) {
	code := "if a < b && c > d { s := \"x\" + 'y' }\n**bold**"
	got := render(t, content.Code{Language: "go", Code: code})
	if strings.Contains(got, "<strong>") {
		t.Errorf("code must not be markdown-processed: %q", got)
	}
	if !strings.Contains(got, "**bold**") {
		t.Errorf("markdown syntax should render literally: %q", got)
	}
	inner := got[strings.Index(got, "font-mono text-sm\">")+len("font-mono text-sm\">") : strings.Index(got, "</code>")]
	for _, raw := range []string{"<", ">", `"`, "'"} {
		if strings.Contains(inner, raw) {
			t.Errorf("code body %q contains raw %q", inner, raw)
		}
	}
	if strings.Contains(strings.ReplaceAll(inner, "&amp;", ""), "&&") {
		t.Errorf("ampersands must be escaped: %q", inner)
	}
	for _, esc := range []string{"&lt;", "&gt;", "&amp;&amp;", "&#34;", "&#39;"} {
		if !strings.Contains(inner, esc) {
			t.Errorf("code body %q missing escaped form %q", inner, esc)
		}
	}
	if !strings.Contains(got, `class="language-go text-gray-100`) {
		t.Errorf("language class missing: %q", got)
	}
}

func TestRenderCodeLanguageEscaped(t *testing.T) {
	got := render(t, content.Code{Language: `go" onmouseover="x`, Code: "x"})
	if strings.Contains(got, `" onmouseover="`) {
		t.Errorf("language must be escaped inside the attribute: %q", got)
	}
}

func TestRenderCalloutThemes(t *testing.T) {
	tests := []struct {
		style string
		class string
		icon  string
	}{
		{"warning", "bg-yellow-50", "⚠️"},
		{"info", "bg-blue-50", "ℹ️"},
		{"success", "bg-green-50", "✅"},
		{"error", "bg-red-50", "❌"},
		{"banana", "bg-gray-50", "📝"},
		{"", "bg-gray-50", "📝"},
		{"WARNING", "bg-gray-50", "📝"},
	}
	for _, tt := range tests {
		got := render(t, content.Callout{Style: tt.style, Markdown: "*note*"})
		if !strings.Contains(got, tt.class) || !strings.Contains(got, tt.icon) {
			t.Errorf("callout %q = %q, want class %q and icon %q", tt.style, got, tt.class, tt.icon)
		}
		if !strings.Contains(got, "<em>note</em>") {
			t.Errorf("callout %q should render markdown: %q", tt.style, got)
		}
	}
}

func TestRenderCard(t *testing.T) {
	got := render(t, content.Card{Title: "<T>", Description: "a & b", Link: "https://example.com/?a=1&b=2"})
	for _, want := range []string{"&lt;T&gt;", "a &amp; b", `href="https://example.com/?a=1&amp;b=2"`, `rel="noopener noreferrer"`} {
		if !strings.Contains(got, want) {
			t.Errorf("card = %q, missing %q", got, want)
		}
	}
}

func TestRenderCardRejectsScriptURL(t *testing.T) {
	got := render(t, content.Card{Title: "t", Description: "d", Link: "javascript:alert(1)"})
	if strings.Contains(got, "javascript:") {
		t.Errorf("script URL must not reach href: %q", got)
	}
	if !strings.Contains(got, `href="#"`) {
		t.Errorf("expected neutral href: %q", got)
	}
}

func TestRenderImage(t *testing.T) {
	got := render(t, content.Image{Src: "/img/a.png", Alt: `a "quoted" alt`, Caption: strPtr("Fig <1>")})
	for _, want := range []string{`src="/img/a.png"`, `alt="a &#34;quoted&#34; alt"`, "<figcaption", "Fig &lt;1&gt;"} {
		if !strings.Contains(got, want) {
			t.Errorf("image = %q, missing %q", got, want)
		}
	}

	bare := render(t, content.Image{Src: "/img/b.png", Alt: "b"})
	if strings.Contains(bare, "<figcaption") {
		t.Errorf("image without caption should omit figcaption: %q", bare)
	}
}

func TestRenderQuote(t *testing.T) {
	got := render(t, content.Quote{Text: "less is <more>", Author: strPtr("Mies")})
	if !strings.Contains(got, "less is &lt;more&gt;") || !strings.Contains(got, "<cite") || !strings.Contains(got, "Mies") {
		t.Errorf("quote = %q", got)
	}
	bare := render(t, content.Quote{Text: "anon"})
	if strings.Contains(bare, "<cite") {
		t.Errorf("quote without author should omit cite: %q", bare)
	}
}

func TestRenderUnknownBlock(t *testing.T) {
	for _, b := range []content.Block{nil, foreignBlock{}} {
		_, err := testRenderer.Render(b)
		if !errors.Is(err, ErrUnknownBlock) {
			t.Errorf("Render(%#v) err = %v, want ErrUnknownBlock", b, err)
		}
	}
}

func TestRenderIsOrderIndependent(t *testing.T) {
	a := content.Callout{Style: "info", Markdown: "first"}
	b := content.Heading{Text: "second"}
	a1, b1 := render(t, a), render(t, b)
	b2, a2 := render(t, b), render(t, a)
	if a1 != a2 || b1 != b2 {
		t.Errorf("rendering should not depend on call order")
	}
}

func TestSafeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://example.com", "https://example.com"},
		{"http://example.com/x", "http://example.com/x"},
		{"mailto:me@example.com", "mailto:me@example.com"},
		{"/relative/path", "/relative/path"},
		{"relative.png", "relative.png"},
		{"#anchor", "#anchor"},
		{"javascript:alert(1)", "#"},
		{"  JavaScript:alert(1)", "#"},
		{"data:text/html,hi", "#"},
	}
	for _, tt := range tests {
		if got := SafeURL(tt.in); got != tt.want {
			t.Errorf("SafeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
