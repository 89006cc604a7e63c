package views

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/eringen/blockpress/content"
)

// BuildURL joins path segments onto a base URL.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	return u.String()
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block using cfg values.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      BuildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(cfg SiteConfig, post content.Post) string {
	postURL := BuildURL(cfg.URL, "blog", post.Slug)
	data := map[string]interface{}{
		"@context":     "https://schema.org",
		"@type":        "BlogPosting",
		"headline":     post.Title,
		"url":          postURL,
		"dateModified": post.UpdatedAt.UTC().Format(time.RFC3339),
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if post.PublishedAt != nil {
		data["datePublished"] = post.PublishedAt.UTC().Format(time.RFC3339)
	}
	if post.CoverImage != nil {
		data["image"] = *post.CoverImage
	}
	if desc := Excerpt(post, 160); desc != "" {
		data["description"] = desc
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Excerpt returns up to max runes of the post's first paragraph, with
// markdown emphasis markers dropped. It is used for meta descriptions.
func Excerpt(post content.Post, max int) string {
	for _, b := range post.Blocks {
		p, ok := b.(content.Paragraph)
		if !ok {
			continue
		}
		text := strings.Join(strings.Fields(p.Markdown), " ")
		text = strings.NewReplacer("**", "", "__", "", "`", "").Replace(text)
		runes := []rune(text)
		if len(runes) <= max {
			return text
		}
		return strings.TrimSpace(string(runes[:max])) + "…"
	}
	return ""
}
