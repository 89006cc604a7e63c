// Package content holds the blog's data model: posts, post summaries and
// the closed set of typed content blocks a post is made of.
package content

import (
	"time"

	"github.com/google/uuid"
)

// Post is a full blog post including its block sequence.
type Post struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	PublishedAt *time.Time `json:"published_at"`
	CoverImage  *string    `json:"cover_image"`
	Blocks      Blocks     `json:"components"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PostSummary is a Post without its blocks, used by list views.
type PostSummary struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	PublishedAt *time.Time `json:"published_at"`
	CoverImage  *string    `json:"cover_image"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Summary projects p onto a PostSummary.
func (p Post) Summary() PostSummary {
	return PostSummary{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		PublishedAt: p.PublishedAt,
		CoverImage:  p.CoverImage,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// Visible reports whether readers may see the post at now: it must have a
// publish time that is not in the future.
func (p Post) Visible(now time.Time) bool {
	return p.PublishedAt != nil && !p.PublishedAt.After(now)
}

// Link returns the site-relative URL of the post.
func (s PostSummary) Link() string {
	return "/blog/" + s.Slug
}
