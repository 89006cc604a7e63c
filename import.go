package blockpress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/eringen/blockpress/content"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// PostSaver is anything posts can be upserted into.
type PostSaver interface {
	SavePost(ctx context.Context, p content.Post) error
}

// ImportPosts reads a JSON array of posts from r and upserts each into dst.
// Posts use the same shape the API serves. A missing id gets a fresh UUID,
// a missing slug is derived from the title, and missing timestamps are set
// to now. Every post is validated before any is saved.
func ImportPosts(ctx context.Context, dst PostSaver, r io.Reader) (int, error) {
	var posts []content.Post
	if err := json.NewDecoder(r).Decode(&posts); err != nil {
		return 0, fmt.Errorf("blockpress: decode posts: %w", err)
	}
	now := time.Now().UTC()
	for i := range posts {
		preparePost(&posts[i], now)
		if err := validatePost(posts[i]); err != nil {
			return 0, fmt.Errorf("blockpress: post %d (%q): %w", i, posts[i].Title, err)
		}
	}
	for i, p := range posts {
		if err := dst.SavePost(ctx, p); err != nil {
			return i, err
		}
	}
	return len(posts), nil
}

func preparePost(p *content.Post, now time.Time) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Slug == "" {
		p.Slug = slug.Make(p.Title)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
}

func validatePost(p content.Post) error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required, validation.Length(1, 300)),
		validation.Field(&p.Slug, validation.Required, validation.Match(slugPattern)),
		validation.Field(&p.CoverImage, validation.NilOrNotEmpty),
	)
}
