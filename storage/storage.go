// Package storage persists blog posts. It defines the Repository contract
// the application reads through and ships SQLite and PostgreSQL backends.
package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/eringen/blockpress/content"
)

// ErrNotFound is returned when no visible post matches the request.
var ErrNotFound = errors.New("storage: post not found")

// Repository is the read and upsert surface of a post store. Reads only
// ever return published posts whose publish time is not in the future.
type Repository interface {
	// PostBySlug returns the published post with the given slug.
	PostBySlug(ctx context.Context, slug string) (content.Post, error)
	// ListPosts returns published summaries, newest first.
	ListPosts(ctx context.Context, limit, offset int) ([]content.PostSummary, error)
	// CountPosts returns the number of published posts.
	CountPosts(ctx context.Context) (int, error)
	// SavePost inserts p or replaces the post with the same slug.
	SavePost(ctx context.Context, p content.Post) error
	// DeletePost removes the post with the given slug, if any.
	DeletePost(ctx context.Context, slug string) error
	Close() error
}

//go:embed schema/*.sql
var schemaFS embed.FS

// Open picks a backend from dsn. postgres:// and postgresql:// URLs open a
// pgx pool, "memory:" an in-process store; anything else is taken as a
// SQLite file path, optionally prefixed with sqlite://.
func Open(ctx context.Context, dsn string) (Repository, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, dsn)
	case dsn == "memory:":
		return NewMemory(), nil
	case dsn == "":
		return nil, errors.New("storage: empty database url")
	default:
		return OpenSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	}
}

func loadSchema(name string) ([]string, error) {
	b, err := schemaFS.ReadFile("schema/" + name)
	if err != nil {
		return nil, err
	}
	var stmts []string
	for _, s := range strings.Split(string(b), ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts, nil
}

var (
	postColumns    = []string{"id", "title", "slug", "published_at", "cover_image", "components", "created_at", "updated_at"}
	summaryColumns = []string{"id", "title", "slug", "published_at", "cover_image", "created_at", "updated_at"}
)

// queries builds the statements both backends share. Backends differ in
// placeholder style and in how a time is passed as an argument.
type queries struct {
	sb      sq.StatementBuilderType
	timeArg func(time.Time) any
}

func (q queries) visible(now time.Time) sq.Sqlizer {
	return sq.And{
		sq.NotEq{"published_at": nil},
		sq.LtOrEq{"published_at": q.timeArg(now)},
	}
}

func (q queries) postBySlug(slug string, now time.Time) sq.SelectBuilder {
	return q.sb.Select(postColumns...).From("posts").
		Where(sq.Eq{"slug": slug}).
		Where(q.visible(now)).
		Limit(1)
}

func (q queries) listPosts(limit, offset int, now time.Time) sq.SelectBuilder {
	return q.sb.Select(summaryColumns...).From("posts").
		Where(q.visible(now)).
		OrderBy("published_at DESC", "id ASC").
		Limit(uint64(max(limit, 0))).
		Offset(uint64(max(offset, 0)))
}

func (q queries) deletePost(slug string) sq.DeleteBuilder {
	return q.sb.Delete("posts").Where(sq.Eq{"slug": slug})
}

func (q queries) countPosts(now time.Time) sq.SelectBuilder {
	return q.sb.Select("COUNT(*)").From("posts").Where(q.visible(now))
}

func (q queries) savePost(p content.Post, blocks string, ts func(*time.Time) any) sq.InsertBuilder {
	return q.sb.Insert("posts").
		Columns(postColumns...).
		Values(p.ID, p.Title, p.Slug, ts(p.PublishedAt), p.CoverImage, blocks, q.timeArg(p.CreatedAt), q.timeArg(p.UpdatedAt)).
		Suffix(`ON CONFLICT (slug) DO UPDATE SET
			title = excluded.title,
			published_at = excluded.published_at,
			cover_image = excluded.cover_image,
			components = excluded.components,
			updated_at = excluded.updated_at`)
}

// prepareSave fills the timestamps a new post is missing and encodes its
// blocks.
func prepareSave(p content.Post, now time.Time) (content.Post, string, error) {
	if p.Slug == "" {
		return p, "", errors.New("storage: post without slug")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	b, err := p.Blocks.MarshalJSON()
	if err != nil {
		return p, "", fmt.Errorf("storage: encode blocks of %q: %w", p.Slug, err)
	}
	return p, string(b), nil
}

func decodeBlocks(slug string, raw []byte) (content.Blocks, error) {
	blocks, err := content.DecodeBlocks(raw)
	if err != nil {
		return nil, fmt.Errorf("storage: post %q: %w", slug, err)
	}
	return blocks, nil
}
