package blockpress

import (
	"context"
	"fmt"
	"math"

	"github.com/eringen/blockpress/content"
	"github.com/eringen/blockpress/storage"
)

// postReader is the read half of storage.Repository, served either by the
// repository itself or by a PostCache in front of it.
type postReader interface {
	PostBySlug(ctx context.Context, slug string) (content.Post, error)
	ListPosts(ctx context.Context, limit, offset int) ([]content.PostSummary, error)
	CountPosts(ctx context.Context) (int, error)
}

// Blog answers the questions the HTTP handlers ask about posts.
type Blog struct {
	repo  storage.Repository
	read  postReader
	cache *PostCache
}

// NewBlog returns a Blog that writes to repo and reads through cache. A nil
// cache reads straight from repo.
func NewBlog(repo storage.Repository, cache *PostCache) *Blog {
	b := &Blog{repo: repo, read: repo, cache: cache}
	if cache != nil {
		b.read = cache
	}
	return b
}

// ListPosts returns page (1-based) of published posts with perPage posts
// per page. Callers pass page >= 1 and perPage >= 1.
func (b *Blog) ListPosts(ctx context.Context, page, perPage int) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	posts, err := b.read.ListPosts(ctx, perPage, pageOffset(page, perPage))
	if err != nil {
		return ListResult{}, fmt.Errorf("blockpress: list posts: %w", err)
	}
	total, err := b.read.CountPosts(ctx)
	if err != nil {
		return ListResult{}, fmt.Errorf("blockpress: count posts: %w", err)
	}
	return ListResult{
		Posts:      posts,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages(total, perPage),
	}, nil
}

// GetPost returns the published post with the given slug, or ErrNotFound.
func (b *Blog) GetPost(ctx context.Context, slug string) (content.Post, error) {
	return b.read.PostBySlug(ctx, slug)
}

// SavePost upserts a post and drops whatever the cache held for it.
func (b *Blog) SavePost(ctx context.Context, p content.Post) error {
	if err := b.repo.SavePost(ctx, p); err != nil {
		return err
	}
	if b.cache != nil {
		b.cache.Invalidate(p.Slug)
	}
	return nil
}

// DeletePost removes a post and drops whatever the cache held for it.
func (b *Blog) DeletePost(ctx context.Context, slug string) error {
	if err := b.repo.DeletePost(ctx, slug); err != nil {
		return err
	}
	if b.cache != nil {
		b.cache.Invalidate(slug)
	}
	return nil
}

// pageOffset is (page-1)*perPage, saturating at math.MaxInt.
func pageOffset(page, perPage int) int {
	if page <= 1 {
		return 0
	}
	if page-1 > math.MaxInt/perPage {
		return math.MaxInt
	}
	return (page - 1) * perPage
}

func totalPages(total, perPage int) int {
	if total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
