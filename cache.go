package blockpress

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Yiling-J/theine-go"

	"github.com/eringen/blockpress/content"
	"github.com/eringen/blockpress/storage"
)

// ErrNotFound is returned when a requested post does not exist or is not
// published.
var ErrNotFound = storage.ErrNotFound

// List and count keys carry the cache generation. Invalidate bumps it, so
// older entries are never looked up again and age out on their own.
type pageKey struct {
	gen           uint64
	limit, offset int
}

type countKey struct {
	gen uint64
}

// PostCache is a read-through cache in front of a storage.Repository.
// Entries expire after the configured TTL. Lookups that fail, including
// not-found, are never cached.
type PostCache struct {
	repo   storage.Repository
	posts  *theine.LoadingCache[string, content.Post]
	pages  *theine.LoadingCache[pageKey, []content.PostSummary]
	counts *theine.LoadingCache[countKey, int]
	gen    atomic.Uint64
}

// NewPostCache creates a PostCache backed by repo.
func NewPostCache(repo storage.Repository, ttl time.Duration) (*PostCache, error) {
	c := &PostCache{repo: repo}
	var err error

	c.posts, err = theine.NewBuilder[string, content.Post](1024).BuildWithLoader(func(ctx context.Context, slug string) (theine.Loaded[content.Post], error) {
		post, err := repo.PostBySlug(ctx, slug)
		if err != nil {
			return theine.Loaded[content.Post]{}, err
		}
		return theine.Loaded[content.Post]{Value: post, Cost: 1, TTL: ttl}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("blockpress: build post cache: %w", err)
	}

	c.pages, err = theine.NewBuilder[pageKey, []content.PostSummary](256).BuildWithLoader(func(ctx context.Context, k pageKey) (theine.Loaded[[]content.PostSummary], error) {
		posts, err := repo.ListPosts(ctx, k.limit, k.offset)
		if err != nil {
			return theine.Loaded[[]content.PostSummary]{}, err
		}
		return theine.Loaded[[]content.PostSummary]{Value: posts, Cost: 1, TTL: ttl}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("blockpress: build list cache: %w", err)
	}

	c.counts, err = theine.NewBuilder[countKey, int](16).BuildWithLoader(func(ctx context.Context, _ countKey) (theine.Loaded[int], error) {
		n, err := repo.CountPosts(ctx)
		if err != nil {
			return theine.Loaded[int]{}, err
		}
		return theine.Loaded[int]{Value: n, Cost: 1, TTL: ttl}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("blockpress: build count cache: %w", err)
	}
	return c, nil
}

// PostBySlug returns a published post by slug.
func (c *PostCache) PostBySlug(ctx context.Context, slug string) (content.Post, error) {
	return c.posts.Get(ctx, slug)
}

// ListPosts returns one window of published post summaries.
func (c *PostCache) ListPosts(ctx context.Context, limit, offset int) ([]content.PostSummary, error) {
	return c.pages.Get(ctx, pageKey{gen: c.gen.Load(), limit: limit, offset: offset})
}

// CountPosts returns the number of published posts.
func (c *PostCache) CountPosts(ctx context.Context) (int, error) {
	return c.counts.Get(ctx, countKey{gen: c.gen.Load()})
}

// Invalidate drops the cached entry for slug along with every list page and
// the post count, which any change to a post can affect.
func (c *PostCache) Invalidate(slug string) {
	c.posts.Delete(slug)
	c.gen.Add(1)
}

// Close stops the cache's background maintenance.
func (c *PostCache) Close() {
	c.posts.Close()
	c.pages.Close()
	c.counts.Close()
}
