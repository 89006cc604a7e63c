package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eringen/blockpress/content"
)

// Memory keeps posts in process memory. It is selected with the "memory:"
// DSN and backs tests and throwaway previews.
type Memory struct {
	mu    sync.RWMutex
	posts map[string]content.Post
	now   func() time.Time
}

var _ Repository = (*Memory)(nil)

// NewMemory returns an empty Memory repository.
func NewMemory() *Memory {
	return &Memory{posts: make(map[string]content.Post), now: time.Now}
}

func (m *Memory) PostBySlug(_ context.Context, slug string) (content.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.posts[slug]
	if !ok || !p.Visible(m.now()) {
		return content.Post{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) visible() []content.Post {
	now := m.now()
	var out []content.Post
	for _, p := range m.posts {
		if p.Visible(now) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(*out[j].PublishedAt) {
			return out[i].PublishedAt.After(*out[j].PublishedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (m *Memory) ListPosts(_ context.Context, limit, offset int) ([]content.PostSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	posts := m.visible()
	out := []content.PostSummary{}
	if limit <= 0 || offset < 0 || offset >= len(posts) {
		return out, nil
	}
	end := len(posts)
	if limit < end-offset {
		end = offset + limit
	}
	for _, p := range posts[offset:end] {
		out = append(out, p.Summary())
	}
	return out, nil
}

func (m *Memory) CountPosts(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.visible()), nil
}

// SavePost upserts p by slug, keeping the ID and creation time of a post it
// replaces.
func (m *Memory) SavePost(_ context.Context, p content.Post) error {
	if p.Slug == "" {
		return errors.New("storage: post without slug")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.posts[p.Slug]; ok {
		p.ID = old.ID
		p.CreatedAt = old.CreatedAt
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := m.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	m.posts[p.Slug] = p
	return nil
}

// DeletePost removes a post by slug.
func (m *Memory) DeletePost(_ context.Context, slug string) error {
	m.mu.Lock()
	delete(m.posts, slug)
	m.mu.Unlock()
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
