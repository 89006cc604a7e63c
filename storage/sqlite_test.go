package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/eringen/blockpress/content"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func setupTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "data", "test_blog.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	s.now = func() time.Time { return testNow }
	t.Cleanup(func() { s.Close() })
	return s
}

func at(days int) *time.Time {
	t := testNow.AddDate(0, 0, days)
	return &t
}

func testPost(slug string, publishedAt *time.Time) content.Post {
	return content.Post{
		Title:       "Post " + slug,
		Slug:        slug,
		PublishedAt: publishedAt,
		Blocks: content.Blocks{
			content.Heading{Text: "Intro"},
			content.Paragraph{Markdown: "Hello **world**"},
		},
	}
}

func TestOpenSQLite(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
	// Reapplying the schema must be harmless.
	if err := s.ensureSchema(context.Background()); err != nil {
		t.Fatalf("ensureSchema twice failed: %v", err)
	}
}

func TestOpenPicksSQLiteForPaths(t *testing.T) {
	r, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "blog.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()
	if _, ok := r.(*SQLite); !ok {
		t.Fatalf("Open returned %T, want *SQLite", r)
	}
	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatal("Open with empty dsn should fail")
	}
}

func TestSaveAndGetPost(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	cover := "/static/cover.png"
	post := testPost("test-post", at(-1))
	post.ID = uuid.MustParse("7f1e2a9c-3b4d-4c5e-8f60-718293a4b5c6")
	post.CoverImage = &cover

	if err := s.SavePost(ctx, post); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}

	got, err := s.PostBySlug(ctx, "test-post")
	if err != nil {
		t.Fatalf("PostBySlug failed: %v", err)
	}
	if got.ID != post.ID {
		t.Errorf("ID = %s, want %s", got.ID, post.ID)
	}
	if got.Title != post.Title {
		t.Errorf("Title = %q, want %q", got.Title, post.Title)
	}
	if got.PublishedAt == nil || !got.PublishedAt.Equal(*post.PublishedAt) {
		t.Errorf("PublishedAt = %v, want %v", got.PublishedAt, post.PublishedAt)
	}
	if got.CoverImage == nil || *got.CoverImage != cover {
		t.Errorf("CoverImage = %v, want %q", got.CoverImage, cover)
	}
	if !got.CreatedAt.Equal(testNow) || !got.UpdatedAt.Equal(testNow) {
		t.Errorf("timestamps = %v/%v, want %v", got.CreatedAt, got.UpdatedAt, testNow)
	}
	if len(got.Blocks) != 2 {
		t.Fatalf("Blocks = %d, want 2", len(got.Blocks))
	}
	if h, ok := got.Blocks[0].(content.Heading); !ok || h.Text != "Intro" {
		t.Errorf("Blocks[0] = %#v, want Heading Intro", got.Blocks[0])
	}
	if p, ok := got.Blocks[1].(content.Paragraph); !ok || p.Markdown != "Hello **world**" {
		t.Errorf("Blocks[1] = %#v, want Paragraph", got.Blocks[1])
	}
}

func TestSavePostAssignsID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.SavePost(ctx, testPost("no-id", at(-1))); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}
	got, err := s.PostBySlug(ctx, "no-id")
	if err != nil {
		t.Fatalf("PostBySlug failed: %v", err)
	}
	if got.ID == uuid.Nil {
		t.Error("ID should be generated")
	}
}

func TestSavePostRequiresSlug(t *testing.T) {
	s := setupTestStore(t)
	if err := s.SavePost(context.Background(), testPost("", at(-1))); err == nil {
		t.Fatal("SavePost without slug should fail")
	}
}

func TestSavePostUpdate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	post := testPost("update-test", at(-1))
	if err := s.SavePost(ctx, post); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}
	original, err := s.PostBySlug(ctx, "update-test")
	if err != nil {
		t.Fatalf("PostBySlug failed: %v", err)
	}

	post.Title = "Updated Title"
	post.Blocks = content.Blocks{content.Quote{Text: "Less is more"}}
	post.UpdatedAt = testNow.Add(time.Hour)
	if err := s.SavePost(ctx, post); err != nil {
		t.Fatalf("SavePost update failed: %v", err)
	}

	got, err := s.PostBySlug(ctx, "update-test")
	if err != nil {
		t.Fatalf("PostBySlug failed: %v", err)
	}
	if got.Title != "Updated Title" {
		t.Errorf("Title = %q, want %q", got.Title, "Updated Title")
	}
	if got.ID != original.ID {
		t.Errorf("ID changed on update: %s -> %s", original.ID, got.ID)
	}
	if len(got.Blocks) != 1 || got.Blocks[0].Kind() != content.KindQuote {
		t.Errorf("Blocks = %#v, want a single quote", got.Blocks)
	}
	if !got.UpdatedAt.Equal(testNow.Add(time.Hour)) {
		t.Errorf("UpdatedAt = %v", got.UpdatedAt)
	}
}

func TestPostBySlugNotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.PostBySlug(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostBySlugHidesUnpublished(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.SavePost(ctx, testPost("draft", nil)); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}
	if err := s.SavePost(ctx, testPost("scheduled", at(1))); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}

	for _, slug := range []string{"draft", "scheduled"} {
		if _, err := s.PostBySlug(ctx, slug); !errors.Is(err, ErrNotFound) {
			t.Errorf("PostBySlug(%q) = %v, want ErrNotFound", slug, err)
		}
	}

	// The scheduled post appears once its time has come.
	s.now = func() time.Time { return testNow.AddDate(0, 0, 2) }
	if _, err := s.PostBySlug(ctx, "scheduled"); err != nil {
		t.Errorf("scheduled post should be visible later, got %v", err)
	}
}

func TestListPosts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	posts := []content.Post{
		testPost("post-1", at(-3)),
		testPost("post-2", at(-2)),
		testPost("post-3", at(-1)),
		testPost("post-4", nil),   // draft
		testPost("post-5", at(5)), // scheduled
	}
	for _, p := range posts {
		if err := s.SavePost(ctx, p); err != nil {
			t.Fatalf("SavePost failed: %v", err)
		}
	}

	got, err := s.ListPosts(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListPosts count = %d, want 3 (excluding unpublished)", len(got))
	}
	want := []string{"post-3", "post-2", "post-1"}
	for i, slug := range want {
		if got[i].Slug != slug {
			t.Errorf("ListPosts[%d] = %s, want %s", i, got[i].Slug, slug)
		}
	}

	count, err := s.CountPosts(ctx)
	if err != nil {
		t.Fatalf("CountPosts failed: %v", err)
	}
	if count != 3 {
		t.Errorf("CountPosts = %d, want 3", count)
	}
}

func TestListPostsLimitOffset(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for i, slug := range []string{"a", "b", "c", "d", "e"} {
		if err := s.SavePost(ctx, testPost(slug, at(-10+i))); err != nil {
			t.Fatalf("SavePost failed: %v", err)
		}
	}

	tests := []struct {
		limit, offset int
		want          []string
	}{
		{2, 0, []string{"e", "d"}},
		{2, 2, []string{"c", "b"}},
		{2, 4, []string{"a"}},
		{2, 6, nil},
		{0, 0, nil},
	}
	for _, tt := range tests {
		got, err := s.ListPosts(ctx, tt.limit, tt.offset)
		if err != nil {
			t.Fatalf("ListPosts(%d, %d) failed: %v", tt.limit, tt.offset, err)
		}
		if got == nil {
			t.Errorf("ListPosts(%d, %d) returned nil, want empty slice", tt.limit, tt.offset)
		}
		if len(got) != len(tt.want) {
			t.Fatalf("ListPosts(%d, %d) = %d posts, want %d", tt.limit, tt.offset, len(got), len(tt.want))
		}
		for i := range tt.want {
			if got[i].Slug != tt.want[i] {
				t.Errorf("ListPosts(%d, %d)[%d] = %s, want %s", tt.limit, tt.offset, i, got[i].Slug, tt.want[i])
			}
		}
	}
}

func TestPostBySlugCorruptBlocks(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.SavePost(ctx, testPost("broken", at(-1))); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}
	if _, err := s.db.Exec(`UPDATE posts SET components = ? WHERE slug = ?`, `[{"type":"banner","text":"x"}]`, "broken"); err != nil {
		t.Fatalf("corrupting row failed: %v", err)
	}

	_, err := s.PostBySlug(ctx, "broken")
	if errors.Is(err, ErrNotFound) {
		t.Fatal("corrupt blocks must not look like a missing post")
	}
	var de *content.DataError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want *content.DataError", err)
	}
	if !errors.Is(err, content.ErrUnknownBlockType) {
		t.Errorf("err = %v, want ErrUnknownBlockType", err)
	}
}

func TestDeletePost(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.SavePost(ctx, testPost("to-delete", at(-1))); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}
	if _, err := s.PostBySlug(ctx, "to-delete"); err != nil {
		t.Fatalf("Post should exist before delete: %v", err)
	}
	if err := s.DeletePost(ctx, "to-delete"); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, err := s.PostBySlug(ctx, "to-delete"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Post should not exist after delete, got err: %v", err)
	}
	if err := s.DeletePost(ctx, "nonexistent"); err != nil {
		t.Errorf("DeletePost on nonexistent should not error, got: %v", err)
	}
}

func TestSQLiteTimeLayoutOrdersAsText(t *testing.T) {
	early := formatSQLiteTime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	late := formatSQLiteTime(time.Date(2024, 1, 2, 3, 4, 5, 600, time.FixedZone("x", -3600)))
	if len(early) != len(late) {
		t.Fatalf("layout not fixed width: %q vs %q", early, late)
	}
	if !(early < late) {
		t.Errorf("%q should sort before %q", early, late)
	}
	back, err := parseSQLiteTime(late)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !back.Equal(time.Date(2024, 1, 2, 4, 4, 5, 600, time.UTC)) {
		t.Errorf("round trip = %v", back)
	}
}
