package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/eringen/blockpress/content"
)

// sqliteTimeLayout is fixed width so stored timestamps order and compare
// correctly as text.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLite stores posts in a single SQLite database file.
type SQLite struct {
	db  *sql.DB
	q   queries
	now func() time.Time
}

var _ Repository = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database at path, ensures the data
// directory exists, and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	// WAL lets readers proceed during a write; busy_timeout makes writers
	// wait instead of failing with SQLITE_BUSY. The pragmas go in the DSN so
	// every pooled connection gets them.
	dsn := "file:" + path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=cache_size(-8000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)

	s := &SQLite{
		db: db,
		q: queries{
			sb:      sq.StatementBuilder.PlaceholderFormat(sq.Question),
			timeArg: func(t time.Time) any { return formatSQLiteTime(t) },
		},
		now: time.Now,
	}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) ensureSchema(ctx context.Context) error {
	stmts, err := loadSchema("sqlite.sql")
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("storage: apply sqlite schema: %w", err)
		}
	}
	return nil
}

func (s *SQLite) PostBySlug(ctx context.Context, slug string) (content.Post, error) {
	query, args, err := s.q.postBySlug(slug, s.now()).ToSql()
	if err != nil {
		return content.Post{}, err
	}
	var (
		p                                content.Post
		publishedAt, coverImage          sql.NullString
		components, createdAt, updatedAt string
	)
	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&p.ID, &p.Title, &p.Slug, &publishedAt, &coverImage, &components, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return content.Post{}, ErrNotFound
	}
	if err != nil {
		return content.Post{}, fmt.Errorf("storage: get post %q: %w", slug, err)
	}
	if err := scanTimes(&p.PublishedAt, &p.CreatedAt, &p.UpdatedAt, publishedAt, createdAt, updatedAt); err != nil {
		return content.Post{}, fmt.Errorf("storage: post %q: %w", slug, err)
	}
	if coverImage.Valid {
		p.CoverImage = &coverImage.String
	}
	if p.Blocks, err = decodeBlocks(slug, []byte(components)); err != nil {
		return content.Post{}, err
	}
	return p, nil
}

func (s *SQLite) ListPosts(ctx context.Context, limit, offset int) ([]content.PostSummary, error) {
	query, args, err := s.q.listPosts(limit, offset, s.now()).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list posts: %w", err)
	}
	defer rows.Close()

	posts := []content.PostSummary{}
	for rows.Next() {
		var (
			p                       content.PostSummary
			publishedAt, coverImage sql.NullString
			createdAt, updatedAt    string
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &publishedAt, &coverImage, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("storage: list posts: %w", err)
		}
		if err := scanTimes(&p.PublishedAt, &p.CreatedAt, &p.UpdatedAt, publishedAt, createdAt, updatedAt); err != nil {
			return nil, fmt.Errorf("storage: post %q: %w", p.Slug, err)
		}
		if coverImage.Valid {
			p.CoverImage = &coverImage.String
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list posts: %w", err)
	}
	return posts, nil
}

func (s *SQLite) CountPosts(ctx context.Context) (int, error) {
	query, args, err := s.q.countPosts(s.now()).ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("storage: count posts: %w", err)
	}
	return count, nil
}

// SavePost upserts p by slug. A zero ID is replaced with a new UUID.
func (s *SQLite) SavePost(ctx context.Context, p content.Post) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p, blocks, err := prepareSave(p, s.now())
	if err != nil {
		return err
	}
	query, args, err := s.q.savePost(p, blocks, func(t *time.Time) any {
		if t == nil {
			return nil
		}
		return formatSQLiteTime(*t)
	}).ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("storage: save post %q: %w", p.Slug, err)
	}
	return nil
}

// DeletePost removes a post by slug. Deleting a missing post is not an error.
func (s *SQLite) DeletePost(ctx context.Context, slug string) error {
	query, args, err := s.q.deletePost(slug).ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("storage: delete post %q: %w", slug, err)
	}
	return nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSQLiteTime(s string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, s)
}

func scanTimes(published **time.Time, created, updated *time.Time, rawPublished sql.NullString, rawCreated, rawUpdated string) error {
	var err error
	if rawPublished.Valid {
		t, perr := parseSQLiteTime(rawPublished.String)
		if perr != nil {
			return perr
		}
		*published = &t
	}
	if *created, err = parseSQLiteTime(rawCreated); err != nil {
		return err
	}
	if *updated, err = parseSQLiteTime(rawUpdated); err != nil {
		return err
	}
	return nil
}
