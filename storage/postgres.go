package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eringen/blockpress/content"
)

// Postgres stores posts in PostgreSQL through a pgx connection pool.
type Postgres struct {
	conn *pgxpool.Pool
	q    queries
	now  func() time.Time
}

var _ Repository = (*Postgres)(nil)

// OpenPostgres connects to dsn and applies the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: parse postgres dsn: %w", err)
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	cfg.ConnConfig.StatementCacheCapacity = 64
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: connect postgres: %w", err)
	}

	s := &Postgres{
		conn: pool,
		q: queries{
			sb:      sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
			timeArg: func(t time.Time) any { return t },
		},
		now: time.Now,
	}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases every pooled connection.
func (s *Postgres) Close() error {
	s.conn.Close()
	return nil
}

func (s *Postgres) ensureSchema(ctx context.Context) error {
	stmts, err := loadSchema("postgres.sql")
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := s.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("storage: apply postgres schema: %w", err)
		}
	}
	return nil
}

type pgPost struct {
	ID          uuid.UUID  `db:"id"`
	Title       string     `db:"title"`
	Slug        string     `db:"slug"`
	PublishedAt *time.Time `db:"published_at"`
	CoverImage  *string    `db:"cover_image"`
	Components  []byte     `db:"components"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

type pgSummary struct {
	ID          uuid.UUID  `db:"id"`
	Title       string     `db:"title"`
	Slug        string     `db:"slug"`
	PublishedAt *time.Time `db:"published_at"`
	CoverImage  *string    `db:"cover_image"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (r *pgSummary) Summary() content.PostSummary {
	return content.PostSummary{
		ID:          r.ID,
		Title:       r.Title,
		Slug:        r.Slug,
		PublishedAt: utcPtr(r.PublishedAt),
		CoverImage:  r.CoverImage,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func (s *Postgres) PostBySlug(ctx context.Context, slug string) (content.Post, error) {
	query, args, err := s.q.postBySlug(slug, s.now()).ToSql()
	if err != nil {
		return content.Post{}, err
	}
	rows, _ := s.conn.Query(ctx, query, args...)
	row, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[pgPost])
	if errors.Is(err, pgx.ErrNoRows) {
		return content.Post{}, ErrNotFound
	}
	if err != nil {
		return content.Post{}, fmt.Errorf("storage: get post %q: %w", slug, err)
	}
	blocks, err := decodeBlocks(slug, row.Components)
	if err != nil {
		return content.Post{}, err
	}
	return content.Post{
		ID:          row.ID,
		Title:       row.Title,
		Slug:        row.Slug,
		PublishedAt: utcPtr(row.PublishedAt),
		CoverImage:  row.CoverImage,
		Blocks:      blocks,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}, nil
}

func (s *Postgres) ListPosts(ctx context.Context, limit, offset int) ([]content.PostSummary, error) {
	query, args, err := s.q.listPosts(limit, offset, s.now()).ToSql()
	if err != nil {
		return nil, err
	}
	rows, _ := s.conn.Query(ctx, query, args...)
	summaries, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[pgSummary])
	if err != nil {
		return nil, fmt.Errorf("storage: list posts: %w", err)
	}
	posts := make([]content.PostSummary, len(summaries))
	for i := range summaries {
		posts[i] = summaries[i].Summary()
	}
	return posts, nil
}

func (s *Postgres) CountPosts(ctx context.Context) (int, error) {
	query, args, err := s.q.countPosts(s.now()).ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	if err := s.conn.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("storage: count posts: %w", err)
	}
	return count, nil
}

// SavePost upserts p by slug. A zero ID is replaced with a new UUID.
func (s *Postgres) SavePost(ctx context.Context, p content.Post) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p, blocks, err := prepareSave(p, s.now())
	if err != nil {
		return err
	}
	query, args, err := s.q.savePost(p, blocks, func(t *time.Time) any { return t }).ToSql()
	if err != nil {
		return err
	}
	if _, err := s.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("storage: save post %q: %w", p.Slug, err)
	}
	return nil
}

// DeletePost removes a post by slug. Deleting a missing post is not an error.
func (s *Postgres) DeletePost(ctx context.Context, slug string) error {
	query, args, err := s.q.deletePost(slug).ToSql()
	if err != nil {
		return err
	}
	if _, err := s.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("storage: delete post %q: %w", slug, err)
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
