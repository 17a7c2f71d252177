package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"social-console/model"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id           BIGSERIAL PRIMARY KEY,
		display_name VARCHAR(255) NOT NULL,
		bio          TEXT,
		location     VARCHAR(255),
		website      VARCHAR(2048),
		avatar_url   VARCHAR(2048),
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id           BIGSERIAL PRIMARY KEY,
		title        VARCHAR(255) NOT NULL,
		author       VARCHAR(255) NOT NULL,
		body         TEXT NOT NULL,
		cover_image  VARCHAR(2048),
		published_at TIMESTAMPTZ,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS posts_created_at ON posts (created_at)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id         BIGSERIAL PRIMARY KEY,
		post_id    BIGINT NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
		author     VARCHAR(255) NOT NULL,
		body       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS comments_post_id ON comments (post_id, created_at)`,
}

// Postgres is the pgxpool-backed store.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// pgQueryer is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgQueryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// OpenPostgres connects with a postgres:// URL in cfg.DSN.
func OpenPostgres(ctx context.Context, cfg Config) (*Postgres, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	if cfg.PoolSize > 0 {
		pcfg.MaxConns = int32(cfg.PoolSize)
	}
	pcfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	pcfg.ConnConfig.StatementCacheCapacity = 64

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres: creating schema: %w", err)
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("postgres store opened",
		"host", pcfg.ConnConfig.Host,
		"database", pcfg.ConnConfig.Database,
		"max_conns", pcfg.MaxConns,
	)
	return &Postgres{pool: pool, logger: logger}, nil
}

func (s *Postgres) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Postgres) Close() error {
	s.pool.Close()
	s.logger.Info("postgres store closed")
	return nil
}

func (s *Postgres) GetProfile(ctx context.Context) (*model.Profile, error) {
	return pgFirstProfile(ctx, s.pool)
}

func (s *Postgres) SaveProfile(ctx context.Context, fields model.ProfileFields) (*model.Profile, error) {
	var profile *model.Profile
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		ts := now()
		existing, err := pgFirstProfile(ctx, tx)
		switch {
		case errors.Is(err, model.ErrNotFound):
			_, err = tx.Exec(ctx,
				`INSERT INTO profiles (display_name, bio, location, website, avatar_url, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $6)`,
				fields.DisplayName, fields.Bio, fields.Location, fields.Website, fields.AvatarURL, ts)
		case err != nil:
			return err
		default:
			_, err = tx.Exec(ctx,
				`UPDATE profiles SET display_name = $1, bio = $2, location = $3, website = $4, avatar_url = $5, updated_at = $6
				 WHERE id = $7`,
				fields.DisplayName, fields.Bio, fields.Location, fields.Website, fields.AvatarURL, ts, existing.ID)
		}
		if err != nil {
			return fmt.Errorf("postgres: save profile: %w", err)
		}
		profile, err = pgFirstProfile(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *Postgres) ListPosts(ctx context.Context) ([]model.Post, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+postColumns+" FROM posts ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("postgres: list posts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPgPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list posts: %w", err)
	}

	comments, err := pgComments(ctx, s.pool, "ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	attachComments(posts, comments)
	return posts, nil
}

func (s *Postgres) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	return pgPostWithComments(ctx, s.pool, id)
}

func (s *Postgres) CreatePost(ctx context.Context, fields model.PostFields) (*model.Post, error) {
	var post *model.Post
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		ts := now()
		var id int64
		err := tx.QueryRow(ctx,
			`INSERT INTO posts (title, author, body, cover_image, published_at, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`,
			fields.Title, fields.Author, fields.Body, fields.CoverImage, fields.PublishedAt, ts).Scan(&id)
		if err != nil {
			return fmt.Errorf("postgres: insert post: %w", err)
		}
		post, err = pgPostWithComments(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Postgres) UpdatePost(ctx context.Context, id int64, fields model.PostFields) (*model.Post, error) {
	var post *model.Post
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE posts SET title = $1, author = $2, body = $3, cover_image = $4, published_at = $5, updated_at = $6
			 WHERE id = $7`,
			fields.Title, fields.Author, fields.Body, fields.CoverImage, fields.PublishedAt, now(), id)
		if err != nil {
			return fmt.Errorf("postgres: update post %d: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrNotFound
		}
		post, err = pgPostWithComments(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Postgres) DeletePost(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("postgres: delete post %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *Postgres) CreateComment(ctx context.Context, postID int64, fields model.CommentFields) (*model.Comment, error) {
	var comment *model.Comment
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var one int
		err := tx.QueryRow(ctx, "SELECT 1 FROM posts WHERE id = $1 FOR UPDATE", postID).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("postgres: find post %d: %w", postID, err)
		}
		ts := now()
		var id int64
		err = tx.QueryRow(ctx,
			`INSERT INTO comments (post_id, author, body, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $4) RETURNING id`,
			postID, fields.Author, fields.Body, ts).Scan(&id)
		if err != nil {
			return fmt.Errorf("postgres: insert comment: %w", err)
		}
		comment, err = pgComment(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *Postgres) GetComment(ctx context.Context, id int64) (*model.Comment, error) {
	return pgComment(ctx, s.pool, id)
}

func (s *Postgres) UpdateComment(ctx context.Context, id int64, fields model.CommentFields) (*model.Comment, error) {
	var comment *model.Comment
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			"UPDATE comments SET author = $1, body = $2, updated_at = $3 WHERE id = $4",
			fields.Author, fields.Body, now(), id)
		if err != nil {
			return fmt.Errorf("postgres: update comment %d: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrNotFound
		}
		comment, err = pgComment(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *Postgres) DeleteComment(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM comments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("postgres: delete comment %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func pgFirstProfile(ctx context.Context, q pgQueryer) (*model.Profile, error) {
	var p model.Profile
	err := q.QueryRow(ctx, "SELECT "+profileColumns+" FROM profiles ORDER BY id LIMIT 1").
		Scan(&p.ID, &p.DisplayName, &p.Bio, &p.Location, &p.Website, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get profile: %w", err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func pgPostWithComments(ctx context.Context, q pgQueryer, id int64) (*model.Post, error) {
	p, err := scanPgPost(q.QueryRow(ctx, "SELECT "+postColumns+" FROM posts WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Comments, err = pgComments(ctx, q, "WHERE post_id = $1 ORDER BY created_at DESC, id DESC", id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func pgComment(ctx context.Context, q pgQueryer, id int64) (*model.Comment, error) {
	comments, err := pgComments(ctx, q, "WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, model.ErrNotFound
	}
	return &comments[0], nil
}

func pgComments(ctx context.Context, q pgQueryer, clause string, args ...any) ([]model.Comment, error) {
	rows, err := q.Query(ctx, "SELECT "+commentColumns+" FROM comments "+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list comments: %w", err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.Author, &c.Body, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan comment: %w", err)
		}
		c.CreatedAt = c.CreatedAt.UTC()
		c.UpdatedAt = c.UpdatedAt.UTC()
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list comments: %w", err)
	}
	return comments, nil
}

func scanPgPost(row pgx.Row) (model.Post, error) {
	var p model.Post
	err := row.Scan(&p.ID, &p.Title, &p.Author, &p.Body, &p.CoverImage, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, err
	}
	if err != nil {
		return p, fmt.Errorf("postgres: scan post: %w", err)
	}
	if p.PublishedAt != nil {
		t := p.PublishedAt.UTC()
		p.PublishedAt = &t
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	p.Comments = []model.Comment{}
	return p, nil
}
