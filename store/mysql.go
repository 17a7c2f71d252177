package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"

	"social-console/model"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id           BIGINT AUTO_INCREMENT PRIMARY KEY,
		display_name VARCHAR(255) NOT NULL,
		bio          TEXT NULL,
		location     VARCHAR(255) NULL,
		website      VARCHAR(2048) NULL,
		avatar_url   VARCHAR(2048) NULL,
		created_at   DATETIME(6) NOT NULL,
		updated_at   DATETIME(6) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id           BIGINT AUTO_INCREMENT PRIMARY KEY,
		title        VARCHAR(255) NOT NULL,
		author       VARCHAR(255) NOT NULL,
		body         TEXT NOT NULL,
		cover_image  VARCHAR(2048) NULL,
		published_at DATETIME(6) NULL,
		created_at   DATETIME(6) NOT NULL,
		updated_at   DATETIME(6) NOT NULL,
		INDEX posts_created_at (created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id         BIGINT AUTO_INCREMENT PRIMARY KEY,
		post_id    BIGINT NOT NULL,
		author     VARCHAR(255) NOT NULL,
		body       TEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		INDEX comments_post_id (post_id, created_at),
		CONSTRAINT comments_post_id_foreign FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE
	)`,
}

// MySQL is the database/sql store over go-sql-driver/mysql.
type MySQL struct {
	db     *sql.DB
	logger *slog.Logger
}

// sqlQueryer is satisfied by both *sql.DB and *sql.Tx.
type sqlQueryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// OpenMySQL connects with cfg.DSN, e.g. "user:pass@tcp(127.0.0.1:3306)/social".
// parseTime, UTC and clientFoundRows are forced on regardless of the DSN.
func OpenMySQL(ctx context.Context, cfg Config) (*MySQL, error) {
	dsn, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql: parse dsn: %w", err)
	}
	dsn.ParseTime = true
	dsn.Loc = time.UTC
	// UPDATE reports matched rows, so an unchanged row is not mistaken for a missing one.
	dsn.ClientFoundRows = true

	connector, err := mysql.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if cfg.PoolSize > 0 {
		db.SetMaxOpenConns(cfg.PoolSize)
		db.SetMaxIdleConns(cfg.PoolSize)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql: ping %s: %w", dsn.Addr, err)
	}
	for _, stmt := range mysqlSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("mysql: creating schema: %w", err)
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("mysql store opened", "addr", dsn.Addr, "database", dsn.DBName)
	return &MySQL{db: db, logger: logger}, nil
}

func (s *MySQL) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("mysql: begin: %w", err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("mysql: commit: %w", err)
	}
	return nil
}

func (s *MySQL) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *MySQL) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("mysql: close: %w", err)
	}
	s.logger.Info("mysql store closed")
	return nil
}

func (s *MySQL) GetProfile(ctx context.Context) (*model.Profile, error) {
	return mysqlFirstProfile(ctx, s.db)
}

func (s *MySQL) SaveProfile(ctx context.Context, fields model.ProfileFields) (*model.Profile, error) {
	var profile *model.Profile
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ts := now()
		existing, err := mysqlFirstProfile(ctx, tx)
		switch {
		case errors.Is(err, model.ErrNotFound):
			_, err = tx.ExecContext(ctx,
				`INSERT INTO profiles (display_name, bio, location, website, avatar_url, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				fields.DisplayName, fields.Bio, fields.Location, fields.Website, fields.AvatarURL, ts, ts)
		case err != nil:
			return err
		default:
			_, err = tx.ExecContext(ctx,
				`UPDATE profiles SET display_name = ?, bio = ?, location = ?, website = ?, avatar_url = ?, updated_at = ?
				 WHERE id = ?`,
				fields.DisplayName, fields.Bio, fields.Location, fields.Website, fields.AvatarURL, ts, existing.ID)
		}
		if err != nil {
			return fmt.Errorf("mysql: save profile: %w", err)
		}
		profile, err = mysqlFirstProfile(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *MySQL) ListPosts(ctx context.Context) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+postColumns+" FROM posts ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("mysql: list posts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		p, err := scanMySQLPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mysql: list posts: %w", err)
	}

	comments, err := mysqlComments(ctx, s.db, "ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	attachComments(posts, comments)
	return posts, nil
}

func (s *MySQL) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	return mysqlPostWithComments(ctx, s.db, id)
}

func (s *MySQL) CreatePost(ctx context.Context, fields model.PostFields) (*model.Post, error) {
	var post *model.Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ts := now()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO posts (title, author, body, cover_image, published_at, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			fields.Title, fields.Author, fields.Body, fields.CoverImage, fields.PublishedAt, ts, ts)
		if err != nil {
			return fmt.Errorf("mysql: insert post: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("mysql: insert post id: %w", err)
		}
		post, err = mysqlPostWithComments(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *MySQL) UpdatePost(ctx context.Context, id int64, fields model.PostFields) (*model.Post, error) {
	var post *model.Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE posts SET title = ?, author = ?, body = ?, cover_image = ?, published_at = ?, updated_at = ?
			 WHERE id = ?`,
			fields.Title, fields.Author, fields.Body, fields.CoverImage, fields.PublishedAt, now(), id)
		if err != nil {
			return fmt.Errorf("mysql: update post %d: %w", id, err)
		}
		if err := requireAffected(res); err != nil {
			return err
		}
		post, err = mysqlPostWithComments(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *MySQL) DeletePost(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mysql: delete post %d: %w", id, err)
	}
	return requireAffected(res)
}

func (s *MySQL) CreateComment(ctx context.Context, postID int64, fields model.CommentFields) (*model.Comment, error) {
	var comment *model.Comment
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM posts WHERE id = ? FOR UPDATE", postID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("mysql: find post %d: %w", postID, err)
		}
		ts := now()
		res, err := tx.ExecContext(ctx,
			"INSERT INTO comments (post_id, author, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			postID, fields.Author, fields.Body, ts, ts)
		if err != nil {
			return fmt.Errorf("mysql: insert comment: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("mysql: insert comment id: %w", err)
		}
		comment, err = mysqlComment(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *MySQL) GetComment(ctx context.Context, id int64) (*model.Comment, error) {
	return mysqlComment(ctx, s.db, id)
}

func (s *MySQL) UpdateComment(ctx context.Context, id int64, fields model.CommentFields) (*model.Comment, error) {
	var comment *model.Comment
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE comments SET author = ?, body = ?, updated_at = ? WHERE id = ?",
			fields.Author, fields.Body, now(), id)
		if err != nil {
			return fmt.Errorf("mysql: update comment %d: %w", id, err)
		}
		if err := requireAffected(res); err != nil {
			return err
		}
		comment, err = mysqlComment(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *MySQL) DeleteComment(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mysql: delete comment %d: %w", id, err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func mysqlFirstProfile(ctx context.Context, q sqlQueryer) (*model.Profile, error) {
	var (
		p                                 model.Profile
		bio, location, website, avatarURL sql.NullString
	)
	err := q.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM profiles ORDER BY id LIMIT 1").
		Scan(&p.ID, &p.DisplayName, &bio, &location, &website, &avatarURL, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mysql: get profile: %w", err)
	}
	p.Bio = nullString(bio)
	p.Location = nullString(location)
	p.Website = nullString(website)
	p.AvatarURL = nullString(avatarURL)
	return &p, nil
}

func mysqlPostWithComments(ctx context.Context, q sqlQueryer, id int64) (*model.Post, error) {
	row := q.QueryRowContext(ctx, "SELECT "+postColumns+" FROM posts WHERE id = ?", id)
	p, err := scanMySQLPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Comments, err = mysqlComments(ctx, q, "WHERE post_id = ? ORDER BY created_at DESC, id DESC", id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func mysqlComment(ctx context.Context, q sqlQueryer, id int64) (*model.Comment, error) {
	comments, err := mysqlComments(ctx, q, "WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, model.ErrNotFound
	}
	return &comments[0], nil
}

func mysqlComments(ctx context.Context, q sqlQueryer, clause string, args ...any) ([]model.Comment, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+commentColumns+" FROM comments "+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("mysql: list comments: %w", err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.Author, &c.Body, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("mysql: scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mysql: list comments: %w", err)
	}
	return comments, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMySQLPost(row rowScanner) (model.Post, error) {
	var (
		p           model.Post
		coverImage  sql.NullString
		publishedAt sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Title, &p.Author, &p.Body, &coverImage, &publishedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, err
	}
	if err != nil {
		return p, fmt.Errorf("mysql: scan post: %w", err)
	}
	p.CoverImage = nullString(coverImage)
	if publishedAt.Valid {
		t := publishedAt.Time.UTC()
		p.PublishedAt = &t
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	p.Comments = []model.Comment{}
	return p, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}
