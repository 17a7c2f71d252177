package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"social-console/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS profiles (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	display_name TEXT NOT NULL,
	bio          TEXT,
	location     TEXT,
	website      TEXT,
	avatar_url   TEXT,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS posts (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	title        TEXT NOT NULL,
	author       TEXT NOT NULL,
	body         TEXT NOT NULL,
	cover_image  TEXT,
	published_at TEXT,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS posts_created_at ON posts(created_at);

CREATE TABLE IF NOT EXISTS comments (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id    INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	author     TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS comments_post_id ON comments(post_id, created_at);
`

// sqliteTimeLayout is fixed width so that text order equals time order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z"

const (
	postColumns    = "id, title, author, body, cover_image, published_at, created_at, updated_at"
	commentColumns = "id, post_id, author, body, created_at, updated_at"
	profileColumns = "id, display_name, bio, location, website, avatar_url, created_at, updated_at"
)

// SQLite is the zombiezen-backed store. Connections are taken from a
// fixed-size pool per call; each write runs inside a savepoint.
type SQLite struct {
	pool   *sqlitex.Pool
	logger *slog.Logger
	path   string
}

// OpenSQLite opens (creating if needed) the database file at cfg.DSN.
func OpenSQLite(ctx context.Context, cfg Config) (*SQLite, error) {
	path := cfg.DSN
	if path == "" {
		return nil, fmt.Errorf("sqlite: database path is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}
	if path == ":memory:" {
		// Each in-memory connection is its own database.
		poolSize = 1
	}

	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareSQLiteConn,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening %s: %w", path, err)
	}
	s := &SQLite{pool: pool, logger: logger, path: path}

	err = s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.ExecuteScript(conn, sqliteSchema, nil)
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlite: creating schema: %w", err)
	}

	logger.Info("sqlite store opened", "path", path, "pool_size", poolSize)
	return s, nil
}

func prepareSQLiteConn(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		// Comment rows rely on ON DELETE CASCADE.
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}
	return nil
}

func (s *SQLite) withConn(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("sqlite: take: %w", err)
	}
	defer s.pool.Put(conn)
	return fn(conn)
}

// withTx runs fn inside a savepoint that is released on success and rolled
// back when fn returns an error.
func (s *SQLite) withTx(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) (err error) {
		defer sqlitex.Save(conn)(&err)
		return fn(conn)
	})
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.ExecuteTransient(conn, "SELECT 1", nil)
	})
}

func (s *SQLite) Close() error {
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("sqlite: closing %s: %w", s.path, err)
	}
	s.logger.Info("sqlite store closed", "path", s.path)
	return nil
}

func (s *SQLite) GetProfile(ctx context.Context) (*model.Profile, error) {
	var profile *model.Profile
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		var err error
		profile, err = sqliteFirstProfile(conn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *SQLite) SaveProfile(ctx context.Context, fields model.ProfileFields) (*model.Profile, error) {
	var profile *model.Profile
	err := s.withTx(ctx, func(conn *sqlite.Conn) error {
		ts := sqliteTime(now())
		existing, err := sqliteFirstProfile(conn)
		switch {
		case errors.Is(err, model.ErrNotFound):
			err = sqlitex.Execute(conn,
				`INSERT INTO profiles (display_name, bio, location, website, avatar_url, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				&sqlitex.ExecOptions{Args: []any{
					fields.DisplayName, textArg(fields.Bio), textArg(fields.Location),
					textArg(fields.Website), textArg(fields.AvatarURL), ts, ts,
				}})
		case err != nil:
			return err
		default:
			err = sqlitex.Execute(conn,
				`UPDATE profiles SET display_name = ?, bio = ?, location = ?, website = ?, avatar_url = ?, updated_at = ?
				 WHERE id = ?`,
				&sqlitex.ExecOptions{Args: []any{
					fields.DisplayName, textArg(fields.Bio), textArg(fields.Location),
					textArg(fields.Website), textArg(fields.AvatarURL), ts, existing.ID,
				}})
		}
		if err != nil {
			return fmt.Errorf("sqlite: save profile: %w", err)
		}
		profile, err = sqliteFirstProfile(conn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *SQLite) ListPosts(ctx context.Context) ([]model.Post, error) {
	posts := []model.Post{}
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn,
			"SELECT "+postColumns+" FROM posts ORDER BY created_at DESC, id DESC",
			&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
				p, err := scanSQLitePost(stmt)
				if err != nil {
					return err
				}
				posts = append(posts, p)
				return nil
			}})
		if err != nil {
			return fmt.Errorf("sqlite: list posts: %w", err)
		}
		comments, err := sqliteComments(conn, "ORDER BY created_at DESC, id DESC")
		if err != nil {
			return err
		}
		attachComments(posts, comments)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *SQLite) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	var post *model.Post
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		var err error
		post, err = sqlitePostWithComments(conn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *SQLite) CreatePost(ctx context.Context, fields model.PostFields) (*model.Post, error) {
	var post *model.Post
	err := s.withTx(ctx, func(conn *sqlite.Conn) error {
		ts := sqliteTime(now())
		err := sqlitex.Execute(conn,
			`INSERT INTO posts (title, author, body, cover_image, published_at, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{
				fields.Title, fields.Author, fields.Body, textArg(fields.CoverImage),
				sqliteTimeArg(fields.PublishedAt), ts, ts,
			}})
		if err != nil {
			return fmt.Errorf("sqlite: insert post: %w", err)
		}
		post, err = sqlitePostWithComments(conn, conn.LastInsertRowID())
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *SQLite) UpdatePost(ctx context.Context, id int64, fields model.PostFields) (*model.Post, error) {
	var post *model.Post
	err := s.withTx(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn,
			`UPDATE posts SET title = ?, author = ?, body = ?, cover_image = ?, published_at = ?, updated_at = ?
			 WHERE id = ?`,
			&sqlitex.ExecOptions{Args: []any{
				fields.Title, fields.Author, fields.Body, textArg(fields.CoverImage),
				sqliteTimeArg(fields.PublishedAt), sqliteTime(now()), id,
			}})
		if err != nil {
			return fmt.Errorf("sqlite: update post %d: %w", id, err)
		}
		if conn.Changes() == 0 {
			return model.ErrNotFound
		}
		post, err = sqlitePostWithComments(conn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *SQLite) DeletePost(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, "DELETE FROM posts WHERE id = ?", &sqlitex.ExecOptions{Args: []any{id}})
		if err != nil {
			return fmt.Errorf("sqlite: delete post %d: %w", id, err)
		}
		if conn.Changes() == 0 {
			return model.ErrNotFound
		}
		return nil
	})
}

func (s *SQLite) CreateComment(ctx context.Context, postID int64, fields model.CommentFields) (*model.Comment, error) {
	var comment *model.Comment
	err := s.withTx(ctx, func(conn *sqlite.Conn) error {
		exists := false
		err := sqlitex.Execute(conn, "SELECT 1 FROM posts WHERE id = ?", &sqlitex.ExecOptions{
			Args: []any{postID},
			ResultFunc: func(*sqlite.Stmt) error {
				exists = true
				return nil
			},
		})
		if err != nil {
			return fmt.Errorf("sqlite: find post %d: %w", postID, err)
		}
		if !exists {
			return model.ErrNotFound
		}
		ts := sqliteTime(now())
		err = sqlitex.Execute(conn,
			"INSERT INTO comments (post_id, author, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			&sqlitex.ExecOptions{Args: []any{postID, fields.Author, fields.Body, ts, ts}})
		if err != nil {
			return fmt.Errorf("sqlite: insert comment: %w", err)
		}
		comment, err = sqliteComment(conn, conn.LastInsertRowID())
		return err
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *SQLite) GetComment(ctx context.Context, id int64) (*model.Comment, error) {
	var comment *model.Comment
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		var err error
		comment, err = sqliteComment(conn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *SQLite) UpdateComment(ctx context.Context, id int64, fields model.CommentFields) (*model.Comment, error) {
	var comment *model.Comment
	err := s.withTx(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn,
			"UPDATE comments SET author = ?, body = ?, updated_at = ? WHERE id = ?",
			&sqlitex.ExecOptions{Args: []any{fields.Author, fields.Body, sqliteTime(now()), id}})
		if err != nil {
			return fmt.Errorf("sqlite: update comment %d: %w", id, err)
		}
		if conn.Changes() == 0 {
			return model.ErrNotFound
		}
		comment, err = sqliteComment(conn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *SQLite) DeleteComment(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, "DELETE FROM comments WHERE id = ?", &sqlitex.ExecOptions{Args: []any{id}})
		if err != nil {
			return fmt.Errorf("sqlite: delete comment %d: %w", id, err)
		}
		if conn.Changes() == 0 {
			return model.ErrNotFound
		}
		return nil
	})
}

func sqliteFirstProfile(conn *sqlite.Conn) (*model.Profile, error) {
	var profile *model.Profile
	err := sqlitex.Execute(conn, "SELECT "+profileColumns+" FROM profiles ORDER BY id LIMIT 1",
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			p := model.Profile{
				ID:          stmt.ColumnInt64(0),
				DisplayName: stmt.ColumnText(1),
				Bio:         sqliteText(stmt, 2),
				Location:    sqliteText(stmt, 3),
				Website:     sqliteText(stmt, 4),
				AvatarURL:   sqliteText(stmt, 5),
			}
			var err error
			if p.CreatedAt, err = parseSQLiteTime(stmt.ColumnText(6)); err != nil {
				return err
			}
			if p.UpdatedAt, err = parseSQLiteTime(stmt.ColumnText(7)); err != nil {
				return err
			}
			profile = &p
			return nil
		}})
	if err != nil {
		return nil, fmt.Errorf("sqlite: get profile: %w", err)
	}
	if profile == nil {
		return nil, model.ErrNotFound
	}
	return profile, nil
}

func sqlitePostWithComments(conn *sqlite.Conn, id int64) (*model.Post, error) {
	var post *model.Post
	err := sqlitex.Execute(conn, "SELECT "+postColumns+" FROM posts WHERE id = ?",
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				p, err := scanSQLitePost(stmt)
				if err != nil {
					return err
				}
				post = &p
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("sqlite: get post %d: %w", id, err)
	}
	if post == nil {
		return nil, model.ErrNotFound
	}
	comments, err := sqliteComments(conn, "WHERE post_id = ? ORDER BY created_at DESC, id DESC", id)
	if err != nil {
		return nil, err
	}
	post.Comments = comments
	return post, nil
}

func sqliteComment(conn *sqlite.Conn, id int64) (*model.Comment, error) {
	comments, err := sqliteComments(conn, "WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, model.ErrNotFound
	}
	return &comments[0], nil
}

func sqliteComments(conn *sqlite.Conn, clause string, args ...any) ([]model.Comment, error) {
	comments := []model.Comment{}
	err := sqlitex.Execute(conn, "SELECT "+commentColumns+" FROM comments "+clause,
		&sqlitex.ExecOptions{
			Args: args,
			ResultFunc: func(stmt *sqlite.Stmt) error {
				c := model.Comment{
					ID:     stmt.ColumnInt64(0),
					PostID: stmt.ColumnInt64(1),
					Author: stmt.ColumnText(2),
					Body:   stmt.ColumnText(3),
				}
				var err error
				if c.CreatedAt, err = parseSQLiteTime(stmt.ColumnText(4)); err != nil {
					return err
				}
				if c.UpdatedAt, err = parseSQLiteTime(stmt.ColumnText(5)); err != nil {
					return err
				}
				comments = append(comments, c)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("sqlite: list comments: %w", err)
	}
	return comments, nil
}

// Columns: id(0), title(1), author(2), body(3), cover_image(4),
// published_at(5), created_at(6), updated_at(7)
func scanSQLitePost(stmt *sqlite.Stmt) (model.Post, error) {
	p := model.Post{
		ID:         stmt.ColumnInt64(0),
		Title:      stmt.ColumnText(1),
		Author:     stmt.ColumnText(2),
		Body:       stmt.ColumnText(3),
		CoverImage: sqliteText(stmt, 4),
		Comments:   []model.Comment{},
	}
	if !stmt.ColumnIsNull(5) {
		t, err := parseSQLiteTime(stmt.ColumnText(5))
		if err != nil {
			return p, err
		}
		p.PublishedAt = &t
	}
	var err error
	if p.CreatedAt, err = parseSQLiteTime(stmt.ColumnText(6)); err != nil {
		return p, err
	}
	if p.UpdatedAt, err = parseSQLiteTime(stmt.ColumnText(7)); err != nil {
		return p, err
	}
	return p, nil
}

func sqliteText(stmt *sqlite.Stmt, col int) *string {
	if stmt.ColumnIsNull(col) {
		return nil
	}
	v := stmt.ColumnText(col)
	return &v
}

func sqliteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func sqliteTimeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return sqliteTime(*t)
}

func parseSQLiteTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// textArg binds a nullable string; sqlitex binds a nil interface as NULL.
func textArg(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
