// Package store persists profiles, posts and comments.
//
// Three backends implement Store: SQLite (zombiezen, the default and the
// one tests run against), MySQL (database/sql with go-sql-driver) and
// PostgreSQL (pgxpool). All of them create their schema on open, cascade
// comment deletion from posts at the schema level, and list newest-first
// by created_at with id as the tiebreaker.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"social-console/model"
)

// Store is the data access contract used by the HTTP handlers.
type Store interface {
	// GetProfile returns the first profile row, or model.ErrNotFound.
	GetProfile(ctx context.Context) (*model.Profile, error)
	// SaveProfile updates the first profile row in place, creating it if
	// no profile exists yet.
	SaveProfile(ctx context.Context, fields model.ProfileFields) (*model.Profile, error)

	ListPosts(ctx context.Context) ([]model.Post, error)
	GetPost(ctx context.Context, id int64) (*model.Post, error)
	CreatePost(ctx context.Context, fields model.PostFields) (*model.Post, error)
	UpdatePost(ctx context.Context, id int64, fields model.PostFields) (*model.Post, error)
	DeletePost(ctx context.Context, id int64) error

	// CreateComment returns model.ErrNotFound when postID does not exist.
	CreateComment(ctx context.Context, postID int64, fields model.CommentFields) (*model.Comment, error)
	GetComment(ctx context.Context, id int64) (*model.Comment, error)
	UpdateComment(ctx context.Context, id int64, fields model.CommentFields) (*model.Comment, error)
	DeleteComment(ctx context.Context, id int64) error

	Ping(ctx context.Context) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config selects and parameterizes a backend.
type Config struct {
	Driver string
	// DSN is a file path (or ":memory:") for sqlite, a go-sql-driver DSN
	// for mysql and a postgres:// URL for postgres.
	DSN      string
	PoolSize int
	Logger   *slog.Logger
}

// Open connects to the configured backend and ensures the schema exists.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case DriverSQLite, "":
		st, err = OpenSQLite(ctx, cfg)
	case DriverMySQL:
		st, err = OpenMySQL(ctx, cfg)
	case DriverPostgres:
		st, err = OpenPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// now is the timestamp written to created_at/updated_at. Microsecond
// precision is what MySQL DATETIME(6) and Postgres TIMESTAMPTZ keep, so
// the value returned to callers equals what a later read yields.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// attachComments distributes comments (already newest-first) onto their posts.
func attachComments(posts []model.Post, comments []model.Comment) {
	index := make(map[int64]int, len(posts))
	for i := range posts {
		posts[i].Comments = []model.Comment{}
		index[posts[i].ID] = i
	}
	for _, c := range comments {
		if i, ok := index[c.PostID]; ok {
			posts[i].Comments = append(posts[i].Comments, c)
		}
	}
}
