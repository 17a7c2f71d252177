package store

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"social-console/model"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(context.Background(), Config{
		DSN:      filepath.Join(t.TempDir(), "test.db"),
		PoolSize: 2,
	})
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store { return openTestSQLite(t) })
}

func TestSQLiteInMemory(t *testing.T) {
	s, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	post, err := s.CreatePost(context.Background(), model.PostFields{Title: "t", Author: "a", Body: "b"})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if _, err := s.GetPost(context.Background(), post.ID); err != nil {
		t.Fatalf("GetPost: %v", err)
	}
}

func TestMySQL(t *testing.T) {
	dsn := os.Getenv("SOCIAL_CONSOLE_MYSQL_DSN")
	if dsn == "" {
		t.Skip("SOCIAL_CONSOLE_MYSQL_DSN not set")
	}
	runStoreSuite(t, func(t *testing.T) Store {
		s, err := OpenMySQL(context.Background(), Config{DSN: dsn})
		if err != nil {
			t.Fatalf("OpenMySQL: %v", err)
		}
		truncate(t, func(stmt string) error {
			_, err := s.db.Exec(stmt)
			return err
		})
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("SOCIAL_CONSOLE_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SOCIAL_CONSOLE_POSTGRES_DSN not set")
	}
	runStoreSuite(t, func(t *testing.T) Store {
		s, err := OpenPostgres(context.Background(), Config{DSN: dsn})
		if err != nil {
			t.Fatalf("OpenPostgres: %v", err)
		}
		truncate(t, func(stmt string) error {
			_, err := s.pool.Exec(context.Background(), stmt)
			return err
		})
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func truncate(t *testing.T, exec func(string) error) {
	t.Helper()
	for _, stmt := range []string{"DELETE FROM comments", "DELETE FROM posts", "DELETE FROM profiles"} {
		if err := exec(stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "oracle"}); err == nil {
		t.Fatal("Open accepted an unknown driver")
	}
}

// runStoreSuite exercises the Store contract against a fresh, empty store
// per subtest.
func runStoreSuite(t *testing.T, open func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("ProfileNotFoundThenUpsert", func(t *testing.T) {
		s := open(t)
		if _, err := s.GetProfile(ctx); !errors.Is(err, model.ErrNotFound) {
			t.Fatalf("GetProfile on empty store: err = %v, want ErrNotFound", err)
		}
		bio := "hello"
		created, err := s.SaveProfile(ctx, model.ProfileFields{DisplayName: "Ann", Bio: &bio})
		if err != nil {
			t.Fatalf("SaveProfile: %v", err)
		}
		updated, err := s.SaveProfile(ctx, model.ProfileFields{DisplayName: "Ann B"})
		if err != nil {
			t.Fatalf("SaveProfile (update): %v", err)
		}
		if updated.ID != created.ID {
			t.Errorf("update created a second profile: id %d, want %d", updated.ID, created.ID)
		}
		if updated.Bio != nil {
			t.Errorf("Bio = %q, want nil after update without bio", *updated.Bio)
		}
		got, err := s.GetProfile(ctx)
		if err != nil {
			t.Fatalf("GetProfile: %v", err)
		}
		if got.DisplayName != "Ann B" {
			t.Errorf("DisplayName = %q, want %q", got.DisplayName, "Ann B")
		}
	})

	t.Run("CreatedPostListedFirstOnce", func(t *testing.T) {
		s := open(t)
		for _, title := range []string{"first", "second"} {
			if _, err := s.CreatePost(ctx, model.PostFields{Title: title, Author: "Ann", Body: "x"}); err != nil {
				t.Fatalf("CreatePost(%s): %v", title, err)
			}
		}
		cover := "https://example.com/c.png"
		published := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
		created, err := s.CreatePost(ctx, model.PostFields{
			Title: "Hello", Author: "Ann", Body: "World", CoverImage: &cover, PublishedAt: &published,
		})
		if err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
		if created.ID == 0 {
			t.Fatal("CreatePost returned no id")
		}

		posts, err := s.ListPosts(ctx)
		if err != nil {
			t.Fatalf("ListPosts: %v", err)
		}
		if len(posts) != 3 {
			t.Fatalf("len(posts) = %d, want 3", len(posts))
		}
		if posts[0].ID != created.ID || posts[0].Title != "Hello" {
			t.Errorf("posts[0] = %d %q, want %d %q", posts[0].ID, posts[0].Title, created.ID, "Hello")
		}
		if posts[2].Title != "first" {
			t.Errorf("posts[2].Title = %q, want %q", posts[2].Title, "first")
		}
		count := 0
		for _, p := range posts {
			if p.ID == created.ID {
				count++
			}
		}
		if count != 1 {
			t.Errorf("created post listed %d times", count)
		}
		if posts[0].CoverImage == nil || *posts[0].CoverImage != cover {
			t.Errorf("CoverImage = %v", posts[0].CoverImage)
		}
		if posts[0].PublishedAt == nil || !posts[0].PublishedAt.Equal(published) {
			t.Errorf("PublishedAt = %v, want %v", posts[0].PublishedAt, published)
		}
		if posts[0].Comments == nil {
			t.Error("Comments is nil, want empty slice")
		}
	})

	t.Run("UpdatePost", func(t *testing.T) {
		s := open(t)
		post, err := s.CreatePost(ctx, model.PostFields{Title: "a", Author: "b", Body: "c"})
		if err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
		updated, err := s.UpdatePost(ctx, post.ID, model.PostFields{Title: "a2", Author: "b2", Body: "c2"})
		if err != nil {
			t.Fatalf("UpdatePost: %v", err)
		}
		if updated.ID != post.ID || updated.Title != "a2" || updated.Body != "c2" {
			t.Errorf("updated = %+v", updated)
		}
		posts, err := s.ListPosts(ctx)
		if err != nil {
			t.Fatalf("ListPosts: %v", err)
		}
		if len(posts) != 1 {
			t.Errorf("len(posts) = %d after update, want 1", len(posts))
		}
		if _, err := s.UpdatePost(ctx, post.ID+1000, model.PostFields{Title: "x", Author: "y", Body: "z"}); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("UpdatePost(missing) err = %v, want ErrNotFound", err)
		}
	})

	t.Run("CommentsNewestFirst", func(t *testing.T) {
		s := open(t)
		post, err := s.CreatePost(ctx, model.PostFields{Title: "a", Author: "b", Body: "c"})
		if err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
		older, err := s.CreateComment(ctx, post.ID, model.CommentFields{Author: "Bo", Body: "one"})
		if err != nil {
			t.Fatalf("CreateComment: %v", err)
		}
		newer, err := s.CreateComment(ctx, post.ID, model.CommentFields{Author: "Cy", Body: "two"})
		if err != nil {
			t.Fatalf("CreateComment: %v", err)
		}
		got, err := s.GetPost(ctx, post.ID)
		if err != nil {
			t.Fatalf("GetPost: %v", err)
		}
		if len(got.Comments) != 2 || got.Comments[0].ID != newer.ID || got.Comments[1].ID != older.ID {
			t.Errorf("comments = %+v, want [%d %d]", got.Comments, newer.ID, older.ID)
		}
		posts, err := s.ListPosts(ctx)
		if err != nil {
			t.Fatalf("ListPosts: %v", err)
		}
		if len(posts[0].Comments) != 2 || posts[0].Comments[0].ID != newer.ID {
			t.Errorf("listed comments = %+v", posts[0].Comments)
		}

		edited, err := s.UpdateComment(ctx, older.ID, model.CommentFields{Author: "Bo", Body: "edited"})
		if err != nil {
			t.Fatalf("UpdateComment: %v", err)
		}
		if edited.Body != "edited" || edited.PostID != post.ID {
			t.Errorf("edited = %+v", edited)
		}
		gc, err := s.GetComment(ctx, older.ID)
		if err != nil {
			t.Fatalf("GetComment: %v", err)
		}
		if gc.Body != "edited" || gc.Author != "Bo" {
			t.Errorf("GetComment = %+v", gc)
		}
	})

	t.Run("CommentOnMissingPost", func(t *testing.T) {
		s := open(t)
		_, err := s.CreateComment(ctx, 4242, model.CommentFields{Author: "Bo", Body: "hi"})
		if !errors.Is(err, model.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("DeletePostCascades", func(t *testing.T) {
		s := open(t)
		keep, err := s.CreatePost(ctx, model.PostFields{Title: "keep", Author: "b", Body: "c"})
		if err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
		doomed, err := s.CreatePost(ctx, model.PostFields{Title: "doomed", Author: "b", Body: "c"})
		if err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
		var doomedComments []int64
		for _, body := range []string{"one", "two"} {
			c, err := s.CreateComment(ctx, doomed.ID, model.CommentFields{Author: "x", Body: body})
			if err != nil {
				t.Fatalf("CreateComment: %v", err)
			}
			doomedComments = append(doomedComments, c.ID)
		}
		if _, err := s.CreateComment(ctx, keep.ID, model.CommentFields{Author: "x", Body: "stays"}); err != nil {
			t.Fatalf("CreateComment: %v", err)
		}

		if err := s.DeletePost(ctx, doomed.ID); err != nil {
			t.Fatalf("DeletePost: %v", err)
		}
		posts, err := s.ListPosts(ctx)
		if err != nil {
			t.Fatalf("ListPosts: %v", err)
		}
		if len(posts) != 1 || posts[0].ID != keep.ID {
			t.Fatalf("posts after delete = %+v", posts)
		}
		for _, p := range posts {
			for _, c := range p.Comments {
				if c.PostID == doomed.ID {
					t.Errorf("comment %d still references deleted post", c.ID)
				}
			}
		}
		for _, id := range doomedComments {
			if err := s.DeleteComment(ctx, id); !errors.Is(err, model.ErrNotFound) {
				t.Errorf("comment %d survived the cascade (DeleteComment err = %v)", id, err)
			}
		}
		if _, err := s.GetPost(ctx, doomed.ID); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("GetPost(deleted) err = %v, want ErrNotFound", err)
		}
		if err := s.DeletePost(ctx, doomed.ID); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("second DeletePost err = %v, want ErrNotFound", err)
		}
	})

	t.Run("DeleteComment", func(t *testing.T) {
		s := open(t)
		post, err := s.CreatePost(ctx, model.PostFields{Title: "a", Author: "b", Body: "c"})
		if err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
		c, err := s.CreateComment(ctx, post.ID, model.CommentFields{Author: "x", Body: "y"})
		if err != nil {
			t.Fatalf("CreateComment: %v", err)
		}
		if err := s.DeleteComment(ctx, c.ID); err != nil {
			t.Fatalf("DeleteComment: %v", err)
		}
		got, err := s.GetPost(ctx, post.ID)
		if err != nil {
			t.Fatalf("GetPost: %v", err)
		}
		if len(got.Comments) != 0 {
			t.Errorf("comments = %+v, want none", got.Comments)
		}
		if _, err := s.UpdateComment(ctx, c.ID, model.CommentFields{Author: "x", Body: "y"}); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("UpdateComment(deleted) err = %v, want ErrNotFound", err)
		}
		if _, err := s.GetComment(ctx, c.ID); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("GetComment(deleted) err = %v, want ErrNotFound", err)
		}
	})

	t.Run("Seed", func(t *testing.T) {
		s := open(t)
		seeded, err := Seed(ctx, s, SeedOptions{Posts: 3, Rand: rand.New(rand.NewSource(1))})
		if err != nil {
			t.Fatalf("Seed: %v", err)
		}
		if !seeded {
			t.Error("Seed reported nothing created on an empty store")
		}
		profile, err := s.GetProfile(ctx)
		if err != nil {
			t.Fatalf("GetProfile: %v", err)
		}
		if profile.DisplayName != "Product Storyteller" {
			t.Errorf("DisplayName = %q", profile.DisplayName)
		}
		posts, err := s.ListPosts(ctx)
		if err != nil {
			t.Fatalf("ListPosts: %v", err)
		}
		if len(posts) != 3 {
			t.Fatalf("len(posts) = %d, want 3", len(posts))
		}
		for _, p := range posts {
			if n := len(p.Comments); n < 1 || n > 4 {
				t.Errorf("post %d has %d comments, want 1..4", p.ID, n)
			}
		}

		seeded, err = Seed(ctx, s, SeedOptions{Posts: 3})
		if err != nil {
			t.Fatalf("second Seed: %v", err)
		}
		if seeded {
			t.Error("second Seed created posts in a non-empty store")
		}
	})
}
