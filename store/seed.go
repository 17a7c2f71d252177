package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"social-console/model"
)

var (
	seedAuthors = []string{
		"Ada Moreno", "Kenji Sato", "Priya Raman", "Lena Fischer",
		"Tomás Ortega", "Grace Whitfield", "Amara Okafor", "Nils Berg",
	}
	seedTitles = []string{
		"Shipping the new onboarding flow",
		"What we learned from a week of pairing",
		"Notes from the community meetup",
		"Small fixes that made a big difference",
		"Our approach to release notes",
		"A closer look at the dashboard redesign",
		"Why we moved the docs into the repo",
		"Behind the scenes of the latest launch",
	}
	seedParagraphs = []string{
		"We spent most of the sprint talking to people who use the product every day, and the feedback shaped almost every decision that followed.",
		"The first version was rough around the edges. Instead of polishing it in private, we put it in front of a handful of teams and iterated in the open.",
		"Some of the most useful changes were the smallest ones: clearer labels, fewer clicks, and error messages that say what to do next.",
		"There is still plenty to do, and the backlog is public. If something bothers you, leave a comment and tell us about it.",
		"Thanks to everyone who tried the early builds and wrote up what broke. It made the final release far better than it would have been.",
	}
	seedComments = []string{
		"This is great, thanks for sharing.",
		"Looking forward to trying it out next week.",
		"Could you write more about how you measured the impact?",
		"We hit the same problem and solved it in a similar way.",
		"Nice write-up. The screenshots really help.",
		"Is there a plan to support this on mobile as well?",
	}
)

// SeedOptions controls Seed.
type SeedOptions struct {
	Posts  int
	Rand   *rand.Rand
	Logger *slog.Logger
}

// Seed creates the default profile when none exists and, when the store
// has no posts, the requested number of sample posts with one to four
// comments each. It reports whether any posts were created.
func Seed(ctx context.Context, s Store, opts SeedOptions) (bool, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := opts.Rand
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	if _, err := s.GetProfile(ctx); errors.Is(err, model.ErrNotFound) {
		bio, location, website := "Highlighting what our community ships every week.", "Remote", "https://example.com"
		_, err := s.SaveProfile(ctx, model.ProfileFields{
			DisplayName: "Product Storyteller",
			Bio:         &bio,
			Location:    &location,
			Website:     &website,
		})
		if err != nil {
			return false, fmt.Errorf("seed profile: %w", err)
		}
		logger.Info("created default profile")
	} else if err != nil {
		return false, fmt.Errorf("seed profile: %w", err)
	}

	posts, err := s.ListPosts(ctx)
	if err != nil {
		return false, fmt.Errorf("seed: %w", err)
	}
	if len(posts) > 0 {
		return false, nil
	}

	for i := 0; i < opts.Posts; i++ {
		fields := seedPost(r)
		post, err := s.CreatePost(ctx, fields)
		if err != nil {
			return false, fmt.Errorf("seed post %d: %w", i, err)
		}
		for j := 1 + r.Intn(4); j > 0; j-- {
			_, err := s.CreateComment(ctx, post.ID, model.CommentFields{
				Author: seedAuthors[r.Intn(len(seedAuthors))],
				Body:   seedComments[r.Intn(len(seedComments))],
			})
			if err != nil {
				return false, fmt.Errorf("seed comment on post %d: %w", post.ID, err)
			}
		}
	}
	logger.Info("database seeded with sample data", "posts", opts.Posts)
	return opts.Posts > 0, nil
}

func seedPost(r *rand.Rand) model.PostFields {
	paragraphs := make([]string, 3)
	for i := range paragraphs {
		paragraphs[i] = seedParagraphs[r.Intn(len(seedParagraphs))]
	}
	fields := model.PostFields{
		Title:  seedTitles[r.Intn(len(seedTitles))],
		Author: seedAuthors[r.Intn(len(seedAuthors))],
		Body:   strings.Join(paragraphs, "\n\n"),
	}
	if r.Float64() < 0.4 {
		cover := fmt.Sprintf("https://picsum.photos/seed/%d/640/360", r.Intn(1000))
		fields.CoverImage = &cover
	}
	// Somewhere in the last ten days.
	published := time.Now().UTC().Add(-time.Duration(r.Int63n(int64(10 * 24 * time.Hour)))).Truncate(time.Second)
	fields.PublishedAt = &published
	return fields
}
