package model

import (
	"strings"
	"time"
)

type Post struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	Body        string     `json:"body"`
	CoverImage  *string    `json:"cover_image"`
	PublishedAt *time.Time `json:"published_at"`
	Comments    []Comment  `json:"comments"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PostInput is the request body of POST /posts and PUT /posts/{id}.
type PostInput struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Body        string  `json:"body"`
	CoverImage  *string `json:"cover_image"`
	PublishedAt *string `json:"published_at"`
}

// PostFields are the validated, normalized column values of a post.
type PostFields struct {
	Title       string
	Author      string
	Body        string
	CoverImage  *string
	PublishedAt *time.Time
}

func (in PostInput) Validate() (PostFields, error) {
	v := &ValidationError{}
	v.required("title", in.Title)
	v.maxLen("title", in.Title, 255)
	v.required("author", in.Author)
	v.maxLen("author", in.Author, 255)
	v.required("body", in.Body)

	fields := PostFields{
		Title:      strings.TrimSpace(in.Title),
		Author:     strings.TrimSpace(in.Author),
		Body:       in.Body,
		CoverImage: optional(in.CoverImage),
	}
	if fields.CoverImage != nil {
		v.maxLen("cover_image", *fields.CoverImage, 2048)
	}
	if raw := optional(in.PublishedAt); raw != nil {
		t, err := ParseTimestamp(*raw)
		if err != nil {
			v.Add("published_at", "The published at field must be a valid date.")
		} else {
			fields.PublishedAt = &t
		}
	}
	if err := v.Err(); err != nil {
		return PostFields{}, err
	}
	return fields, nil
}
