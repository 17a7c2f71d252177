package model

import (
	"strings"
	"time"
)

type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentInput is the request body of POST /posts/{id}/comments and PUT /comments/{id}.
type CommentInput struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

type CommentFields struct {
	Author string
	Body   string
}

func (in CommentInput) Validate() (CommentFields, error) {
	v := &ValidationError{}
	v.required("author", in.Author)
	v.maxLen("author", in.Author, 255)
	v.required("body", in.Body)
	if err := v.Err(); err != nil {
		return CommentFields{}, err
	}
	return CommentFields{Author: strings.TrimSpace(in.Author), Body: in.Body}, nil
}
