// Package client talks to the social-console JSON API and keeps the
// in-memory state a front end renders from.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"social-console/model"
)

type ErrorKind int

const (
	// KindTransport covers network failures and unexpected statuses.
	KindTransport ErrorKind = iota
	KindValidation
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	default:
		return "transport"
	}
}

// Error is returned by every API call that fails.
type Error struct {
	Kind ErrorKind
	// Status is 0 when no response was received.
	Status int
	// Message is the server-supplied message, if any.
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("client: %s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("client: %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("client: %s: status %d", e.Kind, e.Status)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a KindNotFound *Error.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindNotFound
}

// serverMessage returns the message the server attached to err, or "".
func serverMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

// API is a thin JSON client for the routes under the API prefix.
type API struct {
	baseURL string
	http    *http.Client
}

// NewAPI returns a client for baseURL (e.g. "http://localhost:8080/api").
// A nil httpClient means http.DefaultClient.
func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &API{baseURL: strings.TrimSuffix(baseURL, "/"), http: httpClient}
}

func (a *API) GetProfile(ctx context.Context) (*model.Profile, error) {
	var p model.Profile
	if err := a.do(ctx, http.MethodGet, "/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *API) SaveProfile(ctx context.Context, in model.ProfileInput) (*model.Profile, error) {
	var p model.Profile
	if err := a.do(ctx, http.MethodPut, "/profile", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *API) ListPosts(ctx context.Context) ([]model.Post, error) {
	var posts []model.Post
	if err := a.do(ctx, http.MethodGet, "/posts", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (a *API) CreatePost(ctx context.Context, in model.PostInput) (*model.Post, error) {
	var p model.Post
	if err := a.do(ctx, http.MethodPost, "/posts", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *API) UpdatePost(ctx context.Context, id int64, in model.PostInput) (*model.Post, error) {
	var p model.Post
	if err := a.do(ctx, http.MethodPut, fmt.Sprintf("/posts/%d", id), in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *API) DeletePost(ctx context.Context, id int64) error {
	return a.do(ctx, http.MethodDelete, fmt.Sprintf("/posts/%d", id), nil, nil)
}

func (a *API) CreateComment(ctx context.Context, postID int64, in model.CommentInput) (*model.Comment, error) {
	var c model.Comment
	if err := a.do(ctx, http.MethodPost, fmt.Sprintf("/posts/%d/comments", postID), in, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (a *API) UpdateComment(ctx context.Context, id int64, in model.CommentInput) (*model.Comment, error) {
	var c model.Comment
	if err := a.do(ctx, http.MethodPut, fmt.Sprintf("/comments/%d", id), in, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (a *API) DeleteComment(ctx context.Context, id int64) error {
	return a.do(ctx, http.MethodDelete, fmt.Sprintf("/comments/%d", id), nil, nil)
}

func (a *API) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &Error{Kind: KindTransport, Err: err}
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return &Error{Kind: KindTransport, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindTransport, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrap(data), out); err != nil {
		return &Error{Kind: KindTransport, Status: resp.StatusCode, Err: fmt.Errorf("decoding %s %s: %w", method, path, err)}
	}
	return nil
}

// unwrap returns the payload of a {"data": ...} envelope, or data itself
// when the response is bare.
func unwrap(data []byte) []byte {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err == nil && len(env.Data) > 0 {
		return env.Data
	}
	return data
}

func responseError(status int, data []byte) *Error {
	e := &Error{Kind: KindTransport, Status: status}
	switch status {
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		e.Kind = KindValidation
	case http.StatusNotFound:
		e.Kind = KindNotFound
	}
	var body struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		e.Message = body.Message
		e.Fields = body.Errors
	}
	return e
}
