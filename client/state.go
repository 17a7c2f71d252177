package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"social-console/model"
)

// ErrBusy is returned when the same operation is already in flight. No
// request is made.
var ErrBusy = errors.New("client: operation already in progress")

// Toast and error messages.
const (
	msgPostPublished   = "Post published"
	msgPostUpdated     = "Post updated"
	msgPostRemoved     = "Post removed"
	msgCommentAdded    = "Comment added"
	msgCommentRemoved  = "Comment removed"
	msgCommentUpdated  = "Comment updated"
	msgBioUpdated      = "Bio updated"
	msgCommentMissing  = "Add your name and comment before submitting."
	msgCommentEmpty    = "A comment cannot be empty."
	failSavePost       = "Unable to save post"
	failDeletePost     = "Unable to delete post"
	failSaveComment    = "Unable to save comment"
	failDeleteComment  = "Unable to delete comment"
	failUpdateProfile  = "Unable to update profile"
	failLoadInitial    = "Unable to load initial data"
	confirmDeletePost  = "Delete this post?"
	confirmDeleteReply = "Remove this comment?"
)

// Busy keys.
const (
	BusyPostSave    = "post-save"
	BusyProfileSave = "profile-save"
)

func BusyPostDelete(id int64) string        { return fmt.Sprintf("post-delete-%d", id) }
func BusyCommentCreate(postID int64) string { return fmt.Sprintf("comment-create-%d", postID) }
func BusyCommentUpdate(id int64) string     { return fmt.Sprintf("comment-update-%d", id) }
func BusyCommentDelete(id int64) string     { return fmt.Sprintf("comment-delete-%d", id) }

// PostForm is the post editor buffer. PublishedAt holds
// "YYYY-MM-DDTHH:MM" or "".
type PostForm struct {
	Title       string
	Author      string
	Body        string
	CoverImage  string
	PublishedAt string
}

type ProfileForm struct {
	DisplayName string
	Bio         string
	Location    string
	Website     string
	AvatarURL   string
}

type CommentDraft struct {
	Author string
	Body   string
}

type Stats struct {
	Posts    int
	Comments int
}

type Options struct {
	// Clock schedules toast dismissal and stamps reloads. Defaults to
	// the real clock.
	Clock clockwork.Clock
	// Confirm is asked before every delete. A nil Confirm approves
	// everything.
	Confirm func(prompt string) bool
	Logger  *slog.Logger
}

// State is the client-side store. Every mutation is followed by a full
// reload of the affected collection; nothing is patched locally.
//
// State is safe for concurrent use. Requests run without the lock held,
// so unrelated operations proceed in parallel while operations sharing a
// busy key do not.
type State struct {
	api     *API
	clock   clockwork.Clock
	confirm func(string) bool
	logger  *slog.Logger
	changed chan struct{}

	mu            sync.Mutex
	loading       bool
	posts         []model.Post
	syncedAt      time.Time
	profile       *model.Profile
	postForm      PostForm
	profileForm   ProfileForm
	editingPostID int64
	drafts        map[int64]CommentDraft
	busy          map[string]bool
	toast         *Toast
	toastTimer    clockwork.Timer
	toastSeq      int64
}

func NewState(api *API, opts Options) *State {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Confirm == nil {
		opts.Confirm = func(string) bool { return true }
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &State{
		api:     api,
		clock:   opts.Clock,
		confirm: opts.Confirm,
		logger:  opts.Logger,
		changed: make(chan struct{}, 1),
		drafts:  make(map[int64]CommentDraft),
		busy:    make(map[string]bool),
	}
}

// Changed is signalled after every state change. Signals coalesce: a
// reader that falls behind sees one pending signal, not many.
func (s *State) Changed() <-chan struct{} { return s.changed }

func (s *State) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// Boot loads the profile and the post list concurrently.
func (s *State) Boot(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	s.notify()

	var (
		wg                   sync.WaitGroup
		profileErr, postsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		profileErr = s.LoadProfile(ctx)
	}()
	go func() {
		defer wg.Done()
		postsErr = s.LoadPosts(ctx)
	}()
	wg.Wait()

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	s.notify()

	if err := errors.Join(profileErr, postsErr); err != nil {
		s.handleError(failLoadInitial, err)
		return err
	}
	return nil
}

func (s *State) LoadPosts(ctx context.Context) error {
	posts, err := s.api.ListPosts(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.posts = posts
	s.syncedAt = s.clock.Now()
	s.mu.Unlock()
	s.notify()
	return nil
}

// LoadProfile refreshes the profile and resets the profile form from it.
// A missing profile is not an error: Profile returns nil and the form is
// left empty.
func (s *State) LoadProfile(ctx context.Context) error {
	p, err := s.api.GetProfile(ctx)
	if err != nil && !IsNotFound(err) {
		return err
	}
	s.mu.Lock()
	s.profile = p
	s.profileForm = profileFormFrom(p)
	s.mu.Unlock()
	s.notify()
	return nil
}

func profileFormFrom(p *model.Profile) ProfileForm {
	if p == nil {
		return ProfileForm{}
	}
	return ProfileForm{
		DisplayName: p.DisplayName,
		Bio:         deref(p.Bio),
		Location:    deref(p.Location),
		Website:     deref(p.Website),
		AvatarURL:   deref(p.AvatarURL),
	}
}

// UpdatePostForm sets one field of the post form by its JSON name.
func (s *State) UpdatePostForm(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := &s.postForm
	switch field {
	case "title":
		f.Title = value
	case "author":
		f.Author = value
	case "body":
		f.Body = value
	case "cover_image":
		f.CoverImage = value
	case "published_at":
		f.PublishedAt = value
	default:
		return fmt.Errorf("client: unknown post field %q", field)
	}
	s.notify()
	return nil
}

func (s *State) UpdateProfileForm(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := &s.profileForm
	switch field {
	case "display_name":
		f.DisplayName = value
	case "bio":
		f.Bio = value
	case "location":
		f.Location = value
	case "website":
		f.Website = value
	case "avatar_url":
		f.AvatarURL = value
	default:
		return fmt.Errorf("client: unknown profile field %q", field)
	}
	s.notify()
	return nil
}

// UpdateCommentDraft sets author or body of the draft for postID. Drafts
// for different posts are independent.
func (s *State) UpdateCommentDraft(postID int64, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.drafts[postID]
	switch field {
	case "author":
		d.Author = value
	case "body":
		d.Body = value
	default:
		return fmt.Errorf("client: unknown comment field %q", field)
	}
	s.drafts[postID] = d
	s.notify()
	return nil
}

// SubmitPost creates a post, or updates the one being edited.
func (s *State) SubmitPost(ctx context.Context) error {
	if !s.startBusy(BusyPostSave) {
		return ErrBusy
	}
	defer s.stopBusy(BusyPostSave)

	s.mu.Lock()
	form := s.postForm
	editing := s.editingPostID
	s.mu.Unlock()

	in := model.PostInput{
		Title:       form.Title,
		Author:      form.Author,
		Body:        form.Body,
		CoverImage:  nullable(form.CoverImage),
		PublishedAt: nullable(form.PublishedAt),
	}
	var err error
	if editing != 0 {
		_, err = s.api.UpdatePost(ctx, editing, in)
	} else {
		_, err = s.api.CreatePost(ctx, in)
	}
	if err != nil {
		s.handleError(failSavePost, err)
		return err
	}
	if editing != 0 {
		s.showToast(msgPostUpdated, ToneSuccess)
	} else {
		s.showToast(msgPostPublished, ToneSuccess)
	}

	s.mu.Lock()
	s.postForm = PostForm{}
	s.editingPostID = 0
	s.mu.Unlock()

	if err := s.LoadPosts(ctx); err != nil {
		s.handleError(failSavePost, err)
		return err
	}
	return nil
}

// StartEditPost copies the post's current fields into the form and
// enters edit mode. It reports false if id is not in the loaded list.
func (s *State) StartEditPost(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.ID != id {
			continue
		}
		form := PostForm{
			Title:      p.Title,
			Author:     p.Author,
			Body:       p.Body,
			CoverImage: deref(p.CoverImage),
		}
		if p.PublishedAt != nil {
			form.PublishedAt = p.PublishedAt.UTC().Format(model.MinuteLayout)
		}
		s.postForm = form
		s.editingPostID = id
		s.notify()
		return true
	}
	return false
}

func (s *State) CancelEditPost() {
	s.mu.Lock()
	s.postForm = PostForm{}
	s.editingPostID = 0
	s.mu.Unlock()
	s.notify()
}

// DeletePost asks for confirmation, deletes the post and reloads. A
// declined confirmation returns nil without a request.
func (s *State) DeletePost(ctx context.Context, id int64) error {
	if !s.confirm(confirmDeletePost) {
		return nil
	}
	key := BusyPostDelete(id)
	if !s.startBusy(key) {
		return ErrBusy
	}
	defer s.stopBusy(key)

	if err := s.api.DeletePost(ctx, id); err != nil {
		s.handleError(failDeletePost, err)
		return err
	}
	s.showToast(msgPostRemoved, ToneSuccess)
	if err := s.LoadPosts(ctx); err != nil {
		s.handleError(failDeletePost, err)
		return err
	}
	return nil
}

// SubmitComment posts the draft for postID. A draft with a blank author
// or body is rejected locally with a danger toast.
func (s *State) SubmitComment(ctx context.Context, postID int64) error {
	s.mu.Lock()
	draft := s.drafts[postID]
	s.mu.Unlock()
	if strings.TrimSpace(draft.Author) == "" || strings.TrimSpace(draft.Body) == "" {
		s.showToast(msgCommentMissing, ToneDanger)
		return &Error{Kind: KindValidation, Message: msgCommentMissing}
	}

	key := BusyCommentCreate(postID)
	if !s.startBusy(key) {
		return ErrBusy
	}
	defer s.stopBusy(key)

	if _, err := s.api.CreateComment(ctx, postID, model.CommentInput{Author: draft.Author, Body: draft.Body}); err != nil {
		s.handleError(failSaveComment, err)
		return err
	}
	s.showToast(msgCommentAdded, ToneSuccess)
	s.mu.Lock()
	s.drafts[postID] = CommentDraft{}
	s.mu.Unlock()

	if err := s.LoadPosts(ctx); err != nil {
		s.handleError(failSaveComment, err)
		return err
	}
	return nil
}

// UpdateComment replaces the body of a loaded comment and keeps its
// author. A blank body is rejected locally with a danger toast.
func (s *State) UpdateComment(ctx context.Context, id int64, body string) error {
	comment, ok := s.comment(id)
	if !ok {
		return fmt.Errorf("client: comment #%d is not loaded", id)
	}
	if strings.TrimSpace(body) == "" {
		s.showToast(msgCommentEmpty, ToneDanger)
		return &Error{Kind: KindValidation, Message: msgCommentEmpty}
	}

	key := BusyCommentUpdate(id)
	if !s.startBusy(key) {
		return ErrBusy
	}
	defer s.stopBusy(key)

	if _, err := s.api.UpdateComment(ctx, id, model.CommentInput{Author: comment.Author, Body: body}); err != nil {
		s.handleError(failSaveComment, err)
		return err
	}
	s.showToast(msgCommentUpdated, ToneSuccess)
	if err := s.LoadPosts(ctx); err != nil {
		s.handleError(failSaveComment, err)
		return err
	}
	return nil
}

func (s *State) comment(id int64) (model.Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		for _, c := range p.Comments {
			if c.ID == id {
				return c, true
			}
		}
	}
	return model.Comment{}, false
}

func (s *State) DeleteComment(ctx context.Context, id int64) error {
	if !s.confirm(confirmDeleteReply) {
		return nil
	}
	key := BusyCommentDelete(id)
	if !s.startBusy(key) {
		return ErrBusy
	}
	defer s.stopBusy(key)

	if err := s.api.DeleteComment(ctx, id); err != nil {
		s.handleError(failDeleteComment, err)
		return err
	}
	s.showToast(msgCommentRemoved, ToneSuccess)
	if err := s.LoadPosts(ctx); err != nil {
		s.handleError(failDeleteComment, err)
		return err
	}
	return nil
}

// SubmitProfile saves the profile form, reloads the profile and reports
// whether it succeeded.
func (s *State) SubmitProfile(ctx context.Context) bool {
	if !s.startBusy(BusyProfileSave) {
		return false
	}
	defer s.stopBusy(BusyProfileSave)

	s.mu.Lock()
	form := s.profileForm
	s.mu.Unlock()

	in := model.ProfileInput{
		DisplayName: form.DisplayName,
		Bio:         nullable(form.Bio),
		Location:    nullable(form.Location),
		Website:     nullable(form.Website),
		AvatarURL:   nullable(form.AvatarURL),
	}
	if _, err := s.api.SaveProfile(ctx, in); err != nil {
		s.handleError(failUpdateProfile, err)
		return false
	}
	if err := s.LoadProfile(ctx); err != nil {
		s.handleError(failUpdateProfile, err)
		return false
	}
	s.showToast(msgBioUpdated, ToneSuccess)
	return true
}

func (s *State) startBusy(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[key] {
		return false
	}
	s.busy[key] = true
	s.notify()
	return true
}

func (s *State) stopBusy(key string) {
	s.mu.Lock()
	delete(s.busy, key)
	s.mu.Unlock()
	s.notify()
}

func (s *State) IsBusy(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy[key]
}

// SyncedAt is when the post list was last loaded, or the zero time.
func (s *State) SyncedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncedAt
}

func (s *State) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Posts returns the loaded posts. The slice is shared; do not modify it.
func (s *State) Posts() []model.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.posts
}

// Profile returns the loaded profile, or nil when none exists.
func (s *State) Profile() *model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

func (s *State) PostForm() PostForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.postForm
}

func (s *State) ProfileForm() ProfileForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profileForm
}

// EditingPostID is 0 outside edit mode.
func (s *State) EditingPostID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editingPostID
}

func (s *State) CommentDraft(postID int64) CommentDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drafts[postID]
}

// Toast returns the toast on screen, if any.
func (s *State) Toast() (Toast, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.toast == nil {
		return Toast{}, false
	}
	return *s.toast, true
}

func (s *State) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{Posts: len(s.posts)}
	for _, p := range s.posts {
		st.Comments += len(p.Comments)
	}
	return st
}

// nullable maps a blank form value to a JSON null.
func nullable(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
