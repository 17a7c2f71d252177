package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"social-console/model"
)

func (h *Handler) ListPosts(c *gin.Context) {
	posts, err := h.Store.ListPosts(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Post")
		return
	}
	respond(c, http.StatusOK, posts)
}

func (h *Handler) ShowPost(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		h.fail(c, err, "Post")
		return
	}
	post, err := h.Store.GetPost(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "Post")
		return
	}
	respond(c, http.StatusOK, post)
}

func (h *Handler) CreatePost(c *gin.Context) {
	var in model.PostInput
	if err := bind(c, &in); err != nil {
		h.fail(c, err, "Post")
		return
	}
	fields, err := in.Validate()
	if err != nil {
		h.fail(c, err, "Post")
		return
	}
	post, err := h.Store.CreatePost(c.Request.Context(), fields)
	if err != nil {
		h.fail(c, err, "Post")
		return
	}
	h.Logger.Info("post created", "post_id", post.ID, "request_id", c.GetString(requestIDKey))
	respond(c, http.StatusCreated, post)
}

// UpdatePost replaces every field of the post; omitted optional fields
// are cleared. A missing post is reported before the body is validated.
func (h *Handler) UpdatePost(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		h.fail(c, err, "Post")
		return
	}
	if _, err := h.Store.GetPost(c.Request.Context(), id); err != nil {
		h.fail(c, err, "Post")
		return
	}
	var in model.PostInput
	if err := bind(c, &in); err != nil {
		h.fail(c, err, "Post")
		return
	}
	fields, err := in.Validate()
	if err != nil {
		h.fail(c, err, "Post")
		return
	}
	post, err := h.Store.UpdatePost(c.Request.Context(), id, fields)
	if err != nil {
		h.fail(c, err, "Post")
		return
	}
	respond(c, http.StatusOK, post)
}

// DeletePost removes the post and, through the schema, its comments.
func (h *Handler) DeletePost(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		h.fail(c, err, "Post")
		return
	}
	if err := h.Store.DeletePost(c.Request.Context(), id); err != nil {
		h.fail(c, err, "Post")
		return
	}
	h.Logger.Info("post deleted", "post_id", id, "request_id", c.GetString(requestIDKey))
	c.Status(http.StatusNoContent)
}
