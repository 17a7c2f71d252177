package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"social-console/model"
)

// CreateComment handles POST /posts/{id}/comments.
func (h *Handler) CreateComment(c *gin.Context) {
	postID, err := paramID(c)
	if err != nil {
		h.fail(c, err, "Post")
		return
	}
	if _, err := h.Store.GetPost(c.Request.Context(), postID); err != nil {
		h.fail(c, err, "Post")
		return
	}
	var in model.CommentInput
	if err := bind(c, &in); err != nil {
		h.fail(c, err, "Comment")
		return
	}
	fields, err := in.Validate()
	if err != nil {
		h.fail(c, err, "Comment")
		return
	}
	comment, err := h.Store.CreateComment(c.Request.Context(), postID, fields)
	if err != nil {
		h.fail(c, err, "Post")
		return
	}
	respond(c, http.StatusCreated, comment)
}

func (h *Handler) UpdateComment(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		h.fail(c, err, "Comment")
		return
	}
	if _, err := h.Store.GetComment(c.Request.Context(), id); err != nil {
		h.fail(c, err, "Comment")
		return
	}
	var in model.CommentInput
	if err := bind(c, &in); err != nil {
		h.fail(c, err, "Comment")
		return
	}
	fields, err := in.Validate()
	if err != nil {
		h.fail(c, err, "Comment")
		return
	}
	comment, err := h.Store.UpdateComment(c.Request.Context(), id, fields)
	if err != nil {
		h.fail(c, err, "Comment")
		return
	}
	respond(c, http.StatusOK, comment)
}

func (h *Handler) DeleteComment(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		h.fail(c, err, "Comment")
		return
	}
	if err := h.Store.DeleteComment(c.Request.Context(), id); err != nil {
		h.fail(c, err, "Comment")
		return
	}
	c.Status(http.StatusNoContent)
}
