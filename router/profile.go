package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"social-console/model"
)

// ShowProfile handles GET /profile.
func (h *Handler) ShowProfile(c *gin.Context) {
	p, err := h.Store.GetProfile(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Profile")
		return
	}
	respond(c, http.StatusOK, p)
}

// UpdateProfile handles PUT /profile. The profile is created on first
// save; later saves leave keys absent from the body unchanged.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var in model.ProfileInput
	if err := bind(c, &in); err != nil {
		h.fail(c, err, "Profile")
		return
	}
	existing, err := h.Store.GetProfile(c.Request.Context())
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		h.fail(c, err, "Profile")
		return
	}
	fields, err := in.Merge(existing).Validate()
	if err != nil {
		h.fail(c, err, "Profile")
		return
	}
	p, err := h.Store.SaveProfile(c.Request.Context(), fields)
	if err != nil {
		h.fail(c, err, "Profile")
		return
	}
	respond(c, http.StatusOK, p)
}
