package router

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"social-console/model"
	"social-console/store"
)

type Handler struct {
	Store  store.Store
	Logger *slog.Logger
}

func NewHandler(st store.Store, logger *slog.Logger) *Handler {
	return &Handler{Store: st, Logger: logger}
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		h.Logger.Error("health check failed", "error", err, "request_id", c.GetString(requestIDKey))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

const malformedBodyMessage = "The request body is not valid JSON."

// malformedBodyError is reported with a message only, so it cannot be
// mistaken for an error on a payload field.
type malformedBodyError struct{ err error }

func (e *malformedBodyError) Error() string { return "malformed JSON body: " + e.err.Error() }

func (e *malformedBodyError) Unwrap() error { return e.err }

// respond wraps v in the {"data": ...} envelope.
func respond(c *gin.Context, status int, v any) {
	c.JSON(status, gin.H{"data": v})
}

// fail maps err onto the API error body. resource names the record in
// the not-found message ("Post", "Comment", "Profile").
func (h *Handler) fail(c *gin.Context, err error, resource string) {
	var (
		verr *model.ValidationError
		merr *malformedBodyError
	)
	switch {
	case errors.As(err, &merr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": malformedBodyMessage})
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": verr.Error(), "errors": verr.Fields})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": resource + " not found."})
	default:
		h.Logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
			"request_id", c.GetString(requestIDKey),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
	}
}

// paramID reads the :id path segment. Anything that is not a positive
// integer cannot name a record, so it is reported as not found.
func paramID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.ErrNotFound
	}
	return id, nil
}

// bind decodes the JSON body into v. An empty body decodes as an empty
// payload so that field validation reports what is missing.
func bind(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return &malformedBodyError{err: err}
	}
	return nil
}
