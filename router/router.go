// Package router exposes the store over HTTP: the JSON API for profile,
// posts and comments, plus a server-rendered read-only board at "/".
package router

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"

	"social-console/store"
)

type Options struct {
	// APIPrefix is where the JSON routes are mounted, e.g. "/api".
	APIPrefix string
	// Compress gzips responses for clients that accept it.
	Compress bool
	Logger   *slog.Logger
}

// New returns the complete HTTP handler for the application.
func New(st store.Store, opts Options) http.Handler {
	engine := Engine(st, opts)
	if !opts.Compress {
		return engine
	}
	return gzhttp.GzipHandler(engine)
}

// Engine builds the gin engine without the compression wrapper.
func Engine(st store.Store, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := NewHandler(st, logger)

	r := gin.New()
	r.Use(requestID(), requestLogger(logger), gin.Recovery())
	r.SetHTMLTemplate(boardTemplate)
	SetupRoutes(r, h, opts.APIPrefix)
	return r
}

func SetupRoutes(r *gin.Engine, h *Handler, apiPrefix string) {
	apiPrefix = strings.TrimSuffix(apiPrefix, "/")

	r.GET("/healthz", h.Health)
	r.GET("/", h.Board)

	api := r.Group(apiPrefix)
	{
		api.GET("/profile", h.ShowProfile)
		api.PUT("/profile", h.UpdateProfile)

		api.GET("/posts", h.ListPosts)
		api.POST("/posts", h.CreatePost)
		api.GET("/posts/:id", h.ShowPost)
		api.PUT("/posts/:id", h.UpdatePost)
		api.DELETE("/posts/:id", h.DeletePost)
		api.POST("/posts/:id/comments", h.CreateComment)

		api.PUT("/comments/:id", h.UpdateComment)
		api.DELETE("/comments/:id", h.DeleteComment)
	}

	// Any other API path is a JSON 404; every other path shows the board.
	r.NoRoute(func(c *gin.Context) {
		if apiPrefix != "" && (c.Request.URL.Path == apiPrefix || strings.HasPrefix(c.Request.URL.Path, apiPrefix+"/")) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Not Found."})
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"message": "Not Found."})
			return
		}
		h.Board(c)
	})
}
