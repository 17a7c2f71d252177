package router

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"social-console/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// Raw HTML in post bodies is escaped; goldmark drops it unless WithUnsafe is set.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

var boardTemplate = template.Must(template.New("").Funcs(template.FuncMap{
	"ago":      ago,
	"markdown": renderMarkdown,
	"deref":    deref,
}).ParseFS(templateFS, "templates/*.html"))

type boardPage struct {
	Profile  *model.Profile
	Posts    []model.Post
	Comments int
}

// Board renders the read-only board: profile sidebar and every post with
// its comments.
func (h *Handler) Board(c *gin.Context) {
	ctx := c.Request.Context()
	profile, err := h.Store.GetProfile(ctx)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		h.Logger.Error("board: loading profile", "error", err, "request_id", c.GetString(requestIDKey))
		c.String(http.StatusInternalServerError, "Server Error")
		return
	}
	posts, err := h.Store.ListPosts(ctx)
	if err != nil {
		h.Logger.Error("board: listing posts", "error", err, "request_id", c.GetString(requestIDKey))
		c.String(http.StatusInternalServerError, "Server Error")
		return
	}
	page := boardPage{Profile: profile, Posts: posts}
	for _, p := range posts {
		page.Comments += len(p.Comments)
	}
	c.HTML(http.StatusOK, "index.html", page)
}

func ago(t any) string {
	switch v := t.(type) {
	case time.Time:
		return humanize.Time(v)
	case *time.Time:
		if v == nil {
			return ""
		}
		return humanize.Time(*v)
	}
	return ""
}

func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
