package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"social-console/client"
	entity "social-console/model"
)

// chromeLines is everything outside the viewport except the status.
const chromeLines = 4

func (model *Model) resize() {
	height := model.height - chromeLines - model.statusLines()
	if height < 3 {
		height = 3
	}
	model.viewport.Width = model.width
	model.viewport.Height = height
	model.viewport.SetContent(model.renderBody())
}

// refresh re-renders the scrollable body from the current client state.
func (model *Model) refresh() {
	model.resize()
}

func (model Model) statusLines() int {
	if model.status == "" {
		return 0
	}
	return strings.Count(model.status, "\n") + 1
}

func (model Model) View() string {
	var b strings.Builder
	b.WriteString(model.renderHeader())
	b.WriteByte('\n')
	b.WriteString(model.renderToast())
	b.WriteByte('\n')
	b.WriteString(model.viewport.View())
	b.WriteByte('\n')
	if model.status != "" {
		b.WriteString(model.theme.Faint.Render(model.status))
		b.WriteByte('\n')
	}
	b.WriteString(model.renderInput())
	b.WriteByte('\n')
	b.WriteString(model.renderHelp())
	return b.String()
}

func (model Model) renderHeader() string {
	name := "Social Console"
	if p := model.state.Profile(); p != nil {
		name = p.DisplayName
	}
	stats := model.state.Stats()
	left := model.theme.Header.Render(name)
	summary := fmt.Sprintf("%d posts · %d comments", stats.Posts, stats.Comments)
	if synced := model.state.SyncedAt(); !synced.IsZero() {
		summary += " · synced " + synced.Format("15:04")
	}
	right := model.theme.Faint.Render(summary)
	if model.state.Loading() {
		right = model.theme.Busy.Render("loading…") + "  " + right
	}
	gap := model.width - ansi.StringWidth(left) - ansi.StringWidth(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (model Model) renderToast() string {
	toast, ok := model.state.Toast()
	if !ok {
		return ""
	}
	style := model.theme.Success
	if toast.Tone == client.ToneDanger {
		style = model.theme.Danger
	}
	return style.Render(ansi.Truncate(toast.Message, model.width-2, "…"))
}

func (model Model) renderInput() string {
	if model.pending != nil {
		return model.theme.Prompt.Render(model.pending.prompt + " [y/n]")
	}
	return model.theme.Prompt.Render("> ") + string(model.input) + "█"
}

func (model Model) renderHelp() string {
	bindings := []string{
		model.keys.Submit.Help().Key + " " + model.keys.Submit.Help().Desc,
		model.keys.PageUp.Help().Key + "/" + model.keys.PageDown.Help().Key + " scroll",
		"help for commands",
		model.keys.Quit.Help().Key + " " + model.keys.Quit.Help().Desc,
	}
	return model.theme.Faint.Render(strings.Join(bindings, " • "))
}

// renderBody draws the profile, both forms and the post list.
func (model Model) renderBody() string {
	width := model.width
	if width < 20 {
		width = 20
	}
	state := model.state
	var lines []string
	add := func(s string) { lines = append(lines, ansi.Truncate(s, width, "…")) }

	add(model.theme.Section.Render("Profile"))
	if p := state.Profile(); p != nil {
		add(model.theme.Title.Render(p.DisplayName) + model.theme.Faint.Render(joinPresent(" · ", p.Location, p.Website)))
		if p.Bio != nil {
			add("  " + *p.Bio)
		}
	} else {
		add(model.theme.Faint.Render("  no profile yet"))
	}
	form := state.ProfileForm()
	add(model.theme.Faint.Render(fmt.Sprintf("  form: name=%q bio=%q location=%q website=%q avatar=%q",
		form.DisplayName, form.Bio, form.Location, form.Website, form.AvatarURL)))
	if state.IsBusy(client.BusyProfileSave) {
		add(model.theme.Busy.Render("  saving profile…"))
	}
	add("")

	post := state.PostForm()
	heading := "New post"
	if id := state.EditingPostID(); id != 0 {
		heading = fmt.Sprintf("Editing post #%d (cancel to stop)", id)
	}
	if state.IsBusy(client.BusyPostSave) {
		heading += model.theme.Busy.Render("  saving…")
	}
	add(model.theme.Section.Render(heading))
	add(fmt.Sprintf("  title:     %s", post.Title))
	add(fmt.Sprintf("  author:    %s", post.Author))
	add(fmt.Sprintf("  cover:     %s", post.CoverImage))
	add(fmt.Sprintf("  published: %s", post.PublishedAt))
	add("  body:")
	for _, line := range strings.Split(post.Body, "\n") {
		add("    " + line)
	}
	add("")

	posts := state.Posts()
	add(model.theme.Section.Render("Posts"))
	if len(posts) == 0 {
		add(model.theme.Faint.Render("  nothing has been posted yet"))
	}
	for _, p := range posts {
		lines = append(lines, model.renderPost(p, width)...)
	}
	return strings.Join(lines, "\n")
}

func (model Model) renderPost(p entity.Post, width int) []string {
	state := model.state
	var lines []string
	add := func(s string) { lines = append(lines, ansi.Truncate(s, width, "…")) }

	title := model.theme.Title.Render(fmt.Sprintf("#%d %s", p.ID, p.Title))
	if state.EditingPostID() == p.ID {
		title += model.theme.Highlight.Render("  [editing]")
	}
	if state.IsBusy(client.BusyPostDelete(p.ID)) {
		title += model.theme.Busy.Render("  deleting…")
	}
	add(title)
	meta := "by " + p.Author
	if p.PublishedAt != nil {
		meta += " · published " + ago(*p.PublishedAt)
	} else {
		meta += " · draft, created " + ago(p.CreatedAt)
	}
	add("  " + model.theme.Faint.Render(meta))
	if p.CoverImage != nil {
		add("  " + model.theme.Faint.Render("cover: "+*p.CoverImage))
	}
	wrapped := lipgloss.NewStyle().Width(width - 4).Render(p.Body)
	for _, line := range strings.Split(wrapped, "\n") {
		add("    " + line)
	}

	for _, c := range p.Comments {
		line := fmt.Sprintf("    ↳ #%d %s: %s %s", c.ID, c.Author, c.Body, model.theme.Faint.Render(ago(c.CreatedAt)))
		if state.IsBusy(client.BusyCommentDelete(c.ID)) {
			line += model.theme.Busy.Render("  removing…")
		}
		if state.IsBusy(client.BusyCommentUpdate(c.ID)) {
			line += model.theme.Busy.Render("  saving…")
		}
		add(line)
	}
	if draft := state.CommentDraft(p.ID); draft != (client.CommentDraft{}) {
		add(model.theme.Faint.Render(fmt.Sprintf("    draft: author=%q body=%q", draft.Author, draft.Body)))
	}
	if state.IsBusy(client.BusyCommentCreate(p.ID)) {
		add(model.theme.Busy.Render("    sending comment…"))
	}
	add("")
	return lines
}

func ago(t time.Time) string {
	return humanize.Time(t)
}

func joinPresent(sep string, values ...*string) string {
	var parts []string
	for _, v := range values {
		if v != nil && *v != "" {
			parts = append(parts, *v)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return sep + strings.Join(parts, sep)
}
