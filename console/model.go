// Package console is a terminal front end for the social console API.
// It renders client.State and drives it with one-line commands typed at
// the bottom of the screen.
package console

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"social-console/client"
)

// stateChangedMsg is delivered whenever client.State signals a change.
type stateChangedMsg struct{}

// commandDoneMsg reports the end of a command that talked to the API.
type commandDoneMsg struct {
	name string
	err  error
}

type Model struct {
	ctx   context.Context
	state *client.State
	keys  KeyMap
	theme Theme

	viewport viewport.Model
	input    []rune
	status   string
	pending  *confirmRequest
	width    int
	height   int
}

func NewModel(ctx context.Context, state *client.State) Model {
	model := Model{
		ctx:      ctx,
		state:    state,
		keys:     DefaultKeyMap,
		theme:    DefaultTheme,
		viewport: viewport.New(80, 20),
		width:    80,
		height:   24,
	}
	model.refresh()
	return model
}

// Init boots the client state and starts listening for changes.
func (model Model) Init() tea.Cmd {
	return tea.Batch(
		model.waitForChange(),
		model.run("boot", model.state.Boot),
	)
}

func (model Model) waitForChange() tea.Cmd {
	changed := model.state.Changed()
	ctx := model.ctx
	return func() tea.Msg {
		select {
		case <-changed:
			return stateChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

// run executes op off the UI goroutine. Failures have already been
// surfaced as toasts by the client, so only ErrBusy reaches the status.
func (model Model) run(name string, op func(context.Context) error) tea.Cmd {
	ctx := model.ctx
	return func() tea.Msg {
		return commandDoneMsg{name: name, err: op(ctx)}
	}
}

func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.resize()
		return model, nil

	case stateChangedMsg:
		model.refresh()
		return model, model.waitForChange()

	case commandDoneMsg:
		if errors.Is(message.err, client.ErrBusy) {
			model.status = message.name + " is already in progress"
		}
		model.refresh()
		return model, nil

	case confirmRequest:
		if model.pending != nil {
			message.reply <- false
			return model, nil
		}
		model.pending = &message
		return model, nil

	case tea.KeyMsg:
		if key.Matches(message, model.keys.Quit) {
			model.answer(false)
			return model, tea.Quit
		}
		if model.pending != nil {
			return model.handleConfirmKeys(message)
		}
		return model.handleInputKeys(message)
	}
	return model, nil
}

func (model Model) handleConfirmKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Confirm):
		model.answer(true)
	case key.Matches(message, model.keys.Decline):
		model.answer(false)
	}
	return model, nil
}

func (model *Model) answer(yes bool) {
	if model.pending == nil {
		return
	}
	model.pending.reply <- yes
	model.pending = nil
}

func (model Model) handleInputKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Submit):
		line := string(model.input)
		model.input = model.input[:0]
		return model.execute(line)
	case key.Matches(message, model.keys.Up):
		model.viewport.LineUp(1)
	case key.Matches(message, model.keys.Down):
		model.viewport.LineDown(1)
	case key.Matches(message, model.keys.PageUp):
		model.viewport.LineUp(model.viewport.Height)
	case key.Matches(message, model.keys.PageDown):
		model.viewport.LineDown(model.viewport.Height)
	case message.Type == tea.KeyBackspace:
		if len(model.input) > 0 {
			model.input = model.input[:len(model.input)-1]
		}
	case message.Type == tea.KeyRunes || message.Type == tea.KeySpace:
		if message.Type == tea.KeySpace && len(message.Runes) == 0 {
			model.input = append(model.input, ' ')
		}
		model.input = append(model.input, message.Runes...)
	}
	return model, nil
}

// execute runs one command line.
func (model Model) execute(line string) (tea.Model, tea.Cmd) {
	command, err := Parse(line)
	if err != nil {
		model.status = err.Error()
		return model, nil
	}
	model.status = ""
	state := model.state

	switch command.Kind {
	case CmdNone:
	case CmdQuit:
		return model, tea.Quit
	case CmdHelp:
		model.status = helpText
	case CmdPostField:
		err = state.UpdatePostForm(command.Field, command.Text)
	case CmdSave:
		return model, model.run("save", state.SubmitPost)
	case CmdEdit:
		if !state.StartEditPost(command.ID) {
			model.status = fmt.Sprintf("post #%d is not loaded", command.ID)
		}
	case CmdCancel:
		state.CancelEditPost()
	case CmdDelete:
		return model, model.run("delete", func(ctx context.Context) error {
			return state.DeletePost(ctx, command.ID)
		})
	case CmdCommentField:
		err = state.UpdateCommentDraft(command.ID, command.Field, command.Text)
	case CmdCommentSend:
		return model, model.run("comment", func(ctx context.Context) error {
			return state.SubmitComment(ctx, command.ID)
		})
	case CmdUncomment:
		return model, model.run("uncomment", func(ctx context.Context) error {
			return state.DeleteComment(ctx, command.ID)
		})
	case CmdAmend:
		return model, model.run("amend", func(ctx context.Context) error {
			return state.UpdateComment(ctx, command.ID, command.Text)
		})
	case CmdProfileField:
		err = state.UpdateProfileForm(command.Field, command.Text)
	case CmdProfileSave:
		return model, model.run("profile save", func(ctx context.Context) error {
			state.SubmitProfile(ctx)
			return nil
		})
	case CmdReload:
		return model, model.run("reload", state.Boot)
	}
	if err != nil {
		model.status = err.Error()
	}
	model.refresh()
	return model, nil
}
