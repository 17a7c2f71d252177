package console

import (
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// confirmRequest asks the user a yes/no question on behalf of a client
// operation blocked in Confirmer.Confirm.
type confirmRequest struct {
	prompt string
	reply  chan bool
}

// Confirmer bridges client.Options.Confirm to the running program. The
// client calls Confirm from the goroutine executing a command; the
// question is shown in the input line and Confirm returns the answer.
//
// Call SetProgram once the tea.Program exists and Close after it exits.
// Outside that window every confirmation is declined.
type Confirmer struct {
	program   atomic.Pointer[tea.Program]
	done      chan struct{}
	closeOnce sync.Once
}

func NewConfirmer() *Confirmer { return &Confirmer{done: make(chan struct{})} }

// Close declines the pending confirmation, if any, and all later ones.
func (c *Confirmer) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Confirmer) SetProgram(program *tea.Program) {
	c.program.Store(program)
}

func (c *Confirmer) Confirm(prompt string) bool {
	program := c.program.Load()
	if program == nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
	}
	reply := make(chan bool, 1)
	program.Send(confirmRequest{prompt: prompt, reply: reply})
	select {
	case yes := <-reply:
		return yes
	case <-c.done:
		return false
	}
}
