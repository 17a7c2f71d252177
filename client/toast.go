package client

import "time"

// ToastDuration is how long a toast stays up before it clears itself.
const ToastDuration = 4500 * time.Millisecond

type Tone string

const (
	ToneSuccess Tone = "success"
	ToneDanger  Tone = "danger"
)

type Toast struct {
	ID      int64
	Message string
	Tone    Tone
}

// showToast replaces the current toast and restarts the dismissal timer.
// Callers must not hold s.mu.
func (s *State) showToast(message string, tone Tone) {
	s.mu.Lock()
	if s.toastTimer != nil {
		s.toastTimer.Stop()
	}
	s.toastSeq++
	id := s.toastSeq
	s.toast = &Toast{ID: id, Message: message, Tone: tone}
	s.toastTimer = s.clock.AfterFunc(ToastDuration, func() { s.dismissToast(id) })
	s.mu.Unlock()
	s.notify()
}

func (s *State) dismissToast(id int64) {
	s.mu.Lock()
	if s.toast == nil || s.toast.ID != id {
		s.mu.Unlock()
		return
	}
	s.toast = nil
	s.toastTimer = nil
	s.mu.Unlock()
	s.notify()
}

// handleError shows the server's message for err, or fallback when the
// server supplied none.
func (s *State) handleError(fallback string, err error) {
	msg := serverMessage(err)
	if msg == "" {
		msg = fallback
	}
	s.logger.Warn(fallback, "error", err)
	s.showToast(msg, ToneDanger)
}
