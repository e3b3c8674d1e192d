// Package chat holds the conversation state for the assistant panel. A
// Session serializes sends: while a request is in flight further sends are
// ignored, so the transcript never interleaves.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"pepperwatch/internal/domain"
)

// Chatter is the slice of the backend the session needs.
type Chatter interface {
	Chat(ctx context.Context, message string) (string, error)
}

// State is the session's send state.
type State int

const (
	StateIdle State = iota
	StateSending
)

// SuggestedPrompts are the canned questions offered when the transcript is
// empty.
var SuggestedPrompts = []string{
	"What is the latest pepper price in Sirsi?",
	"How have prices in Madikeri moved over the last month?",
	"Which region has the highest price right now?",
	"What factors drive pepper prices in Karnataka?",
}

// Session is a single conversation with the assistant. All methods are safe
// for concurrent use.
type Session struct {
	chatter Chatter
	log     *slog.Logger

	mu       sync.Mutex
	messages []domain.Message
	state    State
	lastErr  error
}

// NewSession returns an empty idle session.
func NewSession(chatter Chatter, log *slog.Logger) *Session {
	return &Session{chatter: chatter, log: log}
}

// Send submits text to the assistant and appends the exchange to the
// transcript. Empty or whitespace-only text is ignored, as is any send made
// while another is still in flight. The user's message is appended before
// the request goes out; on failure it stays in the transcript and the error
// is returned and retained, with no assistant message added.
func (s *Session) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	if s.state == StateSending {
		s.mu.Unlock()
		return nil
	}
	s.state = StateSending
	s.lastErr = nil
	s.messages = append(s.messages, domain.Message{Role: domain.RoleUser, Content: text})
	s.mu.Unlock()

	reply, err := s.chatter.Chat(ctx, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	if err != nil {
		s.lastErr = err
		s.log.Warn("chat send failed", "error", err)
		return err
	}
	s.messages = append(s.messages, domain.Message{Role: domain.RoleAssistant, Content: reply})
	return nil
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// State reports whether a send is in flight.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the error from the most recent failed send, cleared by
// the next send.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Reset discards the transcript and any retained error. It does not cancel
// an in-flight send; a reply that arrives afterwards is appended to the
// fresh transcript.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.lastErr = nil
}
