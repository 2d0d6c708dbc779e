// Package conversation holds the per-call message log handed to the LLM on
// every turn: a fixed system prompt followed by a bounded window of user and
// assistant turns.
package conversation

import "strings"

const (
	// DefaultMaxHistory bounds the number of user+assistant messages kept
	// after the system prompt before the oldest are dropped.
	DefaultMaxHistory = 20

	interruptedSuffix = " [interrupted]"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in the log.
type Message struct {
	Role    Role
	Content string
}

// Store is the ordered message log for one call. It is not safe for
// concurrent use without external synchronization; one Store belongs to one
// call's Session Supervisor.
type Store struct {
	system     Message
	history    []Message
	maxHistory int
	turnCount  int
}

// New creates a Store with the given system prompt and the default history
// bound.
func New(systemPrompt string) *Store {
	return NewWithLimit(systemPrompt, DefaultMaxHistory)
}

// NewWithLimit creates a Store with an explicit history bound.
func NewWithLimit(systemPrompt string, maxHistory int) *Store {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Store{
		system:     Message{Role: RoleSystem, Content: systemPrompt},
		maxHistory: maxHistory,
	}
}

// AddUser appends a user message. Empty or whitespace-only content is
// silently ignored.
func (s *Store) AddUser(text string) {
	s.add(RoleUser, text)
}

// AddAssistant appends a full assistant message. Empty or whitespace-only
// content is silently ignored.
func (s *Store) AddAssistant(text string) {
	s.add(RoleAssistant, text)
}

// AddAssistantPartial records an assistant message that was cut short by
// barge-in: only spokenText was actually delivered as audio, so the entry is
// marked interrupted. A no-op if spokenText is empty after trimming.
func (s *Store) AddAssistantPartial(spokenText string) {
	trimmed := strings.TrimSpace(spokenText)
	if trimmed == "" {
		return
	}
	s.append(Message{Role: RoleAssistant, Content: trimmed + interruptedSuffix})
}

func (s *Store) add(role Role, text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}
	if role == RoleUser {
		s.turnCount++
	}
	s.append(Message{Role: role, Content: trimmed})
}

func (s *Store) append(m Message) {
	s.history = append(s.history, m)
	s.trim()
}

func (s *Store) trim() {
	for len(s.history) > s.maxHistory {
		s.history = s.history[1:]
	}
}

// Messages returns the system prompt followed by the bounded history, ready
// to hand to an LLM client.
func (s *Store) Messages() []Message {
	out := make([]Message, 0, len(s.history)+1)
	out = append(out, s.system)
	out = append(out, s.history...)
	return out
}

// TurnCount returns the number of non-empty user transcripts committed so
// far. This is a monotonic counter independent of the bounded history
// window, so it keeps counting correctly past maxHistory turns.
func (s *Store) TurnCount() int {
	return s.turnCount
}

// Reset clears history, preserving the system prompt. TurnCount is left
// untouched since it tracks transcripts committed over the call's lifetime,
// not the current window.
func (s *Store) Reset() {
	s.history = nil
}
