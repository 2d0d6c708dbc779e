package llm

import "context"

// Role mirrors conversation.Role without importing that package, keeping
// the backend clients usable outside the call orchestration layer.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn handed to a chat backend. The caller supplies the
// whole conversation so far (system prompt included); backends that only
// support a single prompt string flatten it themselves.
type Message struct {
	Role    Role
	Content string
}

// ChatClient produces a streaming chat completion from a full message
// history. Every call is cancellable via ctx: an LLM backend must check ctx
// at every network read and stop emitting tokens once it is done.
type ChatClient interface {
	Chat(ctx context.Context, messages []Message, model string, onToken TokenCallback) (*Result, error)
}

// Result holds the complete response text with timing, once the stream ends
// or is cancelled.
type Result struct {
	Text               string  `json:"text"`
	Thinking           string  `json:"thinking,omitempty"`
	LatencyMs          float64 `json:"latency_ms"`
	TimeToFirstTokenMs float64 `json:"ttft_ms"`
}

// TokenCallback is invoked for each streamed token of text.
type TokenCallback func(token string)

// ChatRouter dispatches Chat calls to the correct backend by engine name.
type ChatRouter struct {
	*Router[ChatClient]
}

// NewChatRouter creates a router with registered backends and a fallback default.
func NewChatRouter(backends map[string]ChatClient, fallback string) *ChatRouter {
	return &ChatRouter{Router: NewRouter(backends, fallback)}
}

// Chat routes to the named engine (or the fallback) and streams a completion.
func (r *ChatRouter) Chat(ctx context.Context, messages []Message, model, engine string, onToken TokenCallback) (*Result, error) {
	backend, err := r.Route(engine)
	if err != nil {
		return nil, err
	}
	return backend.Chat(ctx, messages, model, onToken)
}

// streamResult is shared bookkeeping across the HTTP-based backends below.
type streamResult struct {
	text     string
	thinking string
	ttftSet  bool
}

// flattenForPrompt renders a message history as a single prompt string for
// backends (like the raw completions API) that have no native chat/system
// message support.
func flattenForPrompt(messages []Message) (systemPrompt, rest string) {
	var body string
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			if systemPrompt != "" {
				systemPrompt += "\n"
			}
			systemPrompt += m.Content
		case RoleUser:
			body += "User: " + m.Content + "\n"
		case RoleAssistant:
			body += "Assistant: " + m.Content + "\n"
		}
	}
	return systemPrompt, body + "Assistant:"
}
