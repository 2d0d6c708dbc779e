package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nlpodyssey/openai-agents-go/agents"
	"github.com/nlpodyssey/openai-agents-go/modelsettings"
	"github.com/openai/openai-go/v2/packages/param"
)

// AgentClient routes one engine's chat requests through the openai-agents-go
// SDK, which gives the Response Task cancellation for free: ctx passed into
// RunStreamedChan stops the run on barge-in without any extra bookkeeping.
// One AgentClient binds to one provider and default model; the process wires
// it into the same named-engine llm.ChatRouter as the raw HTTP backends
// (cmd/gateway registers one, under "agent", when an LLM API key is set).
type AgentClient struct {
	provider     agents.ModelProvider
	defaultModel string
	maxTokens    int
}

// NewAgentClient creates an AgentClient bound to one SDK provider.
func NewAgentClient(provider agents.ModelProvider, defaultModel string, maxTokens int) *AgentClient {
	return &AgentClient{provider: provider, defaultModel: defaultModel, maxTokens: maxTokens}
}

// Chat streams a completion for this engine. The system message (if any)
// becomes the agent's instructions; the remaining history is flattened to a
// transcript, matching the way this gateway has always carried multi-turn
// context into a single-shot agent run.
func (a *AgentClient) Chat(ctx context.Context, messages []Message, model string, onToken TokenCallback) (*Result, error) {
	systemPrompt, input := flattenAgentInput(messages)

	useModel := model
	if useModel == "" {
		useModel = a.defaultModel
	}

	agent := agents.New("assistant").
		WithInstructions(systemPrompt).
		WithModel(useModel).
		WithModelSettings(modelsettings.ModelSettings{
			MaxTokens: param.NewOpt(int64(a.maxTokens)),
		})

	runner := agents.Runner{Config: agents.RunConfig{
		ModelProvider:   a.provider,
		MaxTurns:        1,
		TracingDisabled: true,
	}}

	start := time.Now()

	events, errCh, err := runner.RunStreamedChan(ctx, agent, input)
	if err != nil {
		return nil, fmt.Errorf("llm stream start: %w", err)
	}

	var textBuf strings.Builder
	ttft := float64(0)
	ttftSet := false
	for ev := range events {
		raw, ok := ev.(agents.RawResponsesStreamEvent)
		if !ok || raw.Data.Type != "response.output_text.delta" {
			continue
		}
		if !ttftSet {
			ttft = float64(time.Since(start).Milliseconds())
			ttftSet = true
		}
		if onToken != nil {
			onToken(raw.Data.Delta)
		}
		textBuf.WriteString(raw.Data.Delta)
	}

	if streamErr := <-errCh; streamErr != nil {
		return nil, fmt.Errorf("llm stream: %w", streamErr)
	}

	latency := time.Since(start)

	return &Result{
		Text:               textBuf.String(),
		LatencyMs:          float64(latency.Milliseconds()),
		TimeToFirstTokenMs: ttft,
	}, nil
}

// flattenAgentInput separates the system prompt from the rest of the
// history and renders the history as a "User: ...\nAssistant: ...\n"
// transcript, the same shape this gateway has always used to carry
// multi-turn context into a single-shot completion call.
func flattenAgentInput(messages []Message) (systemPrompt, input string) {
	var sys strings.Builder
	var body strings.Builder
	var last string
	for i, m := range messages {
		switch m.Role {
		case RoleSystem:
			if sys.Len() > 0 {
				sys.WriteByte('\n')
			}
			sys.WriteString(m.Content)
		case RoleUser:
			if i == len(messages)-1 {
				last = m.Content
				continue
			}
			fmt.Fprintf(&body, "User: %s\n", m.Content)
		case RoleAssistant:
			fmt.Fprintf(&body, "Assistant: %s\n", m.Content)
		}
	}
	body.WriteString("User: " + last)
	return sys.String(), body.String()
}
