package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lucache95/clientcaller/internal/metrics"
)

// AnthropicClient streams chat completions from the Anthropic Messages API.
type AnthropicClient struct {
	apiKey    string
	url       string
	model     string
	maxTokens int
	client    *http.Client
}

// NewAnthropicClient creates an Anthropic streaming client.
func NewAnthropicClient(apiKey, url, model string, maxTokens, poolSize int) *AnthropicClient {
	return &AnthropicClient{
		apiKey:    apiKey,
		url:       url,
		model:     model,
		maxTokens: maxTokens,
		client:    NewPooledHTTPClient(poolSize, 120*time.Second),
	}
}

func (c *AnthropicClient) Chat(ctx context.Context, messages []Message, model string, onToken TokenCallback) (*Result, error) {
	start := time.Now()

	useModel := c.model
	if model != "" {
		useModel = model
	}

	system, wire := splitAnthropicMessages(messages)

	body, err := json.Marshal(anthropicRequest{
		Model:     useModel,
		MaxTokens: c.maxTokens,
		Stream:    true,
		System:    system,
		Messages:  wire,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal anthropic request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("llm", "http").Inc()
		return nil, fmt.Errorf("anthropic request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.Errors.WithLabelValues("llm", "status").Inc()
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("anthropic status %d: %s", resp.StatusCode, errBody)
	}

	sr, ttft := consumeAnthropicStream(ctx, resp.Body, onToken, start)

	latency := time.Since(start)
	metrics.StageDuration.WithLabelValues("llm").Observe(latency.Seconds())

	return &Result{
		Text:               sr.text,
		Thinking:           sr.thinking,
		LatencyMs:          float64(latency.Milliseconds()),
		TimeToFirstTokenMs: ttft,
	}, nil
}

// splitAnthropicMessages separates system-role messages (Anthropic takes one
// "system" field, not a system message in the array) from the user/assistant
// turns Anthropic expects in its messages array.
func splitAnthropicMessages(messages []Message) (string, []anthropicMessage) {
	var system strings.Builder
	wire := make([]anthropicMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system.Len() > 0 {
				system.WriteByte('\n')
			}
			system.WriteString(m.Content)
			continue
		}
		wire = append(wire, anthropicMessage{Role: string(m.Role), Content: m.Content})
	}
	return system.String(), wire
}

func consumeAnthropicStream(ctx context.Context, body io.Reader, onToken TokenCallback, start time.Time) (streamResult, float64) {
	var sr streamResult
	ttft := float64(0)
	scanner := bufio.NewScanner(body)
	var eventType string

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return sr, ttft
		default:
		}

		line := scanner.Text()

		if strings.HasPrefix(line, "event: ") {
			eventType = strings.TrimPrefix(line, "event: ")
			continue
		}

		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")

		if eventType == "message_stop" {
			return sr, ttft
		}

		if eventType == "content_block_delta" {
			var delta anthropicDeltaEvent
			if json.Unmarshal([]byte(data), &delta) != nil {
				continue
			}
			if delta.Delta.Type == "thinking_delta" {
				sr.thinking += delta.Delta.Thinking
				continue
			}
			text := delta.Delta.Text
			if text == "" {
				continue
			}
			if !sr.ttftSet {
				ttft = float64(time.Since(start).Milliseconds())
				sr.ttftSet = true
			}
			if onToken != nil {
				onToken(text)
			}
			sr.text += text
		}
	}

	return sr, ttft
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Stream    bool               `json:"stream"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicDeltaEvent struct {
	Delta anthropicDelta `json:"delta"`
}

type anthropicDelta struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Thinking string `json:"thinking,omitempty"`
}
