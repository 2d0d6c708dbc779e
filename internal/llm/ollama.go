package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lucache95/clientcaller/internal/metrics"
)

// OllamaClient streams chat completions from an Ollama-compatible /api/chat
// endpoint, passing the full message history (system prompt included) on
// every call.
type OllamaClient struct {
	url       string
	model     string
	maxTokens int
	client    *http.Client
}

// NewOllamaClient creates an Ollama HTTP client.
func NewOllamaClient(url, model string, maxTokens, poolSize int) *OllamaClient {
	return &OllamaClient{
		url:       url,
		model:     model,
		maxTokens: maxTokens,
		client:    NewPooledHTTPClient(poolSize, 60*time.Second),
	}
}

func (c *OllamaClient) Chat(ctx context.Context, messages []Message, model string, onToken TokenCallback) (*Result, error) {
	start := time.Now()

	resp, err := c.postChatRequest(ctx, messages, model)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.Errors.WithLabelValues("llm", "status").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ollama status %d: %s", resp.StatusCode, body)
	}

	sr, ttft := c.consumeStream(ctx, resp, onToken, start)

	latency := time.Since(start)
	metrics.StageDuration.WithLabelValues("llm").Observe(latency.Seconds())

	return &Result{
		Text:               sr.text,
		Thinking:           sr.thinking,
		LatencyMs:          float64(latency.Milliseconds()),
		TimeToFirstTokenMs: ttft,
	}, nil
}

func (c *OllamaClient) postChatRequest(ctx context.Context, messages []Message, model string) (*http.Response, error) {
	useModel := c.model
	if model != "" {
		useModel = model
	}

	wire := make([]ollamaMessage, 0, len(messages))
	for _, m := range messages {
		wire = append(wire, ollamaMessage{Role: string(m.Role), Content: m.Content})
	}

	reqBody := ollamaRequest{
		Model:    useModel,
		Stream:   true,
		Options:  ollamaOptions{NumPredict: c.maxTokens},
		Messages: wire,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+"/api/chat", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("llm", "http").Inc()
		return nil, fmt.Errorf("ollama request: %w", err)
	}

	return resp, nil
}

// consumeStream reads NDJSON chunks off resp.Body, stopping early if ctx is
// cancelled (a barge-in) without treating that as an error.
func (c *OllamaClient) consumeStream(ctx context.Context, resp *http.Response, onToken TokenCallback, start time.Time) (streamResult, float64) {
	var sr streamResult
	ttft := float64(0)
	scanner := bufio.NewScanner(resp.Body)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return sr, ttft
		default:
		}

		var chunk ollamaStreamChunk
		if json.Unmarshal(scanner.Bytes(), &chunk) != nil {
			continue
		}
		if chunk.Done {
			return sr, ttft
		}
		if chunk.Message.Thinking != "" {
			sr.thinking += chunk.Message.Thinking
			continue
		}
		if chunk.Message.Content == "" {
			continue
		}
		if !sr.ttftSet {
			ttft = float64(time.Since(start).Milliseconds())
			sr.ttftSet = true
		}
		if onToken != nil {
			onToken(chunk.Message.Content)
		}
		sr.text += chunk.Message.Content
	}

	return sr, ttft
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Stream   bool            `json:"stream"`
	Messages []ollamaMessage `json:"messages"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaMessage struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	Thinking string `json:"thinking,omitempty"`
}

type ollamaOptions struct {
	NumPredict int `json:"num_predict"`
}

type ollamaStreamChunk struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}
