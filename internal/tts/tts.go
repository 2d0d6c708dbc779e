// Package tts synthesizes speech for the Response Task: text in, PCM
// samples out, over an HTTP backend resolved by voice name.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lucache95/clientcaller/internal/audio"
	"github.com/lucache95/clientcaller/internal/llm"
	"github.com/lucache95/clientcaller/internal/metrics"
)

// Result holds synthesized audio with timing. Samples are normalized
// float32 PCM at SampleRate (24kHz from the reference voice models), ready
// to be downsampled to 8kHz and µ-law encoded for the outbound leg.
type Result struct {
	Samples    []float32
	SampleRate int
	LatencyMs  float64
}

// Client synthesizes speech from text via an HTTP TTS backend.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a TTS client pointing at the given backend.
func NewClient(baseURL string, poolSize int) *Client {
	return &Client{
		baseURL: baseURL,
		client:  llm.NewPooledHTTPClient(poolSize, 30*time.Second),
	}
}

// voiceModels maps a named voice to the backend's model identifier,
// following the same named-voice convention the gateway has always used for
// its speech synthesis backend.
var voiceModels = map[string]string{
	"fast":    "en_US-lessac-low",
	"quality": "en_US-lessac-medium",
}

// Synthesize converts text to speech using the named voice.
func (c *Client) Synthesize(ctx context.Context, text, voice string) (*Result, error) {
	start := time.Now()

	model := resolveVoice(voice)

	reqBody, err := json.Marshal(ttsRequest{Text: text, Voice: model})
	if err != nil {
		return nil, fmt.Errorf("marshal tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/synthesize", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("tts", "http").Inc()
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.Errors.WithLabelValues("tts", "status").Inc()
		return nil, fmt.Errorf("tts status %d", resp.StatusCode)
	}

	wavData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tts response: %w", err)
	}

	samples, rate, err := audio.WAVToSamples(wavData)
	if err != nil {
		metrics.Errors.WithLabelValues("tts", "decode").Inc()
		return nil, fmt.Errorf("decode tts wav: %w", err)
	}

	latency := time.Since(start)
	metrics.StageDuration.WithLabelValues("tts").Observe(latency.Seconds())

	return &Result{
		Samples:    samples,
		SampleRate: rate,
		LatencyMs:  float64(latency.Milliseconds()),
	}, nil
}

func resolveVoice(voice string) string {
	model, ok := voiceModels[voice]
	if !ok {
		return voiceModels["fast"]
	}
	return model
}

type ttsRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}
