// Package asr wraps a transcription backend and the per-call turn feeder
// that streams audio into it.
package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/lucache95/clientcaller/internal/audio"
	"github.com/lucache95/clientcaller/internal/llm"
	"github.com/lucache95/clientcaller/internal/metrics"
)

// Result holds one transcription with timing.
type Result struct {
	Text      string  `json:"text"`
	LatencyMs float64 `json:"latency_ms"`
}

// Transcriber is the contract a backend fulfills: accept 16kHz mono samples
// for one turn, return the transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32) (*Result, error)
}

// Router dispatches transcription to a named backend, mirroring the LLM and
// TTS routers' engine-name dispatch.
type Router struct {
	*llm.Router[Transcriber]
}

// NewRouter creates a Router with registered backends and a fallback default.
func NewRouter(backends map[string]Transcriber, fallback string) *Router {
	return &Router{Router: llm.NewRouter(backends, fallback)}
}

// Transcribe routes to the named engine (or the fallback).
func (r *Router) Transcribe(ctx context.Context, samples []float32, engine string) (*Result, error) {
	backend, err := r.Route(engine)
	if err != nil {
		return nil, err
	}
	return backend.Transcribe(ctx, samples)
}

// WhisperClient sends audio to a whisper.cpp-compatible /inference endpoint.
type WhisperClient struct {
	url    string
	client *http.Client
}

// NewWhisperClient creates a client pointing at the whisper.cpp server URL.
func NewWhisperClient(url string, poolSize int) *WhisperClient {
	return &WhisperClient{
		url:    url,
		client: llm.NewPooledHTTPClient(poolSize, 30*time.Second),
	}
}

// Transcribe sends float32 audio samples (16kHz mono) and returns the transcript.
func (c *WhisperClient) Transcribe(ctx context.Context, samples []float32) (*Result, error) {
	start := time.Now()

	body, contentType, err := buildMultipartAudio(samples)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+"/inference", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("asr", "http").Inc()
		return nil, fmt.Errorf("asr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		metrics.Errors.WithLabelValues("asr", "status").Inc()
		return nil, fmt.Errorf("asr status %d: %s", resp.StatusCode, string(respBody))
	}

	var whisperResp whisperResponse
	if err = json.NewDecoder(resp.Body).Decode(&whisperResp); err != nil {
		return nil, fmt.Errorf("decode asr response: %w", err)
	}

	latency := time.Since(start)
	metrics.StageDuration.WithLabelValues("asr").Observe(latency.Seconds())

	return &Result{
		Text:      whisperResp.Text,
		LatencyMs: float64(latency.Milliseconds()),
	}, nil
}

type whisperResponse struct {
	Text string `json:"text"`
}

func buildMultipartAudio(samples []float32) (*bytes.Buffer, string, error) {
	wavData := audio.SamplesToWAV(samples, 16000)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}

	if _, err = part.Write(wavData); err != nil {
		return nil, "", fmt.Errorf("write wav data: %w", err)
	}

	if err = writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close writer: %w", err)
	}

	return &body, writer.FormDataContentType(), nil
}
