package tts

import (
	"context"

	"github.com/lucache95/clientcaller/internal/llm"
)

// Synthesizer is the contract a TTS backend fulfills.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (*Result, error)
}

// Router dispatches synthesis to a named backend, mirroring the ASR and LLM
// routers' engine-name dispatch.
type Router struct {
	*llm.Router[Synthesizer]
}

// NewRouter creates a Router with registered backends and a fallback default.
func NewRouter(backends map[string]Synthesizer, fallback string) *Router {
	return &Router{Router: llm.NewRouter(backends, fallback)}
}

// Synthesize routes to the named engine (or the fallback).
func (r *Router) Synthesize(ctx context.Context, text, voice, engine string) (*Result, error) {
	backend, err := r.Route(engine)
	if err != nil {
		return nil, err
	}
	return backend.Synthesize(ctx, text, voice)
}
