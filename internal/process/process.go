// Package process owns everything shared across every call in the gateway:
// the ASR/LLM/TTS backend routers, the active-call registry, and admission
// control. One Process is constructed at startup and handed to every call's
// Session Supervisor.
package process

import (
	"sync"

	"github.com/lucache95/clientcaller/internal/asr"
	"github.com/lucache95/clientcaller/internal/denoise"
	"github.com/lucache95/clientcaller/internal/llm"
	"github.com/lucache95/clientcaller/internal/tts"
)

// Backends bundles the process-wide model clients a call's Response Task
// and Transcription Feeder are built from.
type Backends struct {
	ASR      *asr.Router
	LLM      *llm.ChatRouter
	TTS      *tts.Router
	Denoiser *denoise.Denoiser // optional, nil if noise suppression is disabled process-wide
}

// Process is the shared, process-wide state the reference gateway's
// singleton connection manager used to hold as package-level globals;
// here it is an explicit value passed by reference instead.
type Process struct {
	Backends Backends

	maxConcurrent int

	mu     sync.Mutex
	active int
	closed bool

	wg sync.WaitGroup // tracks in-flight calls for graceful shutdown
}

// New creates a Process with the given shared backends and concurrency ceiling.
func New(backends Backends, maxConcurrent int) *Process {
	return &Process{Backends: backends, maxConcurrent: maxConcurrent}
}

// Admit attempts to reserve one call slot. ok is false when the process is
// at capacity or draining for shutdown; the caller must close the transport
// without processing any further frames. When ok is true, release must be
// called exactly once, after the call has fully torn down.
func (p *Process) Admit() (release func(), ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.active >= p.maxConcurrent {
		return nil, false
	}

	p.active++
	p.wg.Add(1)

	var once sync.Once
	release = func() {
		once.Do(func() {
			p.mu.Lock()
			p.active--
			p.mu.Unlock()
			p.wg.Done()
		})
	}
	return release, true
}

// ActiveCalls returns the current number of admitted, not-yet-released calls.
func (p *Process) ActiveCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Drain stops admitting new calls and returns at once; calls already
// admitted keep running. Callers wait for them with WaitDrained, combined
// with a timeout.
func (p *Process) Drain() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

// WaitDrained returns at once and closes done from a background goroutine
// once every admitted call has released its slot, so the caller can race
// done against a timeout (see cmd/gateway).
func (p *Process) WaitDrained(done chan<- struct{}) {
	go func() {
		p.wg.Wait()
		close(done)
	}()
}
