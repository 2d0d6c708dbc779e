package asr

import (
	"context"
	"log/slog"
)

// Feeder streams one call's audio into a Transcriber, yielding partial
// transcripts as audio accumulates and a final transcript at turn end. ASR
// calls are dispatched off the caller's goroutine onto a single worker so
// the inbound media loop is never blocked waiting on a model response, while
// still processing this call's requests in order.
type Feeder struct {
	backend Transcriber
	engine  string

	accum []float32
	work  chan func()
	done  chan struct{}
}

// NewFeeder creates a Feeder bound to one call's transcription backend.
func NewFeeder(backend Transcriber, engine string) *Feeder {
	f := &Feeder{
		backend: backend,
		engine:  engine,
		work:    make(chan func(), 8),
		done:    make(chan struct{}),
	}
	go f.loop()
	return f
}

func (f *Feeder) loop() {
	for {
		select {
		case fn, ok := <-f.work:
			if !ok {
				return
			}
			fn()
		case <-f.done:
			return
		}
	}
}

// Push appends samples to the turn's accumulated audio and, once enough
// audio has built up, asks the backend for a partial transcript in the
// background. Partial results are delivered via onPartial and are purely
// advisory -- they are never committed to the conversation.
func (f *Feeder) Push(ctx context.Context, samples []float32, onPartial func(text string)) {
	f.accum = append(f.accum, samples...)

	const partialWindowSamples = 16000 // ~1s of 16kHz audio between partial checks
	if len(f.accum)/partialWindowSamples == (len(f.accum)-len(samples))/partialWindowSamples {
		return
	}

	snapshot := make([]float32, len(f.accum))
	copy(snapshot, f.accum)

	select {
	case f.work <- func() {
		result, err := f.backend.Transcribe(ctx, snapshot)
		if err != nil {
			slog.Warn("asr_partial_failed", "error", err)
			return
		}
		if result.Text != "" && onPartial != nil {
			onPartial(result.Text)
		}
	}:
	default:
		// work queue full (the worker is behind); skip this partial, the
		// final transcript at turn end is authoritative regardless.
	}
}

// FinalizeTurn snapshots and resets the turn's accumulated audio on the
// caller's goroutine (cheap, and must happen before the next Push so the
// next turn never bleeds into this one), then dispatches the actual
// transcription onto the worker so the caller -- the inbound media pump --
// is not blocked on the backend round-trip (it waits only if the work queue
// is already full). onResult is invoked on the worker goroutine once the
// backend responds; for a turn with no audio at all it is invoked at once on
// the caller's goroutine with an empty Result.
func (f *Feeder) FinalizeTurn(ctx context.Context, prefix []float32, onResult func(*Result, error)) {
	utterance := f.accum
	if len(prefix) > 0 {
		utterance = append(append([]float32{}, prefix...), f.accum...)
	}
	f.accum = nil

	if len(utterance) == 0 {
		onResult(&Result{}, nil)
		return
	}

	job := func() {
		result, err := f.backend.Transcribe(ctx, utterance)
		onResult(result, err)
	}

	select {
	case f.work <- job:
	case <-f.done:
	}
}

// Close stops the Feeder's background worker. Idempotent-safe to call once
// per call teardown.
func (f *Feeder) Close() {
	select {
	case <-f.done:
	default:
		close(f.done)
	}
}
