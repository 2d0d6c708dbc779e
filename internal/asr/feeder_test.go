package asr

import (
	"context"
	"sync"
	"testing"
)

type stubTranscriber struct {
	mu    sync.Mutex
	calls [][]float32
	text  string
}

func (s *stubTranscriber) Transcribe(ctx context.Context, samples []float32) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, samples)
	return &Result{Text: s.text}, nil
}

func finalizeSync(f *Feeder, prefix []float32) (*Result, error) {
	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	f.FinalizeTurn(context.Background(), prefix, func(res *Result, err error) {
		done <- outcome{res, err}
	})
	out := <-done
	return out.res, out.err
}

func TestFinalizeTurnResetsAccumulation(t *testing.T) {
	backend := &stubTranscriber{text: "hello"}
	f := NewFeeder(backend, "whisper")
	defer f.Close()

	f.Push(context.Background(), make([]float32, 100), nil)
	res, err := finalizeSync(f, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "hello" {
		t.Fatalf("expected final transcript, got %q", res.Text)
	}

	// A second finalize with no new audio must not resend the prior turn's audio.
	res2, err := finalizeSync(f, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res2.Text != "" {
		t.Fatalf("expected empty transcript for empty turn, got %q", res2.Text)
	}
}

func TestFinalizeTurnPrependsPrefix(t *testing.T) {
	backend := &stubTranscriber{text: "x"}
	f := NewFeeder(backend, "whisper")
	defer f.Close()

	f.Push(context.Background(), []float32{1, 1, 1}, nil)
	prefix := []float32{0, 0}
	if _, err := finalizeSync(f, prefix); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	got := backend.calls[len(backend.calls)-1]
	if len(got) != 5 {
		t.Fatalf("expected prefix+turn audio of length 5, got %d", len(got))
	}
}

func TestRouterFallback(t *testing.T) {
	backend := &stubTranscriber{text: "ok"}
	r := NewRouter(map[string]Transcriber{"default": backend}, "default")
	res, err := r.Transcribe(context.Background(), nil, "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "ok" {
		t.Fatalf("expected fallback backend result, got %q", res.Text)
	}
}
