// Package session implements the per-call Session Supervisor: it owns the
// conversation, the turn detector, the transcription feeder, the outbound
// sender, and the cancellable Response Task, and reacts to barge-in.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lucache95/clientcaller/internal/asr"
	"github.com/lucache95/clientcaller/internal/audio"
	"github.com/lucache95/clientcaller/internal/conversation"
	"github.com/lucache95/clientcaller/internal/denoise"
	"github.com/lucache95/clientcaller/internal/llm"
	"github.com/lucache95/clientcaller/internal/metrics"
	"github.com/lucache95/clientcaller/internal/outbound"
	"github.com/lucache95/clientcaller/internal/tts"
	"github.com/lucache95/clientcaller/internal/vad"
)

// Transport is the minimum a call needs from its transport to emit audio
// and react to barge-in; the telephony package implements it over a
// WebSocket. Kept narrow so the orchestration logic here is testable
// without a real socket.
type Transport interface {
	SendMedia(payloadBase64 string) error
	SendClear() error
}

// Backends bundles the process-wide model routers one call draws on.
type Backends struct {
	ASR *asr.Router
	LLM *llm.ChatRouter
	TTS *tts.Router
}

// Options configures one call, resolved from the telephony "start" frame's
// custom parameters with process-wide defaults filled in.
type Options struct {
	CallID           string
	StreamID         string
	SystemPrompt     string
	ASREngine        string
	LLMEngine        string
	LLMModel         string
	TTSVoice         string
	TTSEngine        string
	VAD              vad.Config
	Classifier       vad.Classifier
	NoiseSuppression bool
	MaxHistory       int
	FillerUtterance  string
}

// DefaultFillerUtterance is spoken when the LLM produces no tokens at all,
// so the caller hears something rather than dead air.
const DefaultFillerUtterance = "Sorry, I'm having trouble right now. Could you say that again?"

// Call owns all per-call state. Exactly one goroutine (the telephony read
// loop) drives HandleMedia/HandleStop, and the barge-in check runs inside
// HandleMedia. The Response Task runs on its own goroutine and is started
// from the Feeder's worker goroutine; the response flags and task handle
// (isResponding, interrupted, respCancel, respDone) are only read and
// written under mu.
type Call struct {
	opts      Options
	transport Transport
	backends  Backends
	denoiser  *denoise.Denoiser

	conv   *conversation.Store
	detect *vad.Detector
	feeder *asr.Feeder
	sender *outbound.Sender

	mu           sync.Mutex
	isResponding bool
	interrupted  bool
	respCancel   context.CancelFunc
	respDone     chan struct{}

	closeOnce sync.Once
}

// New constructs a Call and starts its outbound sender. The caller is
// responsible for invoking Close when the call ends.
func New(opts Options, transport Transport, backends Backends, denoiser *denoise.Denoiser) *Call {
	classifier := opts.Classifier
	if classifier == nil {
		classifier = vad.NewEnergyClassifier()
	}

	c := &Call{
		opts:      opts,
		transport: transport,
		backends:  backends,
		denoiser:  denoiser,
		conv:      conversation.NewWithLimit(opts.SystemPrompt, opts.MaxHistory),
		detect:    vad.New(opts.VAD, classifier),
	}
	c.feeder = asr.NewFeeder(&routedTranscriber{r: backends.ASR, engine: opts.ASREngine}, opts.ASREngine)
	c.sender = outbound.New(func(f outbound.Frame) error {
		return c.transport.SendMedia(f.Payload)
	}, func(reason string) {
		slog.Warn("outbound_frame_dropped", "call_id", opts.CallID, "reason", reason)
	})
	return c
}

// routedTranscriber binds a Router to one engine name so it satisfies
// asr.Transcriber for the per-call Feeder.
type routedTranscriber struct {
	r      *asr.Router
	engine string
}

func (rt *routedTranscriber) Transcribe(ctx context.Context, samples []float32) (*asr.Result, error) {
	return rt.r.Transcribe(ctx, samples, rt.engine)
}

// HandleMedia processes one inbound telephony media frame: decode, resample
// to 16kHz, optionally denoise, run it through the turn detector and barge-in
// check, feed it to the ASR, and spawn a Response Task on turn completion.
func (c *Call) HandleMedia(ctx context.Context, payload []byte, codec audio.Codec) {
	samples, rate, err := audio.Decode(payload, codec, 8000)
	if err != nil {
		slog.Warn("audio_decode_failed", "call_id", c.opts.CallID, "error", err)
		return
	}
	pcm16k := audio.Resample(samples, rate, 16000)
	if c.denoiser != nil {
		pcm16k = c.denoiser.Denoise(pcm16k)
	}

	result := c.detect.Process(pcm16k)

	c.checkBargeIn(result.IsSpeech)

	c.feeder.Push(ctx, pcm16k, func(partial string) {
		slog.Debug("asr_partial", "call_id", c.opts.CallID, "text", partial)
	})

	if !result.TurnComplete {
		return
	}

	metrics.SpeechSegments.Inc()

	prefix := c.detect.PrefixBuffer()
	c.detect.Reset()

	c.feeder.FinalizeTurn(ctx, prefix, func(final *asr.Result, err error) {
		if err != nil {
			slog.Warn("asr_finalize_failed", "call_id", c.opts.CallID, "error", err)
			return
		}
		if final.Text == "" {
			return
		}
		c.startResponse(final.Text)
	})
}

// HandleStop cancels any in-flight response and stops the outbound sender.
// Safe to call multiple times.
func (c *Call) HandleStop() {
	c.cancelResponse(true)
	c.sender.Stop()
}

// Close releases the Feeder's background worker. Idempotent.
func (c *Call) Close() {
	c.closeOnce.Do(func() {
		c.feeder.Close()
	})
}

func (c *Call) setResponding(v bool) {
	c.mu.Lock()
	c.isResponding = v
	c.mu.Unlock()
}

func (c *Call) isCurrentlyResponding() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isResponding
}

// cancelResponse cancels the active Response Task, if any, and waits for its
// cleanup to finish so the next turn cannot start while the previous one is
// still writing to the conversation store. await controls whether the
// caller blocks for that cleanup or returns immediately (HandleStop needs
// to block; a stray double-cancel does not).
func (c *Call) cancelResponse(await bool) {
	c.mu.Lock()
	cancel := c.respCancel
	done := c.respDone
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if await && done != nil {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			slog.Warn("response_task_cleanup_timeout", "call_id", c.opts.CallID)
		}
	}
}
