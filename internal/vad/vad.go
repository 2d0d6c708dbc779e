// Package vad implements the windowed turn-taking detector that drives the
// gateway's barge-in and end-of-turn logic. It classifies fixed-size windows
// of 16kHz audio as speech or silence and tracks the durations needed to
// decide when a caller's turn is complete.
package vad

import "time"

const (
	sampleRate   = 16000
	windowSize   = 512 // samples per classification window
	windowMillis = float64(windowSize) / float64(sampleRate) * 1000
)

// Classifier scores a fixed-size window of normalized [-1, 1] samples with a
// speech probability in [0, 1]. It is the seam between the turn-taking state
// machine below and whatever model produces the probability; the default
// implementation is energy-based, matching the gateway's own prior art, but a
// neural classifier can be swapped in behind the same interface.
type Classifier interface {
	Classify(window []float32) float32
}

// Config controls detector thresholds. Defaults match the reference
// real-time assistant's turn-taking behavior.
type Config struct {
	Threshold       float32       // speech probability strictly greater than this counts as speech
	MinSilence      time.Duration // silence required after speech to end a turn
	MinSpeech       time.Duration // speech required before a turn can end
	PrefixPadding   time.Duration // rolling pre-speech audio retained for the ASR
}

// DefaultConfig mirrors the detector thresholds used across the reference
// implementation: 0.5 probability threshold, 550ms trailing silence, 250ms
// minimum speech, 300ms of pre-speech padding.
func DefaultConfig() Config {
	return Config{
		Threshold:     0.5,
		MinSilence:    550 * time.Millisecond,
		MinSpeech:     250 * time.Millisecond,
		PrefixPadding: 300 * time.Millisecond,
	}
}

// Result is returned by every Process call.
type Result struct {
	IsSpeech           bool
	TurnComplete       bool
	SpeechProbability  float32
	SpeechDurationMs   float64
	SilenceDurationMs  float64
}

// Detector holds per-call turn-taking state. It is not safe for concurrent
// use; one Detector belongs to exactly one call.
type Detector struct {
	cfg        Config
	classifier Classifier

	accum []float32

	isSpeaking   bool
	speechMs     float64
	silenceMs    float64
	lastIsSpeech bool

	prefix    [][]float32
	prefixMax int
}

// New creates a Detector with the given config and speech classifier.
func New(cfg Config, classifier Classifier) *Detector {
	prefixMax := 0
	if cfg.PrefixPadding > 0 {
		prefixMax = int(cfg.PrefixPadding.Milliseconds() / int64(windowMillis))
		if prefixMax < 1 {
			prefixMax = 1
		}
	}
	return &Detector{
		cfg:        cfg,
		classifier: classifier,
		prefixMax:  prefixMax,
	}
}

// Process accumulates pcm (16kHz, normalized float32) and classifies every
// complete 512-sample window formed so far. It returns the state after the
// last window processed; if fewer than 512 samples are buffered it returns
// the last known speech flag with TurnComplete always false.
func (d *Detector) Process(pcm []float32) Result {
	d.accum = append(d.accum, pcm...)

	var last Result
	hadWindow := false
	for len(d.accum) >= windowSize {
		window := d.accum[:windowSize]
		d.accum = d.accum[windowSize:]
		last = d.update(window)
		hadWindow = true
	}

	if !hadWindow {
		return Result{
			IsSpeech:          d.lastIsSpeech,
			SpeechDurationMs:  d.speechMs,
			SilenceDurationMs: d.silenceMs,
		}
	}
	return last
}

func (d *Detector) update(window []float32) Result {
	prob := d.classifier.Classify(window)
	isSpeech := prob > d.cfg.Threshold
	d.lastIsSpeech = isSpeech

	d.updatePrefix(window)

	if isSpeech {
		d.speechMs += windowMillis
		d.silenceMs = 0
		d.isSpeaking = true
	} else {
		d.silenceMs += windowMillis
	}

	turnComplete := d.isSpeaking &&
		d.silenceMs >= float64(d.cfg.MinSilence.Milliseconds()) &&
		d.speechMs >= float64(d.cfg.MinSpeech.Milliseconds())

	return Result{
		IsSpeech:          isSpeech,
		TurnComplete:      turnComplete,
		SpeechProbability: prob,
		SpeechDurationMs:  d.speechMs,
		SilenceDurationMs: d.silenceMs,
	}
}

func (d *Detector) updatePrefix(window []float32) {
	if d.prefixMax == 0 {
		return
	}
	cp := make([]float32, len(window))
	copy(cp, window)
	d.prefix = append(d.prefix, cp)
	if len(d.prefix) > d.prefixMax {
		d.prefix = d.prefix[len(d.prefix)-d.prefixMax:]
	}
}

// PrefixBuffer returns the rolling pre-speech audio, concatenated, to be
// prepended to the first utterance sent to the ASR so that word onsets are
// not clipped.
func (d *Detector) PrefixBuffer() []float32 {
	total := 0
	for _, w := range d.prefix {
		total += len(w)
	}
	out := make([]float32, 0, total)
	for _, w := range d.prefix {
		out = append(out, w...)
	}
	return out
}

// Reset clears all state, including accumulated and prefix buffers, so the
// next Process call starts a fresh turn.
func (d *Detector) Reset() {
	d.accum = nil
	d.isSpeaking = false
	d.speechMs = 0
	d.silenceMs = 0
	d.lastIsSpeech = false
	d.prefix = nil
}
