package session

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"time"

	"github.com/lucache95/clientcaller/internal/audio"
	"github.com/lucache95/clientcaller/internal/conversation"
	"github.com/lucache95/clientcaller/internal/llm"
	"github.com/lucache95/clientcaller/internal/metrics"
	"github.com/lucache95/clientcaller/internal/outbound"
)

const (
	outboundSampleRate = 8000
	frameSamples       = 160 // 20ms at 8kHz
)

// startResponse spawns the Response Task for one finished user turn. Only
// one Response Task exists per call at a time: HandleMedia resets the
// detector as soon as a turn completes, so a second turn can finish while
// the previous reply is still running, and any earlier task is cancelled and
// awaited here before the new one starts.
func (c *Call) startResponse(transcript string) {
	c.cancelResponse(true)
	c.conv.AddUser(transcript)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	c.respCancel = cancel
	c.respDone = done
	c.interrupted = false
	c.mu.Unlock()

	c.setResponding(true)

	go c.runResponse(ctx, done, time.Now())
}

func (c *Call) runResponse(ctx context.Context, done chan struct{}, turnEnd time.Time) {
	defer close(done)
	defer func() {
		c.setResponding(false)
		c.mu.Lock()
		c.respCancel = nil
		c.respDone = nil
		c.mu.Unlock()
	}()

	var replyText string
	var spokenText strings.Builder
	firstAudio := false

	messages := toLLMMessages(c.conv.Messages())

	sentences := make(chan string, 4)
	sentenceErrCh := make(chan error, 1)

	go func() {
		defer close(sentences)
		var sb llm.SentenceBuffer
		result, err := c.backends.LLM.Chat(ctx, messages, c.opts.LLMModel, c.opts.LLMEngine, func(token string) {
			replyText += token
			if sentence := sb.Add(token); sentence != "" {
				select {
				case sentences <- sentence:
				case <-ctx.Done():
				}
			}
		})
		if err != nil {
			sentenceErrCh <- err
			return
		}
		if tail := sb.Flush(); tail != "" {
			select {
			case sentences <- tail:
			case <-ctx.Done():
			}
		}
		_ = result
		sentenceErrCh <- nil
	}()

	sentenceCount := 0
	for sentence := range sentences {
		sentenceCount++
		if ctx.Err() != nil {
			break
		}
		if !c.synthesizeAndEnqueue(ctx, sentence) {
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if !firstAudio {
			metrics.E2EDuration.Observe(time.Since(turnEnd).Seconds())
			firstAudio = true
		}
		spokenText.WriteString(sentence)
	}

	llmErr := <-sentenceErrCh

	if ctx.Err() != nil {
		c.conv.AddAssistantPartial(spokenText.String())
		return
	}

	if llmErr != nil {
		slog.Warn("llm_failed", "call_id", c.opts.CallID, "error", llmErr)
		if sentenceCount == 0 {
			c.speakFiller(ctx)
		}
		return
	}

	c.conv.AddAssistant(replyText)
}

// synthesizeAndEnqueue turns one sentence into outbound frames. It returns
// true once the sentence's frames have been handed to the outbound sender,
// and false if synthesis failed or ctx was cancelled; the caller tells the
// two apart with ctx.Err() so it can stop early on cancellation and skip the
// sentence on a TTS failure. A frame the sender drops after its enqueue
// timeout is reported by the sender and does not stop the sentence.
func (c *Call) synthesizeAndEnqueue(ctx context.Context, sentence string) bool {
	if ctx.Err() != nil {
		return false
	}

	result, err := c.backends.TTS.Synthesize(ctx, sentence, c.opts.TTSVoice, c.opts.TTSEngine)
	if err != nil {
		slog.Warn("tts_failed", "call_id", c.opts.CallID, "error", err)
		return false
	}

	pcm8k := audio.Resample(result.Samples, result.SampleRate, outboundSampleRate)
	for start := 0; start < len(pcm8k); start += frameSamples {
		if ctx.Err() != nil {
			return false
		}
		end := min(start+frameSamples, len(pcm8k))
		frame := pcm8k[start:end]
		if len(frame) < frameSamples {
			padded := make([]float32, frameSamples)
			copy(padded, frame)
			frame = padded
		}
		encoded, err := audio.Encode(frame, audio.CodecG711Ulaw)
		if err != nil {
			slog.Warn("audio_encode_failed", "call_id", c.opts.CallID, "error", err)
			continue
		}
		payload := base64.StdEncoding.EncodeToString(encoded)
		if !c.sender.Enqueue(ctx, outbound.Frame{Payload: payload}) && ctx.Err() != nil {
			return false
		}
	}
	return true
}

func (c *Call) speakFiller(ctx context.Context) {
	filler := c.opts.FillerUtterance
	if filler == "" {
		filler = DefaultFillerUtterance
	}
	c.synthesizeAndEnqueue(ctx, filler)
}

func toLLMMessages(msgs []conversation.Message) []llm.Message {
	out := make([]llm.Message, len(msgs))
	for i, m := range msgs {
		out[i] = llm.Message{Role: llm.Role(m.Role), Content: m.Content}
	}
	return out
}
