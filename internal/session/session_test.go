package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lucache95/clientcaller/internal/asr"
	"github.com/lucache95/clientcaller/internal/audio"
	"github.com/lucache95/clientcaller/internal/llm"
	"github.com/lucache95/clientcaller/internal/tts"
	"github.com/lucache95/clientcaller/internal/vad"
)

// fakeTransport records outgoing media/clear events instead of writing to a
// real socket.
type fakeTransport struct {
	mu      sync.Mutex
	media   []string
	clears  int
	failing bool
}

func (t *fakeTransport) SendMedia(payload string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failing {
		return errors.New("transport closed")
	}
	t.media = append(t.media, payload)
	return nil
}

func (t *fakeTransport) SendClear() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clears++
	return nil
}

func (t *fakeTransport) mediaCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.media)
}

func (t *fakeTransport) clearCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clears
}

// stubASR always returns the configured text for any turn.
type stubASR struct{ text string }

func (s *stubASR) Transcribe(ctx context.Context, samples []float32) (*asr.Result, error) {
	return &asr.Result{Text: s.text}, nil
}

// stubLLM streams a fixed sentence token by token, checking ctx between
// tokens so cancellation tests can interrupt it mid-stream.
type stubLLM struct {
	sentences []string
	delay     time.Duration
}

func (s *stubLLM) Chat(ctx context.Context, messages []llm.Message, model string, onToken llm.TokenCallback) (*llm.Result, error) {
	var full strings.Builder
	for _, sentence := range s.sentences {
		for _, word := range strings.Fields(sentence) {
			select {
			case <-ctx.Done():
				return &llm.Result{Text: full.String()}, ctx.Err()
			default:
			}
			if s.delay > 0 {
				time.Sleep(s.delay)
			}
			tok := word + " "
			full.WriteString(tok)
			onToken(tok)
		}
	}
	return &llm.Result{Text: full.String()}, nil
}

// stubTTS returns a fixed short burst of silence for any text, so the
// Response Task has real frames to push through the sender.
type stubTTS struct{ calls int }

func (s *stubTTS) Synthesize(ctx context.Context, text, voice string) (*tts.Result, error) {
	s.calls++
	return &tts.Result{Samples: make([]float32, 800), SampleRate: 8000}, nil
}

func newTestCall(transport Transport, llmClient llm.ChatClient, ttsClient tts.Synthesizer, asrClient asr.Transcriber) *Call {
	backends := Backends{
		ASR: asr.NewRouter(map[string]asr.Transcriber{"default": asrClient}, "default"),
		LLM: llm.NewChatRouter(map[string]llm.ChatClient{"default": llmClient}, "default"),
		TTS: tts.NewRouter(map[string]tts.Synthesizer{"default": ttsClient}, "default"),
	}
	opts := Options{
		CallID:       "call-1",
		SystemPrompt: "you are a test assistant",
		VAD:          vad.DefaultConfig(),
		MaxHistory:   20,
	}
	return New(opts, transport, backends, nil)
}

func TestStartResponseSynthesizesAndCommitsReply(t *testing.T) {
	transport := &fakeTransport{}
	ttsClient := &stubTTS{}
	c := newTestCall(transport, &stubLLM{sentences: []string{"Hello there."}}, ttsClient, &stubASR{text: "hi"})
	defer c.Close()

	c.startResponse("hi")

	c.mu.Lock()
	done := c.respDone
	c.mu.Unlock()
	if done != nil {
		<-done
	}

	if ttsClient.calls == 0 {
		t.Fatal("expected tts to be invoked")
	}
	if transport.mediaCount() == 0 {
		t.Fatal("expected at least one outbound media frame")
	}

	msgs := c.conv.Messages()
	lastRole := msgs[len(msgs)-1].Role
	if lastRole != "assistant" {
		t.Fatalf("expected assistant message committed, got role %q", lastRole)
	}
}

func TestBargeInCancelsResponseAndClearsQueue(t *testing.T) {
	transport := &fakeTransport{}
	ttsClient := &stubTTS{}
	c := newTestCall(transport, &stubLLM{sentences: []string{"One. Two. Three. Four."}, delay: 20 * time.Millisecond}, ttsClient, &stubASR{text: "hi"})
	defer c.Close()

	c.startResponse("hi")
	time.Sleep(10 * time.Millisecond)

	if !c.isCurrentlyResponding() {
		t.Fatal("expected response task to be active before barge-in")
	}

	c.checkBargeIn(true)

	if c.isCurrentlyResponding() {
		t.Fatal("expected barge-in to clear the responding flag")
	}
	if transport.clearCount() == 0 {
		t.Fatal("expected a clear event sent to the transport")
	}

	msgs := c.conv.Messages()
	last := msgs[len(msgs)-1]
	if last.Role == "assistant" && !strings.HasSuffix(last.Content, "[interrupted]") {
		t.Fatalf("expected interrupted assistant message, got %q", last.Content)
	}
}

func TestCheckBargeInNoOpWhenNotResponding(t *testing.T) {
	transport := &fakeTransport{}
	c := newTestCall(transport, &stubLLM{}, &stubTTS{}, &stubASR{})
	defer c.Close()

	c.checkBargeIn(true)

	if transport.clearCount() != 0 {
		t.Fatal("expected no clear event when nothing is responding")
	}
}

func TestHandleMediaDecodeErrorDoesNotPanic(t *testing.T) {
	transport := &fakeTransport{}
	c := newTestCall(transport, &stubLLM{}, &stubTTS{}, &stubASR{})
	defer c.Close()

	c.HandleMedia(context.Background(), []byte{}, audio.Codec("bogus"))
}

func TestHandleStopCancelsActiveResponse(t *testing.T) {
	transport := &fakeTransport{}
	c := newTestCall(transport, &stubLLM{sentences: []string{"One. Two. Three."}, delay: 20 * time.Millisecond}, &stubTTS{}, &stubASR{})
	defer c.Close()

	c.startResponse("hi")
	time.Sleep(10 * time.Millisecond)

	c.HandleStop()

	if c.isCurrentlyResponding() {
		t.Fatal("expected HandleStop to leave no active response")
	}
}
