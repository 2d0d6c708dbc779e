package telephony

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lucache95/clientcaller/internal/audio"
	"github.com/lucache95/clientcaller/internal/denoise"
	"github.com/lucache95/clientcaller/internal/metrics"
	"github.com/lucache95/clientcaller/internal/process"
	"github.com/lucache95/clientcaller/internal/prompts"
	"github.com/lucache95/clientcaller/internal/session"
	"github.com/lucache95/clientcaller/internal/vad"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  16384,
	WriteBufferSize: 16384,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandlerConfig holds the process-wide state every call session is built
// from.
type HandlerConfig struct {
	Process          *process.Process
	VADConfig        vad.Config
	NoiseSuppression bool
	SystemPrompt     string
	LLMModel         string
	LLMEngine        string
	TTSVoice         string
	TTSEngine        string
	ASREngine        string
	MaxHistory       int
}

// Handler upgrades one HTTP request to a WebSocket and drives the duplex
// media stream protocol for the call's lifetime.
type Handler struct {
	cfg HandlerConfig
}

// NewHandler creates a Handler bound to the given process-wide config.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{cfg: cfg}
}

// ServeHTTP upgrades the connection, then gates it on admission control
// before any protocol frame is processed -- a session that never gets past
// this point never allocates a Call.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	release, ok := h.cfg.Process.Admit()
	if !ok {
		closeAtCapacity(conn)
		return
	}
	defer release()

	metrics.CallsActive.Inc()
	metrics.CallsTotal.Inc()
	defer metrics.CallsActive.Dec()

	h.runSession(conn)
}

func closeAtCapacity(conn *websocket.Conn) {
	const atCapacityCloseCode = 4000
	msg := websocket.FormatCloseMessage(atCapacityCloseCode, "at capacity, try again later")
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
}

// connTransport adapts a *websocket.Conn to session.Transport, serializing
// writes since the Response Task, the barge-in controller, and session
// cleanup can all write concurrently.
type connTransport struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	streamSid string
}

func (t *connTransport) SendMedia(payloadBase64 string) error {
	data, err := encodeMediaEvent(t.streamSid, payloadBase64)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *connTransport) SendClear() error {
	data, err := encodeClearEvent(t.streamSid)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

// runSession reads the `connected`/`start` handshake, then pumps `media`
// frames into the Call until `stop` or the connection closes.
func (h *Handler) runSession(conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport := &connTransport{conn: conn}

	var call *session.Call
	var cleanupOnce sync.Once
	cleanup := func() {
		cleanupOnce.Do(func() {
			if call != nil {
				call.HandleStop()
				call.Close()
			}
		})
	}
	defer cleanup()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			slog.Info("call connection closed", "error", err)
			return
		}

		ev, err := parseInboundEvent(data)
		if err != nil {
			slog.Warn("malformed telephony frame", "error", err)
			continue
		}

		switch ev.Event {
		case "connected":
			// noop

		case "start":
			if ev.Start == nil {
				continue
			}
			transport.streamSid = ev.Start.StreamSid
			call = h.newCall(ev.Start, transport)
			slog.Info("call started", "call_id", ev.Start.CallSid, "stream_id", ev.Start.StreamSid)

		case "media":
			if call == nil || ev.Media == nil {
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(ev.Media.Payload)
			if err != nil {
				slog.Warn("bad media payload", "error", err)
				continue
			}
			call.HandleMedia(ctx, raw, audio.CodecG711Ulaw)

		case "stop":
			cleanup()
			return

		case "mark", "dtmf":
			// acknowledged, not acted on

		default:
			slog.Debug("unhandled telephony event", "event", ev.Event)
		}
	}
}

func (h *Handler) newCall(start *startPayload, transport session.Transport) *session.Call {
	systemPrompt := prompts.ForSession(orDefault(start.CustomParameters["system_prompt"], h.cfg.SystemPrompt))

	callID := start.CallSid
	if callID == "" {
		// Some telephony test harnesses omit callSid on the start frame;
		// fall back to a locally generated id so logs and metrics still
		// have something to correlate on.
		callID = uuid.NewString()
	}

	opts := session.Options{
		CallID:           callID,
		StreamID:         start.StreamSid,
		SystemPrompt:     systemPrompt,
		ASREngine:        orDefault(start.CustomParameters["asr_engine"], h.cfg.ASREngine),
		LLMEngine:        orDefault(start.CustomParameters["llm_engine"], h.cfg.LLMEngine),
		LLMModel:         orDefault(start.CustomParameters["llm_model"], h.cfg.LLMModel),
		TTSVoice:         orDefault(start.CustomParameters["tts_voice"], h.cfg.TTSVoice),
		TTSEngine:        orDefault(start.CustomParameters["tts_engine"], h.cfg.TTSEngine),
		VAD:              h.cfg.VADConfig,
		NoiseSuppression: h.cfg.NoiseSuppression,
		MaxHistory:       h.cfg.MaxHistory,
	}

	var denoiser *denoise.Denoiser
	if opts.NoiseSuppression {
		denoiser = h.cfg.Process.Backends.Denoiser
	}

	backends := session.Backends{
		ASR: h.cfg.Process.Backends.ASR,
		LLM: h.cfg.Process.Backends.LLM,
		TTS: h.cfg.Process.Backends.TTS,
	}

	return session.New(opts, transport, backends, denoiser)
}

func orDefault(val, fallback string) string {
	if val != "" {
		return val
	}
	return fallback
}
