package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nlpodyssey/openai-agents-go/agents"
	"github.com/openai/openai-go/v2/packages/param"

	"github.com/lucache95/clientcaller/internal/asr"
	"github.com/lucache95/clientcaller/internal/denoise"
	"github.com/lucache95/clientcaller/internal/llm"
	"github.com/lucache95/clientcaller/internal/process"
	"github.com/lucache95/clientcaller/internal/prompts"
	"github.com/lucache95/clientcaller/internal/telephony"
	"github.com/lucache95/clientcaller/internal/tts"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg := loadConfig()

	asrRouter := initASR(cfg)
	llmRouter := initLLM(cfg)
	ttsRouter := initTTS(cfg)

	var denoiser *denoise.Denoiser
	if cfg.noiseSuppression {
		denoiser = denoise.New()
	}

	proc := process.New(process.Backends{
		ASR:      asrRouter,
		LLM:      llmRouter,
		TTS:      ttsRouter,
		Denoiser: denoiser,
	}, cfg.maxConcurrentCalls)

	go warmupBackends(proc)

	wsHandler := telephony.NewHandler(telephony.HandlerConfig{
		Process:          proc,
		VADConfig:        cfg.vadConfig,
		NoiseSuppression: cfg.noiseSuppression,
		SystemPrompt:     prompts.DefaultSystem,
		LLMModel:         cfg.llmModel,
		LLMEngine:        cfg.llmEngine,
		TTSVoice:         cfg.ttsVoice,
		TTSEngine:        cfg.ttsEngine,
		ASREngine:        "whisper",
	})

	var caller *telephony.OutboundCaller
	if cfg.telephonyAccountSid != "" {
		caller = telephony.NewOutboundCaller(cfg.telephonyAccountSid, cfg.telephonyAuthToken, cfg.telephonyFromNumber, cfg.publicBaseURL)
	}

	mux := http.NewServeMux()
	registerRoutes(mux, routeDeps{
		process:      proc,
		wsHandler:    wsHandler,
		caller:       caller,
		publicBaseURL: cfg.publicBaseURL,
	})

	addr := cfg.serverHost + ":" + cfg.serverPort
	srv := &http.Server{Addr: addr, Handler: mux}

	go awaitShutdown(srv, proc)

	slog.Info("gateway starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	slog.Info("gateway stopped")
}

// awaitShutdown blocks until SIGINT/SIGTERM, stops accepting new sessions via
// the admission gate, and waits up to 30s for in-flight calls to drain
// before shutting down the HTTP server.
func awaitShutdown(srv *http.Server, proc *process.Process) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig)

	proc.Drain()

	drained := make(chan struct{})
	proc.WaitDrained(drained)

	select {
	case <-drained:
		slog.Info("all calls drained")
	case <-time.After(30 * time.Second):
		slog.Warn("shutdown timeout, calls still active", "active", proc.ActiveCalls())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("http server shutdown", "error", err)
	}
}

// warmupBackends exercises every registered ASR/LLM/TTS backend with a
// trivial request at startup so the first real call does not pay for a cold
// model load. A slow or unavailable backend only logs; it never blocks
// server start.
func warmupBackends(proc *process.Process) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	for _, engine := range proc.Backends.ASR.Engines() {
		if _, err := proc.Backends.ASR.Transcribe(ctx, make([]float32, 1600), engine); err != nil {
			slog.Warn("asr warmup failed", "engine", engine, "error", err)
			continue
		}
		slog.Info("asr backend ready", "engine", engine)
	}

	for _, engine := range proc.Backends.LLM.Engines() {
		_, err := proc.Backends.LLM.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: "hello"}}, "", engine, nil)
		if err != nil {
			slog.Warn("llm warmup failed", "engine", engine, "error", err)
			continue
		}
		slog.Info("llm backend ready", "engine", engine)
	}

	for _, engine := range proc.Backends.TTS.Engines() {
		if _, err := proc.Backends.TTS.Synthesize(ctx, "warmup", "fast", engine); err != nil {
			slog.Warn("tts warmup failed", "engine", engine, "error", err)
			continue
		}
		slog.Info("tts backend ready", "engine", engine)
	}
}

func initASR(cfg config) *asr.Router {
	backends := map[string]asr.Transcriber{
		"whisper": asr.NewWhisperClient(cfg.asrURL, cfg.httpPoolSize),
	}
	return asr.NewRouter(backends, "whisper")
}

func initLLM(cfg config) *llm.ChatRouter {
	backends := map[string]llm.ChatClient{
		"ollama": llm.NewOllamaClient(cfg.llmBaseURL, cfg.llmModel, cfg.llmMaxTokens, cfg.httpPoolSize),
	}
	if cfg.anthropicAPIKey != "" {
		backends["anthropic"] = llm.NewAnthropicClient(cfg.anthropicAPIKey, cfg.anthropicURL, cfg.anthropicModel, cfg.llmMaxTokens, cfg.httpPoolSize)
	}
	if cfg.llmAPIKey != "" {
		provider := agents.NewOpenAIProvider(agents.OpenAIProviderParams{
			BaseURL:      param.NewOpt(cfg.llmBaseURL + "/v1/"),
			APIKey:       param.NewOpt(cfg.llmAPIKey),
			UseResponses: param.NewOpt(true),
		})
		backends["agent"] = llm.NewAgentClient(provider, cfg.llmModel, cfg.llmMaxTokens)
	}
	return llm.NewChatRouter(backends, cfg.llmEngine)
}

func initTTS(cfg config) *tts.Router {
	backends := map[string]tts.Synthesizer{
		"default": tts.NewClient(cfg.ttsURL, cfg.httpPoolSize),
	}
	return tts.NewRouter(backends, "default")
}
