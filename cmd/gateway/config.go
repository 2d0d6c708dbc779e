package main

import (
	"time"

	"github.com/lucache95/clientcaller/internal/env"
	"github.com/lucache95/clientcaller/internal/vad"
)

type config struct {
	serverHost string
	serverPort string
	publicBaseURL string

	telephonyAccountSid string
	telephonyAuthToken  string
	telephonyFromNumber string

	llmBaseURL     string
	llmAPIKey      string
	llmModel       string
	llmEngine      string
	llmMaxTokens   int
	llmTemperature float64

	anthropicAPIKey string
	anthropicModel  string
	anthropicURL    string

	ttsEngine string
	ttsVoice  string
	ttsURL    string
	ttsRate   float64

	asrURL string

	maxConcurrentCalls int
	noiseSuppression   bool
	httpPoolSize       int

	vadConfig vad.Config
}

func loadConfig() config {
	vadCfg := vad.DefaultConfig()
	if threshold := env.Float("VAD_THRESHOLD", -1); threshold >= 0 {
		vadCfg.Threshold = float32(threshold)
	}
	if ms := env.Int("VAD_MIN_SILENCE_MS", -1); ms >= 0 {
		vadCfg.MinSilence = time.Duration(ms) * time.Millisecond
	}
	if ms := env.Int("VAD_MIN_SPEECH_MS", -1); ms >= 0 {
		vadCfg.MinSpeech = time.Duration(ms) * time.Millisecond
	}

	return config{
		serverHost:    env.Str("SERVER_HOST", "0.0.0.0"),
		serverPort:    env.Str("SERVER_PORT", "8000"),
		publicBaseURL: env.Str("PUBLIC_BASE_URL", "http://localhost:8000"),

		telephonyAccountSid: env.Str("TELEPHONY_ACCOUNT_SID", ""),
		telephonyAuthToken:  env.Str("TELEPHONY_AUTH_TOKEN", ""),
		telephonyFromNumber: env.Str("TELEPHONY_FROM_NUMBER", ""),

		llmBaseURL:     env.Str("LLM_BASE_URL", "http://localhost:11434"),
		llmAPIKey:      env.Str("LLM_API_KEY", ""),
		llmModel:       env.Str("LLM_MODEL", "llama3.2:3b"),
		llmEngine:      env.Str("LLM_ENGINE", "ollama"),
		llmMaxTokens:   env.Int("LLM_MAX_TOKENS", 512),
		llmTemperature: env.Float("LLM_TEMPERATURE", 0.7),

		anthropicAPIKey: env.Str("ANTHROPIC_API_KEY", ""),
		anthropicModel:  env.Str("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
		anthropicURL:    env.Str("ANTHROPIC_URL", "https://api.anthropic.com"),

		ttsEngine: env.Str("TTS_ENGINE", "default"),
		ttsVoice:  env.Str("TTS_VOICE", "fast"),
		ttsURL:    env.Str("TTS_URL", "http://localhost:5100"),
		ttsRate:   env.Float("TTS_RATE", 1.0),

		asrURL: env.Str("ASR_URL", "http://localhost:8080"),

		maxConcurrentCalls: env.Int("MAX_CONCURRENT_CALLS", 50),
		noiseSuppression:   env.Bool("NOISE_SUPPRESSION", false),
		httpPoolSize:       env.Int("HTTP_POOL_SIZE", 50),

		vadConfig: vadCfg,
	}
}
