package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lucache95/clientcaller/internal/process"
	"github.com/lucache95/clientcaller/internal/telephony"
)

type routeDeps struct {
	process       *process.Process
	wsHandler     http.Handler
	caller        *telephony.OutboundCaller
	publicBaseURL string
}

// registerRoutes wires the gateway's HTTP surface: liveness, metrics, TwiML
// generation, outbound call placement, and the duplex media stream.
func registerRoutes(mux *http.ServeMux, d routeDeps) {
	mux.HandleFunc("GET /health", d.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /twiml", d.handleTwiML)
	mux.HandleFunc("POST /call/outbound", d.handleOutboundCall)
	mux.Handle("GET /ws", d.wsHandler)
}

func (d routeDeps) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":        "ok",
		"active_calls":  d.process.ActiveCalls(),
	})
}

func (d routeDeps) handleTwiML(w http.ResponseWriter, r *http.Request) {
	streamURL := publicToWebSocketURL(d.publicBaseURL) + "/ws"
	systemPrompt := r.URL.Query().Get("system_prompt")

	w.Header().Set("Content-Type", "application/xml")
	io.WriteString(w, telephony.TwiML(streamURL, systemPrompt))
}

type outboundCallRequest struct {
	To                 string `json:"to"`
	SystemPromptOverride string `json:"system_prompt,omitempty"`
}

func (d routeDeps) handleOutboundCall(w http.ResponseWriter, r *http.Request) {
	if d.caller == nil {
		http.Error(w, "outbound calling not configured", http.StatusServiceUnavailable)
		return
	}

	var req outboundCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.To == "" {
		http.Error(w, "bad request: missing destination number", http.StatusBadRequest)
		return
	}

	callID, err := d.caller.PlaceCall(req.To, req.SystemPromptOverride)
	if err != nil {
		slog.Error("outbound call failed", "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"call_id": callID})
}

func publicToWebSocketURL(baseURL string) string {
	switch {
	case len(baseURL) >= 8 && baseURL[:8] == "https://":
		return "wss://" + baseURL[8:]
	case len(baseURL) >= 7 && baseURL[:7] == "http://":
		return "ws://" + baseURL[7:]
	default:
		return baseURL
	}
}
