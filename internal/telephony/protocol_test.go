package telephony

import (
	"encoding/json"
	"testing"
)

func TestParseInboundEventStart(t *testing.T) {
	raw := `{"event":"start","start":{"callSid":"CA123","streamSid":"MZ456","mediaFormat":{"encoding":"audio/x-mulaw","sampleRate":8000,"channels":1},"customParameters":{"llm_engine":"ollama"}}}`
	ev, err := parseInboundEvent([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Event != "start" {
		t.Fatalf("expected start event, got %q", ev.Event)
	}
	if ev.Start == nil || ev.Start.CallSid != "CA123" || ev.Start.StreamSid != "MZ456" {
		t.Fatalf("unexpected start payload: %+v", ev.Start)
	}
	if ev.Start.CustomParameters["llm_engine"] != "ollama" {
		t.Fatalf("expected custom parameter to round-trip, got %+v", ev.Start.CustomParameters)
	}
}

func TestParseInboundEventMedia(t *testing.T) {
	raw := `{"event":"media","media":{"payload":"AAAA"}}`
	ev, err := parseInboundEvent([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Media == nil || ev.Media.Payload != "AAAA" {
		t.Fatalf("unexpected media payload: %+v", ev.Media)
	}
}

func TestParseInboundEventMalformed(t *testing.T) {
	if _, err := parseInboundEvent([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed frame")
	}
}

func TestEncodeMediaEvent(t *testing.T) {
	data, err := encodeMediaEvent("MZ456", "AAAA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded outboundMediaEvent
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	if decoded.Event != "media" || decoded.StreamSid != "MZ456" || decoded.Media.Payload != "AAAA" {
		t.Fatalf("unexpected encoded event: %+v", decoded)
	}
}

func TestEncodeClearEvent(t *testing.T) {
	data, err := encodeClearEvent("MZ456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded outboundClearEvent
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	if decoded.Event != "clear" || decoded.StreamSid != "MZ456" {
		t.Fatalf("unexpected encoded event: %+v", decoded)
	}
}
