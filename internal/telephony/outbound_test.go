package telephony

import (
	"strings"
	"testing"
)

func TestTwiMLContainsStreamURL(t *testing.T) {
	doc := TwiML("wss://example.com/ws", "")
	if !strings.Contains(doc, "wss://example.com/ws") {
		t.Fatalf("expected stream url in TwiML, got %s", doc)
	}
}

func TestTwiMLEscapesSystemPrompt(t *testing.T) {
	doc := TwiML("wss://example.com/ws", `say "hi" & wave`)
	if !strings.Contains(doc, "&quot;hi&quot;") || !strings.Contains(doc, "&amp;") {
		t.Fatalf("expected escaped system prompt, got %s", doc)
	}
}
