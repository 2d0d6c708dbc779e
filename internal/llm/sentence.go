package llm

import "strings"

// SentenceBuffer accumulates streamed tokens and splits at sentence
// boundaries so the Response Task can hand complete sentences to TTS as
// soon as they're ready, instead of waiting for the whole reply.
type SentenceBuffer struct {
	buf strings.Builder
}

// Add appends a token and returns any complete sentence ready for TTS.
// Returns the empty string if no sentence boundary has been seen yet.
func (s *SentenceBuffer) Add(token string) string {
	s.buf.WriteString(token)
	text := s.buf.String()
	complete, remainder := splitAtSentence(text)
	if complete == "" {
		return ""
	}
	s.buf.Reset()
	s.buf.WriteString(remainder)
	return complete
}

// Flush returns any remaining text in the buffer.
func (s *SentenceBuffer) Flush() string {
	text := strings.TrimSpace(s.buf.String())
	s.buf.Reset()
	return text
}

var sentenceEnders = map[byte]bool{'.': true, '!': true, '?': true}

// splitAtSentence finds the last sentence boundary in text. A boundary is
// either a sentence ender (.!?) followed by whitespace, or a newline, which
// terminates a sentence on its own without needing a trailing space. Returns
// (completeSentences, remainder); if no boundary is found, returns ("", text).
func splitAtSentence(text string) (string, string) {
	lastIdx := -1
	for i := 0; i < len(text); i++ {
		switch {
		case text[i] == '\n':
			lastIdx = i + 1
		case sentenceEnders[text[i]] && i+1 < len(text) && isWordBoundary(text[i+1]):
			lastIdx = i + 1
		}
	}
	if lastIdx < 0 {
		return "", text
	}
	return strings.TrimSpace(text[:lastIdx]), text[lastIdx:]
}

func isWordBoundary(ch byte) bool {
	return ch == ' ' || ch == '\n' || ch == '\t'
}
