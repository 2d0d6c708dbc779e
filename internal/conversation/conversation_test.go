package conversation

import "testing"

func TestSystemPromptAlwaysFirst(t *testing.T) {
	s := New("you are a phone assistant")
	s.AddUser("hi")
	s.AddAssistant("hello")

	msgs := s.Messages()
	if msgs[0].Role != RoleSystem {
		t.Fatalf("expected system message first, got %v", msgs[0].Role)
	}
}

func TestEmptyMessagesIgnored(t *testing.T) {
	s := New("sys")
	s.AddUser("   ")
	s.AddAssistant("")
	if len(s.Messages()) != 1 {
		t.Fatalf("expected only the system message, got %d", len(s.Messages()))
	}
}

func TestHistoryTrimsToLimit(t *testing.T) {
	s := NewWithLimit("sys", 4)
	for i := 0; i < 10; i++ {
		s.AddUser("turn")
	}
	msgs := s.Messages()
	if len(msgs)-1 != 4 {
		t.Fatalf("expected history capped at 4, got %d", len(msgs)-1)
	}
	if msgs[0].Role != RoleSystem {
		t.Fatal("system message must survive trimming")
	}
}

func TestAddAssistantPartialMarksInterrupted(t *testing.T) {
	s := New("sys")
	s.AddAssistantPartial("hello there")
	msgs := s.Messages()
	if got := msgs[len(msgs)-1].Content; got != "hello there [interrupted]" {
		t.Fatalf("expected interrupted suffix, got %q", got)
	}
}

func TestAddAssistantPartialIgnoresEmpty(t *testing.T) {
	s := New("sys")
	s.AddAssistantPartial("   ")
	if len(s.Messages()) != 1 {
		t.Fatal("expected empty partial to be ignored")
	}
}

func TestTurnCount(t *testing.T) {
	s := New("sys")
	s.AddUser("one")
	s.AddAssistant("reply")
	s.AddUser("two")
	if got := s.TurnCount(); got != 2 {
		t.Fatalf("expected 2 turns, got %d", got)
	}
}

func TestTurnCountSurvivesHistoryTrim(t *testing.T) {
	s := NewWithLimit("sys", 2)
	for i := 0; i < 5; i++ {
		s.AddUser("msg")
	}
	if got := s.TurnCount(); got != 5 {
		t.Fatalf("expected turn count to track all committed turns past the history bound, got %d", got)
	}
	if len(s.Messages())-1 > 2 {
		t.Fatalf("expected bounded history window, got %d messages", len(s.Messages())-1)
	}
}

func TestResetPreservesSystemPrompt(t *testing.T) {
	s := New("sys")
	s.AddUser("hi")
	s.Reset()
	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].Role != RoleSystem {
		t.Fatalf("expected only system message after reset, got %+v", msgs)
	}
}
