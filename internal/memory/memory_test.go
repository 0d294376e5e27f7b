package memory

import (
	"strings"
	"testing"
)

func TestWindowEviction(t *testing.T) {
	m := New(3)
	for _, text := range []string{"one", "two", "three", "four"} {
		m.Add("conv1", "user", text)
	}
	turns := m.History("conv1")
	if len(turns) != 3 {
		t.Fatalf("expected window of 3, got %d", len(turns))
	}
	if turns[0].Text != "two" || turns[2].Text != "four" {
		t.Fatalf("oldest turn not evicted first: %+v", turns)
	}
}

func TestDefaultWindow(t *testing.T) {
	m := New(0)
	for i := 0; i < 15; i++ {
		m.Add("conv1", "user", "msg")
	}
	if got := len(m.History("conv1")); got != DefaultWindow {
		t.Fatalf("expected default window %d, got %d", DefaultWindow, got)
	}
}

func TestConversationsIsolated(t *testing.T) {
	m := New(5)
	m.Add("a", "user", "hello")
	m.Add("b", "user", "world")
	if len(m.History("a")) != 1 || len(m.History("b")) != 1 {
		t.Fatal("conversations should not share history")
	}
	m.Clear("a")
	if len(m.History("a")) != 0 {
		t.Fatal("clear did not forget the conversation")
	}
	if len(m.History("b")) != 1 {
		t.Fatal("clear removed the wrong conversation")
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	m := New(5)
	m.Add("conv1", "user", "original")
	turns := m.History("conv1")
	turns[0].Text = "mutated"
	if m.History("conv1")[0].Text != "original" {
		t.Fatal("history exposed internal state")
	}
}

func TestSummary(t *testing.T) {
	m := New(5)
	if got := m.Summary("empty"); got != "No previous conversation history." {
		t.Fatalf("unexpected empty summary: %q", got)
	}
	m.Add("conv1", "user", "find pizza")
	m.Add("conv1", "assistant", "here are some options")
	s := m.Summary("conv1")
	if !strings.Contains(s, "user: find pizza") || !strings.Contains(s, "assistant: here are some options") {
		t.Fatalf("summary missing turns:\n%s", s)
	}
}

func TestHistoryQueryDetection(t *testing.T) {
	positive := []string{
		"What did I ask you before?",
		"summarize our chat",
		"do you remember my first question",
		"show the chat history",
	}
	for _, msg := range positive {
		if !IsHistoryQuery(msg) {
			t.Fatalf("expected history query: %q", msg)
		}
		if !strings.HasPrefix(Annotate(msg), "[CONVERSATION HISTORY QUERY] ") {
			t.Fatalf("annotate did not mark %q", msg)
		}
	}
	msg := "find me a pizza place nearby"
	if IsHistoryQuery(msg) {
		t.Fatalf("false positive: %q", msg)
	}
	if Annotate(msg) != msg {
		t.Fatalf("annotate changed a normal message")
	}
}
