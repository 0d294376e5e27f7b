package engine

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/feastline/concierge/internal/capability"
	"github.com/feastline/concierge/internal/domain"
)

type stubMessages struct {
	responses []*sdk.Message
	requests  []sdk.MessageNewParams
}

func (s *stubMessages) New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error) {
	s.requests = append(s.requests, body)
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func testRegistry(t *testing.T) *capability.Registry {
	t.Helper()
	r := capability.NewRegistry()
	err := r.Register(capability.Capability{
		Name:        "lookup",
		Description: "look something up",
		InputSchema: map[string]any{"type": "object"},
		Fn: func(ctx context.Context, turn *capability.Turn, args json.RawMessage) map[string]any {
			return map[string]any{"answer": 42}
		},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return r
}

func TestRunTextOnly(t *testing.T) {
	stub := &stubMessages{responses: []*sdk.Message{{
		Content:    []sdk.ContentBlockUnion{{Type: "text", Text: "Here you go."}},
		StopReason: sdk.StopReasonEndTurn,
	}}}
	eng := NewAnthropicWithClient(stub, "claude-3-7-sonnet-20250219", testRegistry(t), 5)

	var events []domain.Event
	answer, err := eng.Run(context.Background(), Request{Message: "hi", Turn: &capability.Turn{}},
		func(e domain.Event) { events = append(events, e) })
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if answer != "Here you go." {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if len(events) != 0 {
		t.Fatalf("text-only turn should emit no progress events, got %d", len(events))
	}
	if len(stub.requests[0].Tools) != 1 {
		t.Fatalf("tool definitions not sent: %+v", stub.requests[0].Tools)
	}
}

func TestRunToolUseLoop(t *testing.T) {
	stub := &stubMessages{responses: []*sdk.Message{
		{
			Content: []sdk.ContentBlockUnion{
				{Type: "text", Text: "Let me check that."},
				{Type: "tool_use", ID: "t1", Name: "lookup", Input: json.RawMessage(`{"q":"x"}`)},
			},
			StopReason: sdk.StopReasonToolUse,
		},
		{
			Content:    []sdk.ContentBlockUnion{{Type: "text", Text: "The answer is 42."}},
			StopReason: sdk.StopReasonEndTurn,
		},
	}}
	eng := NewAnthropicWithClient(stub, "claude-3-7-sonnet-20250219", testRegistry(t), 5)

	var events []domain.Event
	answer, err := eng.Run(context.Background(), Request{Message: "what is it", Turn: &capability.Turn{}},
		func(e domain.Event) { events = append(events, e) })
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if answer != "The answer is 42." {
		t.Fatalf("unexpected answer: %q", answer)
	}

	kinds := make([]domain.EventKind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	want := []domain.EventKind{
		domain.EventKindReasoningStep,
		domain.EventKindAgentAction,
		domain.EventKindToolStart,
		domain.EventKindToolEnd,
	}
	if len(kinds) != len(want) {
		t.Fatalf("unexpected events %v", kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}

	// The second request must carry the assistant turn and the tool result.
	second := stub.requests[1]
	if len(second.Messages) != 3 {
		t.Fatalf("expected user+assistant+result messages, got %d", len(second.Messages))
	}
}

func TestRunEmptyAnswerFallsBack(t *testing.T) {
	stub := &stubMessages{responses: []*sdk.Message{{
		Content:    []sdk.ContentBlockUnion{},
		StopReason: sdk.StopReasonEndTurn,
	}}}
	eng := NewAnthropicWithClient(stub, "claude-3-7-sonnet-20250219", testRegistry(t), 5)

	answer, err := eng.Run(context.Background(), Request{Message: "hi", Turn: &capability.Turn{}}, func(domain.Event) {})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if answer != FallbackAnswer {
		t.Fatalf("expected fallback answer, got %q", answer)
	}
}

func TestRunStepLimit(t *testing.T) {
	toolResp := &sdk.Message{
		Content: []sdk.ContentBlockUnion{
			{Type: "tool_use", ID: "t1", Name: "lookup", Input: json.RawMessage(`{}`)},
		},
		StopReason: sdk.StopReasonToolUse,
	}
	stub := &stubMessages{responses: []*sdk.Message{toolResp, toolResp}}
	eng := NewAnthropicWithClient(stub, "claude-3-7-sonnet-20250219", testRegistry(t), 2)

	if _, err := eng.Run(context.Background(), Request{Message: "loop", Turn: &capability.Turn{}}, func(domain.Event) {}); err == nil {
		t.Fatal("expected step-limit error")
	}
}

func TestSystemPromptCarriesHistory(t *testing.T) {
	prompt := systemPrompt([]Exchange{{Role: "user", Text: "find dosa"}, {Role: "assistant", Text: "sure"}})
	for _, want := range []string{"CONVERSATION HISTORY", "user: find dosa", "assistant: sure"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}

func TestExtractJSON(t *testing.T) {
	fenced := "Here is my analysis:\n```json\n{\"verification_score\": 85}\n```"
	parsed := extractJSON(fenced)
	if parsed["verification_score"] != 85.0 {
		t.Fatalf("fenced JSON not parsed: %v", parsed)
	}

	bare := `{"verification_status": "verified"}`
	if parsed := extractJSON(bare); parsed["verification_status"] != "verified" {
		t.Fatalf("bare JSON not parsed: %v", parsed)
	}

	embedded := `Sure! {"recommendation": "approve"} hope that helps`
	if parsed := extractJSON(embedded); parsed["recommendation"] != "approve" {
		t.Fatalf("embedded JSON not parsed: %v", parsed)
	}

	if parsed := extractJSON("no json here"); parsed != nil {
		t.Fatalf("expected nil for non-JSON text, got %v", parsed)
	}
}

func TestVerifyImageDefaults(t *testing.T) {
	stub := &stubMessages{responses: []*sdk.Message{{
		Content:    []sdk.ContentBlockUnion{{Type: "text", Text: "I cannot produce JSON for this."}},
		StopReason: sdk.StopReasonEndTurn,
	}}}
	v := NewVisionWithClient(stub, "claude-3-7-sonnet-20250219")

	media := &domain.Media{Type: "image/jpeg", Data: "aGVsbG8="}
	result, err := v.VerifyImage(context.Background(), media, "Order #1 containing: Dosa", "damaged", domain.ReasonDamaged)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if result["verification_status"] != "inconclusive" || result["recommendation"] != "manual_review" {
		t.Fatalf("expected inconclusive defaults, got %v", result)
	}
	if result["image_analyzed"] != true {
		t.Fatalf("missing image_analyzed flag: %v", result)
	}
}

func TestVerifyImageParsesVerdict(t *testing.T) {
	verdict := "```json\n" + `{"verification_score": 88, "verification_status": "verified", "recommendation": "approve", "detected_issues": ["crushed box"]}` + "\n```"
	stub := &stubMessages{responses: []*sdk.Message{{
		Content:    []sdk.ContentBlockUnion{{Type: "text", Text: verdict}},
		StopReason: sdk.StopReasonEndTurn,
	}}}
	v := NewVisionWithClient(stub, "claude-3-7-sonnet-20250219")

	media := &domain.Media{Type: "image/jpeg", Data: "aGVsbG8="}
	result, err := v.VerifyImage(context.Background(), media, "Order #1", "damaged packaging", domain.ReasonDamaged)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if result["verification_score"] != 88.0 || result["verification_status"] != "verified" {
		t.Fatalf("verdict not applied: %v", result)
	}
}
