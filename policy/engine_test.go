package policy

import (
	"context"
	"testing"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(context.Background(), DefaultPolicy)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	return e
}

func TestScreenApprovesByDefault(t *testing.T) {
	e := newTestEngine(t)
	status, err := e.Screen(context.Background(), "food arrived cold", "Decision: APPROVE")
	if err != nil {
		t.Fatalf("screen failed: %v", err)
	}
	if status != "Approved" {
		t.Fatalf("expected Approved, got %s", status)
	}
}

func TestScreenRejectsOnEvidenceKeywords(t *testing.T) {
	e := newTestEngine(t)
	cases := []struct{ reason, details string }{
		{"refund request", "insufficient evidence in the photo"},
		{"the image is blurry", ""},
		{"claim looks fraudulent", ""},
		{"refund", "Cannot Verify the damage"},
	}
	for _, c := range cases {
		status, err := e.Screen(context.Background(), c.reason, c.details)
		if err != nil {
			t.Fatalf("screen failed: %v", err)
		}
		if status != "Rejected" {
			t.Fatalf("reason=%q details=%q: expected Rejected, got %s", c.reason, c.details, status)
		}
	}
}

func TestScreenPendingOverridesRejection(t *testing.T) {
	e := newTestEngine(t)
	status, err := e.Screen(context.Background(), "blurry photo, needs review", "")
	if err != nil {
		t.Fatalf("screen failed: %v", err)
	}
	if status != "Processing" {
		t.Fatalf("expected Processing when review keywords present, got %s", status)
	}
}

func TestScreenPendingKeywords(t *testing.T) {
	e := newTestEngine(t)
	status, err := e.Screen(context.Background(), "refund", "damage only partially visible")
	if err != nil {
		t.Fatalf("screen failed: %v", err)
	}
	if status != "Processing" {
		t.Fatalf("expected Processing, got %s", status)
	}
}

func TestNewEngineRejectsBadPolicy(t *testing.T) {
	if _, err := NewEngine(context.Background(), "not a rego module {"); err == nil {
		t.Fatal("expected error for malformed policy")
	}
}
