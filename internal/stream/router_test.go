package stream

import (
	"testing"

	"github.com/feastline/concierge/internal/domain"
)

func drain(q *Queue) []domain.Event {
	var out []domain.Event
	for {
		e, ok := q.TryPop()
		if !ok {
			return out
		}
		out = append(out, e)
	}
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	q.Push(domain.NewMessageEvent("a"))
	q.Push(domain.NewMessageEvent("b"))
	q.Push(domain.NewMessageEvent("c"))
	got := drain(q)
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].Text != want {
			t.Fatalf("event %d: expected %q, got %q", i, want, got[i].Text)
		}
	}
	if _, ok := q.TryPop(); ok {
		t.Fatal("pop from empty queue should report false")
	}
}

func TestQueueReadySignal(t *testing.T) {
	q := NewQueue()
	select {
	case <-q.Ready():
		t.Fatal("ready signal before any push")
	default:
	}
	q.Push(domain.NewMessageEvent("a"))
	q.Push(domain.NewMessageEvent("b"))
	select {
	case <-q.Ready():
	default:
		t.Fatal("expected ready signal after push")
	}
}

func TestRouteStructuredDataOnlyToStructured(t *testing.T) {
	structured, narration := NewQueue(), NewQueue()
	r := NewRouter(structured, narration)
	r.Route(domain.NewStructuredDataEvent(domain.StructuredCard{
		Kind:    domain.CardKindRestaurant,
		Payload: map[string]any{"name": "Pizza Palace"},
	}))
	if structured.Len() != 1 || narration.Len() != 0 {
		t.Fatalf("structured_data misrouted: structured=%d narration=%d", structured.Len(), narration.Len())
	}
}

func TestRouteToolEndFansOut(t *testing.T) {
	structured, narration := NewQueue(), NewQueue()
	r := NewRouter(structured, narration)
	output := map[string]any{
		"results": []any{
			map[string]any{"name": "Dish A", "price": 100},
			map[string]any{"name": "Dish B", "price": 120},
		},
	}
	r.Route(domain.NewToolEndEvent(domain.CapSearchFoodItems, output))

	got := drain(structured)
	if len(got) != 2 {
		t.Fatalf("expected 2 structured events, got %d", len(got))
	}
	for _, e := range got {
		if e.Kind != domain.EventKindStructuredData || e.Card == nil {
			t.Fatalf("fan-out produced malformed event: %+v", e)
		}
	}
	narr := drain(narration)
	if len(narr) != 1 || narr[0].Kind != domain.EventKindToolEnd {
		t.Fatalf("original tool_end not delivered to narration: %v", narr)
	}
}

func TestRouteToolEndNoCards(t *testing.T) {
	structured, narration := NewQueue(), NewQueue()
	r := NewRouter(structured, narration)
	r.Route(domain.NewToolEndEvent("noop", map[string]any{"free": "text"}))
	if structured.Len() != 0 {
		t.Fatalf("expected no structured events, got %d", structured.Len())
	}
	if narration.Len() != 1 {
		t.Fatalf("tool_end must still reach narration, got %d", narration.Len())
	}
}

func TestRouteSurvivesExtractorPanic(t *testing.T) {
	structured, narration := NewQueue(), NewQueue()
	r := NewRouter(structured, narration)
	r.extract = func(map[string]any, string) []domain.StructuredCard {
		panic("boom")
	}
	r.Route(domain.NewToolEndEvent("broken", map[string]any{"order_id": "o1", "items": []any{}}))
	if narration.Len() != 1 {
		t.Fatalf("tool_end lost after extractor failure: narration=%d", narration.Len())
	}
}

func TestRouteNarration(t *testing.T) {
	structured, narration := NewQueue(), NewQueue()
	r := NewRouter(structured, narration)
	r.Route(domain.NewThinkingEvent("Analyzing your request..."))
	r.Route(domain.NewReasoningStepEvent(1, "looking up the menu"))
	r.Route(domain.NewToolErrorEvent("get_order_details", "not found"))
	if structured.Len() != 0 {
		t.Fatalf("narration events leaked to structured queue")
	}
	if narration.Len() != 3 {
		t.Fatalf("expected 3 narration events, got %d", narration.Len())
	}
}
