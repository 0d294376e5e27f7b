package stream

import (
	"log"

	"github.com/feastline/concierge/internal/cards"
	"github.com/feastline/concierge/internal/domain"
)

// Router sorts engine events onto the structured and narration queues.
// Structured-data events go to the structured queue only. A tool_end event
// fans out: every card extracted from its output is pushed as a
// structured_data event, and the original tool_end still goes to narration so
// the client timeline stays complete. Everything else is narration.
type Router struct {
	structured *Queue
	narration  *Queue

	// extract is swappable in tests; defaults to the card extractor.
	extract func(output map[string]any, capability string) []domain.StructuredCard
}

func NewRouter(structured, narration *Queue) *Router {
	return &Router{structured: structured, narration: narration, extract: cards.Extract}
}

// Route places e on the appropriate queue. No event is ever dropped: if card
// extraction fails the tool_end is still delivered to narration.
func (r *Router) Route(e domain.Event) {
	switch e.Kind {
	case domain.EventKindStructuredData:
		r.structured.Push(e)
	case domain.EventKindToolEnd:
		r.fanOut(e)
		r.narration.Push(e)
	default:
		r.narration.Push(e)
	}
}

func (r *Router) fanOut(e domain.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("ERROR: card fan-out failed for %s: %v", e.Capability, rec)
		}
	}()
	for _, card := range r.extract(e.Output, e.Capability) {
		r.structured.Push(domain.NewStructuredDataEvent(card))
	}
}
