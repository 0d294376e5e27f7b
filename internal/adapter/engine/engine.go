// Package engine adapts an LLM into the agent's reasoning loop: it sends the
// conversation to the model, executes the capabilities the model requests,
// and reports progress as events.
package engine

import (
	"context"

	"github.com/feastline/concierge/internal/capability"
	"github.com/feastline/concierge/internal/domain"
)

// FallbackAnswer is used when the model produces no final text.
const FallbackAnswer = "I'm not sure how to respond to that."

// Exchange is one prior turn given to the engine as context.
type Exchange struct {
	Role string
	Text string
}

// Request is one reasoning turn.
type Request struct {
	// Message is the user's message, already annotated for history queries.
	Message string
	// History is the remembered conversation window, oldest first.
	History []Exchange
	// Turn is the per-request context handed to capabilities.
	Turn *capability.Turn
}

// Engine runs one reasoning turn. Progress events (reasoning steps, tool
// activity) are delivered through emit as they happen; the returned string is
// the final answer.
type Engine interface {
	Run(ctx context.Context, req Request, emit func(domain.Event)) (string, error)
}
