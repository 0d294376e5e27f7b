// Package orchestrator runs one conversational turn end to end: it feeds the
// reasoning engine's events through the priority router and drains them to the
// client in order, structured cards ahead of narration.
package orchestrator

import (
	"context"
	"log"

	"github.com/feastline/concierge/internal/adapter/engine"
	"github.com/feastline/concierge/internal/capability"
	"github.com/feastline/concierge/internal/domain"
	"github.com/feastline/concierge/internal/stream"
)

// ThinkingText opens every turn so the client renders progress immediately.
const ThinkingText = "Analyzing your request..."

// Request carries one user turn into the orchestrator.
type Request struct {
	Message        string
	ConversationID string
	History        []engine.Exchange
	Turn           *capability.Turn
}

// Orchestrator drives the engine and streams its events.
type Orchestrator struct {
	engine engine.Engine
}

func New(eng engine.Engine) *Orchestrator {
	return &Orchestrator{engine: eng}
}

type engineResult struct {
	answer string
	err    error
}

// StreamTurn runs the turn and delivers events through emit until the final
// done event. Structured data events are always flushed before narration.
// Cards produced during the turn are re-emitted after the closing message so
// clients that only read the tail still receive them. An engine that finishes
// without an answer yields the stock fallback reply. An emit error aborts
// the turn; the engine is cancelled and the error returned.
func (o *Orchestrator) StreamTurn(ctx context.Context, req Request, emit func(domain.Event) error) (string, error) {
	if err := emit(domain.NewThinkingEvent(ThinkingText)); err != nil {
		return "", err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	structured := stream.NewQueue()
	narration := stream.NewQueue()
	router := stream.NewRouter(structured, narration)

	finished := make(chan engineResult, 1)
	go func() {
		answer, err := o.engine.Run(ctx, engine.Request{
			Message: req.Message,
			History: req.History,
			Turn:    req.Turn,
		}, router.Route)
		finished <- engineResult{answer: answer, err: err}
	}()

	var cards []domain.StructuredCard
	var result engineResult
	engineDone := false

	for {
		ev, ok := structured.TryPop()
		if ok {
			if ev.Card != nil {
				cards = append(cards, *ev.Card)
			}
			if err := emit(ev); err != nil {
				return "", err
			}
			continue
		}

		if ev, ok := narration.TryPop(); ok {
			if err := emit(ev); err != nil {
				return "", err
			}
			continue
		}

		if engineDone {
			break
		}

		select {
		case <-structured.Ready():
		case <-narration.Ready():
		case result = <-finished:
			engineDone = true
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	conversationID := req.ConversationID
	if result.err != nil {
		log.Printf("ERROR: turn failed for conversation %s: %v", conversationID, result.err)
		if err := emit(domain.NewErrorEvent(result.err.Error())); err != nil {
			return "", err
		}
		if err := emit(domain.NewDoneEvent(conversationID)); err != nil {
			return "", err
		}
		return "", result.err
	}

	answer := result.answer
	if answer == "" {
		answer = engine.FallbackAnswer
	}
	if err := emit(domain.NewMessageEvent(answer)); err != nil {
		return "", err
	}
	for _, card := range cards {
		if err := emit(domain.NewStructuredDataEvent(card)); err != nil {
			return "", err
		}
	}
	if err := emit(domain.NewDoneEvent(conversationID)); err != nil {
		return "", err
	}
	return answer, nil
}
