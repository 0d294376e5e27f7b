package engine

import (
	"context"

	"github.com/feastline/concierge/internal/domain"
)

// Script is an Engine that replays a fixed event sequence and answer. It
// exists for tests and local development without model access.
type Script struct {
	Events []domain.Event
	Answer string
	Err    error
}

func (s *Script) Run(ctx context.Context, req Request, emit func(domain.Event)) (string, error) {
	for _, e := range s.Events {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		emit(e)
	}
	return s.Answer, s.Err
}
