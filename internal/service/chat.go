package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/feastline/concierge/internal/adapter/engine"
	"github.com/feastline/concierge/internal/capability"
	"github.com/feastline/concierge/internal/domain"
	"github.com/feastline/concierge/internal/memory"
	"github.com/feastline/concierge/internal/orchestrator"
)

const defaultConversationID = "default"

// Chat runs one conversational turn and streams its events through emit.
// The user and assistant messages are recorded in both the in-process memory
// window and the persistent store; persistence failures are logged, not
// fatal, so a broken database never silences the assistant.
func (s *Service) Chat(ctx context.Context, req domain.ChatRequest, emit func(domain.Event) error) error {
	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		conversationID = defaultConversationID
	}

	message := req.Message
	media := imageMedia(req.Media)
	if media != nil {
		name := "uploaded image"
		if media.Metadata != nil {
			if n, ok := media.Metadata["name"].(string); ok && n != "" {
				name = n
			}
		}
		message = fmt.Sprintf("%s\n\n[Note: I've attached an image of %s for you to analyze]", message, name)
	}

	// Snapshot history before recording the current message so the prompt
	// does not repeat it.
	history := s.memory.History(conversationID)
	exchanges := make([]engine.Exchange, 0, len(history))
	for _, t := range history {
		exchanges = append(exchanges, engine.Exchange{Role: t.Role, Text: t.Text})
	}

	s.memory.Add(conversationID, "user", message)
	if err := s.store.SaveMessage(ctx, conversationID, req.UserID, "user", message); err != nil {
		log.Printf("WARN: failed to persist user message for %s: %v", conversationID, err)
	}

	enhanced := message
	if memory.IsHistoryQuery(message) {
		enhanced = memory.Annotate(message)
	}

	turn := &capability.Turn{
		ConversationID: conversationID,
		UserID:         req.UserID,
		Location:       req.Location,
		Media:          media,
	}

	answer, err := s.orch.StreamTurn(ctx, orchestrator.Request{
		Message:        enhanced,
		ConversationID: conversationID,
		History:        exchanges,
		Turn:           turn,
	}, emit)
	if err != nil {
		return err
	}

	s.memory.Add(conversationID, "ai", answer)
	if err := s.store.SaveMessage(ctx, conversationID, req.UserID, "ai", answer); err != nil {
		log.Printf("WARN: failed to persist assistant message for %s: %v", conversationID, err)
	}
	return nil
}

// imageMedia returns the attachment when it is a usable image, nil otherwise.
func imageMedia(m *domain.Media) *domain.Media {
	if m == nil || m.Data == "" {
		return nil
	}
	if m.Type != "image" && !strings.HasPrefix(m.Type, "image/") {
		return nil
	}
	return m
}
