package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/feastline/concierge/internal/domain"
)

var ErrConversationNotFound = errors.New("conversation not found")

// ConversationPage is one page of the conversation listing.
type ConversationPage struct {
	Conversations []domain.ConversationSummary `json:"conversations"`
	Total         int                          `json:"total"`
	Limit         int                          `json:"limit"`
	Offset        int                          `json:"offset"`
}

// ListConversations returns summaries ordered by last activity, optionally
// filtered by user, paginated with limit and offset.
func (s *Service) ListConversations(ctx context.Context, userID string, limit, offset int) (*ConversationPage, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	all, err := s.store.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	page := &ConversationPage{Total: len(all), Limit: limit, Offset: offset}
	if offset < len(all) {
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		page.Conversations = all[offset:end]
	}
	if page.Conversations == nil {
		page.Conversations = []domain.ConversationSummary{}
	}
	return page, nil
}

func (s *Service) GetConversation(ctx context.Context, conversationID string) (*domain.ConversationSummary, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

// DeleteConversation removes the persisted conversation and drops its memory
// window so a reused id starts fresh.
func (s *Service) DeleteConversation(ctx context.Context, conversationID string) error {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("failed to get conversation: %w", err)
	}
	if conv == nil {
		return ErrConversationNotFound
	}
	if err := s.store.DeleteConversation(ctx, conversationID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	s.memory.Clear(conversationID)
	return nil
}
