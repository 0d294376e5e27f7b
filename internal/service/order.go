package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/feastline/concierge/internal/domain"
)

var ErrOrderNotFound = errors.New("order not found")

// CreateOrder persists a new order, computing its total from the line items.
func (s *Service) CreateOrder(ctx context.Context, items []domain.OrderItem) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, errors.New("order must contain at least one item")
	}

	var total float64
	for i := range items {
		if items[i].Quantity <= 0 {
			items[i].Quantity = 1
		}
		total += items[i].Price * float64(items[i].Quantity)
	}

	order := &domain.Order{
		OrderID:    uuid.NewString(),
		Items:      items,
		TotalPrice: total,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
