package capability

import (
	"context"

	"github.com/feastline/concierge/internal/domain"
	"github.com/feastline/concierge/internal/workflow"
)

// FoodData fetches live restaurant and menu data.
type FoodData interface {
	Restaurants(ctx context.Context, lat, lng float64) (map[string]any, error)
	Search(ctx context.Context, query string, lat, lng float64) (map[string]any, error)
	Menu(ctx context.Context, restaurantID string, lat, lng float64) (map[string]any, error)
}

// OrderStore reads orders and records refunds.
type OrderStore interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	CreateRefund(ctx context.Context, refund *domain.Refund) error
	GetRefundByOrder(ctx context.Context, orderID string) (*domain.Refund, error)
}

// RefundScreen maps a refund reason and evidence assessment to a status.
type RefundScreen interface {
	Screen(ctx context.Context, reason, validationDetails string) (string, error)
}

// Vision analyzes image and document attachments.
type Vision interface {
	VerifyImage(ctx context.Context, media *domain.Media, orderSummary, reason string, category domain.ReasonCategory) (map[string]any, error)
	AnalyzeDocument(ctx context.Context, media *domain.Media, instructions string) (map[string]any, error)
}

// Deps are the shared backends capabilities execute against.
type Deps struct {
	Food      FoodData
	Orders    OrderStore
	Workflows *workflow.Store
	Screen    RefundScreen
	Vision    Vision

	DefaultLatitude  float64
	DefaultLongitude float64
}

// location resolves the coordinates for a turn, falling back to the
// configured default city center.
func (d Deps) location(turn *Turn) (float64, float64) {
	if turn != nil && turn.Location != nil {
		return turn.Location.Latitude, turn.Location.Longitude
	}
	return d.DefaultLatitude, d.DefaultLongitude
}

// RegisterAll wires every capability into the registry.
func RegisterAll(r *Registry, deps Deps) error {
	groups := [][]Capability{
		searchCapabilities(deps),
		orderCapabilities(deps),
		verificationCapabilities(deps),
		workflowCapabilities(deps),
	}
	for _, group := range groups {
		for _, c := range group {
			if err := r.Register(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// workflowNotFound translates store errors into the in-band shape.
func workflowNotFound(conversationID string) map[string]any {
	return errorResult("Workflow not found",
		"No refund workflow found for conversation ID: "+conversationID)
}
