package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/feastline/concierge/internal/domain"
)

func orderCapabilities(deps Deps) []Capability {
	return []Capability{
		{
			Name:        "get_order_details",
			Description: "Look up a placed order by its ID. Returns the ordered items, quantities, and total price.",
			InputSchema: objectSchema(map[string]any{
				"order_id": map[string]any{"type": "string", "description": "The order ID to look up"},
			}, "order_id"),
			Fn: deps.orderDetails,
		},
		{
			Name:        "initiate_refund",
			Description: "Initiate a refund for an order based on evidence validation. Pass the validation details produced by the refund decision so the refund can be screened.",
			InputSchema: objectSchema(map[string]any{
				"order_id":           map[string]any{"type": "string", "description": "The order to refund"},
				"reason":             map[string]any{"type": "string", "description": "The main reason for the refund request"},
				"validation_details": map[string]any{"type": "string", "description": "Evidence assessment from image validation, if available"},
			}, "order_id", "reason"),
			Fn: deps.initiateRefund,
		},
		{
			Name:        "get_refund_status",
			Description: "Check the status of a previously requested refund for an order.",
			InputSchema: objectSchema(map[string]any{
				"order_id": map[string]any{"type": "string", "description": "The order whose refund to check"},
			}, "order_id"),
			Fn: deps.refundStatus,
		},
	}
}

func (d Deps) orderDetails(ctx context.Context, turn *Turn, args json.RawMessage) map[string]any {
	var in struct {
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(args, &in); err != nil || in.OrderID == "" {
		return errorResult("Invalid input", "an order id is required")
	}

	order, err := d.Orders.GetOrder(ctx, in.OrderID)
	if err != nil {
		return errorResult("Error fetching order", err.Error())
	}
	if order == nil {
		return errorResult("Order not found", "No order found with ID: "+in.OrderID)
	}
	return map[string]any{
		"type": "order_details",
		"data": orderPayload(order),
	}
}

func (d Deps) initiateRefund(ctx context.Context, turn *Turn, args json.RawMessage) map[string]any {
	var in struct {
		OrderID           string `json:"order_id"`
		Reason            string `json:"reason"`
		ValidationDetails string `json:"validation_details"`
	}
	if err := json.Unmarshal(args, &in); err != nil || in.OrderID == "" || in.Reason == "" {
		return errorResult("Invalid input", "order id and reason are required")
	}

	order, err := d.Orders.GetOrder(ctx, in.OrderID)
	if err != nil {
		return errorResult("Error processing refund", err.Error())
	}
	if order == nil {
		return errorResult("Order not found", "No order found with ID: "+in.OrderID)
	}

	status, err := d.Screen.Screen(ctx, in.Reason, in.ValidationDetails)
	if err != nil {
		return errorResult("Error processing refund", err.Error())
	}

	detailedReason := in.Reason
	if in.ValidationDetails != "" {
		detailedReason = fmt.Sprintf("%s\n\nEvidence assessment: %s", in.Reason, in.ValidationDetails)
	}
	estimatedDays := 0
	if status == domain.RefundProcessing {
		estimatedDays = 2
	}

	refund := &domain.Refund{
		RefundID:      fmt.Sprintf("RF%d", time.Now().Unix()),
		OrderID:       in.OrderID,
		Status:        status,
		Amount:        order.TotalPrice,
		Reason:        detailedReason,
		EstimatedDays: estimatedDays,
		CreatedAt:     time.Now(),
	}
	if err := d.Orders.CreateRefund(ctx, refund); err != nil {
		return errorResult("Error processing refund", err.Error())
	}

	return map[string]any{
		"type": "refund_status",
		"data": refundPayload(refund),
	}
}

func (d Deps) refundStatus(ctx context.Context, turn *Turn, args json.RawMessage) map[string]any {
	var in struct {
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(args, &in); err != nil || in.OrderID == "" {
		return errorResult("Invalid input", "an order id is required")
	}

	refund, err := d.Orders.GetRefundByOrder(ctx, in.OrderID)
	if err != nil {
		return errorResult("Error fetching refund", err.Error())
	}
	if refund == nil {
		return errorResult("Refund not found", "No refund found for order: "+in.OrderID)
	}
	return map[string]any{
		"type": "refund_status",
		"data": refundPayload(refund),
	}
}

func orderPayload(order *domain.Order) map[string]any {
	items := make([]any, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, map[string]any{
			"name":     it.Name,
			"price":    it.Price,
			"quantity": it.Quantity,
		})
	}
	return map[string]any{
		"order_id":    order.OrderID,
		"items":       items,
		"total_price": order.TotalPrice,
		"timestamp":   order.CreatedAt.Format(time.RFC3339),
	}
}

func refundPayload(refund *domain.Refund) map[string]any {
	return map[string]any{
		"refund_id":      refund.RefundID,
		"order_id":       refund.OrderID,
		"status":         refund.Status,
		"amount":         refund.Amount,
		"reason":         refund.Reason,
		"estimated_days": refund.EstimatedDays,
		"timestamp":      refund.CreatedAt.Format(time.RFC3339),
	}
}
