package capability

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/feastline/concierge/internal/domain"
	"github.com/feastline/concierge/internal/workflow"
)

func workflowCapabilities(deps Deps) []Capability {
	return []Capability{
		{
			Name:        "create_refund_workflow",
			Description: "Start a multi-step refund workflow for this conversation, tracking the order, reason, and evidence as they are collected.",
			InputSchema: objectSchema(map[string]any{
				"order_id": map[string]any{"type": "string", "description": "The order the refund is for"},
			}, "order_id"),
			Fn: deps.createWorkflow,
		},
		{
			Name:        "update_refund_workflow",
			Description: "Record one piece of refund information as it becomes available: order_id, reason, reason_category, has_image, image_verification_result, validation_score, issues_detected, recommendation, decision_notes, or stage.",
			InputSchema: objectSchema(map[string]any{
				"field": map[string]any{"type": "string", "description": "The workflow field to update"},
				"value": map[string]any{"description": "The new value for the field"},
			}, "field", "value"),
			Fn: deps.updateWorkflow,
		},
		{
			Name:        "get_refund_workflow_state",
			Description: "Get the current refund workflow state for this conversation, including what information is still needed.",
			InputSchema: objectSchema(map[string]any{}),
			Fn:          deps.workflowState,
		},
		{
			Name:        "process_refund_decision",
			Description: "Finalize the refund workflow with a validation score, recommendation, and decision notes. Returns the validation details to pass to initiate_refund.",
			InputSchema: objectSchema(map[string]any{
				"validation_score": map[string]any{"type": "integer", "description": "Final validation score (0-100)"},
				"recommendation":   map[string]any{"type": "string", "description": "approve, reject, or manual_review"},
				"decision_notes":   map[string]any{"type": "string", "description": "Notes explaining the decision"},
			}, "validation_score", "recommendation", "decision_notes"),
			Fn: deps.processDecision,
		},
	}
}

func (d Deps) createWorkflow(ctx context.Context, turn *Turn, args json.RawMessage) map[string]any {
	var in struct {
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(args, &in); err != nil || in.OrderID == "" {
		return errorResult("Invalid input", "an order id is required")
	}

	snap, err := d.Workflows.Create(turn.ConversationID, in.OrderID)
	if err != nil {
		return errorResult("Workflow error", err.Error())
	}
	log.Printf("INFO: created refund workflow for conversation %s, order %s", turn.ConversationID, in.OrderID)
	return map[string]any{
		"status":        "created",
		"workflow_id":   snap.WorkflowID,
		"order_id":      in.OrderID,
		"current_stage": string(snap.Stage),
		"next_required": snap.NextRequired,
	}
}

func (d Deps) updateWorkflow(ctx context.Context, turn *Turn, args json.RawMessage) map[string]any {
	var in struct {
		Field string          `json:"field"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(args, &in); err != nil || in.Field == "" {
		return errorResult("Invalid input", "a field name and value are required")
	}
	var value any
	if err := json.Unmarshal(in.Value, &value); err != nil {
		return errorResult("Invalid input", "the field value is not valid JSON")
	}

	snap, err := d.Workflows.Update(turn.ConversationID, in.Field, value)
	switch {
	case errors.Is(err, workflow.ErrWorkflowNotFound):
		return workflowNotFound(turn.ConversationID)
	case errors.Is(err, workflow.ErrInvalidField):
		return errorResult("Invalid field", "Field '"+in.Field+"' is not a valid workflow field")
	case err != nil:
		return errorResult("Workflow error", err.Error())
	}
	return map[string]any{
		"status":        "updated",
		"field":         in.Field,
		"workflow_id":   snap.WorkflowID,
		"current_stage": string(snap.Stage),
		"next_required": snap.NextRequired,
		"workflow":      stateMap(snap.State),
	}
}

func (d Deps) workflowState(ctx context.Context, turn *Turn, args json.RawMessage) map[string]any {
	snap, err := d.Workflows.Get(turn.ConversationID)
	if errors.Is(err, workflow.ErrWorkflowNotFound) {
		return workflowNotFound(turn.ConversationID)
	}
	if err != nil {
		return errorResult("Workflow error", err.Error())
	}
	return map[string]any{
		"workflow_id":   snap.WorkflowID,
		"current_state": stateMap(snap.State),
		"current_stage": string(snap.Stage),
		"next_required": snap.NextRequired,
		"is_complete":   snap.IsComplete,
	}
}

func (d Deps) processDecision(ctx context.Context, turn *Turn, args json.RawMessage) map[string]any {
	var in struct {
		ValidationScore int    `json:"validation_score"`
		Recommendation  string `json:"recommendation"`
		DecisionNotes   string `json:"decision_notes"`
	}
	if err := json.Unmarshal(args, &in); err != nil || in.Recommendation == "" {
		return errorResult("Invalid input", "a validation score and recommendation are required")
	}

	decision, err := d.Workflows.Decide(turn.ConversationID, in.ValidationScore,
		domain.Recommendation(in.Recommendation), in.DecisionNotes)
	if errors.Is(err, workflow.ErrWorkflowNotFound) {
		return workflowNotFound(turn.ConversationID)
	}
	if err != nil {
		return errorResult("Workflow error", err.Error())
	}
	return map[string]any{
		"order_id":              decision.OrderID,
		"validation_details":    decision.ValidationDetails,
		"refund_status":         decision.RefundStatus,
		"recommendation":        string(decision.Recommendation),
		"validation_score":      decision.ValidationScore,
		"ready_for_refund_tool": decision.ReadyForRefundTool,
	}
}

// stateMap renders the typed workflow state as the loose map shape the card
// extractor and the model consume.
func stateMap(state domain.RefundWorkflowState) map[string]any {
	raw, err := json.Marshal(state)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{}
	}
	return m
}
