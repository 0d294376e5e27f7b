// Package domain defines the core domain models for the concierge agent.
package domain

// EventKind identifies the type of an event streamed to the client.
type EventKind string

const (
	EventKindThinking       EventKind = "thinking"
	EventKindReasoningStep  EventKind = "reasoning_step"
	EventKindAgentAction    EventKind = "agent_action"
	EventKindToolStart      EventKind = "tool_start"
	EventKindToolEnd        EventKind = "tool_end"
	EventKindToolError      EventKind = "tool_error"
	EventKindStructuredData EventKind = "structured_data"
	EventKindMessage        EventKind = "message"
	EventKindError          EventKind = "error"
	EventKindDone           EventKind = "done"
)

// CardKind identifies the type of a structured UI card. The string values are
// part of the client rendering contract and must not change.
type CardKind string

const (
	CardKindRestaurant        CardKind = "restaurant"
	CardKindFoodItem          CardKind = "food_item"
	CardKindOrderDetails      CardKind = "order_details"
	CardKindRefundStatus      CardKind = "refund_status"
	CardKindImageVerification CardKind = "image_verification_result"
	CardKindWorkflowState     CardKind = "refund_workflow_state"
	CardKindDocumentAnalysis  CardKind = "document_analysis_result"
)

// WorkflowStage is the stage of a refund workflow. Stages only move forward.
type WorkflowStage string

const (
	StageCollection WorkflowStage = "collection"
	StageValidation WorkflowStage = "validation"
	StageDecision   WorkflowStage = "decision"
)

// ReasonCategory is the derived category of a refund reason.
type ReasonCategory string

const (
	ReasonMissingItems  ReasonCategory = "missing_items"
	ReasonDamaged       ReasonCategory = "damaged"
	ReasonColdFood      ReasonCategory = "cold_food"
	ReasonQualityIssues ReasonCategory = "quality_issues"
	ReasonWrongItems    ReasonCategory = "wrong_items"
	ReasonLateDelivery  ReasonCategory = "late_delivery"
	ReasonOther         ReasonCategory = "other"
)

// Recommendation is the final recommendation of a refund validation.
type Recommendation string

const (
	RecommendApprove      Recommendation = "approve"
	RecommendReject       Recommendation = "reject"
	RecommendManualReview Recommendation = "manual_review"
)

// Refund status labels surfaced to the client.
const (
	RefundApproved   = "Approved"
	RefundRejected   = "Rejected"
	RefundProcessing = "Processing"
)

// Capability names. The card extractor branches on the workflow group and the
// document analyzer by name, so these constants are shared across packages.
const (
	CapSearchRestaurants     = "search_restaurants"
	CapSearchFoodItems       = "search_food_items"
	CapGetRestaurantMenu     = "get_restaurant_menu"
	CapGetOrderDetails       = "get_order_details"
	CapInitiateRefund        = "initiate_refund"
	CapGetRefundStatus       = "get_refund_status"
	CapVerifyRefundImage     = "verify_refund_image"
	CapCreateRefundWorkflow  = "create_refund_workflow"
	CapUpdateRefundWorkflow  = "update_refund_workflow"
	CapGetRefundWorkflow     = "get_refund_workflow_state"
	CapProcessRefundDecision = "process_refund_decision"
	CapVerificationCriteria  = "get_refund_verification_criteria"
	CapAnalyzeDocument       = "analyze_document"
)

// IsWorkflowCapability reports whether name belongs to the refund-workflow
// management group.
func IsWorkflowCapability(name string) bool {
	switch name {
	case CapCreateRefundWorkflow, CapUpdateRefundWorkflow, CapGetRefundWorkflow, CapProcessRefundDecision:
		return true
	}
	return false
}
