package domain

// RefundWorkflowState tracks a multi-turn refund conversation. One state
// exists per conversation id; the stage progresses collection -> validation
// -> decision and never moves backward.
type RefundWorkflowState struct {
	OrderID            string         `json:"order_id"`
	Stage              WorkflowStage  `json:"stage"`
	Reason             string         `json:"reason,omitempty"`
	ReasonCategory     ReasonCategory `json:"reason_category,omitempty"`
	HasImage           bool           `json:"has_image"`
	VerificationResult map[string]any `json:"image_verification_result,omitempty"`
	ValidationScore    int            `json:"validation_score"`
	Recommendation     Recommendation `json:"recommendation,omitempty"`
	DecisionNotes      string         `json:"decision_notes,omitempty"`
	IssuesDetected     []string       `json:"issues_detected"`
}

// Complete reports whether the workflow reached a terminal decision.
func (s *RefundWorkflowState) Complete() bool {
	return s.Stage == StageDecision && s.Recommendation != ""
}

// WorkflowSnapshot is a read view of a workflow with the derived next
// required input. NextRequired is recomputed on every read, never stored.
type WorkflowSnapshot struct {
	WorkflowID   string              `json:"workflow_id"`
	State        RefundWorkflowState `json:"current_state"`
	Stage        WorkflowStage       `json:"current_stage"`
	NextRequired string              `json:"next_required,omitempty"`
	IsComplete   bool                `json:"is_complete"`
}

// RefundDecision is the outcome of processing a refund decision. Its
// ValidationDetails string is the payload later handed to refund initiation.
type RefundDecision struct {
	OrderID            string         `json:"order_id"`
	ValidationDetails  string         `json:"validation_details"`
	RefundStatus       string         `json:"refund_status"`
	Recommendation     Recommendation `json:"recommendation"`
	ValidationScore    int            `json:"validation_score"`
	ReadyForRefundTool bool           `json:"ready_for_refund_tool"`
}
