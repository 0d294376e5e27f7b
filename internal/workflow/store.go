// Package workflow keeps per-conversation refund workflow state: an ordered
// collection -> validation -> decision progression with automatic reason
// categorization and derived next-step hints.
package workflow

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/feastline/concierge/internal/domain"
)

var (
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrInvalidField     = errors.New("invalid workflow field")
	ErrInvalidID        = errors.New("conversation id required")
)

// Store holds one workflow per conversation id, in memory. All methods are
// safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	workflows map[string]*domain.RefundWorkflowState
}

func NewStore() *Store {
	return &Store{workflows: make(map[string]*domain.RefundWorkflowState)}
}

// Create initializes a fresh workflow for the conversation. Creating over an
// existing workflow resets it.
func (s *Store) Create(conversationID, orderID string) (domain.WorkflowSnapshot, error) {
	if conversationID == "" {
		return domain.WorkflowSnapshot{}, ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state := &domain.RefundWorkflowState{
		OrderID:        orderID,
		Stage:          domain.StageCollection,
		IssuesDetected: []string{},
	}
	s.workflows[conversationID] = state
	return snapshot(conversationID, state), nil
}

// Update sets one field of the workflow. Setting reason also derives its
// category; setting has_image to true advances collection to validation once
// order id and reason are both present. The stage never moves backward.
func (s *Store) Update(conversationID, field string, value any) (domain.WorkflowSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.workflows[conversationID]
	if !ok {
		return domain.WorkflowSnapshot{}, fmt.Errorf("%w: %s", ErrWorkflowNotFound, conversationID)
	}

	switch field {
	case "order_id":
		state.OrderID, ok = value.(string)
	case "reason":
		var reason string
		reason, ok = value.(string)
		if ok {
			state.Reason = reason
			state.ReasonCategory = CategorizeReason(reason)
		}
	case "has_image":
		var hasImage bool
		hasImage, ok = value.(bool)
		if ok {
			state.HasImage = hasImage
			if hasImage && state.Stage == domain.StageCollection && state.OrderID != "" && state.Reason != "" {
				state.Stage = domain.StageValidation
			}
		}
	case "image_verification_result":
		var result map[string]any
		result, ok = value.(map[string]any)
		if ok {
			state.VerificationResult = result
		}
	case "validation_score":
		switch v := value.(type) {
		case int:
			state.ValidationScore = v
		case float64:
			state.ValidationScore = int(v)
		default:
			ok = false
		}
	case "reason_category":
		var category string
		category, ok = value.(string)
		if ok {
			state.ReasonCategory = domain.ReasonCategory(category)
		}
	case "recommendation":
		var rec string
		rec, ok = value.(string)
		if ok {
			state.Recommendation = domain.Recommendation(rec)
		}
	case "decision_notes":
		var notes string
		notes, ok = value.(string)
		if ok {
			state.DecisionNotes = notes
		}
	case "stage":
		var stage string
		stage, ok = value.(string)
		if ok {
			next := domain.WorkflowStage(stage)
			ok = stageRank(next) >= 0
			if ok && stageRank(next) > stageRank(state.Stage) {
				state.Stage = next
			}
		}
	case "issues_detected":
		switch v := value.(type) {
		case []string:
			state.IssuesDetected = v
		case []any:
			issues := make([]string, 0, len(v))
			for _, item := range v {
				if s, isStr := item.(string); isStr {
					issues = append(issues, s)
				}
			}
			state.IssuesDetected = issues
		default:
			ok = false
		}
	default:
		return domain.WorkflowSnapshot{}, fmt.Errorf("%w: %s", ErrInvalidField, field)
	}
	if !ok {
		return domain.WorkflowSnapshot{}, fmt.Errorf("%w: bad value for %s", ErrInvalidField, field)
	}
	return snapshot(conversationID, state), nil
}

// Get returns the current workflow snapshot with NextRequired derived from
// the present state.
func (s *Store) Get(conversationID string) (domain.WorkflowSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.workflows[conversationID]
	if !ok {
		return domain.WorkflowSnapshot{}, fmt.Errorf("%w: %s", ErrWorkflowNotFound, conversationID)
	}
	return snapshot(conversationID, state), nil
}

// Decide finalizes the workflow and maps score and recommendation to a
// refund status. The returned decision carries everything refund initiation
// needs.
func (s *Store) Decide(conversationID string, score int, rec domain.Recommendation, notes string) (domain.RefundDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.workflows[conversationID]
	if !ok {
		return domain.RefundDecision{}, fmt.Errorf("%w: %s", ErrWorkflowNotFound, conversationID)
	}

	state.Stage = domain.StageDecision
	state.ValidationScore = score
	state.Recommendation = rec
	state.DecisionNotes = notes

	status := domain.RefundProcessing
	if rec == domain.RecommendApprove && score >= 70 {
		status = domain.RefundApproved
	} else if rec == domain.RecommendReject {
		status = domain.RefundRejected
	}

	var details strings.Builder
	fmt.Fprintf(&details, "Decision: %s\n", strings.ToUpper(string(rec)))
	fmt.Fprintf(&details, "Confidence Score: %d/100\n", score)
	fmt.Fprintf(&details, "Evidence Assessment: %s\n", notes)
	if result := unwrapCard(state.VerificationResult); result != nil {
		fmt.Fprintf(&details, "Image Verification: %s\n", stringField(result, "verification_status", "Unknown"))
		fmt.Fprintf(&details, "Detected Issues: %s\n", joinIssues(result["detected_issues"]))
		fmt.Fprintf(&details, "Verification Notes: %s", stringField(result, "verification_notes", "N/A"))
	}

	return domain.RefundDecision{
		OrderID:            state.OrderID,
		ValidationDetails:  details.String(),
		RefundStatus:       status,
		Recommendation:     rec,
		ValidationScore:    score,
		ReadyForRefundTool: true,
	}, nil
}

// CategorizeReason derives a category from the free-text refund reason.
// Earlier checks take priority when the text matches several.
func CategorizeReason(reason string) domain.ReasonCategory {
	r := strings.ToLower(reason)
	switch {
	case strings.Contains(r, "missing") || strings.Contains(r, "incomplete"):
		return domain.ReasonMissingItems
	case strings.Contains(r, "damaged") || strings.Contains(r, "spill"):
		return domain.ReasonDamaged
	case strings.Contains(r, "cold") || strings.Contains(r, "temperature"):
		return domain.ReasonColdFood
	case strings.Contains(r, "quality") || strings.Contains(r, "stale") || strings.Contains(r, "spoil"):
		return domain.ReasonQualityIssues
	case strings.Contains(r, "wrong"):
		return domain.ReasonWrongItems
	case strings.Contains(r, "late"):
		return domain.ReasonLateDelivery
	default:
		return domain.ReasonOther
	}
}

// stageRank orders the stages so updates can refuse backward moves. Unknown
// stages rank below every real one.
func stageRank(stage domain.WorkflowStage) int {
	switch stage {
	case domain.StageCollection:
		return 0
	case domain.StageValidation:
		return 1
	case domain.StageDecision:
		return 2
	}
	return -1
}

func snapshot(id string, state *domain.RefundWorkflowState) domain.WorkflowSnapshot {
	return domain.WorkflowSnapshot{
		WorkflowID:   id,
		State:        *state,
		Stage:        state.Stage,
		NextRequired: nextRequired(state),
		IsComplete:   state.Complete(),
	}
}

func nextRequired(state *domain.RefundWorkflowState) string {
	switch state.Stage {
	case domain.StageCollection:
		switch {
		case state.OrderID == "":
			return "order_id"
		case state.Reason == "":
			return "reason"
		case !state.HasImage && state.ReasonCategory != domain.ReasonLateDelivery:
			return "image"
		default:
			return "proceed_to_validation"
		}
	case domain.StageValidation:
		if state.VerificationResult == nil {
			return "verify_image"
		}
		return "make_decision"
	}
	return ""
}

// unwrapCard tolerates verification results stored in card form, where the
// useful fields sit under a "data" key.
func unwrapCard(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	if inner, ok := m["data"].(map[string]any); ok {
		return inner
	}
	return m
}

func stringField(m map[string]any, key, fallback string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func joinIssues(v any) string {
	var issues []string
	switch list := v.(type) {
	case []string:
		issues = list
	case []any:
		for _, item := range list {
			if s, ok := item.(string); ok {
				issues = append(issues, s)
			}
		}
	}
	if len(issues) == 0 {
		return "None"
	}
	return strings.Join(issues, ", ")
}
