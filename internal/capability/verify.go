package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/feastline/concierge/internal/workflow"
)

func verificationCapabilities(deps Deps) []Capability {
	return []Capability{
		{
			Name:        "verify_refund_image",
			Description: "Analyze the image attached to this conversation as evidence for a refund request. Cross-references the stated reason and order details and returns a verification score and recommendation.",
			InputSchema: objectSchema(map[string]any{
				"reason":        map[string]any{"type": "string", "description": "The stated reason for the refund request"},
				"order_details": map[string]any{"type": "object", "description": "Order details for cross-reference"},
			}, "reason"),
			Fn: deps.verifyRefundImage,
		},
		{
			Name:        "get_refund_verification_criteria",
			Description: "Get the evidence requirements and score thresholds used to verify a refund of a given reason type.",
			InputSchema: objectSchema(map[string]any{
				"reason_type": map[string]any{"type": "string", "description": "The refund reason type, e.g. damaged, missing_items, quality_issues"},
			}, "reason_type"),
			Fn: verificationCriteria,
		},
		{
			Name:        "analyze_document",
			Description: "Analyze a document attached to this conversation, such as a receipt or delivery note, and summarize its contents.",
			InputSchema: objectSchema(map[string]any{
				"instructions": map[string]any{"type": "string", "description": "What to look for in the document"},
			}),
			Fn: deps.analyzeDocument,
		},
	}
}

func (d Deps) verifyRefundImage(ctx context.Context, turn *Turn, args json.RawMessage) map[string]any {
	var in struct {
		Reason       string         `json:"reason"`
		OrderDetails map[string]any `json:"order_details"`
	}
	if err := json.Unmarshal(args, &in); err != nil || in.Reason == "" {
		return errorResult("Invalid input", "a refund reason is required")
	}
	if !turn.HasMedia() {
		return errorResult("No image data provided",
			"Image data is required for verification but was not provided")
	}

	summary := orderSummary(in.OrderDetails)
	category := workflow.CategorizeReason(in.Reason)

	result, err := d.Vision.VerifyImage(ctx, turn.Media, summary, in.Reason, category)
	if err != nil {
		return errorResult("Failed to process image verification", err.Error())
	}
	return map[string]any{
		"type": "image_verification_result",
		"data": result,
	}
}

func (d Deps) analyzeDocument(ctx context.Context, turn *Turn, args json.RawMessage) map[string]any {
	var in struct {
		Instructions string `json:"instructions"`
	}
	if len(args) > 0 {
		json.Unmarshal(args, &in)
	}
	if !turn.HasMedia() {
		return errorResult("No document provided",
			"A document attachment is required for analysis but was not provided")
	}

	result, err := d.Vision.AnalyzeDocument(ctx, turn.Media, in.Instructions)
	if err != nil {
		return errorResult("Failed to analyze document", err.Error())
	}
	return map[string]any{
		"type": "document_analysis_result",
		"data": result,
	}
}

// orderSummary renders order details into one line for the analysis prompt.
// Details may arrive in card form with the payload under "data".
func orderSummary(details map[string]any) string {
	if inner, ok := details["data"].(map[string]any); ok {
		details = inner
	}
	orderID, _ := details["order_id"].(string)
	if orderID == "" {
		orderID = "unknown"
	}
	var names []string
	if items, ok := details["items"].([]any); ok {
		for _, it := range items {
			if item, ok := it.(map[string]any); ok {
				if name, ok := item["name"].(string); ok {
					names = append(names, name)
				}
			}
		}
	}
	return fmt.Sprintf("Order #%s containing: %s", orderID, strings.Join(names, ", "))
}

var criteriaByReason = map[string]map[string]any{
	"damaged": {
		"required_evidence": []any{
			"Clear image of damaged packaging or food",
			"Visible damage must match description",
			"Food item must be identifiable as the ordered item",
		},
		"auto_approval_threshold": 80,
		"escalation_threshold":    50,
		"verification_tips":       "Look for obvious signs of crushing, spilling, or torn packaging",
	},
	"missing_items": {
		"required_evidence": []any{
			"Image showing all delivered items",
			"Must be able to count items and compare with order",
			"Package/container should be visible to verify completeness",
		},
		"auto_approval_threshold": 90,
		"escalation_threshold":    60,
		"verification_tips":       "Check that all ordered items are accounted for in the image",
	},
	"quality_issues": {
		"required_evidence": []any{
			"Clear close-up image of quality problem",
			"Visible indicators of spoilage, mold, or foreign objects",
			"Problem must be clearly attributable to the food, not storage",
		},
		"auto_approval_threshold": 85,
		"escalation_threshold":    55,
		"verification_tips":       "Look for discoloration, mold, or foreign materials",
	},
	"wrong_items": {
		"required_evidence": []any{
			"Image clearly showing received item packaging/labels",
			"Item must be visibly different from what was ordered",
			"Packaging should be visible to confirm item identity",
		},
		"auto_approval_threshold": 85,
		"escalation_threshold":    60,
		"verification_tips":       "Compare item labels and appearance with what was ordered",
	},
	"cold_food": {
		"required_evidence": []any{
			"Image showing food in delivered state",
			"Time stamp verification (delivery time vs. complaint time)",
			"Visual evidence supporting temperature claim (congealed fats, solidified sauce)",
		},
		"auto_approval_threshold": 60,
		"escalation_threshold":    40,
		"verification_tips":       "Temperature is hard to verify from images alone, look for visual cues",
	},
	"late_delivery": {
		"required_evidence": []any{
			"Timestamp verification only",
			"No image required",
			"System delivery time vs promised delivery window",
		},
		"auto_approval_threshold": 95,
		"escalation_threshold":    70,
		"verification_tips":       "Purely time-based verification from system logs",
	},
}

var defaultCriteria = map[string]any{
	"required_evidence": []any{
		"Clear image showing the issue",
		"Issue must be clearly visible and match description",
		"Ordered items must be identifiable in the image",
	},
	"auto_approval_threshold": 70,
	"escalation_threshold":    50,
	"verification_tips":       "Verify that the image clearly shows the reported problem",
}

func verificationCriteria(ctx context.Context, turn *Turn, args json.RawMessage) map[string]any {
	var in struct {
		ReasonType string `json:"reason_type"`
	}
	if err := json.Unmarshal(args, &in); err != nil || in.ReasonType == "" {
		return errorResult("Invalid input", "a reason type is required")
	}

	criteria, ok := criteriaByReason[strings.ToLower(in.ReasonType)]
	if !ok {
		criteria = defaultCriteria
	}
	return map[string]any{
		"reason_type": in.ReasonType,
		"criteria":    criteria,
	}
}
