package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Engine screens refund requests with an OPA policy. The policy maps the
// stated reason and evidence assessment to a refund status.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine prepares the policy for evaluation.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.refund_screen.status"),
		rego.Module("refund_screen.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Screen evaluates the policy for a refund request and returns the resulting
// status: Approved, Rejected, or Processing.
func (e *Engine) Screen(ctx context.Context, reason, validationDetails string) (string, error) {
	input := map[string]any{
		"reason":             reason,
		"validation_details": validationDetails,
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return "Approved", nil
	}
	status, ok := results[0].Expressions[0].Value.(string)
	if !ok {
		return "", fmt.Errorf("policy returned non-string status: %v", results[0].Expressions[0].Value)
	}
	return status, nil
}

// DefaultPolicy screens refunds on evidence-quality keywords: rejection
// phrases reject outright, review phrases put the refund in processing, and
// the review phrases win when both appear.
const DefaultPolicy = `
package refund_screen

default status = "Approved"

rejection_keywords = [
	"insufficient evidence",
	"no image",
	"cannot verify",
	"unclear image",
	"blurry",
	"fake",
	"fraudulent",
]

pending_keywords = [
	"needs review",
	"partially visible",
	"unclear if",
]

text = lower(sprintf("%s %s", [input.reason, input.validation_details]))

rejected {
	kw := rejection_keywords[_]
	contains(text, kw)
}

pending {
	kw := pending_keywords[_]
	contains(text, kw)
}

status = "Rejected" {
	rejected
	not pending
}

status = "Processing" {
	pending
}
`
