// Package cards turns loosely-typed capability outputs into typed UI cards.
//
// Classification is an ordered decision list over the shape of the output:
// the first matching rule wins, so an output satisfying several rules never
// produces duplicate or conflicting cards. The rule order and the emitted
// card kinds are part of the client rendering contract.
package cards

import (
	"log"

	"github.com/feastline/concierge/internal/domain"
)

const (
	maxFeaturedItems   = 5
	maxResultEntries   = 10
	maxItemsPerCategory = 3
	maxMenuItems       = 10
)

// Extract maps a raw capability output to zero or more structured cards.
// capabilityName is the name of the capability that produced the output; it
// only matters for the workflow and document-analysis rules. Extract is pure
// and never panics outward; any internal failure yields an empty list.
func Extract(output map[string]any, capabilityName string) (cards []domain.StructuredCard) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: card extraction panicked: %v", r)
			cards = nil
		}
	}()

	if output == nil {
		return nil
	}

	// Rule 1: already tagged with kind+payload, pass through unchanged.
	if kind, payload, ok := taggedCard(output); ok {
		return []domain.StructuredCard{{Kind: kind, Payload: payload}}
	}

	// Rule 2: menu-style output carrying a restaurant_info sub-object.
	if info, ok := asMap(output["restaurant_info"]); ok {
		cards = append(cards, domain.StructuredCard{Kind: domain.CardKindRestaurant, Payload: info})
		restName, _ := output["restaurant_name"].(string)
		restID, _ := output["restaurant_id"].(string)
		for i, entry := range asList(output["featured_items"]) {
			if i >= maxFeaturedItems {
				break
			}
			item, ok := asMap(entry)
			if !ok {
				continue
			}
			cards = append(cards, foodItemCard(item, restName, restID, ""))
		}
		return cards
	}

	// Rule 3: generic results list; classify each entry independently.
	if results, ok := output["results"].([]any); ok {
		for i, entry := range results {
			if i >= maxResultEntries {
				break
			}
			item, ok := asMap(entry)
			if !ok {
				continue
			}
			if kind, payload, ok := taggedCard(item); ok {
				cards = append(cards, domain.StructuredCard{Kind: kind, Payload: payload})
				continue
			}
			if hasAny(item, "price", "description") {
				cards = append(cards, domain.StructuredCard{Kind: domain.CardKindFoodItem, Payload: item})
			} else if hasAny(item, "rating", "cuisines") {
				cards = append(cards, domain.StructuredCard{Kind: domain.CardKindRestaurant, Payload: item})
			}
		}
		return cards
	}

	// Rule 4: bare menu listing; summarize the restaurant then walk
	// categories in order, capped per category and overall.
	if menu, ok := output["menu"].([]any); ok {
		restName := stringOr(output["restaurant_name"], "Restaurant")
		restID := stringOr(output["restaurant_id"], "unknown")
		cards = append(cards, domain.StructuredCard{Kind: domain.CardKindRestaurant, Payload: map[string]any{
			"name":     restName,
			"id":       restID,
			"cuisines": output["cuisines"],
			"rating":   output["rating"],
		}})
		total := 0
		for _, c := range menu {
			category, ok := asMap(c)
			if !ok {
				continue
			}
			categoryName, _ := category["category"].(string)
			for i, entry := range asList(category["items"]) {
				if i >= maxItemsPerCategory || total >= maxMenuItems {
					break
				}
				item, ok := asMap(entry)
				if !ok {
					continue
				}
				cards = append(cards, foodItemCard(item, restName, restID, categoryName))
				total++
			}
			if total >= maxMenuItems {
				break
			}
		}
		return cards
	}

	// Rule 5: order data without an explicit tag.
	if (has(output, "order_id") && has(output, "items")) || (has(output, "status") && has(output, "order_id")) {
		return []domain.StructuredCard{{Kind: domain.CardKindOrderDetails, Payload: output}}
	}

	// Rule 6: refund status.
	if has(output, "refund_status") || (has(output, "refund") && has(output, "status")) {
		return []domain.StructuredCard{{Kind: domain.CardKindRefundStatus, Payload: output}}
	}

	// Rule 7: image verification.
	if hasAny(output, "verification_score", "verification_status") {
		return []domain.StructuredCard{{Kind: domain.CardKindImageVerification, Payload: output}}
	}

	// Rule 8: refund workflow management output.
	if domain.IsWorkflowCapability(capabilityName) {
		if (has(output, "status") && has(output, "workflow_id")) || has(output, "current_stage") {
			return []domain.StructuredCard{{Kind: domain.CardKindWorkflowState, Payload: output}}
		}
	}

	// Rule 9: document analysis.
	if capabilityName == domain.CapAnalyzeDocument || has(output, "document_type") ||
		output["type"] == string(domain.CardKindDocumentAnalysis) {
		return []domain.StructuredCard{{Kind: domain.CardKindDocumentAnalysis, Payload: output}}
	}

	return nil
}

// taggedCard recognizes the explicit {type, data} pair capabilities emit for
// pre-formatted cards.
func taggedCard(m map[string]any) (domain.CardKind, map[string]any, bool) {
	kind, _ := m["type"].(string)
	if kind == "" {
		return "", nil, false
	}
	payload, ok := asMap(m["data"])
	if !ok || payload == nil {
		return "", nil, false
	}
	return domain.CardKind(kind), payload, true
}

func foodItemCard(item map[string]any, restName, restID, category string) domain.StructuredCard {
	payload := make(map[string]any, len(item)+3)
	for k, v := range item {
		payload[k] = v
	}
	if restName != "" {
		payload["restaurant_name"] = restName
	}
	if restID != "" {
		payload["restaurant_id"] = restID
	}
	if category != "" {
		payload["category"] = category
	}
	return domain.StructuredCard{Kind: domain.CardKindFoodItem, Payload: payload}
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asList(v any) []any {
	l, _ := v.([]any)
	return l
}

func has(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func hasAny(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if has(m, k) {
			return true
		}
	}
	return false
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}
