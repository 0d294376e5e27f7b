package capability

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/feastline/concierge/internal/domain"
	"github.com/feastline/concierge/internal/workflow"
)

type fakeFood struct {
	searchResponse map[string]any
	menuResponse   map[string]any
}

func (f *fakeFood) Restaurants(ctx context.Context, lat, lng float64) (map[string]any, error) {
	return f.searchResponse, nil
}

func (f *fakeFood) Search(ctx context.Context, query string, lat, lng float64) (map[string]any, error) {
	return f.searchResponse, nil
}

func (f *fakeFood) Menu(ctx context.Context, restaurantID string, lat, lng float64) (map[string]any, error) {
	return f.menuResponse, nil
}

type fakeOrders struct {
	orders  map[string]*domain.Order
	refunds []*domain.Refund
}

func (f *fakeOrders) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return f.orders[orderID], nil
}

func (f *fakeOrders) CreateRefund(ctx context.Context, refund *domain.Refund) error {
	f.refunds = append(f.refunds, refund)
	return nil
}

func (f *fakeOrders) GetRefundByOrder(ctx context.Context, orderID string) (*domain.Refund, error) {
	for i := len(f.refunds) - 1; i >= 0; i-- {
		if f.refunds[i].OrderID == orderID {
			return f.refunds[i], nil
		}
	}
	return nil, nil
}

type fakeScreen struct{ status string }

func (f *fakeScreen) Screen(ctx context.Context, reason, details string) (string, error) {
	return f.status, nil
}

type fakeVision struct {
	verifyResult map[string]any
}

func (f *fakeVision) VerifyImage(ctx context.Context, media *domain.Media, orderSummary, reason string, category domain.ReasonCategory) (map[string]any, error) {
	return f.verifyResult, nil
}

func (f *fakeVision) AnalyzeDocument(ctx context.Context, media *domain.Media, instructions string) (map[string]any, error) {
	return map[string]any{"document_type": "receipt", "summary": "a receipt"}, nil
}

func searchResponse(names ...string) map[string]any {
	restaurants := make([]any, 0, len(names))
	for i, name := range names {
		restaurants = append(restaurants, map[string]any{
			"info": map[string]any{
				"id":        string(rune('a' + i)),
				"name":      name,
				"avgRating": 4.0,
			},
		})
	}
	return map[string]any{"data": map[string]any{"restaurants": restaurants}}
}

func menuResponse() map[string]any {
	return map[string]any{
		"data": map[string]any{
			"cards": []any{
				map[string]any{"card": map[string]any{
					"@type": "type.googleapis.com/swiggy.presentation.food.v2.Restaurant",
					"info":  map[string]any{"name": "Pizza Palace", "avgRating": 4.2},
				}},
				map[string]any{"groupedCard": map[string]any{
					"cardGroupMap": map[string]any{
						"REGULAR": map[string]any{
							"cards": []any{
								map[string]any{"card": map[string]any{"card": map[string]any{
									"@type": "type.googleapis.com/swiggy.presentation.food.v2.ItemCategory",
									"title": "Pizzas",
									"itemCards": []any{
										map[string]any{"card": map[string]any{"info": map[string]any{
											"name": "Margherita Pizza", "price": 25000.0, "imageId": "img1",
										}}},
										map[string]any{"card": map[string]any{"info": map[string]any{
											"name": "Pepperoni Pizza", "price": 32000.0,
										}}},
									},
								}}},
							},
						},
					},
				}},
			},
		},
	}
}

func testDeps() Deps {
	return Deps{
		Food:             &fakeFood{searchResponse: searchResponse("Pizza Palace"), menuResponse: menuResponse()},
		Orders:           &fakeOrders{orders: map[string]*domain.Order{}},
		Workflows:        workflow.NewStore(),
		Screen:           &fakeScreen{status: domain.RefundApproved},
		Vision:           &fakeVision{verifyResult: map[string]any{"verification_score": 85}},
		DefaultLatitude:  12.9716,
		DefaultLongitude: 77.5946,
	}
}

func run(t *testing.T, r *Registry, turn *Turn, name, args string) map[string]any {
	t.Helper()
	out, err := r.Execute(context.Background(), turn, name, json.RawMessage(args))
	if err != nil {
		t.Fatalf("execute %s failed: %v", name, err)
	}
	return out
}

func newTestRegistry(t *testing.T, deps Deps) *Registry {
	t.Helper()
	r := NewRegistry()
	if err := RegisterAll(r, deps); err != nil {
		t.Fatalf("failed to register capabilities: %v", err)
	}
	return r
}

func TestRegistryRejectsDuplicatesAndUnknown(t *testing.T) {
	r := newTestRegistry(t, testDeps())
	if err := r.Register(Capability{Name: "search_restaurants", Fn: func(context.Context, *Turn, json.RawMessage) map[string]any { return nil }}); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if _, err := r.Execute(context.Background(), &Turn{}, "nope", nil); err == nil {
		t.Fatal("expected unknown capability to fail")
	}
	if len(r.Definitions()) != 13 {
		t.Fatalf("expected 13 capabilities, got %d", len(r.Definitions()))
	}
}

func TestSearchRestaurants(t *testing.T) {
	r := newTestRegistry(t, testDeps())
	out := run(t, r, &Turn{}, "search_restaurants", `{"query":"pizza"}`)
	results, ok := out["results"].([]any)
	if !ok || len(results) != 1 {
		t.Fatalf("unexpected results: %v", out)
	}
	first := results[0].(map[string]any)
	if first["name"] != "Pizza Palace" {
		t.Fatalf("unexpected restaurant: %v", first)
	}
	if out["result_type"] != "restaurants" {
		t.Fatalf("unexpected result type: %v", out["result_type"])
	}
}

func TestSearchRestaurantsNoResults(t *testing.T) {
	deps := testDeps()
	deps.Food = &fakeFood{searchResponse: map[string]any{"data": map[string]any{}}}
	r := newTestRegistry(t, deps)
	out := run(t, r, &Turn{}, "search_restaurants", `{"query":"pizza"}`)
	if out["error"] == nil {
		t.Fatalf("expected error result, got %v", out)
	}
}

func TestSearchFoodItems(t *testing.T) {
	r := newTestRegistry(t, testDeps())
	out := run(t, r, &Turn{}, "search_food_items", `{"query":"pizza"}`)
	results, _ := out["results"].([]any)
	if len(results) != 2 {
		t.Fatalf("expected 2 matching dishes, got %v", out)
	}
	item := results[0].(map[string]any)
	if item["restaurant_name"] != "Pizza Palace" || item["category"] != "Pizzas" {
		t.Fatalf("dish missing restaurant context: %v", item)
	}
	if url, _ := item["image_url"].(string); !strings.HasPrefix(url, "https://") {
		t.Fatalf("image id not resolved to URL: %v", item["image_url"])
	}
}

func TestRestaurantMenu(t *testing.T) {
	r := newTestRegistry(t, testDeps())
	out := run(t, r, &Turn{}, "get_restaurant_menu", `{"restaurant_name":"Pizza Palace"}`)

	if out["restaurant_name"] != "Pizza Palace" || out["result_type"] != "menu" {
		t.Fatalf("unexpected output: %v", out)
	}
	if _, ok := out["restaurant_info"].(map[string]any); !ok {
		t.Fatalf("missing restaurant_info: %v", out)
	}
	featured, _ := out["featured_items"].([]any)
	if len(featured) != 2 {
		t.Fatalf("expected 2 featured items, got %d", len(featured))
	}
	results, _ := out["results"].([]any)
	if len(results) != 2 {
		t.Fatalf("expected flat results, got %d", len(results))
	}
	item := results[0].(map[string]any)
	if item["price"] != 250.0 {
		t.Fatalf("price not in major units: %v", item["price"])
	}
}

func TestOrderDetails(t *testing.T) {
	deps := testDeps()
	deps.Orders.(*fakeOrders).orders["FD1"] = &domain.Order{
		OrderID:    "FD1",
		Items:      []domain.OrderItem{{Name: "Dosa", Price: 120, Quantity: 1}},
		TotalPrice: 120,
		CreatedAt:  time.Now(),
	}
	r := newTestRegistry(t, deps)

	out := run(t, r, &Turn{}, "get_order_details", `{"order_id":"FD1"}`)
	if out["type"] != "order_details" {
		t.Fatalf("expected tagged order card, got %v", out)
	}
	data := out["data"].(map[string]any)
	if data["order_id"] != "FD1" || data["total_price"] != 120.0 {
		t.Fatalf("unexpected order payload: %v", data)
	}

	out = run(t, r, &Turn{}, "get_order_details", `{"order_id":"nope"}`)
	if out["error"] != "Order not found" {
		t.Fatalf("expected not-found error, got %v", out)
	}
}

func TestInitiateRefund(t *testing.T) {
	deps := testDeps()
	orders := deps.Orders.(*fakeOrders)
	orders.orders["FD1"] = &domain.Order{OrderID: "FD1", TotalPrice: 340, CreatedAt: time.Now()}
	deps.Screen = &fakeScreen{status: domain.RefundProcessing}
	r := newTestRegistry(t, deps)

	out := run(t, r, &Turn{}, "initiate_refund",
		`{"order_id":"FD1","reason":"cold food","validation_details":"needs review"}`)
	if out["type"] != "refund_status" {
		t.Fatalf("expected tagged refund card, got %v", out)
	}
	data := out["data"].(map[string]any)
	if data["status"] != domain.RefundProcessing || data["estimated_days"] != 2 {
		t.Fatalf("unexpected refund payload: %v", data)
	}
	if id, _ := data["refund_id"].(string); !strings.HasPrefix(id, "RF") {
		t.Fatalf("unexpected refund id: %v", data["refund_id"])
	}
	if amount := data["amount"]; amount != 340.0 {
		t.Fatalf("refund amount should match order total: %v", amount)
	}
	if len(orders.refunds) != 1 {
		t.Fatalf("refund not persisted")
	}
	if !strings.Contains(orders.refunds[0].Reason, "Evidence assessment: needs review") {
		t.Fatalf("validation details not folded into reason: %q", orders.refunds[0].Reason)
	}

	// Status is now queryable.
	out = run(t, r, &Turn{}, "get_refund_status", `{"order_id":"FD1"}`)
	if out["type"] != "refund_status" {
		t.Fatalf("expected refund status card, got %v", out)
	}
}

func TestRefundStatusNotFound(t *testing.T) {
	r := newTestRegistry(t, testDeps())
	out := run(t, r, &Turn{}, "get_refund_status", `{"order_id":"FD9"}`)
	if out["error"] != "Refund not found" {
		t.Fatalf("expected not-found error, got %v", out)
	}
}

func TestVerifyRefundImageRequiresMedia(t *testing.T) {
	r := newTestRegistry(t, testDeps())
	out := run(t, r, &Turn{}, "verify_refund_image", `{"reason":"damaged"}`)
	if out["error"] != "No image data provided" {
		t.Fatalf("expected missing-image error, got %v", out)
	}

	turn := &Turn{Media: &domain.Media{Type: "image/jpeg", Data: "aGVsbG8="}}
	out = run(t, r, turn, "verify_refund_image", `{"reason":"damaged packaging"}`)
	if out["type"] != "image_verification_result" {
		t.Fatalf("expected verification card, got %v", out)
	}
}

func TestVerificationCriteria(t *testing.T) {
	r := newTestRegistry(t, testDeps())
	out := run(t, r, &Turn{}, "get_refund_verification_criteria", `{"reason_type":"damaged"}`)
	criteria := out["criteria"].(map[string]any)
	if criteria["auto_approval_threshold"] != 80 {
		t.Fatalf("unexpected criteria: %v", criteria)
	}

	out = run(t, r, &Turn{}, "get_refund_verification_criteria", `{"reason_type":"mystery"}`)
	criteria = out["criteria"].(map[string]any)
	if criteria["auto_approval_threshold"] != 70 {
		t.Fatalf("expected default criteria, got %v", criteria)
	}
}

func TestAnalyzeDocument(t *testing.T) {
	r := newTestRegistry(t, testDeps())
	turn := &Turn{Media: &domain.Media{Type: "application/pdf", Data: "aGVsbG8="}}
	out := run(t, r, turn, "analyze_document", `{"instructions":"total amount"}`)
	if out["type"] != "document_analysis_result" {
		t.Fatalf("expected document card, got %v", out)
	}
}

func TestWorkflowCapabilities(t *testing.T) {
	r := newTestRegistry(t, testDeps())
	turn := &Turn{ConversationID: "conv1"}

	out := run(t, r, turn, "create_refund_workflow", `{"order_id":"FD1"}`)
	if out["status"] != "created" || out["workflow_id"] != "conv1" {
		t.Fatalf("unexpected create output: %v", out)
	}

	out = run(t, r, turn, "update_refund_workflow", `{"field":"reason","value":"food was damaged"}`)
	if out["status"] != "updated" {
		t.Fatalf("unexpected update output: %v", out)
	}
	state := out["workflow"].(map[string]any)
	if state["reason_category"] != "damaged" {
		t.Fatalf("reason not categorized: %v", state)
	}

	run(t, r, turn, "update_refund_workflow", `{"field":"has_image","value":true}`)

	out = run(t, r, turn, "get_refund_workflow_state", `{}`)
	if out["current_stage"] != "validation" || out["next_required"] != "verify_image" {
		t.Fatalf("unexpected state output: %v", out)
	}

	out = run(t, r, turn, "process_refund_decision",
		`{"validation_score":90,"recommendation":"approve","decision_notes":"clear evidence"}`)
	if out["refund_status"] != domain.RefundApproved || out["ready_for_refund_tool"] != true {
		t.Fatalf("unexpected decision output: %v", out)
	}
	if !strings.Contains(out["validation_details"].(string), "Decision: APPROVE") {
		t.Fatalf("missing validation details: %v", out["validation_details"])
	}
}

func TestWorkflowCapabilitiesWithoutWorkflow(t *testing.T) {
	r := newTestRegistry(t, testDeps())
	turn := &Turn{ConversationID: "fresh"}
	out := run(t, r, turn, "get_refund_workflow_state", `{}`)
	if out["error"] != "Workflow not found" {
		t.Fatalf("expected not-found error, got %v", out)
	}
	out = run(t, r, turn, "update_refund_workflow", `{"field":"reason","value":"x"}`)
	if out["error"] != "Workflow not found" {
		t.Fatalf("expected not-found error, got %v", out)
	}
}

func TestSearchRestaurantsNoMatches(t *testing.T) {
	deps := testDeps()
	deps.Food = &fakeFood{searchResponse: map[string]any{}, menuResponse: map[string]any{}}
	r := newTestRegistry(t, deps)

	out := run(t, r, &Turn{}, "search_restaurants", `{"query":"nothing"}`)
	if _, ok := out["error"]; ok {
		t.Fatalf("empty search should not be an error result: %v", out)
	}
	if _, ok := out["message"].(string); !ok {
		t.Fatalf("expected message in empty-search result: %v", out)
	}
	if _, ok := out["suggestions"].([]any); !ok {
		t.Fatalf("expected suggestions in empty-search result: %v", out)
	}
}
