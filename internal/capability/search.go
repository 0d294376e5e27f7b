package capability

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/feastline/concierge/internal/provider"
)

const maxSearchResults = 20

func searchCapabilities(deps Deps) []Capability {
	return []Capability{
		{
			Name:        "search_restaurants",
			Description: "Search for restaurants by name, cuisine, or dish near the user's location. Returns restaurant cards with ratings, cuisines, and delivery times.",
			InputSchema: objectSchema(map[string]any{
				"query": map[string]any{"type": "string", "description": "Restaurant name, cuisine, or dish to search for"},
			}, "query"),
			Fn: deps.searchRestaurants,
		},
		{
			Name:        "search_food_items",
			Description: "Search for specific food items or dishes across nearby restaurants. Returns matching dishes with prices and the restaurant serving them.",
			InputSchema: objectSchema(map[string]any{
				"query": map[string]any{"type": "string", "description": "Dish or food item to search for"},
			}, "query"),
			Fn: deps.searchFoodItems,
		},
		{
			Name:        "get_restaurant_menu",
			Description: "Get the full menu of a restaurant by name. Returns the restaurant details, featured items, and the categorized menu.",
			InputSchema: objectSchema(map[string]any{
				"restaurant_name": map[string]any{"type": "string", "description": "Name of the restaurant"},
			}, "restaurant_name"),
			Fn: deps.restaurantMenu,
		},
	}
}

func (d Deps) searchRestaurants(ctx context.Context, turn *Turn, args json.RawMessage) map[string]any {
	var in struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &in); err != nil || in.Query == "" {
		return errorResult("Invalid input", "a search query is required")
	}
	lat, lng := d.location(turn)

	data, err := d.Food.Search(ctx, in.Query, lat, lng)
	if err != nil {
		return errorResult("Search failed", err.Error())
	}
	restaurants := provider.ExtractRestaurants(data)
	if len(restaurants) == 0 {
		return map[string]any{
			"message":     "No restaurants matched '" + in.Query + "'",
			"suggestions": []any{"Try a more general search term", "Try a different cuisine"},
		}
	}

	results := make([]any, 0, len(restaurants))
	for i, r := range restaurants {
		if i >= maxSearchResults {
			break
		}
		resolveImage(r)
		results = append(results, r)
	}
	return map[string]any{
		"query":       in.Query,
		"results":     results,
		"result_type": "restaurants",
	}
}

func (d Deps) searchFoodItems(ctx context.Context, turn *Turn, args json.RawMessage) map[string]any {
	var in struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &in); err != nil || in.Query == "" {
		return errorResult("Invalid input", "a search query is required")
	}
	lat, lng := d.location(turn)

	data, err := d.Food.Search(ctx, in.Query, lat, lng)
	if err != nil {
		return errorResult("Search failed", err.Error())
	}
	restaurants := provider.ExtractRestaurants(data)
	if len(restaurants) == 0 {
		return map[string]any{
			"message":     "No restaurants serve '" + in.Query + "' nearby",
			"suggestions": []any{"Try a more general search term", "Try a different dish"},
		}
	}

	// Walk the closest matches and pull dishes whose name or description
	// mentions the query.
	needle := strings.ToLower(in.Query)
	results := []any{}
	for i, r := range restaurants {
		if i >= 3 || len(results) >= maxSearchResults {
			break
		}
		restID, _ := r["id"].(string)
		restName, _ := r["name"].(string)
		menuData, err := d.Food.Menu(ctx, restID, lat, lng)
		if err != nil {
			continue
		}
		menu := provider.ExtractMenu(menuData)
		for _, c := range listAt(menu, "menu") {
			category, ok := c.(map[string]any)
			if !ok {
				continue
			}
			for _, it := range listAt(category, "items") {
				item, ok := it.(map[string]any)
				if !ok {
					continue
				}
				name, _ := item["name"].(string)
				desc, _ := item["description"].(string)
				if !strings.Contains(strings.ToLower(name), needle) &&
					!strings.Contains(strings.ToLower(desc), needle) {
					continue
				}
				item["restaurant_name"] = restName
				item["restaurant_id"] = restID
				item["category"] = category["category"]
				resolveImage(item)
				results = append(results, item)
				if len(results) >= maxSearchResults {
					break
				}
			}
		}
	}
	if len(results) == 0 {
		return map[string]any{
			"message":     "No dishes matched '" + in.Query + "'",
			"suggestions": []any{"Try a more general search term", "Browse a restaurant's menu instead"},
		}
	}
	return map[string]any{
		"query":       in.Query,
		"results":     results,
		"result_type": "food_items",
	}
}

func (d Deps) restaurantMenu(ctx context.Context, turn *Turn, args json.RawMessage) map[string]any {
	var in struct {
		RestaurantName string `json:"restaurant_name"`
	}
	if err := json.Unmarshal(args, &in); err != nil || in.RestaurantName == "" {
		return errorResult("Invalid input", "a restaurant name is required")
	}
	lat, lng := d.location(turn)

	data, err := d.Food.Search(ctx, in.RestaurantName, lat, lng)
	if err != nil {
		return errorResult("Search failed", err.Error())
	}
	restaurants := provider.ExtractRestaurants(data)
	if len(restaurants) == 0 {
		return errorResult("Restaurant not found", "No restaurant named '"+in.RestaurantName+"' found nearby")
	}
	info := restaurants[0]
	resolveImage(info)
	restID, _ := info["id"].(string)
	restName, _ := info["name"].(string)

	menuData, err := d.Food.Menu(ctx, restID, lat, lng)
	if err != nil {
		return errorResult("Menu unavailable", err.Error())
	}
	menu := provider.ExtractMenu(menuData)
	categories := listAt(menu, "menu")

	// Featured items are the first dishes of the first category.
	featured := []any{}
	if len(categories) > 0 {
		if first, ok := categories[0].(map[string]any); ok {
			for i, it := range listAt(first, "items") {
				if i >= 3 {
					break
				}
				if item, ok := it.(map[string]any); ok {
					resolveImage(item)
					featured = append(featured, item)
				}
			}
		}
	}

	// A flat listing for clients that don't render categories.
	results := []any{}
	for _, c := range categories {
		category, ok := c.(map[string]any)
		if !ok {
			continue
		}
		for _, it := range listAt(category, "items") {
			if len(results) >= maxSearchResults {
				break
			}
			item, ok := it.(map[string]any)
			if !ok {
				continue
			}
			item["restaurant_name"] = restName
			item["restaurant_id"] = restID
			item["category"] = category["category"]
			resolveImage(item)
			results = append(results, item)
		}
	}

	return map[string]any{
		"restaurant_name": restName,
		"restaurant_id":   restID,
		"restaurant_info": info,
		"featured_items":  featured,
		"menu":            categories,
		"results":         results,
		"result_type":     "menu",
	}
}

// resolveImage rewrites a CDN image id into a full URL in place.
func resolveImage(m map[string]any) {
	if id, ok := m["image_url"].(string); ok {
		m["image_url"] = provider.ImageURL(id)
	}
}

func listAt(m map[string]any, key string) []any {
	l, _ := m[key].([]any)
	return l
}

// objectSchema builds a JSON schema for a tool's input object.
func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
