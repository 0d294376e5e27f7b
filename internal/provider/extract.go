package provider

import (
	"fmt"
	"strings"
)

const gridWidgetType = "type.googleapis.com/swiggy.gandalf.widgets.v2.GridWidget"
const restaurantCardType = "type.googleapis.com/swiggy.presentation.food.v2.Restaurant"
const itemCategoryType = "type.googleapis.com/swiggy.presentation.food.v2.ItemCategory"

const imageBase = "https://res.cloudinary.com/swiggy/image/upload/fl_lossy,f_auto,q_auto,w_508,h_320,c_fill/"

// ImageURL resolves a CDN image id to a full URL. Values that are already
// URLs pass through.
func ImageURL(id string) string {
	if id == "" || strings.HasPrefix(id, "http") {
		return id
	}
	return imageBase + id
}

// ExtractRestaurants flattens a listing or search response into plain
// restaurant records. Both response shapes carry the restaurants in
// different nesting; unknown shapes yield an empty list.
func ExtractRestaurants(data map[string]any) []map[string]any {
	var restaurants []map[string]any

	inner, _ := data["data"].(map[string]any)
	if inner == nil {
		return restaurants
	}

	// Listing shape: grid widget cards.
	if cards, ok := inner["cards"].([]any); ok {
		for _, c := range cards {
			cardData := innerCard(c)
			if cardData == nil || cardData["@type"] != gridWidgetType {
				continue
			}
			grid, _ := cardData["gridElements"].(map[string]any)
			infoStyle, _ := grid["infoWithStyle"].(map[string]any)
			for _, r := range listOf(infoStyle, "restaurants") {
				if info, ok := mapAt(r, "info"); ok {
					if rest := restaurantRecord(info); rest != nil {
						restaurants = append(restaurants, rest)
					}
				}
			}
		}
		return restaurants
	}

	// Search shape: a flat restaurants list.
	for _, r := range listOf(inner, "restaurants") {
		if info, ok := mapAt(r, "info"); ok {
			if rest := restaurantRecord(info); rest != nil {
				restaurants = append(restaurants, rest)
			}
		}
	}
	return restaurants
}

// restaurantRecord normalizes one restaurant info object.
func restaurantRecord(info map[string]any) map[string]any {
	deliveryTime := "30 min"
	if t, ok := info["deliveryTime"]; ok {
		deliveryTime = fmt.Sprintf("%v min", t)
	} else if sla, ok := info["sla"].(map[string]any); ok {
		if t, ok := sla["deliveryTime"]; ok {
			deliveryTime = fmt.Sprintf("%v min", t)
		}
	}

	cuisines := ""
	if list, ok := info["cuisines"].([]any); ok {
		parts := make([]string, 0, len(list))
		for _, c := range list {
			if s, ok := c.(string); ok {
				parts = append(parts, s)
			}
		}
		cuisines = strings.Join(parts, ", ")
	}

	return map[string]any{
		"id":            stringAt(info, "id"),
		"name":          stringOr(info["name"], "Unknown Restaurant"),
		"image_url":     info["cloudinaryImageId"],
		"rating":        valueOr(info["avgRating"], "N/A"),
		"cuisine":       cuisines,
		"delivery_time": deliveryTime,
		"cost_for_two":  info["costForTwo"],
		"veg":           boolAt(info, "veg"),
		"location":      stringAt(info, "areaName"),
		"isOpen":        valueOr(info["isOpen"], true),
	}
}

// ExtractMenu flattens a menu response into restaurant details plus
// categorized items with prices converted from minor units.
func ExtractMenu(data map[string]any) map[string]any {
	inner, _ := data["data"].(map[string]any)
	cards, _ := inner["cards"].([]any)

	var restaurant map[string]any
	menu := []any{}

	for _, c := range cards {
		entry, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if card, ok := entry["card"].(map[string]any); ok && restaurant == nil {
			if card["@type"] == restaurantCardType {
				restaurant, _ = card["info"].(map[string]any)
			} else if nested, ok := card["card"].(map[string]any); ok && nested["@type"] == restaurantCardType {
				restaurant, _ = nested["info"].(map[string]any)
			}
		}
		grouped, ok := entry["groupedCard"].(map[string]any)
		if !ok {
			continue
		}
		groupMap, _ := grouped["cardGroupMap"].(map[string]any)
		regular, _ := groupMap["REGULAR"].(map[string]any)
		for _, mc := range listOf(regular, "cards") {
			category := innerCard(mc)
			if category == nil || category["@type"] != itemCategoryType {
				continue
			}
			if formatted := menuCategory(category); formatted != nil {
				menu = append(menu, formatted)
			}
		}
	}

	name := "Unknown Restaurant"
	var cuisines any = []any{}
	var rating any = "N/A"
	if restaurant != nil {
		name = stringOr(restaurant["name"], name)
		cuisines = valueOr(restaurant["cuisines"], cuisines)
		rating = valueOr(restaurant["avgRating"], rating)
	}

	return map[string]any{
		"restaurant_name": name,
		"cuisines":        cuisines,
		"rating":          rating,
		"menu":            menu,
	}
}

func menuCategory(category map[string]any) map[string]any {
	items := []any{}
	for _, ic := range listOf(category, "itemCards") {
		card, ok := mapAt(ic, "card")
		if !ok {
			continue
		}
		info, ok := card["info"].(map[string]any)
		if !ok {
			continue
		}
		price, _ := info["price"].(float64)
		items = append(items, map[string]any{
			"name":        stringOr(info["name"], "Unknown Item"),
			"description": stringAt(info, "description"),
			"price":       price / 100,
			"image_url":   info["imageId"],
		})
	}
	if len(items) == 0 {
		return nil
	}
	return map[string]any{
		"category": stringOr(category["title"], "Uncategorized"),
		"items":    items,
	}
}

// innerCard unwraps the cards[i].card.card envelope.
func innerCard(v any) map[string]any {
	outer, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	mid, ok := outer["card"].(map[string]any)
	if !ok {
		return nil
	}
	inner, _ := mid["card"].(map[string]any)
	return inner
}

func listOf(m map[string]any, key string) []any {
	l, _ := m[key].([]any)
	return l
}

func mapAt(v any, key string) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	inner, ok := m[key].(map[string]any)
	return inner, ok
}

func stringAt(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func valueOr(v, fallback any) any {
	if v == nil {
		return fallback
	}
	return v
}

func boolAt(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}
