package service

import (
	"context"
	"fmt"
)

// Restaurants proxies the raw restaurant listing for the given coordinates.
// Zero coordinates fall back to the configured defaults.
func (s *Service) Restaurants(ctx context.Context, lat, lng float64) (map[string]any, error) {
	lat, lng = s.coords(lat, lng)
	data, err := s.food.Restaurants(ctx, lat, lng)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch restaurants: %w", err)
	}
	return data, nil
}

// Menu proxies the raw menu payload for a restaurant.
func (s *Service) Menu(ctx context.Context, restaurantID string, lat, lng float64) (map[string]any, error) {
	lat, lng = s.coords(lat, lng)
	data, err := s.food.Menu(ctx, restaurantID, lat, lng)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch menu: %w", err)
	}
	return data, nil
}

func (s *Service) coords(lat, lng float64) (float64, float64) {
	if lat == 0 && lng == 0 {
		return s.config.DefaultLatitude, s.config.DefaultLongitude
	}
	return lat, lng
}
