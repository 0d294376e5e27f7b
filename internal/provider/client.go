// Package provider fetches live restaurant and menu data from the upstream
// food delivery API and flattens its deeply nested card responses into the
// plain shapes the capabilities work with.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"sync"
	"time"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.36"

const (
	restaurantsTTL = 5 * time.Minute
	searchTTL      = 3 * time.Minute
	menuTTL        = 10 * time.Minute
)

// Client is an upstream API client with retries and a small TTL cache. The
// upstream rejects requests without a browser user agent.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry

	// overridable in tests
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

type cacheEntry struct {
	expires time.Time
	data    map[string]any
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		cache:   make(map[string]cacheEntry),
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

// sleepCtx waits for the duration or until the context is canceled,
// whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Restaurants lists restaurants around the location.
func (c *Client) Restaurants(ctx context.Context, lat, lng float64) (map[string]any, error) {
	url := fmt.Sprintf("%s/restaurants/list/v5?lat=%g&lng=%g&page_type=COLLECTION", c.baseURL, lat, lng)
	key := fmt.Sprintf("restaurants:%g:%g", lat, lng)
	return c.get(ctx, url, key, restaurantsTTL)
}

// Search runs a free-text restaurant and dish search around the location.
func (c *Client) Search(ctx context.Context, query string, lat, lng float64) (map[string]any, error) {
	url := fmt.Sprintf("%s/restaurants/search/v3?lat=%g&lng=%g&str=%s&trackingId=undefined", c.baseURL, lat, lng, query)
	key := fmt.Sprintf("search:%s:%g:%g", query, lat, lng)
	return c.get(ctx, url, key, searchTTL)
}

// Menu fetches the complete menu of a restaurant.
func (c *Client) Menu(ctx context.Context, restaurantID string, lat, lng float64) (map[string]any, error) {
	url := fmt.Sprintf("%s/menu/pl?page-type=REGULAR_MENU&complete-menu=true&lat=%g&lng=%g&submitAction=ENTER&restaurantId=%s",
		c.baseURL, lat, lng, restaurantID)
	key := fmt.Sprintf("menu:%s:%g:%g", restaurantID, lat, lng)
	return c.get(ctx, url, key, menuTTL)
}

func (c *Client) get(ctx context.Context, url, cacheKey string, ttl time.Duration) (map[string]any, error) {
	if data, ok := c.cached(cacheKey); ok {
		return data, nil
	}

	data, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	c.store(cacheKey, data, ttl)
	return data, nil
}

const maxRetries = 3

// fetch issues the request with exponential backoff on transport errors and
// non-200 responses.
func (c *Client) fetch(ctx context.Context, url string) (map[string]any, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(math.Pow(1.5, float64(attempt)) * float64(time.Second))
			log.Printf("WARN: provider request failed, retrying in %s: %v", wait, lastErr)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}

		data, retryable, err := c.doRequest(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, fmt.Errorf("provider request failed after %d attempts: %w", maxRetries, lastErr)
}

func (c *Client) doRequest(ctx context.Context, url string) (data map[string]any, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, true, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read provider response: %w", err)
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, false, fmt.Errorf("decode provider response: %w", err)
	}

	// The upstream signals application errors in-band.
	if code, ok := data["statusCode"].(float64); ok && code != 0 {
		msg, _ := data["statusMessage"].(string)
		if msg == "" {
			msg = "unknown provider error"
		}
		return nil, false, fmt.Errorf("provider error (code %d): %s", int(code), msg)
	}
	return data, false, nil
}

func (c *Client) cached(key string) (map[string]any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[key]
	if !ok || c.now().After(entry.expires) {
		return nil, false
	}
	return entry.data, true
}

func (c *Client) store(key string, data map[string]any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cacheEntry{expires: c.now().Add(ttl), data: data}
}
