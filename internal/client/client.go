// Package client is a thin HTTP client for the spacehub read API, used by
// front-desk tools and partner integrations.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"spacehub/internal/models"

	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 10 * time.Second

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spacehub: http %d", e.StatusCode)
	}
	return fmt.Sprintf("spacehub: http %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL    string
	apiKey     string
	apiExtra   string
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration
}

// New builds a client. apiKey and apiExtra go into x-api-key / x-api-extra.
func New(baseURL, apiKey, apiExtra string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		apiExtra:   apiExtra,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// UseRedisCache turns on caching for catalog and slot lookups.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// CheckAvailability asks whether [start, end) on date is free. Never cached.
func (c *Client) CheckAvailability(ctx context.Context, spaceID int64, date, start, end string) (*models.AvailabilityResult, error) {
	q := url.Values{"date": {date}, "start": {start}, "end": {end}}
	var resp models.AvailabilityResult
	if err := c.doGet(ctx, c.spacePath(spaceID, "availability"), q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetAvailableSlots(ctx context.Context, spaceID int64, date string, duration int) (*models.SlotsResult, error) {
	q := url.Values{"date": {date}, "duration": {strconv.Itoa(duration)}}
	cacheKey := fmt.Sprintf("client:slots:%d:%s:%d", spaceID, date, duration)

	var resp models.SlotsResult
	if c.readCache(ctx, cacheKey, &resp) {
		return &resp, nil
	}
	if err := c.doGet(ctx, c.spacePath(spaceID, "slots"), q, &resp); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, resp)
	return &resp, nil
}

func (c *Client) CalculatePrice(ctx context.Context, spaceID int64, start, end string, participants int) (*models.PriceQuote, error) {
	q := url.Values{"start": {start}, "end": {end}}
	if participants > 0 {
		q.Set("participants", strconv.Itoa(participants))
	}
	var resp models.PriceQuote
	if err := c.doGet(ctx, c.spacePath(spaceID, "price"), q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidatePromoCode checks a code without redeeming it.
func (c *Client) ValidatePromoCode(ctx context.Context, code string, userID int64, amount float64) (*models.PromoValidation, error) {
	body := map[string]any{"code": code, "userId": userID, "bookingAmount": amount}
	var resp models.PromoValidation
	if err := c.doPost(ctx, "/api/v1/promo-codes/validate", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListSpaces returns active spaces, optionally filtered by type.
func (c *Client) ListSpaces(ctx context.Context, spaceType string) ([]*models.Space, error) {
	q := url.Values{}
	if spaceType != "" {
		q.Set("type", spaceType)
	}
	cacheKey := "client:spaces:" + spaceType

	var wrap struct {
		Spaces []*models.Space `json:"spaces"`
	}
	if c.readCache(ctx, cacheKey, &wrap) {
		return wrap.Spaces, nil
	}
	if err := c.doGet(ctx, "/api/v1/spaces", q, &wrap); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, wrap)
	return wrap.Spaces, nil
}

func (c *Client) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	var resp models.Booking
	if err := c.doGet(ctx, "/api/v1/bookings/"+strconv.FormatInt(id, 10), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) spacePath(spaceID int64, tail string) string {
	return fmt.Sprintf("/api/v1/spaces/%d/%s", spaceID, tail)
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(val, out) == nil
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) doGet(ctx context.Context, path string, q url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) doPost(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	if c.apiExtra != "" {
		req.Header.Set("x-api-extra", c.apiExtra)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var payload struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &payload) != nil {
			payload.Error = strings.TrimSpace(string(raw))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
