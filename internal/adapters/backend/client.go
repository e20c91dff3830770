// internal/adapters/backend/client.go
package backend

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"travelly_stays/internal/adapters/observability"
	"travelly_stays/internal/domain"
)

// Client talks to the travel backend: both hotel catalogs, the room
// inventory service and the reservation service.
type Client struct {
	base  string
	hc    *http.Client
	token string
	rl    *rate.Limiter
}

func New(base, token string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		base:  strings.TrimRight(base, "/"),
		hc:    &http.Client{Timeout: 20 * time.Second},
		token: token,
		rl:    rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- Catalog reads (retried) ----

// LegacyRooms returns the room groups of a legacy hotel. A 404 is reported
// as an empty list so the caller falls through to the service catalog.
func (c *Client) LegacyRooms(ctx context.Context, hotelID string) ([]map[string]any, error) {
	var raw any
	err := c.get(ctx, "hotels_room", c.url("hotels", "room", hotelID), &raw)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return objects(raw), nil
}

func (c *Client) LegacyHotel(ctx context.Context, hotelID string) (map[string]any, error) {
	var out map[string]any
	if err := c.get(ctx, "hotels_find", c.url("hotels", "find", hotelID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ServiceHotel(ctx context.Context, hotelID string) (map[string]any, error) {
	var out map[string]any
	if err := c.get(ctx, "services_hotel", c.url("services", "hotel", hotelID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ServiceDetails(ctx context.Context, hotelID string) (map[string]any, error) {
	var out map[string]any
	if err := c.get(ctx, "services_details", c.url("services", "details", hotelID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ---- Writes (single attempt, never retried) ----

type datesBody struct {
	Dates []int64 `json:"dates"`
}

func epochMillis(days []time.Time) datesBody {
	b := datesBody{Dates: make([]int64, 0, len(days))}
	for _, d := range days {
		b.Dates = append(b.Dates, d.UnixMilli())
	}
	return b
}

// MarkUnavailable appends days to the room's unavailable dates.
func (c *Client) MarkUnavailable(ctx context.Context, roomNumberID string, days []time.Time) error {
	return c.send(ctx, "rooms_availability_put", http.MethodPut,
		c.url("rooms", "availability", roomNumberID), epochMillis(days), nil)
}

// ReleaseDates removes days from the room's unavailable dates.
func (c *Client) ReleaseDates(ctx context.Context, roomNumberID string, days []time.Time) error {
	return c.send(ctx, "rooms_availability_delete", http.MethodDelete,
		c.url("rooms", "availability", roomNumberID), epochMillis(days), nil)
}

type reservationBody struct {
	HotelName      string    `json:"hotelName"`
	CheckInDate    time.Time `json:"checkInDate"`
	CheckOutDate   time.Time `json:"checkOutDate"`
	UserName       string    `json:"userName"`
	TotalPrice     float64   `json:"totalPrice"`
	TotalDays      int       `json:"totalDays"`
	HotelID        string    `json:"hotelId"`
	IsServiceHotel bool      `json:"isServiceHotel"`
	SelectedRooms  int       `json:"selectedRooms"`
}

func (c *Client) CreateReservation(ctx context.Context, d domain.ReservationDraft) (map[string]any, error) {
	body := reservationBody{
		HotelName:      d.HotelName,
		CheckInDate:    d.Range.CheckIn,
		CheckOutDate:   d.Range.CheckOut,
		UserName:       d.CustomerName,
		TotalPrice:     d.TotalPrice,
		TotalDays:      d.Nights,
		HotelID:        d.HotelID,
		IsServiceHotel: d.Origin == domain.OriginService,
		SelectedRooms:  d.RoomCount,
	}
	var out map[string]any
	if err := c.send(ctx, "reservation_create", http.MethodPost,
		c.base+"/hotelreservation/reservation", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ---- Internals ----

func (c *Client) url(parts ...string) string {
	esc := make([]string, len(parts))
	for i, p := range parts {
		esc[i] = url.PathEscape(p)
	}
	return c.base + "/" + strings.Join(esc, "/")
}

func (c *Client) newRequest(ctx context.Context, method, u string, body []byte) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "travelly-stays/1.0")
	return req, nil
}

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, endpoint, u string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := c.newRequest(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal(endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal(endpoint, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
			wait := retryAfter(resp)
			lastErr = readUpstreamError(resp)
			if wait == 0 {
				wait = backoff(i)
			}
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			return readUpstreamError(resp)
		}
	}

	return lastErr
}

// send performs one write request. Non-2xx answers become *domain.UpstreamError.
func (c *Client) send(ctx context.Context, endpoint, method, u string, in, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, method, u, body)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal(endpoint, 0, time.Since(start))
		return err
	}
	observability.ObserveExternal(endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readUpstreamError(resp)
	}
	defer resp.Body.Close()
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	return json.Unmarshal(b, out)
}

// readUpstreamError reads a small error body and closes it. The message is
// the body's "message"/"error" field when it is JSON, the raw text otherwise.
func readUpstreamError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
	return &domain.UpstreamError{Status: resp.StatusCode, Message: upstreamMessage(resp.StatusCode, b)}
}

func upstreamMessage(status int, b []byte) string {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err == nil {
		for _, k := range []string{"message", "error", "msg"} {
			if s, ok := m[k].(string); ok && s != "" {
				return s
			}
		}
	}
	if s := strings.TrimSpace(string(b)); s != "" {
		return s
	}
	return http.StatusText(status)
}

// objects accepts a bare array or a {data: [...]} envelope.
func objects(raw any) []map[string]any {
	if env, ok := raw.(map[string]any); ok {
		raw = env["data"]
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(arr))
	for _, it := range arr {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (100ms, 200ms, 400ms) with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 100 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
