package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"travelly_stays/internal/domain"
)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func mustRange(in, out time.Time) domain.DateRange {
	r, err := domain.NewDateRange(in, out)
	if err != nil {
		panic(err)
	}
	return r
}

// ---- catalog ----

type fakeCatalog struct {
	legacy     []map[string]any
	legacyErr  error
	meta       map[string]any
	metaErr    error
	service    map[string]any
	serviceErr error
	details    map[string]any
	detailsErr error
	calls      []string
}

func (f *fakeCatalog) LegacyRooms(ctx context.Context, id string) ([]map[string]any, error) {
	f.calls = append(f.calls, "legacyRooms")
	return f.legacy, f.legacyErr
}

func (f *fakeCatalog) LegacyHotel(ctx context.Context, id string) (map[string]any, error) {
	f.calls = append(f.calls, "legacyHotel")
	return f.meta, f.metaErr
}

func (f *fakeCatalog) ServiceHotel(ctx context.Context, id string) (map[string]any, error) {
	f.calls = append(f.calls, "serviceHotel")
	if f.service == nil && f.serviceErr == nil {
		return nil, &domain.UpstreamError{Status: 404, Message: "Not Found"}
	}
	return f.service, f.serviceErr
}

func (f *fakeCatalog) ServiceDetails(ctx context.Context, id string) (map[string]any, error) {
	f.calls = append(f.calls, "serviceDetails")
	if f.details == nil && f.detailsErr == nil {
		return nil, &domain.UpstreamError{Status: 404, Message: "Not Found"}
	}
	return f.details, f.detailsErr
}

// ---- inventory service ----

type fakeInventory struct {
	mu         sync.Mutex
	markErr    map[string]error
	releaseErr map[string]error
	marked     []string
	released   []string
	days       map[string][]time.Time
}

func (f *fakeInventory) MarkUnavailable(ctx context.Context, id string, days []time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, id)
	if f.days == nil {
		f.days = map[string][]time.Time{}
	}
	f.days[id] = days
	return f.markErr[id]
}

func (f *fakeInventory) ReleaseDates(ctx context.Context, id string, days []time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, id)
	return f.releaseErr[id]
}

func (f *fakeInventory) sortedMarked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.marked...)
	sort.Strings(out)
	return out
}

// ---- reservation service ----

type fakeReservations struct {
	payload map[string]any
	err     error
	calls   int
	last    domain.ReservationDraft
}

func (f *fakeReservations) CreateReservation(ctx context.Context, d domain.ReservationDraft) (map[string]any, error) {
	f.calls++
	f.last = d
	return f.payload, f.err
}

// ---- journal ----

type fakeJournal struct {
	mu       sync.Mutex
	begun    []domain.CommitAttempt
	finished []domain.CommitAttempt
	locks    map[string][]domain.LockOutcome
	pending  []domain.PendingRelease
	marked   []string
	listErr  error
}

func (f *fakeJournal) BeginAttempt(ctx context.Context, a domain.CommitAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.begun = append(f.begun, a)
	return nil
}

func (f *fakeJournal) FinishAttempt(ctx context.Context, a domain.CommitAttempt, locks []domain.LockOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = append(f.finished, a)
	if f.locks == nil {
		f.locks = map[string][]domain.LockOutcome{}
	}
	f.locks[a.ID] = locks
	return nil
}

func (f *fakeJournal) PendingReleases(ctx context.Context, limit int) ([]domain.PendingRelease, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit < len(f.pending) {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeJournal) MarkReleased(ctx context.Context, attemptID, roomNumberID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, attemptID+"/"+roomNumberID)
	return nil
}

// ---- session cache ----

// memCache round-trips through JSON like the redis store does.
type memCache struct {
	store map[string][]byte
}

func (c *memCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *memCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

// ---- fixtures ----

// legacyRoomsPayload mirrors the legacy catalog: T1 at 5000 with R1 free and
// R2 booked on 2024-06-02, T2 at 7250.5 with R3 free.
func legacyRoomsPayload() []map[string]any {
	return []map[string]any{
		{
			"_id": "T1", "title": "Double Room", "price": 5000.0, "maxPeople": 2.0,
			"roomNumbers": []any{
				map[string]any{"_id": "R1", "number": 101.0, "unavailableDates": []any{}},
				map[string]any{"_id": "R2", "number": 102.0, "unavailableDates": []any{"2024-06-02T00:00:00.000Z"}},
			},
		},
		{
			"_id": "T2", "title": "Suite", "price": "7250.5", "maxPeople": 4.0,
			"roomNumbers": []any{
				map[string]any{"_id": "R3", "number": 201.0},
			},
		},
	}
}

var errBoom = errors.New("boom")

// cancellingInventory cancels the caller's context when failOn is locked and
// honors cancellation on release, like a real HTTP client would.
type cancellingInventory struct {
	fakeInventory
	failOn string
	cancel context.CancelFunc
}

func (f *cancellingInventory) MarkUnavailable(ctx context.Context, id string, days []time.Time) error {
	if id == f.failOn {
		f.cancel()
		return context.Canceled
	}
	return f.fakeInventory.MarkUnavailable(ctx, id, days)
}

func (f *cancellingInventory) ReleaseDates(ctx context.Context, id string, days []time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.fakeInventory.ReleaseDates(ctx, id, days)
}

// ctxJournal refuses writes on a done context.
type ctxJournal struct {
	fakeJournal
}

func (f *ctxJournal) BeginAttempt(ctx context.Context, a domain.CommitAttempt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.fakeJournal.BeginAttempt(ctx, a)
}

func (f *ctxJournal) FinishAttempt(ctx context.Context, a domain.CommitAttempt, locks []domain.LockOutcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.fakeJournal.FinishAttempt(ctx, a, locks)
}

// cancellingReservations drops the caller mid-request.
type cancellingReservations struct {
	cancel context.CancelFunc
}

func (f *cancellingReservations) CreateReservation(ctx context.Context, d domain.ReservationDraft) (map[string]any, error) {
	f.cancel()
	return nil, context.Canceled
}
