package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"travelly_stays/internal/adapters/backend"
	"travelly_stays/internal/domain"
)

func newClient(t *testing.T, h http.Handler) *backend.Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	cl, err := backend.New(ts.URL, "test-token", 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return cl
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestClient_LegacyRooms_RetriesThenSuccess(t *testing.T) {
	var hits int32
	cl := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hotels/room/H1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("missing bearer token")
		}
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			_ = json.NewEncoder(w).Encode([]map[string]any{{"_id": "T1", "title": "Double"}})
		}
	}))

	got, err := cl.LegacyRooms(testCtx(t), "H1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || got[0]["_id"] != "T1" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected 3 calls due to retries, got %d", hits)
	}
}

func TestClient_LegacyRooms_404IsEmpty(t *testing.T) {
	cl := newClient(t, http.NotFoundHandler())
	got, err := cl.LegacyRooms(testCtx(t), "nope")
	if err != nil || got != nil {
		t.Fatalf("expected empty result without error, got %v, %v", got, err)
	}
}

func TestClient_ServiceHotel_404(t *testing.T) {
	cl := newClient(t, http.NotFoundHandler())
	_, err := cl.ServiceHotel(testCtx(t), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_MarkUnavailable_SendsEpochMillisOnce(t *testing.T) {
	var hits int32
	var body struct {
		Dates []int64 `json:"dates"`
	}
	cl := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.Method != http.MethodPut || r.URL.Path != "/rooms/availability/R1" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &body)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Room is locked by another booking"}`))
	}))

	days := domain.ExpandRange(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC))
	err := cl.MarkUnavailable(testCtx(t), "R1", days)

	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Status != 500 || ue.Message != "Room is locked by another booking" {
		t.Fatalf("upstream message not passed through: %+v", ue)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("writes must not be retried, got %d calls", hits)
	}
	if len(body.Dates) != 3 || body.Dates[0] != days[0].UnixMilli() {
		t.Fatalf("unexpected dates body: %+v", body.Dates)
	}
}

func TestClient_CreateReservation_Body(t *testing.T) {
	var got map[string]any
	cl := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/hotelreservation/reservation" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"_id":"res-1","status":"pending"}`))
	}))

	dr, _ := domain.NewDateRange(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC))
	out, err := cl.CreateReservation(testCtx(t), domain.ReservationDraft{
		HotelID: "H2", HotelName: "Beach Camp", CustomerName: "Ayesha",
		Range: dr, TotalPrice: 300, Nights: 2, Origin: domain.OriginService, RoomCount: 2,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out["_id"] != "res-1" {
		t.Fatalf("unexpected response: %+v", out)
	}
	if got["isServiceHotel"] != true || got["selectedRooms"] != 2.0 || got["totalDays"] != 2.0 {
		t.Fatalf("unexpected body: %+v", got)
	}
	if got["userName"] != "Ayesha" || got["hotelId"] != "H2" || got["checkInDate"] != "2024-06-01T00:00:00Z" {
		t.Fatalf("unexpected body: %+v", got)
	}
	if _, ok := got["roomNumbers"]; ok {
		t.Fatalf("reservation body must not carry room ids")
	}
}

func TestClient_ReleaseDates_PlainTextError(t *testing.T) {
	cl := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		http.Error(w, "room not found", http.StatusNotFound)
	}))
	err := cl.ReleaseDates(testCtx(t), "R9", nil)
	if domain.UpstreamMessage(err) != "room not found" {
		t.Fatalf("unexpected message: %v", err)
	}
}
