//go:build integration || !unit

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"travelly_stays/internal/adapters/backend"
	server "travelly_stays/internal/adapters/http_server"
	redisad "travelly_stays/internal/adapters/redis"
	"travelly_stays/internal/app"
)

// ---------- fake backend (legacy catalog + inventory + reservations) ----------
type fakeBackend struct {
	mu           sync.Mutex
	unavailable  map[string][]int64
	lockFail     map[string]string
	reservations []map[string]any
	puts         int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{unavailable: map[string][]int64{}, lockFail: map[string]string{}}
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/hotels/room/H1":
		_ = json.NewEncoder(w).Encode([]map[string]any{{
			"_id": "T1", "title": "Double Room", "price": 5000, "maxPeople": 2,
			"roomNumbers": []map[string]any{
				{"_id": "R1", "number": 101, "unavailableDates": b.unavailable["R1"]},
				{"_id": "R2", "number": 102, "unavailableDates": b.unavailable["R2"]},
			},
		}})
	case r.Method == http.MethodGet && r.URL.Path == "/hotels/find/H1":
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "Grand Lodge", "city": "Lahore"})
	case r.Method == http.MethodGet && r.URL.Path == "/services/hotel/S1":
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{
			"name": "Beach Camp", "price": 150,
			"roomTypes": []map[string]any{{"name": "Tent", "pricePerNight": 150, "availableRooms": 2}},
		}})
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/rooms/availability/"):
		b.puts++
		id := strings.TrimPrefix(r.URL.Path, "/rooms/availability/")
		if msg, ok := b.lockFail[id]; ok {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]any{"message": msg})
			return
		}
		var body struct {
			Dates []int64 `json:"dates"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.unavailable[id] = append(b.unavailable[id], body.Dates...)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/rooms/availability/"):
		id := strings.TrimPrefix(r.URL.Path, "/rooms/availability/")
		delete(b.unavailable, id)
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodPost && r.URL.Path == "/hotelreservation/reservation":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.reservations = append(b.reservations, body)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"_id": "res-1", "status": "pending"})
	default:
		http.NotFound(w, r)
	}
}

// ---------- wiring ----------
func newStack(t *testing.T, fb *fakeBackend) *httptest.Server {
	t.Helper()
	be := httptest.NewServer(fb)
	t.Cleanup(be.Close)

	mr := miniredis.RunT(t)
	store := redisad.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = store.Close() })

	client, err := backend.New(be.URL, "tok", 100)
	if err != nil {
		t.Fatalf("backend: %v", err)
	}
	booking := app.NewBookingService(
		app.NewResolver(client),
		app.NewCommitter(client, client, nil, true),
		store,
		10*time.Minute,
	)
	srv := server.New(5 * time.Second)
	srv.MountHandlers(&server.Handlers{B: booking})
	api := httptest.NewServer(srv.Mux())
	t.Cleanup(api.Close)
	return api
}

func call(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req, _ := http.NewRequest(method, url, rd)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

type sessionResp struct {
	ID        string   `json:"id"`
	Origin    string   `json:"origin"`
	Nights    int      `json:"nights"`
	Total     float64  `json:"total"`
	Selection []string `json:"selection"`
	Rooms     []struct {
		ID        string `json:"id"`
		Available bool   `json:"available"`
	} `json:"rooms"`
}

type problemResp struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Locks  []struct {
		RoomNumberID string `json:"roomNumberId"`
		State        string `json:"state"`
	} `json:"locks"`
}

// ---------- the tests ----------
func TestHTTP_EndToEnd_LegacyBooking(t *testing.T) {
	fb := newFakeBackend()
	api := newStack(t, fb)

	var s sessionResp
	code := call(t, http.MethodPost, api.URL+"/v1/sessions", map[string]any{
		"hotelId": "H1", "checkIn": "2024-06-01", "checkOut": "2024-06-03",
	}, &s)
	if code != http.StatusCreated || s.ID == "" || s.Origin != "legacy" || s.Nights != 2 {
		t.Fatalf("start: %d %+v", code, s)
	}

	code = call(t, http.MethodPost, api.URL+"/v1/sessions/"+s.ID+"/selection", map[string]any{"roomNumberId": "R1", "checked": true}, &s)
	if code != http.StatusOK || s.Total != 10000 {
		t.Fatalf("toggle: %d total=%v", code, s.Total)
	}

	var res map[string]any
	code = call(t, http.MethodPost, api.URL+"/v1/sessions/"+s.ID+"/commit", map[string]any{"customerName": "Ayesha"}, &res)
	if code != http.StatusCreated || res["id"] != "res-1" || res["totalPrice"] != 10000.0 {
		t.Fatalf("commit: %d %+v", code, res)
	}

	fb.mu.Lock()
	if fb.puts != 1 || len(fb.unavailable["R1"]) != 3 || len(fb.reservations) != 1 {
		t.Fatalf("backend state: puts=%d dates=%v reservations=%d", fb.puts, fb.unavailable["R1"], len(fb.reservations))
	}
	if fb.reservations[0]["isServiceHotel"] != false || fb.reservations[0]["totalDays"] != 2.0 {
		t.Fatalf("unexpected reservation body: %+v", fb.reservations[0])
	}
	fb.mu.Unlock()

	// session is gone after success
	if code := call(t, http.MethodGet, api.URL+"/v1/sessions/"+s.ID, nil, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 after commit, got %d", code)
	}

	// the booked room now shows as unavailable for overlapping dates
	var av sessionResp
	code = call(t, http.MethodGet, api.URL+"/v1/hotels/H1/availability?checkIn=2024-06-02&checkOut=2024-06-04", nil, &av)
	if code != http.StatusOK {
		t.Fatalf("availability: %d", code)
	}
	for _, r := range av.Rooms {
		if r.ID == "R1" && r.Available {
			t.Fatalf("R1 should be unavailable after booking")
		}
	}
}

func TestHTTP_EndToEnd_LockFailure(t *testing.T) {
	fb := newFakeBackend()
	fb.lockFail["R2"] = "Room is locked by another booking"
	api := newStack(t, fb)

	var s sessionResp
	call(t, http.MethodPost, api.URL+"/v1/sessions", map[string]any{"hotelId": "H1", "checkIn": "2024-06-01", "checkOut": "2024-06-03"}, &s)
	call(t, http.MethodPost, api.URL+"/v1/sessions/"+s.ID+"/selection", map[string]any{"roomNumberId": "R1", "checked": true}, nil)
	call(t, http.MethodPost, api.URL+"/v1/sessions/"+s.ID+"/selection", map[string]any{"roomNumberId": "R2", "checked": true}, nil)

	var p problemResp
	code := call(t, http.MethodPost, api.URL+"/v1/sessions/"+s.ID+"/commit", map[string]any{"customerName": "Ayesha"}, &p)
	if code != http.StatusBadGateway || p.Detail != "Room is locked by another booking" {
		t.Fatalf("commit: %d %+v", code, p)
	}
	if len(p.Locks) != 2 {
		t.Fatalf("expected a per-room report, got %+v", p.Locks)
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if len(fb.reservations) != 0 {
		t.Fatalf("no reservation may be created")
	}
	if len(fb.unavailable["R1"]) != 0 {
		t.Fatalf("R1 lock should have been released: %v", fb.unavailable["R1"])
	}
}

func TestHTTP_EndToEnd_ServiceHotelAndErrors(t *testing.T) {
	fb := newFakeBackend()
	api := newStack(t, fb)

	var p problemResp
	if code := call(t, http.MethodPost, api.URL+"/v1/sessions", map[string]any{"hotelId": "ghost", "checkIn": "2024-06-01", "checkOut": "2024-06-03"}, &p); code != http.StatusNotFound {
		t.Fatalf("unknown hotel: %d %+v", code, p)
	}
	if code := call(t, http.MethodPost, api.URL+"/v1/sessions", map[string]any{"hotelId": "S1", "checkIn": "2024-06-03", "checkOut": "2024-06-01"}, &p); code != http.StatusBadRequest {
		t.Fatalf("inverted range: %d", code)
	}

	var s sessionResp
	call(t, http.MethodPost, api.URL+"/v1/sessions", map[string]any{"hotelId": "S1", "checkIn": "2024-06-01", "checkOut": "2024-06-03"}, &s)
	if s.Origin != "service" || len(s.Rooms) != 2 {
		t.Fatalf("service session: %+v", s)
	}
	if code := call(t, http.MethodPost, api.URL+"/v1/sessions/"+s.ID+"/commit", map[string]any{"customerName": "Bilal"}, &p); code != http.StatusUnprocessableEntity {
		t.Fatalf("empty selection: %d", code)
	}
	for _, r := range s.Rooms {
		call(t, http.MethodPost, api.URL+"/v1/sessions/"+s.ID+"/selection", map[string]any{"roomNumberId": r.ID, "checked": true}, nil)
	}
	var res map[string]any
	if code := call(t, http.MethodPost, api.URL+"/v1/sessions/"+s.ID+"/commit", map[string]any{"customerName": "Bilal"}, &res); code != http.StatusCreated {
		t.Fatalf("service commit: %d %+v", code, res)
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.puts != 0 || fb.reservations[0]["isServiceHotel"] != true || fb.reservations[0]["totalPrice"] != 600.0 {
		t.Fatalf("unexpected backend state: puts=%d %+v", fb.puts, fb.reservations)
	}
}
