// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"travelly_stays/internal/app"
	"travelly_stays/internal/domain"
)

type Handlers struct {
	B *app.BookingService
	// CommitTimeout bounds a commit independently of the client connection.
	CommitTimeout time.Duration
}

type problem struct {
	Type   string               `json:"type"`
	Title  string               `json:"title"`
	Status int                  `json:"status"`
	Detail string               `json:"detail,omitempty"`
	Locks  []domain.LockOutcome `json:"locks,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/hotels/{id}/availability", h.availability)
	s.mux.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", h.startSession)
		r.Get("/{id}", h.getSession)
		r.Delete("/{id}", h.dismissSession)
		r.Put("/{id}/dates", h.setDates)
		r.Post("/{id}/selection", h.toggleRoom)
		r.Post("/{id}/commit", h.commit)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemBody(w, problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
}

func writeProblemBody(w http.ResponseWriter, p problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain failures onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	var cerr *domain.CommitError
	switch {
	case errors.As(err, &cerr):
		title := "Inventory update failed"
		if errors.Is(cerr.Kind, domain.ErrReservationCreation) {
			title = "Reservation creation failed"
		}
		writeProblemBody(w, problem{Type: "about:blank", Title: title, Status: http.StatusBadGateway, Detail: cerr.Message, Locks: cerr.Locks})
	case errors.Is(err, domain.ErrInventoryResolution):
		writeProblem(w, http.StatusNotFound, "Hotel not found", err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "booking session not found or expired")
	case errors.Is(err, domain.ErrNoRoomsSelected):
		writeProblem(w, http.StatusUnprocessableEntity, "No rooms selected", "select at least one room before submitting")
	case errors.Is(err, domain.ErrMalformedDateRange):
		writeProblem(w, http.StatusBadRequest, "Invalid dates", err.Error())
	case errors.Is(err, domain.ErrUnknownRoom):
		writeProblem(w, http.StatusBadRequest, "Unknown room", err.Error())
	case errors.Is(err, domain.ErrRoomUnavailable):
		writeProblem(w, http.StatusConflict, "Room unavailable", err.Error())
	default:
		log.Error().Err(err).Msg("unhandled request error")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON body")
	}
}

// writeCached serves GET bodies with a weak ETag and honors If-None-Match.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write body")
	}
}

// parseDay accepts a calendar date or a full RFC3339 timestamp.
func parseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func parseRange(checkIn, checkOut string) (domain.DateRange, error) {
	in, ok1 := parseDay(checkIn)
	out, ok2 := parseDay(checkOut)
	if !ok1 || !ok2 {
		return domain.DateRange{}, domain.ErrMalformedDateRange
	}
	return domain.NewDateRange(in, out)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return false
	}
	return true
}

type rangeBody struct {
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
}

type startBody struct {
	HotelID string `json:"hotelId"`
	rangeBody
}

type toggleBody struct {
	RoomNumberID string `json:"roomNumberId"`
	Checked      bool   `json:"checked"`
}

type commitBody struct {
	CustomerName string `json:"customerName"`
}

func (h *Handlers) availability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng, err := parseRange(q.Get("checkIn"), q.Get("checkOut"))
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := h.B.Availability(r.Context(), chi.URLParam(r, "id"), rng)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, v)
}

func (h *Handlers) startSession(w http.ResponseWriter, r *http.Request) {
	var in startBody
	if !decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.HotelID) == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "hotelId is required")
		return
	}
	rng, err := parseRange(in.CheckIn, in.CheckOut)
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := h.B.Start(r.Context(), in.HotelID, rng)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+v.ID)
	writeJSON(w, http.StatusCreated, v)
}

func (h *Handlers) getSession(w http.ResponseWriter, r *http.Request) {
	v, err := h.B.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, v)
}

func (h *Handlers) setDates(w http.ResponseWriter, r *http.Request) {
	var in rangeBody
	if !decode(w, r, &in) {
		return
	}
	rng, err := parseRange(in.CheckIn, in.CheckOut)
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := h.B.SetDates(r.Context(), chi.URLParam(r, "id"), rng)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) toggleRoom(w http.ResponseWriter, r *http.Request) {
	var in toggleBody
	if !decode(w, r, &in) {
		return
	}
	if in.RoomNumberID == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "roomNumberId is required")
		return
	}
	v, err := h.B.Toggle(r.Context(), chi.URLParam(r, "id"), in.RoomNumberID, in.Checked)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) commit(w http.ResponseWriter, r *http.Request) {
	var in commitBody
	if !decode(w, r, &in) {
		return
	}
	// a client that hangs up mid-commit must not cut the write sequence short
	timeout := h.CommitTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeout)
	defer cancel()
	res, err := h.B.Commit(ctx, chi.URLParam(r, "id"), domain.Customer{Name: in.CustomerName})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handlers) dismissSession(w http.ResponseWriter, r *http.Request) {
	if err := h.B.Dismiss(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
