package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"travelly_stays/internal/domain"
)

// BookingService drives one booking attempt per session: the inventory is
// resolved once at Start and pinned to the session, so the origin cannot
// change while the caller selects rooms.
type BookingService struct {
	resolver  *Resolver
	committer *Committer
	sessions  domain.Cache
	ttl       time.Duration
	now       func() time.Time
}

func NewBookingService(r *Resolver, c *Committer, sessions domain.Cache, ttl time.Duration) *BookingService {
	return &BookingService{resolver: r, committer: c, sessions: sessions, ttl: ttl, now: time.Now}
}

type RoomView struct {
	ID         string  `json:"id"`
	Number     string  `json:"number"`
	RoomTypeID string  `json:"roomTypeId"`
	RoomType   string  `json:"roomType"`
	MaxPeople  int     `json:"maxPeople"`
	Price      float64 `json:"price"`
	Available  bool    `json:"available"`
	Selected   bool    `json:"selected"`
}

type SessionView struct {
	ID        string              `json:"id,omitempty"`
	HotelID   string              `json:"hotelId"`
	HotelName string              `json:"hotelName"`
	City      string              `json:"city,omitempty"`
	Origin    domain.Origin       `json:"origin"`
	CheckIn   string              `json:"checkIn"`
	CheckOut  string              `json:"checkOut"`
	Nights    int                 `json:"nights"`
	Rooms     []RoomView          `json:"rooms"`
	Selection domain.SelectionSet `json:"selection"`
	Total     float64             `json:"total"`
}

func sessionKey(id string) string { return fmt.Sprintf("session:%s", id) }

// Start resolves hotelID and opens a session for the given dates.
func (s *BookingService) Start(ctx context.Context, hotelID string, rng domain.DateRange) (SessionView, error) {
	if err := rng.Validate(); err != nil {
		return SessionView{}, err
	}
	inv, err := s.resolver.Resolve(ctx, hotelID)
	if err != nil {
		return SessionView{}, err
	}
	sess := domain.Session{
		ID:        uuid.NewString(),
		Inventory: domain.Snapshot(inv),
		Range:     rng,
		Selection: domain.SelectionSet{},
		CreatedAt: s.now().UTC(),
	}
	if err := s.save(ctx, sess); err != nil {
		return SessionView{}, err
	}
	return buildView(sess.ID, inv, rng, sess.Selection), nil
}

// Availability resolves hotelID and flags its rooms without opening a session.
func (s *BookingService) Availability(ctx context.Context, hotelID string, rng domain.DateRange) (SessionView, error) {
	if err := rng.Validate(); err != nil {
		return SessionView{}, err
	}
	inv, err := s.resolver.Resolve(ctx, hotelID)
	if err != nil {
		return SessionView{}, err
	}
	return buildView("", inv, rng, nil), nil
}

func (s *BookingService) Get(ctx context.Context, id string) (SessionView, error) {
	sess, inv, err := s.load(ctx, id)
	if err != nil {
		return SessionView{}, err
	}
	return buildView(sess.ID, inv, sess.Range, sess.Selection), nil
}

// SetDates changes the requested range. Selected rooms that are not
// available for the new range are dropped from the selection.
func (s *BookingService) SetDates(ctx context.Context, id string, rng domain.DateRange) (SessionView, error) {
	if err := rng.Validate(); err != nil {
		return SessionView{}, err
	}
	sess, inv, err := s.load(ctx, id)
	if err != nil {
		return SessionView{}, err
	}
	days := rng.Days()
	kept := domain.SelectionSet{}
	for _, rid := range sess.Selection {
		if rn, _, ok := domain.FindRoom(inv, rid); ok && domain.IsAvailable(inv, rn, days) {
			kept = append(kept, rid)
		}
	}
	sess.Range = rng
	sess.Selection = kept
	if err := s.save(ctx, sess); err != nil {
		return SessionView{}, err
	}
	return buildView(sess.ID, inv, sess.Range, sess.Selection), nil
}

// Toggle adds or removes a room. Adding an unavailable room leaves the
// selection untouched and reports ErrRoomUnavailable.
func (s *BookingService) Toggle(ctx context.Context, id, roomNumberID string, checked bool) (SessionView, error) {
	sess, inv, err := s.load(ctx, id)
	if err != nil {
		return SessionView{}, err
	}
	rn, _, ok := domain.FindRoom(inv, roomNumberID)
	if !ok {
		return SessionView{}, fmt.Errorf("%w: %s", domain.ErrUnknownRoom, roomNumberID)
	}
	if checked && !domain.IsAvailable(inv, rn, sess.Range.Days()) {
		return SessionView{}, fmt.Errorf("%w: %s", domain.ErrRoomUnavailable, roomNumberID)
	}
	sess.Selection.Toggle(roomNumberID, checked)
	if err := s.save(ctx, sess); err != nil {
		return SessionView{}, err
	}
	return buildView(sess.ID, inv, sess.Range, sess.Selection), nil
}

// Commit submits the session's selection. The session is cleared on
// success and kept on failure so the caller can re-submit.
func (s *BookingService) Commit(ctx context.Context, id string, customer domain.Customer) (domain.Reservation, error) {
	sess, inv, err := s.load(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	res, err := s.committer.Commit(ctx, CommitRequest{
		Inventory: inv,
		Selection: sess.Selection,
		Range:     sess.Range,
		Customer:  customer,
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	_ = s.sessions.Del(ctx, sessionKey(id))
	return res, nil
}

// Dismiss drops the session and its selection.
func (s *BookingService) Dismiss(ctx context.Context, id string) error {
	return s.sessions.Del(ctx, sessionKey(id))
}

func (s *BookingService) load(ctx context.Context, id string) (domain.Session, domain.Inventory, error) {
	var sess domain.Session
	ok, err := s.sessions.Get(ctx, sessionKey(id), &sess)
	if err != nil {
		return domain.Session{}, nil, err
	}
	if !ok {
		return domain.Session{}, nil, domain.ErrSessionNotFound
	}
	inv, err := sess.Inventory.Restore()
	if err != nil {
		return domain.Session{}, nil, err
	}
	return sess, inv, nil
}

func (s *BookingService) save(ctx context.Context, sess domain.Session) error {
	return s.sessions.Set(ctx, sessionKey(sess.ID), sess, int(s.ttl.Seconds()))
}

func buildView(id string, inv domain.Inventory, rng domain.DateRange, sel domain.SelectionSet) SessionView {
	h := inv.Hotel()
	nights := rng.Nights()
	v := SessionView{
		ID:        id,
		HotelID:   h.ID,
		HotelName: h.Name,
		City:      h.City,
		Origin:    inv.Origin(),
		CheckIn:   rng.CheckIn.Format(time.DateOnly),
		CheckOut:  rng.CheckOut.Format(time.DateOnly),
		Nights:    nights,
		Selection: sel,
		Total:     domain.ComputeTotal(sel, inv.RoomTypes(), nights),
	}
	if v.Selection == nil {
		v.Selection = domain.SelectionSet{}
	}
	titles := make(map[string]domain.RoomType, len(inv.RoomTypes()))
	for _, rt := range inv.RoomTypes() {
		titles[rt.ID] = rt
	}
	for _, ra := range domain.Availability(inv, rng.Days()) {
		rt := titles[ra.RoomTypeID]
		v.Rooms = append(v.Rooms, RoomView{
			ID:         ra.Room.ID,
			Number:     ra.Room.Number,
			RoomTypeID: ra.RoomTypeID,
			RoomType:   rt.Title,
			MaxPeople:  rt.MaxPeople,
			Price:      ra.Price,
			Available:  ra.Available,
			Selected:   sel.Has(ra.Room.ID),
		})
	}
	return v
}
