package domain

import "time"

type Customer struct {
	Name string
}

// ReservationDraft is the denormalized summary sent to the reservation
// service: a room count, not the room identifiers.
type ReservationDraft struct {
	HotelID      string
	HotelName    string
	CustomerName string
	Range        DateRange
	TotalPrice   float64
	Nights       int
	Origin       Origin
	RoomCount    int
}

// Reservation is the created reservation as surfaced to the caller.
// ID and Status are server-assigned and may be empty.
type Reservation struct {
	ID           string    `json:"id,omitempty"`
	Status       string    `json:"status,omitempty"`
	HotelID      string    `json:"hotelId"`
	HotelName    string    `json:"hotelName"`
	CustomerName string    `json:"customerName"`
	CheckIn      time.Time `json:"checkIn"`
	CheckOut     time.Time `json:"checkOut"`
	TotalPrice   float64   `json:"totalPrice"`
	Nights       int       `json:"nights"`
	Origin       Origin    `json:"origin"`
	RoomCount    int       `json:"roomCount"`
}

type LockState string

const (
	LockLocked         LockState = "locked"
	LockFailed         LockState = "lock_failed"
	LockReleased       LockState = "released"
	LockPendingRelease LockState = "pending_release"
)

// LockOutcome is the per-room result of the inventory-update batch.
type LockOutcome struct {
	RoomNumberID string    `json:"roomNumberId"`
	State        LockState `json:"state"`
	Message      string    `json:"message,omitempty"`
}

type AttemptStatus string

const (
	AttemptPending   AttemptStatus = "pending"
	AttemptCommitted AttemptStatus = "committed"
	AttemptFailed    AttemptStatus = "failed"
)

// CommitAttempt is one journaled run of the commit protocol.
type CommitAttempt struct {
	ID            string
	HotelID       string
	HotelName     string
	Origin        Origin
	CustomerName  string
	Range         DateRange
	Nights        int
	TotalPrice    float64
	RoomCount     int
	Status        AttemptStatus
	ErrorKind     string
	ErrorMessage  string
	ReservationID string
}

// PendingRelease is a lock that compensation could not undo.
type PendingRelease struct {
	AttemptID    string
	RoomNumberID string
	Range        DateRange
}
