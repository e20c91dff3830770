package domain

import (
	"context"
	"time"
)

// CatalogClient reads the two hotel catalogs. Payloads are returned raw;
// normalization happens in the resolver.
type CatalogClient interface {
	LegacyRooms(ctx context.Context, hotelID string) ([]map[string]any, error)
	LegacyHotel(ctx context.Context, hotelID string) (map[string]any, error)
	ServiceHotel(ctx context.Context, hotelID string) (map[string]any, error)
	ServiceDetails(ctx context.Context, hotelID string) (map[string]any, error)
}

// InventoryService owns RoomNumber.UnavailableDates.
type InventoryService interface {
	MarkUnavailable(ctx context.Context, roomNumberID string, days []time.Time) error
	ReleaseDates(ctx context.Context, roomNumberID string, days []time.Time) error
}

type ReservationService interface {
	CreateReservation(ctx context.Context, d ReservationDraft) (map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type CommitJournal interface {
	BeginAttempt(ctx context.Context, a CommitAttempt) error
	FinishAttempt(ctx context.Context, a CommitAttempt, locks []LockOutcome) error
	PendingReleases(ctx context.Context, limit int) ([]PendingRelease, error)
	MarkReleased(ctx context.Context, attemptID, roomNumberID string) error
}
