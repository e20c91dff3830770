package domain

import "time"

type RoomAvailability struct {
	RoomTypeID string
	Room       RoomNumber
	Price      float64
	Available  bool
}

// IsAvailable reports whether room can be booked for every day in days.
// Service-origin rooms carry no per-date state and are always available.
// A legacy room with a single booked day inside days is unavailable for the
// whole range.
func IsAvailable(inv Inventory, room RoomNumber, days []time.Time) bool {
	switch inv.(type) {
	case *ServiceInventory:
		return true
	case *LegacyInventory:
		return !overlaps(room.UnavailableDates, days)
	default:
		return false
	}
}

// Availability flags every room unit of inv against days, in catalog order.
func Availability(inv Inventory, days []time.Time) []RoomAvailability {
	var out []RoomAvailability
	for _, rt := range inv.RoomTypes() {
		for _, rn := range rt.RoomNumbers {
			out = append(out, RoomAvailability{
				RoomTypeID: rt.ID,
				Room:       rn,
				Price:      rt.Price,
				Available:  IsAvailable(inv, rn, days),
			})
		}
	}
	return out
}

func overlaps(booked, days []time.Time) bool {
	if len(booked) == 0 || len(days) == 0 {
		return false
	}
	want := make(map[time.Time]struct{}, len(days))
	for _, d := range days {
		want[Day(d)] = struct{}{}
	}
	for _, b := range booked {
		if _, ok := want[Day(b)]; ok {
			return true
		}
	}
	return false
}
