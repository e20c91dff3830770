package domain

import "time"

const day = 24 * time.Hour

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ExpandRange returns every calendar day from checkIn through checkOut,
// both inclusive. Ordering is not checked here: an inverted or zero range
// expands to nothing.
func ExpandRange(checkIn, checkOut time.Time) []time.Time {
	if checkIn.IsZero() || checkOut.IsZero() {
		return nil
	}
	start, end := Day(checkIn), Day(checkOut)
	if end.Before(start) {
		return nil
	}
	out := make([]time.Time, 0, int(end.Sub(start)/day)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// DateRange is a check-in/check-out pair at day granularity.
type DateRange struct {
	CheckIn  time.Time `json:"checkIn"`
	CheckOut time.Time `json:"checkOut"`
}

func NewDateRange(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.CheckIn.IsZero() || dr.CheckOut.IsZero() {
		return ErrMalformedDateRange
	}
	if !Day(dr.CheckOut).After(Day(dr.CheckIn)) {
		return ErrMalformedDateRange
	}
	return nil
}

// Nights is the number of calendar days between check-in and check-out.
// Inverted ranges give a negative count.
func (dr DateRange) Nights() int {
	return int(Day(dr.CheckOut).Sub(Day(dr.CheckIn)) / day)
}

func (dr DateRange) Days() []time.Time {
	return ExpandRange(dr.CheckIn, dr.CheckOut)
}
