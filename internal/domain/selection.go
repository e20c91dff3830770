package domain

// SelectionSet holds the chosen room-number ids in selection order.
type SelectionSet []string

func (s SelectionSet) Has(id string) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

func (s SelectionSet) Len() int { return len(s) }

// Toggle adds id when checked and removes it otherwise.
func (s *SelectionSet) Toggle(id string, checked bool) {
	if checked {
		if !s.Has(id) {
			*s = append(*s, id)
		}
		return
	}
	out := (*s)[:0]
	for _, v := range *s {
		if v != id {
			out = append(out, v)
		}
	}
	*s = out
}

// ComputeTotal sums the nightly price of the owning room type of every
// selected room and multiplies by nights. Non-positive nights give zero.
func ComputeTotal(sel SelectionSet, roomTypes []RoomType, nights int) float64 {
	if nights <= 0 || len(sel) == 0 {
		return 0
	}
	var perNight float64
	for _, rt := range roomTypes {
		for _, rn := range rt.RoomNumbers {
			if sel.Has(rn.ID) {
				perNight += rt.Price
			}
		}
	}
	return perNight * float64(nights)
}
