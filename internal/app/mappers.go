package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"travelly_stays/internal/domain"
)

/********** alias registries (single source of truth) **********/

var roomGroupAliases = map[string][]string{
	"id":          {"_id", "id"},
	"title":       {"title", "name", "type"},
	"description": {"description", "desc"},
}

var roomNumberAliases = map[string][]string{
	"id":     {"_id", "id"},
	"number": {"number", "label", "name"},
}

var legacyHotelAliases = map[string][]string{
	"name": {"name", "title", "hotelName"},
	"city": {"city", "address.city", "location"},
}

var serviceAliases = map[string][]string{
	"name":        {"name", "title", "serviceName"},
	"location":    {"location", "city", "address.city"},
	"description": {"description", "desc"},
}

var serviceRoomAliases = map[string][]string{
	"name":        {"name", "type", "title"},
	"description": {"description", "beds"},
}

var reservationAliases = map[string][]string{
	"id":     {"_id", "id", "reservationId", "confirmationId"},
	"status": {"status", "state"},
}

const (
	defaultRoomTitle = "Standard Room"
	defaultSleeps    = 2

	// upper bound on units fabricated from a service room type's count
	maxServiceUnits = 100
)

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns the string at path, "" when absent. Numeric ids are
// rendered without exponent.
func lookupStr(m map[string]any, path string) string {
	switch v := lookupAny(m, path).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return s
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// firstIntFlexible: int from several paths (float64/int/string).
func firstIntFlexible(m map[string]any, paths ...string) *int {
	if f := getFloatFlexible(m, paths...); f != nil {
		x := int(*f)
		return &x
	}
	return nil
}

// firstSliceStrings: accept []any with either strings or {url/src/name}.
func firstSliceStrings(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		if raw, ok := lookupAny(m, k).([]any); ok {
			out := make([]string, 0, len(raw))
			for _, it := range raw {
				switch t := it.(type) {
				case string:
					if t != "" {
						out = append(out, t)
					}
				case map[string]any:
					if u, ok := t["url"].(string); ok && u != "" {
						out = append(out, u)
						continue
					}
					if u, ok := t["src"].(string); ok && u != "" {
						out = append(out, u)
					}
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

// firstSliceMaps returns the object elements of the first array found.
func firstSliceMaps(m map[string]any, paths ...string) []map[string]any {
	for _, k := range paths {
		raw, ok := lookupAny(m, k).([]any)
		if !ok {
			continue
		}
		out := make([]map[string]any, 0, len(raw))
		for _, it := range raw {
			if obj, ok := it.(map[string]any); ok {
				out = append(out, obj)
			}
		}
		return out
	}
	return nil
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// parseDateFlexible accepts RFC3339 strings, bare dates and epoch milliseconds.
func parseDateFlexible(v any) (time.Time, bool) {
	switch t := v.(type) {
	case float64:
		return time.UnixMilli(int64(t)).UTC(), true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func parseDates(m map[string]any, paths ...string) []time.Time {
	for _, k := range paths {
		raw, ok := lookupAny(m, k).([]any)
		if !ok {
			continue
		}
		out := make([]time.Time, 0, len(raw))
		for _, it := range raw {
			ts, ok := parseDateFlexible(it)
			if !ok {
				log.Warn().Interface("value", it).Msg("skipping unparseable unavailable date")
				continue
			}
			out = append(out, ts)
		}
		return out
	}
	return nil
}

/********** legacy catalog **********/

func mapLegacyRoomTypes(groups []map[string]any) []domain.RoomType {
	out := make([]domain.RoomType, 0, len(groups))
	for _, g := range groups {
		rt := domain.RoomType{
			ID:          firstNonEmptyAlias(g, roomGroupAliases, "id"),
			Title:       firstNonEmptyAlias(g, roomGroupAliases, "title"),
			Description: firstNonEmptyAlias(g, roomGroupAliases, "description"),
		}
		if n := firstIntFlexible(g, "maxPeople", "max_people", "sleeps"); n != nil {
			rt.MaxPeople = *n
		}
		if p := getFloatFlexible(g, "price", "pricePerNight", "price_per_night"); p != nil {
			rt.Price = *p
		}
		for _, rn := range firstSliceMaps(g, "roomNumbers", "room_numbers") {
			rt.RoomNumbers = append(rt.RoomNumbers, domain.RoomNumber{
				ID:               firstNonEmptyAlias(rn, roomNumberAliases, "id"),
				Number:           firstNonEmptyAlias(rn, roomNumberAliases, "number"),
				UnavailableDates: parseDates(rn, "unavailableDates", "unavailable_dates"),
			})
		}
		out = append(out, rt)
	}
	return out
}

// mapLegacyHotel builds the hotel from optional metadata; meta may be nil.
func mapLegacyHotel(hotelID string, meta map[string]any) domain.Hotel {
	h := domain.Hotel{ID: hotelID}
	if meta == nil {
		return h
	}
	h.Name = firstNonEmptyAlias(meta, legacyHotelAliases, "name")
	h.City = firstNonEmptyAlias(meta, legacyHotelAliases, "city")
	if p := getFloatFlexible(meta, "cheapestPrice", "price"); p != nil {
		h.Price = *p
	}
	h.Images = firstSliceStrings(meta, "photos", "images")
	return h
}

/********** service catalog **********/

// serviceRecord unwraps the {success, data} envelope. A payload without an
// envelope is taken as the record itself.
func serviceRecord(payload map[string]any) (map[string]any, bool) {
	if payload == nil {
		return nil, false
	}
	if ok, present := payload["success"].(bool); present && !ok {
		return nil, false
	}
	if data, ok := payload["data"].(map[string]any); ok {
		return data, true
	}
	if _, enveloped := payload["success"]; enveloped {
		return nil, false
	}
	return payload, true
}

func mapServiceInventory(hotelID string, rec map[string]any) *domain.ServiceInventory {
	h := domain.Hotel{
		ID:     hotelID,
		Name:   firstNonEmptyAlias(rec, serviceAliases, "name"),
		City:   firstNonEmptyAlias(rec, serviceAliases, "location"),
		Images: firstSliceStrings(rec, "images", "photos"),
	}
	if p := getFloatFlexible(rec, "price", "pricePerNight"); p != nil {
		h.Price = *p
	}
	desc := firstNonEmptyAlias(rec, serviceAliases, "description")

	configs := firstSliceMaps(rec, "roomTypes", "room_types")
	if len(configs) == 0 {
		return domain.NewServiceInventory(h, []domain.RoomType{{
			ID:          hotelID + "-standard",
			Title:       defaultRoomTitle,
			Description: desc,
			MaxPeople:   defaultSleeps,
			Price:       h.Price,
			RoomNumbers: []domain.RoomNumber{{ID: hotelID + "-standard-1", Number: defaultRoomTitle + " 1"}},
		}})
	}

	types := make([]domain.RoomType, 0, len(configs))
	for i, cfg := range configs {
		name := firstNonEmptyAlias(cfg, serviceRoomAliases, "name")
		if name == "" {
			name = defaultRoomTitle
		}
		rt := domain.RoomType{
			ID:          fmt.Sprintf("%s-rt-%d", hotelID, i+1),
			Title:       name,
			Description: firstNonEmptyAlias(cfg, serviceRoomAliases, "description"),
			MaxPeople:   defaultSleeps,
			Price:       h.Price,
		}
		if n := firstIntFlexible(cfg, "sleeps", "maxPeople"); n != nil {
			rt.MaxPeople = *n
		}
		if p := getFloatFlexible(cfg, "pricePerNight", "price_per_night", "price"); p != nil {
			rt.Price = *p
		}
		count := 1
		if n := firstIntFlexible(cfg, "availableRooms", "available_rooms"); n != nil && *n > 0 {
			count = *n
		}
		if count > maxServiceUnits {
			log.Warn().Str("hotel", hotelID).Str("roomType", name).Int("availableRooms", count).
				Int("cap", maxServiceUnits).Msg("capping service room units")
			count = maxServiceUnits
		}
		for n := 1; n <= count; n++ {
			rt.RoomNumbers = append(rt.RoomNumbers, domain.RoomNumber{
				ID:     fmt.Sprintf("%s-%d", rt.ID, n),
				Number: fmt.Sprintf("%s %d", name, n),
			})
		}
		types = append(types, rt)
	}
	return domain.NewServiceInventory(h, types)
}

/********** reservation response **********/

// mapReservation merges the server's answer over the draft that was sent.
func mapReservation(payload map[string]any, d domain.ReservationDraft) domain.Reservation {
	res := domain.Reservation{
		HotelID:      d.HotelID,
		HotelName:    d.HotelName,
		CustomerName: d.CustomerName,
		CheckIn:      d.Range.CheckIn,
		CheckOut:     d.Range.CheckOut,
		TotalPrice:   d.TotalPrice,
		Nights:       d.Nights,
		Origin:       d.Origin,
		RoomCount:    d.RoomCount,
	}
	if payload == nil {
		return res
	}
	rec := payload
	if data, ok := payload["data"].(map[string]any); ok {
		rec = data
	}
	res.ID = firstNonEmptyAlias(rec, reservationAliases, "id")
	res.Status = firstNonEmptyAlias(rec, reservationAliases, "status")
	if p := getFloatFlexible(rec, "totalPrice"); p != nil {
		res.TotalPrice = *p
	}
	return res
}
