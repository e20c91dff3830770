package domain

import "time"

// Origin names the catalog a hotel was resolved from.
type Origin string

const (
	OriginLegacy  Origin = "legacy"  // per-room inventory with booked dates
	OriginService Origin = "service" // generic service catalog, no per-date state
)

type Hotel struct {
	ID     string
	Name   string
	City   string
	Price  float64 // base nightly price
	Images []string
}

type RoomType struct {
	ID          string
	Title       string
	Description string
	MaxPeople   int
	Price       float64 // nightly
	RoomNumbers []RoomNumber
}

// RoomNumber is the bookable unit. UnavailableDates is only populated for
// legacy-origin hotels.
type RoomNumber struct {
	ID               string
	Number           string
	UnavailableDates []time.Time
}

// Inventory is the resolved, normalized room inventory of one hotel. The
// concrete type (*LegacyInventory or *ServiceInventory) is the origin tag;
// callers switch on it instead of passing an origin flag around.
type Inventory interface {
	Origin() Origin
	Hotel() Hotel
	RoomTypes() []RoomType
	sealed()
}

type LegacyInventory struct {
	hotel     Hotel
	roomTypes []RoomType
}

func NewLegacyInventory(h Hotel, rts []RoomType) *LegacyInventory {
	return &LegacyInventory{hotel: h, roomTypes: rts}
}

func (l *LegacyInventory) Origin() Origin        { return OriginLegacy }
func (l *LegacyInventory) Hotel() Hotel          { return l.hotel }
func (l *LegacyInventory) RoomTypes() []RoomType { return l.roomTypes }
func (l *LegacyInventory) sealed()               {}

type ServiceInventory struct {
	hotel     Hotel
	roomTypes []RoomType
}

func NewServiceInventory(h Hotel, rts []RoomType) *ServiceInventory {
	return &ServiceInventory{hotel: h, roomTypes: rts}
}

func (s *ServiceInventory) Origin() Origin        { return OriginService }
func (s *ServiceInventory) Hotel() Hotel          { return s.hotel }
func (s *ServiceInventory) RoomTypes() []RoomType { return s.roomTypes }
func (s *ServiceInventory) sealed()               {}

// FindRoom returns the room unit with the given id and its owning room type.
func FindRoom(inv Inventory, roomNumberID string) (RoomNumber, RoomType, bool) {
	for _, rt := range inv.RoomTypes() {
		for _, rn := range rt.RoomNumbers {
			if rn.ID == roomNumberID {
				return rn, rt, true
			}
		}
	}
	return RoomNumber{}, RoomType{}, false
}

// InventorySnapshot is the serializable form of an Inventory, used to pin a
// resolution to a booking session.
type InventorySnapshot struct {
	Origin    Origin     `json:"origin"`
	Hotel     Hotel      `json:"hotel"`
	RoomTypes []RoomType `json:"roomTypes"`
}

func Snapshot(inv Inventory) InventorySnapshot {
	return InventorySnapshot{Origin: inv.Origin(), Hotel: inv.Hotel(), RoomTypes: inv.RoomTypes()}
}

func (s InventorySnapshot) Restore() (Inventory, error) {
	switch s.Origin {
	case OriginLegacy:
		return NewLegacyInventory(s.Hotel, s.RoomTypes), nil
	case OriginService:
		return NewServiceInventory(s.Hotel, s.RoomTypes), nil
	default:
		return nil, ErrUnknownOrigin
	}
}
