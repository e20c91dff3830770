package domain

import "time"

// Session is one booking attempt: the pinned inventory resolution, the
// requested dates and the caller's selection. It is never persisted beyond
// its TTL.
type Session struct {
	ID        string            `json:"id"`
	Inventory InventorySnapshot `json:"inventory"`
	Range     DateRange         `json:"range"`
	Selection SelectionSet      `json:"selection"`
	CreatedAt time.Time         `json:"createdAt"`
}
