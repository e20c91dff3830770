package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"travelly_stays/internal/domain"
)

type Resolver struct {
	catalog domain.CatalogClient
}

func NewResolver(c domain.CatalogClient) *Resolver {
	return &Resolver{catalog: c}
}

// Resolve finds which catalog holds hotelID and normalizes it. The legacy
// per-room catalog is tried first; the service catalog is consulted only when
// the legacy one has no room groups for the hotel.
func (r *Resolver) Resolve(ctx context.Context, hotelID string) (domain.Inventory, error) {
	if hotelID == "" {
		return nil, &domain.ResolutionError{HotelID: hotelID}
	}

	// 1) Legacy rooms. Any failure or an empty list falls through.
	groups, err := r.catalog.LegacyRooms(ctx, hotelID)
	if err == nil && len(groups) > 0 {
		meta, merr := r.catalog.LegacyHotel(ctx, hotelID)
		if merr != nil {
			// metadata is decoration only; proceed with what we have
			log.Warn().Str("hotel", hotelID).Err(merr).Msg("legacy hotel metadata unavailable")
			meta = nil
		}
		return domain.NewLegacyInventory(mapLegacyHotel(hotelID, meta), mapLegacyRoomTypes(groups)), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	last := err

	// 2) Service catalog: specific endpoint, then the generic details one.
	for _, fetch := range []func(context.Context, string) (map[string]any, error){
		r.catalog.ServiceHotel,
		r.catalog.ServiceDetails,
	} {
		payload, err := fetch(ctx, hotelID)
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return nil, cerr
			}
			last = err
			continue
		}
		rec, ok := serviceRecord(payload)
		if !ok {
			last = fmt.Errorf("service catalog answered without data for %s: %w", hotelID, domain.ErrNotFound)
			continue
		}
		return mapServiceInventory(hotelID, rec), nil
	}

	// 3) Both catalogs exhausted.
	if last == nil {
		last = errors.New("legacy catalog returned no rooms")
	}
	return nil, &domain.ResolutionError{HotelID: hotelID, Err: last}
}
