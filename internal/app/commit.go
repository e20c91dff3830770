package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"travelly_stays/internal/adapters/observability"
	"travelly_stays/internal/domain"
)

type CommitRequest struct {
	Inventory domain.Inventory
	Selection domain.SelectionSet
	Range     domain.DateRange
	Customer  domain.Customer
}

// Committer runs the two-step write: mark the selected legacy rooms
// unavailable, then create the reservation. With compensation enabled, locks
// that succeeded are released again when a later step fails.
type Committer struct {
	inventory    domain.InventoryService
	reservations domain.ReservationService
	journal      domain.CommitJournal // optional
	compensate   bool

	// bounds releases and journal writes, which outlive the caller's context
	cleanupTimeout time.Duration
}

func NewCommitter(inv domain.InventoryService, rs domain.ReservationService, j domain.CommitJournal, compensate bool) *Committer {
	return &Committer{inventory: inv, reservations: rs, journal: j, compensate: compensate, cleanupTimeout: 15 * time.Second}
}

// detached keeps ctx values but not its cancellation, so a dropped client
// cannot abort compensation or leave the journal without a record.
func (c *Committer) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.cleanupTimeout)
}

func (c *Committer) Commit(ctx context.Context, req CommitRequest) (domain.Reservation, error) {
	if req.Selection.Len() == 0 {
		return domain.Reservation{}, domain.ErrNoRoomsSelected
	}
	if err := req.Range.Validate(); err != nil {
		return domain.Reservation{}, err
	}
	days := req.Range.Days()
	for _, id := range req.Selection {
		rn, _, ok := domain.FindRoom(req.Inventory, id)
		if !ok {
			return domain.Reservation{}, fmt.Errorf("%w: %s", domain.ErrUnknownRoom, id)
		}
		if !domain.IsAvailable(req.Inventory, rn, days) {
			return domain.Reservation{}, fmt.Errorf("%w: %s", domain.ErrRoomUnavailable, id)
		}
	}

	hotel := req.Inventory.Hotel()
	nights := req.Range.Nights()
	draft := domain.ReservationDraft{
		HotelID:      hotel.ID,
		HotelName:    hotel.Name,
		CustomerName: req.Customer.Name,
		Range:        req.Range,
		TotalPrice:   domain.ComputeTotal(req.Selection, req.Inventory.RoomTypes(), nights),
		Nights:       nights,
		Origin:       req.Inventory.Origin(),
		RoomCount:    req.Selection.Len(),
	}
	attempt := domain.CommitAttempt{
		ID:           uuid.NewString(),
		HotelID:      draft.HotelID,
		HotelName:    draft.HotelName,
		Origin:       draft.Origin,
		CustomerName: draft.CustomerName,
		Range:        draft.Range,
		Nights:       draft.Nights,
		TotalPrice:   draft.TotalPrice,
		RoomCount:    draft.RoomCount,
		Status:       domain.AttemptPending,
	}
	c.begin(ctx, attempt)

	// 1) Inventory locks; only the legacy catalog tracks dates per room.
	var locks []domain.LockOutcome
	switch req.Inventory.(type) {
	case *domain.LegacyInventory:
		var err error
		locks, err = c.lockRooms(ctx, req.Selection, days)
		if err != nil {
			locks = c.release(ctx, locks, days)
			return domain.Reservation{}, c.fail(ctx, attempt, locks, domain.ErrInventoryUpdate, err)
		}
	case *domain.ServiceInventory:
		// nothing to lock
	}

	// 2) Reservation record.
	payload, err := c.reservations.CreateReservation(ctx, draft)
	if err != nil {
		locks = c.release(ctx, locks, days)
		return domain.Reservation{}, c.fail(ctx, attempt, locks, domain.ErrReservationCreation, err)
	}

	res := mapReservation(payload, draft)
	attempt.Status = domain.AttemptCommitted
	attempt.ReservationID = res.ID
	c.finish(ctx, attempt, locks)
	observability.ObserveCommit(string(draft.Origin), "committed")
	return res, nil
}

// lockRooms dispatches one inventory update per room concurrently and waits
// for the whole batch. The returned error is the first failure to arrive;
// the outcomes report every room.
func (c *Committer) lockRooms(ctx context.Context, sel domain.SelectionSet, days []time.Time) ([]domain.LockOutcome, error) {
	out := make([]domain.LockOutcome, len(sel))
	var g errgroup.Group
	for i, id := range sel {
		i, id := i, id
		g.Go(func() error {
			if err := c.inventory.MarkUnavailable(ctx, id, days); err != nil {
				out[i] = domain.LockOutcome{RoomNumberID: id, State: domain.LockFailed, Message: domain.UpstreamMessage(err)}
				return err
			}
			out[i] = domain.LockOutcome{RoomNumberID: id, State: domain.LockLocked}
			return nil
		})
	}
	return out, g.Wait()
}

// release undoes every successful lock. Rooms that cannot be released are
// left pending for the reconciler.
func (c *Committer) release(ctx context.Context, locks []domain.LockOutcome, days []time.Time) []domain.LockOutcome {
	if !c.compensate || len(locks) == 0 {
		return locks
	}
	ctx, cancel := c.detached(ctx)
	defer cancel()
	out := make([]domain.LockOutcome, len(locks))
	copy(out, locks)
	var g errgroup.Group
	for i := range out {
		if out[i].State != domain.LockLocked {
			continue
		}
		i := i
		g.Go(func() error {
			id := out[i].RoomNumberID
			if err := c.inventory.ReleaseDates(ctx, id, days); err != nil {
				log.Warn().Str("room", id).Err(err).Msg("compensation release failed")
				out[i].State = domain.LockPendingRelease
				out[i].Message = domain.UpstreamMessage(err)
				observability.ObserveRelease("compensation", "pending")
				return nil
			}
			out[i].State = domain.LockReleased
			observability.ObserveRelease("compensation", "released")
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (c *Committer) fail(ctx context.Context, a domain.CommitAttempt, locks []domain.LockOutcome, kind, cause error) error {
	cerr := &domain.CommitError{Kind: kind, Message: domain.UpstreamMessage(cause), Locks: locks}
	a.Status = domain.AttemptFailed
	a.ErrorKind = kind.Error()
	a.ErrorMessage = cerr.Message
	c.finish(ctx, a, locks)
	observability.ObserveCommit(string(a.Origin), "failed")
	return cerr
}

func (c *Committer) begin(ctx context.Context, a domain.CommitAttempt) {
	if c.journal == nil {
		return
	}
	ctx, cancel := c.detached(ctx)
	defer cancel()
	if err := c.journal.BeginAttempt(ctx, a); err != nil {
		log.Warn().Str("attempt", a.ID).Err(err).Msg("journal begin failed")
	}
}

func (c *Committer) finish(ctx context.Context, a domain.CommitAttempt, locks []domain.LockOutcome) {
	if c.journal == nil {
		return
	}
	ctx, cancel := c.detached(ctx)
	defer cancel()
	if err := c.journal.FinishAttempt(ctx, a, locks); err != nil {
		log.Warn().Str("attempt", a.ID).Err(err).Msg("journal finish failed")
	}
}
