package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"travelly_stays/internal/adapters/observability"
	"travelly_stays/internal/domain"
)

// Reconciler retries releases that commit compensation could not complete.
type Reconciler struct {
	journal   domain.CommitJournal
	inventory domain.InventoryService
	workers   int
}

func NewReconciler(j domain.CommitJournal, inv domain.InventoryService, workers int) *Reconciler {
	if workers <= 0 {
		workers = 4
	}
	return &Reconciler{journal: j, inventory: inv, workers: workers}
}

type ReconcileResult struct {
	Scanned  int
	Released int
	Failed   int
}

// RunOnce processes up to limit pending releases.
func (r *Reconciler) RunOnce(ctx context.Context, limit int) (ReconcileResult, error) {
	pending, err := r.journal.PendingReleases(ctx, limit)
	if err != nil {
		return ReconcileResult{}, err
	}

	var released, failed int64
	sem := semaphore.NewWeighted(int64(r.workers))
	var wg sync.WaitGroup

	for _, p := range pending {
		p := p

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			if err := r.inventory.ReleaseDates(ctx, p.RoomNumberID, p.Range.Days()); err != nil {
				atomic.AddInt64(&failed, 1)
				observability.ObserveRelease("reconciler", "pending")
				log.Warn().Str("attempt", p.AttemptID).Str("room", p.RoomNumberID).Err(err).Msg("release still failing")
				return
			}
			if err := r.journal.MarkReleased(ctx, p.AttemptID, p.RoomNumberID); err != nil {
				// released upstream but not recorded; next pass releases again
				atomic.AddInt64(&failed, 1)
				log.Warn().Str("attempt", p.AttemptID).Str("room", p.RoomNumberID).Err(err).Msg("mark released failed")
				return
			}
			atomic.AddInt64(&released, 1)
			observability.ObserveRelease("reconciler", "released")
		}()
	}

	wg.Wait()
	res := ReconcileResult{Scanned: len(pending), Released: int(released), Failed: int(failed)}
	return res, ctx.Err()
}
