package app_test

import (
	"context"
	"sort"
	"testing"

	"travelly_stays/internal/app"
	"travelly_stays/internal/domain"
)

func TestReconciler_RunOnce(t *testing.T) {
	rng := june1to3()
	j := &fakeJournal{pending: []domain.PendingRelease{
		{AttemptID: "a1", RoomNumberID: "R1", Range: rng},
		{AttemptID: "a1", RoomNumberID: "R2", Range: rng},
		{AttemptID: "a2", RoomNumberID: "R3", Range: rng},
	}}
	inv := &fakeInventory{releaseErr: map[string]error{"R2": errBoom}}

	res, err := app.NewReconciler(j, inv, 2).RunOnce(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Scanned != 3 || res.Released != 2 || res.Failed != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	sort.Strings(j.marked)
	if len(j.marked) != 2 || j.marked[0] != "a1/R1" || j.marked[1] != "a2/R3" {
		t.Fatalf("unexpected marked set: %v", j.marked)
	}
}

func TestReconciler_ListError(t *testing.T) {
	j := &fakeJournal{listErr: errBoom}
	if _, err := app.NewReconciler(j, &fakeInventory{}, 0).RunOnce(context.Background(), 10); err == nil {
		t.Fatalf("expected list error")
	}
}
