package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"travelly_stays/internal/domain"
	"travelly_stays/internal/shared"
)

func newAttemptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attempt <attemptId>",
		Short: "Show a journaled commit attempt and its per-room lock report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := shared.Load()
			journal, db, err := openJournal(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			a, locks, err := journal.GetAttempt(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printAttempt(cmd.OutOrStdout(), a, locks)
			return nil
		},
	}
}

func printAttempt(w io.Writer, a domain.CommitAttempt, locks []domain.LockOutcome) {
	fmt.Fprintf(w, "attempt %s status=%s hotel=%s origin=%s %s..%s total=%.2f\n",
		a.ID, a.Status, a.HotelID, a.Origin,
		a.Range.CheckIn.Format(time.DateOnly), a.Range.CheckOut.Format(time.DateOnly), a.TotalPrice)
	if a.ErrorKind != "" {
		fmt.Fprintf(w, "error: %s: %s\n", a.ErrorKind, a.ErrorMessage)
	}
	if a.ReservationID != "" {
		fmt.Fprintf(w, "reservation: %s\n", a.ReservationID)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROOM\tSTATE\tMESSAGE")
	for _, l := range locks {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", l.RoomNumberID, l.State, l.Message)
	}
	_ = tw.Flush()
}
