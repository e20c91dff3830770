package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"travelly_stays/internal/adapters/backend"
	"travelly_stays/internal/app"
	"travelly_stays/internal/domain"
	"travelly_stays/internal/shared"
)

func newInventoryCmd() *cobra.Command {
	var (
		checkIn  string
		checkOut string
		asJSON   bool
	)
	c := &cobra.Command{
		Use:   "inventory <hotelId>",
		Short: "Resolve a hotel and print per-room availability for a stay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := shared.Load()
			in, err := time.Parse(time.DateOnly, checkIn)
			if err != nil {
				return fmt.Errorf("invalid --check-in (want YYYY-MM-DD)")
			}
			out, err := time.Parse(time.DateOnly, checkOut)
			if err != nil {
				return fmt.Errorf("invalid --check-out (want YYYY-MM-DD)")
			}
			rng, err := domain.NewDateRange(in, out)
			if err != nil {
				return err
			}

			client, err := backend.New(cfg.BackendBase, cfg.BackendKey, cfg.BackendRPS)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			// stateless: no session store or committer is needed
			b := app.NewBookingService(app.NewResolver(client), nil, nil, 0)
			v, err := b.Availability(ctx, args[0], rng)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(v)
			}
			printAvailability(cmd.OutOrStdout(), v)
			return nil
		},
	}
	c.Flags().StringVar(&checkIn, "check-in", "", "check-in date YYYY-MM-DD")
	c.Flags().StringVar(&checkOut, "check-out", "", "check-out date YYYY-MM-DD")
	c.Flags().BoolVar(&asJSON, "json", false, "print the raw view as JSON")
	_ = c.MarkFlagRequired("check-in")
	_ = c.MarkFlagRequired("check-out")
	return c
}

func printAvailability(w io.Writer, v app.SessionView) {
	fmt.Fprintf(w, "%s (%s) origin=%s nights=%d %s..%s\n", v.HotelName, v.HotelID, v.Origin, v.Nights, v.CheckIn, v.CheckOut)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROOM\tNUMBER\tTYPE\tPRICE\tAVAILABLE")
	for _, r := range v.Rooms {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%t\n", r.ID, r.Number, r.RoomType, r.Price, r.Available)
	}
	_ = tw.Flush()
}
