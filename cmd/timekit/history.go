package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"timekit/internal/bootstrap"
	"timekit/internal/platform/durfmt"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	history := &cobra.Command{Use: "history", Short: "Finished phases and sessions"}

	var key string
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "Show recent history, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *bootstrap.App) error {
				entries, err := app.HistoryCLI.List(cmd.Context(), key, limit)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no history")
					return nil
				}
				for _, e := range entries {
					what := e.PhaseKind
					if e.Type == "session" {
						what = "session finished"
					}
					if e.Skipped {
						what += " (skipped)"
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", humanize.Time(e.At), e.Key, what, durfmt.Clock(e.Elapsed.Milliseconds(), false))
				}
				return nil
			})
		},
	}
	list.Flags().StringVar(&key, "key", "", "only this timer")
	list.Flags().IntVar(&limit, "limit", 0, "maximum entries (default 50)")

	var since string
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Total time per phase kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *bootstrap.App) error {
				from, err := parseSince(since, app.Clock.Now())
				if err != nil {
					return err
				}
				rows, err := app.HistoryCLI.Stats(cmd.Context(), from)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "since %s (%s)\n", from.Local().Format("2006-01-02 15:04"), humanize.Time(from))
				for _, r := range rows {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s phases\n", r.PhaseKind, durfmt.Clock(r.Total.Milliseconds(), false), humanize.Comma(int64(r.Count)))
				}
				return nil
			})
		},
	}
	stats.Flags().StringVar(&since, "since", "168h", "a duration back from now or a date (YYYY-MM-DD)")

	history.AddCommand(list, stats)
	return history
}

func parseSince(value string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(value); err == nil {
		return now.Add(-d), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", value, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --since %q: want a duration like 24h or a date like 2026-01-31", value)
}
