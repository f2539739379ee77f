package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"timekit/internal/bootstrap"
	timerdto "timekit/internal/modules/timer/dto"
	widgetdto "timekit/internal/modules/widget/dto"
	"timekit/internal/platform/durfmt"
)

// newStartCmd builds "<widget> start" commands that only differ in how the
// timer is started.
func newStartCmd(opts *rootOptions, use, short, startUse string, start func(cmd *cobra.Command, app *bootstrap.App, key string, args []string) (timerdto.TimerOutput, error), args cobra.PositionalArgs) *cobra.Command {
	var key string
	parent := &cobra.Command{Use: use, Short: short}
	startCmd := &cobra.Command{
		Use:   startUse,
		Short: "Start a new session",
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(app *bootstrap.App) error {
				out, err := start(cmd, app, key, args)
				if err != nil {
					return err
				}
				printTimer(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	startCmd.Flags().StringVar(&key, "key", "", "timer key (defaults to the widget name)")
	parent.AddCommand(startCmd)
	return parent
}

func newCountdownCmd(opts *rootOptions) *cobra.Command {
	return newStartCmd(opts, "countdown", "Single-phase countdown", "start <duration>",
		func(cmd *cobra.Command, app *bootstrap.App, key string, args []string) (timerdto.TimerOutput, error) {
			d, err := time.ParseDuration(args[0])
			if err != nil {
				return timerdto.TimerOutput{}, fmt.Errorf("invalid duration %q: %w", args[0], err)
			}
			return app.WidgetCLI.StartCountdown(cmd.Context(), key, d)
		}, cobra.ExactArgs(1))
}

func newStopwatchCmd(opts *rootOptions) *cobra.Command {
	return newStartCmd(opts, "stopwatch", "Open-ended stopwatch", "start",
		func(cmd *cobra.Command, app *bootstrap.App, key string, _ []string) (timerdto.TimerOutput, error) {
			return app.WidgetCLI.StartStopwatch(cmd.Context(), key)
		}, cobra.NoArgs)
}

func newPomodoroCmd(opts *rootOptions) *cobra.Command {
	return newStartCmd(opts, "pomodoro", "Work and break cycles", "start",
		func(cmd *cobra.Command, app *bootstrap.App, key string, _ []string) (timerdto.TimerOutput, error) {
			return app.WidgetCLI.StartPomodoro(cmd.Context(), key)
		}, cobra.NoArgs)
}

func newCouplesCmd(opts *rootOptions) *cobra.Command {
	return newStartCmd(opts, "couples", "Five-phase couples session", "start",
		func(cmd *cobra.Command, app *bootstrap.App, key string, _ []string) (timerdto.TimerOutput, error) {
			return app.WidgetCLI.StartCouples(cmd.Context(), key)
		}, cobra.NoArgs)
}

func newPresetCmd(opts *rootOptions) *cobra.Command {
	preset := &cobra.Command{Use: "preset", Short: "Built-in and user presets"}

	preset.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List presets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *bootstrap.App) error {
				presets, err := app.WidgetCLI.Presets(cmd.Context())
				if err != nil {
					return err
				}
				for _, p := range presets {
					origin := "user"
					if p.Builtin {
						origin = "builtin"
					}
					kinds := make([]string, 0, len(p.Phases))
					for _, ph := range p.Phases {
						kinds = append(kinds, ph.Kind)
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%s\n", p.Name, p.Widget, origin, durfmt.Clock(p.Total.Milliseconds(), false), strings.Join(kinds, ","))
				}
				return nil
			})
		},
	})

	var key string
	start := &cobra.Command{
		Use:   "start <name>",
		Short: "Start a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(app *bootstrap.App) error {
				out, err := app.WidgetCLI.StartPreset(cmd.Context(), args[0], key)
				if err != nil {
					return err
				}
				printTimer(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	start.Flags().StringVar(&key, "key", "", "timer key (defaults to the preset name)")
	preset.AddCommand(start)
	return preset
}

func printChess(cmd *cobra.Command, out widgetdto.ChessOutput) {
	w := cmd.OutOrStdout()
	for _, side := range []struct {
		name  string
		timer timerdto.TimerOutput
	}{{"white", out.White}, {"black", out.Black}} {
		marker := " "
		if out.Turn == side.name {
			marker = "*"
		}
		_, _ = fmt.Fprintf(w, "%s %s\t%s\t%s\n", marker, side.name, durfmt.Countdown(side.timer.RemainingMs), side.timer.Status)
	}
	if out.Flagged != "" {
		_, _ = fmt.Fprintf(w, "%s flagged\n", out.Flagged)
	}
}

func newChessCmd(opts *rootOptions) *cobra.Command {
	chess := &cobra.Command{Use: "chess", Short: "Two-sided chess clock"}

	run := func(fn func(cmd *cobra.Command, app *bootstrap.App, args []string) (widgetdto.ChessOutput, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(app *bootstrap.App) error {
				out, err := fn(cmd, app, args)
				if err != nil {
					return err
				}
				printChess(cmd, out)
				return nil
			})
		}
	}

	chess.AddCommand(
		&cobra.Command{
			Use:   "start [white|black]",
			Short: "Reset both clocks and start the given side (white by default)",
			Args:  cobra.MaximumNArgs(1),
			RunE: run(func(cmd *cobra.Command, app *bootstrap.App, args []string) (widgetdto.ChessOutput, error) {
				side := ""
				if len(args) == 1 {
					side = args[0]
				}
				return app.WidgetCLI.ChessStart(cmd.Context(), side)
			}),
		},
		&cobra.Command{
			Use:   "switch",
			Short: "End the current move and start the opponent's clock",
			Args:  cobra.NoArgs,
			RunE: run(func(cmd *cobra.Command, app *bootstrap.App, _ []string) (widgetdto.ChessOutput, error) {
				return app.WidgetCLI.ChessSwitch(cmd.Context())
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show both clocks",
			Args:  cobra.NoArgs,
			RunE: run(func(cmd *cobra.Command, app *bootstrap.App, _ []string) (widgetdto.ChessOutput, error) {
				return app.WidgetCLI.ChessStatus(cmd.Context())
			}),
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Reset both clocks",
			Args:  cobra.NoArgs,
			RunE: run(func(cmd *cobra.Command, app *bootstrap.App, _ []string) (widgetdto.ChessOutput, error) {
				return app.WidgetCLI.ChessReset(cmd.Context())
			}),
		},
	)
	return chess
}

func printBeat(cmd *cobra.Command, b widgetdto.BeatOutput) {
	accent := ""
	if b.Accent {
		accent = " accent"
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d bpm\tbar %d beat %d/%d%s\tnext in %s\n",
		b.BPM, b.Bar, b.BeatInBar, b.BeatsPerBar, accent, b.UntilNext.Round(time.Millisecond))
}

func newMetronomeCmd(opts *rootOptions) *cobra.Command {
	metronome := &cobra.Command{Use: "metronome", Short: "Beat counter driven by the wall clock"}

	var bpm, beats int
	start := &cobra.Command{
		Use:   "start",
		Short: "Start the metronome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *bootstrap.App) error {
				out, err := app.WidgetCLI.MetronomeStart(cmd.Context(), bpm, beats)
				if err != nil {
					return err
				}
				printBeat(cmd, out)
				return nil
			})
		},
	}
	start.Flags().IntVar(&bpm, "bpm", 0, "beats per minute (default from config)")
	start.Flags().IntVar(&beats, "beats", 0, "beats per bar (default from config)")

	beat := &cobra.Command{
		Use:   "beat",
		Short: "Show the current beat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *bootstrap.App) error {
				out, err := app.WidgetCLI.MetronomeBeat(cmd.Context())
				if err != nil {
					return err
				}
				printBeat(cmd, out)
				return nil
			})
		},
	}
	metronome.AddCommand(start, beat)
	return metronome
}

func newAlarmCmd(opts *rootOptions) *cobra.Command {
	alarm := &cobra.Command{Use: "alarm", Short: "Wall-clock alarms"}

	var zone string
	var weekdays []string
	set := &cobra.Command{
		Use:   "set HH:MM",
		Short: "Arm an alarm for the next occurrence of HH:MM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(app *bootstrap.App) error {
				out, err := app.WidgetCLI.SetAlarm(cmd.Context(), args[0], zone, weekdays)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s rings %s (%s)\n", out.Key, out.At.Format("Mon 2006-01-02 15:04 MST"), humanize.Time(out.At))
				return nil
			})
		},
	}
	set.Flags().StringVar(&zone, "zone", "", "IANA time zone (default local)")
	set.Flags().StringSliceVar(&weekdays, "weekdays", nil, "restrict to weekdays, e.g. mon,tue,fri")
	alarm.AddCommand(set)
	return alarm
}

func newWorldClockCmd(opts *rootOptions) *cobra.Command {
	worldclock := &cobra.Command{
		Use:   "worldclock [zones...]",
		Short: "Show the time in several zones",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(app *bootstrap.App) error {
				zones, err := app.WidgetCLI.WorldClock(cmd.Context(), args)
				if err != nil {
					return err
				}
				for _, z := range zones {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", z.Zone, z.Local.Format("Mon 15:04"), z.Abbrev, formatOffset(z.Offset))
				}
				return nil
			})
		},
	}
	worldclock.AddCommand(&cobra.Command{
		Use:   "offset <from> <to>",
		Short: "Offset of one zone relative to another right now",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(app *bootstrap.App) error {
				d, err := app.WidgetCLI.ZoneOffset(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is %s relative to %s\n", args[1], formatOffset(d), args[0])
				return nil
			})
		},
	})
	return worldclock
}

func formatOffset(d time.Duration) string {
	sign := "+"
	if d < 0 {
		sign = "-"
		d = -d
	}
	minutes := int(d / time.Minute)
	return fmt.Sprintf("%s%02d:%02d", sign, minutes/60, minutes%60)
}
