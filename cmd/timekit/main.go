package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"timekit/internal/bootstrap"
	timerdto "timekit/internal/modules/timer/dto"
	"timekit/internal/platform/config"
	"timekit/internal/platform/durfmt"
)

type rootOptions struct {
	configFile string
	stateDir   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "timekit",
		Short:         "Wall-clock anchored timers, pomodoros and session clocks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/timekit/config.yaml)")
	root.PersistentFlags().StringVar(&opts.stateDir, "state-dir", "", "directory for timer state, history and logs")

	root.AddCommand(newCountdownCmd(opts))
	root.AddCommand(newStopwatchCmd(opts))
	root.AddCommand(newPomodoroCmd(opts))
	root.AddCommand(newCouplesCmd(opts))
	root.AddCommand(newPresetCmd(opts))
	root.AddCommand(newTimerCmd(opts))
	root.AddCommand(newChessCmd(opts))
	root.AddCommand(newMetronomeCmd(opts))
	root.AddCommand(newAlarmCmd(opts))
	root.AddCommand(newWorldClockCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	root.AddCommand(newWatchCmd(opts))
	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newTUICmd(opts))
	return root
}

func loadApp(opts *rootOptions) (*bootstrap.App, error) {
	v := config.NewViper(opts.configFile)
	if strings.TrimSpace(opts.stateDir) != "" {
		v.Set("state_dir", opts.stateDir)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg)
}

// withApp loads the app for one command invocation and closes it afterwards.
func withApp(opts *rootOptions, fn func(app *bootstrap.App) error) error {
	app, err := loadApp(opts)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

func printTimer(w io.Writer, t timerdto.TimerOutput) {
	var clock string
	switch {
	case t.Bounded:
		clock = durfmt.Countdown(t.RemainingMs) + " left"
	default:
		clock = durfmt.Clock(t.ElapsedMs, true) + " elapsed"
	}
	phase := t.PhaseKind
	if t.PhaseCount > 1 {
		phase = fmt.Sprintf("%s %d/%d", t.PhaseKind, t.PhaseIndex+1, t.PhaseCount)
	}
	_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.Key, t.Status, t.Widget, phase, clock)
}

func newTimerCmd(opts *rootOptions) *cobra.Command {
	timer := &cobra.Command{Use: "timer", Short: "Inspect and control stored timers"}

	actions := []struct {
		use   string
		short string
		run   func(app *bootstrap.App, ctx context.Context, key string) (timerdto.TimerOutput, error)
	}{
		{"status <key>", "Show a timer", func(app *bootstrap.App, ctx context.Context, key string) (timerdto.TimerOutput, error) {
			return app.TimerCLI.Status(ctx, key)
		}},
		{"start <key>", "Start a timer again with its stored configuration", func(app *bootstrap.App, ctx context.Context, key string) (timerdto.TimerOutput, error) {
			return app.TimerCLI.Start(ctx, key, nil)
		}},
		{"pause <key>", "Pause a running timer", func(app *bootstrap.App, ctx context.Context, key string) (timerdto.TimerOutput, error) {
			return app.TimerCLI.Pause(ctx, key)
		}},
		{"resume <key>", "Resume a paused timer", func(app *bootstrap.App, ctx context.Context, key string) (timerdto.TimerOutput, error) {
			return app.TimerCLI.Resume(ctx, key)
		}},
		{"reset <key>", "Return a timer to IDLE", func(app *bootstrap.App, ctx context.Context, key string) (timerdto.TimerOutput, error) {
			return app.TimerCLI.Reset(ctx, key)
		}},
		{"skip <key>", "End the current phase now", func(app *bootstrap.App, ctx context.Context, key string) (timerdto.TimerOutput, error) {
			return app.TimerCLI.Skip(ctx, key)
		}},
	}
	for _, action := range actions {
		action := action
		timer.AddCommand(&cobra.Command{
			Use:   action.use,
			Short: action.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(opts, func(app *bootstrap.App) error {
					out, err := action.run(app, cmd.Context(), args[0])
					if err != nil {
						return err
					}
					printTimer(cmd.OutOrStdout(), out)
					return nil
				})
			},
		})
	}

	timer.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored timers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *bootstrap.App) error {
				timers, err := app.TimerCLI.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(timers) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no timers")
					return nil
				}
				for _, t := range timers {
					printTimer(cmd.OutOrStdout(), t)
				}
				return nil
			})
		},
	})

	timer.AddCommand(&cobra.Command{
		Use:   "rm <key>",
		Short: "Delete a stored timer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(app *bootstrap.App) error {
				if err := app.TimerCLI.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
				return nil
			})
		},
	})
	return timer
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <key>",
		Short: "Follow a timer until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withApp(opts, func(app *bootstrap.App) error {
				return watchTimer(ctx, app, args[0], cmd.OutOrStdout(), isatty.IsTerminal(os.Stdout.Fd()))
			})
		},
	}
}

// watchTimer redraws one line in place on a terminal and prints a new line
// per visible change otherwise.
func watchTimer(ctx context.Context, app *bootstrap.App, key string, w io.Writer, tty bool) error {
	ticker := time.NewTicker(app.Config.TickInterval)
	defer ticker.Stop()
	last := ""
	for {
		out, err := app.TimerCLI.Status(ctx, key)
		if err != nil {
			return err
		}
		var sb strings.Builder
		printTimer(&sb, out)
		line := strings.TrimRight(sb.String(), "\n")
		if line != last {
			if tty {
				_, _ = fmt.Fprintf(w, "\r\033[K%s", line)
			} else {
				_, _ = fmt.Fprintln(w, line)
			}
			last = line
		}
		if out.Status == "FINISHED" || out.Status == "IDLE" {
			if tty {
				_, _ = fmt.Fprintln(w)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			if tty {
				_, _ = fmt.Fprintln(w)
			}
			return nil
		case <-ticker.C:
		}
	}
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the timer HTTP API and keep timers ticking",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withApp(opts, func(app *bootstrap.App) error {
				if addr != "" {
					app.Config.Serve.Addr = addr
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "listening on http://%s/api/v1/timers\n", app.Config.Serve.Addr)
				return bootstrap.Serve(ctx, app)
			})
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (overrides serve.addr)")
	return serve
}

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the timekit dashboard",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withApp(opts, bootstrap.RunTUI)
		},
	}
}
