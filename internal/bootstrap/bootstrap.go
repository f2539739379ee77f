package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	historyinadapter "timekit/internal/modules/history/adapter/in"
	historyoutadapter "timekit/internal/modules/history/adapter/out"
	historyservice "timekit/internal/modules/history/service"
	historyusecase "timekit/internal/modules/history/usecase"
	timerinadapter "timekit/internal/modules/timer/adapter/in"
	timeroutadapter "timekit/internal/modules/timer/adapter/out"
	timerout "timekit/internal/modules/timer/port/out"
	timerservice "timekit/internal/modules/timer/service"
	timerusecase "timekit/internal/modules/timer/usecase"
	widgetinadapter "timekit/internal/modules/widget/adapter/in"
	widgetoutadapter "timekit/internal/modules/widget/adapter/out"
	widgetdomain "timekit/internal/modules/widget/domain"
	widgetusecase "timekit/internal/modules/widget/usecase"
	"timekit/internal/platform/clock"
	"timekit/internal/platform/config"
	"timekit/internal/platform/event"
	"timekit/internal/platform/id"
	"timekit/internal/platform/logging"
	"timekit/internal/platform/watch"
	uiapp "timekit/internal/ui/app"
)

type App struct {
	Config     config.Config
	Log        *slog.Logger
	Clock      clock.Clock
	TimerCLI   timerinadapter.CLIHandler
	WidgetCLI  widgetinadapter.CLIHandler
	HistoryCLI historyinadapter.CLIHandler
	TimerHTTP  http.Handler

	closers []io.Closer
}

func New(cfg config.Config) (*App, error) {
	log, logCloser, err := logging.Open(cfg.StateDir, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Log: log, Clock: clock.SystemClock{}, closers: []io.Closer{logCloser}}
	ids := id.UUID{}
	bus := event.NewBus(log)

	var store timerout.KeyValueStore
	switch cfg.Storage {
	case config.StorageSQLite:
		sqliteStore, err := timeroutadapter.NewSQLiteStateStore(cfg.DBPath())
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("new sqlite state store: %w", err)
		}
		app.closers = append(app.closers, sqliteStore)
		store = sqliteStore
	default:
		store = timeroutadapter.NewFileStateStore(cfg.SessionsDir())
	}

	entries, err := historyoutadapter.NewSQLiteEntryStore(cfg.DBPath())
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("new history store: %w", err)
	}
	app.closers = append(app.closers, entries)
	historyservice.NewRecorder(entries, ids, log).Subscribe(bus)

	timerUC := timerusecase.NewInteractor(timerservice.NewTimerService(app.Clock, ids, store, bus, log))
	widgetUC := widgetusecase.NewInteractor(
		timerUC,
		widgetoutadapter.NewYAMLPresetStore(cfg.PresetsFile),
		settingsFrom(cfg),
		app.Clock,
	)

	app.TimerCLI = timerinadapter.NewCLIHandler(timerUC)
	app.WidgetCLI = widgetinadapter.NewCLIHandler(widgetUC)
	app.HistoryCLI = historyinadapter.NewCLIHandler(historyusecase.NewInteractor(entries))
	app.TimerHTTP = timerinadapter.NewHTTPHandler(timerUC, log)
	log.Debug("timekit ready", "storage", cfg.Storage, "state_dir", cfg.StateDir)
	return app, nil
}

func settingsFrom(cfg config.Config) widgetdomain.Settings {
	return widgetdomain.Settings{
		Pomodoro: widgetdomain.PomodoroSettings{
			Work:           cfg.Pomodoro.Work,
			ShortBreak:     cfg.Pomodoro.ShortBreak,
			LongBreak:      cfg.Pomodoro.LongBreak,
			LongBreakEvery: cfg.Pomodoro.LongBreakEvery,
			Rounds:         cfg.Pomodoro.Rounds,
		},
		Couples: widgetdomain.CouplesSettings{
			Prep:       cfg.Couples.Prep,
			Slot:       cfg.Couples.Slot,
			Transition: cfg.Couples.Transition,
			Closing:    cfg.Couples.Closing,
			Cooldown:   cfg.Couples.Cooldown,
		},
		ChessBudget: cfg.Chess.Budget,
		Metronome:   widgetdomain.Metronome{BPM: cfg.Metronome.BPM, BeatsPerBar: cfg.Metronome.BeatsPerBar},
		Zones:       cfg.WorldClock.Zones,
	}
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Serve runs the HTTP API and a background ticker that advances every stored
// timer, so phase expiries are recorded even with no client attached.
func Serve(ctx context.Context, app *App) error {
	server := &http.Server{
		Addr:              app.Config.Serve.Addr,
		Handler:           app.TimerHTTP,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go tickAll(ctx, app)

	errCh := make(chan error, 1)
	go func() {
		app.Log.Info("http server listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		app.Log.Info("http server shutting down")
		return server.Shutdown(shutdownCtx)
	}
}

func tickAll(ctx context.Context, app *App) {
	ticker := time.NewTicker(app.Config.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := app.TimerCLI.List(ctx); err != nil && ctx.Err() == nil {
				app.Log.Warn("background tick", "error", err)
			}
		}
	}
}

// RunTUI starts the dashboard. With file storage it also watches the
// sessions directory and reloads timers rewritten by other processes.
func RunTUI(app *App) error {
	opts := uiapp.Options{
		Timers:   app.TimerCLI,
		Widgets:  app.WidgetCLI,
		History:  app.HistoryCLI,
		Interval: app.Config.TickInterval,
		Now:      app.Clock.Now,
	}
	if app.Config.Storage == config.StorageFile {
		watcher, err := watch.NewDirWatcher(app.Config.SessionsDir())
		if err != nil {
			app.Log.Warn("live reload disabled", "error", err)
		} else {
			defer watcher.Close()
			opts.Changed = changedKeys(watcher.Changes())
		}
	}
	program := tea.NewProgram(uiapp.NewModel(opts), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

// changedKeys maps changed file names in the sessions directory to timer
// keys, dropping temp files and anything else that is not a record.
func changedKeys(names <-chan []string) <-chan []string {
	out := make(chan []string)
	go func() {
		defer close(out)
		for batch := range names {
			var keys []string
			for _, name := range batch {
				if key, ok := timeroutadapter.KeyForFile(name); ok {
					keys = append(keys, key)
				}
			}
			if len(keys) > 0 {
				out <- keys
			}
		}
	}()
	return out
}
