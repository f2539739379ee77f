package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	EnvPrefix     = "TIMEKIT"
)

type Config struct {
	StateDir     string           `mapstructure:"state_dir"`
	Storage      string           `mapstructure:"storage"`
	LogLevel     string           `mapstructure:"log_level"`
	TickInterval time.Duration    `mapstructure:"tick_interval"`
	PresetsFile  string           `mapstructure:"presets_file"`
	Serve        ServeConfig      `mapstructure:"serve"`
	Pomodoro     PomodoroConfig   `mapstructure:"pomodoro"`
	Couples      CouplesConfig    `mapstructure:"couples"`
	Chess        ChessConfig      `mapstructure:"chess"`
	Metronome    MetronomeConfig  `mapstructure:"metronome"`
	WorldClock   WorldClockConfig `mapstructure:"world_clock"`
}

type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

type PomodoroConfig struct {
	Work           time.Duration `mapstructure:"work"`
	ShortBreak     time.Duration `mapstructure:"short_break"`
	LongBreak      time.Duration `mapstructure:"long_break"`
	LongBreakEvery int           `mapstructure:"long_break_every"`
	// Rounds limits cycles per session; 0 repeats until reset.
	Rounds int `mapstructure:"rounds"`
}

type CouplesConfig struct {
	Prep       time.Duration `mapstructure:"prep"`
	Slot       time.Duration `mapstructure:"slot"`
	Transition time.Duration `mapstructure:"transition"`
	Closing    time.Duration `mapstructure:"closing"`
	Cooldown   time.Duration `mapstructure:"cooldown"`
}

type ChessConfig struct {
	Budget time.Duration `mapstructure:"budget"`
}

type MetronomeConfig struct {
	BPM         int `mapstructure:"bpm"`
	BeatsPerBar int `mapstructure:"beats_per_bar"`
}

type WorldClockConfig struct {
	Zones []string `mapstructure:"zones"`
}

// DBPath is the SQLite database holding history and, with the sqlite
// storage backend, session records.
func (c Config) DBPath() string {
	return filepath.Join(c.StateDir, "timekit.db")
}

// SessionsDir holds one JSON record per timer key for the file backend.
func (c Config) SessionsDir() string {
	return filepath.Join(c.StateDir, "sessions")
}

func Default() Config {
	return Config{
		StateDir:     DefaultStateDir(),
		Storage:      StorageFile,
		LogLevel:     "INFO",
		TickInterval: 250 * time.Millisecond,
		Serve:        ServeConfig{Addr: "127.0.0.1:7421"},
		Pomodoro: PomodoroConfig{
			Work:           25 * time.Minute,
			ShortBreak:     5 * time.Minute,
			LongBreak:      15 * time.Minute,
			LongBreakEvery: 4,
		},
		Couples: CouplesConfig{
			Prep:       2 * time.Minute,
			Slot:       10 * time.Minute,
			Transition: time.Minute,
			Closing:    5 * time.Minute,
			Cooldown:   3 * time.Minute,
		},
		Chess:      ChessConfig{Budget: 5 * time.Minute},
		Metronome:  MetronomeConfig{BPM: 120, BeatsPerBar: 4},
		WorldClock: WorldClockConfig{Zones: []string{"UTC", "America/New_York", "Europe/London", "Asia/Tokyo"}},
	}
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("state_dir", d.StateDir)
	v.SetDefault("storage", d.Storage)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("tick_interval", d.TickInterval)
	v.SetDefault("presets_file", d.PresetsFile)
	v.SetDefault("serve.addr", d.Serve.Addr)
	v.SetDefault("pomodoro.work", d.Pomodoro.Work)
	v.SetDefault("pomodoro.short_break", d.Pomodoro.ShortBreak)
	v.SetDefault("pomodoro.long_break", d.Pomodoro.LongBreak)
	v.SetDefault("pomodoro.long_break_every", d.Pomodoro.LongBreakEvery)
	v.SetDefault("pomodoro.rounds", d.Pomodoro.Rounds)
	v.SetDefault("couples.prep", d.Couples.Prep)
	v.SetDefault("couples.slot", d.Couples.Slot)
	v.SetDefault("couples.transition", d.Couples.Transition)
	v.SetDefault("couples.closing", d.Couples.Closing)
	v.SetDefault("couples.cooldown", d.Couples.Cooldown)
	v.SetDefault("chess.budget", d.Chess.Budget)
	v.SetDefault("metronome.bpm", d.Metronome.BPM)
	v.SetDefault("metronome.beats_per_bar", d.Metronome.BeatsPerBar)
	v.SetDefault("world_clock.zones", d.WorldClock.Zones)
}

// NewViper returns a viper instance with defaults, env overrides
// (TIMEKIT_POMODORO_WORK for pomodoro.work) and the config file search
// path set up. configFile overrides the search when non-empty.
func NewViper(configFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file and decodes v into a validated Config.
// A missing file is not an error; a malformed one is.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.StateDir) == "" {
		return fmt.Errorf("state dir is required")
	}
	if c.Storage != StorageFile && c.Storage != StorageSQLite {
		return fmt.Errorf("storage must be %s or %s, got %q", StorageFile, StorageSQLite, c.Storage)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}
	return nil
}

// ConfigDir is $XDG_CONFIG_HOME/timekit, falling back to ~/.config/timekit.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "timekit")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".timekit"
	}
	return filepath.Join(home, ".config", "timekit")
}

// DefaultStateDir is $XDG_STATE_HOME/timekit, falling back to ~/.local/state/timekit.
func DefaultStateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "timekit")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".timekit"
	}
	return filepath.Join(home, ".local", "state", "timekit")
}
