package domain

import "time"

// Settings are the user defaults the widgets are built from.
type Settings struct {
	Pomodoro    PomodoroSettings
	Couples     CouplesSettings
	ChessBudget time.Duration
	Metronome   Metronome
	Zones       []string
}
