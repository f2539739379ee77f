package domain

import (
	"fmt"
	"strings"

	apperrors "timekit/internal/platform/errors"
)

type Side string

const (
	White Side = "white"
	Black Side = "black"
)

func ParseSide(raw string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(raw))) {
	case White, "":
		return White, nil
	case Black:
		return Black, nil
	}
	return "", fmt.Errorf("unknown side %q: %w", raw, apperrors.ErrInvalidInput)
}

func (s Side) Opponent() Side {
	if s == White {
		return Black
	}
	return White
}

// Key is the timer key of one side. The two sides never share a record.
func (s Side) Key() string { return "chess-" + string(s) }
