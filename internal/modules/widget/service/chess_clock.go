package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	timerdto "timekit/internal/modules/timer/dto"
	timerin "timekit/internal/modules/timer/port/in"
	"timekit/internal/modules/widget/domain"
	"timekit/internal/modules/widget/dto"
	apperrors "timekit/internal/platform/errors"
)

// ChessClock runs two countdown timers of which at most one is running.
type ChessClock struct {
	timers timerin.Usecase
	budget time.Duration
}

func NewChessClock(timers timerin.Usecase, budget time.Duration) *ChessClock {
	return &ChessClock{timers: timers, budget: budget}
}

func (c *ChessClock) config(side domain.Side) *timerdto.ConfigInput {
	return &timerdto.ConfigInput{
		Widget: domain.WidgetChess,
		Phases: []timerdto.PhaseInput{{Kind: string(side), Duration: c.budget, OnExpire: "stop"}},
	}
}

// Start resets both sides to the full budget and starts first's clock.
func (c *ChessClock) Start(ctx context.Context, first domain.Side) (dto.ChessOutput, error) {
	if c.budget <= 0 {
		return dto.ChessOutput{}, fmt.Errorf("chess budget must be positive: %w", apperrors.ErrInvalidConfiguration)
	}
	for _, side := range []domain.Side{domain.White, domain.Black} {
		if _, err := c.timers.Reset(ctx, side.Key()); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return dto.ChessOutput{}, err
		}
		if _, err := c.timers.Configure(ctx, timerdto.StartInput{Key: side.Key(), Config: c.config(side)}); err != nil {
			return dto.ChessOutput{}, err
		}
	}
	if _, err := c.timers.Start(ctx, timerdto.StartInput{Key: first.Key()}); err != nil {
		return dto.ChessOutput{}, err
	}
	return c.Status(ctx)
}

// Switch ends the running side's turn and starts the opponent's.
func (c *ChessClock) Switch(ctx context.Context) (dto.ChessOutput, error) {
	status, err := c.Status(ctx)
	if err != nil {
		return dto.ChessOutput{}, err
	}
	if status.Flagged != "" {
		return status, fmt.Errorf("%s flag has fallen: %w", status.Flagged, apperrors.ErrInvalidTransition)
	}
	if status.Turn == "" {
		return status, fmt.Errorf("no chess clock is running: %w", apperrors.ErrNoActiveSession)
	}
	mover := domain.Side(status.Turn)
	if _, err := c.timers.Pause(ctx, mover.Key()); err != nil {
		return dto.ChessOutput{}, err
	}
	next := mover.Opponent()
	nextStatus := status.White.Status
	if next == domain.Black {
		nextStatus = status.Black.Status
	}
	if nextStatus == "PAUSED" {
		_, err = c.timers.Resume(ctx, next.Key())
	} else {
		_, err = c.timers.Start(ctx, timerdto.StartInput{Key: next.Key()})
	}
	if err != nil {
		return dto.ChessOutput{}, err
	}
	return c.Status(ctx)
}

func (c *ChessClock) Status(ctx context.Context) (dto.ChessOutput, error) {
	white, err := c.timers.Status(ctx, domain.White.Key())
	if err != nil {
		return dto.ChessOutput{}, err
	}
	black, err := c.timers.Status(ctx, domain.Black.Key())
	if err != nil {
		return dto.ChessOutput{}, err
	}
	out := dto.ChessOutput{White: white, Black: black}
	// White is reported first if both sides ever end up in the same state.
	for _, side := range []domain.Side{domain.White, domain.Black} {
		t := white
		if side == domain.Black {
			t = black
		}
		switch {
		case t.Status == "RUNNING" && out.Turn == "":
			out.Turn = string(side)
		case t.Status == "FINISHED" && out.Flagged == "":
			out.Flagged = string(side)
		}
	}
	return out, nil
}

func (c *ChessClock) Reset(ctx context.Context) (dto.ChessOutput, error) {
	for _, side := range []domain.Side{domain.White, domain.Black} {
		if _, err := c.timers.Reset(ctx, side.Key()); err != nil {
			return dto.ChessOutput{}, err
		}
	}
	return c.Status(ctx)
}
