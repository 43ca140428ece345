package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/wricardo/mcp-training/pongarena/game/engine"
)

// simReport summarizes a headless match
type simReport struct {
	Config       string
	Ticks        int
	ScoreA       int
	ScoreB       int
	Winner       engine.Side
	Finished     bool
	PaddleHits   int
	WallHits     int
	LongestRally int
	TickRate     int
}

// botIntent moves a paddle toward the ball while it approaches, and back to
// the centre otherwise.
func botIntent(s *engine.GameState, side engine.Side) engine.Intent {
	paddle, approaching := s.PaddleA, s.Ball.VX < 0
	if side == engine.SideB {
		paddle, approaching = s.PaddleB, s.Ball.VX > 0
	}

	target := s.Field.Height / 2
	if approaching {
		target = s.Ball.Y
	}

	const deadzone = 4
	switch diff := target - paddle.CenterY(); {
	case diff < -deadzone:
		return engine.IntentUp
	case diff > deadzone:
		return engine.IntentDown
	}
	return engine.IntentIdle
}

// simulate plays one match to completion or until maxTicks
func simulate(ctx context.Context, cfg *engine.GameConfig, maxTicks int, idle engine.Side) (simReport, error) {
	e, err := engine.NewEngine(cfg)
	if err != nil {
		return simReport{}, err
	}

	report := simReport{Config: cfg.Name, TickRate: cfg.TickRate}
	rally := 0
	for report.Ticks < maxTicks {
		if report.Ticks%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return report, err
			}
		}

		s := e.GetState()
		for _, side := range []engine.Side{engine.SideA, engine.SideB} {
			if side == idle {
				continue
			}
			e.SetIntent(side, botIntent(s, side))
		}

		ev := e.Step()
		report.Ticks++
		if ev.PaddleHit != engine.SideNone {
			report.PaddleHits++
			rally++
			if rally > report.LongestRally {
				report.LongestRally = rally
			}
		}
		if ev.WallBounce {
			report.WallHits++
		}
		if ev.Scored != engine.SideNone {
			rally = 0
		}
		if ev.Finished {
			report.Finished = true
			break
		}
	}

	report.ScoreA, report.ScoreB = e.Score()
	report.Winner = e.Winner()
	return report, nil
}

func (r simReport) print(w io.Writer) {
	duration := time.Duration(r.Ticks) * time.Second / time.Duration(r.TickRate)
	fmt.Fprintf(w, "Config: %s\n", r.Config)
	fmt.Fprintf(w, "Ticks: %d (%s of play)\n", r.Ticks, duration.Round(time.Second))
	fmt.Fprintf(w, "Score: %d - %d\n", r.ScoreA, r.ScoreB)
	switch {
	case !r.Finished:
		fmt.Fprintf(w, "Result: unfinished after tick limit\n")
	case r.Winner == engine.SideA:
		fmt.Fprintf(w, "Result: A wins\n")
	default:
		fmt.Fprintf(w, "Result: B wins\n")
	}
	fmt.Fprintf(w, "Paddle hits: %d, wall bounces: %d, longest rally: %d\n", r.PaddleHits, r.WallHits, r.LongestRally)
}
