package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// DefaultGameConfig returns the built-in classic ruleset.
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:              "classic",
		Description:       "Classic first-to-five match",
		FieldWidth:        800,
		FieldHeight:       600,
		TickRate:          60,
		PaddleWidth:       12,
		PaddleHeight:      90,
		PaddleMargin:      24,
		PaddleSpeed:       7,
		BallRadius:        8,
		BallSpeed:         6,
		MaxBallSpeed:      16,
		SpeedMultiplier:   1.05,
		MaxBounceAngle:    45,
		ServeAngle:        20,
		CountdownTicks:    180,
		ScoringPauseTicks: 60,
		WinningScore:      5,
	}
}

// ValidateGameConfig validates a game configuration for correctness and playability.
// Every problem found is reported, not only the first.
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	var err error
	fail := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf("config validation: "+format, args...))
	}

	if config.Name == "" {
		fail("name is required")
	}
	if config.FieldWidth < MinFieldSize || config.FieldWidth > MaxFieldSize {
		fail("field_width must be between %.0f and %.0f, got %.2f", MinFieldSize, MaxFieldSize, config.FieldWidth)
	}
	if config.FieldHeight < MinFieldSize || config.FieldHeight > MaxFieldSize {
		fail("field_height must be between %.0f and %.0f, got %.2f", MinFieldSize, MaxFieldSize, config.FieldHeight)
	}
	if config.TickRate < MinTickRate || config.TickRate > MaxTickRate {
		fail("tick_rate must be between %d and %d, got %d", MinTickRate, MaxTickRate, config.TickRate)
	}

	if config.PaddleWidth <= 0 || config.PaddleHeight <= 0 {
		fail("paddle dimensions must be positive, got %.2fx%.2f", config.PaddleWidth, config.PaddleHeight)
	}
	if config.PaddleHeight >= config.FieldHeight {
		fail("paddle_height (%.2f) must be smaller than field_height (%.2f)", config.PaddleHeight, config.FieldHeight)
	}
	if config.PaddleMargin < 0 || 2*(config.PaddleMargin+config.PaddleWidth) >= config.FieldWidth {
		fail("paddle_margin (%.2f) leaves no room between the paddles", config.PaddleMargin)
	}
	if config.PaddleSpeed <= 0 {
		fail("paddle_speed must be positive, got %.2f", config.PaddleSpeed)
	}

	if config.BallRadius <= 0 {
		fail("ball_radius must be positive, got %.2f", config.BallRadius)
	}
	if 2*config.BallRadius >= config.FieldHeight {
		fail("ball_radius (%.2f) does not fit the field height", config.BallRadius)
	}
	if config.BallSpeed <= 0 {
		fail("ball_speed must be positive, got %.2f", config.BallSpeed)
	}
	if config.MaxBallSpeed < config.BallSpeed {
		fail("max_ball_speed (%.2f) must be at least ball_speed (%.2f)", config.MaxBallSpeed, config.BallSpeed)
	}
	// Caps per-tick travel at the depth of a paddle plus the ball.
	if limit := config.PaddleWidth + 2*config.BallRadius; config.MaxBallSpeed >= limit {
		fail("max_ball_speed (%.2f) must be below paddle_width + 2*ball_radius (%.2f)", config.MaxBallSpeed, limit)
	}
	if config.SpeedMultiplier < 1 {
		fail("speed_multiplier must be at least 1, got %.3f", config.SpeedMultiplier)
	}
	if config.MaxBounceAngle <= 0 || config.MaxBounceAngle > MaxBounceDegrees {
		fail("max_bounce_angle must be in (0, %.0f], got %.2f", MaxBounceDegrees, config.MaxBounceAngle)
	}
	if math.Abs(config.ServeAngle) > config.MaxBounceAngle {
		fail("serve_angle (%.2f) must not exceed max_bounce_angle (%.2f)", config.ServeAngle, config.MaxBounceAngle)
	}

	if config.CountdownTicks < 0 {
		fail("countdown_ticks must not be negative, got %d", config.CountdownTicks)
	}
	if config.ScoringPauseTicks < 0 {
		fail("scoring_pause_ticks must not be negative, got %d", config.ScoringPauseTicks)
	}
	if config.WinningScore < 1 || config.WinningScore > MaxWinningScore {
		fail("winning_score must be between 1 and %d, got %d", MaxWinningScore, config.WinningScore)
	}

	return err
}

// LoadGameConfig loads a game configuration from a JSON or YAML file
func LoadGameConfig(path string) (*GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := ParseGameConfig(data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ParseGameConfig decodes config bytes. ext selects the format (".yaml", ".yml"
// or anything else for JSON). Fields missing from the document keep the
// classic defaults.
func ParseGameConfig(data []byte, ext string) (*GameConfig, error) {
	config := DefaultGameConfig()
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	}
	return config, nil
}

// InitGameStateFromConfig builds the opening state: ball centred with the opening serve loaded,
// paddles centred vertically, phase countdown.
func InitGameStateFromConfig(config *GameConfig) *GameState {
	if config == nil {
		config = DefaultGameConfig()
	}

	field := Field{Width: config.FieldWidth, Height: config.FieldHeight}
	paddleY := (config.FieldHeight - config.PaddleHeight) / 2

	state := &GameState{
		Phase:      PhaseCountdown,
		PhaseTicks: config.CountdownTicks,
		Field:      field,
		Ball: Ball{
			X:      field.Width / 2,
			Y:      field.Height / 2,
			Radius: config.BallRadius,
		},
		PaddleA: Paddle{
			X:      config.PaddleMargin,
			Y:      paddleY,
			Width:  config.PaddleWidth,
			Height: config.PaddleHeight,
			Intent: IntentIdle,
		},
		PaddleB: Paddle{
			X:      config.FieldWidth - config.PaddleMargin - config.PaddleWidth,
			Y:      paddleY,
			Width:  config.PaddleWidth,
			Height: config.PaddleHeight,
			Intent: IntentIdle,
		},
	}

	// The opening serve goes towards player B.
	serve(state, config, SideB)
	if config.CountdownTicks == 0 {
		state.Phase = PhaseActive
	}
	return state
}
