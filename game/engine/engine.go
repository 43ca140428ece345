package engine

// Engine provides the main interface for match simulation
type Engine interface {
	// Simulation
	Step() StepEvents
	SetIntent(side Side, intent Intent)
	Forfeit(winner Side)

	// State
	GetState() *GameState
	Snapshot() GameState
	Frame() Frame
	Reset() *GameState
	IsFinished() bool
	Winner() Side
	Score() (int, int)

	// Configuration
	GetConfig() *GameConfig
}

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; a room owns one engine and drives it from a single goroutine.
type GameEngine struct {
	state  *GameState
	config *GameConfig
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	engine := &GameEngine{
		config: config,
		state:  InitGameStateFromConfig(config),
	}

	return engine, nil
}

// NewEngineWithDefaults creates a new game engine with the classic configuration
func NewEngineWithDefaults() *GameEngine {
	config := DefaultGameConfig()
	return &GameEngine{
		config: config,
		state:  InitGameStateFromConfig(config),
	}
}

// Step advances the simulation by exactly one fixed tick.
//
// Paddles move in every phase except finished. The ball only moves while the
// match is active; during countdown and scoring pause it waits at the centre.
func (e *GameEngine) Step() StepEvents {
	var events StepEvents
	s := e.state
	if s.Phase == PhaseFinished {
		return events
	}

	s.Tick++
	movePaddle(&s.PaddleA, e.config.PaddleSpeed, s.Field.Height)
	movePaddle(&s.PaddleB, e.config.PaddleSpeed, s.Field.Height)

	switch s.Phase {
	case PhaseCountdown, PhaseScoringPause:
		s.PhaseTicks--
		if s.PhaseTicks <= 0 {
			s.PhaseTicks = 0
			s.Phase = PhaseActive
		}
		return events

	case PhaseActive:
		prev := Point{X: s.Ball.X, Y: s.Ball.Y}
		events.WallBounce = advanceBall(&s.Ball, s.Field)
		events.PaddleHit = collidePaddles(s, e.config, prev)
		if events.PaddleHit != SideNone {
			s.Hits++
		}

		if scorer := checkScore(s.Ball, s.Field); scorer != SideNone {
			events.Scored = scorer
			events.Finished = e.award(scorer)
		}
	}

	return events
}

// award books a point and either finishes the match or pauses before the next serve.
func (e *GameEngine) award(scorer Side) bool {
	s := e.state
	if scorer == SideA {
		s.ScoreA++
	} else {
		s.ScoreB++
	}
	s.LastScorer = scorer

	if s.ScoreA >= e.config.WinningScore || s.ScoreB >= e.config.WinningScore {
		s.Phase = PhaseFinished
		s.Winner = scorer
		park(s)
		return true
	}

	serve(s, e.config, scorer)
	s.Phase = PhaseScoringPause
	s.PhaseTicks = e.config.ScoringPauseTicks
	if s.PhaseTicks == 0 {
		s.Phase = PhaseActive
	}
	return false
}

// SetIntent records the paddle direction a player wants; it is consumed on every tick.
func (e *GameEngine) SetIntent(side Side, intent Intent) {
	switch side {
	case SideA:
		e.state.PaddleA.Intent = intent
	case SideB:
		e.state.PaddleB.Intent = intent
	}
}

// Forfeit ends the match immediately in favour of winner. Scores are left as they are.
func (e *GameEngine) Forfeit(winner Side) {
	if e.state.Phase == PhaseFinished {
		return
	}
	e.state.Phase = PhaseFinished
	e.state.PhaseTicks = 0
	e.state.Winner = winner
	park(e.state)
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// Snapshot returns a copy of the state that is safe to hand to other goroutines.
func (e *GameEngine) Snapshot() GameState {
	return *e.state
}

// Frame returns the minimal per-tick delta for clients.
func (e *GameEngine) Frame() Frame {
	s := e.state
	return Frame{
		Tick:    s.Tick,
		Phase:   s.Phase,
		Ball:    Point{X: s.Ball.X, Y: s.Ball.Y},
		PaddleA: Point{X: s.PaddleA.X, Y: s.PaddleA.Y},
		PaddleB: Point{X: s.PaddleB.X, Y: s.PaddleB.Y},
		ScoreA:  s.ScoreA,
		ScoreB:  s.ScoreB,
	}
}

// Reset resets the match to its opening state
func (e *GameEngine) Reset() *GameState {
	e.state = InitGameStateFromConfig(e.config)
	return e.state
}

// IsFinished returns whether the match is over
func (e *GameEngine) IsFinished() bool {
	return e.state.Phase == PhaseFinished
}

// Winner returns the winning side, or SideNone while the match is running
func (e *GameEngine) Winner() Side {
	return e.state.Winner
}

// Score returns the current scores of A and B
func (e *GameEngine) Score() (int, int) {
	return e.state.ScoreA, e.state.ScoreB
}

// GetConfig returns the current configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}
