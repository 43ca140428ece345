package engine

// Constants for configuration bounds
const (
	MinFieldSize     = 100.0
	MaxFieldSize     = 4000.0
	MinTickRate      = 10
	MaxTickRate      = 240
	MaxWinningScore  = 99
	MaxBounceDegrees = 75.0
)

// Phase is the lifecycle stage of a match.
type Phase string

const (
	PhaseCountdown    Phase = "countdown"
	PhaseActive       Phase = "active"
	PhaseScoringPause Phase = "scoring-pause"
	PhaseFinished     Phase = "finished"
)

// Intent is the movement a player requested for their paddle.
type Intent string

const (
	IntentIdle Intent = "idle"
	IntentUp   Intent = "up"
	IntentDown Intent = "down"
)

// ParseIntent maps a wire direction onto an Intent.
func ParseIntent(s string) (Intent, bool) {
	switch Intent(s) {
	case IntentIdle, IntentUp, IntentDown:
		return Intent(s), true
	}
	return "", false
}

// Side identifies one of the two players of a match.
type Side int

const (
	SideNone Side = iota
	SideA
	SideB
)

func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	}
	return "none"
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	}
	return SideNone
}

// Field is the playing area. The origin is the top-left corner and y grows downwards.
type Field struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Ball holds the ball's position, its velocity vector and the scalar speed
// the vector was built from.
type Ball struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Speed  float64 `json:"speed"`
	Radius float64 `json:"radius"`
}

// Paddle is a vertical bar. Y is the top edge.
type Paddle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Intent Intent  `json:"intent"`
}

// CenterY returns the vertical centre of the paddle.
func (p Paddle) CenterY() float64 {
	return p.Y + p.Height/2
}

// GameConfig defines the rules and geometry of a match
type GameConfig struct {
	Name              string  `json:"name" yaml:"name"`
	Description       string  `json:"description" yaml:"description"`
	FieldWidth        float64 `json:"field_width" yaml:"field_width"`
	FieldHeight       float64 `json:"field_height" yaml:"field_height"`
	TickRate          int     `json:"tick_rate" yaml:"tick_rate"`
	PaddleWidth       float64 `json:"paddle_width" yaml:"paddle_width"`
	PaddleHeight      float64 `json:"paddle_height" yaml:"paddle_height"`
	PaddleMargin      float64 `json:"paddle_margin" yaml:"paddle_margin"`
	PaddleSpeed       float64 `json:"paddle_speed" yaml:"paddle_speed"`
	BallRadius        float64 `json:"ball_radius" yaml:"ball_radius"`
	BallSpeed         float64 `json:"ball_speed" yaml:"ball_speed"`
	MaxBallSpeed      float64 `json:"max_ball_speed" yaml:"max_ball_speed"`
	SpeedMultiplier   float64 `json:"speed_multiplier" yaml:"speed_multiplier"`
	MaxBounceAngle    float64 `json:"max_bounce_angle" yaml:"max_bounce_angle"` // degrees
	ServeAngle        float64 `json:"serve_angle" yaml:"serve_angle"`           // degrees
	CountdownTicks    int     `json:"countdown_ticks" yaml:"countdown_ticks"`
	ScoringPauseTicks int     `json:"scoring_pause_ticks" yaml:"scoring_pause_ticks"`
	WinningScore      int     `json:"winning_score" yaml:"winning_score"`
}

// GameState is the full simulation state of one match
type GameState struct {
	Tick       uint64 `json:"tick"`
	Phase      Phase  `json:"phase"`
	PhaseTicks int    `json:"phase_ticks"` // ticks left in countdown or scoring pause
	Field      Field  `json:"field"`
	Ball       Ball   `json:"ball"`
	PaddleA    Paddle `json:"paddle_a"`
	PaddleB    Paddle `json:"paddle_b"`
	ScoreA     int    `json:"score_a"`
	ScoreB     int    `json:"score_b"`
	Winner     Side   `json:"winner"`
	LastScorer Side   `json:"last_scorer"`
	Hits       int    `json:"hits"`
}

// Point is a bare coordinate pair used in frames.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Frame is the per-tick delta sent to both players.
type Frame struct {
	Tick    uint64 `json:"tick"`
	Phase   Phase  `json:"phase"`
	Ball    Point  `json:"ball"`
	PaddleA Point  `json:"paddleA"`
	PaddleB Point  `json:"paddleB"`
	ScoreA  int    `json:"scoreA"`
	ScoreB  int    `json:"scoreB"`
}

// StepEvents reports what happened during a single tick.
type StepEvents struct {
	Scored     Side
	PaddleHit  Side
	WallBounce bool
	Finished   bool
}
