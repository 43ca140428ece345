package engine

import "math"

// movePaddle applies the paddle's intent once and keeps it inside the field.
func movePaddle(p *Paddle, speed, fieldHeight float64) {
	switch p.Intent {
	case IntentUp:
		p.Y -= speed
	case IntentDown:
		p.Y += speed
	default:
		return
	}
	p.Y = clamp(p.Y, 0, fieldHeight-p.Height)
}

// advanceBall moves the ball by its velocity and reflects it off the top and
// bottom walls. It reports whether a wall was hit.
func advanceBall(b *Ball, field Field) bool {
	b.X += b.VX
	b.Y += b.VY

	switch {
	case b.Y-b.Radius < 0:
		b.Y = b.Radius
		b.VY = math.Abs(b.VY)
		return true
	case b.Y+b.Radius > field.Height:
		b.Y = field.Height - b.Radius
		b.VY = -math.Abs(b.VY)
		return true
	}
	return false
}

// collidePaddles checks the ball against the paddle it is travelling towards
// and reflects it on contact. prev is the ball centre before this tick's move;
// a ball whose leading edge crossed the paddle face during the tick counts as a
// hit even when its centre ended up behind the paddle.
func collidePaddles(state *GameState, config *GameConfig, prev Point) Side {
	b := &state.Ball

	if b.VX < 0 {
		p := state.PaddleA
		face := p.X + p.Width + b.Radius
		crossed := crossedFace(prev, b, face, p)
		if crossed || (b.X > p.X && circleRectOverlap(b.X, b.Y, b.Radius, p.X, p.Y, p.Width, p.Height)) {
			if crossed {
				b.Y = yAtFace(prev, b, face)
			}
			reflect(b, p, 1, config)
			b.X = face
			return SideA
		}
		return SideNone
	}

	if b.VX > 0 {
		p := state.PaddleB
		face := p.X - b.Radius
		crossed := crossedFace(prev, b, face, p)
		if crossed || (b.X < p.X+p.Width && circleRectOverlap(b.X, b.Y, b.Radius, p.X, p.Y, p.Width, p.Height)) {
			if crossed {
				b.Y = yAtFace(prev, b, face)
			}
			reflect(b, p, -1, config)
			b.X = face
			return SideB
		}
	}
	return SideNone
}

// crossedFace reports whether the ball centre passed the contact line x=face
// during the tick at a height where its edge touches the paddle.
func crossedFace(prev Point, b *Ball, face float64, p Paddle) bool {
	switch {
	case b.VX < 0 && (prev.X < face || b.X > face):
		return false
	case b.VX > 0 && (prev.X > face || b.X < face):
		return false
	case prev.X == b.X:
		return false
	}
	y := yAtFace(prev, b, face)
	return y >= p.Y-b.Radius && y <= p.Y+p.Height+b.Radius
}

// yAtFace interpolates the ball height where its path meets x=face, clamped
// to the segment travelled this tick.
func yAtFace(prev Point, b *Ball, face float64) float64 {
	if prev.X == b.X {
		return b.Y
	}
	t := clamp((face-prev.X)/(b.X-prev.X), 0, 1)
	return prev.Y + t*(b.Y-prev.Y)
}

// reflect sends the ball back at an angle proportional to where it struck the
// paddle. Hitting the centre returns it flat, the edges return it at the
// configured maximum angle. Each hit speeds the ball up, up to the cap.
func reflect(b *Ball, p Paddle, dir float64, config *GameConfig) {
	offset := clamp((b.Y-p.CenterY())/(p.Height/2), -1, 1)
	angle := degToRad(offset * config.MaxBounceAngle)

	b.Speed = math.Min(b.Speed*config.SpeedMultiplier, config.MaxBallSpeed)
	b.VX = dir * b.Speed * math.Cos(angle)
	b.VY = b.Speed * math.Sin(angle)
}

// checkScore reports which side earned a point because the ball left the field.
func checkScore(b Ball, field Field) Side {
	switch {
	case b.X < 0:
		return SideB
	case b.X > field.Width:
		return SideA
	}
	return SideNone
}

// serve centres the ball and launches it towards the given side. The vertical
// component alternates with every point so consecutive serves differ.
func serve(state *GameState, config *GameConfig, toward Side) {
	b := &state.Ball
	b.X = state.Field.Width / 2
	b.Y = state.Field.Height / 2
	b.Speed = config.BallSpeed

	dir := 1.0
	if toward == SideA {
		dir = -1
	}
	tilt := 1.0
	if (state.ScoreA+state.ScoreB)%2 == 1 {
		tilt = -1
	}

	angle := degToRad(config.ServeAngle)
	b.VX = dir * b.Speed * math.Cos(angle)
	b.VY = tilt * b.Speed * math.Sin(angle)
}

// park centres the ball and stops it.
func park(state *GameState) {
	state.Ball.X = state.Field.Width / 2
	state.Ball.Y = state.Field.Height / 2
	state.Ball.VX = 0
	state.Ball.VY = 0
	state.Ball.Speed = 0
}
