package engine

import "math"

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// circleRectOverlap reports whether a circle touches an axis-aligned rectangle.
func circleRectOverlap(cx, cy, r, rx, ry, rw, rh float64) bool {
	nx := clamp(cx, rx, rx+rw)
	ny := clamp(cy, ry, ry+rh)
	dx := cx - nx
	dy := cy - ny
	return dx*dx+dy*dy <= r*r
}

// InBounds reports whether the ball centre lies inside the field.
func InBounds(b Ball, field Field) bool {
	return b.X >= 0 && b.X <= field.Width && b.Y >= 0 && b.Y <= field.Height
}
