package world

import "math"

// river is a vertical band of water crossable only at its ford.
type river struct {
	x, halfWidth       float64
	fordY, fordHalfLen float64
}

func (r river) blocks(x, y float64) bool {
	if r.halfWidth <= 0 {
		return false
	}
	if math.Abs(x-r.x) > r.halfWidth {
		return false
	}
	return math.Abs(y-r.fordY) > r.fordHalfLen
}

// IsValidPosition reports whether (x, y) is inside the world and not in
// the river outside the ford.
func (w *World) IsValidPosition(x, y float64) bool {
	if x < 0 || y < 0 || x > w.Width || y > w.Height {
		return false
	}
	return !w.river.blocks(x, y)
}
