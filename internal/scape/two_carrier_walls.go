package scape

const (
	RodSampleCount    = 50
	WallContainRadius = 0.001
	WallNorthWest     = "north-west"
	WallNorthEast     = "north-east"
	WallWest          = "west"
	WallEast          = "east"
	WallSouth         = "south"
)

// WallRegion is an axis-aligned rectangle anchored at its lower-left corner.
type WallRegion struct {
	Name   string  `json:"name"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether p lies inside the rectangle grown by radius on
// every side, so touching the boundary counts.
func (w WallRegion) Contains(p Point, radius float64) bool {
	return p.X >= w.X-radius && p.X <= w.X+w.Width+radius &&
		p.Y >= w.Y-radius && p.Y <= w.Y+w.Height+radius
}

// DefaultWalls is the arena boundary: two north segments with a gap between
// them, plus west, east and south walls.
func DefaultWalls() []WallRegion {
	return []WallRegion{
		{Name: WallNorthWest, X: -5, Y: 5, Width: 4.6, Height: 0.5},
		{Name: WallNorthEast, X: 0.4, Y: 5, Width: 4.6, Height: 0.5},
		{Name: WallWest, X: -5.5, Y: -0.5, Width: 0.5, Height: 6},
		{Name: WallEast, X: 5, Y: -0.5, Width: 0.5, Height: 6},
		{Name: WallSouth, X: -5, Y: -0.5, Width: 10, Height: 0.5},
	}
}

// RodSamples returns n points evenly spaced from c0 to c1, both included.
func RodSamples(c0, c1 Point, n int) []Point {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []Point{c0}
	}
	points := make([]Point, n)
	last := float64(n - 1)
	for i := range points {
		t := float64(i) / last
		points[i] = Point{
			X: c0.X + (c1.X-c0.X)*t,
			Y: c0.Y + (c1.Y-c0.Y)*t,
		}
	}
	points[n-1] = c1
	return points
}

// DetectCollision samples the rod between the two carriers and returns the
// first wall, in slice order, containing any sample. A crossing thinner than
// the sample spacing can slip through.
func DetectCollision(c0, c1 Point, walls []WallRegion) (string, bool) {
	samples := RodSamples(c0, c1, RodSampleCount)
	for _, wall := range walls {
		for _, p := range samples {
			if wall.Contains(p, WallContainRadius) {
				return wall.Name, true
			}
		}
	}
	return "", false
}
