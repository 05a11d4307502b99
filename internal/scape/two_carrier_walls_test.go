package scape

import (
	"math"
	"testing"
)

func TestWallRegionContainsWithTolerance(t *testing.T) {
	wall := DefaultWalls()[0]
	cases := []struct {
		name string
		p    Point
		want bool
	}{
		{name: "inside", p: Point{X: -2, Y: 5.2}, want: true},
		{name: "edge", p: Point{X: -0.4, Y: 5.2}, want: true},
		{name: "within radius", p: Point{X: -0.4 + 0.0005, Y: 5.2}, want: true},
		{name: "outside radius", p: Point{X: -0.4 + 0.002, Y: 5.2}, want: false},
		{name: "below", p: Point{X: -2, Y: 4.99}, want: false},
	}
	for _, tc := range cases {
		if got := wall.Contains(tc.p, WallContainRadius); got != tc.want {
			t.Fatalf("%s: contains(%+v)=%t want %t", tc.name, tc.p, got, tc.want)
		}
	}
}

func TestDefaultWallsOrder(t *testing.T) {
	walls := DefaultWalls()
	want := []string{WallNorthWest, WallNorthEast, WallWest, WallEast, WallSouth}
	if len(walls) != len(want) {
		t.Fatalf("expected %d walls, got %d", len(want), len(walls))
	}
	for i, name := range want {
		if walls[i].Name != name {
			t.Fatalf("wall %d: got %s want %s", i, walls[i].Name, name)
		}
	}
}

func TestRodSamples(t *testing.T) {
	c0 := Point{X: -1, Y: 2}
	c1 := Point{X: 1, Y: 3}
	samples := RodSamples(c0, c1, RodSampleCount)
	if len(samples) != RodSampleCount {
		t.Fatalf("expected %d samples, got %d", RodSampleCount, len(samples))
	}
	if samples[0] != c0 || samples[len(samples)-1] != c1 {
		t.Fatalf("expected endpoints included, got %+v .. %+v", samples[0], samples[len(samples)-1])
	}
	step := 2.0 / float64(RodSampleCount-1)
	for i := 1; i < len(samples); i++ {
		if dx := samples[i].X - samples[i-1].X; math.Abs(dx-step) > 1e-9 {
			t.Fatalf("uneven spacing at %d: %f", i, dx)
		}
	}

	if got := RodSamples(c0, c1, 1); len(got) != 1 || got[0] != c0 {
		t.Fatalf("unexpected single sample: %+v", got)
	}
	if got := RodSamples(c0, c1, 0); got != nil {
		t.Fatalf("expected nil for zero samples, got %+v", got)
	}
}

func TestDetectCollision(t *testing.T) {
	walls := DefaultWalls()
	cases := []struct {
		name string
		pose RodPose
		wall string
		hit  bool
	}{
		{name: "arena center", pose: RodPose{X: 0, Y: 3}},
		{name: "start height", pose: RodPose{X: 3.9, Y: 0.2}},
		{name: "north-west band", pose: RodPose{X: -2, Y: 5.25}, wall: WallNorthWest, hit: true},
		{name: "north-east band", pose: RodPose{X: 2, Y: 5.25}, wall: WallNorthEast, hit: true},
		{name: "horizontal in gap", pose: RodPose{X: 0, Y: 5.25}, wall: WallNorthWest, hit: true},
		{name: "vertical through gap", pose: RodPose{X: 0, Y: 5.25, Theta: math.Pi / 2}},
		{name: "above north walls", pose: RodPose{X: -2, Y: 6.5}},
		{name: "west", pose: RodPose{X: -4.6, Y: 2}, wall: WallWest, hit: true},
		{name: "east", pose: RodPose{X: 4.6, Y: 2}, wall: WallEast, hit: true},
		{name: "south", pose: RodPose{X: 0, Y: 0}, wall: WallSouth, hit: true},
		{name: "south within radius", pose: RodPose{X: 0, Y: 0.0009}, wall: WallSouth, hit: true},
	}
	for _, tc := range cases {
		front, back := tc.pose.Carriers()
		wall, hit := DetectCollision(front, back, walls)
		if hit != tc.hit || wall != tc.wall {
			t.Fatalf("%s: got wall=%q hit=%t want wall=%q hit=%t", tc.name, wall, hit, tc.wall, tc.hit)
		}
	}
}
