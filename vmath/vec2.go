package vmath

import "math"

// Vec2 is a float64 2D vector in world units
type Vec2 struct {
	X, Y float64
}

func V2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func V2Add(a, b Vec2) Vec2 {
	return Vec2{a.X + b.X, a.Y + b.Y}
}

func V2Sub(a, b Vec2) Vec2 {
	return Vec2{a.X - b.X, a.Y - b.Y}
}

func V2Scale(v Vec2, s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

func V2MagSq(v Vec2) float64 {
	return v.X*v.X + v.Y*v.Y
}

func V2Mag(v Vec2) float64 {
	return math.Sqrt(V2MagSq(v))
}

// V2DistSq returns squared distance between a and b, no sqrt
func V2DistSq(a, b Vec2) float64 {
	return V2MagSq(V2Sub(a, b))
}

func V2Dist(a, b Vec2) float64 {
	return math.Sqrt(V2DistSq(a, b))
}

// V2Normalize returns unit vector, zero-safe
func V2Normalize(v Vec2) Vec2 {
	mag := V2Mag(v)
	if mag == 0 {
		return Vec2{}
	}
	inv := 1.0 / mag
	return Vec2{v.X * inv, v.Y * inv}
}

// V2ClampMag limits vector to maxMag while preserving direction
func V2ClampMag(v Vec2, maxMag float64) Vec2 {
	mag := V2Mag(v)
	if mag <= maxMag || mag == 0 {
		return v
	}
	return V2Scale(v, maxMag/mag)
}

// V2Toward returns the unit direction from 'from' to 'to'
func V2Toward(from, to Vec2) Vec2 {
	return V2Normalize(V2Sub(to, from))
}

// MeanAccumulator keeps a running mean of added points without storing them
type MeanAccumulator struct {
	mean  Vec2
	count int
}

// Add folds p into the running mean
func (m *MeanAccumulator) Add(p Vec2) {
	m.count++
	n := float64(m.count)
	m.mean.X += (p.X - m.mean.X) / n
	m.mean.Y += (p.Y - m.mean.Y) / n
}

func (m *MeanAccumulator) Mean() Vec2 {
	return m.mean
}

func (m *MeanAccumulator) Count() int {
	return m.count
}
