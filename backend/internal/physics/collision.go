package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// collide проверяет пересечение двух тел.
// Возвращает нормаль от a к b и глубину проникновения.
func collide(a, b *Body) (mgl64.Vec3, float64, bool) {
	switch {
	case a.Shape == SPHERE && b.Shape == SPHERE:
		return sphereSphere(a, b)
	case a.Shape == SPHERE && b.Shape == BOX:
		return sphereBox(a, b)
	case a.Shape == BOX && b.Shape == SPHERE:
		n, depth, ok := sphereBox(b, a)
		return n.Mul(-1), depth, ok
	default:
		return boxBox(a, b)
	}
}

func sphereSphere(a, b *Body) (mgl64.Vec3, float64, bool) {
	d := b.Position.Sub(a.Position)
	dist := d.Len()
	sum := a.Radius + b.Radius
	if dist >= sum {
		return mgl64.Vec3{}, 0, false
	}
	if dist < 1e-9 {
		// Центры совпали, выталкиваем вверх
		return mgl64.Vec3{0, -1, 0}, sum, true
	}
	return d.Mul(1 / dist), sum - dist, true
}

// sphereBox: нормаль от сферы s к ящику box
func sphereBox(s, box *Body) (mgl64.Vec3, float64, bool) {
	min, max := box.AABB()
	c := s.Position
	closest := mgl64.Vec3{
		mgl64.Clamp(c.X(), min.X(), max.X()),
		mgl64.Clamp(c.Y(), min.Y(), max.Y()),
		mgl64.Clamp(c.Z(), min.Z(), max.Z()),
	}

	d := c.Sub(closest)
	dist := d.Len()
	if dist >= s.Radius {
		return mgl64.Vec3{}, 0, false
	}

	if dist > 1e-9 {
		// d направлен от ящика к сфере
		return d.Mul(-1 / dist), s.Radius - dist, true
	}

	// Центр сферы внутри ящика: выталкиваем по оси минимального проникновения
	axis, sign, depth := minPenetrationAxis(c, box.Position, box.HalfExtents)
	n := mgl64.Vec3{}
	n[axis] = -sign
	return n, depth + s.Radius, true
}

func boxBox(a, b *Body) (mgl64.Vec3, float64, bool) {
	d := b.Position.Sub(a.Position)
	best := math.Inf(1)
	bestAxis := 0
	for i := 0; i < 3; i++ {
		overlap := a.HalfExtents[i] + b.HalfExtents[i] - math.Abs(d[i])
		if overlap <= 0 {
			return mgl64.Vec3{}, 0, false
		}
		if overlap < best {
			best = overlap
			bestAxis = i
		}
	}

	n := mgl64.Vec3{}
	n[bestAxis] = 1
	if d[bestAxis] < 0 {
		n[bestAxis] = -1
	}
	return n, best, true
}

// minPenetrationAxis находит ось, по которой точка p ближе всего к грани ящика
func minPenetrationAxis(p, center, half mgl64.Vec3) (axis int, sign float64, depth float64) {
	depth = math.Inf(1)
	sign = 1
	for i := 0; i < 3; i++ {
		local := p[i] - center[i]
		dist := half[i] - math.Abs(local)
		if dist < depth {
			depth = dist
			axis = i
			sign = 1
			if local < 0 {
				sign = -1
			}
		}
	}
	return axis, sign, depth
}
