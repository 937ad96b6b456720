package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"x-platformer/backend/internal/config"
)

func newTestWorld() *World {
	return NewWorld(config.Default().Physics)
}

func ground(id int) *Body {
	b := NewBox(mgl64.Vec3{10, 0.5, 10}, mgl64.Vec3{0, -0.5, 0})
	b.ID = id
	b.Tag = TagPlatform
	return b
}

func TestWorld_AddRemove(t *testing.T) {
	w := newTestWorld()

	ball := NewSphere(0.5, 1, mgl64.Vec3{0, 5, 0})
	ball.ID = 1
	require.NoError(t, w.Add(ball))
	require.NoError(t, w.Add(ground(2)))
	assert.Equal(t, 2, w.Len())

	dup := NewSphere(0.5, 1, mgl64.Vec3{})
	dup.ID = 1
	assert.ErrorIs(t, w.Add(dup), ErrDuplicateBody)

	got, ok := w.Body(1)
	require.True(t, ok)
	assert.Same(t, ball, got)

	assert.True(t, w.Remove(1))
	assert.False(t, w.Remove(1))
	_, ok = w.Body(1)
	assert.False(t, ok)
	assert.Equal(t, 1, w.Len())
}

func TestWorld_GravityIntegration(t *testing.T) {
	w := newTestWorld()
	ball := NewSphere(0.5, 1, mgl64.Vec3{0, 50, 0})
	ball.ID = 1
	require.NoError(t, w.Add(ball))

	w.Step(1.0/60.0, 0, 3)

	assert.Less(t, ball.Velocity.Y(), 0.0)
	assert.Less(t, ball.Position.Y(), 50.0)
}

func TestWorld_RestingContactGroundsWithUpNormal(t *testing.T) {
	w := newTestWorld()
	ball := NewSphere(0.5, 1, mgl64.Vec3{0, 2, 0})
	ball.ID = 1
	ball.Tag = TagPlayer
	floor := ground(2)
	require.NoError(t, w.Add(ball))
	require.NoError(t, w.Add(floor))

	var lastNormal mgl64.Vec3
	var hits int
	ball.OnCollide(func(ev CollideEvent) {
		assert.Same(t, ball, ev.Target)
		assert.Same(t, floor, ev.Body)
		lastNormal = ev.Contact.NormalFor(ball)
		hits++
	})

	for i := 0; i < 120; i++ {
		w.Step(1.0/60.0, 0, 3)
	}

	require.Greater(t, hits, 0)
	assert.Greater(t, lastNormal.Y(), 0.5, "normal must point from the floor toward the ball")
	assert.InDelta(t, 0.5, ball.Position.Y(), 0.05, "ball rests on top of the floor")
	assert.InDelta(t, 0, ball.Velocity.Y(), 0.6)
	assert.Equal(t, mgl64.Vec3{0, -0.5, 0}, floor.Position, "static body never moves")
}

func TestWorld_SensorReportsWithoutResolution(t *testing.T) {
	w := newTestWorld()
	ball := NewSphere(0.5, 1, mgl64.Vec3{0, 0, 0})
	ball.ID = 1
	sensor := NewSphere(0.5, 0, mgl64.Vec3{0.3, 0, 0})
	sensor.ID = 2
	sensor.Type = Static
	sensor.Sensor = true
	sensor.Tag = TagCollectible
	require.NoError(t, w.Add(ball))
	require.NoError(t, w.Add(sensor))

	var sensorHits int
	sensor.OnCollide(func(ev CollideEvent) {
		assert.Same(t, ball, ev.Body)
		sensorHits++
	})

	w.Step(1.0/60.0, 0, 3)

	assert.Equal(t, 1, sensorHits)
	assert.InDelta(t, 0, ball.Position.X(), 1e-9, "sensor must not push bodies")
}

func TestWorld_StaticKinematicPairsSkipped(t *testing.T) {
	w := newTestWorld()
	mover := NewSphere(0.5, 1, mgl64.Vec3{0, 0, 0})
	mover.ID = 1
	mover.Type = Kinematic
	mover.Velocity = mgl64.Vec3{1, 0, 0}
	require.NoError(t, w.Add(mover))
	require.NoError(t, w.Add(ground(2)))

	var hits int
	mover.OnCollide(func(CollideEvent) { hits++ })

	w.Step(0.5, 0, 1)

	assert.Equal(t, 0, hits)
	assert.InDelta(t, 0.5, mover.Position.X(), 1e-9, "kinematic body moves by velocity only")
	assert.InDelta(t, 0, mover.Position.Y(), 1e-9, "kinematic body ignores gravity")
}

func TestWorld_SubstepCap(t *testing.T) {
	fixed := 1.0 / 60.0
	tests := []struct {
		name        string
		realDt      float64
		maxSubsteps int
		want        int
	}{
		{"less than one step", fixed / 2, 3, 0},
		{"one frame", fixed * 1.01, 3, 1},
		{"two frames", fixed * 2.01, 3, 2},
		{"long pause is capped", 1.0, 3, 3},
		{"zero cap treated as one", 1.0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld()
			assert.Equal(t, tt.want, w.Step(fixed, tt.realDt, tt.maxSubsteps))
		})
	}
}

func TestWorld_AccumulatorDoesNotSpiral(t *testing.T) {
	w := newTestWorld()
	fixed := 1.0 / 60.0

	assert.Equal(t, 3, w.Step(fixed, 1.005, 3))
	// Остаток после провала меньше одного шага
	assert.Equal(t, 1, w.Step(fixed, fixed, 3))
	assert.Equal(t, uint64(4), w.StepCount())
	assert.Equal(t, 1, w.Step(fixed, 0, 3))
}

func TestContact_NormalFor(t *testing.T) {
	a, b := &Body{ID: 1}, &Body{ID: 2}
	c := &Contact{Bi: a, Bj: b, Ni: mgl64.Vec3{0, 1, 0}}

	assert.Equal(t, mgl64.Vec3{0, -1, 0}, c.NormalFor(a))
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, c.NormalFor(b))
}

func TestCollide_Shapes(t *testing.T) {
	box := NewBox(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{0, 0, 0})

	above := NewSphere(0.5, 1, mgl64.Vec3{0, 1.3, 0})
	n, depth, ok := collide(above, box)
	require.True(t, ok)
	assert.InDelta(t, -1, n.Y(), 1e-9, "normal from sphere down into the box")
	assert.InDelta(t, 0.2, depth, 1e-9)

	n, _, ok = collide(box, above)
	require.True(t, ok)
	assert.InDelta(t, 1, n.Y(), 1e-9)

	far := NewSphere(0.5, 1, mgl64.Vec3{0, 3, 0})
	_, _, ok = collide(far, box)
	assert.False(t, ok)

	inside := NewSphere(0.5, 1, mgl64.Vec3{0, 0.9, 0})
	n, depth, ok = collide(inside, box)
	require.True(t, ok)
	assert.InDelta(t, -1, n.Y(), 1e-9)
	assert.InDelta(t, 0.6, depth, 1e-9)

	other := NewBox(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{1.5, 0, 0})
	n, depth, ok = collide(box, other)
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, n)
	assert.InDelta(t, 0.5, depth, 1e-9)

	s1 := NewSphere(1, 1, mgl64.Vec3{0, 0, 0})
	s2 := NewSphere(1, 1, mgl64.Vec3{0, 0, 1.5})
	n, depth, ok = collide(s1, s2)
	require.True(t, ok)
	assert.InDelta(t, 1, n.Z(), 1e-9)
	assert.InDelta(t, 0.5, depth, 1e-9)
}
