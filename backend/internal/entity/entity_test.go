package entity

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"x-platformer/backend/internal/config"
	"x-platformer/backend/internal/logging"
	"x-platformer/backend/internal/physics"
	"x-platformer/backend/internal/scene"
)

// ball - простая сущность с динамическим телом
type ball struct {
	Base
	updates int
}

func newBall(id int, sc *scene.Scene, w *physics.World) *ball {
	b := &ball{Base: NewBase(id, sc, w)}
	b.Attach(
		scene.NewNode("ball", scene.SPHERE, mgl64.Vec3{0.5, 0, 0}, "#ffffff"),
		physics.NewSphere(0.5, 1, mgl64.Vec3{0, 10, 0}),
	)
	return b
}

func (b *ball) Update(dt float64) {
	b.updates++
	b.SyncMeshToBody()
}

func fixtures() (*scene.Scene, *physics.World) {
	return scene.New(), physics.NewWorld(config.Default().Physics)
}

func TestBase_CreateRegistersBoth(t *testing.T) {
	sc, w := fixtures()
	b := newBall(5, sc, w)

	require.NoError(t, b.Create())
	assert.True(t, b.IsActive())

	node, ok := sc.Node(5)
	require.True(t, ok)
	assert.Same(t, b.Node, node)

	body, ok := w.Body(5)
	require.True(t, ok)
	assert.Equal(t, 5, body.ID)
	assert.Equal(t, mgl64.Vec3{0, 10, 0}, node.Position, "node synced on create")

	assert.ErrorIs(t, b.Create(), ErrAlreadyCreated)
	assert.Equal(t, 1, sc.Len())
	assert.Equal(t, 1, w.Len())
}

func TestBase_CreateWithoutNodeFails(t *testing.T) {
	sc, w := fixtures()
	b := NewBase(1, sc, w)
	assert.ErrorIs(t, b.Create(), ErrNoNode)
	assert.False(t, b.IsActive())
}

func TestBase_CreateRollsBackNodeOnBodyConflict(t *testing.T) {
	sc, w := fixtures()
	taken := physics.NewSphere(1, 1, mgl64.Vec3{})
	taken.ID = 3
	require.NoError(t, w.Add(taken))

	b := newBall(3, sc, w)
	err := b.Create()
	assert.ErrorIs(t, err, physics.ErrDuplicateBody)
	assert.Equal(t, 0, sc.Len())
	assert.False(t, b.IsActive())
}

func TestBase_SyncMeshToBody(t *testing.T) {
	sc, w := fixtures()
	b := newBall(1, sc, w)
	require.NoError(t, b.Create())

	b.Body.Position = mgl64.Vec3{1, 2, 3}
	b.Body.Quaternion = mgl64.QuatRotate(1.0, mgl64.Vec3{0, 1, 0})
	b.SyncMeshToBody()
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, b.Node.Position)
	assert.Equal(t, b.Body.Quaternion, b.Node.Rotation)

	b.SyncMeshToBodyOffset(mgl64.Vec3{0, -0.5, 0})
	assert.Equal(t, mgl64.Vec3{1, 1.5, 3}, b.Node.Position)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, b.Body.Position, "body is never written by sync")
}

func TestBase_DestroyTwiceIsNoop(t *testing.T) {
	sc, w := fixtures()
	b := newBall(1, sc, w)
	require.NoError(t, b.Create())

	b.Destroy()
	assert.False(t, b.IsActive())
	assert.Equal(t, 0, sc.Len())
	assert.Equal(t, 0, w.Len())

	assert.NotPanics(t, b.Destroy)
	assert.False(t, b.IsActive())
}

func TestBase_DecorationHasNoBody(t *testing.T) {
	sc, w := fixtures()
	b := NewBase(2, sc, w)
	b.Attach(scene.NewNode("cloud", scene.SPHERE, mgl64.Vec3{1, 0, 0}, "#ffffff"), nil)

	require.NoError(t, b.Create())
	assert.Equal(t, 0, w.Len())
	b.SyncMeshToBody()
	b.Destroy()
	assert.Equal(t, 0, sc.Len())
}

func TestRegistry_UpdateAndPrune(t *testing.T) {
	sc, w := fixtures()
	r := NewRegistry(logging.Nop())

	a := newBall(r.NextID(), sc, w)
	b := newBall(r.NextID(), sc, w)
	require.NoError(t, r.Add(a))
	require.NoError(t, r.Add(b))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 1, a.ID())
	assert.Equal(t, 2, b.ID())

	assert.Error(t, r.Add(a), "same entity twice")

	r.Update(1.0 / 60.0)
	assert.Equal(t, 1, a.updates)
	assert.Equal(t, 1, b.updates)

	b.Destroy()
	r.Update(1.0 / 60.0)
	assert.Equal(t, 2, a.updates)
	assert.Equal(t, 1, b.updates, "inactive entity is skipped")
	assert.Equal(t, 1, r.Len())
	_, ok := r.Get(b.ID())
	assert.False(t, ok)

	got, ok := r.Get(a.ID())
	require.True(t, ok)
	assert.Same(t, a, got)

	var seen []int
	r.Each(func(e Entity) { seen = append(seen, e.ID()) })
	assert.Equal(t, []int{1}, seen)
}

func TestRegistry_RemoveAndClear(t *testing.T) {
	sc, w := fixtures()
	r := NewRegistry(logging.Nop())

	for i := 0; i < 3; i++ {
		require.NoError(t, r.Add(newBall(r.NextID(), sc, w)))
	}

	assert.True(t, r.Remove(2))
	assert.False(t, r.Remove(2))
	assert.Equal(t, 2, r.Len())

	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, sc.Len())
	assert.Equal(t, 0, w.Len())
}

func TestRegistry_AddPropagatesCreateError(t *testing.T) {
	sc, w := fixtures()
	r := NewRegistry(logging.Nop())

	bad := &ball{Base: NewBase(r.NextID(), sc, w)}
	assert.ErrorIs(t, r.Add(bad), ErrNoNode)
	assert.Equal(t, 0, r.Len())
}
