package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScene_AddRemove(t *testing.T) {
	s := New()

	box := NewNode("platform", BOX, mgl64.Vec3{4, 1, 4}, "#8B4513")
	require.NoError(t, s.Add(1, box))
	assert.ErrorIs(t, s.Add(1, box), ErrDuplicateNode)
	assert.Equal(t, 1, s.Len())

	got, ok := s.Node(1)
	require.True(t, ok)
	assert.Same(t, box, got)

	assert.True(t, s.Remove(1))
	assert.False(t, s.Remove(1), "second remove is a no-op")
	assert.Equal(t, 0, s.Len())
}

func TestScene_SnapshotOrderAndChildren(t *testing.T) {
	s := New()

	body := NewNode("player", GROUP, mgl64.Vec3{}, "")
	body.Position = mgl64.Vec3{1, 2, 3}
	arm := body.AddChild(NewNode("leftArm", BOX, mgl64.Vec3{0.2, 0.6, 0.2}, "#ff0000"))
	arm.SetEuler(math.Pi/2, 0, 0)

	require.NoError(t, s.Add(7, NewNode("ground", BOX, mgl64.Vec3{20, 1, 20}, "#00ff00")))
	require.NoError(t, s.Add(3, body))

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, 7, snap[0].ID)
	assert.Equal(t, "box", snap[0].Shape)
	assert.Equal(t, 3, snap[1].ID)
	assert.Equal(t, [3]float64{1, 2, 3}, snap[1].Position)
	assert.Equal(t, [3]float64{1, 1, 1}, snap[1].Scale)

	require.Len(t, snap[1].Children, 1)
	child := snap[1].Children[0]
	assert.Equal(t, "leftArm", child.Name)
	assert.Zero(t, child.ID)
	assert.InDelta(t, math.Sin(math.Pi/4), child.Rotation[0], 1e-9)
	assert.InDelta(t, math.Cos(math.Pi/4), child.Rotation[3], 1e-9)

	assert.Same(t, arm, body.Child("leftArm"))
	assert.Nil(t, body.Child("tail"))
}

func TestShapeType_String(t *testing.T) {
	assert.Equal(t, "sphere", SPHERE.String())
	assert.Equal(t, "cylinder", CYLINDER.String())
	assert.Equal(t, "cone", CONE.String())
	assert.Equal(t, "group", GROUP.String())
}
