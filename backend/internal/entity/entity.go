package entity

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"x-platformer/backend/internal/physics"
	"x-platformer/backend/internal/scene"
)

var (
	// ErrAlreadyCreated возвращается при повторном вызове Create
	ErrAlreadyCreated = errors.New("entity: already created")
	// ErrNoNode возвращается, если сущность создается без визуального узла
	ErrNoNode = errors.New("entity: visual node is not attached")
)

// Entity - игровой объект с жизненным циклом create/update/destroy
type Entity interface {
	ID() int
	Create() error
	Update(dt float64)
	Destroy()
	IsActive() bool
}

// Base - пара из визуального узла и необязательного твердого тела.
// Оба регистрируются под ID сущности. Если тело есть, его позиция
// и ориентация - единственный источник истины для узла.
type Base struct {
	id    int
	scene *scene.Scene
	world *physics.World

	Node *scene.Node
	Body *physics.Body // nil для декораций

	created bool
	active  bool
}

// NewBase создает основу сущности, привязанную к сцене и физическому миру
func NewBase(id int, sc *scene.Scene, world *physics.World) Base {
	return Base{id: id, scene: sc, world: world}
}

func (b *Base) ID() int { return b.id }

func (b *Base) IsActive() bool { return b.active }

// Attach задает узел и тело до вызова Create
func (b *Base) Attach(node *scene.Node, body *physics.Body) {
	b.Node = node
	b.Body = body
}

// Create регистрирует узел в сцене и тело в физическом мире.
// Повторный вызов отклоняется.
func (b *Base) Create() error {
	if b.created {
		return fmt.Errorf("%w: id %d", ErrAlreadyCreated, b.id)
	}
	if b.Node == nil {
		return fmt.Errorf("%w: id %d", ErrNoNode, b.id)
	}

	if err := b.scene.Add(b.id, b.Node); err != nil {
		return fmt.Errorf("register node: %w", err)
	}
	if b.Body != nil {
		b.Body.ID = b.id
		if err := b.world.Add(b.Body); err != nil {
			b.scene.Remove(b.id)
			return fmt.Errorf("register body: %w", err)
		}
		b.SyncMeshToBody()
	}

	b.created = true
	b.active = true
	return nil
}

// Update по умолчанию ничего не делает (статичная геометрия)
func (b *Base) Update(dt float64) {}

// SyncMeshToBody копирует позицию и ориентацию тела на узел
func (b *Base) SyncMeshToBody() {
	b.SyncMeshToBodyOffset(mgl64.Vec3{})
}

// SyncMeshToBodyOffset копирует трансформацию тела со смещением позиции
func (b *Base) SyncMeshToBodyOffset(offset mgl64.Vec3) {
	if b.Body == nil || b.Node == nil {
		return
	}
	b.Node.Position = b.Body.Position.Add(offset)
	b.Node.Rotation = b.Body.Quaternion
}

// Destroy снимает узел и тело с регистрации. Повторный вызов ничего не делает.
func (b *Base) Destroy() {
	if !b.active {
		return
	}
	b.active = false
	b.scene.Remove(b.id)
	if b.Body != nil {
		b.world.Remove(b.id)
	}
}
