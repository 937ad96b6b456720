package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType - форма коллайдера тела
type ShapeType int

const (
	SPHERE ShapeType = iota
	BOX
)

// BodyType определяет, как тело участвует в симуляции
type BodyType int

const (
	Dynamic   BodyType = iota // Гравитация + разрешение контактов
	Static                    // Неподвижная геометрия уровня
	Kinematic                 // Двигается только по скорости, заданной кодом
)

// Теги тел, по которым сущности узнают друг друга в событиях столкновений
const (
	TagPlayer      = "player"
	TagEnemy       = "enemy"
	TagPlatform    = "platform"
	TagCollectible = "collectible"
)

// Body - твердое тело физического мира.
// Position, Velocity и Quaternion можно менять напрямую между шагами.
type Body struct {
	ID   int
	Type BodyType
	Tag  string

	Shape       ShapeType
	Radius      float64    // Для SPHERE
	HalfExtents mgl64.Vec3 // Для BOX
	Mass        float64

	// Сенсор сообщает о контактах, но не выталкивает тела
	Sensor bool

	Position   mgl64.Vec3
	Velocity   mgl64.Vec3
	Quaternion mgl64.Quat

	listeners []func(CollideEvent)
}

// NewSphere создает динамическую сферу
func NewSphere(radius, mass float64, position mgl64.Vec3) *Body {
	return &Body{
		Type:       Dynamic,
		Shape:      SPHERE,
		Radius:     radius,
		Mass:       mass,
		Position:   position,
		Quaternion: mgl64.QuatIdent(),
	}
}

// NewBox создает статический ящик
func NewBox(halfExtents, position mgl64.Vec3) *Body {
	return &Body{
		Type:        Static,
		Shape:       BOX,
		HalfExtents: halfExtents,
		Position:    position,
		Quaternion:  mgl64.QuatIdent(),
	}
}

// OnCollide подписывает обработчик на событие "collide"
func (b *Body) OnCollide(fn func(CollideEvent)) {
	b.listeners = append(b.listeners, fn)
}

func (b *Body) dispatch(ev CollideEvent) {
	for _, fn := range b.listeners {
		fn(ev)
	}
}

// InvMass возвращает обратную массу для разрешения контактов
func (b *Body) InvMass() float64 {
	if b.Type != Dynamic || b.Sensor || b.Mass <= 0 {
		return 0
	}
	return 1.0 / b.Mass
}

// AABB возвращает габариты тела в мировых координатах
func (b *Body) AABB() (min, max mgl64.Vec3) {
	half := b.HalfExtents
	if b.Shape == SPHERE {
		half = mgl64.Vec3{b.Radius, b.Radius, b.Radius}
	}
	return b.Position.Sub(half), b.Position.Add(half)
}

// Contact описывает точку касания двух тел.
// Ni - нормаль контакта, направленная от Bi к Bj.
type Contact struct {
	Bi    *Body
	Bj    *Body
	Ni    mgl64.Vec3
	Depth float64
}

// NormalFor возвращает нормаль контакта, направленную от другого тела к body
func (c *Contact) NormalFor(body *Body) mgl64.Vec3 {
	if c.Bi == body {
		return c.Ni.Mul(-1)
	}
	return c.Ni
}

// CollideEvent доставляется каждому из двух тел контакта
type CollideEvent struct {
	Target  *Body // Тело, которому доставлено событие
	Body    *Body // Второе тело контакта
	Contact *Contact
}
