package level

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"x-platformer/backend/internal/entity"
	"x-platformer/backend/internal/physics"
	"x-platformer/backend/internal/scene"
)

var up = mgl64.Vec3{0, 1, 0}

// Lookup находит сущность по ID (обычно Registry.Get)
type Lookup func(id int) (entity.Entity, bool)

// Collector - тот, кто может подбирать монеты и звезды
type Collector interface {
	AddCoins(n int)
	AddStar()
}

// Hittable - тот, кого враг может подбросить или оттолкнуть
type Hittable interface {
	Bounce(vy float64)
	Knockback(dir mgl64.Vec3)
}

// Platform - статичный ящик, по которому ходит персонаж
type Platform struct {
	entity.Base
	size     mgl64.Vec3
	position mgl64.Vec3
	color    string
}

func NewPlatform(base entity.Base, position, size mgl64.Vec3, color string) *Platform {
	return &Platform{Base: base, position: position, size: size, color: color}
}

func (p *Platform) Create() error {
	if p.Node == nil {
		node := scene.NewNode("platform", scene.BOX, p.size, p.color)
		body := physics.NewBox(p.size.Mul(0.5), p.position)
		body.Tag = physics.TagPlatform
		p.Attach(node, body)
	}
	return p.Base.Create()
}

// CollectibleKind - вид предмета
type CollectibleKind string

const (
	Coin CollectibleKind = "coin"
	Star CollectibleKind = "star"
)

const (
	coinRadius = 0.4
	starRadius = 0.6
	spinSpeed  = 2.0 // рад/с
)

// Collectible - сенсор, который исчезает при касании игрока
type Collectible struct {
	entity.Base
	kind     CollectibleKind
	position mgl64.Vec3
	lookup   Lookup
	logger   *zap.SugaredLogger

	spin        float64
	collectedBy int // ID игрока, 0 - не подобран
}

func NewCollectible(base entity.Base, kind CollectibleKind, position mgl64.Vec3, lookup Lookup, logger *zap.SugaredLogger) *Collectible {
	return &Collectible{Base: base, kind: kind, position: position, lookup: lookup, logger: logger}
}

func (c *Collectible) Create() error {
	if c.Node == nil {
		radius, color, shape := coinRadius, "#ffd700", scene.CYLINDER
		size := mgl64.Vec3{coinRadius, 0.1, 0}
		if c.kind == Star {
			radius, color, shape = starRadius, "#fff176", scene.CONE
			size = mgl64.Vec3{starRadius, 0.8, 0}
		}

		body := physics.NewSphere(radius, 0, c.position)
		body.Type = physics.Static
		body.Sensor = true
		body.Tag = physics.TagCollectible
		body.OnCollide(c.onCollide)

		c.Attach(scene.NewNode(string(c.kind), shape, size, color), body)
	}
	return c.Base.Create()
}

// onCollide только запоминает игрока: мир нельзя менять внутри шага
func (c *Collectible) onCollide(ev physics.CollideEvent) {
	if c.collectedBy != 0 || ev.Body.Tag != physics.TagPlayer {
		return
	}
	c.collectedBy = ev.Body.ID
}

func (c *Collectible) Kind() CollectibleKind { return c.kind }

// Collected сообщает, был ли предмет подобран
func (c *Collectible) Collected() bool { return c.collectedBy != 0 }

func (c *Collectible) Update(dt float64) {
	if c.collectedBy != 0 {
		c.award()
		c.Destroy()
		return
	}

	c.spin = math.Mod(c.spin+spinSpeed*dt, 2*math.Pi)
	c.Body.Quaternion = mgl64.QuatRotate(c.spin, up)
	c.SyncMeshToBody()
}

func (c *Collectible) award() {
	e, ok := c.lookup(c.collectedBy)
	if !ok {
		return
	}
	collector, ok := e.(Collector)
	if !ok {
		return
	}
	switch c.kind {
	case Star:
		collector.AddStar()
	default:
		collector.AddCoins(1)
	}
	c.logger.Debugf("[Level] Игрок %d подобрал %s %d", c.collectedBy, c.kind, c.ID())
}

// hit - контакт с игроком, обрабатывается в Update врага
type hit struct {
	playerID int
	normal   mgl64.Vec3 // от врага к игроку
}

// Enemy движется по окружности вокруг центра с постоянной угловой скоростью
type Enemy struct {
	entity.Base
	center       mgl64.Vec3
	radius       float64
	angularSpeed float64
	angle        float64

	stompThreshold float64
	stompBounce    float64
	lookup         Lookup
	logger         *zap.SugaredLogger

	pending  []hit
	defeated bool
}

// EnemyParams задает траекторию и реакцию на прыжок сверху
type EnemyParams struct {
	Center         mgl64.Vec3
	Radius         float64
	AngularSpeed   float64
	StompThreshold float64
	StompBounce    float64
}

const enemySize = 0.6

func NewEnemy(base entity.Base, params EnemyParams, lookup Lookup, logger *zap.SugaredLogger) *Enemy {
	return &Enemy{
		Base:           base,
		center:         params.Center,
		radius:         params.Radius,
		angularSpeed:   params.AngularSpeed,
		stompThreshold: params.StompThreshold,
		stompBounce:    params.StompBounce,
		lookup:         lookup,
		logger:         logger,
	}
}

func (e *Enemy) Create() error {
	if e.Node == nil {
		root := scene.NewNode("enemy", scene.GROUP, mgl64.Vec3{}, "")
		root.AddChild(scene.NewNode("body", scene.SPHERE, mgl64.Vec3{enemySize, 0, 0}, "#6d4c41"))
		eye := func(name string, x float64) {
			n := scene.NewNode(name, scene.SPHERE, mgl64.Vec3{0.12, 0, 0}, "#ffffff")
			n.Position = mgl64.Vec3{x, 0.2, enemySize * 0.85}
			root.AddChild(n)
		}
		eye("leftEye", -0.2)
		eye("rightEye", 0.2)

		body := physics.NewSphere(enemySize, 1, e.pointAt(e.angle))
		body.Type = physics.Kinematic
		body.Tag = physics.TagEnemy
		body.OnCollide(e.onCollide)
		e.Attach(root, body)
	}
	return e.Base.Create()
}

func (e *Enemy) pointAt(angle float64) mgl64.Vec3 {
	sin, cos := math.Sincos(angle)
	return e.center.Add(mgl64.Vec3{e.radius * cos, 0, e.radius * sin})
}

func (e *Enemy) onCollide(ev physics.CollideEvent) {
	if e.defeated || ev.Body.Tag != physics.TagPlayer {
		return
	}
	e.pending = append(e.pending, hit{
		playerID: ev.Body.ID,
		normal:   ev.Contact.NormalFor(ev.Body),
	})
}

// Update ведет врага по окружности. Позиция всегда вычисляется из угла,
// скорость по касательной нужна для разрешения контактов.
func (e *Enemy) Update(dt float64) {
	e.resolveHits()
	if e.defeated {
		e.logger.Infof("[Level] Враг %d побежден", e.ID())
		e.Destroy()
		return
	}

	e.angle = math.Mod(e.angle+e.angularSpeed*dt, 2*math.Pi)
	sin, cos := math.Sincos(e.angle)
	speed := e.radius * e.angularSpeed
	v := mgl64.Vec3{-sin * speed, 0, cos * speed}
	e.Body.Velocity = v
	e.Body.Position = e.pointAt(e.angle)

	if v.Len() > 1e-9 {
		e.Body.Quaternion = mgl64.QuatRotate(math.Atan2(v.X(), v.Z()), up)
	}
	e.SyncMeshToBody()
}

func (e *Enemy) resolveHits() {
	for _, h := range e.pending {
		ent, ok := e.lookup(h.playerID)
		if !ok {
			continue
		}
		target, ok := ent.(Hittable)
		if !ok {
			continue
		}
		if h.normal.Y() > e.stompThreshold {
			e.defeated = true
			target.Bounce(e.stompBounce)
			// Один прыжок сверху на кадр
			break
		}
		target.Knockback(h.normal)
	}
	e.pending = e.pending[:0]
}

// Defeated сообщает, что враг побежден
func (e *Enemy) Defeated() bool { return e.defeated }

// Angle возвращает текущий угол на окружности
func (e *Enemy) Angle() float64 { return e.angle }

// DecorationKind - вид декорации
type DecorationKind string

const (
	Cloud DecorationKind = "cloud"
	Tree  DecorationKind = "tree"
)

// Decoration - сущность без физического тела
type Decoration struct {
	entity.Base
	kind     DecorationKind
	position mgl64.Vec3
	scale    float64
}

func NewDecoration(base entity.Base, kind DecorationKind, position mgl64.Vec3, scale float64) *Decoration {
	if scale <= 0 {
		scale = 1
	}
	return &Decoration{Base: base, kind: kind, position: position, scale: scale}
}

func (d *Decoration) Create() error {
	if d.Node == nil {
		root := scene.NewNode(string(d.kind), scene.GROUP, mgl64.Vec3{}, "")
		switch d.kind {
		case Tree:
			trunk := scene.NewNode("trunk", scene.CYLINDER, mgl64.Vec3{0.3, 2, 0}, "#795548")
			trunk.Position = mgl64.Vec3{0, 1, 0}
			crown := scene.NewNode("crown", scene.CONE, mgl64.Vec3{1.5, 3, 0}, "#2e7d32")
			crown.Position = mgl64.Vec3{0, 3.5, 0}
			root.AddChild(trunk)
			root.AddChild(crown)
		default:
			for i, x := range []float64{-1.2, 0, 1.2} {
				puff := scene.NewNode("puff", scene.SPHERE, mgl64.Vec3{1 + 0.3*float64(i%2), 0, 0}, "#ffffff")
				puff.Position = mgl64.Vec3{x, 0, 0}
				root.AddChild(puff)
			}
		}
		root.Position = d.position
		root.Scale = mgl64.Vec3{d.scale, d.scale, d.scale}
		d.Attach(root, nil)
	}
	return d.Base.Create()
}
