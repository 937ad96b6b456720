package character

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"x-platformer/backend/internal/config"
	"x-platformer/backend/internal/entity"
	"x-platformer/backend/internal/hud"
	"x-platformer/backend/internal/physics"
	"x-platformer/backend/internal/scene"
)

// Отброс после бокового контакта с врагом: на это время ввод не пишет скорость
const knockbackDuration = 0.3

var up = mgl64.Vec3{0, 1, 0}

// Player - управляемый персонаж. Тело - сфера, узел - группа из торса,
// головы и конечностей, ноги модели совмещены с точкой контакта.
type Player struct {
	entity.Base

	cfg      config.CharacterConfig
	controls Controls
	camera   OrbitSource
	observer Observer
	logger   *zap.SugaredLogger

	state    State
	grounded bool
	// Контакт снизу, замеченный обработчиком collide с прошлого кадра
	contactGrounded bool

	jumpCount int
	jumpTimer float64
	pounding  bool
	knockback float64

	facing  float64
	elapsed float64

	coins int
	stars int
	lives int
	spawn mgl64.Vec3

	limbs limbs
}

type limbs struct {
	leftArm, rightArm, leftLeg, rightLeg *scene.Node
}

// NewPlayer создает персонажа. Регистрация в сцене и мире происходит в Create.
func NewPlayer(base entity.Base, cfg config.CharacterConfig, controls Controls, camera OrbitSource, logger *zap.SugaredLogger) *Player {
	return &Player{
		Base:     base,
		cfg:      cfg,
		controls: controls,
		camera:   camera,
		observer: nopObserver{},
		logger:   logger,
		state:    Idle,
		lives:    cfg.DefaultLives,
		spawn:    mgl64.Vec3{cfg.Spawn[0], cfg.Spawn[1], cfg.Spawn[2]},
	}
}

// SetObserver подключает получателя переходов состояний
func (p *Player) SetObserver(obs Observer) {
	if obs == nil {
		obs = nopObserver{}
	}
	p.observer = obs
}

// Create строит модель и тело и подписывается на контакты
func (p *Player) Create() error {
	if p.Node == nil {
		body := physics.NewSphere(p.cfg.Radius, p.cfg.Mass, p.spawn)
		body.Tag = physics.TagPlayer
		body.OnCollide(p.onCollide)
		p.Attach(p.buildModel(), body)
	}
	return p.Base.Create()
}

func (p *Player) buildModel() *scene.Node {
	root := scene.NewNode("player", scene.GROUP, mgl64.Vec3{}, "")

	torso := scene.NewNode("torso", scene.BOX, mgl64.Vec3{0.6, 0.7, 0.4}, "#e53935")
	torso.Position = mgl64.Vec3{0, 0.75, 0}
	root.AddChild(torso)

	head := scene.NewNode("head", scene.SPHERE, mgl64.Vec3{0.25, 0, 0}, "#ffcc80")
	head.Position = mgl64.Vec3{0, 1.35, 0}
	root.AddChild(head)

	limb := func(name string, x, y float64, color string) *scene.Node {
		n := scene.NewNode(name, scene.BOX, mgl64.Vec3{0.18, 0.5, 0.18}, color)
		n.Position = mgl64.Vec3{x, y, 0}
		return root.AddChild(n)
	}
	p.limbs = limbs{
		leftArm:  limb("leftArm", -0.42, 0.8, "#e53935"),
		rightArm: limb("rightArm", 0.42, 0.8, "#e53935"),
		leftLeg:  limb("leftLeg", -0.16, 0.25, "#1e88e5"),
		rightLeg: limb("rightLeg", 0.16, 0.25, "#1e88e5"),
	}
	return root
}

// onCollide вызывается физическим миром внутри шага.
// Здесь только фиксируется факт опоры, решения принимаются в Update.
func (p *Player) onCollide(ev physics.CollideEvent) {
	other := ev.Body
	if other.Sensor || other.Tag == physics.TagEnemy {
		return
	}
	n := ev.Contact.NormalFor(p.Body)
	if n.Y() > p.cfg.ContactNormalThreshold {
		p.contactGrounded = true
	}
}

// Update выполняет кадр персонажа. Вызывается после шага физики.
func (p *Player) Update(dt float64) {
	if !p.IsActive() {
		return
	}
	p.elapsed += dt

	p.refreshGrounding()
	p.applyMovement(dt)
	p.handleJump(dt)
	p.handleGroundPound()
	p.syncVisual()
	p.classify()
	p.animate()
	p.checkWorldFall()
}

// 1. Опора: событие контакта или запасной признак по скорости и высоте
func (p *Player) refreshGrounding() {
	vy := p.Body.Velocity.Y()
	still := math.Abs(vy) < p.cfg.GroundedVelocityBand
	fallback := still && p.Body.Position.Y() < p.cfg.GroundedFallbackHeight

	switch {
	case p.contactGrounded || fallback:
		p.grounded = true
	case !still:
		// Сошел с края или подброшен
		p.grounded = false
	}
	p.contactGrounded = false

	if p.grounded {
		p.pounding = false
		if p.jumpTimer <= 0 {
			p.jumpCount = 0
		}
	}
}

// 2. Горизонтальная скорость из ввода, повернутого на угол камеры
func (p *Player) applyMovement(dt float64) {
	if p.knockback > 0 {
		p.knockback = math.Max(0, p.knockback-dt)
		return
	}

	mv := p.controls.MovementVector()
	if mv.IsZero() {
		return
	}

	theta := p.camera.OrbitAngle()
	sin, cos := math.Sincos(theta)
	x := mv.X*cos + mv.Z*sin
	z := -mv.X*sin + mv.Z*cos

	speed := p.cfg.MoveSpeed
	if p.controls.Run() {
		speed = p.cfg.RunSpeed
	}

	v := p.Body.Velocity
	p.Body.Velocity = mgl64.Vec3{x * speed, v.Y(), z * speed}
}

// 3. Цепочка прыжков: одинарный, двойной, тройной
func (p *Player) handleJump(dt float64) {
	p.jumpTimer = math.Max(0, p.jumpTimer-dt)

	if !p.controls.Jump() || !p.grounded {
		return
	}

	var force float64
	var next State
	switch {
	case p.jumpTimer > 0 && p.jumpCount == 1:
		force, next = p.cfg.DoubleJumpForce, DoubleJump
		p.jumpCount = 2
	case p.jumpTimer > 0 && p.jumpCount == 2:
		force, next = p.cfg.TripleJumpForce, TripleJump
		p.jumpCount = 0
	default:
		force, next = p.cfg.JumpForce, Jumping
		p.jumpCount = 1
	}

	v := p.Body.Velocity
	p.Body.Velocity = mgl64.Vec3{v.X(), force, v.Z()}
	p.grounded = false
	p.jumpTimer = p.cfg.JumpWindow
	p.setState(next)
}

// 4. Удар о землю в воздухе
func (p *Player) handleGroundPound() {
	if !p.controls.Crouch() || p.grounded || p.pounding {
		return
	}
	p.Body.Velocity = mgl64.Vec3{0, p.cfg.GroundPoundVelocity, 0}
	p.pounding = true
	p.setState(GroundPound)
}

// 5. Поворот по направлению движения пишется в тело, узел копирует тело
func (p *Player) syncVisual() {
	v := p.Body.Velocity
	if math.Hypot(v.X(), v.Z()) > p.cfg.FacingEpsilon {
		p.facing = math.Atan2(v.X(), v.Z())
		p.Body.Quaternion = mgl64.QuatRotate(p.facing, up)
	}
	p.SyncMeshToBodyOffset(mgl64.Vec3{0, p.cfg.FootOffset, 0})
}

// 6. Грубая классификация для анимации
func (p *Player) classify() {
	v := p.Body.Velocity
	moving := math.Hypot(v.X(), v.Z()) > p.cfg.FacingEpsilon

	switch {
	case p.grounded && moving:
		p.setState(Running)
	case p.grounded:
		p.setState(Idle)
	case v.Y() < 0 && !p.pounding:
		p.setState(Falling)
	}
}

// 8. Падение за пределы мира
func (p *Player) checkWorldFall() {
	if p.Body.Position.Y() < p.cfg.FallLimit {
		p.Respawn()
	}
}

// Respawn отнимает жизнь и возвращает персонажа в точку появления.
// Когда жизни заканчиваются, прогресс сбрасывается к начальному.
func (p *Player) Respawn() {
	p.lives--
	reset := false
	if p.lives <= 0 {
		p.lives = p.cfg.DefaultLives
		p.coins = 0
		p.stars = 0
		reset = true
	}

	p.Body.Position = p.spawn
	p.Body.Velocity = mgl64.Vec3{}
	p.Body.Quaternion = mgl64.QuatIdent()
	p.facing = 0

	p.grounded = false
	p.contactGrounded = false
	p.jumpCount = 0
	p.jumpTimer = 0
	p.pounding = false
	p.knockback = 0
	p.setState(Idle)
	p.animate()
	p.SyncMeshToBodyOffset(mgl64.Vec3{0, p.cfg.FootOffset, 0})

	p.logger.Infof("[Player] Игрок %d упал за пределы мира, жизней: %d, сброс прогресса: %v", p.ID(), p.lives, reset)
	p.observer.Respawned(p.ID(), p.lives, reset)
}

func (p *Player) setState(next State) {
	if next == p.state {
		return
	}
	prev := p.state
	p.state = next
	p.observer.StateChanged(p.ID(), prev, next)
}

// AddCoins добавляет монеты. Каждая сотня превращается в жизнь.
func (p *Player) AddCoins(n int) {
	if n <= 0 {
		return
	}
	p.coins += n
	for p.coins >= p.cfg.CoinsPerLife {
		p.coins -= p.cfg.CoinsPerLife
		p.lives++
	}
}

// AddStar добавляет звезду
func (p *Player) AddStar() {
	p.stars++
}

// Bounce подбрасывает персонажа после прыжка на врага
func (p *Player) Bounce(vy float64) {
	v := p.Body.Velocity
	p.Body.Velocity = mgl64.Vec3{v.X(), vy, v.Z()}
	p.grounded = false
	p.pounding = false
	p.setState(Jumping)
}

// Knockback отталкивает персонажа от врага по горизонтали
func (p *Player) Knockback(dir mgl64.Vec3) {
	dir = mgl64.Vec3{dir.X(), 0, dir.Z()}
	if dir.Len() < 1e-9 {
		dir = mgl64.Vec3{0, 0, 1}
	}
	dir = dir.Normalize().Mul(p.cfg.Knockback)
	p.Body.Velocity = mgl64.Vec3{dir.X(), p.cfg.Knockback / 2, dir.Z()}
	p.grounded = false
	p.knockback = knockbackDuration
}

// Stats возвращает счетчики для HUD
func (p *Player) Stats() hud.Stats {
	return hud.Stats{Coins: p.coins, Stars: p.stars, Lives: p.lives}
}

func (p *Player) State() State { return p.state }

func (p *Player) Grounded() bool { return p.grounded }

func (p *Player) JumpCount() int { return p.jumpCount }

func (p *Player) JumpTimer() float64 { return p.jumpTimer }

func (p *Player) Pounding() bool { return p.pounding }

// Facing возвращает угол поворота модели вокруг Y
func (p *Player) Facing() float64 { return p.facing }

// Position возвращает позицию тела
func (p *Player) Position() mgl64.Vec3 { return p.Body.Position }

// Rotation возвращает ориентацию тела
func (p *Player) Rotation() mgl64.Quat { return p.Body.Quaternion }
