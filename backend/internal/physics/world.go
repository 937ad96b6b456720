package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"x-platformer/backend/internal/config"
)

// ErrDuplicateBody возвращается при повторной регистрации тела с тем же ID
var ErrDuplicateBody = errors.New("physics: body already registered")

// World - реестр твердых тел и пошаговая симуляция.
// Тела адресуются ID сущности, которой они принадлежат.
type World struct {
	gravity     mgl64.Vec3
	damping     float64
	friction    float64
	restitution float64

	bodies []*Body // Порядок регистрации, для детерминированного обхода
	index  map[int]*Body

	accumulator float64
	stepCount   uint64
	contacts    []Contact
}

// NewWorld создает физический мир по конфигурации
func NewWorld(cfg config.PhysicsConfig) *World {
	return &World{
		gravity:     mgl64.Vec3{0, cfg.Gravity, 0},
		damping:     cfg.LinearDamping,
		friction:    cfg.Friction,
		restitution: cfg.Restitution,
		index:       make(map[int]*Body),
	}
}

// Add регистрирует тело под его ID
func (w *World) Add(body *Body) error {
	if _, exists := w.index[body.ID]; exists {
		return fmt.Errorf("%w: id %d", ErrDuplicateBody, body.ID)
	}
	if body.Quaternion == (mgl64.Quat{}) {
		body.Quaternion = mgl64.QuatIdent()
	}
	w.index[body.ID] = body
	w.bodies = append(w.bodies, body)
	return nil
}

// Remove снимает тело с регистрации. Возвращает false, если тела не было.
func (w *World) Remove(id int) bool {
	body, exists := w.index[id]
	if !exists {
		return false
	}
	delete(w.index, id)
	for i, b := range w.bodies {
		if b == body {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			break
		}
	}
	return true
}

// Body возвращает тело по ID
func (w *World) Body(id int) (*Body, bool) {
	body, exists := w.index[id]
	return body, exists
}

// Len возвращает количество зарегистрированных тел
func (w *World) Len() int {
	return len(w.bodies)
}

// StepCount возвращает число выполненных внутренних шагов
func (w *World) StepCount() uint64 {
	return w.stepCount
}

// Step продвигает симуляцию.
// При realDt == 0 выполняется ровно один шаг fixedDt, иначе realDt накапливается
// и выполняется не больше maxSubsteps фиксированных шагов. Возвращает число шагов.
func (w *World) Step(fixedDt, realDt float64, maxSubsteps int) int {
	if fixedDt <= 0 {
		return 0
	}
	if realDt <= 0 {
		w.internalStep(fixedDt)
		return 1
	}
	if maxSubsteps <= 0 {
		maxSubsteps = 1
	}

	w.accumulator += realDt
	substeps := 0
	for w.accumulator >= fixedDt && substeps < maxSubsteps {
		w.internalStep(fixedDt)
		w.accumulator -= fixedDt
		substeps++
	}

	// Не даем долгу накапливаться после провала по времени
	if w.accumulator >= fixedDt {
		w.accumulator = math.Mod(w.accumulator, fixedDt)
	}
	return substeps
}

func (w *World) internalStep(dt float64) {
	w.stepCount++
	w.integrate(dt)
	w.detect()
	w.resolve()
	w.emit()
}

// integrate: полунеявный Эйлер, сначала скорость, потом позиция
func (w *World) integrate(dt float64) {
	dampFactor := math.Pow(1-w.damping, dt)
	for _, b := range w.bodies {
		switch b.Type {
		case Dynamic:
			if b.Sensor {
				continue
			}
			b.Velocity = b.Velocity.Add(w.gravity.Mul(dt)).Mul(dampFactor)
			b.Position = b.Position.Add(b.Velocity.Mul(dt))
		case Kinematic:
			b.Position = b.Position.Add(b.Velocity.Mul(dt))
		}
	}
}

// detect собирает контакты. Пары без динамического тела не проверяются.
func (w *World) detect() {
	w.contacts = w.contacts[:0]
	for i := 0; i < len(w.bodies); i++ {
		a := w.bodies[i]
		for j := i + 1; j < len(w.bodies); j++ {
			b := w.bodies[j]
			if !pairCanCollide(a, b) {
				continue
			}
			n, depth, ok := collide(a, b)
			if !ok {
				continue
			}
			w.contacts = append(w.contacts, Contact{Bi: a, Bj: b, Ni: n, Depth: depth})
		}
	}
}

func pairCanCollide(a, b *Body) bool {
	if a.Sensor && b.Sensor {
		return false
	}
	aMoving := a.Type == Dynamic && !a.Sensor
	bMoving := b.Type == Dynamic && !b.Sensor
	return aMoving || bMoving
}

// resolve выталкивает тела и гасит скорость сближения
func (w *World) resolve() {
	for i := range w.contacts {
		c := &w.contacts[i]
		if c.Bi.Sensor || c.Bj.Sensor {
			continue
		}

		ia, ib := c.Bi.InvMass(), c.Bj.InvMass()
		total := ia + ib
		if total == 0 {
			continue
		}

		n := c.Ni
		c.Bi.Position = c.Bi.Position.Sub(n.Mul(c.Depth * ia / total))
		c.Bj.Position = c.Bj.Position.Add(n.Mul(c.Depth * ib / total))

		rel := c.Bj.Velocity.Sub(c.Bi.Velocity)
		vn := rel.Dot(n)
		if vn >= 0 {
			continue // Уже расходятся
		}

		jn := -(1 + w.restitution) * vn / total
		c.Bi.Velocity = c.Bi.Velocity.Sub(n.Mul(jn * ia))
		c.Bj.Velocity = c.Bj.Velocity.Add(n.Mul(jn * ib))

		// Трение по Кулону: ограничено долей нормального импульса
		rel = c.Bj.Velocity.Sub(c.Bi.Velocity)
		tangent := rel.Sub(n.Mul(rel.Dot(n)))
		speed := tangent.Len()
		if speed < 1e-9 || w.friction <= 0 {
			continue
		}
		jt := math.Min(speed/total, w.friction*jn)
		dir := tangent.Mul(1 / speed)
		c.Bi.Velocity = c.Bi.Velocity.Add(dir.Mul(jt * ia))
		c.Bj.Velocity = c.Bj.Velocity.Sub(dir.Mul(jt * ib))
	}
}

// emit рассылает события после разрешения, чтобы обработчики видели итоговое состояние
func (w *World) emit() {
	for i := range w.contacts {
		c := &w.contacts[i]
		c.Bi.dispatch(CollideEvent{Target: c.Bi, Body: c.Bj, Contact: c})
		c.Bj.dispatch(CollideEvent{Target: c.Bj, Body: c.Bi, Contact: c})
	}
}
