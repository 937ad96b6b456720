package input

import (
	"math"
	"sync"
)

// Коды клавиш в формате KeyboardEvent.code
const (
	KeyW          = "KeyW"
	KeyA          = "KeyA"
	KeyS          = "KeyS"
	KeyD          = "KeyD"
	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
	KeySpace      = "Space"
	KeyShiftLeft  = "ShiftLeft"
	KeyShiftRight = "ShiftRight"
	KeyCtrlLeft   = "ControlLeft"
	KeyCtrlRight  = "ControlRight"
)

// action - логическое действие, к которому привязана клавиша
type action int

const (
	actionForward action = iota
	actionBack
	actionLeft
	actionRight
	actionJump
	actionRun
	actionCrouch
	actionCount
)

var bindings = map[string]action{
	KeyW:          actionForward,
	KeyArrowUp:    actionForward,
	KeyS:          actionBack,
	KeyArrowDown:  actionBack,
	KeyA:          actionLeft,
	KeyArrowLeft:  actionLeft,
	KeyD:          actionRight,
	KeyArrowRight: actionRight,
	KeySpace:      actionJump,
	KeyShiftLeft:  actionRun,
	KeyShiftRight: actionRun,
	KeyCtrlLeft:   actionCrouch,
	KeyCtrlRight:  actionCrouch,
}

// Known сообщает, привязана ли клавиша к действию
func Known(code string) bool {
	_, ok := bindings[code]
	return ok
}

// Vec2 - вектор движения в плоскости XZ
type Vec2 struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// IsZero возвращает true для нулевого вектора
func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Z == 0
}

// State - состояние ввода, зафиксированное на текущий кадр
type State struct {
	Movement      Vec2
	JumpPressed   bool
	Run           bool
	Crouch        bool
	MouseDX       float64
	MouseDY       float64
	Wheel         float64
	PointerLocked bool
}

// Sampler собирает сырые события клавиатуры и мыши и раз в кадр
// превращает их в State. События приходят из горутины соединения,
// чтение происходит только из игрового цикла.
type Sampler struct {
	mu sync.Mutex

	// Сырые данные, копятся между вызовами Update
	held        [actionCount]bool
	pressed     [actionCount]bool // Переход вниз с прошлого Update
	pendingDX   float64
	pendingDY   float64
	pendingZoom float64
	locked      bool

	// Снимок текущего кадра
	frame State
}

func NewSampler() *Sampler {
	return &Sampler{}
}

// KeyDown отмечает нажатие клавиши. Неизвестные коды игнорируются.
func (s *Sampler) KeyDown(code string) {
	a, ok := bindings[code]
	if !ok {
		return
	}
	s.mu.Lock()
	// Автоповтор браузера не создает новых фронтов
	if !s.held[a] {
		s.pressed[a] = true
	}
	s.held[a] = true
	s.mu.Unlock()
}

// KeyUp отмечает отпускание клавиши
func (s *Sampler) KeyUp(code string) {
	a, ok := bindings[code]
	if !ok {
		return
	}
	s.mu.Lock()
	s.held[a] = false
	s.mu.Unlock()
}

// MouseMove накапливает смещение мыши
func (s *Sampler) MouseMove(dx, dy float64) {
	if math.IsNaN(dx) || math.IsNaN(dy) || math.IsInf(dx, 0) || math.IsInf(dy, 0) {
		return
	}
	s.mu.Lock()
	s.pendingDX += dx
	s.pendingDY += dy
	s.mu.Unlock()
}

// Wheel накапливает прокрутку колеса
func (s *Sampler) Wheel(dy float64) {
	if math.IsNaN(dy) || math.IsInf(dy, 0) {
		return
	}
	s.mu.Lock()
	s.pendingZoom += dy
	s.mu.Unlock()
}

// SetPointerLock фиксирует захват указателя клиентом
func (s *Sampler) SetPointerLock(locked bool) {
	s.mu.Lock()
	s.locked = locked
	s.mu.Unlock()
}

// ReleaseAll отпускает все клавиши (потеря фокуса окна)
func (s *Sampler) ReleaseAll() {
	s.mu.Lock()
	s.held = [actionCount]bool{}
	s.mu.Unlock()
}

// Update вызывается ровно один раз в начале кадра, до чтения состояния.
// Фронты и накопители прошлого кадра сбрасываются, события с прошлого
// вызова сворачиваются в новый снимок.
func (s *Sampler) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frame = State{
		Movement:      movement(s.isDown(actionForward), s.isDown(actionBack), s.isDown(actionLeft), s.isDown(actionRight)),
		JumpPressed:   s.pressed[actionJump],
		Run:           s.isDown(actionRun),
		Crouch:        s.isDown(actionCrouch),
		MouseDX:       s.pendingDX,
		MouseDY:       s.pendingDY,
		Wheel:         s.pendingZoom,
		PointerLocked: s.locked,
	}

	s.pressed = [actionCount]bool{}
	s.pendingDX, s.pendingDY, s.pendingZoom = 0, 0, 0
}

// Короткое нажатие между кадрами тоже считается удержанием на этот кадр
func (s *Sampler) isDown(a action) bool {
	return s.held[a] || s.pressed[a]
}

func movement(forward, back, left, right bool) Vec2 {
	var v Vec2
	if forward {
		v.Z--
	}
	if back {
		v.Z++
	}
	if left {
		v.X--
	}
	if right {
		v.X++
	}
	if v.IsZero() {
		return Vec2{}
	}
	l := math.Hypot(v.X, v.Z)
	return Vec2{X: v.X / l, Z: v.Z / l}
}

// State возвращает снимок текущего кадра
func (s *Sampler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// MovementVector возвращает нормализованный вектор движения
func (s *Sampler) MovementVector() Vec2 { return s.State().Movement }

// Jump true только в кадре, где пробел перешел из отпущенного в нажатый.
// Повторные чтения в том же кадре дают то же значение.
func (s *Sampler) Jump() bool { return s.State().JumpPressed }

func (s *Sampler) Run() bool { return s.State().Run }

func (s *Sampler) Crouch() bool { return s.State().Crouch }

// MouseDelta возвращает смещение мыши за кадр
func (s *Sampler) MouseDelta() (dx, dy float64) {
	st := s.State()
	return st.MouseDX, st.MouseDY
}

func (s *Sampler) WheelDelta() float64 { return s.State().Wheel }

func (s *Sampler) PointerLocked() bool { return s.State().PointerLocked }
