package character

import (
	"x-platformer/backend/internal/input"
)

// State - тег состояния персонажа. Активен ровно один.
type State string

const (
	Idle        State = "idle"
	Running     State = "running"
	Jumping     State = "jumping"
	DoubleJump  State = "double_jump"
	TripleJump  State = "triple_jump"
	GroundPound State = "ground_pound"
	Falling     State = "falling"
)

// Controls - ввод, который персонаж читает каждый кадр
type Controls interface {
	MovementVector() input.Vec2
	Jump() bool
	Run() bool
	Crouch() bool
}

// OrbitSource дает горизонтальный угол камеры для управления относительно камеры
type OrbitSource interface {
	OrbitAngle() float64
}

// Observer получает переходы состояний и респауны
type Observer interface {
	StateChanged(playerID int, from, to State)
	Respawned(playerID int, lives int, progressReset bool)
}

type nopObserver struct{}

func (nopObserver) StateChanged(int, State, State) {}
func (nopObserver) Respawned(int, int, bool)       {}
