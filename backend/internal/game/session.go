package game

import (
	"time"

	"x-platformer/backend/internal/camera"
	"x-platformer/backend/internal/character"
	"x-platformer/backend/internal/config"
	"x-platformer/backend/internal/hud"
	"x-platformer/backend/internal/input"
)

// Session - одно подключение: свой ввод, своя камера, свой HUD и персонаж.
// Input можно кормить событиями из любой горутины, остальное трогает
// только игровой цикл.
type Session struct {
	ID       string
	Input    *input.Sampler
	Camera   *camera.Orbit
	HUD      *hud.Panel
	Player   *character.Player
	JoinedAt time.Time
}

func newSession(id string, cfg *config.Config, now time.Time) *Session {
	return &Session{
		ID:       id,
		Input:    input.NewSampler(),
		Camera:   camera.NewOrbit(cfg.Camera),
		HUD:      hud.NewPanel(),
		JoinedAt: now,
	}
}
