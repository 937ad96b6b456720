package level

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"x-platformer/backend/internal/config"
	"x-platformer/backend/internal/entity"
	"x-platformer/backend/internal/physics"
	"x-platformer/backend/internal/scene"
)

// Factory создает сущности уровня и регистрирует их в реестре
type Factory struct {
	registry *entity.Registry
	scene    *scene.Scene
	world    *physics.World
	cfg      config.CharacterConfig
	logger   *zap.SugaredLogger
}

// Summary - сколько объектов создано
type Summary struct {
	Platforms   int
	Coins       int
	Stars       int
	Enemies     int
	Decorations int
}

func NewFactory(registry *entity.Registry, sc *scene.Scene, world *physics.World, cfg config.CharacterConfig, logger *zap.SugaredLogger) *Factory {
	return &Factory{
		registry: registry,
		scene:    sc,
		world:    world,
		cfg:      cfg,
		logger:   logger,
	}
}

func (f *Factory) base() entity.Base {
	return entity.NewBase(f.registry.NextID(), f.scene, f.world)
}

// Build создает все объекты раскладки
func (f *Factory) Build(layout Layout) (Summary, error) {
	var sum Summary
	if err := layout.Validate(); err != nil {
		return sum, err
	}

	for _, p := range layout.Platforms {
		platform := NewPlatform(f.base(), vec(p.Position), vec(p.Size), p.Color)
		if err := f.registry.Add(platform); err != nil {
			return sum, fmt.Errorf("add platform: %w", err)
		}
		sum.Platforms++
	}

	for _, pos := range layout.Coins {
		if err := f.registry.Add(NewCollectible(f.base(), Coin, vec(pos), f.registry.Get, f.logger)); err != nil {
			return sum, fmt.Errorf("add coin: %w", err)
		}
		sum.Coins++
	}
	for _, pos := range layout.Stars {
		if err := f.registry.Add(NewCollectible(f.base(), Star, vec(pos), f.registry.Get, f.logger)); err != nil {
			return sum, fmt.Errorf("add star: %w", err)
		}
		sum.Stars++
	}

	for _, e := range layout.Enemies {
		enemy := NewEnemy(f.base(), EnemyParams{
			Center:         vec(e.Center),
			Radius:         e.Radius,
			AngularSpeed:   e.Speed,
			StompThreshold: f.cfg.ContactNormalThreshold,
			StompBounce:    f.cfg.StompBounce,
		}, f.registry.Get, f.logger)
		if err := f.registry.Add(enemy); err != nil {
			return sum, fmt.Errorf("add enemy: %w", err)
		}
		sum.Enemies++
	}

	for _, d := range layout.Decorations {
		if err := f.registry.Add(NewDecoration(f.base(), d.Kind, vec(d.Position), d.Scale)); err != nil {
			return sum, fmt.Errorf("add decoration: %w", err)
		}
		sum.Decorations++
	}

	f.logger.Infof("[Level] Уровень построен: платформ %d, монет %d, звезд %d, врагов %d, декораций %d",
		sum.Platforms, sum.Coins, sum.Stars, sum.Enemies, sum.Decorations)
	return sum, nil
}

func vec(a [3]float64) mgl64.Vec3 {
	return mgl64.Vec3{a[0], a[1], a[2]}
}
