package game

import (
	"time"

	"go.uber.org/zap"

	"x-platformer/backend/internal/camera"
	"x-platformer/backend/internal/character"
	"x-platformer/backend/internal/hud"
	"x-platformer/backend/internal/scene"
)

// Приоритеты систем задают порядок кадра
const (
	PriorityInput   = 5
	PriorityPhysics = 10
	PriorityEntity  = 15
	PriorityCamera  = 20
	PriorityHUD     = 30
	PriorityRender  = 100
	PriorityMetrics = 200
)

// Frame - то, что получает клиент сессии после кадра
type Frame struct {
	Tick       uint64            `json:"tick"`
	ServerTime int64             `json:"server_time"`
	PlayerID   int               `json:"player_id"`
	State      character.State   `json:"state"`
	Grounded   bool              `json:"grounded"`
	Camera     camera.View       `json:"camera"`
	HUD        hud.Stats         `json:"hud"`
	HUDChanged bool              `json:"hud_changed"`
	Nodes      []scene.NodeState `json:"nodes"`
}

// Renderer доставляет кадр клиенту сессии. Вызывается из игрового цикла,
// поэтому не должен блокироваться на сети.
type Renderer interface {
	Render(sessionID string, frame Frame)
}

// RegisterDefaultSystems подключает системы кадра в стандартном порядке:
// ввод, физика, сущности, камера, HUD, отрисовка, метрики
func (gt *GameTicker) RegisterDefaultSystems(renderer Renderer) {
	gt.RegisterSystem(NewInputSystem(gt))
	gt.RegisterSystem(NewPhysicsSystem(gt))
	gt.RegisterSystem(NewEntitySystem(gt))
	gt.RegisterSystem(NewCameraSystem(gt))
	gt.RegisterSystem(NewHUDSystem(gt))
	if renderer != nil {
		gt.RegisterSystem(NewRenderSystem(gt, renderer))
	}
	gt.RegisterSystem(NewGameMetricsSystem(gt, gt.logger))
}

// InputSystem сворачивает события ввода каждой сессии в снимок кадра
// и поворачивает камеру по мыши и колесу
type InputSystem struct {
	name       string
	priority   int
	gameTicker *GameTicker
}

func NewInputSystem(gameTicker *GameTicker) *InputSystem {
	return &InputSystem{name: "InputSystem", priority: PriorityInput, gameTicker: gameTicker}
}

func (is *InputSystem) Update(deltaTime time.Duration) error {
	for _, s := range is.gameTicker.activeSessions() {
		s.Input.Update()
		st := s.Input.State()
		s.Camera.HandleInput(st.MouseDX, st.MouseDY, st.Wheel, st.PointerLocked)
	}
	return nil
}

func (is *InputSystem) GetName() string  { return is.name }
func (is *InputSystem) GetPriority() int { return is.priority }

// PhysicsSystem продвигает физический мир фиксированными шагами
type PhysicsSystem struct {
	name       string
	priority   int
	gameTicker *GameTicker
}

func NewPhysicsSystem(gameTicker *GameTicker) *PhysicsSystem {
	return &PhysicsSystem{name: "PhysicsSystem", priority: PriorityPhysics, gameTicker: gameTicker}
}

func (ps *PhysicsSystem) Update(deltaTime time.Duration) error {
	loop := ps.gameTicker.cfg.Loop
	ps.gameTicker.world.Step(loop.FixedStep, deltaTime.Seconds(), loop.MaxSubsteps)
	return nil
}

func (ps *PhysicsSystem) GetName() string  { return ps.name }
func (ps *PhysicsSystem) GetPriority() int { return ps.priority }

// EntitySystem обновляет все сущности реестра
type EntitySystem struct {
	name       string
	priority   int
	gameTicker *GameTicker
}

func NewEntitySystem(gameTicker *GameTicker) *EntitySystem {
	return &EntitySystem{name: "EntitySystem", priority: PriorityEntity, gameTicker: gameTicker}
}

func (es *EntitySystem) Update(deltaTime time.Duration) error {
	es.gameTicker.registry.Update(deltaTime.Seconds())
	return nil
}

func (es *EntitySystem) GetName() string  { return es.name }
func (es *EntitySystem) GetPriority() int { return es.priority }

// CameraSystem подтягивает камеру каждой сессии к ее персонажу
type CameraSystem struct {
	name       string
	priority   int
	gameTicker *GameTicker
}

func NewCameraSystem(gameTicker *GameTicker) *CameraSystem {
	return &CameraSystem{name: "CameraSystem", priority: PriorityCamera, gameTicker: gameTicker}
}

func (cs *CameraSystem) Update(deltaTime time.Duration) error {
	for _, s := range cs.gameTicker.activeSessions() {
		s.Camera.FollowTarget(s.Player.Position(), s.Player.Rotation(), deltaTime.Seconds())
	}
	return nil
}

func (cs *CameraSystem) GetName() string  { return cs.name }
func (cs *CameraSystem) GetPriority() int { return cs.priority }

// HUDSystem передает счетчики персонажа в панель сессии
type HUDSystem struct {
	name       string
	priority   int
	gameTicker *GameTicker
}

func NewHUDSystem(gameTicker *GameTicker) *HUDSystem {
	return &HUDSystem{name: "HUDSystem", priority: PriorityHUD, gameTicker: gameTicker}
}

func (hs *HUDSystem) Update(deltaTime time.Duration) error {
	for _, s := range hs.gameTicker.activeSessions() {
		s.HUD.Update(s.Player.Stats())
	}
	return nil
}

func (hs *HUDSystem) GetName() string  { return hs.name }
func (hs *HUDSystem) GetPriority() int { return hs.priority }

// RenderSystem снимает состояние сцены и раздает кадр всем сессиям
type RenderSystem struct {
	name       string
	priority   int
	gameTicker *GameTicker
	renderer   Renderer
}

func NewRenderSystem(gameTicker *GameTicker, renderer Renderer) *RenderSystem {
	return &RenderSystem{
		name:       "RenderSystem",
		priority:   PriorityRender, // Отправляем в конце кадра
		gameTicker: gameTicker,
		renderer:   renderer,
	}
}

func (rs *RenderSystem) Update(deltaTime time.Duration) error {
	sessions := rs.gameTicker.activeSessions()
	if len(sessions) == 0 {
		return nil
	}

	// Снимок общий для всех сессий, получатели его только читают
	nodes := rs.gameTicker.scene.Snapshot()
	now := rs.gameTicker.now().UnixMilli()

	for _, s := range sessions {
		stats, changed := s.HUD.TakeChanged()
		rs.renderer.Render(s.ID, Frame{
			Tick:       rs.gameTicker.tickCount,
			ServerTime: now,
			PlayerID:   s.Player.ID(),
			State:      s.Player.State(),
			Grounded:   s.Player.Grounded(),
			Camera:     s.Camera.View(),
			HUD:        stats,
			HUDChanged: changed,
			Nodes:      nodes,
		})
	}
	return nil
}

func (rs *RenderSystem) GetName() string  { return rs.name }
func (rs *RenderSystem) GetPriority() int { return rs.priority }

// GameMetricsSystem система сбора игровых метрик
type GameMetricsSystem struct {
	name       string
	priority   int
	gameTicker *GameTicker
	logger     *zap.SugaredLogger

	lastMetricsLog  time.Time
	lastTick        uint64
	metricsInterval time.Duration
}

func NewGameMetricsSystem(gameTicker *GameTicker, logger *zap.SugaredLogger) *GameMetricsSystem {
	return &GameMetricsSystem{
		name:            "GameMetricsSystem",
		priority:        PriorityMetrics,
		gameTicker:      gameTicker,
		logger:          logger,
		lastMetricsLog:  gameTicker.now(),
		metricsInterval: 30 * time.Second,
	}
}

// Update логирует метрики цикла и сводку телеметрии персонажей
func (gms *GameMetricsSystem) Update(deltaTime time.Duration) error {
	gms.gameTicker.telemetry.PrintSummary()

	now := gms.gameTicker.now()
	if now.Sub(gms.lastMetricsLog) < gms.metricsInterval {
		return nil
	}
	elapsed := now.Sub(gms.lastMetricsLog)
	gms.lastMetricsLog = now

	running, started := gms.gameTicker.runState()
	stats := gms.gameTicker.stats(running, started)
	gms.logger.Infof("📊 [GameMetrics] Кадров: %d, сессий: %d, сущностей: %d, тел: %d, шагов физики: %d, время кадра: %v",
		stats.TickCount, stats.Sessions, stats.Entities, stats.Bodies, stats.PhysicsSteps, stats.AverageTickTime)

	if gms.lastTick > 0 && elapsed > 0 {
		actualTPS := float64(stats.TickCount-gms.lastTick) / elapsed.Seconds()
		if actualTPS < float64(stats.TargetTPS)*0.9 {
			gms.logger.Warnf("⚠️ [GameMetrics] FPS снижен до %.1f (цель %d)", actualTPS, stats.TargetTPS)
		}
	}
	gms.lastTick = stats.TickCount
	return nil
}

func (gms *GameMetricsSystem) GetName() string  { return gms.name }
func (gms *GameMetricsSystem) GetPriority() int { return gms.priority }
