package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"x-platformer/backend/internal/character"
	"x-platformer/backend/internal/config"
	"x-platformer/backend/internal/entity"
	"x-platformer/backend/internal/level"
	"x-platformer/backend/internal/physics"
	"x-platformer/backend/internal/scene"
	"x-platformer/backend/internal/telemetry"
)

var (
	ErrAlreadyRunning   = errors.New("game: ticker already running")
	ErrDuplicateSession = errors.New("game: session already exists")
)

// TickSystem интерфейс для всех игровых систем
type TickSystem interface {
	Update(deltaTime time.Duration) error
	GetName() string
	GetPriority() int // Меньше = раньше в кадре
}

// GameTicker основной менеджер игрового цикла платформера.
// Владеет сценой, физическим миром и реестром сущностей, раз в тик
// прогоняет зарегистрированные системы в порядке приоритета.
type GameTicker struct {
	// Конфигурация
	cfg          *config.Config
	targetTPS    int
	tickDuration time.Duration
	maxFrameDt   time.Duration

	// Состояние
	isRunning    bool
	stateMutex   sync.RWMutex
	tickCount    uint64
	startTime    time.Time
	lastTickTime time.Time

	// Компоненты игры
	scene     *scene.Scene
	world     *physics.World
	registry  *entity.Registry
	telemetry *telemetry.Manager

	sessions map[string]*Session
	order    []string // Порядок подключения сессий

	// Держится на время кадра и при изменении состава сессий
	frameMutex sync.Mutex

	// Системы
	systems      []TickSystem
	systemsMutex sync.RWMutex

	perfMonitor *PerformanceMonitor

	// Управление
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// Метрики
	averageTickTime time.Duration
	maxObservedTick time.Duration
	skippedTicks    uint64

	logger           *zap.SugaredLogger
	warningThreshold time.Duration
	now              func() time.Time
}

// NewGameTicker создает игровой цикл с пустым миром
func NewGameTicker(cfg *config.Config, logger *zap.SugaredLogger) *GameTicker {
	tickDuration := cfg.Loop.TickDuration()

	gt := &GameTicker{
		cfg:              cfg,
		targetTPS:        cfg.Loop.TargetFPS,
		tickDuration:     tickDuration,
		maxFrameDt:       time.Duration(cfg.Loop.MaxFrameDt * float64(time.Second)),
		scene:            scene.New(),
		world:            physics.NewWorld(cfg.Physics),
		registry:         entity.NewRegistry(logger),
		telemetry:        telemetry.NewManager(logger),
		sessions:         make(map[string]*Session),
		systems:          make([]TickSystem, 0),
		perfMonitor:      NewPerformanceMonitor(100, tickDuration/2),
		logger:           logger,
		warningThreshold: tickDuration * 2,
		now:              time.Now,
	}

	logger.Infof("🎮 [GameTicker] Создан игровой цикл: %d FPS (кадр %v, шаг физики %.4fс, подшагов %d)",
		gt.targetTPS, tickDuration, cfg.Loop.FixedStep, cfg.Loop.MaxSubsteps)
	return gt
}

// LoadLevel строит уровень по раскладке
func (gt *GameTicker) LoadLevel(layout level.Layout) (level.Summary, error) {
	gt.frameMutex.Lock()
	defer gt.frameMutex.Unlock()

	factory := level.NewFactory(gt.registry, gt.scene, gt.world, gt.cfg.Character, gt.logger)
	return factory.Build(layout)
}

// LoadConfiguredLevel берет раскладку из файла конфигурации или встроенную
func (gt *GameTicker) LoadConfiguredLevel() (level.Summary, error) {
	layout := level.DefaultLayout()
	if gt.cfg.Level.File != "" {
		loaded, err := level.LoadLayout(gt.cfg.Level.File)
		if err != nil {
			return level.Summary{}, err
		}
		layout = loaded
		gt.logger.Infof("🗺️ [GameTicker] Уровень загружен из %s", gt.cfg.Level.File)
	}
	return gt.LoadLevel(layout)
}

// Start запускает игровой цикл в отдельной горутине
func (gt *GameTicker) Start(ctx context.Context) error {
	gt.stateMutex.Lock()
	defer gt.stateMutex.Unlock()

	if gt.isRunning {
		return ErrAlreadyRunning
	}

	gt.ctx, gt.cancel = context.WithCancel(ctx)
	gt.done = make(chan struct{})
	gt.isRunning = true
	gt.startTime = gt.now()
	gt.lastTickTime = gt.startTime

	gt.logger.Infof("🚀 [GameTicker] Запуск игрового цикла с %d системами", len(gt.systems))
	go gt.gameLoop(gt.ctx, gt.done)
	return nil
}

// Stop останавливает игровой цикл и ждет завершения текущего кадра
func (gt *GameTicker) Stop() {
	gt.stateMutex.Lock()
	if !gt.isRunning {
		gt.stateMutex.Unlock()
		return
	}
	gt.cancel()
	done := gt.done
	gt.stateMutex.Unlock()

	<-done
	gt.logger.Infof("🛑 [GameTicker] Игровой цикл остановлен после %d кадров", gt.GetTickCount())
}

// IsRunning сообщает, крутится ли цикл
func (gt *GameTicker) IsRunning() bool {
	gt.stateMutex.RLock()
	defer gt.stateMutex.RUnlock()
	return gt.isRunning
}

func (gt *GameTicker) runState() (bool, time.Time) {
	gt.stateMutex.RLock()
	defer gt.stateMutex.RUnlock()
	return gt.isRunning, gt.startTime
}

// RegisterSystem регистрирует новую систему с сохранением порядка приоритетов
func (gt *GameTicker) RegisterSystem(system TickSystem) {
	gt.systemsMutex.Lock()
	defer gt.systemsMutex.Unlock()

	// Стабильная вставка: системы с равным приоритетом идут в порядке регистрации
	idx := sort.Search(len(gt.systems), func(i int) bool {
		return gt.systems[i].GetPriority() > system.GetPriority()
	})
	gt.systems = append(gt.systems, nil)
	copy(gt.systems[idx+1:], gt.systems[idx:])
	gt.systems[idx] = system

	gt.perfMonitor.initSystemMetrics(system.GetName())
	gt.logger.Infof("📝 [GameTicker] Зарегистрирована система: %s (приоритет: %d)", system.GetName(), system.GetPriority())
}

// Systems возвращает имена систем в порядке выполнения
func (gt *GameTicker) Systems() []string {
	gt.systemsMutex.RLock()
	defer gt.systemsMutex.RUnlock()

	names := make([]string, len(gt.systems))
	for i, s := range gt.systems {
		names[i] = s.GetName()
	}
	return names
}

func (gt *GameTicker) gameLoop(ctx context.Context, done chan struct{}) {
	ticker := time.NewTicker(gt.tickDuration)
	defer ticker.Stop()
	defer func() {
		gt.stateMutex.Lock()
		gt.isRunning = false
		gt.stateMutex.Unlock()
		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case tickTime := <-ticker.C:
			gt.executeTick(tickTime)
		}
	}
}

// executeTick вычисляет реальное время с прошлого кадра и выполняет кадр
func (gt *GameTicker) executeTick(tickTime time.Time) {
	deltaTime := tickTime.Sub(gt.lastTickTime)
	gt.lastTickTime = tickTime
	gt.Frame(deltaTime)
}

// Frame выполняет один кадр: все системы по приоритету с общим dt.
// dt ограничивается MaxFrameDt, чтобы после долгой паузы мир не прыгал.
func (gt *GameTicker) Frame(deltaTime time.Duration) {
	gt.frameMutex.Lock()
	defer gt.frameMutex.Unlock()

	if deltaTime > gt.warningThreshold {
		gt.skippedTicks++
		gt.logger.Warnf("⚠️ [GameTicker] Большая задержка между кадрами: %v (ожидалось %v)", deltaTime, gt.tickDuration)
	}
	if deltaTime < 0 {
		deltaTime = 0
	}
	if gt.maxFrameDt > 0 && deltaTime > gt.maxFrameDt {
		deltaTime = gt.maxFrameDt
	}

	start := time.Now()
	gt.tickCount++
	gt.executeAllSystems(deltaTime)

	tickTime := time.Since(start)
	gt.updateTickMetrics(tickTime)
	gt.checkPerformance(tickTime)
}

func (gt *GameTicker) executeAllSystems(deltaTime time.Duration) {
	gt.systemsMutex.RLock()
	systems := make([]TickSystem, len(gt.systems))
	copy(systems, gt.systems)
	gt.systemsMutex.RUnlock()

	for _, system := range systems {
		gt.executeSystem(system, deltaTime)
	}
}

// executeSystem выполняет систему с замером времени. Паника одной системы
// не останавливает кадр.
func (gt *GameTicker) executeSystem(system TickSystem, deltaTime time.Duration) {
	name := system.GetName()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			gt.logger.Errorf("💥 [GameTicker] Паника в системе %s: %v", name, r)
			gt.perfMonitor.recordPanic(name)
		}
	}()

	if err := system.Update(deltaTime); err != nil {
		gt.logger.Errorf("❌ [GameTicker] Ошибка в системе %s: %v", name, err)
		gt.perfMonitor.recordError(name)
	}

	executionTime := time.Since(start)
	gt.perfMonitor.recordExecution(name, executionTime)
	if slow, critical := gt.perfMonitor.isSlow(executionTime); critical {
		gt.logger.Warnf("🐌 [GameTicker] Система %s выполнялась %v", name, executionTime)
	} else if slow {
		gt.logger.Debugf("[GameTicker] Система %s близка к лимиту: %v", name, executionTime)
	}
}

// AddSession создает персонажа, камеру и HUD для нового подключения
func (gt *GameTicker) AddSession(id string) (*Session, error) {
	gt.frameMutex.Lock()
	defer gt.frameMutex.Unlock()

	if _, exists := gt.sessions[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSession, id)
	}

	session := newSession(id, gt.cfg, gt.now())
	player := character.NewPlayer(
		entity.NewBase(gt.registry.NextID(), gt.scene, gt.world),
		gt.cfg.Character,
		session.Input,
		session.Camera,
		gt.logger,
	)
	player.SetObserver(gt.telemetry)
	if err := gt.registry.Add(player); err != nil {
		return nil, fmt.Errorf("add player for session %s: %w", id, err)
	}
	session.Player = player

	gt.sessions[id] = session
	gt.order = append(gt.order, id)

	gt.logger.Infof("👤 [GameTicker] Сессия %s подключена, персонаж %d", id, player.ID())
	return session, nil
}

// RemoveSession убирает персонажа сессии из мира
func (gt *GameTicker) RemoveSession(id string) bool {
	gt.frameMutex.Lock()
	defer gt.frameMutex.Unlock()

	session, exists := gt.sessions[id]
	if !exists {
		return false
	}

	gt.registry.Remove(session.Player.ID())
	delete(gt.sessions, id)
	for i, sid := range gt.order {
		if sid == id {
			gt.order = append(gt.order[:i], gt.order[i+1:]...)
			break
		}
	}

	gt.logger.Infof("👋 [GameTicker] Сессия %s отключена", id)
	return true
}

// Session возвращает сессию по ID
func (gt *GameTicker) Session(id string) (*Session, bool) {
	gt.frameMutex.Lock()
	defer gt.frameMutex.Unlock()
	s, ok := gt.sessions[id]
	return s, ok
}

// SessionCount возвращает количество подключенных сессий
func (gt *GameTicker) SessionCount() int {
	gt.frameMutex.Lock()
	defer gt.frameMutex.Unlock()
	return len(gt.sessions)
}

// activeSessions вызывается только внутри кадра
func (gt *GameTicker) activeSessions() []*Session {
	out := make([]*Session, 0, len(gt.order))
	for _, id := range gt.order {
		out = append(out, gt.sessions[id])
	}
	return out
}

// Telemetry возвращает менеджер телеметрии персонажей
func (gt *GameTicker) Telemetry() *telemetry.Manager {
	return gt.telemetry
}

// GetTickCount возвращает количество выполненных кадров
func (gt *GameTicker) GetTickCount() uint64 {
	gt.frameMutex.Lock()
	defer gt.frameMutex.Unlock()
	return gt.tickCount
}

// Stats - сводка состояния цикла
type Stats struct {
	Running         bool                     `json:"running"`
	TickCount       uint64                   `json:"tick_count"`
	TargetTPS       int                      `json:"target_tps"`
	Uptime          time.Duration            `json:"uptime"`
	AverageTickTime time.Duration            `json:"average_tick_time"`
	MaxObservedTick time.Duration            `json:"max_observed_tick"`
	SkippedTicks    uint64                   `json:"skipped_ticks"`
	Sessions        int                      `json:"sessions"`
	Entities        int                      `json:"entities"`
	Bodies          int                      `json:"bodies"`
	PhysicsSteps    uint64                   `json:"physics_steps"`
	Systems         map[string]SystemMetrics `json:"systems"`
}

// GetStats возвращает статистику игрового цикла
func (gt *GameTicker) GetStats() Stats {
	running, started := gt.runState()

	gt.frameMutex.Lock()
	defer gt.frameMutex.Unlock()
	return gt.stats(running, started)
}

// stats собирает статистику без блокировки кадра
func (gt *GameTicker) stats(running bool, started time.Time) Stats {
	stats := Stats{
		Running:         running,
		TickCount:       gt.tickCount,
		TargetTPS:       gt.targetTPS,
		AverageTickTime: gt.averageTickTime,
		MaxObservedTick: gt.maxObservedTick,
		SkippedTicks:    gt.skippedTicks,
		Sessions:        len(gt.sessions),
		Entities:        gt.registry.Len(),
		Bodies:          gt.world.Len(),
		PhysicsSteps:    gt.world.StepCount(),
		Systems:         gt.perfMonitor.SystemsStats(),
	}
	if running {
		stats.Uptime = gt.now().Sub(started)
	}
	return stats
}

// updateTickMetrics обновляет скользящее среднее времени кадра
func (gt *GameTicker) updateTickMetrics(tickTime time.Duration) {
	if gt.averageTickTime == 0 {
		gt.averageTickTime = tickTime
	} else {
		gt.averageTickTime = (gt.averageTickTime*9 + tickTime) / 10
	}
	if tickTime > gt.maxObservedTick {
		gt.maxObservedTick = tickTime
	}
}

func (gt *GameTicker) checkPerformance(tickTime time.Duration) {
	if tickTime > gt.tickDuration {
		gt.logger.Warnf("🐌 [GameTicker] Кадр %d занял %v при бюджете %v", gt.tickCount, tickTime, gt.tickDuration)
	}
}
