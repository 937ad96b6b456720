package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"x-platformer/backend/internal/game"
	"x-platformer/backend/internal/hud"
)

// streamClient - получатель кадров одной сессии
type streamClient struct {
	writer *SafeWriter
	busy   atomic.Bool // Предыдущий кадр еще пишется

	// Последние счетчики, дошедшие до клиента. Меняются только в deliver,
	// а deliver одного клиента не выполняется параллельно.
	lastHUD hud.Stats
	hudSent bool
}

// Broadcaster раздает кадры игрового цикла клиентам через пул горутин.
// Игровой цикл никогда не ждет сеть: если прошлый кадр клиента еще в пути,
// новый отбрасывается.
type Broadcaster struct {
	pool    *ants.Pool
	sim     *networkSimulator
	logger  *zap.SugaredLogger
	clients map[string]*streamClient
	mu      sync.RWMutex

	sent    atomic.Uint64
	dropped atomic.Uint64
	lost    atomic.Uint64
}

// NewBroadcaster создает пул рассылки на poolSize горутин
func NewBroadcaster(poolSize int, sim NetworkSimulation, logger *zap.SugaredLogger) (*Broadcaster, error) {
	b := &Broadcaster{
		sim:     newNetworkSimulator(sim, time.Now().UnixNano(), logger),
		logger:  logger,
		clients: make(map[string]*streamClient),
	}

	pool, err := ants.NewPool(poolSize,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p interface{}) {
			logger.Errorf("💥 [Broadcaster] Паника при отправке кадра: %v", p)
		}),
	)
	if err != nil {
		return nil, err
	}
	b.pool = pool
	return b, nil
}

// Register подключает соединение сессии к рассылке
func (b *Broadcaster) Register(sessionID string, writer *SafeWriter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[sessionID] = &streamClient{writer: writer}
}

// Unregister отключает сессию от рассылки
func (b *Broadcaster) Unregister(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.clients, sessionID)
}

// Render реализует game.Renderer
func (b *Broadcaster) Render(sessionID string, frame game.Frame) {
	b.mu.RLock()
	client, ok := b.clients[sessionID]
	b.mu.RUnlock()
	if !ok {
		return
	}

	if !client.busy.CompareAndSwap(false, true) {
		b.dropped.Add(1)
		return
	}

	err := b.pool.Submit(func() {
		defer client.busy.Store(false)
		b.deliver(sessionID, client, frame)
	})
	if err != nil {
		client.busy.Store(false)
		b.dropped.Add(1)
	}
}

func (b *Broadcaster) deliver(sessionID string, client *streamClient, frame game.Frame) {
	drop, delay := b.sim.decide()
	if drop {
		b.lost.Add(1)
		return
	}
	if delay > 0 {
		time.Sleep(delay)
	}

	if err := client.writer.WriteJSON(NewFrameMessage(frame)); err != nil {
		b.logger.Debugf("[Broadcaster] Ошибка отправки кадра сессии %s: %v", sessionID, err)
		return
	}
	// HUD сравнивается с отправленным клиенту, а не с флагом кадра:
	// кадр с изменением мог быть отброшен или потерян
	if !client.hudSent || frame.HUD != client.lastHUD {
		if err := client.writer.WriteJSON(NewHUDMessage(frame.HUD)); err != nil {
			b.logger.Debugf("[Broadcaster] Ошибка отправки HUD сессии %s: %v", sessionID, err)
			return
		}
		client.lastHUD = frame.HUD
		client.hudSent = true
	}
	b.sent.Add(1)
}

// SetNetworkSimulation меняет параметры имитации сети на лету
func (b *Broadcaster) SetNetworkSimulation(sim NetworkSimulation) {
	b.sim.set(sim)
}

// NetworkSimulation возвращает текущие параметры имитации
func (b *Broadcaster) NetworkSimulation() NetworkSimulation {
	return b.sim.get()
}

// BroadcastStats - счетчики рассылки
type BroadcastStats struct {
	Clients int    `json:"clients"`
	Sent    uint64 `json:"sent"`
	Dropped uint64 `json:"dropped"` // Клиент не успел принять прошлый кадр
	Lost    uint64 `json:"lost"`    // Потерян имитацией сети
	Running int    `json:"running"` // Занятые горутины пула
}

func (b *Broadcaster) Stats() BroadcastStats {
	b.mu.RLock()
	clients := len(b.clients)
	b.mu.RUnlock()

	return BroadcastStats{
		Clients: clients,
		Sent:    b.sent.Load(),
		Dropped: b.dropped.Load(),
		Lost:    b.lost.Load(),
		Running: b.pool.Running(),
	}
}

// Close ждет завершения отправок и освобождает пул
func (b *Broadcaster) Close() {
	if err := b.pool.ReleaseTimeout(2 * time.Second); err != nil {
		b.logger.Warnf("[Broadcaster] Пул рассылки не остановился вовремя: %v", err)
	}
}
