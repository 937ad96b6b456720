package telemetry

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"x-platformer/backend/internal/character"
)

// Виды записей
const (
	KindTransition = "transition"
	KindRespawn    = "respawn"
)

// Entry - одна запись телеметрии персонажа
type Entry struct {
	Timestamp int64           `json:"timestamp"` // Время в миллисекундах
	PlayerID  int             `json:"player_id"`
	Kind      string          `json:"kind"`
	From      character.State `json:"from,omitempty"`
	To        character.State `json:"to,omitempty"`
	Lives     int             `json:"lives,omitempty"`
	Reset     bool            `json:"reset,omitempty"` // Прогресс сброшен после потери всех жизней
}

// Manager собирает переходы состояний и респауны в кольцевой буфер
// и периодически печатает сводку
type Manager struct {
	enabled    bool
	data       []Entry
	mutex      sync.RWMutex
	maxEntries int

	// Счетчики для сводки
	counters      map[string]int
	lastPrint     time.Time
	printInterval time.Duration

	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewManager создает менеджер телеметрии
func NewManager(logger *zap.SugaredLogger) *Manager {
	return &Manager{
		enabled:       true,
		data:          make([]Entry, 0),
		maxEntries:    200, // Храним последние 200 записей
		counters:      make(map[string]int),
		lastPrint:     time.Now(),
		printInterval: 10 * time.Second,
		logger:        logger,
		now:           time.Now,
	}
}

// StateChanged записывает переход состояния персонажа
func (tm *Manager) StateChanged(playerID int, from, to character.State) {
	tm.record(Entry{PlayerID: playerID, Kind: KindTransition, From: from, To: to}, "state_"+string(to))
}

// Respawned записывает падение за пределы мира
func (tm *Manager) Respawned(playerID int, lives int, progressReset bool) {
	key := "respawn"
	if progressReset {
		key = "respawn_reset"
	}
	tm.record(Entry{PlayerID: playerID, Kind: KindRespawn, Lives: lives, Reset: progressReset}, key)
}

func (tm *Manager) record(entry Entry, counter string) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if !tm.enabled {
		return
	}

	entry.Timestamp = tm.now().UnixMilli()
	tm.data = append(tm.data, entry)

	// Ограничиваем размер буфера
	if len(tm.data) > tm.maxEntries {
		tm.data = tm.data[len(tm.data)-tm.maxEntries:]
	}

	tm.counters[counter]++
}

// PrintSummary выводит сводку, не чаще printInterval
func (tm *Manager) PrintSummary() {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if !tm.enabled {
		return
	}

	now := tm.now()
	if now.Sub(tm.lastPrint) < tm.printInterval {
		return
	}

	tm.logger.Infof("🔬 [Telemetry] Записей: %d", len(tm.data))
	for key, count := range tm.counters {
		tm.logger.Infof("📈 [Telemetry] %s: %d", key, count)
	}

	// Последнее состояние каждого игрока
	latest := make(map[int]Entry)
	for i := len(tm.data) - 1; i >= 0; i-- {
		e := tm.data[i]
		if e.Kind != KindTransition {
			continue
		}
		if _, exists := latest[e.PlayerID]; !exists {
			latest[e.PlayerID] = e
		}
	}
	for id, e := range latest {
		tm.logger.Infof("🎮 [Telemetry] Игрок %d: %s [%s]", id, e.To, time.UnixMilli(e.Timestamp).Format("15:04:05.000"))
	}

	tm.counters = make(map[string]int)
	tm.lastPrint = now
}

// Entries возвращает копию буфера
func (tm *Manager) Entries() []Entry {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()
	out := make([]Entry, len(tm.data))
	copy(out, tm.data)
	return out
}

// Counters возвращает копию счетчиков с последней сводки
func (tm *Manager) Counters() map[string]int {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()
	out := make(map[string]int, len(tm.counters))
	for k, v := range tm.counters {
		out[k] = v
	}
	return out
}

// JSON возвращает телеметрию в JSON формате
func (tm *Manager) JSON() (string, error) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	jsonData, err := json.MarshalIndent(tm.data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

// SetEnabled включает/выключает телеметрию
func (tm *Manager) SetEnabled(enabled bool) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tm.enabled = enabled
	tm.logger.Infof("🔬 [Telemetry] Телеметрия %s", map[bool]string{true: "включена", false: "выключена"}[enabled])
}

// Clear очищает все данные телеметрии
func (tm *Manager) Clear() {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tm.data = make([]Entry, 0)
	tm.counters = make(map[string]int)
}
