package ws

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"x-platformer/backend/internal/config"
)

// NetworkSimulation - настройки для имитации сетевых условий
type NetworkSimulation struct {
	Enabled         bool          // Включена ли имитация
	BaseLatency     time.Duration // Базовая задержка
	LatencyVariance time.Duration // Вариация задержки (jitter)
	PacketLoss      float64       // Доля потерянных кадров (0.0 - 1.0)
}

// FromConfig переводит секцию конфигурации в настройки имитации
func FromConfig(cfg config.NetworkSimConfig) NetworkSimulation {
	return NetworkSimulation{
		Enabled:         cfg.Enabled,
		BaseLatency:     cfg.BaseLatency,
		LatencyVariance: cfg.LatencyVariance,
		PacketLoss:      cfg.PacketLoss,
	}
}

// Profile возвращает предустановленный профиль сети. Неизвестное имя - выключено.
func Profile(name string) NetworkSimulation {
	switch name {
	case "mobile_3g":
		return NetworkSimulation{Enabled: true, BaseLatency: 100 * time.Millisecond, LatencyVariance: 50 * time.Millisecond, PacketLoss: 0.02}
	case "mobile_4g":
		return NetworkSimulation{Enabled: true, BaseLatency: 50 * time.Millisecond, LatencyVariance: 20 * time.Millisecond, PacketLoss: 0.01}
	case "wifi_poor":
		return NetworkSimulation{Enabled: true, BaseLatency: 80 * time.Millisecond, LatencyVariance: 40 * time.Millisecond, PacketLoss: 0.03}
	case "wifi_good":
		return NetworkSimulation{Enabled: true, BaseLatency: 20 * time.Millisecond, LatencyVariance: 10 * time.Millisecond, PacketLoss: 0.005}
	case "high_latency":
		return NetworkSimulation{Enabled: true, BaseLatency: 200 * time.Millisecond, LatencyVariance: 100 * time.Millisecond, PacketLoss: 0.05}
	case "unstable":
		return NetworkSimulation{Enabled: true, BaseLatency: 60 * time.Millisecond, LatencyVariance: 80 * time.Millisecond, PacketLoss: 0.04}
	default:
		return NetworkSimulation{}
	}
}

// networkSimulator решает судьбу каждого исходящего кадра
type networkSimulator struct {
	mu     sync.Mutex
	sim    NetworkSimulation
	rng    *rand.Rand
	logger *zap.SugaredLogger
}

func newNetworkSimulator(sim NetworkSimulation, seed int64, logger *zap.SugaredLogger) *networkSimulator {
	return &networkSimulator{
		sim:    sim,
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger,
	}
}

func (ns *networkSimulator) set(sim NetworkSimulation) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.sim = sim
	ns.logger.Infof("[NetworkSim] Настройки обновлены: Enabled=%v, BaseLatency=%v, Variance=%v, PacketLoss=%.2f%%",
		sim.Enabled, sim.BaseLatency, sim.LatencyVariance, sim.PacketLoss*100)
}

func (ns *networkSimulator) get() NetworkSimulation {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return ns.sim
}

// decide возвращает, потерян ли кадр и сколько ждать перед отправкой
func (ns *networkSimulator) decide() (drop bool, delay time.Duration) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	sim := ns.sim
	if !sim.Enabled {
		return false, 0
	}

	if sim.PacketLoss > 0 && ns.rng.Float64() < sim.PacketLoss {
		return true, 0
	}

	delay = sim.BaseLatency
	if sim.LatencyVariance > 0 {
		variance := time.Duration(ns.rng.Float64() * float64(sim.LatencyVariance))
		if ns.rng.Float64() < 0.5 {
			variance = -variance
		}
		delay += variance
	}
	if delay < 0 {
		delay = 0
	}
	return false, delay
}
