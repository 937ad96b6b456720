package game

import (
	"sync"
	"time"
)

// PerformanceMonitor отслеживает время выполнения каждой системы
type PerformanceMonitor struct {
	systemMetrics map[string]*SystemMetrics
	mutex         sync.RWMutex

	metricsWindow     int           // Количество последних кадров для усреднения
	warningThreshold  time.Duration // Порог предупреждения для системы
	criticalThreshold time.Duration
}

// SystemMetrics метрики производительности системы
type SystemMetrics struct {
	Name              string        `json:"name"`
	LastExecutionTime time.Duration `json:"last_execution_time"`
	AverageTime       time.Duration `json:"average_time"`
	MaxTime           time.Duration `json:"max_time"`
	TotalExecutions   uint64        `json:"total_executions"`
	Errors            uint64        `json:"errors"`
	Panics            uint64        `json:"panics"`

	// Скользящее окно
	recentTimes  []time.Duration
	recentIndex  int
	windowFilled bool
}

// NewPerformanceMonitor создает монитор с окном усреднения windowSize
func NewPerformanceMonitor(windowSize int, warningThreshold time.Duration) *PerformanceMonitor {
	if windowSize <= 0 {
		windowSize = 1
	}
	return &PerformanceMonitor{
		systemMetrics:     make(map[string]*SystemMetrics),
		metricsWindow:     windowSize,
		warningThreshold:  warningThreshold,
		criticalThreshold: warningThreshold * 2,
	}
}

func (pm *PerformanceMonitor) initSystemMetrics(systemName string) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	pm.systemMetrics[systemName] = &SystemMetrics{
		Name:        systemName,
		recentTimes: make([]time.Duration, pm.metricsWindow),
	}
}

func (pm *PerformanceMonitor) recordExecution(systemName string, executionTime time.Duration) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	m, exists := pm.systemMetrics[systemName]
	if !exists {
		return
	}

	m.LastExecutionTime = executionTime
	m.TotalExecutions++
	if executionTime > m.MaxTime {
		m.MaxTime = executionTime
	}

	m.recentTimes[m.recentIndex] = executionTime
	m.recentIndex = (m.recentIndex + 1) % pm.metricsWindow
	if !m.windowFilled && m.recentIndex == 0 {
		m.windowFilled = true
	}

	limit := pm.metricsWindow
	if !m.windowFilled {
		limit = m.recentIndex
	}
	var total time.Duration
	for i := 0; i < limit; i++ {
		total += m.recentTimes[i]
	}
	if limit > 0 {
		m.AverageTime = total / time.Duration(limit)
	}
}

func (pm *PerformanceMonitor) recordError(systemName string) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	if m, exists := pm.systemMetrics[systemName]; exists {
		m.Errors++
	}
}

func (pm *PerformanceMonitor) recordPanic(systemName string) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	if m, exists := pm.systemMetrics[systemName]; exists {
		m.Errors++
		m.Panics++
	}
}

// isSlow сообщает, превысила ли система порог предупреждения
func (pm *PerformanceMonitor) isSlow(executionTime time.Duration) (slow, critical bool) {
	if pm.warningThreshold <= 0 {
		return false, false
	}
	return executionTime > pm.warningThreshold, executionTime > pm.criticalThreshold
}

// SystemsStats возвращает копию метрик всех систем
func (pm *PerformanceMonitor) SystemsStats() map[string]SystemMetrics {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	out := make(map[string]SystemMetrics, len(pm.systemMetrics))
	for name, m := range pm.systemMetrics {
		cp := *m
		cp.recentTimes = nil
		out[name] = cp
	}
	return out
}
