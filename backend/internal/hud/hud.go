package hud

import "sync"

// Stats - счетчики прогресса игрока для отображения
type Stats struct {
	Coins int `json:"coins"`
	Stars int `json:"stars"`
	Lives int `json:"lives"`
}

// Sink принимает счетчики раз в кадр. Повторная передача тех же значений безопасна.
type Sink interface {
	Update(stats Stats)
}

// SinkFunc позволяет использовать функцию как Sink
type SinkFunc func(stats Stats)

func (f SinkFunc) Update(stats Stats) { f(stats) }

// Panel хранит последние переданные счетчики и отмечает изменения.
// Кадр читает Latest, транспорт решает, слать ли обновление.
type Panel struct {
	mu      sync.Mutex
	current Stats
	changed bool
	seen    bool
}

func NewPanel() *Panel {
	return &Panel{}
}

func (p *Panel) Update(stats Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.seen || stats != p.current {
		p.current = stats
		p.changed = true
		p.seen = true
	}
}

// Latest возвращает текущие значения
func (p *Panel) Latest() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// TakeChanged возвращает значения и true, если они изменились с прошлого вызова
func (p *Panel) TakeChanged() (Stats, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	changed := p.changed
	p.changed = false
	return p.current, changed
}
