package entity

import (
	"fmt"

	"go.uber.org/zap"
)

// Registry хранит сущности уровня и обновляет их раз в кадр
type Registry struct {
	entities []Entity
	index    map[int]Entity
	nextID   int
	logger   *zap.SugaredLogger
}

func NewRegistry(logger *zap.SugaredLogger) *Registry {
	return &Registry{
		index:  make(map[int]Entity),
		logger: logger,
	}
}

// NextID выдает новый ID сущности. Нумерация начинается с 1.
func (r *Registry) NextID() int {
	r.nextID++
	return r.nextID
}

// Add создает сущность и включает ее в обновление
func (r *Registry) Add(e Entity) error {
	if _, exists := r.index[e.ID()]; exists {
		return fmt.Errorf("%w: id %d in registry", ErrAlreadyCreated, e.ID())
	}
	if err := e.Create(); err != nil {
		return fmt.Errorf("create entity %d: %w", e.ID(), err)
	}
	r.entities = append(r.entities, e)
	r.index[e.ID()] = e
	r.logger.Debugf("[Registry] Добавлена сущность %d (%T)", e.ID(), e)
	return nil
}

// Update вызывает Update у каждой активной сущности и убирает уничтоженные
func (r *Registry) Update(dt float64) {
	for _, e := range r.entities {
		if e.IsActive() {
			e.Update(dt)
		}
	}
	r.prune()
}

func (r *Registry) prune() {
	kept := r.entities[:0]
	for _, e := range r.entities {
		if e.IsActive() {
			kept = append(kept, e)
			continue
		}
		delete(r.index, e.ID())
		r.logger.Debugf("[Registry] Удалена сущность %d (%T)", e.ID(), e)
	}
	for i := len(kept); i < len(r.entities); i++ {
		r.entities[i] = nil
	}
	r.entities = kept
}

func (r *Registry) Get(id int) (Entity, bool) {
	e, ok := r.index[id]
	return e, ok
}

// Len возвращает количество сущностей
func (r *Registry) Len() int {
	return len(r.entities)
}

// Each обходит сущности в порядке добавления
func (r *Registry) Each(fn func(Entity)) {
	for _, e := range r.entities {
		fn(e)
	}
}

// Remove уничтожает сущность и исключает ее из реестра
func (r *Registry) Remove(id int) bool {
	e, ok := r.index[id]
	if !ok {
		return false
	}
	e.Destroy()
	r.prune()
	return true
}

// Clear уничтожает все сущности
func (r *Registry) Clear() {
	for _, e := range r.entities {
		e.Destroy()
	}
	r.entities = nil
	r.index = make(map[int]Entity)
}
