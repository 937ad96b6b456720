package scene

import (
	"errors"
	"fmt"
	"sync"
)

// ErrDuplicateNode возвращается при повторной регистрации узла с тем же ID
var ErrDuplicateNode = errors.New("scene: node already registered")

// Scene хранит корневые узлы, адресуемые ID сущности-владельца
type Scene struct {
	nodes map[int]*Node
	order []int
	mu    sync.RWMutex
}

func New() *Scene {
	return &Scene{
		nodes: make(map[int]*Node),
	}
}

// Add регистрирует корневой узел сущности
func (s *Scene) Add(id int, node *Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[id]; exists {
		return fmt.Errorf("%w: id %d", ErrDuplicateNode, id)
	}
	s.nodes[id] = node
	s.order = append(s.order, id)
	return nil
}

// Remove снимает узел с регистрации. Возвращает false, если узла не было.
func (s *Scene) Remove(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[id]; !exists {
		return false
	}
	delete(s.nodes, id)
	for i, nid := range s.order {
		if nid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *Scene) Node(id int) (*Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node, exists := s.nodes[id]
	return node, exists
}

// Len возвращает количество корневых узлов
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Snapshot возвращает состояние всех узлов в порядке регистрации.
// Вызывается из игрового цикла, пока сущности не меняют узлы.
func (s *Scene) Snapshot() []NodeState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]NodeState, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.nodes[id].state(id))
	}
	return result
}
