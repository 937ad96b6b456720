package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType - форма визуального узла
type ShapeType int

const (
	GROUP ShapeType = iota // Пустой узел-контейнер
	SPHERE
	BOX
	CYLINDER
	CONE
)

// String возвращает имя формы для клиента
func (s ShapeType) String() string {
	switch s {
	case SPHERE:
		return "sphere"
	case BOX:
		return "box"
	case CYLINDER:
		return "cylinder"
	case CONE:
		return "cone"
	default:
		return "group"
	}
}

// Node - визуальный узел сцены.
// Size: для BOX - полные размеры, для SPHERE - радиус в X,
// для CYLINDER и CONE - радиус в X и высота в Y.
type Node struct {
	Name  string
	Shape ShapeType
	Size  mgl64.Vec3
	Color string

	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3

	Children []*Node
}

// NewNode создает узел с единичным масштабом и нулевым поворотом
func NewNode(name string, shape ShapeType, size mgl64.Vec3, color string) *Node {
	return &Node{
		Name:     name,
		Shape:    shape,
		Size:     size,
		Color:    color,
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// AddChild прикрепляет дочерний узел. Позиция ребенка задается относительно родителя.
func (n *Node) AddChild(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}

// Child ищет прямого потомка по имени
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// SetEuler задает поворот узла углами Эйлера (радианы, порядок XYZ)
func (n *Node) SetEuler(x, y, z float64) {
	n.Rotation = mgl64.AnglesToQuat(x, y, z, mgl64.XYZ)
}

// NodeState - сериализуемое состояние узла для клиента
type NodeState struct {
	ID       int         `json:"id,omitempty"`
	Name     string      `json:"name"`
	Shape    string      `json:"shape"`
	Size     [3]float64  `json:"size"`
	Color    string      `json:"color,omitempty"`
	Position [3]float64  `json:"position"`
	Rotation [4]float64  `json:"rotation"` // x, y, z, w
	Scale    [3]float64  `json:"scale"`
	Children []NodeState `json:"children,omitempty"`
}

func (n *Node) state(id int) NodeState {
	st := NodeState{
		ID:       id,
		Name:     n.Name,
		Shape:    n.Shape.String(),
		Size:     n.Size,
		Color:    n.Color,
		Position: n.Position,
		Rotation: [4]float64{n.Rotation.X(), n.Rotation.Y(), n.Rotation.Z(), n.Rotation.W},
		Scale:    n.Scale,
	}
	if len(n.Children) > 0 {
		st.Children = make([]NodeState, 0, len(n.Children))
		for _, c := range n.Children {
			st.Children = append(st.Children, c.state(0))
		}
	}
	return st
}
