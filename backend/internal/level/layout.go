package level

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidLayout возвращается для некорректной раскладки уровня
var ErrInvalidLayout = errors.New("level: invalid layout")

// Layout - раскладка уровня
type Layout struct {
	Platforms   []PlatformSpec   `yaml:"platforms"`
	Coins       [][3]float64     `yaml:"coins"`
	Stars       [][3]float64     `yaml:"stars"`
	Enemies     []EnemySpec      `yaml:"enemies"`
	Decorations []DecorationSpec `yaml:"decorations"`
}

// PlatformSpec - ящик: центр и полные размеры
type PlatformSpec struct {
	Position [3]float64 `yaml:"position"`
	Size     [3]float64 `yaml:"size"`
	Color    string     `yaml:"color"`
}

// EnemySpec - патруль по окружности
type EnemySpec struct {
	Center [3]float64 `yaml:"center"`
	Radius float64    `yaml:"radius"`
	Speed  float64    `yaml:"speed"` // рад/с
}

// DecorationSpec - облако или дерево
type DecorationSpec struct {
	Kind     DecorationKind `yaml:"kind"`
	Position [3]float64     `yaml:"position"`
	Scale    float64        `yaml:"scale"`
}

// DefaultLayout возвращает встроенный уровень
func DefaultLayout() Layout {
	return Layout{
		Platforms: []PlatformSpec{
			{Position: [3]float64{0, -0.5, 0}, Size: [3]float64{30, 1, 30}, Color: "#7cb342"},
			{Position: [3]float64{8, 1.5, -6}, Size: [3]float64{4, 1, 4}, Color: "#8d6e63"},
			{Position: [3]float64{14, 3.5, -10}, Size: [3]float64{4, 1, 4}, Color: "#8d6e63"},
			{Position: [3]float64{8, 5.5, -16}, Size: [3]float64{3, 1, 3}, Color: "#8d6e63"},
			{Position: [3]float64{0, 7.5, -18}, Size: [3]float64{6, 1, 6}, Color: "#a1887f"},
			{Position: [3]float64{-10, 2, 6}, Size: [3]float64{5, 1, 5}, Color: "#8d6e63"},
		},
		Coins: [][3]float64{
			{3, 1, 0}, {5, 1, 0}, {7, 1, 0},
			{-3, 1, 3}, {-5, 1, 5},
			{8, 3, -6}, {14, 5, -10}, {8, 7, -16},
			{-10, 3.5, 6},
		},
		Stars: [][3]float64{
			{0, 9.5, -18},
		},
		Enemies: []EnemySpec{
			{Center: [3]float64{-4, 0.6, -6}, Radius: 3, Speed: 1.2},
		},
		Decorations: []DecorationSpec{
			{Kind: Tree, Position: [3]float64{-12, 0, -12}, Scale: 1},
			{Kind: Tree, Position: [3]float64{12, 0, 10}, Scale: 1.3},
			{Kind: Cloud, Position: [3]float64{-8, 18, -20}, Scale: 1.5},
			{Kind: Cloud, Position: [3]float64{15, 20, 5}, Scale: 1},
		},
	}
}

// LoadLayout читает раскладку уровня из YAML-файла
func LoadLayout(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read layout %s: %w", path, err)
	}

	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return Layout{}, fmt.Errorf("parse layout %s: %w", path, err)
	}

	if err := layout.Validate(); err != nil {
		return Layout{}, err
	}
	return layout, nil
}

// Validate проверяет раскладку
func (l Layout) Validate() error {
	if len(l.Platforms) == 0 {
		return fmt.Errorf("%w: no platforms", ErrInvalidLayout)
	}
	for i, p := range l.Platforms {
		if p.Size[0] <= 0 || p.Size[1] <= 0 || p.Size[2] <= 0 {
			return fmt.Errorf("%w: platform %d size %v", ErrInvalidLayout, i, p.Size)
		}
	}
	for i, e := range l.Enemies {
		if e.Radius < 0 {
			return fmt.Errorf("%w: enemy %d radius %v", ErrInvalidLayout, i, e.Radius)
		}
	}
	for i, d := range l.Decorations {
		if d.Kind != Tree && d.Kind != Cloud {
			return fmt.Errorf("%w: decoration %d kind %q", ErrInvalidLayout, i, d.Kind)
		}
	}
	return nil
}
