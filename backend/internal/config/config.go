package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config объединяет все настройки сервера платформера
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Loop       LoopConfig       `yaml:"loop"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Character  CharacterConfig  `yaml:"character"`
	Camera     CameraConfig     `yaml:"camera"`
	Logging    LoggingConfig    `yaml:"logging"`
	NetworkSim NetworkSimConfig `yaml:"network_sim"`
	Level      LevelConfig      `yaml:"level"`
}

// ServerConfig содержит сетевые настройки
type ServerConfig struct {
	Addr          string        `yaml:"addr"`           // HTTP + WebSocket
	HealthAddr    string        `yaml:"health_addr"`    // gRPC health, пусто = выключен
	StaticDir     string        `yaml:"static_dir"`     // Клиентская сборка
	PingInterval  time.Duration `yaml:"ping_interval"`  // Интервал пингов клиенту
	BroadcastPool int           `yaml:"broadcast_pool"` // Размер пула рассылки кадров
}

// LoopConfig содержит настройки игрового цикла
type LoopConfig struct {
	TargetFPS   int     `yaml:"target_fps"`
	FixedStep   float64 `yaml:"fixed_step"` // Шаг физики в секундах
	MaxSubsteps int     `yaml:"max_substeps"`
	MaxFrameDt  float64 `yaml:"max_frame_dt"` // Ограничение dt после долгой паузы
}

// PhysicsConfig содержит глобальные настройки физического мира
type PhysicsConfig struct {
	Gravity       float64 `yaml:"gravity"`
	LinearDamping float64 `yaml:"linear_damping"`
	Friction      float64 `yaml:"friction"`
	Restitution   float64 `yaml:"restitution"`
}

// CharacterConfig содержит настройки контроллера персонажа
type CharacterConfig struct {
	MoveSpeed       float64 `yaml:"move_speed"`
	RunSpeed        float64 `yaml:"run_speed"`
	JumpForce       float64 `yaml:"jump_force"`
	DoubleJumpForce float64 `yaml:"double_jump_force"`
	TripleJumpForce float64 `yaml:"triple_jump_force"`
	JumpWindow      float64 `yaml:"jump_window"` // Окно цепочки прыжков, секунды

	GroundPoundVelocity    float64 `yaml:"ground_pound_velocity"`
	GroundedVelocityBand   float64 `yaml:"grounded_velocity_band"`
	GroundedFallbackHeight float64 `yaml:"grounded_fallback_height"`
	ContactNormalThreshold float64 `yaml:"contact_normal_threshold"`
	FacingEpsilon          float64 `yaml:"facing_epsilon"`
	FootOffset             float64 `yaml:"foot_offset"`

	FallLimit    float64    `yaml:"fall_limit"`
	Spawn        [3]float64 `yaml:"spawn"`
	DefaultLives int        `yaml:"default_lives"`
	CoinsPerLife int        `yaml:"coins_per_life"`

	Radius float64 `yaml:"radius"`
	Mass   float64 `yaml:"mass"`

	StompBounce float64 `yaml:"stomp_bounce"`
	Knockback   float64 `yaml:"knockback"`
}

// CameraConfig содержит настройки орбитальной камеры
type CameraConfig struct {
	Distance      float64 `yaml:"distance"`
	MinDistance   float64 `yaml:"min_distance"`
	MaxDistance   float64 `yaml:"max_distance"`
	PolarAngle    float64 `yaml:"polar_angle"`
	MinPolarAngle float64 `yaml:"min_polar_angle"`
	MaxPolarAngle float64 `yaml:"max_polar_angle"`
	SmoothSpeed   float64 `yaml:"smooth_speed"`
	Sensitivity   float64 `yaml:"sensitivity"`
	ZoomSpeed     float64 `yaml:"zoom_speed"`
	LookAtHeight  float64 `yaml:"look_at_height"`
}

// LoggingConfig описывает настройки zap-логгера
type LoggingConfig struct {
	Level            string `yaml:"level"`
	Format           string `yaml:"format"` // json или console
	Development      bool   `yaml:"development"`
	EnableSampling   bool   `yaml:"enable_sampling"`
	SampleInitial    int    `yaml:"sample_initial"`
	SampleThereafter int    `yaml:"sample_thereafter"`
}

// NetworkSimConfig - имитация сетевых условий для исходящих кадров
type NetworkSimConfig struct {
	Enabled         bool          `yaml:"enabled"`
	BaseLatency     time.Duration `yaml:"base_latency"`
	LatencyVariance time.Duration `yaml:"latency_variance"`
	PacketLoss      float64       `yaml:"packet_loss"`
}

// LevelConfig указывает, откуда брать раскладку уровня
type LevelConfig struct {
	File string `yaml:"file"` // Пусто = встроенный уровень
}

// Ошибки валидации
var (
	ErrInvalidLoop      = errors.New("config: invalid loop settings")
	ErrInvalidCharacter = errors.New("config: invalid character settings")
	ErrInvalidCamera    = errors.New("config: invalid camera settings")
)

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          ":8080",
			HealthAddr:    ":50051",
			StaticDir:     "./static",
			PingInterval:  2 * time.Second,
			BroadcastPool: 64,
		},
		Loop: LoopConfig{
			TargetFPS:   60,
			FixedStep:   1.0 / 60.0,
			MaxSubsteps: 3,
			MaxFrameDt:  0.1,
		},
		Physics: PhysicsConfig{
			Gravity:       -30.0,
			LinearDamping: 0.01,
			Friction:      0.3,
			Restitution:   0.0,
		},
		Character: CharacterConfig{
			MoveSpeed:       6.0,
			RunSpeed:        10.0,
			JumpForce:       12.0,
			DoubleJumpForce: 14.0,
			TripleJumpForce: 18.0,
			JumpWindow:      0.4,

			GroundPoundVelocity:    -25.0,
			GroundedVelocityBand:   0.1,
			GroundedFallbackHeight: 1.0,
			ContactNormalThreshold: 0.5,
			FacingEpsilon:          0.1,
			FootOffset:             -0.5,

			FallLimit:    -20.0,
			Spawn:        [3]float64{0, 5, 0},
			DefaultLives: 3,
			CoinsPerLife: 100,

			Radius: 0.5,
			Mass:   1.0,

			StompBounce: 10.0,
			Knockback:   8.0,
		},
		Camera: CameraConfig{
			Distance:      10.0,
			MinDistance:   4.0,
			MaxDistance:   20.0,
			PolarAngle:    1.1,
			MinPolarAngle: 0.3,
			MaxPolarAngle: 1.45,
			SmoothSpeed:   5.0,
			Sensitivity:   0.003,
			ZoomSpeed:     0.01,
			LookAtHeight:  1.0,
		},
		Logging: LoggingConfig{
			Level:            "info",
			Format:           "console",
			EnableSampling:   true,
			SampleInitial:    100,
			SampleThereafter: 100,
		},
	}
}

// Load читает YAML-файл поверх значений по умолчанию
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	if c.Loop.TargetFPS <= 0 || c.Loop.FixedStep <= 0 || c.Loop.MaxSubsteps <= 0 {
		return fmt.Errorf("%w: fps=%d step=%v substeps=%d",
			ErrInvalidLoop, c.Loop.TargetFPS, c.Loop.FixedStep, c.Loop.MaxSubsteps)
	}

	ch := c.Character
	if ch.JumpWindow <= 0 || ch.DefaultLives <= 0 || ch.CoinsPerLife <= 0 {
		return fmt.Errorf("%w: window=%v lives=%d coins_per_life=%d",
			ErrInvalidCharacter, ch.JumpWindow, ch.DefaultLives, ch.CoinsPerLife)
	}
	if ch.Radius <= 0 || ch.Mass <= 0 {
		return fmt.Errorf("%w: body radius=%v mass=%v", ErrInvalidCharacter, ch.Radius, ch.Mass)
	}

	cam := c.Camera
	if cam.MinDistance <= 0 || cam.MinDistance > cam.MaxDistance {
		return fmt.Errorf("%w: distance range [%v, %v]", ErrInvalidCamera, cam.MinDistance, cam.MaxDistance)
	}
	if cam.MinPolarAngle > cam.MaxPolarAngle {
		return fmt.Errorf("%w: polar range [%v, %v]", ErrInvalidCamera, cam.MinPolarAngle, cam.MaxPolarAngle)
	}

	return nil
}

// TickDuration возвращает длительность кадра для целевого FPS
func (c LoopConfig) TickDuration() time.Duration {
	if c.TargetFPS <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.TargetFPS)
}
