package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 12.0, cfg.Character.JumpForce)
	assert.Equal(t, 14.0, cfg.Character.DoubleJumpForce)
	assert.Equal(t, 0.4, cfg.Character.JumpWindow)
	assert.Equal(t, -20.0, cfg.Character.FallLimit)
	assert.Equal(t, [3]float64{0, 5, 0}, cfg.Character.Spawn)
	assert.Equal(t, 3, cfg.Character.DefaultLives)
	assert.Equal(t, 100, cfg.Character.CoinsPerLife)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantErr  error
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name: "overlay keeps defaults",
			content: `server:
  addr: "127.0.0.1:9000"
  ping_interval: 5s
character:
  run_speed: 12.5
logging:
  level: debug
`,
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
				assert.Equal(t, 5*time.Second, cfg.Server.PingInterval)
				assert.Equal(t, 12.5, cfg.Character.RunSpeed)
				assert.Equal(t, 6.0, cfg.Character.MoveSpeed)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, 60, cfg.Loop.TargetFPS)
			},
		},
		{
			name: "spawn and level file",
			content: `character:
  spawn: [1, 8, -2]
level:
  file: levels/world1.yaml
`,
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, [3]float64{1, 8, -2}, cfg.Character.Spawn)
				assert.Equal(t, "levels/world1.yaml", cfg.Level.File)
			},
		},
		{
			name: "invalid camera range",
			content: `camera:
  min_distance: 30
  max_distance: 10
`,
			wantErr: ErrInvalidCamera,
		},
		{
			name: "zero lives rejected",
			content: `character:
  default_lives: 0
`,
			wantErr: ErrInvalidCharacter,
		},
		{
			name: "broken loop",
			content: `loop:
  max_substeps: 0
`,
			wantErr: ErrInvalidLoop,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.content))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validate(t, cfg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	require.Error(t, err)
}

func TestTickDuration(t *testing.T) {
	assert.Equal(t, time.Second/20, LoopConfig{TargetFPS: 20}.TickDuration())
	assert.Equal(t, time.Second/60, LoopConfig{}.TickDuration())
}
