package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"x-platformer/backend/internal/config"
	"x-platformer/backend/internal/game"
	"x-platformer/backend/internal/logging"
	"x-platformer/backend/internal/transport"
	"x-platformer/backend/internal/transport/ws"
)

func main() {
	var (
		configPath = flag.String("config", "", "Путь к YAML-конфигурации (пусто = значения по умолчанию)")
		netProfile = flag.String("net-profile", "", "Профиль имитации сети (mobile_3g, wifi_good, ...)")
	)
	flag.Parse()

	if err := run(*configPath, *netProfile); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return cfg, cfg.Validate()
	}
	return config.Load(path)
}

func run(configPath, netProfile string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	zl, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()
	logger := zl.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Игровой цикл и уровень
	ticker := game.NewGameTicker(cfg, logger)
	if _, err := ticker.LoadConfiguredLevel(); err != nil {
		return fmt.Errorf("load level: %w", err)
	}

	// Рассылка кадров
	sim := ws.FromConfig(cfg.NetworkSim)
	if netProfile != "" {
		sim = ws.Profile(netProfile)
	}
	broadcaster, err := ws.NewBroadcaster(cfg.Server.BroadcastPool, sim, logger)
	if err != nil {
		return fmt.Errorf("init broadcaster: %w", err)
	}
	defer broadcaster.Close()

	ticker.RegisterDefaultSystems(broadcaster)
	if err := ticker.Start(ctx); err != nil {
		return err
	}
	defer ticker.Stop()

	// gRPC health
	if cfg.Server.HealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.HealthAddr)
		if err != nil {
			return fmt.Errorf("listen health %s: %w", cfg.Server.HealthAddr, err)
		}
		health := transport.NewHealthServer(ticker, time.Second, logger)
		go func() {
			if err := health.Serve(ctx, lis); err != nil {
				logger.Errorf("[Health] Сервер остановлен с ошибкой: %v", err)
			}
		}()
	}

	// HTTP: WebSocket, статика и отладочные ручки
	wsServer := ws.NewWSServer(ticker, broadcaster, logger)
	wsServer.SetPingInterval(cfg.Server.PingInterval)
	mux := wsServer.Routes(cfg.Server.StaticDir)
	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, map[string]any{
			"loop":      ticker.GetStats(),
			"broadcast": broadcaster.Stats(),
			"network":   broadcaster.NetworkSimulation(),
		})
	})
	mux.HandleFunc("/api/telemetry", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, ticker.Telemetry().Entries())
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("🌐 [Server] HTTP и WebSocket на %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Infof("[Server] Получен сигнал завершения")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func writeJSON(w http.ResponseWriter, logger *zap.SugaredLogger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warnf("[Server] Ошибка кодирования ответа: %v", err)
	}
}
