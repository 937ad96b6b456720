package transport

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName - имя сервиса в протоколе grpc.health.v1
const ServiceName = "platformer.GameLoop"

// HealthServer отдает состояние игрового цикла по протоколу grpc.health.v1.
// SERVING, пока цикл крутится, иначе NOT_SERVING.
type HealthServer struct {
	grpcServer *grpc.Server
	health     *health.Server
	loop       LoopStatus
	interval   time.Duration
	logger     *zap.SugaredLogger
	lastStatus healthpb.HealthCheckResponse_ServingStatus
}

// NewHealthServer создает gRPC сервер с зарегистрированной службой здоровья
func NewHealthServer(loop LoopStatus, interval time.Duration, logger *zap.SugaredLogger) *HealthServer {
	if interval <= 0 {
		interval = time.Second
	}
	hs := &HealthServer{
		grpcServer: grpc.NewServer(),
		health:     health.NewServer(),
		loop:       loop,
		interval:   interval,
		logger:     logger,
		lastStatus: healthpb.HealthCheckResponse_UNKNOWN,
	}
	healthpb.RegisterHealthServer(hs.grpcServer, hs.health)
	hs.refresh()
	return hs
}

// Serve принимает соединения до отмены ctx
func (hs *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	go hs.watch(ctx)
	go func() {
		<-ctx.Done()
		hs.health.Shutdown()
		hs.grpcServer.GracefulStop()
	}()

	hs.logger.Infof("[Health] gRPC health на %s", lis.Addr())
	return hs.grpcServer.Serve(lis)
}

func (hs *HealthServer) watch(ctx context.Context) {
	ticker := time.NewTicker(hs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hs.refresh()
		}
	}
}

// refresh переводит состояние цикла в статус здоровья
func (hs *HealthServer) refresh() {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if hs.loop.IsRunning() {
		status = healthpb.HealthCheckResponse_SERVING
	}
	if status == hs.lastStatus {
		return
	}
	hs.lastStatus = status

	hs.health.SetServingStatus("", status)
	hs.health.SetServingStatus(ServiceName, status)
	hs.logger.Infof("[Health] Статус: %s", status)
}
