package grpcapp

import (
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is reported by the health service next to the overall status.
const ServiceName = "shop"

// App serves the standard gRPC health service for orchestrators.
type App struct {
	logger     *slog.Logger
	gRPCServer *grpc.Server
	health     *health.Server
	port       int
}

func New(logger *slog.Logger, port int, withReflection bool) *App {
	gRPCServer := grpc.NewServer()

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gRPCServer, hs)
	if withReflection {
		reflection.Register(gRPCServer)
	}

	a := &App{
		logger:     logger,
		gRPCServer: gRPCServer,
		health:     hs,
		port:       port,
	}
	a.SetServing(false)

	return a
}

// SetServing flips the reported status of the whole server.
func (a *App) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}

	a.health.SetServingStatus("", status)
	a.health.SetServingStatus(ServiceName, status)
}

func (a *App) MustRun() {
	if err := a.Run(); err != nil {
		panic(err)
	}
}

func (a *App) Run() error {
	const op = "grpcapp.Run"

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", a.port))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return a.Serve(listener)
}

func (a *App) Serve(lis net.Listener) error {
	const op = "grpcapp.Serve"

	log := a.logger.With(
		slog.String("op", op),
		slog.Int("port", a.port),
	)

	log.Info("gRPC server is running", slog.String("address", lis.Addr().String()))

	if err := a.gRPCServer.Serve(lis); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (a *App) Stop() {
	const op = "grpcapp.Stop"
	log := a.logger.With(slog.String("op", op))
	log.Info("stopping gRPC server", slog.Int("port", a.port))

	a.health.Shutdown()
	a.gRPCServer.GracefulStop()
}
