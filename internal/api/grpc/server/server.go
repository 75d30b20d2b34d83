package server

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/st-angelo/webarena-auth/internal/api/grpc/middleware"
	"github.com/st-angelo/webarena-auth/internal/logger"
	"github.com/st-angelo/webarena-auth/internal/model"
)

// ServiceName is the name reported by the health service next to the
// server-wide "" entry.
const ServiceName = "webarena.auth"

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

var _ model.Server = (*GRPCServer)(nil)

// GRPCServer serves grpc.health.v1.Health for orchestrators and load balancers.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	addr   string
	logger *logger.Logger
}

// NewGRPCServer builds a gRPC server with recovery and logging
// interceptors, the health service and reflection registered.
func NewGRPCServer(addr string, logger *logger.Logger) *GRPCServer {
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.Recovery(logger),
			middleware.NewLogging(logger).HandleGRPC,
		),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	return &GRPCServer{
		server: gs,
		health: hs,
		addr:   addr,
		logger: logger,
	}
}

// Start serves on the configured address using the provided security layer.
func (s *GRPCServer) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.server.Serve(listener)
}

// Stop flips every service to NOT_SERVING and drains in-flight calls.
func (s *GRPCServer) Stop(_ context.Context) error {
	s.health.Shutdown()
	s.server.GracefulStop()
	return nil
}

func (s *GRPCServer) Address() string {
	return s.addr
}

// SetServing updates the health status of the server and ServiceName.
func (s *GRPCServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Monitor pings dep every interval and mirrors the result in the health
// status until ctx ends.
func (s *GRPCServer) Monitor(ctx context.Context, dep Pinger, interval time.Duration) {
	check := func() {
		pingCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()

		err := dep.Ping(pingCtx)
		if err != nil {
			s.logger.Warn("gRPC health: dependency check failed",
				"error", err.Error())
		}
		s.SetServing(err == nil)
	}

	check()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
