package main

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/md-rashed-zaman/clinicboard/libs/grpcx"
	"github.com/md-rashed-zaman/clinicboard/libs/runtime"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// startGrpcServer serves grpc.health.v1 and keeps its status in step with the readiness checks.
func startGrpcServer(ctx context.Context, logger *slog.Logger, port string, checks []runtime.ReadyCheck) error {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return err
	}

	srv := grpcx.NewServer(logger)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			updateHealth(ctx, logger, hs, checks)
			select {
			case <-ctx.Done():
				hs.Shutdown()
				srv.GracefulStop()
				return
			case <-ticker.C:
			}
		}
	}()

	return nil
}

func updateHealth(ctx context.Context, logger *slog.Logger, hs *health.Server, checks []runtime.ReadyCheck) {
	status := healthpb.HealthCheckResponse_SERVING
	if failures := runtime.RunChecks(ctx, 2*time.Second, checks...); len(failures) > 0 {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		logger.Warn("readiness checks failing", "failures", failures)
	}
	hs.SetServingStatus("", status)
	hs.SetServingStatus("calendar.v1.CalendarService", status)
}
