package server

import (
	"context"
	"fmt"
	"net"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	kratoshttp "github.com/go-kratos/kratos/v2/transport/http"
	swaggerUI "github.com/tx7do/kratos-swagger-ui"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	remoteadminv1 "github.com/go-tangra/go-tangra-remote-admin/api/remoteadmin/v1"
	"github.com/go-tangra/go-tangra-remote-admin/internal/config"
	"github.com/go-tangra/go-tangra-remote-admin/internal/session"
)

// NewGRPCServer builds the gRPC server with client-secret auth interceptors
// (unary + stream), the RemoteAdmin service and the health service.
func NewGRPCServer(cfg *config.Config, sessions *session.Manager, logger log.Logger) *grpc.Server {
	grpcSrv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(ClientSecretInterceptor(cfg.ClientSecret)),
		grpc.ChainStreamInterceptor(ClientSecretStreamInterceptor(cfg.ClientSecret)),
	)
	remoteadminv1.RegisterRemoteAdminServer(grpcSrv, NewRPCService(sessions, logger))
	healthpb.RegisterHealthServer(grpcSrv, health.NewServer())
	reflection.Register(grpcSrv)
	return grpcSrv
}

// NewHTTPServer builds the HTTP server with API-secret middleware, the
// session routes, the watch socket and the optional Swagger UI.
func NewHTTPServer(cfg *config.Config, sessions *session.Manager, openApiData []byte, logger log.Logger) *kratoshttp.Server {
	httpSrv := kratoshttp.NewServer(
		kratoshttp.Address(cfg.HTTPListen),
		kratoshttp.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
			ApiSecretMiddleware(cfg.ApiSecret),
		),
	)
	NewHandler(sessions, logger).Register(httpSrv)

	// The watch socket is registered on the router directly and checks the
	// API key itself.
	httpSrv.Handle(watchPath, NewWatcher(sessions, cfg.ApiSecret, logger))

	// Swagger UI (registered via HandlePrefix, bypasses middleware chain).
	if cfg.EnableSwagger && len(openApiData) > 0 {
		swaggerUI.RegisterSwaggerUIServerWithOption(
			httpSrv,
			swaggerUI.WithTitle("Remote Admin"),
			swaggerUI.WithMemoryData(openApiData, "yaml"),
		)
		log.NewHelper(logger).Infof("Swagger UI available at http://%s/docs/", cfg.HTTPListen)
	}
	return httpSrv
}

// Run starts the gRPC and HTTP servers and blocks until the context is cancelled.
func Run(ctx context.Context, cfg *config.Config, sessions *session.Manager, openApiData []byte, logger log.Logger) error {
	helper := log.NewHelper(log.With(logger, "module", "server"))

	grpcSrv := NewGRPCServer(cfg, sessions, logger)
	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen gRPC on %s: %w", cfg.Listen, err)
	}

	// Idle sessions are reaped until shutdown, then all are closed.
	go sessions.Run(ctx, cfg.SessionIdle)

	httpSrv := NewHTTPServer(cfg, sessions, openApiData, logger)
	go func() {
		if err := httpSrv.Start(ctx); err != nil {
			helper.Errorf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown when the caller cancels the context.
	go func() {
		<-ctx.Done()
		helper.Info("Shutting down...")
		_ = httpSrv.Stop(context.Background())
		grpcSrv.GracefulStop()
	}()

	helper.Infof("Remote Admin gRPC listening on %s, HTTP on %s (transport: %s)", cfg.Listen, cfg.HTTPListen, cfg.Transport)
	if cfg.SessionIdle > 0 {
		helper.Infof("Idle sessions expire after %s", cfg.SessionIdle)
	}

	return grpcSrv.Serve(lis)
}
