package grpc

import (
	"log"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/usecase"
)

// ServerOptions NewServer 設定
type ServerOptions struct {
	Logger    *log.Logger
	AccessLog bool
}

// NewServer 建立 gRPC 伺服器並註冊 AccountService、health 與 reflection
//
// 回傳:
//
//	*grpc.Server: gRPC 伺服器 (尚未 Serve)
//	*health.Server: 健康檢查，關閉前可切成 NOT_SERVING
func NewServer(accounts usecase.Accounts, opts ServerOptions) (*grpc.Server, *health.Server) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	// 順序: request id -> 存取紀錄 -> panic 復原 -> handler
	interceptors := []grpc.UnaryServerInterceptor{RequestIDInterceptor()}
	if opts.AccessLog {
		interceptors = append(interceptors, AccessLogInterceptor(logger))
	}
	interceptors = append(interceptors, RecoveryInterceptor(logger))

	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors...),
	)
	RegisterAccountServiceServer(s, NewAccountServer(accounts, logger))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(s) // 方便 grpcurl 等工具列出服務
	return s, healthServer
}
