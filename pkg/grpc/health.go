package grpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// WaitForHealth 等待健康檢查回報 SERVING，或 ctx 結束
//
// 參數:
//
//	ctx: 控制等待時間
//	conn: gRPC 連線
//	service: 服務名稱 ("" 代表整個伺服器)
//
// 回傳值:
//
//	error: ctx 結束前仍未 SERVING
func WaitForHealth(ctx context.Context, conn *grpc.ClientConn, service string) error {
	if conn == nil {
		return fmt.Errorf("gRPC connection is not configured")
	}

	client := grpc_health_v1.NewHealthClient(conn)
	backoff := 100 * time.Millisecond
	for {
		callCtx, cancel := context.WithTimeout(ctx, time.Second)
		resp, err := client.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: service})
		cancel()
		if err == nil && resp.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING {
			return nil
		}

		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("wait for gRPC health: %w (last error: %v)", ctx.Err(), err)
			}
			return fmt.Errorf("wait for gRPC health: %w (status %s)", ctx.Err(), resp.GetStatus())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, time.Second)
	}
}
