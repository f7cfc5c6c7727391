package grpc

import (
	"context"
	"errors"
	"log"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// RequestIDKey 請求 ID 的 metadata key
const RequestIDKey = "x-request-id"

type requestIDContextKey struct{}

// RequestID 取得目前請求的 ID
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

// RequestIDInterceptor 沿用客戶端帶來的 x-request-id，沒有則產生一個，並回寫到 response header
func RequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		var id string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get(RequestIDKey); len(values) > 0 {
				id = values[0]
			}
		}
		if id == "" {
			id = uuid.NewString()
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDKey, id))
		return handler(context.WithValue(ctx, requestIDContextKey{}, id), req)
	}
}

// AccessLogInterceptor 每個請求輸出一行存取紀錄
func AccessLogInterceptor(logger *log.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Printf("%s | %s | %v | %s", info.FullMethod, status.Code(err), time.Since(start), RequestID(ctx))
		return resp, err
	}
}

// RecoveryInterceptor 攔截 handler 的 panic，記錄 stack 後回傳 codes.Internal，避免整個程序結束
func RecoveryInterceptor(logger *log.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Printf("panic in %s (request %s): %v\n%s", info.FullMethod, RequestID(ctx), r, debug.Stack())
				resp, err = nil, toStatus(errors.New("panic recovered"))
			}
		}()
		return handler(ctx, req)
	}
}
