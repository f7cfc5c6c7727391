package grpc

import (
	"bytes"
	"context"
	"io"
	"log"
	"net"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/adapter/out/memory"
	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/usecase"
)

func startServer(t *testing.T) *grpc.ClientConn {
	t.Helper()
	store, err := memory.NewMutexStore(nil)
	if err != nil {
		t.Fatalf("NewMutexStore: %v", err)
	}
	logger := log.New(io.Discard, "", 0)
	svc := usecase.NewAccountService(store, usecase.WithLogger(logger))
	server, _ := NewServer(svc, ServerOptions{Logger: logger, AccessLog: true})

	lis := bufconn.Listen(1 << 20)
	go server.Serve(lis)
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	return s
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestCreateAndChangeBalance(t *testing.T) {
	client := NewAccountServiceClient(startServer(t))
	ctx := testContext(t)

	var header metadata.MD
	account, err := client.CreateAccount(ctx, mustStruct(t, map[string]any{"charId": 42, "balance": 10}), grpc.Header(&header))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	got := account.AsMap()
	if got["id"] != float64(1) || got["charId"] != float64(42) || got["balance"] != float64(10) {
		t.Fatalf("account = %v", got)
	}
	if len(header.Get(RequestIDKey)) != 1 {
		t.Fatalf("missing request id header: %v", header)
	}

	_, err = client.ChangeBalance(ctx, mustStruct(t, map[string]any{"id": 1, "delta": -11}))
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("overdraft: %v", err)
	}
	bodies := ProblemBodies(err)
	if len(bodies) != 1 || bodies[0]["error"] != "Insufficient funds" || bodies[0]["errorNumber"] != float64(1010) {
		t.Fatalf("details = %v", bodies)
	}

	balance, err := client.ChangeBalance(ctx, mustStruct(t, map[string]any{"id": 1, "delta": 1}))
	if err != nil {
		t.Fatalf("ChangeBalance: %v", err)
	}
	if balance.GetValue() != 11 {
		t.Fatalf("balance = %d", balance.GetValue())
	}
}

func TestCreateAccountErrors(t *testing.T) {
	client := NewAccountServiceClient(startServer(t))
	ctx := testContext(t)

	if _, err := client.CreateAccount(ctx, mustStruct(t, map[string]any{"charId": 7})); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	tests := []struct {
		name  string
		req   map[string]any
		code  codes.Code
		count int
	}{
		{"duplicate", map[string]any{"charId": 7}, codes.AlreadyExists, 1},
		{"missing char id", map[string]any{}, codes.FailedPrecondition, 1},
		{"missing and negative", map[string]any{"balance": -1}, codes.FailedPrecondition, 2},
		{"unknown field", map[string]any{"charId": 8, "colour": "red"}, codes.InvalidArgument, 1},
		{"fractional", map[string]any{"charId": 1.5}, codes.InvalidArgument, 1},
		{"string id", map[string]any{"charId": "9"}, codes.InvalidArgument, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.CreateAccount(ctx, mustStruct(t, tt.req))
			if status.Code(err) != tt.code {
				t.Fatalf("code = %v: %v", status.Code(err), err)
			}
			if bodies := ProblemBodies(err); len(bodies) != tt.count {
				t.Fatalf("details = %v", bodies)
			}
		})
	}
}

func TestGetAccount(t *testing.T) {
	client := NewAccountServiceClient(startServer(t))
	ctx := testContext(t)
	client.CreateAccount(ctx, mustStruct(t, map[string]any{"charId": 3, "balance": 4}))

	account, err := client.GetAccount(ctx, wrapperspb.Int64(1))
	if err != nil || account.AsMap()["charId"] != float64(3) {
		t.Fatalf("GetAccount = %v, %v", account, err)
	}
	account, err = client.GetAccountByOwner(ctx, wrapperspb.Int64(3))
	if err != nil || account.AsMap()["id"] != float64(1) {
		t.Fatalf("GetAccountByOwner = %v, %v", account, err)
	}

	_, err = client.GetAccount(ctx, wrapperspb.Int64(2))
	if status.Code(err) != codes.NotFound || ProblemBodies(err)[0]["id"] != float64(2) {
		t.Fatalf("missing id: %v", err)
	}
	_, err = client.GetAccountByOwner(ctx, wrapperspb.Int64(4))
	if status.Code(err) != codes.NotFound || ProblemBodies(err)[0]["charId"] != float64(4) {
		t.Fatalf("missing owner: %v", err)
	}
}

func TestListAccounts(t *testing.T) {
	client := NewAccountServiceClient(startServer(t))
	ctx := testContext(t)
	client.CreateAccount(ctx, mustStruct(t, map[string]any{"charId": 1, "balance": 5}))
	client.CreateAccount(ctx, mustStruct(t, map[string]any{"charId": 2, "balance": 50}))

	list, err := client.ListAccounts(ctx, &structpb.Struct{})
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	values := list.AsSlice()
	if len(values) != 2 || values[0].(map[string]any)["balance"] != float64(50) {
		t.Fatalf("list = %v", values)
	}

	list, err = client.ListAccounts(ctx, mustStruct(t, map[string]any{"sortBy": "charId", "isDescending": false, "pageLength": 1}))
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	values = list.AsSlice()
	if len(values) != 1 || values[0].(map[string]any)["charId"] != float64(1) {
		t.Fatalf("list = %v", values)
	}

	_, err = client.ListAccounts(ctx, mustStruct(t, map[string]any{"sortBy": "colour"}))
	if status.Code(err) != codes.InvalidArgument || ProblemBodies(err)[0]["property"] != "colour" {
		t.Fatalf("unknown sort: %v", err)
	}
}

func TestListAccountsBeyondOffsetRange(t *testing.T) {
	client := NewAccountServiceClient(startServer(t))
	ctx := testContext(t)
	for charID := 1; charID <= 3; charID++ {
		client.CreateAccount(ctx, mustStruct(t, map[string]any{"charId": charID}))
	}

	// pageNumber * pageLength 超出 int64
	list, err := client.ListAccounts(ctx, mustStruct(t, map[string]any{"pageNumber": float64(1 << 53), "pageLength": 1025}))
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if values := list.AsSlice(); len(values) != 0 {
		t.Fatalf("list = %v", values)
	}

	// 伺服器仍可服務
	if _, err := client.GetAccount(ctx, wrapperspb.Int64(1)); err != nil {
		t.Fatalf("GetAccount after large page: %v", err)
	}
}

func TestRecoveryInterceptor(t *testing.T) {
	var buf bytes.Buffer
	interceptor := RecoveryInterceptor(log.New(&buf, "", 0))
	info := &grpc.UnaryServerInfo{FullMethod: MethodListAccounts}

	resp, err := interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		panic("slice bounds out of range")
	})
	if resp != nil || status.Code(err) != codes.Internal {
		t.Fatalf("resp = %v, err = %v", resp, err)
	}
	if strings.Contains(status.Convert(err).Message(), "slice bounds") {
		t.Fatalf("panic value leaked: %v", err)
	}
	if !strings.Contains(buf.String(), "slice bounds out of range") {
		t.Fatalf("log = %q", buf.String())
	}

	resp, err = interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	if resp != "ok" || err != nil {
		t.Fatalf("resp = %v, err = %v", resp, err)
	}
}

func TestHealth(t *testing.T) {
	conn := startServer(t)
	resp, err := grpc_health_v1.NewHealthClient(conn).Check(testContext(t), &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v", resp.GetStatus())
	}
}
