package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName gRPC 服務名稱
const ServiceName = "bank.v1.AccountService"

// 各方法的完整名稱
const (
	MethodCreateAccount     = "/" + ServiceName + "/CreateAccount"
	MethodGetAccount        = "/" + ServiceName + "/GetAccount"
	MethodGetAccountByOwner = "/" + ServiceName + "/GetAccountByOwner"
	MethodChangeBalance     = "/" + ServiceName + "/ChangeBalance"
	MethodListAccounts      = "/" + ServiceName + "/ListAccounts"
)

// AccountServiceServer 帳戶 gRPC 服務
//
// 訊息使用 protobuf well-known types，欄位名稱與 REST 的 JSON 相同:
//
//	CreateAccount:     {charId, balance?}                          -> {id, charId, balance}
//	GetAccount:        Int64Value(id)                              -> {id, charId, balance}
//	GetAccountByOwner: Int64Value(charId)                          -> {id, charId, balance}
//	ChangeBalance:     {id, delta}                                 -> Int64Value(balance)
//	ListAccounts:      {pageNumber?, pageLength?, sortBy?, isDescending?} -> [{id, charId, balance}]
type AccountServiceServer interface {
	CreateAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAccount(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	GetAccountByOwner(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	ChangeBalance(context.Context, *structpb.Struct) (*wrapperspb.Int64Value, error)
	ListAccounts(context.Context, *structpb.Struct) (*structpb.ListValue, error)
}

// RegisterAccountServiceServer 註冊服務
func RegisterAccountServiceServer(s grpc.ServiceRegistrar, srv AccountServiceServer) {
	s.RegisterService(&AccountServiceDesc, srv)
}

// AccountServiceDesc 服務描述
var AccountServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AccountServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateAccount",
			Handler: unaryHandler(MethodCreateAccount, func(srv AccountServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
				return srv.CreateAccount(ctx, in)
			}),
		},
		{
			MethodName: "GetAccount",
			Handler: unaryHandler(MethodGetAccount, func(srv AccountServiceServer, ctx context.Context, in *wrapperspb.Int64Value) (any, error) {
				return srv.GetAccount(ctx, in)
			}),
		},
		{
			MethodName: "GetAccountByOwner",
			Handler: unaryHandler(MethodGetAccountByOwner, func(srv AccountServiceServer, ctx context.Context, in *wrapperspb.Int64Value) (any, error) {
				return srv.GetAccountByOwner(ctx, in)
			}),
		},
		{
			MethodName: "ChangeBalance",
			Handler: unaryHandler(MethodChangeBalance, func(srv AccountServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
				return srv.ChangeBalance(ctx, in)
			}),
		},
		{
			MethodName: "ListAccounts",
			Handler: unaryHandler(MethodListAccounts, func(srv AccountServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
				return srv.ListAccounts(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bank/v1/account.proto",
}

// unaryHandler 產生與 protoc-gen-go-grpc 相同流程的 handler: 解碼 -> (攔截器) -> 呼叫
func unaryHandler[Req any, PReq interface{ *Req }](fullMethod string, call func(AccountServiceServer, context.Context, PReq) (any, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AccountServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AccountServiceServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AccountServiceClient 帳戶 gRPC 客戶端
type AccountServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAccountServiceClient 建立客戶端
func NewAccountServiceClient(cc grpc.ClientConnInterface) *AccountServiceClient {
	return &AccountServiceClient{cc: cc}
}

func (c *AccountServiceClient) CreateAccount(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodCreateAccount, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AccountServiceClient) GetAccount(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetAccount, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AccountServiceClient) GetAccountByOwner(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetAccountByOwner, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AccountServiceClient) ChangeBalance(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, MethodChangeBalance, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AccountServiceClient) ListAccounts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, MethodListAccounts, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
