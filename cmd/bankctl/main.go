package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	grpc_adapter "github.com/JoeShih716/go-rpg-bank/internal/app/bank/adapter/in/grpc"
	grpcpool "github.com/JoeShih716/go-rpg-bank/pkg/grpc"
)

const usage = `usage: bankctl [-addr host:port] [-timeout 5s] <command> [args]

commands:
  create <charId> [balance]              create an account
  get <id>                               fetch an account by id
  owner <charId>                         fetch the account of a character
  change <id> <delta>                    change a balance, prints the new balance
  list [pageNumber] [pageLength] [sortBy] [asc|desc]
  health                                 wait until the server reports SERVING
`

func main() {
	addr := flag.String("addr", "localhost:50051", "bank gRPC address")
	timeout := flag.Duration("timeout", 5*time.Second, "request timeout")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	log.SetFlags(0)
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	pool := grpcpool.NewPool(grpcpool.WithTracing(), grpcpool.WithInterceptor(requestIDInterceptor))
	defer pool.Close()
	conn, err := pool.GetConnection(*addr)
	if err != nil {
		log.Fatalf("connect %s: %v", *addr, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	out, err := run(ctx, conn, args)
	if err != nil {
		if bodies := grpc_adapter.ProblemBodies(err); len(bodies) > 0 {
			printJSON(map[string]any{"errors": bodies})
			os.Exit(1)
		}
		log.Fatal(err)
	}
	if out != nil {
		printJSON(out)
	}
}

func run(ctx context.Context, conn *grpc.ClientConn, args []string) (any, error) {
	client := grpc_adapter.NewAccountServiceClient(conn)
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "create":
		if len(rest) < 1 || len(rest) > 2 {
			return nil, fmt.Errorf("create needs <charId> [balance]")
		}
		req := map[string]any{}
		charID, err := parseInt(rest[0])
		if err != nil {
			return nil, err
		}
		req["charId"] = charID
		if len(rest) == 2 {
			balance, err := parseInt(rest[1])
			if err != nil {
				return nil, err
			}
			req["balance"] = balance
		}
		in, err := structpb.NewStruct(req)
		if err != nil {
			return nil, err
		}
		account, err := client.CreateAccount(ctx, in)
		if err != nil {
			return nil, err
		}
		return account.AsMap(), nil

	case "get", "owner":
		if len(rest) != 1 {
			return nil, fmt.Errorf("%s needs exactly one id", cmd)
		}
		id, err := parseInt(rest[0])
		if err != nil {
			return nil, err
		}
		call := client.GetAccount
		if cmd == "owner" {
			call = client.GetAccountByOwner
		}
		account, err := call(ctx, wrapperspb.Int64(id))
		if err != nil {
			return nil, err
		}
		return account.AsMap(), nil

	case "change":
		if len(rest) != 2 {
			return nil, fmt.Errorf("change needs <id> <delta>")
		}
		id, err := parseInt(rest[0])
		if err != nil {
			return nil, err
		}
		delta, err := parseInt(rest[1])
		if err != nil {
			return nil, err
		}
		in, err := structpb.NewStruct(map[string]any{"id": id, "delta": delta})
		if err != nil {
			return nil, err
		}
		balance, err := client.ChangeBalance(ctx, in)
		if err != nil {
			return nil, err
		}
		return map[string]any{"balance": balance.GetValue()}, nil

	case "list":
		req := map[string]any{}
		if len(rest) > 0 {
			n, err := parseInt(rest[0])
			if err != nil {
				return nil, err
			}
			req["pageNumber"] = n
		}
		if len(rest) > 1 {
			n, err := parseInt(rest[1])
			if err != nil {
				return nil, err
			}
			req["pageLength"] = n
		}
		if len(rest) > 2 {
			req["sortBy"] = rest[2]
		}
		if len(rest) > 3 {
			req["isDescending"] = rest[3] != "asc"
		}
		in, err := structpb.NewStruct(req)
		if err != nil {
			return nil, err
		}
		list, err := client.ListAccounts(ctx, in)
		if err != nil {
			return nil, err
		}
		return list.AsSlice(), nil

	case "health":
		if err := grpcpool.WaitForHealth(ctx, conn, grpc_adapter.ServiceName); err != nil {
			return nil, err
		}
		return map[string]any{"status": "SERVING"}, nil

	default:
		return nil, fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

// requestIDInterceptor 每個請求帶上新的 x-request-id
func requestIDInterceptor(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	ctx = metadata.AppendToOutgoingContext(ctx, grpc_adapter.RequestIDKey, uuid.NewString())
	return invoker(ctx, method, req, reply, cc, opts...)
}

func parseInt(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return v, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal(err)
	}
}
