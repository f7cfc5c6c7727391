package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"google.golang.org/grpc/health/grpc_health_v1"

	graphql_adapter "github.com/JoeShih716/go-rpg-bank/internal/app/bank/adapter/in/graphql"
	grpc_adapter "github.com/JoeShih716/go-rpg-bank/internal/app/bank/adapter/in/grpc"
	rest_adapter "github.com/JoeShih716/go-rpg-bank/internal/app/bank/adapter/in/rest"
	memory_adapter "github.com/JoeShih716/go-rpg-bank/internal/app/bank/adapter/out/memory"
	mysql_adapter "github.com/JoeShih716/go-rpg-bank/internal/app/bank/adapter/out/mysql"
	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/usecase"
	"github.com/JoeShih716/go-rpg-bank/internal/config"
	"github.com/JoeShih716/go-rpg-bank/pkg/mysql"
	"github.com/JoeShih716/go-rpg-bank/pkg/otel"
	"github.com/JoeShih716/go-rpg-bank/pkg/wal"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	log.SetPrefix("[BANK] ")

	// 1. 載入設定
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. 追蹤
	shutdownTracing, err := otel.Setup(ctx, cfg.ServiceName, cfg.Tracing)
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("Failed to flush traces: %v", err)
		}
	}()

	// 3. 儲存層
	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Store.Driver, err)
	}
	defer st.close()

	// 4. UseCase
	logger := log.Default()
	accounts := usecase.NewAccountService(st.accounts,
		usecase.WithLogger(logger),
		usecase.WithMaxAttempts(cfg.MaxAttempts),
	)
	loans := usecase.NewLoanService(st.loans, logger)

	// 5. HTTP (REST + GraphQL)
	restCfg := rest_adapter.Config{
		Accounts:  accounts,
		Logger:    logger,
		AccessLog: cfg.HTTP.AccessLog,
		Ready:     st.ready,
	}
	if cfg.GraphQLEnabled() {
		restCfg.GraphQL = graphql_adapter.NewHandler(accounts, loans)
	}
	app := rest_adapter.NewApp(restCfg)

	// 6. gRPC
	grpcServer, healthServer := grpc_adapter.NewServer(accounts, grpc_adapter.ServerOptions{
		Logger:    logger,
		AccessLog: cfg.GRPC.AccessLog,
	})
	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", cfg.GRPC.Addr, err)
	}

	errCh := make(chan error, 2)
	go func() {
		log.Printf("Starting HTTP server on %s", cfg.HTTP.Addr)
		errCh <- app.Listen(cfg.HTTP.Addr)
	}()
	go func() {
		log.Printf("Starting gRPC server on %s", cfg.GRPC.Addr)
		errCh <- grpcServer.Serve(lis)
	}()

	// Graceful Shutdown
	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Printf("Server stopped unexpectedly: %v", err)
	}
	log.Println("Shutting down server...")

	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		log.Printf("HTTP shutdown failed: %v", err)
	}
	grpcServer.GracefulStop()
	log.Println("Server exited")
}

// stores 依設定建立的儲存層
type stores struct {
	accounts usecase.AccountStore
	loans    usecase.LoanStore
	// ready 健康檢查，nil 代表沒有外部相依
	ready func(ctx context.Context) error
	// close 釋放底層資源 (資料庫連線、WAL 檔案)
	close func()
}

// openStores 依設定建立帳戶與個人貸款儲存
func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	switch cfg.Store.Driver {
	case config.StoreMySQL:
		dbClient, err := mysql.NewClient(cfg.MySQL)
		if err != nil {
			return nil, err
		}
		log.Println("Connected to MySQL successfully")
		accountStore := mysql_adapter.NewAccountStore(dbClient)
		loanStore := mysql_adapter.NewLoanStore(dbClient)
		if cfg.Store.AutoMigrate {
			if err := accountStore.Migrate(ctx); err != nil {
				dbClient.Close()
				return nil, err
			}
			if err := loanStore.Migrate(ctx); err != nil {
				dbClient.Close()
				return nil, err
			}
		}
		return &stores{
			accounts: accountStore,
			loans:    loanStore,
			ready:    dbClient.Ping,
			close:    func() { dbClient.Close() },
		}, nil

	case config.StoreMemory:
		var logs []*wal.Log
		closeLogs := func() {
			for _, l := range logs {
				l.Close()
			}
		}

		accountLog, err := openWAL(cfg.Store.WALPath)
		if err != nil {
			return nil, err
		}
		if accountLog != nil {
			logs = append(logs, accountLog)
		}
		accountStore, err := memory_adapter.NewMutexStore(accountLog)
		if err != nil {
			closeLogs()
			return nil, err
		}

		loanLog, err := openWAL(cfg.Store.LoanWALPath)
		if err != nil {
			closeLogs()
			return nil, err
		}
		if loanLog != nil {
			logs = append(logs, loanLog)
		}
		loanStore, err := memory_adapter.NewLoanStore(loanLog)
		if err != nil {
			closeLogs()
			return nil, err
		}
		return &stores{accounts: accountStore, loans: loanStore, close: closeLogs}, nil

	default:
		return nil, errors.New("unknown store driver " + string(cfg.Store.Driver))
	}
}

// openWAL 開啟 WAL；path 為空時回傳 nil (只存在記憶體)
func openWAL(path string) (*wal.Log, error) {
	if path == "" {
		log.Println("WAL disabled, data is kept in memory only")
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	l, err := wal.Open(path)
	if err != nil {
		return nil, err
	}
	log.Printf("Recovering from %s", path)
	return l, nil
}
