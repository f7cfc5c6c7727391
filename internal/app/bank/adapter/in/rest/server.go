package rest

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/adapter/in/apierror"
	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/domain"
	"github.com/JoeShih716/go-rpg-bank/internal/app/bank/usecase"
)

// Config HTTP 伺服器設定
type Config struct {
	Accounts usecase.Accounts
	Logger   *log.Logger
	// GraphQL 掛在 /graphql，nil 時不掛載
	GraphQL http.Handler
	// AccessLog 是否輸出每個請求的存取紀錄
	AccessLog bool
	// Ready 檢查下游 (例如資料庫) 是否可用，nil 時 /healthz 一律回 ok
	Ready func(ctx context.Context) error
}

// NewApp 建立 fiber App 並註冊所有路由
func NewApp(cfg Config) *fiber.App {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Header:    fiber.HeaderXRequestID,
		Generator: uuid.NewString,
	}))
	if cfg.AccessLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "${time} | ${status} | ${latency} | ${method} ${path} | ${locals:requestid}\n",
			Output: logger.Writer(),
		}))
	}
	app.Use(cors.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if cfg.Ready != nil {
			if err := cfg.Ready(c.UserContext()); err != nil {
				logger.Printf("Health check failed: %v", err)
				return c.Status(fiber.StatusServiceUnavailable).SendString("unavailable")
			}
		}
		return c.SendString("ok")
	})

	api := app.Group("/v1")
	NewAccountHandler(cfg.Accounts).Register(api)

	if cfg.GraphQL != nil {
		app.All("/graphql", adaptor.HTTPHandler(cfg.GraphQL))
	}
	return app
}

// errorHandler 所有 handler 回傳的錯誤都在這裡轉成統一格式
func errorHandler(logger *log.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(apierror.NewResponse(domain.Problems{domain.General{Message: fe.Message}}))
		}

		status, resp := apierror.Translate(err)
		if status >= fiber.StatusInternalServerError || status == fiber.StatusConflict {
			logger.Printf("[%s] %s %s failed: %v", c.GetRespHeader(fiber.HeaderXRequestID), c.Method(), c.Path(), err)
		}
		return c.Status(status).JSON(resp)
	}
}
