package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/user/cryptofolio/internal/config"
	"github.com/user/cryptofolio/internal/database"
	"github.com/user/cryptofolio/internal/handlers"
	"github.com/user/cryptofolio/internal/logger"
	"github.com/user/cryptofolio/internal/middleware"
	"github.com/user/cryptofolio/internal/pricefeed"
	"github.com/user/cryptofolio/internal/ticker"
	ws "github.com/user/cryptofolio/internal/websocket"
	"github.com/user/cryptofolio/internal/workflow"
)

func main() {
	logger.Init()
	defer logger.Log.Sync()

	config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database.Init(ctx, config.App.DB.URL)
	defer database.Close()

	store := database.NewStore(database.DB)
	engine := workflow.New(store, logger.Log)

	prices := pricefeed.NewClient(config.App.PriceFeed.BaseURL, config.App.PriceFeed.CacheTTL, logger.Log)

	priceTicker := ticker.New(prices, config.App.PriceFeed.PollInterval, logger.Log)
	priceTicker.Start(ctx)

	hub := ws.NewHub(logger.Log)
	go hub.Run(priceTicker.Updates)

	handlers.Init(engine, prices, logger.Log)
	handlers.InitWebsocket(hub)

	app := fiber.New()
	secret := []byte(config.App.JWT.Secret)

	// Websocket routes sit outside the auth middleware; the price stream is
	// public, like the REST price endpoint.
	wsGroup := app.Group("/ws")
	wsGroup.Use("/", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	wsGroup.Get("/prices", websocket.New(handlers.PriceStream))

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "status": "ok"})
	})
	api.Get("/prices", handlers.GetPrices)

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", handlers.Signup)
	authGroup.Post("/login", handlers.Login)

	api.Use(middleware.Protected(secret))

	api.Get("/me", handlers.Me)
	api.Get("/portfolio", handlers.GetPortfolio)

	txGroup := api.Group("/transactions")
	txGroup.Post("/deposit", handlers.SubmitDeposit)
	txGroup.Post("/withdraw", handlers.SubmitWithdrawal)
	txGroup.Get("/", handlers.GetTransactions)

	api.Get("/notifications", handlers.GetNotifications)
	api.Post("/notifications/:id/read", handlers.MarkNotificationRead)

	admin := api.Group("/admin", middleware.RequireAdmin())
	admin.Get("/transactions", handlers.ListPendingTransactions)
	admin.Post("/transactions/:id/decide", handlers.DecideTransaction)
	admin.Post("/credits", handlers.ManualCredit)
	admin.Get("/users", handlers.ListUsers)
	admin.Patch("/users/:id", handlers.UpdateUserRole)
	admin.Delete("/users/:id", handlers.DeleteUser)
	admin.Post("/users/:id/deposit-address", handlers.AssignDepositAddress)
	admin.Get("/users/:id/activities", handlers.ListUserActivities)

	go func() {
		logger.Log.Info("HTTP server listening", zap.String("addr", config.App.Server.Addr))
		if err := app.Listen(config.App.Server.Addr); err != nil {
			logger.Log.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Log.Info("shutting down server...")
	cancel()
	if err := app.Shutdown(); err != nil {
		logger.Log.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Log.Info("server stopped")
}
