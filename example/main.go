package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/zaidan-systems/zaidan-common/pkg/dealer"
	customlog "github.com/zaidan-systems/zaidan-common/pkg/log"
)

func main() {
	configPath := flag.String("config", "", "path to a config.yaml (defaults apply when empty)")
	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	// Create a new Fiber app
	app := fiber.New(fiber.Config{
		AppName:               "zaidan-common example",
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	// Bind the logger before registering routes so the request log
	// middleware wraps them.
	registry := customlog.NewRegistry()
	logger, err := customlog.NewFiberLogger(registry, app, cfg.Logging.Name, cfg.Logging.Level, cfg.Logging.SuppressAppLogs)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	app.Use(recover.New())

	// External stores are optional; the logging routes work without them.
	var cache *dealer.Cache
	if cfg.Redis.Addr != "" {
		cache = dealer.NewCache(cfg.Redis.Addr, cfg.Redis.Password)
		defer cache.Close()
		logger.Info("dealer cache attached", customlog.Fields{"addr": cfg.Redis.Addr})
	}

	if cfg.Database.Host != "" {
		dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err := dealer.NewDatabase(dbCtx, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name, cfg.Database.User, cfg.Database.Password)
		dbCancel()
		if err != nil {
			log.Fatalf("Failed to connect to dealer database: %v", err)
		}
		defer db.Close()
		logger.Info("dealer database attached", customlog.Fields{"host": cfg.Database.Host})
	}

	// Set up basic routes
	app.Get("/", func(c *fiber.Ctx) error {
		logger.Info("test log statement", customlog.Fields{"got req": true})
		return c.SendString("hello world: " + time.Now().Format(time.RFC3339))
	})

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	if cache != nil {
		app.Get("/quotes", func(c *fiber.Ctx) error {
			ids, err := cache.GetQuoteIDs(c.UserContext())
			if err != nil {
				logger.Error("failed to list quote IDs", customlog.Fields{"error": err.Error()})
				return fiber.NewError(fiber.StatusInternalServerError, "failed to list quote IDs")
			}
			return c.JSON(fiber.Map{"quote_ids": ids})
		})
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", customlog.Fields{"port": cfg.Server.HTTPPort})
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.HTTPPort)); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	logger.Info("server stopped", nil)
}

// Custom error handler
func customErrorHandler(c *fiber.Ctx, err error) error {
	// Default 500 status code
	code := fiber.StatusInternalServerError

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Return JSON response
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
