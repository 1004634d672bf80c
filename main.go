package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"sim-exchange/src/config"
	"sim-exchange/src/engine"
	"sim-exchange/src/handlers"
	"sim-exchange/src/logger"
	"sim-exchange/src/routes"
)

func main() {
	logger.InitLogger()
	log := logger.GetLogger()

	log.Info().Msg("Initializing simulated exchange")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *config.Config
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", configPath).Msg("Failed to load config")
		}
		log.Info().Str("path", configPath).Msg("Config loaded")
	} else {
		cfg = config.Default()
		log.Warn().Str("path", configPath).Msg("Config file not found, using defaults")
	}

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid exchange configuration")
	}

	exchange, err := engine.NewSimulatedExchange(engineCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to construct exchange")
	}

	sink := engine.NewRecordingSink()
	exchange.RegisterClient(sink)
	exchange.InitializeAccount()

	exchangeHandler := handlers.NewExchangeHandler(exchange, sink)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Error().
				Str("path", c.Path()).
				Str("method", c.Method()).
				Int("status", code).
				Str("error", err.Error()).
				Msg("Request error")

			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	routes.SetupRoutes(app, exchangeHandler)

	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}

	serverError := make(chan error, 1)

	go func() {
		if err := app.Listen(addr); err != nil {
			serverError <- err
		}
	}()

	log.Info().Str("addr", addr).Msg("Simulated exchange listening")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverError:
		if !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Server error")
		}
	case sig := <-shutdown:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
	}

	logger.CloseLogger()
}
