package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"prompt2app/config"
	"prompt2app/internal/ai"
	"prompt2app/internal/api"
	"prompt2app/internal/ratelimit"
	"prompt2app/internal/session"
)

func main() {
	// .env must be loaded before viper reads the environment.
	err := godotenv.Load()
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("error loading .env file", "error", err)
		} else {
			slog.Info(".env file not found, relying on system environment variables")
		}
	} else {
		slog.Info("loaded environment variables from .env file")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("cannot load config", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg)

	if err := run(cfg); err != nil {
		slog.Error("application stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("application exiting")
}

func setupLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func newGenerator(cfg config.Config) ai.AppGenerator {
	if cfg.LLMProvider == config.ProviderMock {
		slog.Warn("using mock generator, no model will be called")
		return ai.MockGenerator{}
	}
	return ai.NewGenerator(ai.GeneratorConfig{
		APIKey:      cfg.OpenAIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.GenerationModel,
		Temperature: cfg.GenerationTemperature,
		Timeout:     cfg.GenerationTimeout,
	})
}

func newLimiter(ctx context.Context, cfg config.Config) (*ratelimit.FixedWindowLimiter, error) {
	if cfg.RedisAddr == "" {
		slog.Info("REDIS_ADDR not set, generation requests are not rate limited")
		return nil, nil
	}
	limiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "", cfg.RateLimitPerMinute, time.Minute)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := limiter.Ping(pingCtx); err != nil {
		slog.Warn("redis not reachable, rate limiter will allow requests until it is", "addr", cfg.RedisAddr, "error", err)
	}
	return limiter, nil
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	generator := newGenerator(cfg)
	sessions := session.NewStore(generator, cfg.SessionCapacity, cfg.SessionTTL)

	var limiter api.Limiter
	redisLimiter, err := newLimiter(ctx, cfg)
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	if redisLimiter != nil {
		defer redisLimiter.Close()
		limiter = redisLimiter
	}

	apiHandler := api.NewAPIHandler(generator, sessions, limiter)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
		slog.Info("running in gin debug mode")
	}

	router := gin.New()        // Use gin.New() for more control over middleware
	router.Use(gin.Logger())   // Request logging
	router.Use(gin.Recovery()) // Panic recovery
	api.RegisterRoutes(router, apiHandler)

	var handler http.Handler = router
	if len(cfg.CORSAllowedOrigins) > 0 {
		handler = handlers.CORS(
			handlers.AllowedOrigins(cfg.CORSAllowedOrigins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type"}),
		)(router)
	}

	server := &http.Server{
		Addr:        cfg.ServerAddress,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Generation responses can take minutes.
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting API server", "address", cfg.ServerAddress, "provider", cfg.LLMProvider, "model", cfg.GenerationModel)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("API server listen error: %w", err)
		}
		slog.Info("API server has stopped listening")
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down API server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("API server forced shutdown: %w", err)
		}
		slog.Info("API server gracefully stopped")
		return nil
	})

	return g.Wait()
}
