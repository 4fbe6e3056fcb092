package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"docent.chat/docent/common/id"
	"docent.chat/docent/common/logger"
	"docent.chat/docent/common/otel"
	"docent.chat/docent/core/config"
	"docent.chat/docent/internal/guard"
	"docent.chat/docent/internal/http/middleware"
	httprouter "docent.chat/docent/internal/http/router"
	"docent.chat/docent/internal/llm"
	"docent.chat/docent/internal/service"
	"docent.chat/docent/internal/session"
)

// The monitor binary serves the same chat API as cmd/server but runs
// every successful completion through the Qualifire safety evaluation.
func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeMonitor)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses the OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet, OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "docent monitor starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	completer, err := llm.New(llm.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize completion client", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "completion client ready", "model", completer.Model())

	evaluator, err := guard.NewQualifire(guard.Config{
		APIKey:  cfg.Qualifire.APIKey,
		BaseURL: cfg.Qualifire.BaseURL,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize safety evaluator", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "safety evaluator ready", "base_url", cfg.Qualifire.BaseURL)

	sessions := session.NewManager()
	chatService := service.NewChatService(sessions, completer, evaluator)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, chatService)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           withCORS(cfg, router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, chatService service.ChatService) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates the span, Recovery catches panics,
	// Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, chatService, httprouter.RouterConfig{
		UploadMaxBytes: cfg.Upload.MaxBytes,
	})

	return router
}

func withCORS(cfg config.Config, handler http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}).Handler(handler)
}

const banner = `
██████╗  ██████╗  ██████╗███████╗███╗   ██╗████████╗
██╔══██╗██╔═══██╗██╔════╝██╔════╝████╗  ██║╚══██╔══╝
██║  ██║██║   ██║██║     █████╗  ██╔██╗ ██║   ██║
██║  ██║██║   ██║██║     ██╔══╝  ██║╚██╗██║   ██║
██████╔╝╚██████╔╝╚██████╗███████╗██║ ╚████║   ██║
╚═════╝  ╚═════╝  ╚═════╝╚══════╝╚═╝  ╚═══╝   ╚═╝
`
