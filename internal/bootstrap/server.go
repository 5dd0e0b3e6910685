package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// DrainTimeout bounds how long in-flight requests may keep running
	// after the shutdown signal. Zero means 10s.
	DrainTimeout time.Duration
}

// StartHTTPServer serves the router until SIGINT/SIGTERM, then drains
// in-flight requests. Blocks for the lifetime of the server.
func StartHTTPServer(
	router *gin.Engine,
	cfg ServerConfig,
	audit AuditLogger,
) {
	log := zap.L().Named("bootstrap.http")

	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 10 * time.Second
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		log.Info("http server listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info("shutdown signal received", zap.String("signal", sig.String()))

	// Audit before draining so the entry exists even when the drain
	// deadline expires.
	audit.Log(context.Background(), AuditLog{
		Action:  "SERVER_SHUTDOWN",
		Message: "shutdown signal received, draining requests",
		Meta: map[string]any{
			"signal": sig.String(),
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DrainTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("http server drain expired, forcing exit", zap.Error(err))
		return
	}
	log.Info("http server exited cleanly")
}
