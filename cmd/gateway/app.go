package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/communityplatform/backend/internal/gateway"
	"github.com/communityplatform/backend/internal/logger"
	"github.com/communityplatform/backend/internal/service/auth/tokenmanager"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// The gateway only verifies tokens, it never issues them:
	// token manager is created without a refresh token repo
	verifier, err := tokenmanager.New(tokenmanager.Config{
		SecretKey: c.SecretKey,
		Issuer:    c.Issuer,
		Audience:  c.Audience,
		ClockSkew: time.Duration(c.ClockSkewSeconds) * time.Second,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("error while creating token verifier. Err: %w", err)
	}

	handler, err := gateway.NewHandler(verifier, gateway.Config{
		UserServiceAddr:    c.UserServiceAddr,
		ContentServiceAddr: c.ContentServiceAddr,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("error while creating gateway handler. Err: %w", err)
	}

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    handler,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting gateway", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
