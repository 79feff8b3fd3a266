package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4/middleware"

	"github.com/xiaot623/gogo/sdapi/internal/sandbox"
)

// serve runs the sandbox until ctx is cancelled.
func (a *app) serve(ctx context.Context, args []string) error {
	fs := newFlagSet("serve", a.stderr)
	port := fs.Int("port", a.cfg.SandboxPort, "port to listen on")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if a.cfg.Username == "" || a.cfg.Password == "" {
		return errors.New("serve needs username and password for basic auth")
	}

	a.logger.Info("starting sandbox", "port", *port, "database", a.cfg.SandboxDatabaseURL)

	store, err := sandbox.NewSQLiteStore(a.cfg.SandboxDatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer store.Close()

	policySource := sandbox.DefaultPolicy
	if a.cfg.SandboxPolicy != "" {
		data, err := os.ReadFile(a.cfg.SandboxPolicy)
		if err != nil {
			return fmt.Errorf("failed to read policy: %w", err)
		}
		policySource = string(data)
	}
	policy, err := sandbox.NewPolicy(ctx, policySource)
	if err != nil {
		return fmt.Errorf("failed to initialize policy: %w", err)
	}

	cert, err := sandbox.SelfSignedCertificate("localhost", "127.0.0.1", "::1")
	if err != nil {
		return err
	}

	srv := sandbox.NewServer(store, policy, sandbox.Options{
		Username: a.cfg.Username,
		Password: a.cfg.Password,
		Logger:   a.logger,
	})
	srv.Echo().Use(middleware.Logger())

	httpServer := &http.Server{
		Addr:      fmt.Sprintf(":%d", *port),
		TLSConfig: &tls.Config{Certificates: []tls.Certificate{cert}},
	}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.StartServer(httpServer); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()
	a.logger.Info("sandbox started", "url", fmt.Sprintf("https://localhost:%d/s/-/dw/debugger/v2_0", *port))

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start sandbox: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down sandbox")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("failed to shutdown sandbox gracefully", "error", err)
	}
	a.logger.Info("sandbox stopped")
	return nil
}
