// Package server exposes the HTTP API: accounts, paid searches and their
// history, credit purchases and the admin back office.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/verificapessoa/verificapessoa/config"
	"github.com/verificapessoa/verificapessoa/internal/lock"
	"github.com/verificapessoa/verificapessoa/internal/logging"
	"github.com/verificapessoa/verificapessoa/internal/runtime"
	"github.com/verificapessoa/verificapessoa/internal/store"
)

// Deps are the collaborators the routes need.
type Deps struct {
	Config   *config.Config
	Store    *store.Store
	Searcher Searcher
	Locker   lock.Locker
	Secret   []byte
	Logger   *zap.Logger
	Now      func() time.Time
}

// New builds the echo instance with every route mounted.
func New(d Deps) *echo.Echo {
	log := logging.OrNop(d.Logger)
	now := d.Now
	if now == nil {
		now = time.Now
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = errorHandler(log)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     d.Config.Server.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "Cookie"},
		AllowCredentials: true,
	}))

	ops := &OpsHandler{Now: now}
	ops.Register(e)
	if d.Config.Telemetry.MetricsEnabled {
		e.GET(d.Config.Telemetry.MetricsPath, echo.WrapHandler(promhttp.Handler()))
	}

	authMW := runtime.EchoAuthMiddleware(d.Secret)
	api := e.Group("/api")

	auth := &AuthHandler{
		Store:        d.Store,
		Secret:       d.Secret,
		TokenTTL:     d.Config.Server.TokenTTL,
		CookieSecure: d.Config.Server.CookieSecure,
		AdminEmails:  d.Config.Server.AdminEmails,
	}
	auth.Register(api.Group("/auth"))
	auth.RegisterProfile(api.Group("/user", authMW))

	sh := &SearchHandler{
		Store:    d.Store,
		Searcher: d.Searcher,
		Locker:   d.Locker,
		LockTTL:  d.Config.Search.LockTTL,
		Logger:   log,
	}
	sh.Register(api, authMW)

	ph := &PurchaseHandler{Store: d.Store, Payment: d.Config.Payment}
	ph.Register(api, authMW)

	ah := &AdminHandler{Store: d.Store, Logger: log}
	ah.Register(api.Group("/admin", authMW, runtime.RequireScopes(runtime.ScopeAdmin)))

	return e
}

// Run serves e on addr until ctx is cancelled, then drains in-flight
// requests for up to grace.
func Run(ctx context.Context, e *echo.Echo, addr string, grace time.Duration, log *zap.Logger) error {
	log = logging.OrNop(log)
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// errorHandler writes every error as {"error": msg} and logs it.
func errorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		fields := []zap.Field{
			zap.Int("status", code),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.String("remote_ip", c.RealIP()),
			zap.Error(err),
		}
		if code >= http.StatusInternalServerError {
			log.Error("request failed", fields...)
		} else {
			log.Debug("request rejected", fields...)
		}
		if !c.Response().Committed {
			if req.Method == http.MethodHead {
				_ = c.NoContent(code)
				return
			}
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}
}
