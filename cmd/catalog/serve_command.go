package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/alldopamine/catalog/internal/interface/rest"
	"github.com/alldopamine/catalog/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return ctx.withApp(runCtx, func(a *app) error {
				if a.config.Server.EnableTrace {
					shutdown, err := setupTracing(runCtx, a.config.Server.TraceEndpoint)
					if err != nil {
						return err
					}
					defer func() {
						flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
						defer cancel()
						shutdown(flushCtx)
					}()
				}

				e := echo.New()
				e.HideBanner = true
				e.Use(middleware.Recover())
				e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
					LogMethod: true,
					LogURI:    true,
					LogStatus: true,
					LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
						a.logger.Info("request",
							logging.String("method", v.Method),
							logging.String("uri", v.URI),
							logging.Int("status", v.Status),
						)
						return nil
					},
				}))
				if a.config.Server.EnableTrace {
					e.Use(otelecho.Middleware(serviceName))
				}

				handler := rest.NewHandler(a.ingest, a.source, a.integration, a.configs, a.mapping, a.maintenance, a.auth)
				handler.RegisterRoutes(e)

				errCh := make(chan error, 1)
				go func() {
					a.logger.Info("admin server listening", logging.String("listen", a.config.Server.Listen))
					if err := e.Start(a.config.Server.Listen); err != nil && err != http.ErrServerClosed {
						errCh <- err
					}
					close(errCh)
				}()

				select {
				case err := <-errCh:
					return err
				case <-runCtx.Done():
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return e.Shutdown(shutdownCtx)
			})
		},
	}
}
