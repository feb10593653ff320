package main

import (
	"context"
	"net/http"
	"time"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/client"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/config"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/csvsource"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/handler"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/metrics"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/middleware"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/session"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/viewmodel"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/websocket"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func runServe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("serve")
	port := fs.String("port", cfg.Port, "listen port")
	if err := fs.Parse(args); err != nil {
		return err
	}

	recorder := metrics.NewPrometheusRecorder(prometheus.DefaultRegisterer)
	api := newClient(cfg, client.WithRecorder(recorder))

	// WebSocket hub
	hub := websocket.NewHub()

	// Each session gets its own view model bound to its own credential
	factory := func(sessionID string, cred session.Credential) *viewmodel.DashboardViewModel {
		return viewmodel.New(api.WithCredential(cred),
			viewmodel.WithPublisher(hub, sessionID),
			viewmodel.WithRecorder(recorder),
			viewmodel.WithLogger(log.With().Str("session_id", sessionID).Logger()),
		)
	}
	store := session.NewStore(factory,
		session.WithOnClose(hub.CloseSession),
		session.WithStoreRecorder(recorder),
	)
	store.StartCleanup()
	defer store.Stop()

	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	defer rateLimiter.Stop()

	authMiddleware := middleware.NewAuthMiddleware(store)

	// Server-side statement imports need a configured bucket
	var statements csvsource.Source
	if cfg.S3.Bucket != "" {
		s3Source, err := csvsource.NewS3Source(ctx, cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 statement source")
		}
		statements = s3Source
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Statement imports enabled")
	} else {
		log.Warn().Msg("S3_BUCKET not set, statement imports from storage disabled")
	}

	// Initialize handlers
	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(api, store),
		Dashboard:   handler.NewDashboardHandler(),
		Account:     handler.NewAccountHandler(),
		Transaction: handler.NewTransactionHandler(statements),
		Budget:      handler.NewBudgetHandler(),
		Category:    handler.NewCategoryHandler(),
		Bill:        handler.NewBillHandler(),
	}
	wsHandler := handler.NewWebSocketHandler(hub, store, cfg.CORSOrigins)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.SessionHeader},
		ExposeHeaders:    []string{handler.StaleViewHeader, "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"sessions":  store.Len(),
			"wsClients": hub.TotalClientCount(),
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/ws", wsHandler.HandleWS)

	// API documentation
	if !cfg.IsProduction() {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
		e.GET("/api/v1/openapi.json", handler.ServeOpenAPI3Spec)
	}

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, handlers)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", *port).Str("api", cfg.APIBaseURL).Msg("Starting server")
		if err := e.Start(":" + *port); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown
	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error().Err(err).Msg("Server failed")
		return err
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return err
	}

	log.Info().Msg("Server exited")
	return nil
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			event := log.Info()
			if res.Status >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Str("session_id", middleware.GetSessionID(c).String()).
				Msg("request")

			return nil
		}
	}
}
