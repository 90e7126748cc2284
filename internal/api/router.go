package api

import (
	"net/http"
	"time"

	"music_charts_api/internal/api/handler"
	"music_charts_api/internal/api/middleware"
	"music_charts_api/internal/app/service"
	"music_charts_api/internal/common"
	"music_charts_api/internal/common/security"
	"music_charts_api/internal/platform/config"
	"music_charts_api/internal/ws"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
)

const apiVersion = "1.0.0"

func NewRouter(
	cfg *config.Config,
	codec *security.TokenCodec,
	authService *service.AuthService,
	chartService *service.ChartService,
	feedService *service.FeedService,
	hub *ws.Hub,
	counter middleware.WindowCounter,
	logger *log.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// Parses any Bearer token into the request context; rejection happens
	// later in middleware.Authenticator.
	r.Use(jwtauth.Verifier(codec.JWTAuth()))

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		common.RespondWithJSON(w, http.StatusOK, map[string]string{
			"message": "Music Charts Tracking API",
			"version": apiVersion,
			"health":  "/health",
		})
	})
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		common.RespondWithJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "music-charts-api",
		})
	})

	// WebSocket stream lives outside the versioned prefix; it carries its
	// token as a query parameter, not an Authorization header.
	wsHandler := handler.NewWSHandler(codec, hub)
	r.Get("/ws/live-charts", wsHandler.LiveCharts)

	r.Route("/api/v1", func(v1 chi.Router) {
		if counter != nil {
			v1.Use(middleware.RateLimit(counter, cfg.RateLimitRequests, cfg.RateLimitPeriod, logger))
		}

		authHandler := handler.NewAuthHandler(authService)
		v1.Route("/auth", authHandler.RegisterRoutes)

		chartHandler := handler.NewChartHandler(chartService)
		v1.Route("/charts", chartHandler.RegisterRoutes)

		trendHandler := handler.NewTrendHandler(chartService)
		v1.Route("/trends", trendHandler.RegisterRoutes)

		syncHandler := handler.NewSyncHandler(feedService, chartService)
		v1.Route("/sync", syncHandler.RegisterRoutes)
	})

	return r
}
