package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"home-energy/auth"
	"home-energy/cache"
	"home-energy/confs"
	"home-energy/db"
	"home-energy/handlers"
	httpHandler "home-energy/handlers/http"
	"home-energy/insights"
	"home-energy/occupancy"
	"home-energy/repositories"
	"home-energy/services"
	"home-energy/usecases"
	"home-energy/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	app *gin.Engine
	cfg *confs.Config
	log *zap.Logger

	occupancy *usecases.OccupancyUseCase
	scheduler *services.HourlyScheduler
}

// NewServer builds the use cases over database and registers every route.
// generator may be nil, in which case insights carry the fallback text.
func NewServer(cfg *confs.Config, database db.Database, generator insights.TextGenerator, log *zap.Logger) *Server {
	s := &Server{
		app: gin.Default(),
		cfg: cfg,
		log: log.Named("server"),
	}

	// Setup CORS middleware
	config := cors.DefaultConfig()
	if origins := cfg.Server.AllowedOrigins(); len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	s.app.Use(cors.New(config))

	// Setup healthcheck route
	s.app.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "OK",
		})
	})
	s.app.GET("/metrics", gin.WrapH(promhttp.Handler()))

	store := repositories.NewStore(database)
	clock := usecases.SystemClock{}
	manager := ws.NewManager(log)
	textCache := cache.NewTextCache(cfg.LLM.CacheTTL)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Initialize use cases
	deviceUseCase := usecases.NewDeviceUseCase(store, clock, manager, log)
	s.occupancy = usecases.NewOccupancyUseCase(store, clock, manager, log)
	energyUseCase := usecases.NewEnergyUseCase(store, clock, manager, log)
	dashboardUseCase := usecases.NewDashboardUseCase(store, clock)
	insightUseCase := usecases.NewInsightUseCase(store, clock, generator, textCache, log)
	adminUseCase := usecases.NewAdminUseCase(store, clock, log)
	authUseCase := usecases.NewAuthUseCase(store, tokens, log)

	s.scheduler = services.NewHourlyScheduler(energyUseCase, cfg.Scheduler.HourlySpec, log)
	simulator := occupancy.NewSimulator(s.occupancy, s.occupancy, occupancy.NewRandomSource(uint64(time.Now().UnixNano())), log)

	// Initialize handlers
	authHandler := httpHandler.NewAuthHandler(authUseCase)
	deviceHandler := httpHandler.NewDeviceHandler(deviceUseCase)
	occupancyHandler := httpHandler.NewOccupancyHandler(s.occupancy, simulator)
	dashboardHandler := httpHandler.NewDashboardHandler(dashboardUseCase)
	energyHandler := httpHandler.NewEnergyHandler(energyUseCase)
	insightHandler := httpHandler.NewInsightHandler(insightUseCase)
	adminHandler := httpHandler.NewAdminHandler(adminUseCase)
	wsHandler := handlers.NewWSHandler(manager, log)
	cacheHandler := handlers.NewCacheHandler(insightUseCase, textCache, s.scheduler)

	api := s.app.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.GET("/me", authHandler.RequireAuth(), authHandler.Me)
		}

		protected := api.Group("", authHandler.RequireAuth())

		rooms := protected.Group("/rooms")
		{
			rooms.POST("", deviceHandler.CreateRoom)
			rooms.GET("", deviceHandler.GetAllRooms)
			rooms.DELETE("/:id", deviceHandler.DeleteRoom)
		}

		devices := protected.Group("/devices")
		{
			devices.POST("", deviceHandler.CreateDevice)
			devices.GET("", deviceHandler.GetAllDevices)
			devices.GET("/:id", deviceHandler.GetDevice)
			devices.PUT("/:id/state", deviceHandler.SetDeviceState)
			devices.DELETE("/:id", deviceHandler.DeleteDevice)
		}

		protected.POST("/occupancy/update", occupancyHandler.UpdateOccupancy)
		protected.POST("/simulate-occupancy", occupancyHandler.SimulateOccupancy)

		dashboard := protected.Group("/dashboard")
		{
			dashboard.GET("/stats", dashboardHandler.GetStats)
			dashboard.GET("/energy-trend", dashboardHandler.GetEnergyTrend)
			dashboard.GET("/room-consumption", dashboardHandler.GetRoomPowerUsage)
		}

		consumption := protected.Group("/consumption")
		{
			consumption.GET("/hourly", dashboardHandler.GetHourlyConsumption)
			consumption.GET("/room/:id", dashboardHandler.GetRoomConsumption)
			consumption.GET("/export", dashboardHandler.ExportConsumption)
		}

		energy := protected.Group("/energy")
		{
			energy.POST("/integrate", energyHandler.Integrate)
			energy.GET("/scheduler", cacheHandler.GetSchedulerStats)
		}

		ai := protected.Group("/ai")
		{
			ai.GET("/predictions", insightHandler.GetPredictions)
			ai.GET("/anomalies", insightHandler.GetAnomalies)
			ai.GET("/cost-estimation", insightHandler.GetCostEstimation)
			ai.GET("/recommendations", insightHandler.GetRecommendations)
			ai.GET("/cache/stats", cacheHandler.GetCacheStats)
			ai.DELETE("/cache", cacheHandler.ClearCache)
		}

		admin := protected.Group("/admin")
		{
			admin.POST("/generate-sample-data", adminHandler.GenerateSampleData)
			admin.DELETE("/hourly-records", adminHandler.ResetHourlyRecords)
		}

		protected.GET("/ws/clients", wsHandler.GetConnectedClients)
	}

	s.app.GET("/ws", authHandler.RequireAuth(), wsHandler.HandleDashboardWS)

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.app }

// Occupancy is the controller other ingest paths report into.
func (s *Server) Occupancy() *usecases.OccupancyUseCase { return s.occupancy }

// Start runs the hourly scheduler (when enabled) and serves HTTP until ctx
// is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.Scheduler.Enabled {
		if err := s.scheduler.Start(ctx); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
