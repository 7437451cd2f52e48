package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/annel0/voxel-terrain/internal/logging"
	"github.com/annel0/voxel-terrain/internal/middleware"
	"github.com/annel0/voxel-terrain/internal/streaming"
	"github.com/gin-gonic/gin"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// SnapshotSource источник снимков состояния стриминга.
// Реализуется streaming.Manager; вызывается из горутин HTTP сервера.
type SnapshotSource interface {
	Snapshot() *streaming.Snapshot
}

// RestServer представляет REST API сервер отладки и мониторинга террейна
type RestServer struct {
	router     *gin.Engine
	terrain    SnapshotSource
	viewer     *ViewerFeed
	port       string
	metrics    *ServerMetrics
	logger     *logging.Logger
	httpServer *http.Server
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port     string               // порт для запуска сервера
	Terrain  SnapshotSource       // снимки менеджера стриминга
	Viewer   *ViewerFeed          // приёмник позиции наблюдателя; nil отключает POST /api/viewer
	Metrics  *ServerMetrics       // nil: создаётся новый
	Registry *prometheus.Registry // реестр для HTTP-метрик и /metrics
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ViewerRequest позиция наблюдателя в мировых координатах
type ViewerRequest struct {
	X *float32 `json:"x" binding:"required"`
	Y float32  `json:"y"`
	Z *float32 `json:"z" binding:"required"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) (*RestServer, error) {
	if config.Terrain == nil {
		return nil, fmt.Errorf("REST серверу нужен источник снимков террейна")
	}
	if config.Port == "" {
		config.Port = ":8088"
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	if config.Metrics == nil {
		config.Metrics = NewServerMetrics()
	}

	// Устанавливаем режим релиза для gin
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	logger := logging.GetAPILogger()

	// === Observability middleware ===
	router.Use(otelgin.Middleware("terrain_api"))

	loggerMw := middleware.NewRequestLogger(logger)
	router.Use(loggerMw.Handler())

	promMw, err := middleware.NewPrometheusMiddleware("terrain_api", config.Registry, config.Registry)
	if err != nil {
		return nil, fmt.Errorf("регистрация HTTP-метрик: %w", err)
	}
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:  router,
		terrain: config.Terrain,
		viewer:  config.Viewer,
		port:    config.Port,
		metrics: config.Metrics,
		logger:  logger,
	}

	// Настраиваем маршруты
	server.setupRoutes()

	return server, nil
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	api := rs.router.Group("/api")
	{
		api.GET("/server", rs.handleServerInfo)
		api.GET("/terrain", rs.handleTerrain)
		api.GET("/terrain/chunks", rs.handleChunks)
		api.POST("/viewer", rs.handleViewer)
	}

	// Health check
	rs.router.GET("/health", rs.handleHealth)
}

// Handler возвращает http.Handler (используется в тестах)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// handleServerInfo возвращает информацию о процессе
func (rs *RestServer) handleServerInfo(c *gin.Context) {
	memoryMB, _ := rs.metrics.GetMemoryUsage()
	cpuPercent, _ := rs.metrics.GetCPUUsage()
	ticks := rs.metrics.TickStats()

	info := map[string]interface{}{
		"name":        "Voxel Terrain Server",
		"status":      "running",
		"uptime":      rs.metrics.GetUptime(),
		"memory_mb":   fmt.Sprintf("%.1f", memoryMB),
		"cpu_percent": fmt.Sprintf("%.1f", cpuPercent),
		"ticks":       ticks,
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Информация о сервере",
		Data:    info,
	})
}

// handleTerrain возвращает сводку стриминга без списка чанков
func (rs *RestServer) handleTerrain(c *gin.Context) {
	snap := rs.terrain.Snapshot()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{
			Success: false,
			Message: "Стриминг ещё не запущен",
		})
		return
	}

	data := gin.H{
		"state":        snap.State,
		"center":       snap.Center,
		"active_count": len(snap.Active),
		"pending":      snap.Pending,
		"in_flight":    snap.InFlight,
		"workers_busy": snap.Workers,
		"pool":         snap.Pool,
		"cycles":       snap.Cycles,
		"interrupts":   snap.Interrupts,
		"updated_at":   snap.UpdatedAt,
	}
	if rs.viewer != nil {
		pos, version := rs.viewer.Latest()
		data["viewer"] = gin.H{"position": pos, "version": version}
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Состояние стриминга",
		Data:    data,
	})
}

// handleChunks возвращает активные координаты, упорядоченные по x, затем z
func (rs *RestServer) handleChunks(c *gin.Context) {
	snap := rs.terrain.Snapshot()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{
			Success: false,
			Message: "Стриминг ещё не запущен",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Активные чанки",
		Data: gin.H{
			"chunks": snap.Active,
			"total":  len(snap.Active),
		},
	})
}

// handleViewer принимает позицию наблюдателя для хост-цикла
func (rs *RestServer) handleViewer(c *gin.Context) {
	if rs.viewer == nil {
		c.JSON(http.StatusNotImplemented, GenericResponse{
			Success: false,
			Message: "Управление наблюдателем отключено",
		})
		return
	}

	var req ViewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса: " + err.Error(),
		})
		return
	}

	pos := mgl32.Vec3{*req.X, req.Y, *req.Z}
	rs.viewer.Set(pos)
	rs.logger.Debug("наблюдатель перемещён в (%.1f, %.1f, %.1f)", pos.X(), pos.Y(), pos.Z())

	c.JSON(http.StatusAccepted, GenericResponse{
		Success: true,
		Message: "Позиция принята",
		Data:    gin.H{"x": pos.X(), "y": pos.Y(), "z": pos.Z()},
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Start запускает REST сервер в отдельной горутине
func (rs *RestServer) Start() error {
	rs.httpServer = &http.Server{
		Addr:    rs.port,
		Handler: rs.router,
	}

	go func() {
		if err := rs.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			rs.logger.Error("❌ Ошибка REST API сервера: %v", err)
		}
	}()

	rs.logger.Info("✅ REST API сервер запущен на http://localhost%s", rs.port)
	rs.logger.Info("📋 Доступные эндпоинты:")
	rs.logger.Info("   GET  /health              - Проверка состояния")
	rs.logger.Info("   GET  /api/server          - Информация о процессе")
	rs.logger.Info("   GET  /api/terrain         - Состояние стриминга")
	rs.logger.Info("   GET  /api/terrain/chunks  - Активные чанки")
	rs.logger.Info("   POST /api/viewer          - Позиция наблюдателя")
	rs.logger.Info("   GET  /metrics             - Prometheus метрики")
	return nil
}

// Stop останавливает REST сервер с таймаутом
func (rs *RestServer) Stop(ctx context.Context) error {
	if rs.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := rs.httpServer.Shutdown(ctx); err != nil {
		rs.logger.Error("❌ Ошибка при остановке HTTP сервера: %v", err)
		return err
	}
	return nil
}
