package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxel-terrain/internal/api"
	"github.com/annel0/voxel-terrain/internal/app"
	"github.com/annel0/voxel-terrain/internal/config"
	"github.com/annel0/voxel-terrain/internal/export"
	"github.com/annel0/voxel-terrain/internal/logging"
	"github.com/annel0/voxel-terrain/internal/observability"
	"github.com/annel0/voxel-terrain/internal/streaming"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $TERRAIN_CONFIG)")
	flag.Parse()

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	// Инициализируем систему логирования
	level, levelErr := logging.ParseLevel(cfg.Logging.Level)
	if err := logging.Setup("terrain", level, cfg.Logging.File); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()
	if levelErr != nil {
		logging.Warn("%v, используется INFO", levelErr)
	}

	logging.Info("🌍 Запуск Voxel Terrain Server...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if endpoint := cfg.Server.GetOTLPEndpoint(); endpoint != "" {
		shutdown, err := observability.InitTelemetry(ctx, observability.ServiceName, endpoint)
		if err != nil {
			logging.Error("❌ Ошибка инициализации OpenTelemetry: %v", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// === ИНИЦИАЛИЗАЦИЯ КОМПОНЕНТОВ ===
	terrain, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("❌ Ошибка сборки генератора: %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Рендера нет: показанные поверхности держим в памяти
	surfaces := export.NewRecorder()
	deps := app.ManagerDeps{Factory: surfaces, Sink: surfaces, Registerer: registry}
	executor := terrain.NewExecutor()
	if executor != nil {
		deps.Executor = executor
		logging.Info("⚙️  Компиляция чанков в %d воркерах", cfg.Streaming.Workers)
	}

	manager, err := terrain.NewManager(deps)
	if err != nil {
		log.Fatalf("❌ Ошибка создания менеджера стриминга: %v", err)
	}

	feed := api.NewViewerFeed(mgl32.Vec3{})
	serverMetrics := api.NewServerMetrics()
	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	rest, err := api.NewRestServer(api.Config{
		Port:     restPort,
		Terrain:  manager,
		Viewer:   feed,
		Metrics:  serverMetrics,
		Registry: registry,
	})
	if err != nil {
		log.Fatalf("❌ Ошибка создания REST API: %v", err)
	}
	if err := rest.Start(); err != nil {
		log.Fatalf("❌ Ошибка запуска REST API: %v", err)
	}

	budget := streaming.FrameBudget(cfg.Streaming.FrameRate, cfg.Streaming.FrameBudgetShare)
	logging.Info("✅ Хост-цикл: %d кадров/с, бюджет стриминга %s на кадр", cfg.Streaming.FrameRate, budget)
	logging.Info("💡 curl -X POST http://localhost%s/api/viewer -d '{\"x\":64,\"y\":20,\"z\":-32}'", restPort)

	ticker := time.NewTicker(cfg.Streaming.FrameInterval())
	defer ticker.Stop()

	var seen uint64

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			pos, version := feed.Latest()
			if version != seen {
				seen = version
				logging.Debug("👁  Наблюдатель #%d: (%.1f, %.1f, %.1f)", version, pos.X(), pos.Y(), pos.Z())
			}
			start := time.Now()
			manager.Tick(pos, budget)
			serverMetrics.ObserveTick(time.Since(start), budget)
		}
	}

	// === GRACEFUL SHUTDOWN ===
	logging.Info("📡 Получен сигнал завершения, останавливаем сервисы...")

	if err := rest.Stop(context.Background()); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}

	manager.Close()
	if executor != nil {
		executor.Stop()
	}

	logging.Info("👋 Сервер успешно остановлен")
}
