package main

import (
	"flag"
	"log"
	"os"

	"github.com/annel0/voxel-terrain/internal/app"
	"github.com/annel0/voxel-terrain/internal/config"
	"github.com/annel0/voxel-terrain/internal/export"
	"github.com/annel0/voxel-terrain/internal/logging"
	"github.com/go-gl/mathgl/mgl32"
)

func main() {
	var (
		configPath = flag.String("config", "", "путь к YAML конфигурации (по умолчанию $TERRAIN_CONFIG)")
		x          = flag.Float64("x", 0, "мировая координата x центра")
		z          = flag.Float64("z", 0, "мировая координата z центра")
		radius     = flag.Int("radius", -1, "радиус в чанках (-1: view_distance из конфигурации)")
		out        = flag.String("out", "terrain.obj", "выходной файл; суффикс .zst включает сжатие zstd")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	level, _ := logging.ParseLevel(cfg.Logging.Level)
	if err := logging.Setup("terrain-export", level, cfg.Logging.File); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	if *radius >= 0 {
		cfg.Terrain.ViewDistance = *radius
	}

	terrain, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("❌ Ошибка сборки генератора: %v", err)
	}

	recorder := export.NewRecorder()
	deps := app.ManagerDeps{Factory: recorder, Sink: recorder}
	if executor := terrain.NewExecutor(); executor != nil {
		deps.Executor = executor
		defer executor.Stop()
	}

	manager, err := terrain.NewManager(deps)
	if err != nil {
		log.Fatalf("❌ Ошибка создания менеджера стриминга: %v", err)
	}
	manager.Update(mgl32.Vec3{float32(*x), 0, float32(*z)})
	manager.Settle()

	file, err := os.Create(*out)
	if err != nil {
		log.Fatalf("❌ Ошибка создания %s: %v", *out, err)
	}
	defer file.Close()

	w, err := export.NewWriter(file, *out)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	stats, err := export.WriteOBJ(w, recorder.Chunks())
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := w.Close(); err != nil {
		log.Fatalf("❌ Ошибка завершения потока: %v", err)
	}

	logging.Info("✅ %s: %d чанков, %d вершин, %d треугольников (центр %s)",
		*out, stats.Chunks, stats.Vertices, stats.Triangles, manager.Center())
}
