package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/annel0/voxel-terrain/internal/util"
	"github.com/annel0/voxel-terrain/internal/world"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// ErrInvalid конфигурация не прошла проверку
var ErrInvalid = errors.New("некорректная конфигурация")

// Config корневая структура конфигурации приложения
type Config struct {
	Terrain   TerrainConfig   `yaml:"terrain"`
	Streaming StreamingConfig `yaml:"streaming"`
	Blocks    BlocksConfig    `yaml:"blocks"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// TerrainConfig размеры чанков и параметры рельефа
type TerrainConfig struct {
	ChunkSize    int         `yaml:"chunk_size"`
	ChunkHeight  int         `yaml:"chunk_height"`
	ViewDistance int         `yaml:"view_distance"`
	Seed         int64       `yaml:"seed"`
	WaterLevel   int         `yaml:"water_level"`
	SnowAbove    int         `yaml:"snow_above"`
	GrassAbove   int         `yaml:"grass_above"`
	Noise        NoiseConfig `yaml:"noise"`
}

type NoiseConfig struct {
	Frequency float64 `yaml:"frequency"`
	Alpha     float64 `yaml:"alpha"`
	Beta      float64 `yaml:"beta"`
	Octaves   int32   `yaml:"octaves"`
}

// StreamingConfig пул и бюджет кадра.
// Workers == 0 означает кооперативную генерацию в управляющем потоке.
type StreamingConfig struct {
	PoolCapacity     int     `yaml:"pool_capacity"`
	Workers          int     `yaml:"workers"`
	FrameRate        int     `yaml:"frame_rate"`
	FrameBudgetShare float64 `yaml:"frame_budget_share"`
}

// BlocksConfig атлас и описания блоков. Пустой список означает таблицу по умолчанию.
// TileSize задаёт долю атласа на один тайл по x и y.
type BlocksConfig struct {
	TileSize    [2]float32    `yaml:"tile_size"`
	Definitions []BlockConfig `yaml:"definitions"`
}

type BlockConfig struct {
	Type        string `yaml:"type"`
	TileTop     [2]int `yaml:"tile_top"`
	TileSides   [2]int `yaml:"tile_sides"`
	TileBottom  [2]int `yaml:"tile_bottom"`
	Solid       bool   `yaml:"solid"`
	Transparent bool   `yaml:"transparent"`
	Layer       int    `yaml:"layer"`
}

type ServerConfig struct {
	RESTPort     int    `yaml:"rest_port"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  bool   `yaml:"file"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	noise := util.DefaultNoiseParams()
	return &Config{
		Terrain: TerrainConfig{
			ChunkSize:    16,
			ChunkHeight:  48,
			ViewDistance: 5,
			Seed:         1336,
			WaterLevel:   world.DefaultWaterLevel,
			SnowAbove:    world.DefaultSnowAbove,
			GrassAbove:   world.DefaultGrassAbove,
			Noise: NoiseConfig{
				Frequency: noise.Frequency,
				Alpha:     noise.Alpha,
				Beta:      noise.Beta,
				Octaves:   noise.Octaves,
			},
		},
		Streaming: StreamingConfig{
			PoolCapacity:     150,
			Workers:          0,
			FrameRate:        30,
			FrameBudgetShare: 0.2,
		},
		Blocks: BlocksConfig{
			TileSize: [2]float32{1.0 / 16.0, 1.0 / 16.0},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "TERRAIN_REST_PORT", 8088)
}

// GetOTLPEndpoint адрес OTLP коллектора: config -> env -> пусто (трассировка выключена)
func (s *ServerConfig) GetOTLPEndpoint() string {
	if s.OTLPEndpoint != "" {
		return s.OTLPEndpoint
	}
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", берётся ENV TERRAIN_CONFIG; если и он пуст, возвращается Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("TERRAIN_CONFIG")
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	return Parse(data)
}

// Parse разбирает YAML; незаданные поля берутся из Default()
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	t := c.Terrain
	switch {
	case t.ChunkSize <= 0:
		return fmt.Errorf("%w: chunk_size = %d", ErrInvalid, t.ChunkSize)
	case t.ChunkHeight <= 0:
		return fmt.Errorf("%w: chunk_height = %d", ErrInvalid, t.ChunkHeight)
	case t.ViewDistance < 0:
		return fmt.Errorf("%w: view_distance = %d", ErrInvalid, t.ViewDistance)
	case t.GrassAbove > t.SnowAbove:
		return fmt.Errorf("%w: grass_above (%d) выше snow_above (%d)", ErrInvalid, t.GrassAbove, t.SnowAbove)
	case t.Noise.Octaves <= 0:
		return fmt.Errorf("%w: noise.octaves = %d", ErrInvalid, t.Noise.Octaves)
	}

	s := c.Streaming
	switch {
	case s.PoolCapacity <= 0:
		return fmt.Errorf("%w: pool_capacity = %d", ErrInvalid, s.PoolCapacity)
	case s.Workers < 0:
		return fmt.Errorf("%w: workers = %d", ErrInvalid, s.Workers)
	case s.FrameRate <= 0:
		return fmt.Errorf("%w: frame_rate = %d", ErrInvalid, s.FrameRate)
	case s.FrameBudgetShare <= 0 || s.FrameBudgetShare > 1:
		return fmt.Errorf("%w: frame_budget_share = %v", ErrInvalid, s.FrameBudgetShare)
	}

	if c.Blocks.TileSize[0] <= 0 || c.Blocks.TileSize[1] <= 0 {
		return fmt.Errorf("%w: tile_size = %v", ErrInvalid, c.Blocks.TileSize)
	}
	if _, err := c.BlockTypeConfigs(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// NoiseParams параметры шума для util.NewPerlinSource
func (c *Config) NoiseParams() util.NoiseParams {
	return util.NoiseParams{
		Alpha:     c.Terrain.Noise.Alpha,
		Beta:      c.Terrain.Noise.Beta,
		Octaves:   c.Terrain.Noise.Octaves,
		Frequency: c.Terrain.Noise.Frequency,
	}
}

// Tile возвращает размер тайла атласа в UV-координатах
func (b BlocksConfig) Tile() mgl32.Vec2 {
	return mgl32.Vec2{b.TileSize[0], b.TileSize[1]}
}

// Classifier классификатор блоков с порогами из конфигурации
func (c *Config) Classifier() world.Classifier {
	return world.Classifier{
		ChunkHeight: c.Terrain.ChunkHeight,
		WaterLevel:  c.Terrain.WaterLevel,
		GrassAbove:  c.Terrain.GrassAbove,
		SnowAbove:   c.Terrain.SnowAbove,
	}
}

// BlockTypeConfigs переводит описания блоков в world.BlockTypeConfig и проверяет
// их реестром. Без описаний возвращается world.DefaultBlocks().
func (c *Config) BlockTypeConfigs() ([]world.BlockTypeConfig, error) {
	if len(c.Blocks.Definitions) == 0 {
		return world.DefaultBlocks(), nil
	}

	out := make([]world.BlockTypeConfig, 0, len(c.Blocks.Definitions))
	for _, def := range c.Blocks.Definitions {
		bt, err := world.ParseBlockType(def.Type)
		if err != nil {
			return nil, err
		}
		out = append(out, world.BlockTypeConfig{
			Type:        bt,
			TileTop:     world.Tile{X: def.TileTop[0], Y: def.TileTop[1]},
			TileSides:   world.Tile{X: def.TileSides[0], Y: def.TileSides[1]},
			TileBottom:  world.Tile{X: def.TileBottom[0], Y: def.TileBottom[1]},
			Solid:       def.Solid,
			Transparent: def.Transparent,
			Layer:       def.Layer,
		})
	}

	if _, err := world.NewBlockRegistry(out); err != nil {
		return nil, err
	}
	return out, nil
}

// FrameInterval длительность одного кадра хост-цикла
func (s StreamingConfig) FrameInterval() time.Duration {
	return time.Second / time.Duration(s.FrameRate)
}
