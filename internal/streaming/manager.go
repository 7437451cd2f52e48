package streaming

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/annel0/voxel-terrain/internal/logging"
	"github.com/annel0/voxel-terrain/internal/mesh"
	"github.com/annel0/voxel-terrain/internal/pool"
	"github.com/annel0/voxel-terrain/internal/util"
	"github.com/annel0/voxel-terrain/internal/vec"
	"github.com/annel0/voxel-terrain/internal/world"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotActive чанк по координате не загружен
var ErrNotActive = errors.New("чанк не активен")

// DefaultMaxInFlight сколько чанков одновременно компилируется в воркерах
const DefaultMaxInFlight = 8

const tracerName = "github.com/annel0/voxel-terrain/internal/streaming"

// Options размеры окна и пула
type Options struct {
	ChunkSize    int // Длина ребра чанка в блоках
	ViewDistance int // Радиус окна загрузки в чанках
	PoolCapacity int
	MaxInFlight  int // Только вместе с Executor; 0 означает DefaultMaxInFlight
}

// Deps внешние зависимости менеджера
type Deps struct {
	Compiler   *mesh.Compiler
	Noise      util.NoiseSource
	Factory    ResourceFactory
	Sink       SurfaceSink
	Executor   Executor              // nil: компиляция по шагам в управляющем потоке
	Registerer prometheus.Registerer // nil: метрики не регистрируются
	Tracer     trace.Tracer          // nil: глобальный otel TracerProvider
}

// generation генерация одного чанка от выдачи контейнера до активации
type generation struct {
	coord     vec.Vec2
	container *ChunkContainer
	job       *mesh.CompileJob
	set       *mesh.ChunkMeshSet
	err       error
	done      chan struct{}
	span      trace.Span
	elapsed   time.Duration
	prev      *mesh.ChunkMeshSet // Поверхности до перестройки
}

// Manager держит набор активных чанков вокруг наблюдателя.
//
// Все методы, кроме Snapshot, вызываются из одного управляющего потока:
// карта активных чанков и стек пула меняются только здесь, воркеры
// получают лишь координату и возвращают готовый ChunkMeshSet.
type Manager struct {
	opts     Options
	compiler *mesh.Compiler
	noise    util.NoiseSource
	factory  ResourceFactory
	sink     SurfaceSink
	executor Executor
	tracer   trace.Tracer
	metrics  *Metrics
	logger   *logging.Logger

	pool   *pool.StackPool[*ChunkContainer]
	active map[vec.Vec2]*ChunkContainer

	state       State
	started     bool
	center      vec.Vec2
	target      vec.Vec2
	hasTarget   bool
	interrupted bool

	plan     Plan
	next     int
	current  *generation   // Кооперативный режим
	inflight []*generation // Режим с воркерами, в порядке постановки
	rebuilds []*generation // Перестройки активных чанков в воркерах

	cycleCtx  context.Context
	cycleSpan trace.Span

	cycles     uint64
	interrupts uint64

	snapshot atomic.Pointer[Snapshot]
}

// NewManager создаёт менеджер и пул контейнеров
func NewManager(opts Options, deps Deps) (*Manager, error) {
	if opts.ChunkSize <= 0 {
		return nil, fmt.Errorf("некорректный размер чанка: %d", opts.ChunkSize)
	}
	if opts.ViewDistance < 0 {
		return nil, fmt.Errorf("некорректная дальность прорисовки: %d", opts.ViewDistance)
	}
	if deps.Compiler == nil || deps.Noise == nil {
		return nil, fmt.Errorf("менеджеру нужны компилятор и источник шума")
	}
	if deps.Factory == nil || deps.Sink == nil {
		return nil, fmt.Errorf("менеджеру нужны фабрика ресурсов и приёмник поверхностей")
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = DefaultMaxInFlight
	}

	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	metrics, err := NewMetrics(deps.Registerer)
	if err != nil {
		return nil, fmt.Errorf("регистрация метрик: %w", err)
	}

	m := &Manager{
		opts:     opts,
		compiler: deps.Compiler,
		noise:    deps.Noise,
		factory:  deps.Factory,
		sink:     deps.Sink,
		executor: deps.Executor,
		tracer:   tracer,
		metrics:  metrics,
		logger:   logging.GetStreamingLogger(),
		active:   make(map[vec.Vec2]*ChunkContainer),
		cycleCtx: context.Background(),
	}

	m.pool, err = pool.New("chunks", opts.PoolCapacity, pool.Hooks[*ChunkContainer]{
		Create:    m.createContainer,
		OnGet:     m.attachContainer,
		OnRelease: m.detachContainer,
		Destroy:   m.destroyContainer,
	})
	if err != nil {
		return nil, err
	}

	m.publish()
	return m, nil
}

// Хуки пула

func (m *Manager) createContainer() (*ChunkContainer, error) {
	res, err := m.factory.Instantiate()
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	return newContainer(res), nil
}

func (m *Manager) attachContainer(c *ChunkContainer) {
	m.factory.Attach(c.Resource)
}

func (m *Manager) detachContainer(c *ChunkContainer) {
	m.sink.Hide(c.Resource)
	m.factory.Detach(c.Resource)
	c.Reset()
}

func (m *Manager) destroyContainer(c *ChunkContainer) error {
	m.sink.Hide(c.Resource)
	c.Reset()
	return m.factory.Destroy(c.Resource)
}

// Update передаёт позицию наблюдателя; y игнорируется.
// Смена чанка под наблюдателем запускает цикл, а во время цикла помечает его прерванным.
func (m *Manager) Update(viewer mgl32.Vec3) {
	coord := vec.ChunkOrigin(viewer.X(), viewer.Z(), m.opts.ChunkSize)
	if m.hasTarget && coord == m.target {
		return
	}
	m.target = coord
	m.hasTarget = true

	if m.state == StateIdle {
		if !m.started || coord != m.center {
			m.state = StateDiffing
		}
	} else if coord != m.center && !m.interrupted {
		m.interrupted = true
		m.logger.Debug("цикл #%d: центр сменился на %s, прерываем", m.cycles, coord)
	}
	m.publish()
}

// Step выполняет одну единицу работы: сравнение окон, выгрузку,
// активацию одного чанка или перезапуск прерванного цикла.
// Нулевой deadline снимает ограничение по времени внутри компиляции.
// Возвращает true, если цикл ещё не завершён.
func (m *Manager) Step(deadline time.Time) bool {
	if m.state == StateIdle {
		if len(m.rebuilds) == 0 {
			return false
		}
		m.collectRebuilds(deadline, true)
		m.publish()
		return len(m.rebuilds) > 0
	}

	m.collectRebuilds(deadline, false)
	switch m.state {
	case StateDiffing:
		m.diff()
	case StateEvicting:
		m.evict()
	case StateGenerating:
		if m.executor != nil {
			m.stepAsync(deadline)
		} else {
			m.stepCooperative(deadline)
		}
	case StateInterrupted:
		m.restart()
	}

	m.publish()
	return m.state != StateIdle || len(m.rebuilds) > 0
}

// Tick обновляет позицию и выполняет шаги, пока не исчерпан бюджет кадра.
// Хотя бы один шаг выполняется всегда.
func (m *Manager) Tick(viewer mgl32.Vec3, budget time.Duration) {
	m.Update(viewer)
	deadline := time.Now().Add(budget)
	for m.Step(deadline) && time.Now().Before(deadline) {
	}
}

// Settle доводит текущий цикл до конца без ограничения по времени
func (m *Manager) Settle() {
	for m.Step(time.Time{}) {
	}
}

func (m *Manager) diff() {
	m.center = m.target
	m.started = true
	m.interrupted = false
	m.plan = Diff(m.active, m.center, m.opts.ViewDistance, m.opts.ChunkSize)
	m.next = 0

	m.cycles++
	m.metrics.Cycles.Inc()
	m.cycleCtx, m.cycleSpan = m.tracer.Start(context.Background(), "streaming.cycle",
		trace.WithAttributes(
			attribute.Int("center.x", m.center.X),
			attribute.Int("center.z", m.center.Z),
			attribute.Int("evict", len(m.plan.Evict)),
			attribute.Int("pending", len(m.plan.Pending)),
		))

	m.logger.Debug("цикл #%d: центр %s, выгрузить %d, сгенерировать %d",
		m.cycles, m.center, len(m.plan.Evict), len(m.plan.Pending))
	m.state = StateEvicting
}

// evict выгружает всё, что вышло за внешнее окно, до начала генерации
func (m *Manager) evict() {
	for _, coord := range m.plan.Evict {
		c, ok := m.active[coord]
		if !ok {
			continue
		}
		delete(m.active, coord)
		m.pool.Release(c)
		m.metrics.Evicted.Inc()
	}
	m.plan.Evict = nil
	m.state = StateGenerating
}

func (m *Manager) stepCooperative(deadline time.Time) {
	if m.current == nil {
		// Прерывание проверяется только между чанками
		if m.interrupted {
			m.state = StateInterrupted
			return
		}
		g := m.beginNext()
		if g == nil {
			m.finishCycle()
			return
		}

		// Время карты высот входит в compile_seconds, как и в режиме с воркерами
		start := time.Now()
		hm, err := world.BuildHeightmap(m.noise, g.coord, m.opts.ChunkSize, m.chunkHeight())
		if err != nil {
			m.fail(g.coord, g.container, g.span, fmt.Errorf("карта высот: %w", err))
			return
		}
		g.job = m.compiler.NewJob(hm)
		g.elapsed = time.Since(start)
		m.current = g
	}

	g := m.current
	start := time.Now()
	more := g.job.Step(deadline)
	g.elapsed += time.Since(start)
	if more {
		return
	}

	m.current = nil
	g.set = g.job.Result()
	m.activate(g)
}

func (m *Manager) stepAsync(deadline time.Time) {
	for !m.interrupted && len(m.inflight) < m.opts.MaxInFlight {
		g := m.beginNext()
		if g == nil {
			break
		}
		m.submit(g)
	}

	if len(m.inflight) == 0 {
		if m.interrupted {
			m.state = StateInterrupted
		} else {
			m.finishCycle()
		}
		return
	}

	// Активируем строго в порядке постановки, то есть от ближних к дальним
	head := m.inflight[0]
	if !waitDone(head.done, deadline) {
		return
	}
	m.inflight[0] = nil
	m.inflight = m.inflight[1:]
	m.activate(head)
}

func (m *Manager) submit(g *generation) {
	m.inflight = append(m.inflight, g)
	m.run(g)
}

// run компилирует чанк в воркере; результат забирает управляющий поток по g.done
func (m *Manager) run(g *generation) {
	coord := g.coord
	m.executor.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				g.err = fmt.Errorf("паника при компиляции %s: %v", coord, r)
			}
			close(g.done)
		}()
		start := time.Now()
		g.set, g.err = m.compile(coord)
		g.elapsed = time.Since(start)
	})
}

// compile строит карту высот и меши; не трогает состояние менеджера
func (m *Manager) compile(coord vec.Vec2) (*mesh.ChunkMeshSet, error) {
	hm, err := world.BuildHeightmap(m.noise, coord, m.opts.ChunkSize, m.chunkHeight())
	if err != nil {
		return nil, fmt.Errorf("карта высот: %w", err)
	}
	return m.compiler.Compile(hm), nil
}

func waitDone(done <-chan struct{}, deadline time.Time) bool {
	if deadline.IsZero() {
		<-done
		return true
	}

	wait := time.Until(deadline)
	if wait <= 0 {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// beginNext берёт следующую координату из плана и привязывает к ней контейнер.
// Координаты, для которых контейнер получить не удалось, пропускаются.
func (m *Manager) beginNext() *generation {
	for m.next < len(m.plan.Pending) {
		coord := m.plan.Pending[m.next]
		m.next++
		if _, ok := m.active[coord]; ok {
			continue
		}

		c, err := m.pool.Acquire()
		if err != nil {
			m.fail(coord, nil, nil, err)
			continue
		}
		if err := c.BeginGeneration(coord); err != nil {
			m.logger.Warn("контейнер %s для %s: %v", c.ID, coord, err)
			m.fail(coord, c, nil, err)
			continue
		}

		_, span := m.tracer.Start(m.cycleCtx, "streaming.compile",
			trace.WithAttributes(attribute.Int("chunk.x", coord.X), attribute.Int("chunk.z", coord.Z)))
		return &generation{coord: coord, container: c, span: span, done: make(chan struct{})}
	}
	return nil
}

// activate делает чанк видимым; вызывается только после полной компиляции
func (m *Manager) activate(g *generation) {
	if g.err == nil && g.set == nil {
		g.err = errors.New("компиляция не вернула результат")
	}
	if g.err != nil {
		m.fail(g.coord, g.container, g.span, g.err)
		return
	}

	c := g.container
	if err := m.sink.Apply(c.Resource, g.coord, g.set); err != nil {
		m.fail(g.coord, c, g.span, fmt.Errorf("активация: %w", err))
		return
	}
	c.Activate(g.set)
	m.active[g.coord] = c

	m.metrics.Generated.Inc()
	m.metrics.CompileSeconds.Observe(g.elapsed.Seconds())
	g.span.SetAttributes(attribute.Int("voxels", g.set.Voxels))
	g.span.End()
	m.logger.Trace("чанк %s активирован: %d вокселей за %s", g.coord, g.set.Voxels, g.elapsed)
}

// fail пропускает чанк: цикл продолжается со следующей координаты
func (m *Manager) fail(coord vec.Vec2, c *ChunkContainer, span trace.Span, err error) {
	m.metrics.Failures.Inc()
	m.logger.Error("чанк %s пропущен: %v", coord, err)
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
	}
	if c != nil {
		m.pool.Release(c)
	}
}

func (m *Manager) finishCycle() {
	m.endCycle(false)
	m.logger.Debug("цикл #%d завершён: активно %d чанков", m.cycles, len(m.active))
	m.plan = Plan{}
	m.next = 0
	m.state = StateIdle
}

func (m *Manager) restart() {
	m.interrupts++
	m.metrics.Interrupts.Inc()
	m.logger.Debug("цикл #%d прерван на %d/%d, новый центр %s",
		m.cycles, m.next, len(m.plan.Pending), m.target)
	m.endCycle(true)
	m.state = StateDiffing
}

func (m *Manager) endCycle(interrupted bool) {
	if m.cycleSpan == nil {
		return
	}
	m.cycleSpan.SetAttributes(
		attribute.Bool("interrupted", interrupted),
		attribute.Int("active", len(m.active)),
	)
	m.cycleSpan.End()
	m.cycleSpan = nil
	m.cycleCtx = context.Background()
}

// Regenerate перестраивает активный чанк. Без Executor компиляция идёт
// синхронно; с Executor она уходит в воркер, а новые поверхности применяются
// в одном из следующих Step. Пока перестройка не завершена, чанк показывает
// старые поверхности, а повторный вызов возвращает ErrAlreadyLoading.
func (m *Manager) Regenerate(coord vec.Vec2) error {
	c, ok := m.active[coord]
	if !ok {
		c = m.loadingContainer(coord)
	}
	if c == nil {
		return fmt.Errorf("%w: %s", ErrNotActive, coord)
	}

	if err := c.BeginGeneration(coord); err != nil {
		m.logger.Warn("повторная генерация %s отклонена: %v", coord, err)
		return err
	}

	prev := c.Surfaces()
	if m.executor != nil {
		g := &generation{coord: coord, container: c, prev: prev, done: make(chan struct{})}
		m.rebuilds = append(m.rebuilds, g)
		m.run(g)
		m.publish()
		return nil
	}

	set, err := m.compile(coord)
	if err == nil {
		err = m.sink.Apply(c.Resource, coord, set)
	}
	if err != nil {
		c.Activate(prev)
		m.metrics.Failures.Inc()
		return fmt.Errorf("перестройка %s: %w", coord, err)
	}
	c.Activate(set)
	return nil
}

// collectRebuilds применяет завершённые перестройки в порядке запуска.
// При wait ждёт очередную перестройку до deadline.
func (m *Manager) collectRebuilds(deadline time.Time, wait bool) {
	for len(m.rebuilds) > 0 {
		g := m.rebuilds[0]
		if wait {
			if !waitDone(g.done, deadline) {
				return
			}
		} else {
			select {
			case <-g.done:
			default:
				return
			}
		}
		m.rebuilds[0] = nil
		m.rebuilds = m.rebuilds[1:]
		m.finishRebuild(g)
	}
}

func (m *Manager) finishRebuild(g *generation) {
	c := g.container
	if cur, ok := m.active[g.coord]; !ok || cur != c {
		// Чанк выгружен, пока шла перестройка: контейнер уже сброшен пулом
		return
	}

	err := g.err
	if err == nil && g.set == nil {
		err = errors.New("компиляция не вернула результат")
	}
	if err == nil {
		err = m.sink.Apply(c.Resource, g.coord, g.set)
	}
	if err != nil {
		c.Activate(g.prev)
		m.metrics.Failures.Inc()
		m.logger.Error("перестройка %s: %v", g.coord, err)
		return
	}
	c.Activate(g.set)
	m.metrics.CompileSeconds.Observe(g.elapsed.Seconds())
}

func (m *Manager) loadingContainer(coord vec.Vec2) *ChunkContainer {
	if m.current != nil && m.current.coord == coord {
		return m.current.container
	}
	for _, g := range m.inflight {
		if g.coord == coord {
			return g.container
		}
	}
	return nil
}

// Close дожидается компиляций в полёте, возвращает все чанки в пул и уничтожает его содержимое
func (m *Manager) Close() {
	for _, g := range m.rebuilds {
		<-g.done
		if cur, ok := m.active[g.coord]; ok && cur == g.container {
			g.container.Activate(g.prev)
		}
	}
	m.rebuilds = nil

	for _, g := range m.inflight {
		<-g.done
		g.span.End()
		m.pool.Release(g.container)
	}
	m.inflight = nil

	if m.current != nil {
		m.current.span.End()
		m.pool.Release(m.current.container)
		m.current = nil
	}

	for coord, c := range m.active {
		delete(m.active, coord)
		m.pool.Release(c)
	}
	m.pool.DrainAll()

	m.endCycle(true)
	m.plan = Plan{}
	m.next = 0
	m.state = StateIdle
	m.publish()
}

func (m *Manager) chunkHeight() int {
	return m.compiler.Classifier().ChunkHeight
}

// State текущее состояние цикла
func (m *Manager) State() State {
	return m.state
}

// Center центр последнего запущенного цикла
func (m *Manager) Center() vec.Vec2 {
	return m.center
}

// Cycles количество запущенных циклов
func (m *Manager) Cycles() uint64 {
	return m.cycles
}

// IsActive проверяет, загружен ли чанк
func (m *Manager) IsActive(coord vec.Vec2) bool {
	_, ok := m.active[coord]
	return ok
}

// Container возвращает контейнер активного чанка
func (m *Manager) Container(coord vec.Vec2) (*ChunkContainer, bool) {
	c, ok := m.active[coord]
	return c, ok
}

// ActiveCoords активные координаты, упорядоченные по x, затем z
func (m *Manager) ActiveCoords() []vec.Vec2 {
	coords := make([]vec.Vec2, 0, len(m.active))
	for coord := range m.active {
		coords = append(coords, coord)
	}
	sortCoords(coords)
	return coords
}

// PoolStats счётчики пула контейнеров
func (m *Manager) PoolStats() pool.Stats {
	return m.pool.Stats()
}

// Metrics метрики менеджера
func (m *Manager) Metrics() *Metrics {
	return m.metrics
}

// Snapshot последний опубликованный снимок; безопасен для любых горутин
func (m *Manager) Snapshot() *Snapshot {
	return m.snapshot.Load()
}

func (m *Manager) publish() {
	stats := m.pool.Stats()

	pending := len(m.plan.Pending) - m.next
	if pending < 0 {
		pending = 0
	}
	inflight := len(m.inflight) + len(m.rebuilds)
	if m.current != nil {
		inflight++
	}
	var busy int64
	if r, ok := m.executor.(interface{ Running() int64 }); ok {
		busy = r.Running()
	}

	m.snapshot.Store(&Snapshot{
		State:      m.state,
		Center:     m.center,
		Active:     m.ActiveCoords(),
		Pending:    pending,
		InFlight:   inflight,
		Workers:    busy,
		Pool:       stats,
		Cycles:     m.cycles,
		Interrupts: m.interrupts,
		UpdatedAt:  time.Now(),
	})

	m.metrics.ActiveChunks.Set(float64(len(m.active)))
	m.metrics.PoolIdle.Set(float64(stats.Idle))
	m.metrics.PoolLive.Set(float64(stats.Live))
}

// FrameBudget доля кадра, отдаваемая стримингу: share / frameRate секунд
func FrameBudget(frameRate int, share float64) time.Duration {
	if frameRate <= 0 {
		return 0
	}
	return time.Duration(share / float64(frameRate) * float64(time.Second))
}
