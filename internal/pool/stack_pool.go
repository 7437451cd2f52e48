package pool

import (
	"errors"
	"fmt"

	"github.com/annel0/voxel-terrain/internal/logging"
)

var (
	// ErrCreateFailed хук создания вернул ошибку
	ErrCreateFailed = errors.New("не удалось создать экземпляр пула")
	// ErrNilInstance хук создания вернул нулевое значение
	ErrNilInstance = errors.New("хук создания вернул пустой экземпляр")
)

// Hooks колбэки жизненного цикла объектов пула
type Hooks[T any] struct {
	Create    func() (T, error) // Создание нового экземпляра
	OnGet     func(T)           // Активация перед выдачей
	OnRelease func(T)           // Деактивация перед возвратом в стек
	Destroy   func(T) error     // Физическое уничтожение при переполнении
}

// Stats счётчики пула
type Stats struct {
	Capacity        int    `json:"capacity"`
	Idle            int    `json:"idle"` // Лежат в стеке
	Live            int    `json:"live"` // Созданы и не уничтожены
	Created         uint64 `json:"created"`
	Destroyed       uint64 `json:"destroyed"`
	DestroyFailures uint64 `json:"destroy_failures"`
}

// StackPool пул объектов с LIFO-дисциплиной и жёстким потолком хранения:
// Release при заполненном стеке уничтожает объект, а не растит хранилище.
// Не потокобезопасен: им владеет один управляющий поток.
type StackPool[T comparable] struct {
	name     string
	capacity int
	items    []T
	hooks    Hooks[T]
	stats    Stats
	logger   *logging.Logger
}

// New создаёт пул указанной ёмкости
func New[T comparable](name string, capacity int, hooks Hooks[T]) (*StackPool[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("ёмкость пула %s должна быть положительной: %d", name, capacity)
	}
	if hooks.Create == nil || hooks.OnGet == nil || hooks.OnRelease == nil || hooks.Destroy == nil {
		return nil, fmt.Errorf("пул %s: все хуки обязательны", name)
	}

	return &StackPool[T]{
		name:     name,
		capacity: capacity,
		items:    make([]T, 0, capacity),
		hooks:    hooks,
		stats:    Stats{Capacity: capacity},
		logger:   logging.GetPoolLogger(),
	}, nil
}

// Acquire достаёт последний возвращённый объект или создаёт новый.
// Ошибка создания возвращается вызывающему, пустой объект никогда не выдаётся.
func (p *StackPool[T]) Acquire() (T, error) {
	if n := len(p.items); n > 0 {
		obj := p.items[n-1]
		var zero T
		p.items[n-1] = zero
		p.items = p.items[:n-1]
		p.hooks.OnGet(obj)
		return obj, nil
	}

	return p.create()
}

func (p *StackPool[T]) create() (T, error) {
	var zero T

	obj, err := p.hooks.Create()
	if err != nil {
		p.logger.Error("[pool %s] ошибка создания экземпляра: %v", p.name, err)
		return zero, fmt.Errorf("%w (%s): %v", ErrCreateFailed, p.name, err)
	}
	if obj == zero {
		p.logger.Error("[pool %s] хук создания вернул пустой экземпляр", p.name)
		return zero, fmt.Errorf("%w (%s)", ErrNilInstance, p.name)
	}

	p.stats.Created++
	p.stats.Live++
	p.hooks.OnGet(obj)
	return obj, nil
}

// Release возвращает объект в пул. При заполненном стеке объект уничтожается.
func (p *StackPool[T]) Release(obj T) {
	var zero T
	if obj == zero {
		return
	}

	if len(p.items) >= p.capacity {
		p.logger.Debug("[pool %s] стек заполнен (%d), уничтожаем экземпляр", p.name, p.capacity)
		p.destroy(obj)
		return
	}

	p.hooks.OnRelease(obj)
	p.items = append(p.items, obj)
}

// destroy уничтожает объект; ошибка не фатальна, ресурс просто бросается
func (p *StackPool[T]) destroy(obj T) {
	p.stats.Live--
	p.stats.Destroyed++

	if err := p.hooks.Destroy(obj); err != nil {
		p.stats.DestroyFailures++
		p.logger.Warn("[pool %s] ошибка уничтожения экземпляра: %v", p.name, err)
	}
}

// DrainAll уничтожает все объекты, лежащие в стеке
func (p *StackPool[T]) DrainAll() {
	var zero T
	for i := len(p.items) - 1; i >= 0; i-- {
		p.destroy(p.items[i])
		p.items[i] = zero
	}
	p.items = p.items[:0]
}

// Len количество объектов в стеке
func (p *StackPool[T]) Len() int {
	return len(p.items)
}

// Stats возвращает копию счётчиков
func (p *StackPool[T]) Stats() Stats {
	s := p.stats
	s.Idle = len(p.items)
	return s
}
