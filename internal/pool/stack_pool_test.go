package pool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	id     int
	active bool
}

type recorder struct {
	next        int
	failCreate  error
	nilCreate   bool
	failDestroy bool
	destroyed   []int
}

func (r *recorder) hooks() Hooks[*item] {
	return Hooks[*item]{
		Create: func() (*item, error) {
			if r.failCreate != nil {
				return nil, r.failCreate
			}
			if r.nilCreate {
				return nil, nil
			}
			r.next++
			return &item{id: r.next}, nil
		},
		OnGet:     func(it *item) { it.active = true },
		OnRelease: func(it *item) { it.active = false },
		Destroy: func(it *item) error {
			r.destroyed = append(r.destroyed, it.id)
			if r.failDestroy {
				return errors.New("ресурс занят")
			}
			return nil
		},
	}
}

func TestNewValidation(t *testing.T) {
	r := &recorder{}
	_, err := New("chunks", 0, r.hooks())
	assert.Error(t, err)

	h := r.hooks()
	h.Destroy = nil
	_, err = New("chunks", 4, h)
	assert.Error(t, err)
}

func TestAcquireCreatesWhenEmpty(t *testing.T) {
	r := &recorder{}
	p, err := New("chunks", 4, r.hooks())
	require.NoError(t, err)

	a, err := p.Acquire()
	require.NoError(t, err)
	assert.Equal(t, 1, a.id)
	assert.True(t, a.active, "OnGet вызывается и для новых экземпляров")

	s := p.Stats()
	assert.Equal(t, 1, s.Live)
	assert.Equal(t, uint64(1), s.Created)
	assert.Equal(t, 0, s.Idle)
}

func TestLIFOOrder(t *testing.T) {
	r := &recorder{}
	p, err := New("chunks", 4, r.hooks())
	require.NoError(t, err)

	a, _ := p.Acquire()
	b, _ := p.Acquire()
	c, _ := p.Acquire()

	p.Release(a)
	p.Release(b)
	p.Release(c)
	assert.False(t, c.active)
	assert.Equal(t, 3, p.Len())

	got, err := p.Acquire()
	require.NoError(t, err)
	assert.Same(t, c, got)
	assert.True(t, got.active)

	got, _ = p.Acquire()
	assert.Same(t, b, got)
	got, _ = p.Acquire()
	assert.Same(t, a, got)

	assert.Equal(t, uint64(3), p.Stats().Created, "повторно используем, а не создаём")
}

func TestReleaseOverflowDestroys(t *testing.T) {
	r := &recorder{}
	p, err := New("chunks", 2, r.hooks())
	require.NoError(t, err)

	var items []*item
	for i := 0; i < 3; i++ {
		it, err := p.Acquire()
		require.NoError(t, err)
		items = append(items, it)
	}
	for _, it := range items {
		p.Release(it)
	}

	assert.Equal(t, 2, p.Len())
	assert.Equal(t, []int{3}, r.destroyed)

	s := p.Stats()
	assert.Equal(t, 2, s.Live)
	assert.Equal(t, uint64(1), s.Destroyed)
	assert.LessOrEqual(t, s.Live, s.Capacity)
}

func TestCreateFailureSurfaced(t *testing.T) {
	r := &recorder{failCreate: errors.New("нет видеопамяти")}
	p, err := New("chunks", 2, r.hooks())
	require.NoError(t, err)

	it, err := p.Acquire()
	assert.Nil(t, it)
	assert.ErrorIs(t, err, ErrCreateFailed)
	assert.Contains(t, err.Error(), "нет видеопамяти")
	assert.Equal(t, 0, p.Stats().Live)
}

func TestNilInstanceRejected(t *testing.T) {
	r := &recorder{nilCreate: true}
	p, err := New("chunks", 2, r.hooks())
	require.NoError(t, err)

	_, err = p.Acquire()
	assert.ErrorIs(t, err, ErrNilInstance)
}

func TestReleaseNilIgnored(t *testing.T) {
	r := &recorder{}
	p, err := New("chunks", 2, r.hooks())
	require.NoError(t, err)

	p.Release(nil)
	assert.Equal(t, 0, p.Len())
}

func TestDestroyFailureIsNotFatal(t *testing.T) {
	r := &recorder{failDestroy: true}
	p, err := New("chunks", 1, r.hooks())
	require.NoError(t, err)

	a, _ := p.Acquire()
	b, _ := p.Acquire()
	p.Release(a)
	p.Release(b)

	s := p.Stats()
	assert.Equal(t, uint64(1), s.DestroyFailures)
	assert.Equal(t, 1, s.Live)
	assert.Equal(t, 1, p.Len())
}

func TestDrainAll(t *testing.T) {
	r := &recorder{}
	p, err := New("chunks", 3, r.hooks())
	require.NoError(t, err)

	a, _ := p.Acquire()
	b, _ := p.Acquire()
	p.Release(a)
	p.Release(b)

	p.DrainAll()
	assert.Equal(t, 0, p.Len())
	assert.ElementsMatch(t, []int{1, 2}, r.destroyed)
	assert.Equal(t, 0, p.Stats().Live)
}

// Пока на руках не больше capacity объектов, живых тоже не больше capacity
func TestLiveBoundedByCapacity(t *testing.T) {
	r := &recorder{}
	const capacity = 3
	p, err := New("chunks", capacity, r.hooks())
	require.NoError(t, err)

	var out []*item
	ops := []bool{true, true, true, false, false, true, false, true, true, false, false, false, true, true}
	for _, acquire := range ops {
		if acquire && len(out) < capacity {
			it, err := p.Acquire()
			require.NoError(t, err)
			out = append(out, it)
		} else if len(out) > 0 {
			p.Release(out[len(out)-1])
			out = out[:len(out)-1]
		}
		assert.LessOrEqual(t, p.Stats().Live, capacity)
	}
}
