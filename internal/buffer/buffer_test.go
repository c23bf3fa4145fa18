package buffer

import (
	"fmt"
	"sync"
	"testing"

	"github.com/specialistvlad/linesim/internal/flow"
	"github.com/specialistvlad/linesim/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a Notifiable that pops one unit per wake-up, like a station.
type recorder struct {
	id    string
	ready bool

	mu    sync.Mutex
	woken int
	got   []*model.Unit
}

func newRecorder(id string) *recorder {
	return &recorder{id: id, ready: true}
}

func (r *recorder) ID() string    { return r.id }
func (r *recorder) IsReady() bool { return r.ready }

func (r *recorder) OnWorkAvailable(src flow.WorkSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.woken++
	if u, ok := src.Pop(); ok {
		r.got = append(r.got, u)
	}
}

func (r *recorder) wakeups() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.woken
}

// decliner is registered ready but ignores every wake-up, as a station with
// a stale input binding does.
type decliner struct{ id string }

func (d *decliner) ID() string                    { return d.id }
func (d *decliner) IsReady() bool                 { return true }
func (d *decliner) OnWorkAvailable(flow.WorkSource) {}

func unit(id string) *model.Unit {
	return &model.Unit{ID: id, Color: model.Palette[0]}
}

func TestPushPopFIFO(t *testing.T) {
	b := New("Q0", "", model.Position{}, 5)
	for i := 0; i < 5; i++ {
		require.True(t, b.Push(unit(fmt.Sprintf("u%d", i))))
	}

	for i := 0; i < 5; i++ {
		u, ok := b.Pop()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("u%d", i), u.ID)
		assert.Equal(t, "Q0", u.Location)
	}
	_, ok := b.Pop()
	assert.False(t, ok, "buffer should be empty after popping every unit")
}

func TestPushRejectedWhenFull(t *testing.T) {
	b := New("Q0", "", model.Position{}, 2)
	require.True(t, b.Push(unit("a")))
	require.True(t, b.Push(unit("b")))

	rejected := unit("c")
	rejected.Location = "elsewhere"
	assert.False(t, b.Push(rejected))
	assert.Equal(t, 2, b.Len())
	assert.True(t, b.IsFull())
	assert.Equal(t, "elsewhere", rejected.Location, "a rejected unit must not be touched")
}

func TestUnboundedNeverFull(t *testing.T) {
	b := New("Q0", "", model.Position{}, 0)
	for i := 0; i < 1000; i++ {
		require.True(t, b.Push(unit(fmt.Sprint(i))))
	}
	assert.False(t, b.IsFull())
}

func TestPushWakesOnlyHeadOfReadySet(t *testing.T) {
	b := New("Q0", "", model.Position{}, 0)
	first, second := newRecorder("M0"), newRecorder("M1")
	b.RegisterReady(first)
	b.RegisterReady(second)
	require.Equal(t, []string{"M0", "M1"}, b.ReadyIDs())

	require.True(t, b.Push(unit("a")))

	assert.Equal(t, 1, first.wakeups())
	assert.Equal(t, 0, second.wakeups())
	assert.Equal(t, []string{"M1"}, b.ReadyIDs())
	assert.Equal(t, 0, b.Len())
}

func TestRegisterReadyIsIdempotent(t *testing.T) {
	b := New("Q0", "", model.Position{}, 0)
	r := newRecorder("M0")
	b.RegisterReady(r)
	b.RegisterReady(r)
	assert.Equal(t, []string{"M0"}, b.ReadyIDs())
}

func TestRegisterReadyWithHeldUnitWakesImmediately(t *testing.T) {
	b := New("Q0", "", model.Position{}, 0)
	require.True(t, b.Push(unit("a")))

	r := newRecorder("M0")
	b.RegisterReady(r)

	assert.Equal(t, 1, r.wakeups())
	assert.Empty(t, b.ReadyIDs(), "a woken station is not queued as ready")
	assert.Equal(t, 0, b.Len())
}

func TestDeclinedWakeupFallsThroughToNextReady(t *testing.T) {
	b := New("Q0", "", model.Position{}, 0)
	taker := newRecorder("M1")
	b.RegisterReady(&decliner{id: "M0"})
	b.RegisterReady(taker)

	require.True(t, b.Push(unit("a")))

	assert.Equal(t, 1, taker.wakeups())
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.ReadyIDs())
}

func TestRemoveConsumerDropsReadyRegistration(t *testing.T) {
	b := New("Q0", "", model.Position{}, 0)
	b.AddConsumer("M0")
	b.AddConsumer("M0")
	b.RegisterReady(newRecorder("M0"))
	require.Equal(t, []string{"M0"}, b.Consumers())

	b.RemoveConsumer("M0")
	assert.Empty(t, b.Consumers())
	assert.Empty(t, b.ReadyIDs())
}

func TestDrainAndView(t *testing.T) {
	b := New("Q3", "Output", model.Position{X: 1, Y: 2}, 0)
	b.AddProducer("M2")
	require.True(t, b.Push(unit("a")))
	require.True(t, b.Push(unit("b")))

	view := b.View()
	assert.Equal(t, "Output", view.Name)
	assert.Equal(t, 2, view.Size)
	assert.Equal(t, []string{"M2"}, view.Producers)

	view.Units[0].Color = "mutated"
	assert.NotEqual(t, "mutated", b.Units()[0].Color, "views must not alias live units")

	assert.Equal(t, 2, b.Drain())
	assert.Equal(t, 0, b.Len())
}

func TestConcurrentPushPopLosesNothing(t *testing.T) {
	b := New("Q0", "", model.Position{}, 0)
	const producers, perProducer = 8, 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				b.Push(unit(fmt.Sprintf("%d-%d", p, i)))
			}
		}(p)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for {
		u, ok := b.Pop()
		if !ok {
			break
		}
		require.False(t, seen[u.ID], "unit %s popped twice", u.ID)
		seen[u.ID] = true
	}
	assert.Len(t, seen, producers*perProducer)
}
