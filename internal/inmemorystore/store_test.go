package inmemorystore

import (
	"fmt"
	"sync"
	"testing"

	"github.com/specialistvlad/linesim/internal/buffer"
	"github.com/specialistvlad/linesim/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetDelete(t *testing.T) {
	s := New()

	_, ok := s.Get("Q0")
	assert.False(t, ok)

	b := buffer.New("Q0", "Input", model.Position{}, 0)
	s.Put(b)

	got, ok := s.Get("Q0")
	require.True(t, ok)
	assert.Same(t, b, got)

	src, ok := s.Source("Q0")
	require.True(t, ok)
	assert.Equal(t, "Q0", src.ID())

	sink, ok := s.Sink("Q0")
	require.True(t, ok)
	assert.Equal(t, "Q0", sink.ID())

	removed, ok := s.Delete("Q0")
	require.True(t, ok)
	assert.Same(t, b, removed)

	_, ok = s.Source("Q0")
	assert.False(t, ok)
	_, ok = s.Sink("Q0")
	assert.False(t, ok)
}

func TestAllIsOrderedByID(t *testing.T) {
	s := New()
	for _, id := range []string{"Q10", "Q2", "Q1"} {
		s.Put(buffer.New(id, "", model.Position{}, 0))
	}

	var ids []string
	for _, b := range s.All() {
		ids = append(ids, b.ID())
	}
	assert.Equal(t, []string{"Q1", "Q2", "Q10"}, ids)
	assert.Equal(t, 3, s.Len())

	s.Clear()
	assert.Equal(t, 0, s.Len())
}

// TestStore_ConcurrentAccess verifies that the store can be written and read
// by many goroutines at once without lost entries.
func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	const n = 100
	var wg sync.WaitGroup

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			s.Put(buffer.New(fmt.Sprintf("Q%d", i), "", model.Position{}, 0))
		}(i)
	}
	wg.Wait()

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, ok := s.Get(fmt.Sprintf("Q%d", i))
			assert.True(t, ok, "buffer Q%d missing", i)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, n, s.Len())
}
