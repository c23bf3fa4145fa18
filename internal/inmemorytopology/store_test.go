package inmemorytopology

import (
	"testing"

	"github.com/specialistvlad/linesim/internal/inmemorystore"
	"github.com/specialistvlad/linesim/internal/model"
	"github.com/specialistvlad/linesim/internal/station"
	"github.com/specialistvlad/linesim/internal/workerpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStation(t *testing.T, id string) *station.Station {
	t.Helper()
	pool := workerpool.New(nil, 1)
	t.Cleanup(pool.Close)
	return station.New(id, inmemorystore.New(), pool, station.Options{})
}

func TestAddAndGetStation(t *testing.T) {
	s := New()
	st := newStation(t, "M0")
	s.AddStation(st)

	got, ok := s.Station("M0")
	require.True(t, ok)
	assert.Same(t, st, got)

	_, ok = s.Station("M9")
	assert.False(t, ok)

	removed, ok := s.RemoveStation("M0")
	require.True(t, ok)
	assert.Same(t, st, removed)
	assert.Empty(t, s.Stations())
}

func TestStationsAreOrderedByID(t *testing.T) {
	s := New()
	for _, id := range []string{"M10", "M1", "M2"} {
		s.AddStation(newStation(t, id))
	}

	var ids []string
	for _, st := range s.Stations() {
		ids = append(ids, st.ID())
	}
	assert.Equal(t, []string{"M1", "M2", "M10"}, ids)
}

func TestEdges(t *testing.T) {
	s := New()
	in := model.Edge{From: "Q0", To: "M0", Type: model.BufferToStation}
	out := model.Edge{From: "M0", To: "Q1", Type: model.StationToBuffer}
	other := model.Edge{From: "Q1", To: "M1", Type: model.BufferToStation}

	require.True(t, s.AddEdge(in))
	require.True(t, s.AddEdge(out))
	require.True(t, s.AddEdge(other))
	assert.False(t, s.AddEdge(in), "duplicate edge must be rejected")

	assert.Equal(t, []model.Edge{in, out}, s.EdgesTouching("M0"))
	assert.Equal(t, []model.Edge{out, other}, s.EdgesTouching("Q1"))

	removed, ok := s.RemoveEdge("M0", "Q1")
	require.True(t, ok)
	assert.Equal(t, out, removed)
	_, ok = s.RemoveEdge("M0", "Q1")
	assert.False(t, ok)

	assert.Equal(t, []model.Edge{in, other}, s.Edges())

	s.Clear()
	assert.Empty(t, s.Edges())
}
