package engine

import (
	"time"

	"github.com/specialistvlad/linesim/internal/model"
)

// ExampleConfig is the reference two-stage line: one input feeding two
// parallel stations, two intermediate buffers, two more stations and a shared
// output.
func ExampleConfig() *model.Config {
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	buf := func(id, name string, x, y float64) model.BufferConfig {
		return model.BufferConfig{ID: id, Name: name, Position: model.Position{X: x, Y: y}}
	}
	st := func(id, name string, x, y float64, lo, hi int) model.StationConfig {
		return model.StationConfig{
			ID:       id,
			Name:     name,
			Position: model.Position{X: x, Y: y},
			Service:  model.ServiceRange{Min: ms(lo), Max: ms(hi)},
		}
	}
	in := func(from, to string) model.Edge { return model.Edge{From: from, To: to, Type: model.BufferToStation} }
	out := func(from, to string) model.Edge { return model.Edge{From: from, To: to, Type: model.StationToBuffer} }

	return &model.Config{
		Buffers: []model.BufferConfig{
			buf("input", "Input", 50, 200),
			buf("stage2a", "Stage 2A", 420, 100),
			buf("stage2b", "Stage 2B", 420, 300),
			buf("output", "Output", 760, 200),
		},
		Stations: []model.StationConfig{
			st("a", "Machine A", 220, 100, 800, 2000),
			st("b", "Machine B", 220, 300, 1000, 2500),
			st("c", "Machine C", 590, 100, 600, 1500),
			st("d", "Machine D", 590, 300, 900, 2000),
		},
		Edges: []model.Edge{
			in("input", "a"),
			in("input", "b"),
			out("a", "stage2a"),
			out("b", "stage2b"),
			in("stage2a", "c"),
			in("stage2b", "d"),
			out("c", "output"),
			out("d", "output"),
		},
		EntryBufferID: "input",
	}
}

// LoadExample clears the board and builds ExampleConfig.
func (e *Engine) LoadExample() bool {
	return e.ImportConfiguration(ExampleConfig())
}
