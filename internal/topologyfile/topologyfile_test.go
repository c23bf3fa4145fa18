package topologyfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/linesim/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHCL = `
entry = "in"

generation {
  min = "100ms"
  max = 250
}

buffer "in" {
  name = "Input"
  x    = 10
  y    = 20
}

buffer "out" {
  name     = "Output"
  capacity = 5
}

station "press" {
  name        = "Press"
  min_service = "1s"
  max_service = "1500"
  input       = "in"
  output      = "out"
}
`

func sampleConfig() *model.Config {
	return &model.Config{
		Buffers: []model.BufferConfig{
			{ID: "in", Name: "Input", Position: model.Position{X: 10, Y: 20}},
			{ID: "out", Name: "Output", Capacity: 5},
		},
		Stations: []model.StationConfig{{
			ID:      "press",
			Name:    "Press",
			Service: model.ServiceRange{Min: time.Second, Max: 1500 * time.Millisecond},
		}},
		Edges: []model.Edge{
			{From: "in", To: "press", Type: model.BufferToStation},
			{From: "press", To: "out", Type: model.StationToBuffer},
		},
		EntryBufferID: "in",
		Generation:    &model.RateWindow{Min: 100 * time.Millisecond, Max: 250 * time.Millisecond},
	}
}

func TestDecodeHCL(t *testing.T) {
	cfg, err := Decode([]byte(sampleHCL), "sample.hcl", FormatHCL)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(sampleConfig(), cfg))
}

func TestDecodeHCLRejectsBadDuration(t *testing.T) {
	src := `
station "m" {
  min_service = "soon"
  max_service = "1s"
}
`
	_, err := Decode([]byte(src), "bad.hcl", FormatHCL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid duration")
}

func TestDecodeHCLRequiresServiceRange(t *testing.T) {
	_, err := Decode([]byte(`station "m" {}`), "bad.hcl", FormatHCL)
	assert.Error(t, err)
}

func TestRoundTripEveryFormat(t *testing.T) {
	for _, f := range []Format{FormatHCL, FormatYAML, FormatJSON} {
		t.Run(string(f), func(t *testing.T) {
			out, err := Encode(sampleConfig(), f)
			require.NoError(t, err)

			back, err := Decode(out, "roundtrip."+string(f), f)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(sampleConfig(), back))
		})
	}
}

func TestDecodeJSONReadsMilliseconds(t *testing.T) {
	src := `{
  "stations": [{"id": "s", "service": {"min": 800, "max": 2000}}],
  "generation": {"min": "100ms", "max": 250}
}`
	cfg, err := Decode([]byte(src), "line.json", FormatJSON)
	require.NoError(t, err)
	require.Len(t, cfg.Stations, 1)
	assert.Equal(t, model.ServiceRange{Min: 800 * time.Millisecond, Max: 2 * time.Second}, cfg.Stations[0].Service)
	assert.Equal(t, &model.RateWindow{Min: 100 * time.Millisecond, Max: 250 * time.Millisecond}, cfg.Generation)
}

func TestJSONWritesMilliseconds(t *testing.T) {
	out, err := Encode(sampleConfig(), FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"min": 1000`)
	assert.Contains(t, string(out), `"max": 1500`)
	assert.Contains(t, string(out), `"max": 250`)
}

func TestDecodeJSONRejectsBadDuration(t *testing.T) {
	src := `{"stations": [{"id": "s", "service": {"min": "soon", "max": 10}}]}`
	_, err := Decode([]byte(src), "line.json", FormatJSON)
	assert.Error(t, err)
}

func TestYAMLUsesReadableDurations(t *testing.T) {
	out, err := Encode(sampleConfig(), FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, string(out), "min: 1s")
	assert.Contains(t, string(out), "entry_buffer: in")
}

func TestEncodeHCLRejectsDoubleInput(t *testing.T) {
	cfg := sampleConfig()
	cfg.Edges = append(cfg.Edges, model.Edge{From: "out", To: "press", Type: model.BufferToStation})
	_, err := Encode(cfg, FormatHCL)
	assert.Error(t, err)
}

func TestFormatDetection(t *testing.T) {
	f, err := FormatFromPath("line.YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = FormatFromPath("line.toml")
	assert.Error(t, err)

	f, err = ParseFormat("application/x-yaml; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "line.hcl")

	require.NoError(t, Save(ctx, path, sampleConfig()))
	cfg, err := Load(ctx, path)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(sampleConfig(), cfg))

	_, err = Load(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	path := filepath.Join(t.TempDir(), "line.yaml")
	require.NoError(t, Save(ctx, path, &model.Config{}))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)

	changes := make(chan *model.Config, 1)
	w.OnChange = func(cfg *model.Config) error {
		changes <- cfg
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give fsnotify a moment to start delivering events.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("entry_buffer: fresh\n"), 0o644))

	select {
	case cfg := <-changes:
		assert.Equal(t, "fresh", cfg.EntryBufferID)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatcherSerializesReloadsAndStopsWithRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	path := filepath.Join(t.TempDir(), "line.yaml")
	require.NoError(t, Save(ctx, path, &model.Config{}))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	w.SetDebounce(time.Millisecond)

	var active, peak, calls atomic.Int32
	w.OnChange = func(*model.Config) error {
		n := active.Add(1)
		defer active.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	for i := 1; i <= 20; i++ {
		body := "entry_buffer: " + strings.Repeat("x", i) + "\n"
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		time.Sleep(5 * time.Millisecond)
	}
	require.Eventually(t, func() bool { return calls.Load() > 0 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Zero(t, active.Load())
	after := calls.Load()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
	assert.LessOrEqual(t, peak.Load(), int32(1))
}
