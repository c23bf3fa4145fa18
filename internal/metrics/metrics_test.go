package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/specialistvlad/linesim/internal/engine"
	"github.com/specialistvlad/linesim/internal/model"
	"github.com/specialistvlad/linesim/internal/station"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ engine.Recorder = (*Recorder)(nil)

func TestRecorderCounters(t *testing.T) {
	r := New()
	r.Generated("Q0")
	r.Generated("Q0")
	r.Rejected("Q0")
	r.Completed("M0", 150*time.Millisecond)
	r.Dropped("M0", station.DropOutputFull)
	r.Dropped("M0", station.DropOutputFull)
	r.Dropped("M1", station.DropNoOutput)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.generated.WithLabelValues("Q0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.rejected.WithLabelValues("Q0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.completed.WithLabelValues("M0")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.dropped.WithLabelValues("M0", "output_full")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.dropped.WithLabelValues("M1", "no_output")))
}

func TestRecorderCapturedReplacesGauges(t *testing.T) {
	r := New()
	r.Captured(&model.Snapshot{
		Buffers:  []model.BufferState{{ID: "Q0", Size: 3}, {ID: "Q1", Size: 1}},
		Stations: []model.StationState{{ID: "M0", Processing: true}},
	}, 4)

	assert.Equal(t, 3.0, testutil.ToFloat64(r.depth.WithLabelValues("Q0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.busy.WithLabelValues("M0")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.history))

	r.Captured(&model.Snapshot{Buffers: []model.BufferState{{ID: "Q0"}}}, 5)
	assert.Equal(t, 1, testutil.CollectAndCount(r.depth))
	assert.Equal(t, 0, testutil.CollectAndCount(r.busy))
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := New()
	r.Generated("Q0")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `linesim_units_generated_total{buffer="Q0"} 1`))
}
