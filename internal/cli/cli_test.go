package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/specialistvlad/linesim/internal/station"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, exit, err := Parse(nil, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 500*time.Millisecond, cfg.MinInputRate)
	assert.Equal(t, 2*time.Second, cfg.MaxInputRate)
	assert.Equal(t, station.Discard, cfg.InFlight)
	assert.Empty(t, cfg.TopologyPath)
}

func TestParse_AllFlags(t *testing.T) {
	cfg, _, err := Parse([]string{
		"--watch", "--autostart",
		"--listen", "127.0.0.1:9000",
		"--healthcheck-port", "9100",
		"--log-format", "TEXT", "--log-level", "Debug",
		"--workers", "4",
		"--snapshot-interval", "50ms", "--publish-interval", "25ms",
		"--history-size", "10",
		"--min-input-rate", "100ms", "--max-input-rate", "300ms",
		"--in-flight", "requeue",
		"--relay-url", "http://localhost:3000", "--relay-namespace", "/line",
		"line.hcl",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, "line.hcl", cfg.TopologyPath)
	assert.True(t, cfg.Watch)
	assert.True(t, cfg.Autostart)
	assert.Equal(t, 9100, cfg.HealthcheckPort)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, 50*time.Millisecond, cfg.SnapshotInterval)
	assert.Equal(t, 10, cfg.HistorySize)
	assert.Equal(t, station.Requeue, cfg.InFlight)
	assert.Equal(t, "/line", cfg.RelayNamespace)
}

func TestParse_Help(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := Parse([]string{"-h"}, out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_Errors(t *testing.T) {
	cases := map[string][]string{
		"unknown flag":   {"--nope"},
		"log format":     {"--log-format", "xml"},
		"log level":      {"--log-level", "loud"},
		"policy":         {"--in-flight", "keep"},
		"rate window":    {"--min-input-rate", "2s", "--max-input-rate", "1s"},
		"watch no file":  {"--watch"},
		"example + file": {"--example", "line.yaml"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := Parse(args, &bytes.Buffer{})
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}
