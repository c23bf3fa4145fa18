package app

import (
	"bytes"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/linesim/internal/station"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// FastConfig returns a valid Config with short intervals and no servers.
func FastConfig() Config {
	return Config{
		LogFormat:        "text",
		LogLevel:         "debug",
		WorkerCount:      8,
		SnapshotInterval: 20 * time.Millisecond,
		PublishInterval:  20 * time.Millisecond,
		HistorySize:      50,
		MinInputRate:     20 * time.Millisecond,
		MaxInputRate:     40 * time.Millisecond,
		InFlight:         station.Discard,
	}
}

// SetupAppTest creates a new app instance for system testing.
func SetupAppTest(t *testing.T, cfg Config) (*App, *SafeBuffer) {
	t.Helper()

	valid, err := NewConfig(cfg)
	if err != nil {
		t.Fatalf("invalid test config: %v", err)
	}
	logBuffer := &SafeBuffer{}
	testApp := NewApp(logBuffer, valid)

	t.Cleanup(func() {
		if os.Getenv("LINESIM_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
