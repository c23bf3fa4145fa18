package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/specialistvlad/linesim/internal/engine"
	"github.com/specialistvlad/linesim/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *engine.Engine) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := engine.New(engine.WithLogger(logger), engine.WithFlash(5*time.Millisecond))
	s := New(e, logger)
	t.Cleanup(func() {
		s.Close()
		require.NoError(t, e.Shutdown(context.Background()))
	})
	return s, e
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) result {
	t.Helper()
	var res result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestBuildLineOverHTTP(t *testing.T) {
	s, e := newTestServer(t)

	rec := do(t, s, "POST", "/api/buffers", `{"name":"In","x":1,"y":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, result{OK: true, ID: "Q0"}, decodeResult(t, rec))

	rec = do(t, s, "POST", "/api/stations", `{"name":"Press","minService":100,"maxService":200}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "M0", decodeResult(t, rec).ID)

	rec = do(t, s, "POST", "/api/edges", `{"from":"Q0","to":"M0","type":"buffer-to-station"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, "PATCH", "/api/buffers/Q0", `{"name":"Inbox","capacity":3}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, "PUT", "/api/stations/M0/position", `{"x":40,"y":50}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	state := e.CurrentState()
	b, ok := state.Buffer("Q0")
	require.True(t, ok)
	assert.Equal(t, "Inbox", b.Name)
	assert.Equal(t, 3, b.Capacity)
	assert.Equal(t, []string{"M0"}, b.Consumers)
	st, ok := state.Station("M0")
	require.True(t, ok)
	assert.Equal(t, model.Position{X: 40, Y: 50}, st.Position)

	rec = do(t, s, "DELETE", "/api/edges?from=Q0&to=M0", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, e.CurrentState().Edges)
}

func TestRefusedOperationsAreConflicts(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, "POST", "/api/simulation/start", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, decodeResult(t, rec).OK)

	rec = do(t, s, "POST", "/api/stations", `{"minService":500,"maxService":100}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, "DELETE", "/api/buffers/Q9", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, "POST", "/api/replay/start", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBadRequests(t *testing.T) {
	s, _ := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, do(t, s, "POST", "/api/buffers", `{"nmae":"typo"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, "DELETE", "/api/edges?from=Q0", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, "GET", "/api/history/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, "GET", "/api/history/0", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, "GET", "/api/export?format=toml", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, s, "GET", "/api/buffers", "").Code)
}

func TestExportImportRoundTrip(t *testing.T) {
	for _, format := range []string{"json", "yaml", "hcl"} {
		t.Run(format, func(t *testing.T) {
			s, e := newTestServer(t)
			require.True(t, e.LoadExample())
			before := e.ExportConfiguration()

			rec := do(t, s, "GET", "/api/export?format="+format, "")
			require.Equal(t, http.StatusOK, rec.Code)
			doc := rec.Body.String()
			contentType := rec.Header().Get("Content-Type")

			do(t, s, "POST", "/api/board/clear", "")
			require.Empty(t, e.CurrentState().Buffers)

			req := httptest.NewRequest("POST", "/api/import", strings.NewReader(doc))
			req.Header.Set("Content-Type", contentType)
			rec = httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			after := e.ExportConfiguration()
			assert.Len(t, after.Buffers, len(before.Buffers))
			assert.Len(t, after.Stations, len(before.Stations))
			assert.ElementsMatch(t, before.Edges, after.Edges)
		})
	}
}

func TestImportRejectsInvalidDocument(t *testing.T) {
	s, e := newTestServer(t)
	require.True(t, e.LoadExample())

	req := httptest.NewRequest("POST", "/api/import", strings.NewReader(`{"buffers":[{"id":"A"},{"id":"A"}]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, e.CurrentState().Buffers)

	req = httptest.NewRequest("POST", "/api/import", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/csv")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestStreamDeliversPublishedStates(t *testing.T) {
	s, e := newTestServer(t)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/api/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(resp.Body)
		sc.Buffer(make([]byte, 1<<20), 1<<20)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	expect := func(prefix string) string {
		t.Helper()
		deadline := time.After(5 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				require.True(t, ok, "stream closed before %q", prefix)
				if strings.HasPrefix(line, prefix) {
					return strings.TrimPrefix(line, prefix)
				}
			case <-deadline:
				t.Fatalf("no %q line on stream", prefix)
			}
		}
	}

	expect("event: init")
	require.Eventually(t, func() bool { return s.broker.count() == 1 }, time.Second, 5*time.Millisecond)

	_, ok := e.CreateBuffer("In", 0, 0, 0)
	require.True(t, ok)

	expect("event: state")
	var state model.State
	require.NoError(t, json.Unmarshal([]byte(expect("data: ")), &state))
	assert.Len(t, state.Buffers, 1)
}
