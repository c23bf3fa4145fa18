// Package relay forwards every published engine state to a remote socket.io
// server as a "state" event.
package relay

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/linesim/internal/ctxlog"
	"github.com/specialistvlad/linesim/internal/engine"
	"github.com/specialistvlad/linesim/internal/model"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// StateEvent is the event name states are emitted under.
const StateEvent = "state"

// ConnectTimeout bounds the wait for the first connection.
const ConnectTimeout = 15 * time.Second

// Config describes the remote endpoint.
type Config struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
}

// Source is the part of the engine the relay needs.
type Source interface {
	Subscribe(fn engine.Listener) int
	Unsubscribe(id int) bool
}

// Relay owns one socket.io client connection.
type Relay struct {
	cfg    Config
	logger *slog.Logger
	io     *socket.Socket

	connected atomic.Bool
	sent      atomic.Int64
	skipped   atomic.Int64
}

// Dial connects to cfg.URL and waits for the first connect or connect_error
// event. Later disconnects are retried by the client's own reconnection.
func Dial(ctx context.Context, cfg Config) (*Relay, error) {
	logger := ctxlog.FromContext(ctx).With("component", "relay", "url", cfg.URL)

	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse relay URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("relay URL %q needs a scheme and host", cfg.URL)
	}

	opts := socket.DefaultOptions()
	if parsed.Path != "" && parsed.Path != "/" {
		opts.SetPath(parsed.Path)
	}
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	ns := cfg.Namespace
	if ns == "" {
		ns = "/"
	}
	manager := socket.NewManager(fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host), opts)
	r := &Relay{cfg: cfg, logger: logger, io: manager.Socket(ns, opts)}

	first := make(chan error, 1)
	r.io.On(types.EventName("connect"), func(...any) {
		r.connected.Store(true)
		logger.Info("🔌 Relay connected.", "sid", r.io.Id())
		select {
		case first <- nil:
		default:
		}
	})
	r.io.On(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("socket.io connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		logger.Debug("Relay connect error.", "error", err)
		select {
		case first <- err:
		default:
		}
	})
	r.io.On(types.EventName("disconnect"), func(reason ...any) {
		r.connected.Store(false)
		logger.Warn("Relay disconnected.", "reason", fmt.Sprint(reason...))
	})

	r.io.Connect()

	select {
	case err := <-first:
		if err != nil {
			r.io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return r, nil
	case <-ctx.Done():
		r.io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(ConnectTimeout):
		r.io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", ConnectTimeout)
	}
}

// Forward emits each state the source publishes until ctx is cancelled,
// then unsubscribes and disconnects.
func (r *Relay) Forward(ctx context.Context, src Source) error {
	id := src.Subscribe(r.emit)
	defer src.Unsubscribe(id)
	defer r.Close()

	<-ctx.Done()
	r.logger.Info("Relay stopped.", "sent", r.sent.Load(), "skipped", r.skipped.Load())
	return nil
}

// emit never fails: a disconnected relay skips states rather than being
// dropped as a listener, so it resumes after reconnecting.
func (r *Relay) emit(state *model.State) error {
	if !r.connected.Load() {
		r.skipped.Add(1)
		return nil
	}
	r.io.Emit(StateEvent, state)
	r.sent.Add(1)
	return nil
}

// Close disconnects the client.
func (r *Relay) Close() {
	r.io.Disconnect()
}
