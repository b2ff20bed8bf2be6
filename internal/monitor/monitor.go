// Package monitor follows instance logs until provisioning completes.
package monitor

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/MannyJMusic/dfl-desktop/internal/config"
	"github.com/MannyJMusic/dfl-desktop/internal/instances"
	"github.com/MannyJMusic/dfl-desktop/internal/logging"
)

// errStreamEnded signals that the log stream closed before the completion
// marker appeared, which happens while the instance is still booting.
var errStreamEnded = errors.New("log stream ended before provisioning completed")

// Monitor follows an instance's logs, reconnecting with exponential backoff,
// until the provisioning completion marker shows up.
type Monitor struct {
	svc     *instances.Service
	marker  string
	out     io.Writer
	maxWait time.Duration
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithMarker overrides the completion marker to scan for.
func WithMarker(marker string) Option {
	return func(m *Monitor) { m.marker = marker }
}

// WithOutput sets where streamed log lines are echoed.
func WithOutput(w io.Writer) Option {
	return func(m *Monitor) { m.out = w }
}

// WithMaxWait bounds the total time spent waiting. Zero means wait until
// the context is cancelled.
func WithMaxWait(d time.Duration) Option {
	return func(m *Monitor) { m.maxWait = d }
}

// New creates a Monitor for the given instance service.
func New(svc *instances.Service, opts ...Option) *Monitor {
	m := &Monitor{
		svc:    svc,
		marker: config.CompletionMarker,
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Wait follows the logs of the instance until the completion marker is seen.
// Dropped streams are reconnected with exponential backoff; Wait returns the
// context's error when cancelled first.
func (m *Monitor) Wait(ctx context.Context, id string) error {
	if m.maxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.maxWait)
		defer cancel()
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 2 * time.Second
	policy.MaxInterval = 30 * time.Second
	policy.MaxElapsedTime = 0 // retry until ctx says stop

	attempt := func() error {
		done, err := m.follow(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			logging.Debug("log stream failed, will reconnect", "instance", id, "error", err)
			return err
		}
		if done {
			return nil
		}
		return errStreamEnded
	}

	return backoff.Retry(attempt, backoff.WithContext(policy, ctx))
}

// follow streams logs once. It reports whether the marker was seen.
func (m *Monitor) follow(ctx context.Context, id string) (bool, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var seen bool
	err := m.svc.FollowLogs(streamCtx, id, func(line string) {
		io.WriteString(m.out, line+"\n")
		if !seen && strings.Contains(line, m.marker) {
			seen = true
			cancel() // the marker is all we were waiting for
		}
	})
	if seen {
		return true, nil
	}
	return false, err
}

// ScanForMarker reports whether the completion marker appears in a log dump.
func ScanForMarker(logs, marker string) bool {
	return strings.Contains(logs, marker)
}
