package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jbrick2070/Archival-Flow/internal/shared/async"
	"github.com/jbrick2070/Archival-Flow/internal/shared/logging"
)

// itemStatus is the slice of the metadata endpoint's response the poller
// cares about.
type itemStatus struct {
	Metadata struct {
		Identifier string `json:"identifier"`
	} `json:"metadata"`
	Files []struct {
		Format string `json:"format"`
	} `json:"files"`
}

// CheckDerived performs one readiness check against the metadata endpoint.
// It returns true only when the response is successful, names the requested
// identifier (stale or mismatched responses do not count), and lists at
// least one file of the expected derived format. Every failure mode reads
// as "not ready yet".
func (c *Client) CheckDerived(ctx context.Context, identifier string) bool {
	// Cache-busting timestamp defeats intermediate caches between polls.
	target := fmt.Sprintf("%s/%s?t=%d", c.metadataBase, identifier, time.Now().UnixMilli())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false
	}

	resp, err := c.probeHTTP.Do(req)
	if err != nil {
		c.logger.Debug("derive check for %s failed: %v", identifier, err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("derive check for %s returned status %d", identifier, resp.StatusCode)
		return false
	}

	var status itemStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		c.logger.Debug("derive check for %s returned undecodable body: %v", identifier, err)
		return false
	}
	if status.Metadata.Identifier != identifier {
		return false
	}
	for _, file := range status.Files {
		if file.Format == c.derivedFormat {
			return true
		}
	}
	return false
}

// VerificationState is the caller-visible progress of one polling session.
type VerificationState struct {
	ElapsedSeconds int
	Done           bool
}

// WaitTask is a cancellable polling session watching for the derived file.
// The task owns its tickers; Stop halts both the checks and the elapsed
// counter on every exit path and is safe to call more than once.
type WaitTask struct {
	mu    sync.Mutex
	state VerificationState

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// WaitForDerivedFile starts polling for the item's derived file: one
// immediate check, then one per interval. Single-check failures are
// swallowed; there is no built-in timeout — cancel via Stop or ctx.
func (c *Client) WaitForDerivedFile(ctx context.Context, identifier string, interval time.Duration) *WaitTask {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return newWaitTask(ctx, func(ctx context.Context) bool {
		return c.CheckDerived(ctx, identifier)
	}, interval, time.Second, c.logger)
}

func newWaitTask(ctx context.Context, check func(context.Context) bool, interval, tick time.Duration, logger logging.Logger) *WaitTask {
	t := &WaitTask{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	async.Go(logging.OrNop(logger), "derive-wait", func() {
		if check(ctx) {
			t.finish()
			return
		}

		checks := time.NewTicker(interval)
		defer checks.Stop()
		elapsed := time.NewTicker(tick)
		defer elapsed.Stop()

		for {
			select {
			case <-t.stop:
				return
			case <-ctx.Done():
				return
			case <-elapsed.C:
				t.mu.Lock()
				t.state.ElapsedSeconds++
				t.mu.Unlock()
			case <-checks.C:
				if check(ctx) {
					t.finish()
					return
				}
			}
		}
	})

	return t
}

func (t *WaitTask) finish() {
	t.mu.Lock()
	t.state.Done = true
	t.mu.Unlock()
	close(t.done)
}

// Stop cancels the session. It never errors and is idempotent.
func (t *WaitTask) Stop() {
	t.stopOnce.Do(func() {
		close(t.stop)
	})
}

// Done is closed once a check observes the derived file.
func (t *WaitTask) Done() <-chan struct{} {
	return t.done
}

// State returns a snapshot of the session's progress.
func (t *WaitTask) State() VerificationState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
