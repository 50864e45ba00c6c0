package async

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingLogger struct {
	ch chan string
}

func (l *recordingLogger) Error(format string, args ...any) {
	l.ch <- fmt.Sprintf(format, args...)
}

func TestGoRunsFunction(t *testing.T) {
	done := make(chan struct{})
	Go(nil, "transfer", func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("function never ran")
	}
}

func TestGoReportsPanic(t *testing.T) {
	logger := &recordingLogger{ch: make(chan string, 1)}
	Go(logger, "derive-wait", func() { panic("poller blew up") })

	select {
	case msg := <-logger.ch:
		assert.Contains(t, msg, "derive-wait")
		assert.Contains(t, msg, "poller blew up")
	case <-time.After(time.Second):
		t.Fatal("panic was not reported")
	}
}

func TestGoSurvivesPanicWithoutLogger(t *testing.T) {
	started := make(chan struct{})
	Go(nil, "transfer", func() {
		close(started)
		panic("unreported")
	})
	<-started
	// The test fails by crashing the process if the panic escapes the guard.
	time.Sleep(10 * time.Millisecond)
}
