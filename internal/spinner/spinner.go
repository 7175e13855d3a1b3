// Package spinner provides a terminal activity indicator for long-running
// operations such as model loading.
package spinner

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var frames = []byte{'-', '/', '|', '\\'}

// Spinner animates a single-line terminal spinner on a background goroutine.
// Stop blocks until the goroutine has exited and the line is erased, so the
// spinner never races with output written after Stop returns.
type Spinner struct {
	out     io.Writer
	message string
	delay   time.Duration
	done    chan struct{}
	stopped chan struct{}
	stop    sync.Once
}

// New creates a spinner that writes to out. A zero delay selects 100ms.
func New(out io.Writer, message string, delay time.Duration) *Spinner {
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	return &Spinner{
		out:     out,
		message: message,
		delay:   delay,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins the animation. It must be called at most once.
func (s *Spinner) Start() {
	go s.spin()
}

// Stop halts the animation, waits for the goroutine to exit, and clears
// the spinner line. Stop is idempotent; calls after the first return
// immediately.
func (s *Spinner) Stop() {
	s.stop.Do(func() {
		close(s.done)
		<-s.stopped
		fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", len(s.message)+2))
	})
}

func (s *Spinner) spin() {
	defer close(s.stopped)
	ticker := time.NewTicker(s.delay)
	defer ticker.Stop()

	i := 0
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			fmt.Fprintf(s.out, "\r%s %c", s.message, frames[i%len(frames)])
			i++
		}
	}
}
