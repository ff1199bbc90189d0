package cli

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/term"
)

// spinner is a progress indicator for terminals. It is a no-op when the
// destination is not a terminal.
type spinner struct {
	w        io.Writer
	enabled  bool
	stopChan chan struct{}
	stopped  chan struct{}
	done     atomic.Int64
	total    atomic.Int64
}

func newSpinner(w io.Writer) *spinner {
	s := &spinner{w: w}
	if f, ok := w.(*os.File); ok {
		s.enabled = term.IsTerminal(int(f.Fd()))
	}
	return s
}

// start starts the process indicator.
func (s *spinner) start(message string) {
	if !s.enabled {
		return
	}
	s.stopChan = make(chan struct{})
	s.stopped = make(chan struct{})

	go func() {
		defer close(s.stopped)
		for {
			for _, r := range `-\|/` {
				select {
				case <-s.stopChan:
					fmt.Fprint(s.w, "\r\033[K")
					return
				default:
					fmt.Fprintf(s.w, "\r%s %c %d/%d", message, r, s.done.Load(), s.total.Load())
					time.Sleep(100 * time.Millisecond)
				}
			}
		}
	}()
}

// update records progress shown next to the indicator.
func (s *spinner) update(done, total int) {
	s.done.Store(int64(done))
	s.total.Store(int64(total))
}

// stop stops the process indicator and clears its line.
func (s *spinner) stop() {
	if !s.enabled || s.stopChan == nil {
		return
	}
	close(s.stopChan)
	<-s.stopped
	s.stopChan = nil
}
