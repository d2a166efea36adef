package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// AsyncWriter hands lines to a background goroutine and drops them when the
// queue is full, so a tick never waits on the log sink.
type AsyncWriter struct {
	w         io.Writer
	queue     chan []byte
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Uint64
}

func NewAsyncWriter(w io.Writer, bufSize int) *AsyncWriter {
	if w == nil {
		w = os.Stdout
	}
	aw := &AsyncWriter{
		w:     w,
		queue: make(chan []byte, bufSize),
		done:  make(chan struct{}),
	}
	go aw.drain()
	return aw
}

// Write copies p since zerolog reuses its buffer. Overflow still reports
// success so zerolog does not log the failure itself.
func (a *AsyncWriter) Write(p []byte) (int, error) {
	line := append([]byte(nil), p...)
	select {
	case a.queue <- line:
	default:
		a.dropped.Add(1)
	}
	return len(p), nil
}

func (a *AsyncWriter) drain() {
	defer close(a.done)
	for line := range a.queue {
		_, _ = a.w.Write(line)
	}
}

// Dropped reports how many lines were discarded on overflow
func (a *AsyncWriter) Dropped() uint64 {
	return a.dropped.Load()
}

// Close drains the queue and then writes one warn line with the drop count
func (a *AsyncWriter) Close() error {
	a.closeOnce.Do(func() {
		close(a.queue)
		<-a.done
		if n := a.Dropped(); n > 0 {
			fmt.Fprintf(a.w, `{"level":"warn","time":%q,"dropped":%d,"message":"⚠️ 日志队列溢出，已丢弃部分日志"}`+"\n",
				time.Now().Format(time.RFC3339), n)
		}
	})
	return nil
}
