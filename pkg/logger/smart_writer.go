package logger

import (
	"bufio"
	"bytes"
	"io"
	"sync"
	"time"
)

const smartBufferSize = 256 * 1024

// Lines at these levels reach the sink before Write returns.
var urgentLevels = [][]byte{
	[]byte(`"level":"error"`),
	[]byte(`"level":"fatal"`),
	[]byte(`"level":"panic"`),
}

// SmartWriter batches zerolog JSON lines in a 256KB buffer. The buffer drains
// on a fixed interval, when it fills, on Sync or Close, and right away for
// error, fatal and panic lines.
type SmartWriter struct {
	mu       sync.Mutex
	sink     *bufio.Writer
	interval time.Duration

	done      chan struct{}
	closeOnce sync.Once
	flusher   sync.WaitGroup
}

func NewSmartWriter(w io.Writer, interval time.Duration) *SmartWriter {
	sw := &SmartWriter{
		sink:     bufio.NewWriterSize(w, smartBufferSize),
		interval: interval,
		done:     make(chan struct{}),
	}
	sw.flusher.Add(1)
	go sw.loop()
	return sw
}

func (sw *SmartWriter) Write(p []byte) (int, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	n, err := sw.sink.Write(p)
	if err == nil && isUrgent(p) {
		err = sw.sink.Flush()
	}
	return n, err
}

// Sync pushes buffered lines to the sink
func (sw *SmartWriter) Sync() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.sink.Flush()
}

// Close stops the interval flusher and drains. Safe to call more than once.
func (sw *SmartWriter) Close() error {
	sw.closeOnce.Do(func() {
		close(sw.done)
		sw.flusher.Wait()
	})
	return sw.Sync()
}

func (sw *SmartWriter) loop() {
	defer sw.flusher.Done()
	t := time.NewTicker(sw.interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			_ = sw.Sync()
		case <-sw.done:
			return
		}
	}
}

func isUrgent(p []byte) bool {
	for _, lvl := range urgentLevels {
		if bytes.Contains(p, lvl) {
			return true
		}
	}
	return false
}
