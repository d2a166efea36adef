package logger

import (
	"bytes"
	"io"
	"os"
)

// levelScanWindow bounds how far into a line the level marker is searched
const levelScanWindow = 120

// Markers for lines that must not be dropped. The JSON form comes from zerolog,
// the upper-case form from the console writer configured in Init.
var criticalMarkers = [][]byte{
	[]byte(`"level":"warn"`),
	[]byte(`"level":"error"`),
	[]byte(`"level":"fatal"`),
	[]byte(`"level":"panic"`),
	[]byte(" WARN "),
	[]byte(" ERROR "),
	[]byte(" FATAL "),
	[]byte(" PANIC "),
}

// LevelAsyncWriter sends debug and info lines through an AsyncWriter and
// writes warn and above synchronously.
type LevelAsyncWriter struct {
	asyncWriter *AsyncWriter
	syncWriter  io.Writer
}

// NewLevelAsyncWriter creates a new LevelAsyncWriter
func NewLevelAsyncWriter(w io.Writer, bufSize int) *LevelAsyncWriter {
	if w == nil {
		w = os.Stdout
	}
	return &LevelAsyncWriter{
		asyncWriter: NewAsyncWriter(w, bufSize),
		syncWriter:  w,
	}
}

// Write implements io.Writer
func (l *LevelAsyncWriter) Write(p []byte) (n int, err error) {
	if isCritical(p) {
		return l.syncWriter.Write(p)
	}
	return l.asyncWriter.Write(p)
}

// Dropped reports how many non-critical lines were discarded
func (l *LevelAsyncWriter) Dropped() uint64 {
	return l.asyncWriter.Dropped()
}

// Close closes the underlying async writer
func (l *LevelAsyncWriter) Close() error {
	return l.asyncWriter.Close()
}

func isCritical(p []byte) bool {
	header := p
	if len(header) > levelScanWindow {
		header = header[:levelScanWindow]
	}
	for _, m := range criticalMarkers {
		if bytes.Contains(header, m) {
			return true
		}
	}
	return false
}
