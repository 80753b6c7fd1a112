package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

const (
	LogFileName  = "screen_cleave_debug.log"
	maxSizeBytes = 10 * 1024 * 1024 // 10 MB
	maxArchives  = 3
)

// Setup enables file logging with size-based rotation (10MB, max 3 archives)
// in the working directory. When disabled, logs are discarded so stdout stays
// clean for --monitor-list and error output.
func Setup(enableFileLogging bool) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if !enableFileLogging {
		log.SetOutput(io.Discard)
		return
	}
	w, err := openRotating(LogFileName, maxSizeBytes, maxArchives)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		return
	}
	log.SetOutput(w)
}

// rotatingWriter appends to path and rotates it to path.1 .. path.N once the
// next write would exceed maxSize. log.Logger serializes calls to Write.
type rotatingWriter struct {
	f        *os.File
	path     string
	maxSize  int64
	archives int
}

func openRotating(path string, maxSize int64, archives int) (*rotatingWriter, error) {
	w := &rotatingWriter{path: path, maxSize: maxSize, archives: archives}
	if st, err := os.Stat(path); err == nil && st.Size() > maxSize {
		w.rotate()
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *rotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return err
	}
	w.f = f
	return nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	if st, err := w.f.Stat(); err == nil && st.Size() > 0 && st.Size()+int64(len(p)) > w.maxSize {
		_ = w.f.Close()
		w.rotate()
		if err := w.open(); err != nil {
			return 0, err
		}
	}
	return w.f.Write(p)
}

func (w *rotatingWriter) Close() error { return w.f.Close() }

// rotate shifts path.N-1 to path.N, dropping the oldest, then moves the live
// file to path.1.
func (w *rotatingWriter) rotate() {
	_ = os.Remove(w.archive(w.archives))
	for i := w.archives - 1; i >= 1; i-- {
		_ = os.Rename(w.archive(i), w.archive(i+1))
	}
	_ = os.Rename(w.path, w.archive(1))
}

func (w *rotatingWriter) archive(n int) string {
	return filepath.Clean(fmt.Sprintf("%s.%d", w.path, n))
}
