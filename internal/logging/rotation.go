package logging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const (
	defaultLogMaxSizeMB  = 10
	defaultLogMaxBackups = 3
)

// RotatingWriter appends to a log file and renames it to name.1 (shifting
// older copies up to name.N) once it would grow past the size limit.
type RotatingWriter struct {
	mu         sync.Mutex
	file       *os.File
	path       string
	limit      int64
	maxBackups int
	size       int64
}

// NewRotatingWriter opens path for appending, creating its directory.
// Non-positive limits fall back to 10 MB and 3 backups.
func NewRotatingWriter(path string, maxSizeMB, maxBackups int) (*RotatingWriter, error) {
	if maxSizeMB <= 0 {
		maxSizeMB = defaultLogMaxSizeMB
	}
	if maxBackups <= 0 {
		maxBackups = defaultLogMaxBackups
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	rw := &RotatingWriter{
		path:       path,
		limit:      int64(maxSizeMB) << 20,
		maxBackups: maxBackups,
	}
	if err := rw.open(); err != nil {
		return nil, err
	}
	return rw, nil
}

// Path returns the active log file.
func (rw *RotatingWriter) Path() string { return rw.path }

func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return 0, fs.ErrClosed
	}
	if rw.size > 0 && rw.size+int64(len(p)) > rw.limit {
		if err := rw.rotate(); err != nil {
			return 0, fmt.Errorf("log rotation: %w", err)
		}
	}
	n, err := rw.file.Write(p)
	rw.size += int64(n)
	return n, err
}

func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return nil
	}
	err := rw.file.Close()
	rw.file = nil
	return err
}

func (rw *RotatingWriter) open() error {
	f, err := os.OpenFile(rw.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	rw.file, rw.size = f, info.Size()
	return nil
}

func (rw *RotatingWriter) rotate() error {
	_ = rw.file.Close()
	rw.file = nil

	if err := os.Remove(rw.backup(rw.maxBackups)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove oldest backup: %w", err)
	}
	for i := rw.maxBackups; i >= 1; i-- {
		if err := os.Rename(rw.backup(i-1), rw.backup(i)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("shift %s: %w", rw.backup(i-1), err)
		}
	}
	return rw.open()
}

// backup(0) is the active file.
func (rw *RotatingWriter) backup(i int) string {
	if i == 0 {
		return rw.path
	}
	return fmt.Sprintf("%s.%d", rw.path, i)
}
