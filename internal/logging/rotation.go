package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// FileSink is a size-rotated log file. It implements io.Writer, is safe
// for concurrent use, and keeps a bounded chain of numbered backups so a
// long-lived bridge cannot fill the disk of the workstation it runs on.
type FileSink struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	maxSize int64
	backups int
	written int64
}

const (
	defaultMaxLogMB   = 20
	defaultLogBackups = 2
)

// NewFileSink opens (creating if needed) a rotated log file. Zero or
// negative limits fall back to the defaults.
func NewFileSink(path string, maxSizeMB, backups int) (*FileSink, error) {
	if maxSizeMB <= 0 {
		maxSizeMB = defaultMaxLogMB
	}
	if backups <= 0 {
		backups = defaultLogBackups
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	s := &FileSink{
		path:    path,
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		backups: backups,
	}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

// Write appends to the current file, rotating first when the write would
// push it past the size limit.
func (s *FileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.written+int64(len(p)) > s.maxSize {
		if err := s.rotate(); err != nil {
			return 0, fmt.Errorf("log rotation: %w", err)
		}
	}
	n, err := s.file.Write(p)
	s.written += int64(n)
	return n, err
}

// Reopen closes and reopens the current file, for SIGHUP-style handoff to
// external log management.
func (s *FileSink) Reopen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		s.file.Close()
	}
	return s.open()
}

// Close releases the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// Tee writes to the sink and a second writer (typically stderr) at once.
func (s *FileSink) Tee(other io.Writer) io.Writer {
	return io.MultiWriter(other, s)
}

func (s *FileSink) open() error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	s.file = f
	s.written = info.Size()
	return nil
}

// rotate shifts the backup chain up one slot (the oldest falls off) and
// starts a fresh file at the base path.
func (s *FileSink) rotate() error {
	if s.file != nil {
		s.file.Close()
	}

	os.Remove(s.numbered(s.backups))
	for i := s.backups - 1; i >= 1; i-- {
		os.Rename(s.numbered(i), s.numbered(i+1))
	}
	os.Rename(s.path, s.numbered(1))

	return s.open()
}

func (s *FileSink) numbered(index int) string {
	return fmt.Sprintf("%s.%d", s.path, index)
}
