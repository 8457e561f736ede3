package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RSyncWrite is a rotable and concurrent safe file-based logs writer.
// It is aimed to be used by the zap file core so it implements the
// zapcore.WriteSyncer interface. A new file is started once the current
// one would grow beyond the max size (in megabytes).
type RSyncWrite struct {
	sync.Mutex
	clock  Clocker
	file   *os.File
	folder string
	max    int64
	size   int64
	isProd bool
}

// NewRSyncWriter provides a writer which lazily opens its first file.
func NewRSyncWriter(config *Config, clock Clocker) *RSyncWrite {
	max := config.LogMaxSize
	if max <= 0 {
		max = 10
	}
	return &RSyncWrite{
		clock:  clock,
		folder: config.LogFolder,
		max:    int64(max) * 1048576,
		isProd: config.IsProduction,
	}
}

// Close closes the current log file.
func (rsw *RSyncWrite) Close() error {
	rsw.Lock()
	defer rsw.Unlock()
	if rsw.file == nil {
		return nil
	}
	err := rsw.file.Close()
	rsw.file = nil
	return err
}

// Sync commits the current log file content to disk.
func (rsw *RSyncWrite) Sync() error {
	rsw.Lock()
	defer rsw.Unlock()
	if rsw.file == nil {
		return nil
	}
	return rsw.file.Sync()
}

// Write implements the io.Writer interface with file rotation on max size.
func (rsw *RSyncWrite) Write(p []byte) (int, error) {
	rsw.Lock()
	defer rsw.Unlock()
	pLen := int64(len(p))
	if pLen > rsw.max {
		return 0, fmt.Errorf("logging: log size %d exceeds max file size %d", pLen, rsw.max)
	}
	if rsw.file == nil || pLen+rsw.size > rsw.max {
		if err := rsw.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := rsw.file.Write(p)
	rsw.size += int64(n)
	return n, err
}

func (rsw *RSyncWrite) rotate() error {
	if rsw.file != nil {
		if err := rsw.file.Close(); err != nil {
			return err
		}
		rsw.file = nil
	}
	if err := os.MkdirAll(rsw.folder, 0o700); err != nil {
		return err
	}
	path := CreateLogFilePath(rsw.folder, rsw.isProd, rsw.clock.Now())
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return err
	}
	rsw.file = file
	rsw.size = info.Size()
	return nil
}

// CreateLogFilePath returns the path of a log file started at t.
// Files started within the same second share the same path.
func CreateLogFilePath(folder string, isProd bool, t time.Time) string {
	envKey := "dev"
	if isProd {
		envKey = "prod"
	}
	name := fmt.Sprintf("library.%04d%02d%02d.%02d%02d%02d.%s.log", t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), envKey)
	return filepath.Join(folder, name)
}
