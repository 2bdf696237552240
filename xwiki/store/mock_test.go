package store

import (
	"context"
	"io/fs"
	"path/filepath"
	"sync"
	"time"
)

// memFS is an in-memory FileSystem with injectable failures.
type memFS struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  []string

	ReadFileError  error
	WriteFileError error
	RenameError    error
}

func newMemFS() *memFS {
	return &memFS{files: map[string][]byte{}}
}

type memFileInfo struct {
	name string
	size int64
}

func (fi memFileInfo) Name() string       { return fi.name }
func (fi memFileInfo) Size() int64        { return fi.size }
func (fi memFileInfo) Mode() fs.FileMode  { return 0o644 }
func (fi memFileInfo) ModTime() time.Time { return time.Time{} }
func (fi memFileInfo) IsDir() bool        { return false }
func (fi memFileInfo) Sys() any           { return nil }

func (m *memFS) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return memFileInfo{name: filepath.Base(name), size: int64(len(content))}, nil
}

func (m *memFS) ReadFile(name string) ([]byte, error) {
	if m.ReadFileError != nil {
		return nil, m.ReadFileError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return append([]byte(nil), content...), nil
}

func (m *memFS) WriteFile(name string, data []byte, _ fs.FileMode) error {
	if m.WriteFileError != nil {
		return m.WriteFileError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = append([]byte(nil), data...)
	return nil
}

func (m *memFS) Rename(oldpath, newpath string) error {
	if m.RenameError != nil {
		return m.RenameError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[oldpath]
	if !ok {
		return fs.ErrNotExist
	}
	m.files[newpath] = content
	delete(m.files, oldpath)
	return nil
}

func (m *memFS) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; !ok {
		return fs.ErrNotExist
	}
	delete(m.files, name)
	return nil
}

func (m *memFS) MkdirAll(path string, _ fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs = append(m.dirs, path)
	return nil
}

func (m *memFS) exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[name]
	return ok
}

// fakeLock counts lock calls; a held lock is reported as busy.
type fakeLock struct {
	mu         sync.Mutex
	held       bool
	err        error
	locks      int
	unlocks    int
	alwaysBusy bool
}

func (l *fakeLock) TryLockContext(context.Context, time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locks++
	if l.err != nil {
		return false, l.err
	}
	if l.held || l.alwaysBusy {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *fakeLock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unlocks++
	l.held = false
	return nil
}

type fakeLockFactory struct {
	lock  *fakeLock
	paths []string
}

func (f *fakeLockFactory) New(path string) FileLock {
	f.paths = append(f.paths, path)
	return f.lock
}
