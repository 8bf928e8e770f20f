// Package store provides the backends a vocabulary is persisted to.
package store

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// DefaultFile is the file name used when none is configured.
const DefaultFile = "vocab.txt"

// File is a vocabulary file identified by a directory and a file name.
type File struct {
	dir  string
	name string
}

// NewFile returns a backend for dir/name. An empty name means DefaultFile.
// The directory is created lazily by Create.
func NewFile(dir, name string) *File {
	if name == "" {
		name = DefaultFile
	}
	return &File{dir: dir, name: name}
}

// Path returns the full path of the vocabulary file.
func (f *File) Path() string {
	return filepath.Join(f.dir, f.name)
}

// Exists reports whether the vocabulary file is present and is not a directory.
func (f *File) Exists() bool {
	info, err := os.Stat(f.Path())
	return err == nil && !info.IsDir()
}

// Open opens the vocabulary file for reading.
func (f *File) Open() (io.ReadCloser, error) {
	return os.Open(f.Path())
}

// Create makes the directory if needed and truncates the vocabulary file.
func (f *File) Create() (io.WriteCloser, error) {
	if f.dir != "" {
		if err := os.MkdirAll(f.dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating model dir: %w", err)
		}
	}
	return os.Create(f.Path())
}

// Memory keeps the vocabulary file in memory. The content becomes visible to
// Open only once the writer returned by Create is closed.
type Memory struct {
	mu      sync.Mutex
	name    string
	data    []byte
	present bool
}

// NewMemory returns an empty in-memory backend.
func NewMemory(name string) *Memory {
	if name == "" {
		name = DefaultFile
	}
	return &Memory{name: name}
}

// NewMemoryWith returns an in-memory backend already holding data.
func NewMemoryWith(name string, data []byte) *Memory {
	m := NewMemory(name)
	m.data = bytes.Clone(data)
	m.present = true
	return m
}

func (m *Memory) Path() string { return "memory:" + m.name }

func (m *Memory) Exists() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.present
}

func (m *Memory) Open() (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.present {
		return nil, fmt.Errorf("open %s: %w", m.Path(), os.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(m.data))), nil
}

func (m *Memory) Create() (io.WriteCloser, error) {
	return &memoryWriter{m: m}, nil
}

// Bytes returns a copy of the committed content.
func (m *Memory) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return bytes.Clone(m.data)
}

type memoryWriter struct {
	m   *Memory
	buf bytes.Buffer
}

func (w *memoryWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *memoryWriter) Close() error {
	w.m.mu.Lock()
	defer w.m.mu.Unlock()
	w.m.data = bytes.Clone(w.buf.Bytes())
	w.m.present = true
	return nil
}

// backend is the method set File and Memory share.
type backend interface {
	Path() string
	Exists() bool
	Open() (io.ReadCloser, error)
	Create() (io.WriteCloser, error)
}

// Fresh hides whatever b already holds: it reports no saved vocabulary and
// refuses Open until something is written through Create. Saves still land
// on b.
type Fresh struct {
	backend

	mu      sync.Mutex
	written bool
}

// NewFresh wraps b so the existing content is neither read nor parsed.
func NewFresh(b backend) *Fresh {
	return &Fresh{backend: b}
}

func (f *Fresh) Exists() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written && f.backend.Exists()
}

func (f *Fresh) Open() (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.written {
		return nil, fmt.Errorf("open %s: %w", f.Path(), os.ErrNotExist)
	}
	return f.backend.Open()
}

func (f *Fresh) Create() (io.WriteCloser, error) {
	w, err := f.backend.Create()
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.written = true
	f.mu.Unlock()
	return w, nil
}
