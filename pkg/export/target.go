// Package export writes analytics reports to files, object storage and the
// console.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Target creates named report artifacts. Data is only guaranteed to be
// stored once the returned writer is closed without error.
type Target interface {
	Create(ctx context.Context, name string) (io.WriteCloser, error)
}

// DirTarget writes artifacts as files under Dir
type DirTarget struct {
	Dir string
}

func NewDirTarget(dir string) *DirTarget {
	return &DirTarget{Dir: dir}
}

func (t *DirTarget) Create(_ context.Context, name string) (io.WriteCloser, error) {
	if err := os.MkdirAll(t.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(filepath.Join(t.Dir, name))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	return f, nil
}

// MemoryTarget keeps artifacts in memory.
type MemoryTarget struct {
	mu    sync.Mutex
	files map[string][]byte
}

func NewMemoryTarget() *MemoryTarget {
	return &MemoryTarget{files: make(map[string][]byte)}
}

func (t *MemoryTarget) Create(_ context.Context, name string) (io.WriteCloser, error) {
	return &memoryFile{target: t, name: name}, nil
}

// Bytes returns the closed artifact called name
func (t *MemoryTarget) Bytes(name string) ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	data, ok := t.files[name]
	return data, ok
}

// Names returns the stored artifact names in ascending order
func (t *MemoryTarget) Names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.files))
	for name := range t.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type memoryFile struct {
	bytes.Buffer
	target *MemoryTarget
	name   string
}

func (f *memoryFile) Close() error {
	f.target.mu.Lock()
	defer f.target.mu.Unlock()
	f.target.files[f.name] = append([]byte(nil), f.Bytes()...)
	return nil
}
