package store

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/viant/afs"
)

type memoryBackend struct {
	mu      sync.RWMutex
	entries Entries
}

// NewMemoryBackend returns a Backend keeping entries in process memory.
func NewMemoryBackend() Backend {
	return &memoryBackend{}
}

func (m *memoryBackend) Load(_ context.Context) (Entries, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ret := make(Entries, len(m.entries))
	for k, v := range m.entries {
		ret[k] = v
	}
	return ret, nil
}

func (m *memoryBackend) Save(_ context.Context, entries Entries) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(Entries, len(entries))
	for k, v := range entries {
		m.entries[k] = v
	}
	return nil
}

func (m *memoryBackend) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}

// FileBackend persists entries as a JSON snapshot at URL. Any afs scheme
// works; file:// survives restarts, mem:// is handy in tests.
type FileBackend struct {
	URL string
	fs  afs.Service
}

type fileSnapshot struct {
	Entries Entries `json:"entries"`
}

// NewFileBackend creates a file backend; fs defaults to afs.New().
func NewFileBackend(URL string, fs afs.Service) *FileBackend {
	if fs == nil {
		fs = afs.New()
	}
	return &FileBackend{URL: URL, fs: fs}
}

func (f *FileBackend) Load(ctx context.Context) (Entries, error) {
	exists, err := f.fs.Exists(ctx, f.URL)
	if err != nil {
		return nil, err
	}
	if !exists {
		return Entries{}, nil
	}
	data, err := f.fs.DownloadWithURL(ctx, f.URL)
	if err != nil {
		return nil, err
	}
	snap := fileSnapshot{}
	if len(bytes.TrimSpace(data)) == 0 {
		return Entries{}, nil
	}
	if err = json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	if snap.Entries == nil {
		snap.Entries = Entries{}
	}
	return snap.Entries, nil
}

func (f *FileBackend) Save(ctx context.Context, entries Entries) error {
	data, err := json.MarshalIndent(fileSnapshot{Entries: entries}, "", "  ")
	if err != nil {
		return err
	}
	return f.fs.Upload(ctx, f.URL, 0o600, bytes.NewReader(data))
}

func (f *FileBackend) Delete(ctx context.Context) error {
	exists, err := f.fs.Exists(ctx, f.URL)
	if err != nil || !exists {
		return err
	}
	return f.fs.Delete(ctx, f.URL)
}
