package mockFileSync

import (
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sort"
	"sync"
)

//MockRemote keeps the remote files in memory
type MockRemote struct {
	mu    sync.Mutex
	Files map[string][]byte
	//names listed here fail with a programmed error
	FailFetch  map[string]bool
	FailRemove map[string]bool
	//if set, List fails
	FailList bool
	fetches  int
}

func NewMockRemote(files map[string][]byte) *MockRemote {
	if files == nil {
		files = make(map[string][]byte)
	}
	return &MockRemote{Files: files, FailFetch: make(map[string]bool), FailRemove: make(map[string]bool)}
}

func (m *MockRemote) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailList {
		return nil, fmt.Errorf("programmed list failure")
	}
	names := make([]string, 0, len(m.Files))
	for name := range m.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MockRemote) Fetch(ctx context.Context, name, localDir string) error {
	m.mu.Lock()
	m.fetches++
	content, ok := m.Files[name]
	fail := m.FailFetch[name]
	m.mu.Unlock()
	if fail {
		//leave a truncated file like an interrupted scp would
		_ = ioutil.WriteFile(filepath.Join(localDir, name), nil, 0644)
		return fmt.Errorf("programmed fetch failure")
	}
	if !ok {
		return fmt.Errorf("no remote file %v", name)
	}
	return ioutil.WriteFile(filepath.Join(localDir, name), content, 0644)
}

func (m *MockRemote) Remove(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRemove[name] {
		return fmt.Errorf("programmed remove failure")
	}
	if _, ok := m.Files[name]; !ok {
		return fmt.Errorf("no remote file %v", name)
	}
	delete(m.Files, name)
	return nil
}

//Fetches returns the number of Fetch calls
func (m *MockRemote) Fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches
}
