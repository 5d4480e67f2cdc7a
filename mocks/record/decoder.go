package mockRecord

import (
	"fmt"
	"sync"

	"icrhDiag/record"
	"icrhDiag/schema"
)

//CountingDecoder decodes with record.FileDecoder and counts the calls per path
type CountingDecoder struct {
	mu    sync.Mutex
	calls map[string]int
	//paths listed here fail with a programmed error instead of being decoded
	FailPaths map[string]bool
	//if Hold is set the first decode of HoldPath closes Entered (if set) and waits until Hold is closed
	HoldPath string
	Hold     chan struct{}
	Entered  chan struct{}
	held     bool
}

func NewCountingDecoder() *CountingDecoder {
	return &CountingDecoder{calls: make(map[string]int), FailPaths: make(map[string]bool)}
}

func (m *CountingDecoder) count(path string) error {
	m.mu.Lock()
	m.calls[path]++
	fail := m.FailPaths[path]
	hold := m.Hold != nil && path == m.HoldPath && !m.held
	if hold {
		m.held = true
	}
	m.mu.Unlock()

	if hold {
		if m.Entered != nil {
			close(m.Entered)
		}
		<-m.Hold
	}
	if fail {
		return &record.DecodeError{Path: path, Cause: record.ErrIOFailure, Err: fmt.Errorf("programmed decoder failure")}
	}
	return nil
}

func (m *CountingDecoder) Decode(path string, s *schema.ChannelSchema, opts ...record.Option) (*record.RawRecord, error) {
	if err := m.count(path); err != nil {
		return nil, err
	}
	return record.FileDecoder{}.Decode(path, s, opts...)
}

func (m *CountingDecoder) DecodeFamily(path string, family []*schema.ChannelSchema, opts ...record.Option) (*record.RawRecord, error) {
	if err := m.count(path); err != nil {
		return nil, err
	}
	return record.FileDecoder{}.DecodeFamily(path, family, opts...)
}

//Calls returns how often path was decoded
func (m *CountingDecoder) Calls(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[path]
}

//TotalCalls returns the number of decode calls over all paths
func (m *CountingDecoder) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}
