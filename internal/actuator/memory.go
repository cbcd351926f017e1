package actuator

import "sync"

// MemoryChannel keeps its state in memory. It backs the memory driver used
// for dry runs and records every write.
type MemoryChannel struct {
	name   string
	ratio  float64
	writes []float64
	offs   int
	closed bool
	mu     sync.Mutex
}

func NewMemoryChannel(name string) *MemoryChannel {
	return &MemoryChannel{name: name}
}

func (m *MemoryChannel) Name() string {
	return m.name
}

func (m *MemoryChannel) SetRatio(ratio float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ratio = ratio
	m.writes = append(m.writes, ratio)

	return nil
}

func (m *MemoryChannel) Off() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ratio = 0
	m.offs++

	return nil
}

func (m *MemoryChannel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true

	return nil
}

// Ratio returns the current drive ratio.
func (m *MemoryChannel) Ratio() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ratio
}

// Writes returns every ratio passed to SetRatio, oldest first.
func (m *MemoryChannel) Writes() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	writes := make([]float64, len(m.writes))
	copy(writes, m.writes)

	return writes
}

// OffCount returns how many times Off was called.
func (m *MemoryChannel) OffCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offs
}

// Closed reports whether Close was called.
func (m *MemoryChannel) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
