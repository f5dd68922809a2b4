package mocks

import "sync"

// Recorder is a mock ports.Recorder that counts observations.
type Recorder struct {
	mu          sync.Mutex
	Resolutions map[string]int
	WriteBacks  map[string]int
}

// NewRecorder creates a new mock Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		Resolutions: make(map[string]int),
		WriteBacks:  make(map[string]int),
	}
}

// ObserveResolution counts operation/source pairs as "operation:source".
func (m *Recorder) ObserveResolution(operation, source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Resolutions[operation+":"+source]++
}

// ObserveWriteBack counts write-back results.
func (m *Recorder) ObserveWriteBack(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteBacks[result]++
}

// Resolution returns the count for an operation/source pair.
func (m *Recorder) Resolution(operation, source string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Resolutions[operation+":"+source]
}

// WriteBack returns the count for a write-back result.
func (m *Recorder) WriteBack(result string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.WriteBacks[result]
}
