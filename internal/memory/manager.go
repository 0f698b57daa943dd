// Package memory accounts the rendered size of live session documents
// against a fixed budget.
package memory

import (
	"errors"
	"fmt"
	"sync"
)

var ErrOverBudget = errors.New("memory budget exceeded")

// Manager tracks bytes per session id
type Manager struct {
	maxBytes   int64
	usage      int64
	sessions   map[string]int64
	thresholds Thresholds
	mu         sync.RWMutex
}

// Config defines memory manager configuration
type Config struct {
	MaxMemoryMB          int // Maximum memory in MB
	WarningThresholdPct  int // Warning threshold percentage
	CriticalThresholdPct int // Critical threshold percentage
}

// Thresholds defines memory usage thresholds
type Thresholds struct {
	WarningBytes  int64
	CriticalBytes int64
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		MaxMemoryMB:          100,
		WarningThresholdPct:  75,
		CriticalThresholdPct: 90,
	}
}

// NewManager creates a new memory manager
func NewManager(config *Config) *Manager {
	if config == nil {
		config = DefaultConfig()
	}
	maxBytes := int64(config.MaxMemoryMB) * 1024 * 1024
	return &Manager{
		maxBytes: maxBytes,
		sessions: make(map[string]int64),
		thresholds: Thresholds{
			WarningBytes:  maxBytes * int64(config.WarningThresholdPct) / 100,
			CriticalBytes: maxBytes * int64(config.CriticalThresholdPct) / 100,
		},
	}
}

// Allocate admits a new session of the given size. Sessions are refused
// once usage reaches the critical threshold or would pass the limit.
func (m *Manager) Allocate(id string, size int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; exists {
		return fmt.Errorf("session already allocated: %s", id)
	}
	if m.usage >= m.thresholds.CriticalBytes || m.usage+size > m.maxBytes {
		return fmt.Errorf("%w: %d + %d > %d", ErrOverBudget, m.usage, size, m.maxBytes)
	}
	m.sessions[id] = size
	m.usage += size
	return nil
}

// Update records the current size of an admitted session. Limits apply at
// admission only.
func (m *Manager) Update(id string, size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, exists := m.sessions[id]
	if !exists {
		return
	}
	m.sessions[id] = size
	m.usage += size - old
}

// Release forgets a session.
func (m *Manager) Release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if size, exists := m.sessions[id]; exists {
		m.usage -= size
		delete(m.sessions, id)
	}
}

// Usage returns the recorded size of id.
func (m *Manager) Usage(id string) (int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	size, ok := m.sessions[id]
	return size, ok
}

// Status contains memory usage information
type Status struct {
	CurrentUsage   int64   `json:"current_usage"`
	MaxMemory      int64   `json:"max_memory"`
	UsagePercent   float64 `json:"usage_percentage"`
	Level          string  `json:"level"` // "OK", "WARNING", "CRITICAL"
	Sessions       int     `json:"sessions"`
	AverageSession int64   `json:"average_session"`
}

// GetStatus returns current memory usage status
func (m *Manager) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := Status{
		CurrentUsage: m.usage,
		MaxMemory:    m.maxBytes,
		Sessions:     len(m.sessions),
		Level:        "OK",
	}
	if m.maxBytes > 0 {
		status.UsagePercent = float64(m.usage) / float64(m.maxBytes) * 100
	}
	switch {
	case m.usage >= m.thresholds.CriticalBytes:
		status.Level = "CRITICAL"
	case m.usage >= m.thresholds.WarningBytes:
		status.Level = "WARNING"
	}
	if len(m.sessions) > 0 {
		status.AverageSession = m.usage / int64(len(m.sessions))
	}
	return status
}

// IsAtCapacity reports whether new sessions would be refused.
func (m *Manager) IsAtCapacity() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.usage >= m.thresholds.CriticalBytes
}
