// Package cache stores computed reports keyed by a digest of their inputs.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/terra-clan/compliance-engine/internal/models"
)

// ReportCache stores reports by content key. A miss returns nil, nil.
type ReportCache interface {
	Get(ctx context.Context, key string) (*models.Report, error)
	Set(ctx context.Context, key string, report *models.Report) error
	HealthCheck(ctx context.Context) error
	Close() error
}

// Memory is an in-process ReportCache used when Redis is not configured
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	report    *models.Report
	expiresAt time.Time
}

// NewMemory creates an in-process cache. ttl <= 0 keeps entries forever.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the cached report for key
func (m *Memory) Get(_ context.Context, key string) (*models.Report, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, nil
	}
	return e.report, nil
}

// Set stores a report under key
func (m *Memory) Set(_ context.Context, key string, report *models.Report) error {
	e := memoryEntry{report: report}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// HealthCheck always succeeds
func (m *Memory) HealthCheck(context.Context) error { return nil }

// Close drops all entries
func (m *Memory) Close() error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}
