package cache

import (
	"context"
	"testing"
	"time"

	"github.com/terra-clan/compliance-engine/internal/models"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	got, err := m.Get(ctx, "missing")
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil on miss, got %v %v", got, err)
	}

	report := &models.Report{FrameworkID: "cmmc", OverallScore: 67}
	if err := m.Set(ctx, "k", report); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err = m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.OverallScore != 67 {
		t.Errorf("expected cached report, got %+v", got)
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	_ = m.Set(ctx, "k", &models.Report{})
	if got, _ := m.Get(ctx, "k"); got == nil {
		t.Fatal("expected entry before expiry")
	}

	now = now.Add(2 * time.Minute)
	if got, _ := m.Get(ctx, "k"); got != nil {
		t.Error("expected entry to expire")
	}
	if m.Len() != 0 {
		t.Errorf("expected expired entry to be evicted, got %d", m.Len())
	}
}

func TestMemoryClose(t *testing.T) {
	m := NewMemory(0)
	_ = m.Set(context.Background(), "k", &models.Report{})
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("expected empty cache after close, got %d", m.Len())
	}
}
