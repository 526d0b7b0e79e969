package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/tmeier/occuboard/backend/internal/report"
	"github.com/tmeier/occuboard/backend/internal/types"
)

func TestReportCachePutGet(t *testing.T) {
	c := NewReportCache(time.Minute)
	r := &report.Report{Summary: types.ReportSummary{Agents: 3}}

	c.Put("k1", r)

	got := c.Get("k1")
	if got == nil || got.Summary.Agents != 3 {
		t.Errorf("expected cached report back, got %+v", got)
	}
	if c.Get("other") != nil {
		t.Error("expected miss for unknown key")
	}
}

func TestReportCacheExpiry(t *testing.T) {
	c := NewReportCache(10 * time.Millisecond)
	c.Put("k1", &report.Report{})

	if c.Get("k1") == nil {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(20 * time.Millisecond)
	if c.Get("k1") != nil {
		t.Error("expected expired entry to miss")
	}
	if c.Size() != 0 {
		t.Errorf("expected expired entry removed, size %d", c.Size())
	}
}

func TestReportCacheDisabled(t *testing.T) {
	c := NewReportCache(0)
	c.Put("k1", &report.Report{})

	if c.Get("k1") != nil {
		t.Error("expected disabled cache to never hit")
	}
	if c.Size() != 0 {
		t.Errorf("expected disabled cache to stay empty, size %d", c.Size())
	}
}

func TestReportCacheEviction(t *testing.T) {
	c := NewReportCache(time.Hour)
	for i := 0; i < maxEntries+5; i++ {
		c.Put(fmt.Sprintf("k%d", i), &report.Report{})
	}

	if c.Size() != maxEntries {
		t.Errorf("expected size capped at %d, got %d", maxEntries, c.Size())
	}
}

func TestKey(t *testing.T) {
	from := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	to := from.Add(4 * time.Hour)

	base := Key(from, to, time.Hour, types.AgentFilter{})
	tests := []struct {
		name string
		key  string
	}{
		{"different window", Key(from.Add(time.Hour), to, time.Hour, types.AgentFilter{})},
		{"different alignment", Key(from, to, 30*time.Minute, types.AgentFilter{})},
		{"name filter", Key(from, to, time.Hour, types.AgentFilter{Name: "anna"})},
		{"extension filter", Key(from, to, time.Hour, types.AgentFilter{Extension: "1001"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.key == base {
				t.Errorf("expected distinct key, both %q", base)
			}
		})
	}

	if Key(from, to, time.Hour, types.AgentFilter{}) != base {
		t.Error("identical requests must share a key")
	}
}
