package gemini

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestUsageCounterDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage")
	counter := newUsageCounter(path, 0)

	counter.increment()
	if err := counter.check(); err != nil {
		t.Fatalf("check() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("disabled counter should not write a usage file")
	}
}

func TestUsageCounterEnforcesLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage")
	counter := newUsageCounter(path, 2)

	for i := 0; i < 2; i++ {
		if err := counter.check(); err != nil {
			t.Fatalf("check() before request %d error = %v", i+1, err)
		}
		counter.increment()
	}

	if err := counter.check(); err == nil {
		t.Error("check() should fail once the daily limit is reached")
	}
}

func TestUsageCounterResetsNextDay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage")
	counter := newUsageCounter(path, 1)

	day := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	counter.now = func() time.Time { return day }
	counter.increment()
	if err := counter.check(); err == nil {
		t.Fatal("expected limit error on the same day")
	}

	counter.now = func() time.Time { return day.Add(24 * time.Hour) }
	if err := counter.check(); err != nil {
		t.Errorf("check() on next day error = %v", err)
	}

	counter.increment()
	data, _ := os.ReadFile(path)
	if string(data) != "2026-03-02:1" {
		t.Errorf("usage file = %q, want 2026-03-02:1", data)
	}
}

func TestUsageCounterIgnoresCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage")
	_ = os.WriteFile(path, []byte("garbage"), 0644)

	counter := newUsageCounter(path, 1)
	if err := counter.check(); err != nil {
		t.Errorf("check() error = %v", err)
	}
}
