package gemini

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const usageFileName = ".memorahanzi_usage"

// usageCounter keeps a per-day request count in a small file so a free-tier
// quota is not exceeded across runs. A zero limit disables it.
type usageCounter struct {
	mu    sync.Mutex
	path  string
	limit int
	now   func() time.Time
}

func newUsageCounter(path string, limit int) *usageCounter {
	if path == "" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, usageFileName)
	}
	return &usageCounter{path: path, limit: limit, now: time.Now}
}

func (u *usageCounter) check() error {
	if u == nil || u.limit <= 0 {
		return nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	date, count := u.read()
	if date != u.today() {
		return nil
	}
	if count >= u.limit {
		return fmt.Errorf("daily limit of %d requests reached, resets tomorrow", u.limit)
	}
	return nil
}

func (u *usageCounter) increment() {
	if u == nil || u.limit <= 0 {
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	date, count := u.read()
	today := u.today()
	if date != today {
		count = 0
	}
	count++

	_ = os.WriteFile(u.path, []byte(fmt.Sprintf("%s:%d", today, count)), 0644)
}

func (u *usageCounter) read() (string, int) {
	data, err := os.ReadFile(u.path)
	if err != nil {
		return "", 0
	}
	parts := strings.Split(strings.TrimSpace(string(data)), ":")
	if len(parts) != 2 {
		return "", 0
	}
	count, _ := strconv.Atoi(parts[1])
	return parts[0], count
}

func (u *usageCounter) today() string {
	return u.now().Format("2006-01-02")
}
