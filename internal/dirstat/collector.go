package dirstat

import (
	"context"
	"sync"
	"time"
)

// DefaultProgressInterval is the default interval for progress updates.
const DefaultProgressInterval = 500 * time.Millisecond

// collector gathers records from concurrent fastwalk callbacks using a mutex.
type collector struct {
	mu         sync.Mutex // Protect concurrent access
	records    []Record
	fileCount  int64
	totalBytes int64
}

func newCollector() *collector {
	return &collector{records: make([]Record, 0, 1024)}
}

// add stores a record. This operation is protected by a mutex
// since fastwalk calls the callback from multiple goroutines concurrently.
func (c *collector) add(r Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records = append(c.records, r)

	if r.Err == nil && r.Kind == KindFile {
		c.fileCount++
		c.totalBytes += r.Size
	}
}

// progress returns the running file count and byte total.
func (c *collector) progress() (int64, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fileCount, c.totalBytes
}

// finalize hands over the collected records.
func (c *collector) finalize() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	records := c.records
	c.records = nil

	return records
}

// startProgressReporter invokes hook(files, bytes) on each tick until ctx is done.
//
//nolint:varnamelen // c is idiomatic for collector
func startProgressReporter(ctx context.Context, c *collector, hook func(int64, int64), interval time.Duration) {
	if hook == nil {
		return
	}

	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hook(c.progress())
			case <-ctx.Done():
				return
			}
		}
	}()
}
