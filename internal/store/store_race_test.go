package store

import (
	"sync"
	"testing"
)

// TestJournal_ConcurrentRecord 测试并发记录回报的安全性
func TestJournal_ConcurrentRecord(t *testing.T) {
	j := New(64, nil)

	var wg sync.WaitGroup
	operations := 100

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < operations; k++ {
				j.Record(filledReport("1", "100", 1))
			}
		}()
	}

	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < operations; k++ {
				_ = j.Stats()
				_ = j.Recent(10)
			}
		}()
	}

	wg.Wait()

	if got := j.Stats().Total; got != 500 {
		t.Fatalf("expected 500 records, got %d", got)
	}
}
