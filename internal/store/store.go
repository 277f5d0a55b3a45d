// Package store keeps a bounded journal of final order reports.
package store

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"trade-pilot/order"
)

// EventSink 回报事件回调，通常接结构化日志。
type EventSink func(string, map[string]interface{})

// Entry 一条带时间戳的最终回报。
type Entry struct {
	Time   time.Time
	Report order.Report
}

// Stats 回报聚合统计。
type Stats struct {
	Total          int
	Filled         int
	Cancelled      int
	Rejected       int
	Reissues       int
	FilledQty      decimal.Decimal
	FilledNotional decimal.Decimal
}

// Journal 有界回报日志。超出容量时淘汰最旧条目，聚合统计不受淘汰影响。
type Journal struct {
	mu       sync.RWMutex
	capacity int
	entries  []Entry
	stats    Stats

	sink EventSink
}

// New 创建回报日志。capacity<=0 时取默认1024。
func New(capacity int, sink EventSink) *Journal {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Journal{
		capacity: capacity,
		entries:  make([]Entry, 0, capacity),
		sink:     sink,
	}
}

// Record 记录一条最终回报。
func (j *Journal) Record(rep order.Report) {
	now := time.Now().UTC()
	j.mu.Lock()
	j.entries = append(j.entries, Entry{Time: now, Report: rep})
	if len(j.entries) > j.capacity {
		j.entries = j.entries[len(j.entries)-j.capacity:]
	}

	j.stats.Total++
	switch rep.State {
	case order.StateFilled:
		j.stats.Filled++
	case order.StateCancelConfirmed, order.StateCancelledFilled:
		j.stats.Cancelled++
	case order.StateRejected:
		j.stats.Rejected++
	}
	if rep.Attempts > 1 {
		j.stats.Reissues += rep.Attempts - 1
	}
	if rep.Fill != nil {
		j.stats.FilledQty = j.stats.FilledQty.Add(rep.Fill.FilledQty)
		j.stats.FilledNotional = j.stats.FilledNotional.Add(rep.Fill.FilledNotional)
	}
	j.mu.Unlock()

	j.logEvent("final_report", map[string]interface{}{
		"exchange":   rep.Exchange,
		"instrument": rep.InstrumentID,
		"action":     rep.Action,
		"state":      rep.State,
		"filled_qty": rep.FilledQty().String(),
		"attempts":   rep.Attempts,
		"simulated":  rep.Simulated,
	})
}

// Recent 返回最近n条回报，新在后。n<=0 返回全部。
func (j *Journal) Recent(n int) []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if n <= 0 || n > len(j.entries) {
		n = len(j.entries)
	}
	out := make([]Entry, n)
	copy(out, j.entries[len(j.entries)-n:])
	return out
}

// Stats 当前聚合统计快照。
func (j *Journal) Stats() Stats {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.stats
}

func (j *Journal) logEvent(event string, fields map[string]interface{}) {
	if j == nil || j.sink == nil {
		return
	}
	j.sink(event, fields)
}
