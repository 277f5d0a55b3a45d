// Package alert 把交易链路的异常扇出到通知通道，
// 按消息限流，避免重发风暴刷爆值班通道。
package alert

import (
	"fmt"
	"sync"
	"time"
)

// Level 告警级别。交易链路只区分三档：
// 拒单类可恢复异常用 WARNING，监护失败用 ERROR，
// 状态词汇表外的回报需要人工介入，用 CRITICAL。
type Level string

const (
	LevelWarning  Level = "WARNING"
	LevelError    Level = "ERROR"
	LevelCritical Level = "CRITICAL"
)

// Alert 一条告警。Fields 携带交易上下文（exchange/instrument/side等）。
type Alert struct {
	Level   Level
	Message string
	Time    time.Time
	Fields  map[string]interface{}
}

// Channel 告警出口。
type Channel interface {
	Name() string
	Send(a Alert) error
}

// Manager 告警管理器：按 级别+消息 限流后扇出到所有通道。
type Manager struct {
	mu       sync.Mutex
	channels []Channel
	lastSent map[string]time.Time
	interval time.Duration
}

// NewManager 创建告警管理器。throttle 是同一条告警的最小重发间隔。
func NewManager(channels []Channel, throttle time.Duration) *Manager {
	return &Manager{
		channels: channels,
		lastSent: make(map[string]time.Time),
		interval: throttle,
	}
}

// send 限流窗口内同一条告警只发一次；全部通道失败才算发送失败。
func (m *Manager) send(a Alert) error {
	if a.Time.IsZero() {
		a.Time = time.Now()
	}

	m.mu.Lock()
	key := string(a.Level) + ":" + a.Message
	if last, ok := m.lastSent[key]; ok && a.Time.Sub(last) < m.interval {
		m.mu.Unlock()
		return nil
	}
	m.lastSent[key] = a.Time
	channels := make([]Channel, len(m.channels))
	copy(channels, m.channels)
	m.mu.Unlock()

	var lastErr error
	delivered := 0
	for _, ch := range channels {
		if err := ch.Send(a); err != nil {
			lastErr = fmt.Errorf("channel %s: %w", ch.Name(), err)
			continue
		}
		delivered++
	}
	if delivered == 0 && lastErr != nil {
		return lastErr
	}
	return nil
}

// SendWarning 拒单等可恢复异常。
func (m *Manager) SendWarning(message string, fields map[string]interface{}) error {
	return m.send(Alert{Level: LevelWarning, Message: message, Fields: fields})
}

// SendError 监护失败。
func (m *Manager) SendError(message string, fields map[string]interface{}) error {
	return m.send(Alert{Level: LevelError, Message: message, Fields: fields})
}

// SendCritical 需要人工介入的异常。
func (m *Manager) SendCritical(message string, fields map[string]interface{}) error {
	return m.send(Alert{Level: LevelCritical, Message: message, Fields: fields})
}
