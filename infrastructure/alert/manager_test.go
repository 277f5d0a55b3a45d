package alert

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSendLevels(t *testing.T) {
	tests := []struct {
		name   string
		sendFn func(*Manager) error
		want   Level
	}{
		{
			name: "reject warning",
			sendFn: func(m *Manager) error {
				return m.SendWarning("order rejected", map[string]interface{}{"exchange": "okex-swap"})
			},
			want: LevelWarning,
		},
		{
			name: "supervision error",
			sendFn: func(m *Manager) error {
				return m.SendError("supervision failed", nil)
			},
			want: LevelError,
		},
		{
			name: "unknown state critical",
			sendFn: func(m *Manager) error {
				return m.SendCritical("unknown order state", nil)
			},
			want: LevelCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockChannel("mock")
			mgr := NewManager([]Channel{mock}, time.Minute)

			if err := tt.sendFn(mgr); err != nil {
				t.Fatalf("send failed: %v", err)
			}
			if mock.Count() != 1 {
				t.Fatalf("expected 1 alert, got %d", mock.Count())
			}
			a := mock.GetAlerts()[0]
			if a.Level != tt.want {
				t.Errorf("level = %s, want %s", a.Level, tt.want)
			}
			if a.Time.IsZero() {
				t.Error("time should be set")
			}
		})
	}
}

func TestRepeatedRejectThrottled(t *testing.T) {
	// 同一条拒单告警在限流窗口内只发一次，不同消息或级别不受影响
	mock := NewMockChannel("mock")
	mgr := NewManager([]Channel{mock}, time.Minute)

	mgr.SendWarning("order rejected", nil)
	mgr.SendWarning("order rejected", nil)
	if mock.Count() != 1 {
		t.Errorf("repeated reject should be throttled, got %d", mock.Count())
	}

	mgr.SendWarning("supervision failed", nil)
	mgr.SendError("order rejected", nil)
	if mock.Count() != 3 {
		t.Errorf("different message/level should pass, got %d", mock.Count())
	}
}

func TestThrottleWindowExpires(t *testing.T) {
	mock := NewMockChannel("mock")
	mgr := NewManager([]Channel{mock}, 50*time.Millisecond)

	mgr.SendWarning("order rejected", nil)
	time.Sleep(80 * time.Millisecond)
	mgr.SendWarning("order rejected", nil)

	if mock.Count() != 2 {
		t.Errorf("expected 2 alerts after the window expired, got %d", mock.Count())
	}
}

func TestFanOutToAllChannels(t *testing.T) {
	mock1 := NewMockChannel("a")
	mock2 := NewMockChannel("b")
	mgr := NewManager([]Channel{mock1, mock2}, time.Minute)

	if err := mgr.SendError("supervision failed", nil); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if mock1.Count() != 1 || mock2.Count() != 1 {
		t.Errorf("both channels should receive the alert, got %d/%d", mock1.Count(), mock2.Count())
	}
}

func TestPartialChannelFailureIsNotAnError(t *testing.T) {
	broken := NewMockChannel("broken")
	broken.SetShouldError(true)
	ok := NewMockChannel("ok")
	mgr := NewManager([]Channel{broken, ok}, time.Minute)

	if err := mgr.SendError("supervision failed", nil); err != nil {
		t.Errorf("one live channel should be enough: %v", err)
	}
	if ok.Count() != 1 {
		t.Error("live channel should receive the alert")
	}
}

func TestAllChannelsFailing(t *testing.T) {
	broken := NewMockChannel("broken")
	broken.SetShouldError(true)
	mgr := NewManager([]Channel{broken}, time.Minute)

	if err := mgr.SendCritical("unknown order state", nil); err == nil {
		t.Error("expected error when every channel fails")
	}
}

func TestRejectStormCollapsesToOneAlert(t *testing.T) {
	// 并发重发风暴下同一条告警只送达一次
	mock := NewMockChannel("mock")
	mgr := NewManager([]Channel{mock}, time.Minute)

	done := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		go func(id int) {
			mgr.SendWarning("order rejected", map[string]interface{}{"attempt": id})
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	if mock.Count() != 1 {
		t.Errorf("storm should collapse to 1 alert, got %d", mock.Count())
	}
}

func TestLogChannelFormatsSortedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alert.log")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	ch := NewLogChannel("log", f)
	if ch.Name() != "log" {
		t.Errorf("name = %s, want log", ch.Name())
	}
	err = ch.Send(Alert{
		Level:   LevelWarning,
		Message: "order rejected",
		Fields: map[string]interface{}{
			"side":     "BUY",
			"exchange": "okex-swap",
		},
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, `level=WARNING msg="order rejected"`) {
		t.Errorf("unexpected log line: %s", line)
	}
	// 字段按key排序：exchange 在 side 前
	if !strings.Contains(line, "exchange=okex-swap side=BUY") {
		t.Errorf("fields not sorted: %s", line)
	}
}

func TestConsoleChannelAcceptsAllLevels(t *testing.T) {
	ch := NewConsoleChannel("console")
	for _, lvl := range []Level{LevelWarning, LevelError, LevelCritical} {
		err := ch.Send(Alert{Level: lvl, Message: "test", Time: time.Now()})
		if err != nil {
			t.Errorf("Send %s failed: %v", lvl, err)
		}
	}
}
