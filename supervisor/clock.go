package supervisor

import (
	"context"
	"time"
)

// Clock 抽象时间便于测试。Sleep 必须响应 ctx 取消，
// 定时撤单的等待是监护循环里唯一的阻塞点。
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SystemClock 默认时钟。
var SystemClock Clock = realClock{}
