package alert

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
)

// LogChannel 把告警写进标准日志，systemd journal 环境下的默认出口。
type LogChannel struct {
	name string
	out  *log.Logger
}

// NewLogChannel 创建日志告警通道。output 为 nil 时写 stderr。
func NewLogChannel(name string, output *os.File) *LogChannel {
	if output == nil {
		output = os.Stderr
	}
	return &LogChannel{
		name: name,
		out:  log.New(output, "alert ", log.LstdFlags|log.LUTC),
	}
}

func (c *LogChannel) Name() string { return c.name }

func (c *LogChannel) Send(a Alert) error {
	c.out.Printf("level=%s msg=%q%s", a.Level, a.Message, formatFields(a.Fields))
	return nil
}

// formatFields 字段按key排序，日志行稳定可grep。
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return b.String()
}

// ConsoleChannel 彩色终端输出，纸面模式下盯盘用。
type ConsoleChannel struct {
	name string
}

// NewConsoleChannel 创建控制台告警通道。
func NewConsoleChannel(name string) *ConsoleChannel {
	return &ConsoleChannel{name: name}
}

func (c *ConsoleChannel) Name() string { return c.name }

var levelColors = map[Level]string{
	LevelWarning:  "\033[33m", // 黄色
	LevelError:    "\033[31m", // 红色
	LevelCritical: "\033[35m", // 紫色
}

func (c *ConsoleChannel) Send(a Alert) error {
	color, ok := levelColors[a.Level]
	if !ok {
		color = "\033[0m"
	}
	fmt.Printf("%s[%s]\033[0m %s %s%s\n",
		color, a.Level, a.Time.Format("15:04:05"), a.Message, formatFields(a.Fields))
	return nil
}

// MockChannel 测试用通道，记录收到的告警。
type MockChannel struct {
	mu     sync.Mutex
	name   string
	alerts []Alert
	fail   bool
}

// NewMockChannel 创建模拟告警通道。
func NewMockChannel(name string) *MockChannel {
	return &MockChannel{name: name}
}

func (c *MockChannel) Name() string { return c.name }

func (c *MockChannel) Send(a Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return fmt.Errorf("mock channel down")
	}
	c.alerts = append(c.alerts, a)
	return nil
}

// GetAlerts 返回收到的全部告警。
func (c *MockChannel) GetAlerts() []Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Alert, len(c.alerts))
	copy(out, c.alerts)
	return out
}

// Count 返回收到的告警数量。
func (c *MockChannel) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.alerts)
}

// SetShouldError 设置通道是否失败。
func (c *MockChannel) SetShouldError(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = fail
}
