// Package events 提供进程内的领域事件总线。
// 采集流水线只负责发出“新闻评分超过阈值”的事件，
// 是否推送、往哪推送由订阅方自行决定，与采集解耦。
package events

import (
	"log"
	"sync"
	"time"
)

// ItemScored 一条新闻完成评分且超过推送阈值
type ItemScored struct {
	NewsID     uint
	Title      string
	URL        string
	Source     string
	FinalScore float64
	Priority   string // high / medium / low
	ScoredAt   time.Time
}

// Subscriber 事件处理函数，在发布方的 goroutine 外执行
type Subscriber func(ItemScored)

// Bus 简单的发布订阅总线，订阅在启动阶段完成
type Bus struct {
	mu   sync.RWMutex
	subs []Subscriber
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe 注册订阅者
func (b *Bus) Subscribe(fn Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Publish 异步分发事件，单个订阅者 panic 不影响其它订阅者与发布方
func (b *Bus) Publish(ev ItemScored) {
	b.mu.RLock()
	subs := make([]Subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, fn := range subs {
		fn := fn
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("events: subscriber panic: %v", r)
				}
			}()
			fn(ev)
		}()
	}
}
