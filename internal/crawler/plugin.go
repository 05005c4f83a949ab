package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"
	"time"
)

// PluginFactory 第三方采集逻辑的构造函数，签名与内置采集器一致
type PluginFactory func(c SourceConfig) (Crawler, error)

// PluginRegistry 具名插件表。自定义源不再执行配置里的脚本文本，
// 而是引用启动时显式注册的实现，或走下面的子进程边界。
type PluginRegistry struct {
	mu        sync.RWMutex
	factories map[string]PluginFactory
}

func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{factories: map[string]PluginFactory{}}
}

// Register 注册插件，启动阶段调用，采集批次运行期间不应再修改
func (r *PluginRegistry) Register(name string, f PluginFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

func (r *PluginRegistry) lookup(name string) (PluginFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Names 返回已注册的插件名列表
func (r *PluginRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	return names
}

// NewCustomCrawler 构造自定义源采集器：优先查插件表，否则用子进程命令
func NewCustomCrawler(c SourceConfig, registry *PluginRegistry) (Crawler, error) {
	cfg, err := decodeCustomConfig(c)
	if err != nil {
		return nil, err
	}

	if cfg.Plugin != "" {
		if registry == nil {
			return nil, NewConfigError(c.Name, "plugin %q requested but no registry configured", cfg.Plugin)
		}
		factory, ok := registry.lookup(cfg.Plugin)
		if !ok {
			return nil, NewConfigError(c.Name, "plugin %q not registered", cfg.Plugin)
		}
		return factory(c)
	}

	return &ExecCrawler{name: c.Name, cfg: cfg}, nil
}

// ExecCrawler 子进程采集器：在独立进程里运行外部命令并带超时，
// 命令需向 stdout 输出一个 JSON 对象数组，每个对象是一条原始记录。
// 宿主进程不执行任何外部代码，崩溃与死循环都被进程边界隔离。
type ExecCrawler struct {
	name string
	cfg  CustomConfig
}

func (e *ExecCrawler) Name() string { return e.name }
func (e *ExecCrawler) Type() string { return TypeCustom }

func (e *ExecCrawler) Fetch(ctx context.Context) ([]RawRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(e.cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.cfg.Command[0], e.cfg.Command[1:]...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", e.cfg.Command[0], err)
	}

	var records []RawRecord
	if err := json.Unmarshal(out, &records); err != nil {
		return nil, fmt.Errorf("decode plugin output: %w", err)
	}
	return records, nil
}

// Parse 子进程已经输出接近归一化的字段，这里按固定字段名取值
func (e *ExecCrawler) Parse(raw RawRecord) *NewsItem {
	title := stringAt(raw, "title")
	link := stringAt(raw, "url")
	if title == "" || link == "" {
		return nil
	}

	var publishedAt *time.Time
	if s := stringAt(raw, "published_at"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			publishedAt = &t
		}
	}

	return &NewsItem{
		Title:       title,
		URL:         link,
		Content:     stringAt(raw, "content"),
		Summary:     stringAt(raw, "summary"),
		Source:      e.name,
		Author:      stringAt(raw, "author"),
		PublishedAt: publishedAt,
		Metadata:    map[string]any{"plugin_command": e.cfg.Command[0]},
	}
}
