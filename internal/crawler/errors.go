package crawler

import (
	"errors"
	"fmt"
)

// Kind 把采集链路里的失败归为固定几类，调用方据此区分
// “预期内可恢复”与“不应出现”的错误，而不是统一吞掉
type Kind int

const (
	KindUnknown Kind = iota
	KindFetch        // 网络 / 超时 / 非 2xx
	KindParse        // 单条原始数据格式异常
	KindValidation   // 标题过短、URL 缺少 scheme 等
	KindConfig       // 未知采集器类型、缺少必填配置
	KindOracle       // AI 打分服务不可用或超时
)

func (k Kind) String() string {
	switch k {
	case KindFetch:
		return "fetch"
	case KindParse:
		return "parse"
	case KindValidation:
		return "validation"
	case KindConfig:
		return "config"
	case KindOracle:
		return "oracle"
	default:
		return "unknown"
	}
}

// Error 携带错误类别与来源名的采集错误
type Error struct {
	Kind   Kind
	Source string
	Err    error
}

func (e *Error) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s [%s]: %v", e.Kind, e.Source, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf 提取错误类别，非 *Error 时返回 KindUnknown
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// NewConfigError 构造配置类错误，便于各采集器在构造时 fail fast
func NewConfigError(source, format string, args ...any) error {
	return &Error{Kind: KindConfig, Source: source, Err: fmt.Errorf(format, args...)}
}
