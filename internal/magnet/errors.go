package magnet

import (
	"errors"
	"fmt"

	"github.com/gausby/magnet/internal/domain"
)

const (
	// ErrCodeInvalidPriority 表示 key 的 priority 后缀不是 ".<非负十进制整数>"。
	ErrCodeInvalidPriority = domain.ErrCodeInvalidPriority
	// ErrCodeInvalidLength 表示 xl 的值不是十进制整数。
	ErrCodeInvalidLength = domain.ErrCodeInvalidLength
	// ErrCodeUnrecognizedKey 表示 key 不属于任何已知形态。
	ErrCodeUnrecognizedKey = domain.ErrCodeUnrecognizedKey
	// ErrCodeMalformedInput 表示上游切分/解码失败（本包只透传，不生成语义错误）。
	ErrCodeMalformedInput = domain.ErrCodeMalformedInput
)

var (
	// ErrAborted 表示 Accumulator 已被 Abort，不会再产出 Magnet。
	ErrAborted = errors.New("magnet: accumulator aborted")
	// ErrFinalized 表示 Accumulator 已经 Finalize 过一次。
	ErrFinalized = errors.New("magnet: accumulator already finalized")
)

// Error 是解码阶段的结构化错误（带 error_code）。
type Error struct {
	Code  string
	Key   string
	Value string
	Err   error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeInvalidPriority:
		return fmt.Sprintf("%s：key %q 的 priority 后缀无效", e.Code, e.Key)
	case ErrCodeInvalidLength:
		return fmt.Sprintf("%s：xl=%q 不是整数", e.Code, e.Value)
	case ErrCodeUnrecognizedKey:
		return fmt.Sprintf("%s：无法识别的 key %q", e.Code, e.Key)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
