package apperror

import (
	"errors"
	"fmt"
)

// Kind 错误类别，决定对外暴露的 HTTP 状态码与业务码
type Kind int

const (
	KindUnknown Kind = iota
	NotFound
	Forbidden
	InvalidArgument
	PreconditionFailed
	// Conflict 并发写冲突，由存储层重试，不应暴露给调用方
	Conflict
	// Unavailable 存储或网络故障，调用方可退避重试
	Unavailable
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	case InvalidArgument:
		return "invalid_argument"
	case PreconditionFailed:
		return "precondition_failed"
	case Conflict:
		return "conflict"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error 带类别的业务错误
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 创建指定类别的错误
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap 以指定类别包装底层错误
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf 返回错误链中第一个 *Error 的类别
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is 判断错误是否属于某类别
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
