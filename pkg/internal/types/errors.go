package types

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误类型，序列化为响应体中的 type 字段.
type Kind string

const (
	KindUnknownTag         Kind = "UnknownTag"
	KindFileTooLarge       Kind = "FileTooLarge"
	KindFileTypeNotAllowed Kind = "FileTypeNotAllowed"
	KindFailedToReceive    Kind = "FailedToReceive"
	KindMissingData        Kind = "MissingData"
	KindProbeError         Kind = "ProbeError"
	KindNotFound           Kind = "NotFound"
	KindDatabaseError      Kind = "DatabaseError"
	KindIOError            Kind = "IOError"
	KindBlockingError      Kind = "BlockingError"
	KindS3Error            Kind = "S3Error"
	KindRateLimited        Kind = "RateLimited"
)

// Error 业务错误，携带类型与内部原因；原因只写日志，不返回给客户端.
type Error struct {
	Kind    Kind
	MaxSize int64
	Err     error
}

// ErrorBody 错误响应体.
type ErrorBody struct {
	Type    Kind   `json:"type"`
	MaxSize *int64 `json:"max_size,omitempty"`
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Kind == KindFileTooLarge {
		msg = fmt.Sprintf("%s (max_size=%d)", msg, e.MaxSize)
	}

	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}

	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 按类型比较，便于 errors.Is(err, types.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.Kind == e.Kind
}

// Status 返回对应的 HTTP 状态码.
func (e *Error) Status() int {
	switch e.Kind {
	case KindFailedToReceive, KindFileTypeNotAllowed, KindMissingData, KindUnknownTag:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Body 返回可序列化的响应体.
func (e *Error) Body() ErrorBody {
	body := ErrorBody{Type: e.Kind}
	if e.Kind == KindFileTooLarge {
		maxSize := e.MaxSize
		body.MaxSize = &maxSize
	}

	return body
}

// 哨兵错误，仅用于 errors.Is 比较.
var (
	ErrUnknownTag         = &Error{Kind: KindUnknownTag}
	ErrFileTooLarge       = &Error{Kind: KindFileTooLarge}
	ErrFileTypeNotAllowed = &Error{Kind: KindFileTypeNotAllowed}
	ErrFailedToReceive    = &Error{Kind: KindFailedToReceive}
	ErrMissingData        = &Error{Kind: KindMissingData}
	ErrProbeError         = &Error{Kind: KindProbeError}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrDatabase           = &Error{Kind: KindDatabaseError}
	ErrIO                 = &Error{Kind: KindIOError}
	ErrBlocking           = &Error{Kind: KindBlockingError}
	ErrS3                 = &Error{Kind: KindS3Error}
	ErrRateLimited        = &Error{Kind: KindRateLimited}
)

// NewError 用给定类型包装内部错误.
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// FileTooLarge 返回超出标签上限的错误.
func FileTooLarge(maxSize int64) *Error {
	return &Error{Kind: KindFileTooLarge, MaxSize: maxSize}
}

// AsError 提取 *Error；其它错误视为 IOError.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return NewError(KindIOError, err)
}
