// Package errdefs defines the error kinds surfaced by the archive pipeline.
//
// Every error produced by the core carries one of the sentinel kinds below so
// callers can branch with errors.Is without string matching, while the
// underlying cause (provider error, context cancellation, I/O error) stays
// reachable through the same chain.
package errdefs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration 缺失或非法的桶、区域、凭证等配置，在任何网络访问之前返回
	ErrConfiguration = errors.New("configuration error")
	// ErrListing 列举调用失败，终止整个打包
	ErrListing = errors.New("listing error")
	// ErrFetch 单个对象拉取失败
	ErrFetch = errors.New("fetch error")
	// ErrInvalidState 以错误的顺序调用归档写入器
	ErrInvalidState = errors.New("invalid state")
	// ErrNoSuchBucket 数据源报告桶不存在，与 ErrListing 一起出现
	ErrNoSuchBucket = errors.New("no such bucket")
)

// Error 携带操作上下文的错误
type Error struct {
	// Kind 是上面的哨兵错误之一
	Kind error
	// Op 失败的操作，例如 "list"、"open"、"BeginEntry"
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	switch {
	case e.Bucket != "" && e.Key != "":
		fmt.Fprintf(&b, " %s/%s", e.Bucket, e.Key)
	case e.Bucket != "":
		fmt.Fprintf(&b, " bucket %s", e.Bucket)
	case e.Key != "":
		fmt.Fprintf(&b, " %s", e.Key)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap 同时暴露错误类别与底层原因
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Configuration(format string, args ...interface{}) error {
	return &Error{Kind: ErrConfiguration, Err: fmt.Errorf(format, args...)}
}

func Listing(bucket string, err error) error {
	return &Error{Kind: ErrListing, Op: "list", Bucket: bucket, Err: err}
}

func Fetch(op, bucket, key string, err error) error {
	return &Error{Kind: ErrFetch, Op: op, Bucket: bucket, Key: key, Err: err}
}

func InvalidState(op, state string) error {
	return &Error{Kind: ErrInvalidState, Op: op, Err: fmt.Errorf("not allowed while %s", state)}
}

func IsConfiguration(err error) bool { return errors.Is(err, ErrConfiguration) }

func IsListing(err error) bool { return errors.Is(err, ErrListing) }

func IsFetch(err error) bool { return errors.Is(err, ErrFetch) }

func IsInvalidState(err error) bool { return errors.Is(err, ErrInvalidState) }

func IsNoSuchBucket(err error) bool { return errors.Is(err, ErrNoSuchBucket) }
