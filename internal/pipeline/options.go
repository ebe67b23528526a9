package pipeline

import (
	"path"
	"strings"

	"github.com/elastic-io/bucketzip/internal/types"
	"github.com/elastic-io/bucketzip/internal/zipstream"
)

// Policy 单个对象拉取失败时的处理方式
type Policy int

const (
	// FailFast 任何拉取失败都终止打包
	FailFast Policy = iota
	// SkipFailed 跳过打开失败的对象，已经开始写入的条目失败仍然终止
	SkipFailed
)

func (p Policy) String() string {
	if p == SkipFailed {
		return "skip"
	}
	return "fail"
}

// ParsePolicy 解析配置中的失败策略
func ParsePolicy(s string) (Policy, bool) {
	switch s {
	case "", "fail", "fail-fast":
		return FailFast, true
	case "skip", "skip-failed":
		return SkipFailed, true
	}
	return FailFast, false
}

// DefaultChunkSize 单次读写的缓冲大小
const DefaultChunkSize = 32 * types.KB

type Option func(*Pipeline)

func WithChunkSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.chunkSize = n
		}
	}
}

func WithPolicy(policy Policy) Option {
	return func(p *Pipeline) { p.policy = policy }
}

func WithMethod(m zipstream.Method) Option {
	return func(p *Pipeline) { p.method = m }
}

func WithLevel(level int) Option {
	return func(p *Pipeline) { p.level = level }
}

// MaxCommentLen 结束记录中注释长度字段是 16 位
const MaxCommentLen = 1<<16 - 1

// WithComment 归档注释，写在结束记录里
func WithComment(comment string) Option {
	return func(p *Pipeline) { p.comment = comment }
}

// WithPrefetch 在复制当前对象时提前打开下一个对象
func WithPrefetch(enabled bool) Option {
	return func(p *Pipeline) { p.prefetch = enabled }
}

// WithNamer 设置对象键到条目名的映射，返回空串表示跳过该对象
func WithNamer(namer func(key string) string) Option {
	return func(p *Pipeline) {
		if namer != nil {
			p.namer = namer
		}
	}
}

// WithRelativeNames 条目名保留相对查询前缀的路径，每次 Start 按查询的 Prefix 生成
func WithRelativeNames(enabled bool) Option {
	return func(p *Pipeline) { p.relative = enabled }
}

// BaseNamer 取键的最后一段作为条目名，目录占位键返回空串
func BaseNamer(key string) string {
	if key == "" || strings.HasSuffix(key, "/") {
		return ""
	}
	name := path.Base(key)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// RelativeNamer 保留相对 prefix 的路径，避免不同目录下的同名对象冲突
func RelativeNamer(prefix string) func(string) string {
	return func(key string) string {
		if strings.HasSuffix(key, "/") {
			return ""
		}
		name := strings.TrimPrefix(key, prefix)
		// 去掉 .. 等片段，条目名不能逃出归档根目录
		return strings.TrimLeft(path.Clean("/"+name), "/")
	}
}
