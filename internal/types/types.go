package types

import (
	"time"

	"github.com/elastic-io/bucketzip/internal/errdefs"
)

const (
	KB = 1 << 10
	MB = 1 << 20
	GB = 1 << 30
)

// UnknownSize 表示对象大小在拉取之前未知
const UnknownSize int64 = -1

// BucketQuery 描述一次打包请求所针对的桶及列举过滤条件，构造后不再修改
type BucketQuery struct {
	Bucket    string
	Region    string
	Prefix    string
	Delimiter string
	Marker    string
}

// ObjectDescriptor 表示列举得到的单个远端对象
//
//go:generate easyjson -all types.go
type ObjectDescriptor struct {
	Bucket       string    `json:"bucket"`
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	ETag         string    `json:"etag"`
	// 列出该对象时所在分页的续传标记
	ContinuationToken string `json:"continuation_token"`
}

// ObjectPage 一次列举调用返回的一页结果
type ObjectPage struct {
	Objects   []ObjectDescriptor
	NextToken string
	Truncated bool
}

// EntryReport 归档中一个已完成条目的摘要
//
//go:generate easyjson -all types.go
type EntryReport struct {
	Name           string `json:"name"`
	Key            string `json:"key"`
	Size           int64  `json:"size"`
	CompressedSize int64  `json:"compressed_size"`
	Offset         int64  `json:"offset"`
	CRC32          uint32 `json:"crc32"`
}

// SkippedObject 在 SkipFailed 策略下被跳过的对象
//
//go:generate easyjson -all types.go
type SkippedObject struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// ArchiveReport 一次打包的结果摘要
//
//go:generate easyjson -all types.go
type ArchiveReport struct {
	Bucket   string          `json:"bucket"`
	Prefix   string          `json:"prefix"`
	Entries  []EntryReport   `json:"entries"`
	Skipped  []SkippedObject `json:"skipped"`
	Bytes    int64           `json:"bytes"`
	Finished bool            `json:"finished"`
}

// ObjectList 列举接口的响应体
//
//go:generate easyjson -all types.go
type ObjectList struct {
	Bucket  string             `json:"bucket"`
	Prefix  string             `json:"prefix"`
	Objects []ObjectDescriptor `json:"objects"`
	// Truncated 为 true 时用 NextMarker 作为下一次请求的 marker
	Truncated  bool   `json:"truncated"`
	NextMarker string `json:"next_marker"`
}

// ObjectRecord 本地对象仓库中保存的对象元数据
//
//go:generate easyjson -all types.go
type ObjectRecord struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag"`
	ContentType  string    `json:"content_type"`
	LastModified time.Time `json:"last_modified"`
}

// BucketRecord 本地对象仓库中保存的桶元数据
//
//go:generate easyjson -all types.go
type BucketRecord struct {
	Name         string    `json:"name"`
	CreationDate time.Time `json:"creation_date"`
}

// Validate 检查必填字段
func (q BucketQuery) Validate() error {
	if q.Bucket == "" {
		return errdefs.Configuration("bucket is required")
	}
	if q.Region == "" {
		return errdefs.Configuration("region is required")
	}
	return nil
}
