// Package source lists and fetches the objects of a bucket.
//
// A Backend is one concrete object store (S3, a MinIO-compatible endpoint or a
// local bolt/badger store). The pipeline only sees the narrow interfaces below:
// a Pager behind a Lister for enumeration, and a Fetcher for content.
package source

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/elastic-io/bucketzip/internal/errdefs"
	"github.com/elastic-io/bucketzip/internal/types"
)

// Pager 单次分页列举，token 为空表示从 q.Marker 之后开始
type Pager interface {
	ListPage(ctx context.Context, q types.BucketQuery, token string, max int) (*types.ObjectPage, error)
}

// ObjectGetter 通过已认证的客户端读取对象内容
type ObjectGetter interface {
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Presigner 生成限时的对象下载 URL
type Presigner interface {
	PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// Uploader push 命令写入数据源时使用
type Uploader interface {
	CreateBucket(ctx context.Context, bucket string) error
	UploadObjectStream(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
}

// Backend 一个具体的对象存储，可选实现 Presigner
type Backend interface {
	Pager
	ObjectGetter
	Uploader
	Close() error
}

// Settings 构造 Backend 所需的全部参数，凭证对核心流程不透明
type Settings struct {
	Provider string

	// 远端存储
	Endpoint           string
	Region             string
	AccessKey          string
	SecretKey          string
	SessionToken       string
	PathStyle          bool
	DisableSSL         bool
	InsecureSkipVerify bool

	// 本地存储的数据库路径
	Path string
}

type provider struct {
	validate func(Settings) error
	build    func(Settings) (Backend, error)
}

var providers = map[string]provider{}

// Register 注册一个数据源实现，重复注册会 panic
func Register(name string, validate func(Settings) error, build func(Settings) (Backend, error)) {
	if _, ok := providers[name]; ok {
		panic(fmt.Errorf("provider %s already registered", name))
	}
	providers[name] = provider{validate: validate, build: build}
}

// Providers 已注册的数据源名称
func Providers() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate 在任何网络访问之前检查配置
func (s Settings) Validate() error {
	p, ok := providers[s.Provider]
	if !ok {
		return errdefs.Configuration("unknown provider %q, expected one of %v", s.Provider, Providers())
	}
	if p.validate != nil {
		return p.validate(s)
	}
	return nil
}

// New 根据配置创建数据源
func New(s Settings) (Backend, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	b, err := providers[s.Provider].build(s)
	if err != nil {
		return nil, errdefs.Configuration("create %s provider: %w", s.Provider, err)
	}
	return b, nil
}

func noSuchBucket(err error) error {
	return fmt.Errorf("%w: %w", errdefs.ErrNoSuchBucket, err)
}
