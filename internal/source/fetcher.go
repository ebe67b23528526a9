package source

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/elastic-io/bucketzip/internal/clients"
	"github.com/elastic-io/bucketzip/internal/errdefs"
	"github.com/elastic-io/bucketzip/internal/types"
)

// Fetcher 打开单个对象的内容流，调用方必须关闭返回的流
type Fetcher interface {
	Open(ctx context.Context, d types.ObjectDescriptor) (io.ReadCloser, error)
}

// Downloader 不带凭证的 URL 下载，clients.Transfer 实现了它
type Downloader interface {
	Get(ctx context.Context, rawURL string) (io.ReadCloser, error)
}

const (
	ModeDirect    = "direct"
	ModePresigned = "presigned"

	DefaultPresignExpiry = 15 * time.Minute
)

// DirectFetcher 通过已认证的客户端直接读取
type DirectFetcher struct {
	Getter ObjectGetter
}

func (f *DirectFetcher) Open(ctx context.Context, d types.ObjectDescriptor) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, errdefs.Fetch("open", d.Bucket, d.Key, err)
	}
	rc, err := f.Getter.GetObject(ctx, d.Bucket, d.Key)
	if err != nil {
		return nil, errdefs.Fetch("open", d.Bucket, d.Key, err)
	}
	return newStream(rc, d), nil
}

// PresignedFetcher 先生成预签名 URL，再用通用 HTTP 客户端下载
type PresignedFetcher struct {
	Presigner Presigner
	Transfer  Downloader
	Expiry    time.Duration
}

func (f *PresignedFetcher) Open(ctx context.Context, d types.ObjectDescriptor) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, errdefs.Fetch("open", d.Bucket, d.Key, err)
	}
	expiry := f.Expiry
	if expiry <= 0 {
		expiry = DefaultPresignExpiry
	}
	u, err := f.Presigner.PresignGetObject(ctx, d.Bucket, d.Key, expiry)
	if err != nil {
		return nil, errdefs.Fetch("presign", d.Bucket, d.Key, err)
	}
	rc, err := f.Transfer.Get(ctx, u)
	if err != nil {
		return nil, errdefs.Fetch("open", d.Bucket, d.Key, err)
	}
	return newStream(rc, d), nil
}

// NewFetcher 按模式选择拉取方式，presigned 要求数据源能生成预签名 URL
func NewFetcher(mode string, backend Backend, expiry time.Duration, transfer Downloader) (Fetcher, error) {
	switch mode {
	case "", ModeDirect:
		return &DirectFetcher{Getter: backend}, nil
	case ModePresigned:
		presigner, ok := backend.(Presigner)
		if !ok {
			return nil, errdefs.Configuration("fetch mode %q is not supported by this provider", mode)
		}
		if transfer == nil {
			transfer = clients.NewTransfer(30*time.Second, false)
		}
		return &PresignedFetcher{Presigner: presigner, Transfer: transfer, Expiry: expiry}, nil
	}
	return nil, errdefs.Configuration("unknown fetch mode %q", mode)
}

// stream 拉取到的对象内容，读错误带上对象信息，Close 只生效一次
type stream struct {
	rc     io.ReadCloser
	bucket string
	key    string

	once     sync.Once
	closeErr error
}

func newStream(rc io.ReadCloser, d types.ObjectDescriptor) *stream {
	return &stream{rc: rc, bucket: d.Bucket, key: d.Key}
}

func (s *stream) Read(p []byte) (int, error) {
	n, err := s.rc.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		err = errdefs.Fetch("read", s.bucket, s.key, err)
	}
	return n, err
}

func (s *stream) Close() error {
	s.once.Do(func() {
		s.closeErr = s.rc.Close()
	})
	return s.closeErr
}
