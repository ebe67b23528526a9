package source

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/elastic-io/bucketzip/internal/clients"
	"github.com/elastic-io/bucketzip/internal/errdefs"
	"github.com/elastic-io/bucketzip/internal/storage"
	"github.com/elastic-io/bucketzip/internal/types"

	_ "github.com/elastic-io/bucketzip/internal/storage/badger"
	_ "github.com/elastic-io/bucketzip/internal/storage/bolt"
)

func init() {
	Register("s3", validateRemote(false), newS3Backend)
	Register("minio", validateRemote(true), newMinioBackend)
	Register("bolt", validateLocal, newLocalBackend("bolt"))
	Register("badger", validateLocal, newLocalBackend("badger"))
}

func validateRemote(needEndpoint bool) func(Settings) error {
	return func(s Settings) error {
		if s.Region == "" {
			return errdefs.Configuration("%s: region is required", s.Provider)
		}
		if s.AccessKey == "" || s.SecretKey == "" {
			return errdefs.Configuration("%s: access key and secret key are required", s.Provider)
		}
		if needEndpoint && s.Endpoint == "" {
			return errdefs.Configuration("%s: endpoint is required", s.Provider)
		}
		return nil
	}
}

func validateLocal(s Settings) error {
	if s.Path == "" {
		return errdefs.Configuration("%s: database path is required", s.Provider)
	}
	return nil
}

// remoteBackend 远端存储的通用适配，差异只在错误分类
type remoteBackend struct {
	clients.S3Client
	isNoSuchBucket func(error) bool
}

func (r *remoteBackend) ListPage(ctx context.Context, q types.BucketQuery, token string, max int) (*types.ObjectPage, error) {
	page, err := r.S3Client.ListPage(ctx, q, token, max)
	if err != nil && r.isNoSuchBucket(err) {
		return nil, noSuchBucket(err)
	}
	return page, err
}

func (r *remoteBackend) Close() error { return nil }

func newS3Backend(s Settings) (Backend, error) {
	client, err := clients.News3Client(s.AccessKey, s.SecretKey, s.SessionToken, s.Region, s.Endpoint, clients.S3Options{
		S3ForcePathStyle:   s.PathStyle,
		DisableSSL:         s.DisableSSL,
		InsecureSkipVerify: s.InsecureSkipVerify,
	})
	if err != nil {
		return nil, err
	}
	return &remoteBackend{S3Client: client, isNoSuchBucket: clients.IsNoSuchBucket}, nil
}

func newMinioBackend(s Settings) (Backend, error) {
	client, err := clients.NewMinioClient(s.AccessKey, s.SecretKey, s.SessionToken, s.Region, s.Endpoint, clients.MinioOptions{
		Secure:    !s.DisableSSL,
		PathStyle: s.PathStyle,
	})
	if err != nil {
		return nil, err
	}
	return &remoteBackend{S3Client: client, isNoSuchBucket: clients.IsMinioNoSuchBucket}, nil
}

func newLocalBackend(engine string) func(Settings) (Backend, error) {
	return func(s Settings) (Backend, error) {
		st, err := storage.NewStorage(engine, s.Path)
		if err != nil {
			return nil, err
		}
		return NewLocal(st), nil
	}
}

// Local 以本地对象仓库作为数据源，不支持预签名
type Local struct {
	st storage.Storage
}

func NewLocal(st storage.Storage) *Local {
	return &Local{st: st}
}

// Storage 返回底层仓库
func (l *Local) Storage() storage.Storage { return l.st }

// ListPage 续传标记就是上一页最后一个键
func (l *Local) ListPage(ctx context.Context, q types.BucketQuery, token string, max int) (*types.ObjectPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	marker := token
	if marker == "" {
		marker = q.Marker
	}
	records, _, truncated, err := l.st.ListObjects(q.Bucket, q.Prefix, marker, q.Delimiter, max)
	if err != nil {
		if errors.Is(err, storage.ErrBucketNotFound) {
			return nil, noSuchBucket(err)
		}
		return nil, err
	}

	page := &types.ObjectPage{
		Objects:   make([]types.ObjectDescriptor, 0, len(records)),
		Truncated: truncated,
	}
	for _, r := range records {
		page.Objects = append(page.Objects, types.ObjectDescriptor{
			Bucket:            q.Bucket,
			Key:               r.Key,
			Size:              r.Size,
			LastModified:      r.LastModified,
			ETag:              r.ETag,
			ContinuationToken: token,
		})
	}
	if truncated && len(records) > 0 {
		page.NextToken = records[len(records)-1].Key
	}
	return page, nil
}

func (l *Local) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, data, err := l.st.GetObject(bucket, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (l *Local) CreateBucket(ctx context.Context, bucket string) error {
	err := l.st.CreateBucket(bucket)
	if errors.Is(err, storage.ErrBucketExists) {
		return nil
	}
	return err
}

// UploadObjectStream 本地仓库按整个对象保存，内容先读入内存
func (l *Local) UploadObjectStream(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.st.PutObject(bucket, &types.ObjectRecord{Key: key, ContentType: contentType}, data)
}

func (l *Local) Close() error { return l.st.Close() }
