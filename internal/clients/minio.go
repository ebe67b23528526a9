package clients

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/elastic-io/bucketzip/internal/types"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var _ S3Client = (*MinioClient)(nil)

// MinioClient 基于 minio-go Core 的 S3 兼容客户端，分页由调用方驱动
type MinioClient struct {
	core   *minio.Core
	region string
}

type MinioOptions struct {
	Secure bool
	// 强制使用路径风格访问
	PathStyle bool
}

// NewMinioClient endpoint 为 host:port 形式
func NewMinioClient(ak, sk, token, region, endpoint string, opts ...MinioOptions) (*MinioClient, error) {
	options := &minio.Options{
		Creds:  credentials.NewStaticV4(ak, sk, token),
		Region: region,
	}
	if len(opts) > 0 {
		options.Secure = opts[0].Secure
		if opts[0].PathStyle {
			options.BucketLookup = minio.BucketLookupPath
		}
	}

	core, err := minio.NewCore(endpoint, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &MinioClient{core: core, region: region}, nil
}

func (m *MinioClient) CreateBucket(ctx context.Context, bucket string) error {
	exists, err := m.core.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.core.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: m.region}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func (m *MinioClient) ListBuckets(ctx context.Context) ([]string, error) {
	infos, err := m.core.ListBuckets(ctx)
	if err != nil {
		return nil, err
	}
	buckets := make([]string, 0, len(infos))
	for _, b := range infos {
		buckets = append(buckets, b.Name)
	}
	return buckets, nil
}

func (m *MinioClient) ListPage(ctx context.Context, q types.BucketQuery, token string, max int) (*types.ObjectPage, error) {
	// Core 的列举接口不接受 context，至少在发起前检查一次
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	startAfter := ""
	if token == "" {
		startAfter = q.Marker
	}
	result, err := m.core.ListObjectsV2(q.Bucket, q.Prefix, startAfter, token, q.Delimiter, max)
	if err != nil {
		return nil, err
	}

	page := &types.ObjectPage{
		Objects:   make([]types.ObjectDescriptor, 0, len(result.Contents)),
		NextToken: result.NextContinuationToken,
		Truncated: result.IsTruncated,
	}
	for _, obj := range result.Contents {
		page.Objects = append(page.Objects, types.ObjectDescriptor{
			Bucket:            q.Bucket,
			Key:               obj.Key,
			Size:              obj.Size,
			LastModified:      obj.LastModified,
			ETag:              obj.ETag,
			ContinuationToken: token,
		})
	}
	return page, nil
}

// GetObject minio 的对象是惰性的，先 Stat 一次让不存在等错误在打开时暴露
func (m *MinioClient) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := m.core.Client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

func (m *MinioClient) PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	u, err := m.core.PresignedGetObject(ctx, bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL: %w", err)
	}
	return u.String(), nil
}

func (m *MinioClient) UploadObjectStream(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	_, err := m.core.Client.PutObject(ctx, bucket, key, body, -1, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

// IsMinioNoSuchBucket 判断 minio 错误是否为桶不存在
func IsMinioNoSuchBucket(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchBucket"
}
