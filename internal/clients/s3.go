package clients

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/elastic-io/bucketzip/internal/types"
)

// S3Client 打包流程需要的 S3 操作
type S3Client interface {
	CreateBucket(ctx context.Context, bucket string) error
	ListBuckets(ctx context.Context) ([]string, error)

	// ListPage 列举一页对象，token 为空时从 q.Marker 之后开始
	ListPage(ctx context.Context, q types.BucketQuery, token string, max int) (*types.ObjectPage, error)
	// GetObject 返回对象内容的流，调用方负责关闭
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	// PresignGetObject 生成一个预签名URL，用于下载S3对象(默认遵循aws signature version 4)
	PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
	// UploadObjectStream 针对大文件使用的流式上传
	UploadObjectStream(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
}

type s3Client struct {
	Client   s3iface.S3API
	Region   string
	EndPoint string
}

type S3Options struct {
	S3ForcePathStyle   bool
	DisableSSL         bool
	InsecureSkipVerify bool
}

// News3Client endpoint 为空时使用 AWS 默认端点
func News3Client(ak, sk, token, region, endpoint string, opts ...S3Options) (S3Client, error) {
	cfg := &aws.Config{
		Region:     aws.String(region),
		HTTPClient: &http.Client{},
		// 重试由调用方决定，SDK 不做重试
		MaxRetries: aws.Int(0),
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}
	if ak != "" || sk != "" {
		cfg.Credentials = credentials.NewStaticCredentials(ak, sk, token)
	}
	if len(opts) > 0 {
		cfg.S3ForcePathStyle = aws.Bool(opts[0].S3ForcePathStyle)
		cfg.DisableSSL = aws.Bool(opts[0].DisableSSL)
		if opts[0].InsecureSkipVerify {
			cfg.HTTPClient.Transport = &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true,
				},
			}
		}
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client, reason: %w", err)
	}
	return &s3Client{
		Client:   s3.New(sess),
		Region:   region,
		EndPoint: endpoint,
	}, nil
}

func (s *s3Client) CreateBucket(ctx context.Context, bucket string) error {
	_, err := s.Client.CreateBucketWithContext(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	})
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeBucketAlreadyOwnedByYou, s3.ErrCodeBucketAlreadyExists:
			return nil
		}
	}
	return err
}

func (s *s3Client) ListBuckets(ctx context.Context) ([]string, error) {
	results, err := s.Client.ListBucketsWithContext(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, err
	}
	buckets := make([]string, 0, len(results.Buckets))
	for _, b := range results.Buckets {
		buckets = append(buckets, aws.StringValue(b.Name))
	}
	return buckets, nil
}

func (s *s3Client) ListPage(ctx context.Context, q types.BucketQuery, token string, max int) (*types.ObjectPage, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(q.Bucket),
	}
	if q.Prefix != "" {
		input.Prefix = aws.String(q.Prefix)
	}
	if q.Delimiter != "" {
		input.Delimiter = aws.String(q.Delimiter)
	}
	if max > 0 {
		input.MaxKeys = aws.Int64(int64(max))
	}
	if token != "" {
		input.ContinuationToken = aws.String(token)
	} else if q.Marker != "" {
		input.StartAfter = aws.String(q.Marker)
	}

	output, err := s.Client.ListObjectsV2WithContext(ctx, input)
	if err != nil {
		return nil, err
	}

	page := &types.ObjectPage{
		Objects:   make([]types.ObjectDescriptor, 0, len(output.Contents)),
		NextToken: aws.StringValue(output.NextContinuationToken),
		Truncated: aws.BoolValue(output.IsTruncated),
	}
	for _, obj := range output.Contents {
		size := types.UnknownSize
		if obj.Size != nil {
			size = *obj.Size
		}
		page.Objects = append(page.Objects, types.ObjectDescriptor{
			Bucket:            q.Bucket,
			Key:               aws.StringValue(obj.Key),
			Size:              size,
			LastModified:      aws.TimeValue(obj.LastModified),
			ETag:              aws.StringValue(obj.ETag),
			ContinuationToken: token,
		})
	}
	return page, nil
}

func (s *s3Client) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	output, err := s.Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	return output.Body, nil
}

func (s *s3Client) PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	req, _ := s.Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	req.SetContext(ctx)
	urlStr, err := req.Presign(expiry)
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %w", err)
	}
	return urlStr, nil
}

func (s *s3Client) UploadObjectStream(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	uploader := s3manager.NewUploaderWithClient(s.Client)
	input := &s3manager.UploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	_, err := uploader.UploadWithContext(ctx, input)
	return err
}

// IsNoSuchBucket 判断 S3 错误是否为桶不存在
func IsNoSuchBucket(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code() == s3.ErrCodeNoSuchBucket
	}
	return false
}
