package clients

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/elastic-io/bucketzip/internal/testutil"
	"github.com/elastic-io/bucketzip/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试配置
const (
	testRegion = "us-east-1"
	testAK     = "bucketzip"
	testSK     = "bucketzip-secret"
	testBucket = "docs"
)

// 设置测试环境
func setupTestS3Client(t *testing.T) (S3Client, *testutil.FakeS3) {
	t.Helper()
	fake := testutil.NewFakeS3()
	t.Cleanup(fake.Close)

	client, err := News3Client(testAK, testSK, "", testRegion, fake.URL(), S3Options{
		S3ForcePathStyle: true,
		DisableSSL:       true,
	})
	require.NoError(t, err, "Failed to create S3 client")
	require.NotNil(t, client, "S3 client should not be nil")
	return client, fake
}

func seedDocs(fake *testutil.FakeS3) {
	fake.PutObject(testBucket, "a/1.txt", []byte("hello"))
	fake.PutObject(testBucket, "b/2.txt", []byte("world"))
	fake.PutObject(testBucket, "b/3.txt", []byte("!"))
}

func descriptorKeys(objects []types.ObjectDescriptor) []string {
	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		keys = append(keys, o.Key)
	}
	return keys
}

func TestS3ListPage(t *testing.T) {
	client, fake := setupTestS3Client(t)
	seedDocs(fake)
	ctx := context.Background()
	q := types.BucketQuery{Bucket: testBucket, Region: testRegion}

	page, err := client.ListPage(ctx, q, "", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1.txt", "b/2.txt"}, descriptorKeys(page.Objects))
	assert.True(t, page.Truncated)
	require.NotEmpty(t, page.NextToken)
	assert.Equal(t, int64(5), page.Objects[0].Size)
	assert.Equal(t, testBucket, page.Objects[0].Bucket)
	assert.False(t, page.Objects[0].LastModified.IsZero())

	next, err := client.ListPage(ctx, q, page.NextToken, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b/3.txt"}, descriptorKeys(next.Objects))
	assert.False(t, next.Truncated)
	assert.Equal(t, page.NextToken, next.Objects[0].ContinuationToken)

	t.Run("前缀与起始标记", func(t *testing.T) {
		q := types.BucketQuery{Bucket: testBucket, Region: testRegion, Prefix: "b/", Marker: "b/2.txt"}
		page, err := client.ListPage(ctx, q, "", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"b/3.txt"}, descriptorKeys(page.Objects))
	})

	t.Run("桶不存在", func(t *testing.T) {
		_, err := client.ListPage(ctx, types.BucketQuery{Bucket: "missing", Region: testRegion}, "", 0)
		require.Error(t, err)
		assert.True(t, IsNoSuchBucket(err))
	})
}

func TestS3GetObject(t *testing.T) {
	client, fake := setupTestS3Client(t)
	seedDocs(fake)

	body, err := client.GetObject(context.Background(), testBucket, "a/1.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "hello", string(data))

	_, err = client.GetObject(context.Background(), testBucket, "nope")
	assert.Error(t, err)
}

func TestS3PresignAndTransfer(t *testing.T) {
	client, fake := setupTestS3Client(t)
	seedDocs(fake)
	ctx := context.Background()

	u, err := client.PresignGetObject(ctx, testBucket, "b/2.txt", 5*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, u, "X-Amz-Signature")

	transfer := NewTransfer(5*time.Second, false)
	body, err := transfer.Get(ctx, u)
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "world", string(data))
}

func TestS3UploadObjectStream(t *testing.T) {
	client, fake := setupTestS3Client(t)
	ctx := context.Background()

	require.NoError(t, client.CreateBucket(ctx, "upload"))
	buckets, err := client.ListBuckets(ctx)
	require.NoError(t, err)
	assert.Contains(t, buckets, "upload")

	content := bytes.Repeat([]byte("Hello, S3 testing!"), 100)
	require.NoError(t, client.UploadObjectStream(ctx, "upload", "dir/file.txt", bytes.NewReader(content), "text/plain"))

	stored, ok := fake.Object("upload", "dir/file.txt")
	require.True(t, ok)
	assert.Equal(t, content, stored)
}
