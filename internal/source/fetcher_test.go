package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/elastic-io/bucketzip/internal/clients"
	"github.com/elastic-io/bucketzip/internal/errdefs"
	"github.com/elastic-io/bucketzip/internal/testutil"
	"github.com/elastic-io/bucketzip/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingCloser 记录 Close 次数
type countingCloser struct {
	io.Reader
	closes int
}

func (c *countingCloser) Close() error {
	c.closes++
	return nil
}

type getterFunc func(ctx context.Context, bucket, key string) (io.ReadCloser, error)

func (f getterFunc) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	return f(ctx, bucket, key)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestDirectFetcher(t *testing.T) {
	d := types.ObjectDescriptor{Bucket: "docs", Key: "a/1.txt"}

	t.Run("close is idempotent", func(t *testing.T) {
		body := &countingCloser{Reader: strings.NewReader("hello")}
		f := &DirectFetcher{Getter: getterFunc(func(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
			assert.Equal(t, "docs", bucket)
			assert.Equal(t, "a/1.txt", key)
			return body, nil
		})}

		rc, err := f.Open(context.Background(), d)
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))

		require.NoError(t, rc.Close())
		require.NoError(t, rc.Close())
		assert.Equal(t, 1, body.closes)
	})

	t.Run("open failure is a fetch error", func(t *testing.T) {
		cause := errors.New("NoSuchKey")
		f := &DirectFetcher{Getter: getterFunc(func(context.Context, string, string) (io.ReadCloser, error) {
			return nil, cause
		})}
		_, err := f.Open(context.Background(), d)
		assert.True(t, errdefs.IsFetch(err))
		assert.ErrorIs(t, err, cause)
		var e *errdefs.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, "a/1.txt", e.Key)
		assert.Equal(t, "docs", e.Bucket)
	})

	t.Run("read failure is a fetch error", func(t *testing.T) {
		f := &DirectFetcher{Getter: getterFunc(func(context.Context, string, string) (io.ReadCloser, error) {
			return io.NopCloser(failingReader{}), nil
		})}
		rc, err := f.Open(context.Background(), d)
		require.NoError(t, err)
		defer rc.Close()
		_, err = io.ReadAll(rc)
		assert.True(t, errdefs.IsFetch(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		f := &DirectFetcher{Getter: getterFunc(func(context.Context, string, string) (io.ReadCloser, error) {
			t.Fatal("getter must not be called")
			return nil, nil
		})}
		_, err := f.Open(ctx, d)
		assert.True(t, errdefs.IsFetch(err))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func newFakeS3Backend(t *testing.T) (Backend, *testutil.FakeS3) {
	t.Helper()
	fake := testutil.NewFakeS3()
	t.Cleanup(fake.Close)
	fake.PutObject("docs", "a/1.txt", []byte("hello"))
	fake.PutObject("docs", "b/2.txt", []byte("world"))

	backend, err := New(Settings{
		Provider:   "s3",
		Endpoint:   fake.URL(),
		Region:     "us-east-1",
		AccessKey:  "ak",
		SecretKey:  "sk",
		PathStyle:  true,
		DisableSSL: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return backend, fake
}

func TestPresignedFetcher(t *testing.T) {
	backend, fake := newFakeS3Backend(t)

	f, err := NewFetcher(ModePresigned, backend, time.Minute, clients.NewTransfer(5*time.Second, false))
	require.NoError(t, err)
	require.IsType(t, &PresignedFetcher{}, f)

	rc, err := f.Open(context.Background(), types.ObjectDescriptor{Bucket: "docs", Key: "b/2.txt"})
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.NoError(t, rc.Close())
	assert.Equal(t, "world", string(data))

	t.Run("non-2xx carries the status", func(t *testing.T) {
		fake.FailObject("docs", "a/1.txt", http.StatusForbidden)
		_, err := f.Open(context.Background(), types.ObjectDescriptor{Bucket: "docs", Key: "a/1.txt"})
		require.True(t, errdefs.IsFetch(err))
		var se *clients.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusForbidden, se.Code)
	})
}

func TestNewFetcher(t *testing.T) {
	local, err := New(Settings{Provider: "badger", Path: ":memory:"})
	require.NoError(t, err)
	defer local.Close()

	f, err := NewFetcher("", local, 0, nil)
	require.NoError(t, err)
	assert.IsType(t, &DirectFetcher{}, f)

	_, err = NewFetcher(ModePresigned, local, 0, nil)
	assert.True(t, errdefs.IsConfiguration(err))

	_, err = NewFetcher("carrier-pigeon", local, 0, nil)
	assert.True(t, errdefs.IsConfiguration(err))
}
