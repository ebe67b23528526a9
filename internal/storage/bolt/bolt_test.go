package bolt

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/elastic-io/bucketzip/internal/storage"
	"github.com/elastic-io/bucketzip/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试辅助函数
func setupTestStorage(t *testing.T) *BoltStorage {
	t.Helper()
	s, err := NewBoltStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s.(*BoltStorage)
}

func keys(records []types.ObjectRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Key)
	}
	return out
}

func TestNewBoltStorage(t *testing.T) {
	t.Run("成功创建存储", func(t *testing.T) {
		s := setupTestStorage(t)
		assert.NotNil(t, s.db)
	})

	t.Run("无效路径", func(t *testing.T) {
		_, err := NewBoltStorage("/invalid/path/test.db")
		assert.Error(t, err)
	})

	t.Run("通过注册表创建", func(t *testing.T) {
		s, err := storage.NewStorage("bolt", filepath.Join(t.TempDir(), "reg.db"))
		require.NoError(t, err)
		assert.NoError(t, s.Close())
	})
}

func TestBucketOperations(t *testing.T) {
	s := setupTestStorage(t)
	testBucket := "test-bucket"

	t.Run("创建桶", func(t *testing.T) {
		assert.NoError(t, s.CreateBucket(testBucket))
	})

	t.Run("桶已存在", func(t *testing.T) {
		err := s.CreateBucket(testBucket)
		assert.ErrorIs(t, err, storage.ErrBucketExists)
	})

	t.Run("检查桶存在", func(t *testing.T) {
		exists, err := s.BucketExists(testBucket)
		assert.NoError(t, err)
		assert.True(t, exists)

		exists, err = s.BucketExists("non-existent")
		assert.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("列出桶", func(t *testing.T) {
		buckets, err := s.ListBuckets()
		assert.NoError(t, err)
		require.Len(t, buckets, 1)
		assert.Equal(t, testBucket, buckets[0].Name)
		assert.False(t, buckets[0].CreationDate.IsZero())
	})
}

func TestObjectOperations(t *testing.T) {
	s := setupTestStorage(t)
	require.NoError(t, s.CreateBucket("docs"))

	t.Run("写入并读取对象", func(t *testing.T) {
		record := &types.ObjectRecord{Key: "a/1.txt", ContentType: "text/plain"}
		require.NoError(t, s.PutObject("docs", record, []byte("hello")))

		got, data, err := s.GetObject("docs", "a/1.txt")
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), data)
		assert.Equal(t, int64(5), got.Size)
		assert.Equal(t, storage.CalculateETag([]byte("hello")), got.ETag)
		assert.Equal(t, "text/plain", got.ContentType)
		assert.False(t, got.LastModified.IsZero())
	})

	t.Run("空对象", func(t *testing.T) {
		require.NoError(t, s.PutObject("docs", &types.ObjectRecord{Key: "empty"}, nil))
		got, data, err := s.GetObject("docs", "empty")
		require.NoError(t, err)
		assert.Empty(t, data)
		assert.Zero(t, got.Size)
	})

	t.Run("桶不存在", func(t *testing.T) {
		err := s.PutObject("missing", &types.ObjectRecord{Key: "x"}, []byte("x"))
		assert.ErrorIs(t, err, storage.ErrBucketNotFound)
	})

	t.Run("对象不存在", func(t *testing.T) {
		_, _, err := s.GetObject("docs", "nope")
		assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	})
}

func TestListObjects(t *testing.T) {
	s := setupTestStorage(t)
	require.NoError(t, s.CreateBucket("docs"))
	require.NoError(t, s.CreateBucket("docs2"))
	for _, key := range []string{"a/1.txt", "b/2.txt", "b/sub/3.txt", "c.txt"} {
		require.NoError(t, s.PutObject("docs", &types.ObjectRecord{Key: key}, []byte(key)))
	}
	// 名称相近的桶不应混入结果
	require.NoError(t, s.PutObject("docs2", &types.ObjectRecord{Key: "zzz"}, []byte("z")))

	t.Run("全部对象", func(t *testing.T) {
		objects, prefixes, truncated, err := s.ListObjects("docs", "", "", "", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"a/1.txt", "b/2.txt", "b/sub/3.txt", "c.txt"}, keys(objects))
		assert.Empty(t, prefixes)
		assert.False(t, truncated)
	})

	t.Run("前缀过滤", func(t *testing.T) {
		objects, _, _, err := s.ListObjects("docs", "b/", "", "", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"b/2.txt", "b/sub/3.txt"}, keys(objects))
	})

	t.Run("分隔符", func(t *testing.T) {
		objects, prefixes, _, err := s.ListObjects("docs", "b/", "", "/", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"b/2.txt"}, keys(objects))
		assert.Equal(t, []string{"b/sub/"}, prefixes)
	})

	t.Run("分页", func(t *testing.T) {
		var (
			all    []string
			marker string
			pages  int
		)
		for {
			objects, _, truncated, err := s.ListObjects("docs", "", marker, "", 3)
			require.NoError(t, err)
			pages++
			all = append(all, keys(objects)...)
			if !truncated {
				break
			}
			marker = objects[len(objects)-1].Key
		}
		assert.Equal(t, 2, pages)
		assert.Equal(t, []string{"a/1.txt", "b/2.txt", "b/sub/3.txt", "c.txt"}, all)
	})

	t.Run("恰好满页时不截断", func(t *testing.T) {
		objects, _, truncated, err := s.ListObjects("docs", "", "", "", 4)
		require.NoError(t, err)
		assert.Len(t, objects, 4)
		assert.False(t, truncated)
	})

	t.Run("桶不存在", func(t *testing.T) {
		_, _, _, err := s.ListObjects("missing", "", "", "", 0)
		assert.ErrorIs(t, err, storage.ErrBucketNotFound)
	})
}

func TestClosedStorage(t *testing.T) {
	s := setupTestStorage(t)
	require.NoError(t, s.Close())
	// 重复关闭无副作用
	require.NoError(t, s.Close())

	_, err := s.BucketExists("docs")
	assert.ErrorIs(t, err, storage.ErrClosed)
	assert.ErrorIs(t, s.CreateBucket("docs"), storage.ErrClosed)
}

func BenchmarkPutObject(b *testing.B) {
	s, err := NewBoltStorage(filepath.Join(b.TempDir(), "bench.db"))
	require.NoError(b, err)
	defer s.Close()
	require.NoError(b, s.CreateBucket("bench"))

	data := make([]byte, 4*types.KB)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.PutObject("bench", &types.ObjectRecord{Key: fmt.Sprintf("obj-%d", i)}, data); err != nil {
			b.Fatal(err)
		}
	}
}
