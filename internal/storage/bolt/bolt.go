package bolt

import (
	"bytes"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/elastic-io/bucketzip/internal/log"
	"github.com/elastic-io/bucketzip/internal/storage"
	"github.com/elastic-io/bucketzip/internal/types"
	"go.etcd.io/bbolt"
)

func init() {
	storage.BackendRegister("bolt", NewBoltStorage)
}

const (
	// 桶名称
	dataBucket    = "data"
	bucketsBucket = "buckets"
	objectsBucket = "objects"

	maxRetries = 3
	retryDelay = 100 * time.Millisecond
)

// BoltStorage 使用BoltDB保存对象元数据与内容
type BoltStorage struct {
	db        *bbolt.DB
	closeOnce sync.Once
	closed    bool
	mu        sync.RWMutex // 保护并发访问
}

// NewBoltStorage 创建一个新的BoltDB存储实例
func NewBoltStorage(path string) (storage.Storage, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout:      1 * time.Second,
		FreelistType: bbolt.FreelistMapType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	// 初始化所有必要的桶
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range []string{dataBucket, bucketsBucket, objectsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return &BoltStorage{db: db}, nil
}

// safeBucketOperation 取出顶层桶并执行操作，操作中的 panic 转为错误
func (s *BoltStorage) safeBucketOperation(tx *bbolt.Tx, bucketName string, operation func(*bbolt.Bucket) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Logger.Errorf("Recovered from panic in bucket operation: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("panic in bucket operation: %v", r)
		}
	}()

	bucket := tx.Bucket([]byte(bucketName))
	if bucket == nil {
		return fmt.Errorf("bucket %s not found", bucketName)
	}
	return operation(bucket)
}

// withRetry 重试数据库层面的失败，业务错误直接返回
func (s *BoltStorage) withRetry(operation func() error) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := operation()
		if err == nil {
			return nil
		}
		if isPermanent(err) {
			return err
		}
		lastErr = err
		log.Logger.Warnf("Operation failed (attempt %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(retryDelay * time.Duration(i+1))
		}
	}
	return fmt.Errorf("operation failed after %d retries: %w", maxRetries, lastErr)
}

func isPermanent(err error) bool {
	return errors.Is(err, storage.ErrBucketNotFound) ||
		errors.Is(err, storage.ErrBucketExists) ||
		errors.Is(err, storage.ErrObjectNotFound) ||
		errors.Is(err, bbolt.ErrDatabaseNotOpen)
}

// Close 关闭数据库连接
func (s *BoltStorage) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		err = s.db.Close()
	})
	return err
}

// bucketExistsInternal 检查桶是否存在（内部使用，不加锁）
func (s *BoltStorage) bucketExistsInternal(tx *bbolt.Tx, bucket string) (bool, error) {
	var exists bool
	err := s.safeBucketOperation(tx, bucketsBucket, func(b *bbolt.Bucket) error {
		exists = b.Get([]byte(bucket)) != nil
		return nil
	})
	return exists, err
}

func (s *BoltStorage) ListBuckets() ([]types.BucketRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrClosed
	}

	var buckets []types.BucketRecord
	err := s.withRetry(func() error {
		buckets = buckets[:0]
		return s.db.View(func(tx *bbolt.Tx) error {
			return s.safeBucketOperation(tx, bucketsBucket, func(b *bbolt.Bucket) error {
				return b.ForEach(func(k, v []byte) error {
					info := &types.BucketRecord{}
					if err := info.UnmarshalJSON(v); err != nil {
						log.Logger.Warn("Failed to unmarshal bucket info: ", err)
						return nil
					}
					buckets = append(buckets, *info)
					return nil
				})
			})
		})
	})
	return buckets, err
}

func (s *BoltStorage) CreateBucket(bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}

	log.Logger.Info("Creating bucket: ", bucket)

	data, err := (&types.BucketRecord{Name: bucket, CreationDate: time.Now()}).MarshalJSON()
	if err != nil {
		return err
	}

	return s.withRetry(func() error {
		return s.db.Update(func(tx *bbolt.Tx) error {
			exists, err := s.bucketExistsInternal(tx, bucket)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("%w: %s", storage.ErrBucketExists, bucket)
			}
			return s.safeBucketOperation(tx, bucketsBucket, func(b *bbolt.Bucket) error {
				return b.Put([]byte(bucket), data)
			})
		})
	})
}

func (s *BoltStorage) BucketExists(bucket string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, storage.ErrClosed
	}

	var exists bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		exists, err = s.bucketExistsInternal(tx, bucket)
		return err
	})
	return exists, err
}

// PutObject 元数据与内容在同一个事务中写入
func (s *BoltStorage) PutObject(bucket string, object *types.ObjectRecord, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}

	object.Size = int64(len(data))
	if object.ETag == "" {
		object.ETag = storage.CalculateETag(data)
	}
	if object.LastModified.IsZero() {
		object.LastModified = time.Now().UTC()
	}
	meta, err := object.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal object: %w", err)
	}
	fullKey := []byte(storage.ObjectKey(bucket, object.Key))

	return s.withRetry(func() error {
		return s.db.Update(func(tx *bbolt.Tx) error {
			exists, err := s.bucketExistsInternal(tx, bucket)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: %s", storage.ErrBucketNotFound, bucket)
			}
			if err := s.safeBucketOperation(tx, dataBucket, func(b *bbolt.Bucket) error {
				return b.Put(fullKey, data)
			}); err != nil {
				return err
			}
			return s.safeBucketOperation(tx, objectsBucket, func(b *bbolt.Bucket) error {
				return b.Put(fullKey, meta)
			})
		})
	})
}

func (s *BoltStorage) GetObject(bucket, key string) (*types.ObjectRecord, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, nil, storage.ErrClosed
	}

	var (
		record *types.ObjectRecord
		data   []byte
	)
	fullKey := []byte(storage.ObjectKey(bucket, key))

	err := s.withRetry(func() error {
		return s.db.View(func(tx *bbolt.Tx) error {
			err := s.safeBucketOperation(tx, objectsBucket, func(b *bbolt.Bucket) error {
				meta := b.Get(fullKey)
				if meta == nil {
					return fmt.Errorf("%w: %s/%s", storage.ErrObjectNotFound, bucket, key)
				}
				record = &types.ObjectRecord{}
				return record.UnmarshalJSON(meta)
			})
			if err != nil {
				return err
			}
			return s.safeBucketOperation(tx, dataBucket, func(b *bbolt.Bucket) error {
				// 事务结束后 bolt 的内存不再有效，需要复制
				data = append([]byte{}, b.Get(fullKey)...)
				return nil
			})
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return record, data, nil
}

func (s *BoltStorage) ListObjects(bucket, prefix, marker, delimiter string, maxKeys int) ([]types.ObjectRecord, []string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, nil, false, storage.ErrClosed
	}

	log.Logger.Debug("Listing objects in bucket: ", bucket, " with prefix: ", prefix)

	var l *storage.Lister
	err := s.withRetry(func() error {
		l = &storage.Lister{Prefix: prefix, Marker: marker, Delimiter: delimiter, MaxKeys: maxKeys}
		return s.db.View(func(tx *bbolt.Tx) error {
			exists, err := s.bucketExistsInternal(tx, bucket)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: %s", storage.ErrBucketNotFound, bucket)
			}

			return s.safeBucketOperation(tx, objectsBucket, func(b *bbolt.Bucket) error {
				bucketPrefix := []byte(storage.ObjectKey(bucket, ""))
				// 直接定位到前缀或 marker 之后
				start := storage.ObjectKey(bucket, prefix)
				if marker > prefix {
					start = storage.ObjectKey(bucket, marker)
				}
				c := b.Cursor()
				for k, v := c.Seek([]byte(start)); k != nil && bytes.HasPrefix(k, bucketPrefix); k, v = c.Next() {
					objKey := string(k[len(bucketPrefix):])
					more, err := l.Accept(objKey, func() (*types.ObjectRecord, error) {
						record := &types.ObjectRecord{}
						return record, record.UnmarshalJSON(v)
					})
					if err != nil {
						return err
					}
					if !more {
						break
					}
				}
				return nil
			})
		})
	})
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to list objects: %w", err)
	}
	return l.Objects, l.CommonPrefixes, l.Truncated, nil
}
