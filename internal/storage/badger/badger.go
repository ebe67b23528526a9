package badger

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/elastic-io/bucketzip/internal/log"
	"github.com/elastic-io/bucketzip/internal/storage"
	"github.com/elastic-io/bucketzip/internal/types"
)

func init() {
	storage.BackendRegister("badger", NewBadgerStorage)
}

// InMemory 作为路径时使用不落盘的数据库
const InMemory = ":memory:"

const (
	// Badger是扁平键值存储，使用前缀区分不同类型的数据
	dataPrefix    = "data/"
	bucketsPrefix = "buckets/"
	objectsPrefix = "objects/"

	maxRetries = 3
	retryDelay = 100 * time.Millisecond
)

// BadgerStorage 使用Badger保存对象元数据与内容
type BadgerStorage struct {
	db        *badger.DB
	gcStop    chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex // 保护并发访问
}

// NewBadgerStorage 创建一个新的Badger存储实例
func NewBadgerStorage(path string) (storage.Storage, error) {
	opts := badger.DefaultOptions(path)
	if path == InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil // 禁用Badger内部日志
	opts.SyncWrites = false
	opts.ValueLogFileSize = 64 * types.MB
	opts.ValueThreshold = 1 * types.MB
	opts.BlockCacheSize = 64 * types.MB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	s := &BadgerStorage{
		db:     db,
		gcStop: make(chan struct{}),
	}
	if !opts.InMemory {
		go s.runValueLogGC(10 * time.Minute)
	}
	return s, nil
}

// runValueLogGC 定期回收 value log
func (s *BadgerStorage) runValueLogGC(interval time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			log.Logger.Errorf("Recovered from panic in GC routine: %v\n%s", r, debug.Stack())
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.gcStop:
			return
		case <-ticker.C:
			if err := s.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				log.Logger.Errorf("Error running value log GC: %v", err)
			}
		}
	}
}

// safeIteratorOperation 创建只遍历键的迭代器并保证关闭
func (s *BadgerStorage) safeIteratorOperation(txn *badger.Txn, prefix []byte, operation func(*badger.Iterator) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Logger.Errorf("Recovered from panic in iterator operation: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("panic in iterator operation: %v", r)
		}
	}()

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	return operation(it)
}

// withRetry 重试事务冲突等临时错误，业务错误直接返回
func (s *BadgerStorage) withRetry(operation func() error) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := operation()
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrConflict) {
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

// Close 关闭数据库
func (s *BadgerStorage) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		close(s.gcStop)
		err = s.db.Close()
	})
	return err
}

func (s *BadgerStorage) checkOpen() error {
	if s.db.IsClosed() {
		return storage.ErrClosed
	}
	return nil
}

// bucketExistsInternal 检查桶是否存在（内部使用，不加锁）
func bucketExistsInternal(txn *badger.Txn, bucket string) (bool, error) {
	_, err := txn.Get([]byte(bucketsPrefix + bucket))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func requireBucket(txn *badger.Txn, bucket string) error {
	exists, err := bucketExistsInternal(txn, bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", storage.ErrBucketNotFound, bucket)
	}
	return nil
}

func (s *BadgerStorage) ListBuckets() ([]types.BucketRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var buckets []types.BucketRecord
	err := s.db.View(func(txn *badger.Txn) error {
		return s.safeIteratorOperation(txn, []byte(bucketsPrefix), func(it *badger.Iterator) error {
			for it.Rewind(); it.Valid(); it.Next() {
				err := it.Item().Value(func(val []byte) error {
					info := &types.BucketRecord{}
					if err := info.UnmarshalJSON(val); err != nil {
						return err
					}
					buckets = append(buckets, *info)
					return nil
				})
				if err != nil {
					log.Logger.Warn("Failed to read bucket info: ", err)
				}
			}
			return nil
		})
	})
	return buckets, err
}

// CreateBucket 创建一个新的存储桶
func (s *BadgerStorage) CreateBucket(bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	log.Logger.Info("Creating bucket: ", bucket)

	data, err := (&types.BucketRecord{Name: bucket, CreationDate: time.Now()}).MarshalJSON()
	if err != nil {
		return err
	}

	return s.withRetry(func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			exists, err := bucketExistsInternal(txn, bucket)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("%w: %s", storage.ErrBucketExists, bucket)
			}
			return txn.Set([]byte(bucketsPrefix+bucket), data)
		})
	})
}

// BucketExists 检查存储桶是否存在
func (s *BadgerStorage) BucketExists(bucket string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	var exists bool
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		exists, err = bucketExistsInternal(txn, bucket)
		return err
	})
	return exists, err
}

// PutObject 存储一个对象，元数据与内容分键保存
func (s *BadgerStorage) PutObject(bucket string, object *types.ObjectRecord, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
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
	fullKey := storage.ObjectKey(bucket, object.Key)

	return s.withRetry(func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			if err := requireBucket(txn, bucket); err != nil {
				return err
			}
			if err := txn.Set([]byte(dataPrefix+fullKey), data); err != nil {
				return err
			}
			return txn.Set([]byte(objectsPrefix+fullKey), meta)
		})
	})
}

// GetObject 获取一个对象
func (s *BadgerStorage) GetObject(bucket, key string) (*types.ObjectRecord, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, nil, err
	}

	var (
		record = &types.ObjectRecord{}
		data   []byte
	)
	fullKey := storage.ObjectKey(bucket, key)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(objectsPrefix + fullKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", storage.ErrObjectNotFound, fullKey)
		}
		if err != nil {
			return err
		}
		if err := item.Value(record.UnmarshalJSON); err != nil {
			return err
		}

		item, err = txn.Get([]byte(dataPrefix + fullKey))
		if err != nil {
			return fmt.Errorf("object data missing for %s: %w", fullKey, err)
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return record, data, nil
}

// ListObjects 列出存储桶中的对象
func (s *BadgerStorage) ListObjects(bucket, prefix, marker, delimiter string, maxKeys int) ([]types.ObjectRecord, []string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, nil, false, err
	}

	l := &storage.Lister{Prefix: prefix, Marker: marker, Delimiter: delimiter, MaxKeys: maxKeys}
	bucketPrefix := objectsPrefix + storage.ObjectKey(bucket, "")

	err := s.db.View(func(txn *badger.Txn) error {
		if err := requireBucket(txn, bucket); err != nil {
			return err
		}
		return s.safeIteratorOperation(txn, []byte(bucketPrefix), func(it *badger.Iterator) error {
			start := bucketPrefix + prefix
			if marker > prefix {
				start = bucketPrefix + marker
			}
			for it.Seek([]byte(start)); it.Valid(); it.Next() {
				item := it.Item()
				objKey := string(item.Key()[len(bucketPrefix):])
				more, err := l.Accept(objKey, func() (*types.ObjectRecord, error) {
					record := &types.ObjectRecord{}
					return record, item.Value(record.UnmarshalJSON)
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
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to list objects: %w", err)
	}
	return l.Objects, l.CommonPrefixes, l.Truncated, nil
}
