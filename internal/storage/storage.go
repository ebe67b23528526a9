package storage

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic-io/bucketzip/internal/types"
)

// Storage 本地对象仓库，用作离线数据源以及 push 的目标
type Storage interface {
	// 桶操作
	CreateBucket(bucket string) error
	ListBuckets() ([]types.BucketRecord, error)
	BucketExists(bucket string) (bool, error)

	// 对象操作
	PutObject(bucket string, object *types.ObjectRecord, data []byte) error
	GetObject(bucket, key string) (*types.ObjectRecord, []byte, error)
	// ListObjects 按键的字典序返回 marker 之后的对象，最多 maxKeys 个，
	// 第三个返回值表示是否还有更多结果
	ListObjects(bucket, prefix, marker, delimiter string, maxKeys int) ([]types.ObjectRecord, []string, bool, error)

	// 关闭存储
	Close() error
}

var (
	ErrBucketNotFound = errors.New("bucket not found")
	ErrBucketExists   = errors.New("bucket already exists")
	ErrObjectNotFound = errors.New("object not found")
	ErrClosed         = errors.New("storage is closed")
)

type backend func(string) (Storage, error)

var Backends = map[string]backend{}

func BackendRegister(name string, be backend) {
	if _, ok := Backends[name]; ok {
		panic(fmt.Errorf("backend %s already registered", name))
	}
	Backends[name] = be
}

func NewStorage(engine, path string) (Storage, error) {
	if backend, ok := Backends[engine]; ok {
		return backend(path)
	}
	return nil, fmt.Errorf("backend %s not found", engine)
}

// CalculateETag 计算数据的MD5哈希作为ETag
func CalculateETag(data []byte) string {
	hash := md5.Sum(data)
	return fmt.Sprintf("\"%s\"", hex.EncodeToString(hash[:]))
}

// ObjectKey 桶内对象在扁平键空间中的完整键
func ObjectKey(bucket, key string) string {
	return bucket + "/" + key
}

// Lister 按序收集 ListObjects 的结果，两个后端共用同一套过滤与截断规则
type Lister struct {
	Prefix    string
	Marker    string
	Delimiter string
	MaxKeys   int

	Objects        []types.ObjectRecord
	CommonPrefixes []string
	Truncated      bool

	seen  map[string]bool
	count int
}

// Accept 处理一个按序到达的对象键，返回 false 时调用方应停止遍历；
// decode 只在对象需要被返回时调用
func (l *Lister) Accept(objKey string, decode func() (*types.ObjectRecord, error)) (bool, error) {
	if l.Prefix != "" && !strings.HasPrefix(objKey, l.Prefix) {
		// 键有序，越过前缀区间后不会再有匹配
		return objKey < l.Prefix, nil
	}
	if l.Marker != "" && objKey <= l.Marker {
		return true, nil
	}

	if l.Delimiter != "" {
		if idx := strings.Index(objKey[len(l.Prefix):], l.Delimiter); idx >= 0 {
			commonPrefix := objKey[:len(l.Prefix)+idx+len(l.Delimiter)]
			if l.seen == nil {
				l.seen = make(map[string]bool)
			}
			if !l.seen[commonPrefix] {
				l.seen[commonPrefix] = true
				l.CommonPrefixes = append(l.CommonPrefixes, commonPrefix)
			}
			return true, nil
		}
	}

	if l.MaxKeys > 0 && l.count >= l.MaxKeys {
		l.Truncated = true
		return false, nil
	}

	record, err := decode()
	if err != nil {
		return false, fmt.Errorf("failed to decode object %s: %w", objKey, err)
	}
	l.Objects = append(l.Objects, *record)
	l.count++
	return true, nil
}
