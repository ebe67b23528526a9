// Package zipstream writes zip archives to a forward-only sink.
//
// Entry sizes are never known up front: every local header is written with
// the data-descriptor flag set and zero sizes, and the CRC-32 and sizes follow
// the entry data in a data descriptor record. Nothing is seeked or buffered, so
// the sink may be a socket or an HTTP response body. The central directory is
// only written by Finish.
package zipstream

import (
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"time"
	"unicode/utf8"

	"github.com/elastic-io/bucketzip/internal/errdefs"
	"github.com/klauspost/compress/flate"
)

type state int

const (
	stateIdle state = iota
	stateEntryOpen
	stateFinalized
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateEntryOpen:
		return "entry open"
	case stateFinalized:
		return "finalized"
	}
	return "unknown"
}

// Option 归档级配置
type Option func(*Writer)

// WithMethod 设置整个归档的压缩方式
func WithMethod(m Method) Option {
	return func(w *Writer) { w.method = m }
}

// WithLevel 设置 deflate 压缩级别
func WithLevel(level int) Option {
	return func(w *Writer) { w.level = level }
}

// WithComment 设置归档注释，超过 65535 字节时写入器直接进入错误状态
func WithComment(comment string) Option {
	return func(w *Writer) { w.comment = comment }
}

// EntryOption 单个条目的配置
type EntryOption func(*entry)

// WithModified 设置条目的修改时间，默认是 BeginEntry 调用时刻
func WithModified(t time.Time) EntryOption {
	return func(e *entry) {
		if !t.IsZero() {
			e.record.modified = t
		}
	}
}

// EntryInfo 已完成条目的只读视图
type EntryInfo struct {
	Name             string
	CRC32            uint32
	CompressedSize   int64
	UncompressedSize int64
	Offset           int64
	Modified         time.Time
}

// entry 当前正在写入的条目
type entry struct {
	record           entryRecord
	crc              hash.Hash32
	uncompressedSize uint64
	// 压缩后数据的计数，起点是本条目数据区的偏移
	dataStart uint64
}

// Writer 流式 zip 编码器，不支持并发调用
type Writer struct {
	cw      *countWriter
	method  Method
	level   int
	comment string

	state   state
	current *entry
	entries []*entryRecord
	// 写入失败后的粘滞错误
	err error

	comp *flate.Writer
}

// NewWriter 创建写入 sink 的编码器
func NewWriter(sink io.Writer, opts ...Option) *Writer {
	w := &Writer{
		cw:     &countWriter{w: sink},
		method: Store,
		level:  flate.DefaultCompression,
	}
	for _, opt := range opts {
		opt(w)
	}
	if len(w.comment) > uint16max {
		w.err = fmt.Errorf("zipstream: comment length %d exceeds %d", len(w.comment), uint16max)
	}
	return w
}

// BeginEntry 写出本地文件头并打开一个新条目
func (w *Writer) BeginEntry(name string, opts ...EntryOption) error {
	if w.err != nil {
		return w.err
	}
	if w.state != stateIdle {
		return errdefs.InvalidState("BeginEntry", w.state.String())
	}
	if len(name) == 0 || len(name) > uint16max {
		return fmt.Errorf("zipstream: invalid entry name length %d", len(name))
	}

	e := &entry{
		record: entryRecord{
			name:     name,
			flags:    flagDataDescriptor,
			modified: time.Now(),
			offset:   uint64(w.cw.count),
		},
		crc: crc32.NewIEEE(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if hasValidUTF8(name) {
		e.record.flags |= flagUTF8
	}

	if _, err := w.cw.Write(w.localHeader(name, e.record.flags, e.record.modified)); err != nil {
		return w.fail(err)
	}
	e.dataStart = uint64(w.cw.count)

	if w.method == Deflate {
		if w.comp == nil {
			comp, err := flate.NewWriter(w.cw, w.level)
			if err != nil {
				return w.fail(err)
			}
			w.comp = comp
		} else {
			w.comp.Reset(w.cw)
		}
	}

	w.current = e
	w.state = stateEntryOpen
	return nil
}

// WriteChunk 写入当前条目的一段内容，更新 CRC-32 与计数后立即下发到 sink
func (w *Writer) WriteChunk(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.state != stateEntryOpen {
		return 0, errdefs.InvalidState("WriteChunk", w.state.String())
	}
	if len(p) == 0 {
		return 0, nil
	}

	var (
		n   int
		err error
	)
	if w.method == Deflate {
		n, err = w.comp.Write(p)
	} else {
		n, err = w.cw.Write(p)
	}
	w.current.crc.Write(p[:n])
	w.current.uncompressedSize += uint64(n)
	if err != nil {
		return n, w.fail(err)
	}
	return n, nil
}

// Write 实现 io.Writer，等同于 WriteChunk
func (w *Writer) Write(p []byte) (int, error) {
	return w.WriteChunk(p)
}

// EndEntry 结束当前条目并写出数据描述符
func (w *Writer) EndEntry() error {
	if w.err != nil {
		return w.err
	}
	if w.state != stateEntryOpen {
		return errdefs.InvalidState("EndEntry", w.state.String())
	}
	if w.method == Deflate {
		if err := w.comp.Close(); err != nil {
			return w.fail(err)
		}
	}

	e := w.current
	e.record.crc32 = e.crc.Sum32()
	e.record.uncompressedSize = e.uncompressedSize
	e.record.compressedSize = uint64(w.cw.count) - e.dataStart

	if _, err := w.cw.Write(dataDescriptor(&e.record)); err != nil {
		return w.fail(err)
	}

	w.entries = append(w.entries, &e.record)
	w.current = nil
	w.state = stateIdle
	return nil
}

// Finish 写出中央目录与结束记录，之后写入器进入终态
func (w *Writer) Finish() error {
	if w.err != nil {
		return w.err
	}
	if w.state != stateIdle {
		return errdefs.InvalidState("Finish", w.state.String())
	}

	start := uint64(w.cw.count)
	for _, r := range w.entries {
		if _, err := w.cw.Write(w.directoryHeader(r)); err != nil {
			return w.fail(err)
		}
	}
	end := uint64(w.cw.count)

	if _, err := w.cw.Write(w.directoryEnd(uint64(len(w.entries)), start, end)); err != nil {
		return w.fail(err)
	}
	w.state = stateFinalized
	return nil
}

// Offset 已写入 sink 的字节数
func (w *Writer) Offset() int64 {
	return w.cw.count
}

// Finalized 是否已经写出中央目录
func (w *Writer) Finalized() bool {
	return w.state == stateFinalized
}

// Entries 返回已完成的条目，按写入顺序，每次调用都会复制
func (w *Writer) Entries() []EntryInfo {
	infos := make([]EntryInfo, 0, len(w.entries))
	for _, r := range w.entries {
		infos = append(infos, r.info())
	}
	return infos
}

// Last 最近一个完成的条目
func (w *Writer) Last() (EntryInfo, bool) {
	if len(w.entries) == 0 {
		return EntryInfo{}, false
	}
	return w.entries[len(w.entries)-1].info(), true
}

// Err 返回导致写入器不可用的错误
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) fail(err error) error {
	if w.err == nil {
		w.err = err
	}
	return w.err
}

// hasValidUTF8 名称是否需要设置 UTF-8 标志
func hasValidUTF8(s string) bool {
	needUTF8 := false
	for _, r := range s {
		if r >= utf8.RuneSelf {
			needUTF8 = true
		}
		if r == utf8.RuneError {
			return false
		}
	}
	return needUTF8
}

// countWriter 统计写入 sink 的字节数，即归档当前偏移
type countWriter struct {
	w     io.Writer
	count int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.count += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}
