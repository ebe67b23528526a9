package zipstream

import (
	"encoding/binary"
	"time"
)

const (
	fileHeaderSignature      = 0x04034b50
	directoryHeaderSignature = 0x02014b50
	directoryEndSignature    = 0x06054b50
	directory64LocSignature  = 0x07064b50
	directory64EndSignature  = 0x06064b50
	dataDescriptorSignature  = 0x08074b50

	fileHeaderLen       = 30
	directoryHeaderLen  = 46
	directoryEndLen     = 22
	directory64LocLen   = 20
	directory64EndLen   = 56
	dataDescriptorLen   = 16
	dataDescriptor64Len = 24

	zipVersion20 = 20
	zipVersion45 = 45
	creatorUnix  = 3

	flagDataDescriptor = 0x8
	flagUTF8           = 0x800

	zip64ExtraID    = 0x0001
	extTimeExtraID  = 0x5455
	extTimeExtraLen = 9
	zip64ExtraLen   = 28
	uint16max       = (1 << 16) - 1
	uint32max       = (1 << 32) - 1
	defaultFileMode = 0o100644
)

// Method 归档统一使用的压缩方式
type Method uint16

const (
	Store   Method = 0
	Deflate Method = 8
)

func (m Method) String() string {
	switch m {
	case Store:
		return "store"
	case Deflate:
		return "deflate"
	}
	return "unknown"
}

// ParseMethod 解析配置中的压缩方式
func ParseMethod(s string) (Method, bool) {
	switch s {
	case "store", "stored", "":
		return Store, true
	case "deflate", "deflated":
		return Deflate, true
	}
	return 0, false
}

// writeBuf 小端序记录编码
type writeBuf []byte

func (b *writeBuf) uint8(v uint8) {
	(*b)[0] = v
	*b = (*b)[1:]
}

func (b *writeBuf) uint16(v uint16) {
	binary.LittleEndian.PutUint16(*b, v)
	*b = (*b)[2:]
}

func (b *writeBuf) uint32(v uint32) {
	binary.LittleEndian.PutUint32(*b, v)
	*b = (*b)[4:]
}

func (b *writeBuf) uint64(v uint64) {
	binary.LittleEndian.PutUint64(*b, v)
	*b = (*b)[8:]
}

// timeToMsDos 转换为 MS-DOS 日期与时间，早于 1980 年的时间按 1980-01-01 处理
func timeToMsDos(t time.Time) (fDate uint16, fTime uint16) {
	if t.Year() < 1980 {
		t = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	fDate = uint16(t.Day() + int(t.Month())<<5 + (t.Year()-1980)<<9)
	fTime = uint16(t.Second()/2 + t.Minute()<<5 + t.Hour()<<11)
	return
}

func extendedTimestamp(t time.Time) []byte {
	buf := make([]byte, extTimeExtraLen)
	b := writeBuf(buf)
	b.uint16(extTimeExtraID)
	b.uint16(5)
	b.uint8(1) // 仅包含修改时间
	b.uint32(uint32(t.Unix()))
	return buf
}

// entryRecord 已完成条目的元数据，用于写中央目录
type entryRecord struct {
	name             string
	flags            uint16
	modified         time.Time
	crc32            uint32
	compressedSize   uint64
	uncompressedSize uint64
	offset           uint64
}

func (r *entryRecord) info() EntryInfo {
	return EntryInfo{
		Name:             r.name,
		CRC32:            r.crc32,
		CompressedSize:   int64(r.compressedSize),
		UncompressedSize: int64(r.uncompressedSize),
		Offset:           int64(r.offset),
		Modified:         r.modified,
	}
}

func (r *entryRecord) isZip64() bool {
	return r.compressedSize >= uint32max || r.uncompressedSize >= uint32max
}

func (w *Writer) localHeader(name string, flags uint16, modified time.Time) []byte {
	extra := extendedTimestamp(modified)
	buf := make([]byte, fileHeaderLen+len(name)+len(extra))
	b := writeBuf(buf)
	fDate, fTime := timeToMsDos(modified)
	b.uint32(fileHeaderSignature)
	b.uint16(zipVersion20)
	b.uint16(flags)
	b.uint16(uint16(w.method))
	b.uint16(fTime)
	b.uint16(fDate)
	b.uint32(0) // CRC-32 与大小写在数据描述符中
	b.uint32(0)
	b.uint32(0)
	b.uint16(uint16(len(name)))
	b.uint16(uint16(len(extra)))
	copy(b, name)
	copy(b[len(name):], extra)
	return buf
}

func dataDescriptor(r *entryRecord) []byte {
	if r.isZip64() {
		buf := make([]byte, dataDescriptor64Len)
		b := writeBuf(buf)
		b.uint32(dataDescriptorSignature)
		b.uint32(r.crc32)
		b.uint64(r.compressedSize)
		b.uint64(r.uncompressedSize)
		return buf
	}
	buf := make([]byte, dataDescriptorLen)
	b := writeBuf(buf)
	b.uint32(dataDescriptorSignature)
	b.uint32(r.crc32)
	b.uint32(uint32(r.compressedSize))
	b.uint32(uint32(r.uncompressedSize))
	return buf
}

func (w *Writer) directoryHeader(r *entryRecord) []byte {
	extra := extendedTimestamp(r.modified)
	version := uint16(zipVersion20)
	compressed, uncompressed, offset := uint32(r.compressedSize), uint32(r.uncompressedSize), uint32(r.offset)
	if r.isZip64() || r.offset >= uint32max {
		// 三个字段全部移入 zip64 扩展字段
		version = zipVersion45
		compressed, uncompressed, offset = uint32max, uint32max, uint32max
		z := make([]byte, zip64ExtraLen)
		b := writeBuf(z)
		b.uint16(zip64ExtraID)
		b.uint16(24)
		b.uint64(r.uncompressedSize)
		b.uint64(r.compressedSize)
		b.uint64(r.offset)
		extra = append(z, extra...)
	}

	buf := make([]byte, directoryHeaderLen+len(r.name)+len(extra))
	b := writeBuf(buf)
	fDate, fTime := timeToMsDos(r.modified)
	b.uint32(directoryHeaderSignature)
	b.uint16(creatorUnix<<8 | version)
	b.uint16(version)
	b.uint16(r.flags)
	b.uint16(uint16(w.method))
	b.uint16(fTime)
	b.uint16(fDate)
	b.uint32(r.crc32)
	b.uint32(compressed)
	b.uint32(uncompressed)
	b.uint16(uint16(len(r.name)))
	b.uint16(uint16(len(extra)))
	b.uint16(0) // 条目注释
	b.uint16(0) // 起始磁盘号
	b.uint16(0) // 内部属性
	b.uint32(defaultFileMode << 16)
	b.uint32(offset)
	copy(b, r.name)
	copy(b[len(r.name):], extra)
	return buf
}

// directoryEnd 生成中央目录之后的结束记录，必要时带 zip64 结束记录与定位符
func (w *Writer) directoryEnd(records, start, end uint64) []byte {
	size := end - start
	var buf []byte
	if records >= uint16max || size >= uint32max || start >= uint32max {
		z := make([]byte, directory64EndLen+directory64LocLen)
		b := writeBuf(z)
		b.uint32(directory64EndSignature)
		b.uint64(directory64EndLen - 12) // 不含前 12 字节
		b.uint16(zipVersion45)
		b.uint16(zipVersion45)
		b.uint32(0)
		b.uint32(0)
		b.uint64(records)
		b.uint64(records)
		b.uint64(size)
		b.uint64(start)

		b.uint32(directory64LocSignature)
		b.uint32(0)
		b.uint64(end) // zip64 结束记录紧跟在中央目录之后
		b.uint32(1)
		buf = z

		records = uint16max
		size = uint32max
		start = uint32max
	}

	e := make([]byte, directoryEndLen+len(w.comment))
	b := writeBuf(e)
	b.uint32(directoryEndSignature)
	b.uint16(0)
	b.uint16(0)
	b.uint16(uint16(records))
	b.uint16(uint16(records))
	b.uint32(uint32(size))
	b.uint32(uint32(start))
	b.uint16(uint16(len(w.comment)))
	copy(b, w.comment)
	return append(buf, e...)
}
