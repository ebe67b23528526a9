package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/elastic-io/bucketzip/internal/log"
	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// HEX 去掉连字符的 uuid 十六进制串
const HEX = "hex"

// UID 基于 uuid 生成 ID，length <= 0 时返回完整长度
func UID(style string, length int) string {
	s := uuid.New().String()
	if style == HEX {
		s = strings.ReplaceAll(s, "-", "")
	}
	if length > 0 && length < len(s) {
		return s[:length]
	}
	return s
}

// ParseSize 解析 32K、8M、1G 这类大小，unit 是 s 不带单位时使用的单位
func ParseSize(s, unit string) (int, error) {
	sz := strings.TrimRight(s, "gGmMkK")
	if len(sz) == 0 {
		return -1, fmt.Errorf("%q:can't parse as num[gGmMkK]:%w", s, strconv.ErrSyntax)
	}
	amt, err := strconv.ParseUint(sz, 0, 0)
	if err != nil {
		return -1, err
	}
	if len(s) > len(sz) {
		unit = s[len(sz):]
	}
	switch unit {
	case "G", "g":
		return int(amt) << 30, nil
	case "M", "m":
		return int(amt) << 20, nil
	case "K", "k":
		return int(amt) << 10, nil
	case "":
		return int(amt), nil
	}
	return -1, fmt.Errorf("can not parse %q as num[gGmMkK]:%w", s, strconv.ErrSyntax)
}

func MustParseSize(s string) int {
	res, err := ParseSize(s, "")
	if err != nil {
		panic(err)
	}
	return res
}

// FileExist 判断 file 是否为存在的普通文件
func FileExist(file string) bool {
	info, err := os.Stat(file)
	return err == nil && !info.IsDir()
}

// ParseSignal 解析信号名或编号，例如 TERM、SIGHUP、15
func ParseSignal(rawSignal string) (unix.Signal, error) {
	s, err := strconv.Atoi(rawSignal)
	if err == nil {
		return unix.Signal(s), nil
	}
	sig := strings.ToUpper(rawSignal)
	if !strings.HasPrefix(sig, "SIG") {
		sig = "SIG" + sig
	}
	signal := unix.SignalNum(sig)
	if signal == 0 {
		return -1, fmt.Errorf("unknown signal %q", rawSignal)
	}
	return signal, nil
}

func SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Logger.Errorw("goroutine panic", "panic", r)
			}
		}()
		fn()
	}()
}
