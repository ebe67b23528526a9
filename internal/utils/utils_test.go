package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

// TestUID 测试各种风格的 ID 生成
func TestUID(t *testing.T) {
	testCases := []struct {
		style  string
		length int
	}{
		{HEX, 16},
		{HEX, 32},
		{"", 8},
		{"", 36},
	}

	for _, tc := range testCases {
		id1 := UID(tc.style, tc.length)
		id2 := UID(tc.style, tc.length)

		if len(id1) != tc.length {
			t.Errorf("UID(%q, %d) 长度应为 %d，实际为: %d", tc.style, tc.length, tc.length, len(id1))
		}
		if id1 == id2 {
			t.Errorf("UID(%q) 两次生成的 ID 不应相同: %s", tc.style, id1)
		}
	}

	// HEX 风格只包含十六进制字符
	for _, char := range UID(HEX, 32) {
		if !strings.ContainsRune("0123456789abcdef", char) {
			t.Errorf("HEX 风格 ID 包含无效字符: %c", char)
		}
	}
}

// TestParseSize 测试大小解析
func TestParseSize(t *testing.T) {
	testCases := []struct {
		input    string
		unit     string
		expected int
		wantErr  bool
	}{
		{"32K", "", 32 << 10, false},
		{"8m", "", 8 << 20, false},
		{"1G", "", 1 << 30, false},
		{"512", "", 512, false},
		{"4", "K", 4 << 10, false},
		{"0x10", "", 16, false},
		{"", "", -1, true},
		{"K", "", -1, true},
		{"12T", "", -1, true},
		{"abc", "", -1, true},
	}

	for _, tc := range testCases {
		result, err := ParseSize(tc.input, tc.unit)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseSize(%q, %q) 应当返回错误，实际得到: %d", tc.input, tc.unit, result)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSize(%q, %q) 返回错误: %v", tc.input, tc.unit, err)
			continue
		}
		if result != tc.expected {
			t.Errorf("ParseSize(%q, %q) = %d; 期望: %d", tc.input, tc.unit, result, tc.expected)
		}
	}
}

func TestMustParseSize(t *testing.T) {
	if got := MustParseSize("256M"); got != 256<<20 {
		t.Errorf("MustParseSize(256M) = %d", got)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("无效大小应当 panic")
		}
	}()
	MustParseSize("lots")
}

func TestFileExist(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "exists.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !FileExist(file) {
		t.Errorf("文件应当存在: %s", file)
	}
	if FileExist(filepath.Join(dir, "missing.txt")) {
		t.Error("不存在的文件不应返回 true")
	}
	if FileExist(dir) {
		t.Error("目录不应当作文件")
	}
}

// TestParseSignal 测试信号名与编号解析
func TestParseSignal(t *testing.T) {
	testCases := []struct {
		input    string
		expected unix.Signal
	}{
		{"TERM", unix.SIGTERM},
		{"sigint", unix.SIGINT},
		{"SIGHUP", unix.SIGHUP},
		{"9", unix.SIGKILL},
	}
	for _, tc := range testCases {
		sig, err := ParseSignal(tc.input)
		if err != nil {
			t.Errorf("ParseSignal(%q) 返回错误: %v", tc.input, err)
			continue
		}
		if sig != tc.expected {
			t.Errorf("ParseSignal(%q) = %v; 期望: %v", tc.input, sig, tc.expected)
		}
	}

	if _, err := ParseSignal("NOPE"); err == nil {
		t.Error("未知信号应当返回错误")
	}
}

// TestSafeGo panic 不应传播到调用方
func TestSafeGo(t *testing.T) {
	done := make(chan struct{})
	SafeGo(func() {
		defer close(done)
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine 没有执行")
	}
}
