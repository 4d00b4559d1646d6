package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warning", WARN},
		{"error", ERROR},
		{"", INFO},
		{"verbose", INFO},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)
	l.SetLevel(WARN)

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	l.Warn("warn %d", 3)
	l.Error("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("低于 WARN 的日志不应输出: %s", out)
	}
	if !strings.Contains(out, "warn 3") || !strings.Contains(out, "error 4") {
		t.Errorf("缺少 WARN/ERROR 日志: %s", out)
	}
}

func TestDisabled(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)
	l.SetEnabled(false)

	l.Error("should not appear")
	if buf.Len() != 0 {
		t.Errorf("禁用后不应有输出: %s", buf.String())
	}
}

func TestLogEvent(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)

	l.LogEvent("FIND", false, 12.5, "3 matches")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("日志不是 JSON: %v (%s)", err, buf.String())
	}
	if entry["level"] != "error" {
		t.Errorf("失败事件应为 error 级别, got %v", entry["level"])
	}
	if entry["category"] != "FIND" || entry["ok"] != false || entry["elapsed_ms"] != 12.5 {
		t.Errorf("事件字段错误: %v", entry)
	}
	if entry["message"] != "3 matches" {
		t.Errorf("message = %v", entry["message"])
	}
}

func TestSetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.log")
	l := New()
	l.SetOutput(nil)
	if err := l.SetFile(true, path); err != nil {
		t.Fatalf("SetFile() 失败: %v", err)
	}
	l.Info("written to file")
	if err := l.Close(); err != nil {
		t.Fatalf("Close() 失败: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("日志文件内容错误: %s", data)
	}
}

// redirect 把 *target 替换为管道，返回恢复函数和读取全部输出的函数
func redirect(t *testing.T, target **os.File) (restore func(), read func() string) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("创建管道失败: %v", err)
	}
	orig := *target
	*target = w
	done := make(chan string)
	go func() {
		data, _ := io.ReadAll(r)
		done <- string(data)
	}()
	restore = func() { *target = orig }
	read = func() string {
		w.Close()
		return <-done
	}
	return restore, read
}

func TestConsoleWritesToStderr(t *testing.T) {
	restoreOut, readOut := redirect(t, &os.Stdout)
	defer restoreOut()
	restoreErr, readErr := redirect(t, &os.Stderr)
	defer restoreErr()

	l := New()
	l.Info("console line")
	l.SetConsole(true)
	l.LogEvent("SRCH", true, 1, "after SetConsole")

	stdout, stderr := readOut(), readErr()
	if stdout != "" {
		t.Errorf("控制台日志不应写入标准输出: %q", stdout)
	}
	if !strings.Contains(stderr, "console line") || !strings.Contains(stderr, "after SetConsole") {
		t.Errorf("控制台日志应写入标准错误: %q", stderr)
	}
}
