// Package logger 提供统一的日志工具，底层使用 zerolog
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Level 日志级别
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case DEBUG:
		return zerolog.DebugLevel
	case WARN:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLevel 解析日志级别字符串，无法识别时返回 INFO
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Logger 日志记录器
type Logger struct {
	mu       sync.Mutex
	level    Level
	enabled  bool
	console  io.Writer
	fileOut  *os.File
	filePath string
	zl       zerolog.Logger
}

// 全局默认 logger
var defaultLogger = New()

// New 创建输出到标准错误的 Logger，标准输出留给命令的结果
func New() *Logger {
	l := &Logger{
		level:   INFO,
		enabled: true,
		console: consoleWriter(),
	}
	l.rebuild()
	return l
}

func consoleWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
}

// Default 获取默认 logger
func Default() *Logger {
	return defaultLogger
}

// SetLevel 设置日志级别
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.rebuild()
}

// SetEnabled 设置是否启用日志
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
	l.rebuild()
}

// SetConsole 设置是否输出到控制台
func (l *Logger) SetConsole(enabled bool) {
	l.SetOutput(nil)
	if enabled {
		l.SetOutput(consoleWriter())
	}
}

// SetOutput 替换控制台输出，nil 表示关闭
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console = w
	l.rebuild()
}

// SetFile 设置是否输出到文件，文件中记录 JSON 格式日志
func (l *Logger) SetFile(enabled bool, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileOut != nil {
		l.fileOut.Close()
		l.fileOut = nil
	}
	l.filePath = path

	if enabled && path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			l.rebuild()
			return fmt.Errorf("无法打开日志文件: %w", err)
		}
		l.fileOut = f
	}

	l.rebuild()
	return nil
}

// rebuild 根据当前设置重新生成 zerolog 实例，调用方持有锁
func (l *Logger) rebuild() {
	var writers []io.Writer
	if l.console != nil {
		writers = append(writers, l.console)
	}
	if l.fileOut != nil {
		writers = append(writers, l.fileOut)
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	level := l.level.zerolog()
	if !l.enabled {
		level = zerolog.Disabled
	}
	l.zl = zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Zerolog 返回底层 zerolog 实例，用于结构化字段
func (l *Logger) Zerolog() *zerolog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	zl := l.zl
	return &zl
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	zl := l.zl
	l.mu.Unlock()
	zl.WithLevel(level.zerolog()).Msgf(format, args...)
}

// Debug 输出 DEBUG 级别日志
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

// Info 输出 INFO 级别日志
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

// Warn 输出 WARN 级别日志
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

// Error 输出 ERROR 级别日志
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// LogEvent 记录带分类的事件日志，失败事件按 ERROR 级别输出
func (l *Logger) LogEvent(category string, ok bool, elapsedMs float64, detail string) {
	l.mu.Lock()
	zl := l.zl
	l.mu.Unlock()

	ev := zl.Info()
	if !ok {
		ev = zl.Error()
	}
	ev.Str("category", category).
		Bool("ok", ok).
		Float64("elapsed_ms", elapsedMs).
		Msg(detail)
}

// Close 关闭 logger，释放资源
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileOut != nil {
		err := l.fileOut.Close()
		l.fileOut = nil
		l.rebuild()
		return err
	}
	return nil
}

// 包级别便捷函数
func Debug(format string, args ...interface{}) { defaultLogger.Debug(format, args...) }
func Info(format string, args ...interface{})  { defaultLogger.Info(format, args...) }
func Warn(format string, args ...interface{})  { defaultLogger.Warn(format, args...) }
func Error(format string, args ...interface{}) { defaultLogger.Error(format, args...) }
func LogEvent(category string, ok bool, elapsedMs float64, detail string) {
	defaultLogger.LogEvent(category, ok, elapsedMs, detail)
}
