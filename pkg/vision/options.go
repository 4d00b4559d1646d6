package vision

import (
	"github.com/zoeyai/tplsearch/internal/logger"
	"github.com/zoeyai/tplsearch/pkg/vision/search"
)

// Options 全局配置选项
type Options struct {
	// 搜索配置
	ColorTolerance int               // 单通道允许的最大差值，默认 0
	PixelTolerance int               // 允许的失配像素数，默认 0
	Workers        int               // 比较器并发数，0 表示 GOMAXPROCS
	Clustering     search.Clustering // 重叠候选归并策略
	MaxResults     int               // 最多返回的结果数，0 表示不限制

	// 日志配置
	LogEnabled bool   // 是否启用日志
	LogLevel   string // 日志级别
	LogConsole bool   // 是否输出到控制台
	LogFile    bool   // 是否输出到文件
	LogPath    string // 日志文件路径
}

// DefaultOptions 默认配置
var DefaultOptions = Options{
	ColorTolerance: 0,
	PixelTolerance: 0,
	Workers:        0,
	Clustering:     search.ClusterGreedy,
	MaxResults:     0,

	LogEnabled: true,
	LogLevel:   "INFO",
	LogConsole: true,
	LogFile:    false,
	LogPath:    "tplsearch.log",
}

// globalOptions 全局配置实例
var globalOptions = DefaultOptions

// GetOptions 获取当前全局配置
func GetOptions() *Options {
	return &globalOptions
}

// SetOptions 设置全局配置
func SetOptions(opts Options) {
	globalOptions = opts
}

// ResetOptions 重置为默认配置
func ResetOptions() {
	globalOptions = DefaultOptions
}

// ApplyLogOptions 把全局日志配置应用到默认 logger
func ApplyLogOptions() error {
	l := logger.Default()
	l.SetEnabled(globalOptions.LogEnabled)
	l.SetLevel(logger.ParseLevel(globalOptions.LogLevel))
	l.SetConsole(globalOptions.LogConsole)
	return l.SetFile(globalOptions.LogFile, globalOptions.LogPath)
}

// Option 配置选项函数类型
type Option func(*matchConfig)

// matchConfig 一次搜索的临时配置
type matchConfig struct {
	colorTolerance int
	pixelTolerance int
	workers        int
	clustering     search.Clustering
	maxResults     int
}

// defaultMatchConfig 从全局配置生成
func defaultMatchConfig() *matchConfig {
	return &matchConfig{
		colorTolerance: globalOptions.ColorTolerance,
		pixelTolerance: globalOptions.PixelTolerance,
		workers:        globalOptions.Workers,
		clustering:     globalOptions.Clustering,
		maxResults:     globalOptions.MaxResults,
	}
}

func newMatchConfig(opts []Option) *matchConfig {
	cfg := defaultMatchConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithColorTolerance 设置颜色容差
func WithColorTolerance(tol int) Option {
	return func(c *matchConfig) {
		c.colorTolerance = tol
	}
}

// WithPixelTolerance 设置像素容差
func WithPixelTolerance(tol int) Option {
	return func(c *matchConfig) {
		c.pixelTolerance = tol
	}
}

// WithWorkers 设置比较器并发数
func WithWorkers(n int) Option {
	return func(c *matchConfig) {
		c.workers = n
	}
}

// WithClustering 设置归并策略
func WithClustering(s search.Clustering) Option {
	return func(c *matchConfig) {
		c.clustering = s
	}
}

// WithMaxResults 只保留分数最好的 n 个结果
func WithMaxResults(n int) Option {
	return func(c *matchConfig) {
		c.maxResults = n
	}
}

// buildSearchOptions 转换为引擎选项
func buildSearchOptions(cfg *matchConfig) []search.Option {
	return []search.Option{
		search.WithColorTolerance(cfg.colorTolerance),
		search.WithPixelTolerance(cfg.pixelTolerance),
		search.WithWorkers(cfg.workers),
		search.WithClustering(cfg.clustering),
	}
}
