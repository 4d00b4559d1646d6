package search

import (
	"fmt"
	"runtime"
)

// Clustering 重叠候选的归并策略
type Clustering string

const (
	// ClusterGreedy 单遍贪心归并（默认）
	ClusterGreedy Clustering = "greedy"
	// ClusterComponents 按重叠连通分量归并，每个分量保留分数最低的候选
	ClusterComponents Clustering = "components"
)

// ParseClustering 解析策略名称，空字符串返回默认策略
func ParseClustering(s string) (Clustering, error) {
	switch Clustering(s) {
	case "", ClusterGreedy:
		return ClusterGreedy, nil
	case ClusterComponents:
		return ClusterComponents, nil
	default:
		return "", fmt.Errorf("未知的归并策略: %s", s)
	}
}

// Config 一次搜索的参数
type Config struct {
	// ColorTolerance 单通道允许的最大绝对差
	ColorTolerance int
	// PixelTolerance 窗口内允许的最大失配像素数
	PixelTolerance int
	// Workers 比较器并发数，<=0 时使用 GOMAXPROCS
	Workers int
	// Clustering 归并策略
	Clustering Clustering
}

// Option 配置函数
type Option func(*Config)

// WithColorTolerance 设置颜色容差，负数按 0 处理
func WithColorTolerance(tol int) Option {
	return func(c *Config) {
		c.ColorTolerance = tol
	}
}

// WithPixelTolerance 设置像素容差，负数按 0 处理
func WithPixelTolerance(tol int) Option {
	return func(c *Config) {
		c.PixelTolerance = tol
	}
}

// WithWorkers 设置比较器并发数
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

// WithClustering 设置归并策略
func WithClustering(s Clustering) Option {
	return func(c *Config) {
		c.Clustering = s
	}
}

// NewConfig 应用选项并归一化非法值
func NewConfig(opts ...Option) Config {
	cfg := Config{Clustering: ClusterGreedy}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.ColorTolerance < 0 {
		cfg.ColorTolerance = 0
	}
	if cfg.PixelTolerance < 0 {
		cfg.PixelTolerance = 0
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Clustering == "" {
		cfg.Clustering = ClusterGreedy
	}
	return cfg
}
