// Package config 管理 tplsearch 的本地 JSON 配置文件
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zoeyai/tplsearch/pkg/vision"
	"github.com/zoeyai/tplsearch/pkg/vision/search"
)

// SearchConfig 搜索与服务配置
type SearchConfig struct {
	ColorTolerance int    `json:"color_tolerance"`
	PixelTolerance int    `json:"pixel_tolerance"`
	Workers        int    `json:"workers"`
	Clustering     string `json:"clustering"`
	MaxResults     int    `json:"max_results"`
	LogLevel       string `json:"log_level"`
	LogFile        string `json:"log_file"`
	ListenAddr     string `json:"listen_addr"`
	GRPCAddr       string `json:"grpc_addr"`
}

// DefaultSearchConfig 默认配置
func DefaultSearchConfig() *SearchConfig {
	return &SearchConfig{
		ColorTolerance: 0,
		PixelTolerance: 0,
		Workers:        0,
		Clustering:     string(search.ClusterGreedy),
		MaxResults:     0,
		LogLevel:       "INFO",
		LogFile:        "",
		ListenAddr:     "localhost:8765",
		GRPCAddr:       "localhost:50051",
	}
}

// Validate 检查配置取值
func (c *SearchConfig) Validate() error {
	if c.ColorTolerance < 0 {
		return fmt.Errorf("color_tolerance 不能为负数: %d", c.ColorTolerance)
	}
	if c.PixelTolerance < 0 {
		return fmt.Errorf("pixel_tolerance 不能为负数: %d", c.PixelTolerance)
	}
	if c.MaxResults < 0 {
		return fmt.Errorf("max_results 不能为负数: %d", c.MaxResults)
	}
	if _, err := search.ParseClustering(c.Clustering); err != nil {
		return err
	}
	return nil
}

// VisionOptions 转换为搜索选项
func (c *SearchConfig) VisionOptions() []vision.Option {
	clustering, err := search.ParseClustering(c.Clustering)
	if err != nil {
		clustering = search.ClusterGreedy
	}
	return []vision.Option{
		vision.WithColorTolerance(c.ColorTolerance),
		vision.WithPixelTolerance(c.PixelTolerance),
		vision.WithWorkers(c.Workers),
		vision.WithClustering(clustering),
		vision.WithMaxResults(c.MaxResults),
	}
}

// Manager 配置管理器
type Manager struct {
	configDir  string
	configFile string
	mu         sync.RWMutex
}

// NewManager 创建配置管理器，配置位于 ~/.tplsearch/config.json
func NewManager() *Manager {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return NewManagerWithDir(filepath.Join(homeDir, ".tplsearch"))
}

// NewManagerWithDir 使用指定目录创建配置管理器
func NewManagerWithDir(configDir string) *Manager {
	return &Manager{
		configDir:  configDir,
		configFile: filepath.Join(configDir, "config.json"),
	}
}

// ensureDir 确保配置目录存在
func (m *Manager) ensureDir() error {
	return os.MkdirAll(m.configDir, 0755)
}

// Load 加载配置，文件中缺少的字段保持默认值
func (m *Manager) Load() (*SearchConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return DefaultSearchConfig(), nil
	}

	data, err := os.ReadFile(m.configFile)
	if err != nil {
		return DefaultSearchConfig(), fmt.Errorf("读取配置文件失败: %w", err)
	}

	config := DefaultSearchConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return DefaultSearchConfig(), fmt.Errorf("解析配置文件失败: %w", err)
	}
	if err := config.Validate(); err != nil {
		return DefaultSearchConfig(), fmt.Errorf("配置文件无效: %w", err)
	}

	return config, nil
}

// Save 保存配置
func (m *Manager) Save(config *SearchConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("配置无效: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureDir(); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(m.configFile, data, 0600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}

// Clear 清除配置
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return nil
	}

	return os.Remove(m.configFile)
}

// GetConfigDir 获取配置目录
func (m *Manager) GetConfigDir() string {
	return m.configDir
}

// GetConfigFile 获取配置文件路径
func (m *Manager) GetConfigFile() string {
	return m.configFile
}

// Exists 检查配置文件是否存在
func (m *Manager) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := os.Stat(m.configFile)
	return err == nil
}

// 全局配置管理器
var defaultManager = NewManager()

// GetDefaultManager 获取默认配置管理器
func GetDefaultManager() *Manager {
	return defaultManager
}

// Load 使用默认管理器加载配置
func Load() (*SearchConfig, error) {
	return defaultManager.Load()
}

// Save 使用默认管理器保存配置
func Save(config *SearchConfig) error {
	return defaultManager.Save(config)
}

// Clear 使用默认管理器清除配置
func Clear() error {
	return defaultManager.Clear()
}
