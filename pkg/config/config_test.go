package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultSearchConfig(t *testing.T) {
	config := DefaultSearchConfig()

	if config.ColorTolerance != 0 || config.PixelTolerance != 0 {
		t.Errorf("默认容差应为 0: %+v", config)
	}
	if config.Clustering != "greedy" {
		t.Errorf("默认归并策略应为 greedy, 实际为 %s", config.Clustering)
	}
	if config.GRPCAddr != "localhost:50051" {
		t.Errorf("默认 GRPCAddr 应为 localhost:50051, 实际为 %s", config.GRPCAddr)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("默认配置应合法: %v", err)
	}

	t.Logf("默认配置: %+v", config)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *SearchConfig)
		wantErr bool
	}{
		{"default", func(c *SearchConfig) {}, false},
		{"components", func(c *SearchConfig) { c.Clustering = "components" }, false},
		{"empty clustering", func(c *SearchConfig) { c.Clustering = "" }, false},
		{"negative color", func(c *SearchConfig) { c.ColorTolerance = -1 }, true},
		{"negative pixel", func(c *SearchConfig) { c.PixelTolerance = -1 }, true},
		{"negative max", func(c *SearchConfig) { c.MaxResults = -1 }, true},
		{"unknown clustering", func(c *SearchConfig) { c.Clustering = "kmeans" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultSearchConfig()
			tt.modify(c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestVisionOptions(t *testing.T) {
	c := DefaultSearchConfig()
	c.ColorTolerance = 5
	if n := len(c.VisionOptions()); n != 5 {
		t.Errorf("VisionOptions() 返回 %d 个选项, want 5", n)
	}
}

func TestManagerSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	if manager.Exists() {
		t.Error("初始时配置文件不应存在")
	}

	config := &SearchConfig{
		ColorTolerance: 12,
		PixelTolerance: 3,
		Workers:        2,
		Clustering:     "components",
		MaxResults:     10,
		LogLevel:       "DEBUG",
		LogFile:        "/tmp/tplsearch.log",
		ListenAddr:     "0.0.0.0:9000",
		GRPCAddr:       "0.0.0.0:9001",
	}

	if err := manager.Save(config); err != nil {
		t.Fatalf("保存配置失败: %v", err)
	}
	if !manager.Exists() {
		t.Error("保存后配置文件应存在")
	}

	loaded, err := manager.Load()
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if *loaded != *config {
		t.Errorf("配置不匹配: 期望 %+v, 实际 %+v", config, loaded)
	}

	t.Logf("加载的配置: %+v", loaded)
}

func TestManagerLoadPartial(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	// 只写入部分字段，其余应保持默认值
	if err := os.WriteFile(manager.GetConfigFile(), []byte(`{"color_tolerance": 7}`), 0600); err != nil {
		t.Fatalf("创建测试文件失败: %v", err)
	}

	config, err := manager.Load()
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if config.ColorTolerance != 7 {
		t.Errorf("ColorTolerance = %d, want 7", config.ColorTolerance)
	}
	if config.GRPCAddr != DefaultSearchConfig().GRPCAddr || config.Clustering != "greedy" {
		t.Errorf("缺少的字段应保持默认值: %+v", config)
	}
}

func TestManagerSaveInvalid(t *testing.T) {
	manager := NewManagerWithDir(t.TempDir())
	config := DefaultSearchConfig()
	config.PixelTolerance = -2

	if err := manager.Save(config); err == nil {
		t.Error("保存非法配置应返回错误")
	}
	if manager.Exists() {
		t.Error("非法配置不应写入文件")
	}
}

func TestManagerClear(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	if err := manager.Save(DefaultSearchConfig()); err != nil {
		t.Fatalf("保存配置失败: %v", err)
	}
	if !manager.Exists() {
		t.Fatal("保存后配置文件应存在")
	}

	if err := manager.Clear(); err != nil {
		t.Fatalf("清除配置失败: %v", err)
	}
	if manager.Exists() {
		t.Error("清除后配置文件不应存在")
	}

	// 清除不存在的文件不应报错
	if err := manager.Clear(); err != nil {
		t.Errorf("清除不存在的配置不应报错: %v", err)
	}
}

func TestManagerLoadNonExistent(t *testing.T) {
	manager := NewManagerWithDir(t.TempDir())

	config, err := manager.Load()
	if err != nil {
		t.Fatalf("加载不存在的配置不应报错: %v", err)
	}
	if *config != *DefaultSearchConfig() {
		t.Errorf("应返回默认配置, got %+v", config)
	}
}

func TestManagerLoadCorruptedFile(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	configFile := filepath.Join(tempDir, "config.json")
	if err := os.WriteFile(configFile, []byte("not valid json"), 0600); err != nil {
		t.Fatalf("创建测试文件失败: %v", err)
	}

	// 加载损坏的配置应返回默认值和错误
	config, err := manager.Load()
	if err == nil {
		t.Error("加载损坏的配置应返回错误")
	}
	if config == nil {
		t.Error("即使出错也应返回默认配置")
	}

	t.Logf("加载损坏配置的错误: %v", err)
}

func TestManagerPaths(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	if manager.GetConfigDir() != tempDir {
		t.Errorf("GetConfigDir 应为 %s", tempDir)
	}

	expectedFile := filepath.Join(tempDir, "config.json")
	if manager.GetConfigFile() != expectedFile {
		t.Errorf("GetConfigFile 应为 %s", expectedFile)
	}
}

func TestDefaultManager(t *testing.T) {
	manager := GetDefaultManager()
	if manager == nil {
		t.Fatal("GetDefaultManager 返回 nil")
	}

	homeDir, _ := os.UserHomeDir()
	expectedDir := filepath.Join(homeDir, ".tplsearch")
	if manager.GetConfigDir() != expectedDir {
		t.Errorf("默认配置目录应为 %s, 实际为 %s", expectedDir, manager.GetConfigDir())
	}

	t.Logf("默认配置目录: %s", manager.GetConfigDir())
}

// BenchmarkSaveLoad 基准测试
func BenchmarkSaveLoad(b *testing.B) {
	manager := NewManagerWithDir(b.TempDir())
	config := DefaultSearchConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		manager.Save(config)
		manager.Load()
	}
}
