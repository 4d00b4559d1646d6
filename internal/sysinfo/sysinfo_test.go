package sysinfo

import (
	"runtime"
	"testing"
)

func TestGetSystemInfo(t *testing.T) {
	info := GetSystemInfo()

	t.Logf("系统信息:")
	t.Logf("  Hostname: %s", info.Hostname)
	t.Logf("  Platform: %s", info.Platform)
	t.Logf("  OSVersion: %s", info.OSVersion)
	t.Logf("  IPAddress: %s", info.IPAddress)
	t.Logf("  CPU: %s (%d/%d)", info.CPUModel, info.PhysicalCores, info.LogicalCores)
	t.Logf("  Memory: %d/%d", info.FreeMemory, info.TotalMemory)

	if info.Platform == "" {
		t.Error("Platform 不应为空")
	}
	if info.Version == "" {
		t.Error("Version 不应为空")
	}
	if info.LogicalCores != runtime.NumCPU() {
		t.Errorf("LogicalCores = %d, want %d", info.LogicalCores, runtime.NumCPU())
	}
	if info.IPAddress == "" {
		t.Error("IPAddress 不应为空")
	}
}

func TestRecommendedWorkers(t *testing.T) {
	n := RecommendedWorkers()
	if n < 1 || n > runtime.GOMAXPROCS(0) {
		t.Errorf("RecommendedWorkers() = %d, 应在 [1, %d] 之间", n, runtime.GOMAXPROCS(0))
	}
	if PhysicalCores() < 1 {
		t.Error("PhysicalCores() 应至少为 1")
	}
}

func TestHasFlag(t *testing.T) {
	if !hasFlag([]string{"up", "broadcast"}, "up") {
		t.Error("应包含 up")
	}
	if hasFlag([]string{"up"}, "loopback") {
		t.Error("不应包含 loopback")
	}
}
