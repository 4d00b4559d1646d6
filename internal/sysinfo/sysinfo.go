// Package sysinfo 采集运行环境信息，用于 worker 数量推荐和服务健康检查
package sysinfo

import (
	"os"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/zoeyai/tplsearch/pkg/vision"
)

// SystemInfo 系统信息
type SystemInfo struct {
	Hostname      string `json:"hostname"`
	Platform      string `json:"platform"`
	OSVersion     string `json:"os_version"`
	Version       string `json:"version"`
	IPAddress     string `json:"ip_address"`
	CPUModel      string `json:"cpu_model,omitempty"`
	PhysicalCores int    `json:"physical_cores"`
	LogicalCores  int    `json:"logical_cores"`
	TotalMemory   uint64 `json:"total_memory"`
	FreeMemory    uint64 `json:"free_memory"`
	ProcessRSS    uint64 `json:"process_rss"`
}

// GetSystemInfo 获取当前系统信息，单项采集失败时该字段留空
func GetSystemInfo() *SystemInfo {
	hostname, _ := os.Hostname()

	platform := strings.ToUpper(runtime.GOOS)
	if platform == "DARWIN" {
		platform = "MACOS"
	}

	info := &SystemInfo{
		Hostname:     hostname,
		Platform:     platform,
		OSVersion:    runtime.GOOS + "/" + runtime.GOARCH,
		Version:      vision.Version,
		IPAddress:    getLocalIP(),
		LogicalCores: runtime.NumCPU(),
	}

	if h, err := host.Info(); err == nil && h.PlatformVersion != "" {
		info.OSVersion = h.Platform + " " + h.PlatformVersion + " (" + runtime.GOARCH + ")"
	}
	if cpus, err := cpu.Info(); err == nil && len(cpus) > 0 {
		info.CPUModel = cpus[0].ModelName
	}
	info.PhysicalCores = PhysicalCores()
	if vm, err := mem.VirtualMemory(); err == nil {
		info.TotalMemory = vm.Total
		info.FreeMemory = vm.Available
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			info.ProcessRSS = mi.RSS
		}
	}
	return info
}

// PhysicalCores 物理核心数，无法获取时返回逻辑核心数
func PhysicalCores() int {
	n, err := cpu.Counts(false)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// RecommendedWorkers 比较器的推荐并发数
// 取物理核心数，不超过 GOMAXPROCS
func RecommendedWorkers() int {
	return max(1, min(PhysicalCores(), runtime.GOMAXPROCS(0)))
}

// getLocalIP 返回第一个处于 up 状态的非回环 IPv4 地址
func getLocalIP() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "127.0.0.1"
	}
	for _, iface := range ifaces {
		if hasFlag(iface.Flags, "loopback") || !hasFlag(iface.Flags, "up") {
			continue
		}
		for _, addr := range iface.Addrs {
			ip, _, _ := strings.Cut(addr.Addr, "/")
			if strings.Count(ip, ".") == 3 {
				return ip
			}
		}
	}
	return "127.0.0.1"
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}
