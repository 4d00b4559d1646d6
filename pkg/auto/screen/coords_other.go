//go:build !windows

package screen

import (
	"github.com/go-vgo/robotgo"
)

// NormalizeRegionForInput 非 Windows 平台无需缩放
func NormalizeRegionForInput(x, y, width, height int) (int, int, int, int) {
	return x, y, width, height
}

// GetPhysicalScreenSize 获取物理屏幕尺寸
// 非 Windows 平台等同于 robotgo.GetScreenSize()（macOS Retina 由 robotgo 自行处理）
func GetPhysicalScreenSize() (width, height int) {
	return robotgo.GetScreenSize()
}

// ResetCoordinateScaleCache 非 Windows 平台无操作
func ResetCoordinateScaleCache() {}
