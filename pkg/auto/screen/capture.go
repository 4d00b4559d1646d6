// Package screen 截取屏幕并在截图上执行模板搜索
package screen

import (
	"fmt"
	"image"

	"github.com/go-vgo/robotgo"
)

// Region 屏幕区域，使用截图物理像素坐标
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty 区域是否没有面积
func (r *Region) Empty() bool {
	return r == nil || r.Width <= 0 || r.Height <= 0
}

// CaptureScreen 截取全屏
func CaptureScreen() (image.Image, error) {
	img, err := robotgo.CaptureImg()
	if err != nil {
		return nil, fmt.Errorf("截屏失败: %w", err)
	}
	return img, nil
}

// CaptureRegion 截取屏幕区域
func CaptureRegion(x, y, width, height int) (image.Image, error) {
	inputX, inputY, inputW, inputH := NormalizeRegionForInput(x, y, width, height)
	img, err := robotgo.CaptureImg(inputX, inputY, inputW, inputH)
	if err != nil {
		return nil, fmt.Errorf("截取区域失败: %w", err)
	}
	return img, nil
}

// GetScreenSize 获取屏幕尺寸（物理像素，与截图分辨率一致）
func GetScreenSize() (width, height int) {
	return GetPhysicalScreenSize()
}

// GetDisplayCount 获取显示器数量
func GetDisplayCount() int {
	return robotgo.DisplaysNum()
}
