//go:build windows

package screen

import (
	"math"
	"sync"

	"github.com/go-vgo/robotgo"

	"github.com/zoeyai/tplsearch/internal/logger"
)

// coordScale = 截图像素尺寸 / robotgo 输入坐标空间尺寸
// robotgo.CaptureImg() 始终返回物理像素，GetScreenSize() 可能返回逻辑尺寸，
// 因此在首次使用时对比两者来探测 robotgo 的坐标空间。

var (
	coordinateScaleMu sync.Mutex
	cachedScaleX      float64
	cachedScaleY      float64
	coordsDetected    bool
)

// GetPhysicalScreenSize 获取物理屏幕尺寸（与截图分辨率一致）
func GetPhysicalScreenSize() (width, height int) {
	w, h := robotgo.GetScreenSize()
	scaleX, scaleY := getCoordinateScale()
	return ScaleInt(w, scaleX), ScaleInt(h, scaleY)
}

func getCoordinateScale() (float64, float64) {
	coordinateScaleMu.Lock()
	defer coordinateScaleMu.Unlock()

	if coordsDetected {
		return cachedScaleX, cachedScaleY
	}

	cachedScaleX, cachedScaleY = detectCoordinateScale()
	coordsDetected = true

	rw, rh := robotgo.GetScreenSize()
	logger.Debug("[screen/coords] robotgo_screen=%dx%d coordScale=%.3fx%.3f", rw, rh, cachedScaleX, cachedScaleY)
	return cachedScaleX, cachedScaleY
}

func detectCoordinateScale() (float64, float64) {
	reportedW, reportedH := robotgo.GetScreenSize()
	if reportedW <= 0 || reportedH <= 0 {
		return 1.0, 1.0
	}

	img, err := robotgo.CaptureImg()
	if err != nil || img == nil {
		return 1.0, 1.0
	}

	captureW := img.Bounds().Dx()
	captureH := img.Bounds().Dy()
	if captureW <= 0 || captureH <= 0 {
		return 1.0, 1.0
	}

	return normalizeScale(float64(captureW) / float64(reportedW)),
		normalizeScale(float64(captureH) / float64(reportedH))
}

func normalizeScale(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 1.0
	}
	if v < 0.5 || v > 4.0 {
		return 1.0
	}
	if math.Abs(v-1.0) < 0.05 {
		return 1.0
	}
	return v
}

// ResetCoordinateScaleCache 重置坐标缩放缓存
func ResetCoordinateScaleCache() {
	coordinateScaleMu.Lock()
	defer coordinateScaleMu.Unlock()
	cachedScaleX = 0
	cachedScaleY = 0
	coordsDetected = false
}

// NormalizeRegionForInput 将截图物理区域转换为 robotgo 输入区域
func NormalizeRegionForInput(x, y, width, height int) (int, int, int, int) {
	scaleX, scaleY := getCoordinateScale()
	if scaleX <= 0 {
		scaleX = 1.0
	}
	if scaleY <= 0 {
		scaleY = 1.0
	}

	nx := ScaleInt(x, 1.0/scaleX)
	ny := ScaleInt(y, 1.0/scaleY)
	nw := ScaleInt(width, 1.0/scaleX)
	nh := ScaleInt(height, 1.0/scaleY)

	if width > 0 && nw < 1 {
		nw = 1
	}
	if height > 0 && nh < 1 {
		nh = 1
	}
	return nx, ny, nw, nh
}
