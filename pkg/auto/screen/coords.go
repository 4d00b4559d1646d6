package screen

import (
	"image"
	"math"

	"github.com/zoeyai/tplsearch/pkg/vision"
)

// CaptureMeta 截图元信息（缩放和偏移量）
type CaptureMeta struct {
	ScaleX  float64
	ScaleY  float64
	OffsetX int
	OffsetY int
}

// BuildCaptureMeta 构建截图元信息
// 截图尺寸与期望尺寸不一致时（例如 Retina 屏），记录缩放比
func BuildCaptureMeta(region *Region, img image.Image, screenW, screenH int) CaptureMeta {
	bounds := img.Bounds()
	imgW := bounds.Dx()
	imgH := bounds.Dy()

	expectedW, expectedH := screenW, screenH
	offsetX, offsetY := 0, 0
	if !region.Empty() {
		expectedW = region.Width
		expectedH = region.Height
		offsetX = region.X
		offsetY = region.Y
	}

	scaleX := 1.0
	if expectedW > 0 && imgW > 0 {
		scaleX = float64(imgW) / float64(expectedW)
	}
	scaleY := 1.0
	if expectedH > 0 && imgH > 0 {
		scaleY = float64(imgH) / float64(expectedH)
	}

	return CaptureMeta{
		ScaleX:  scaleX,
		ScaleY:  scaleY,
		OffsetX: offsetX,
		OffsetY: offsetY,
	}
}

// AdjustMatchResult 把截图坐标换算为屏幕坐标（反向缩放 + 偏移）
func AdjustMatchResult(result vision.MatchResult, meta CaptureMeta) vision.MatchResult {
	tl := AdjustPoint(result.Rectangle.TopLeft, meta)
	br := AdjustPoint(result.Rectangle.BottomRight, meta)

	adjusted := result
	adjusted.X, adjusted.Y = tl.X, tl.Y
	adjusted.Rectangle = vision.NewRectangle(tl.X, tl.Y, br.X-tl.X, br.Y-tl.Y)
	return adjusted
}

// AdjustPoint 调整点坐标
func AdjustPoint(p vision.Point, meta CaptureMeta) vision.Point {
	return vision.Point{
		X: ScaleCoord(p.X, meta.ScaleX) + meta.OffsetX,
		Y: ScaleCoord(p.Y, meta.ScaleY) + meta.OffsetY,
	}
}

// ScaleCoord 按缩放比还原坐标
func ScaleCoord(value int, scale float64) int {
	if scale <= 0 {
		return value
	}
	return int(math.Round(float64(value) / scale))
}

// ScaleInt 缩放整数值
func ScaleInt(value int, factor float64) int {
	if factor <= 0 {
		return value
	}
	return int(math.Round(float64(value) * factor))
}
