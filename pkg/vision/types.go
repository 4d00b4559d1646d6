// Package vision 提供容差模板搜索的调用层
package vision

import (
	"image"
)

// Version 版本号
const Version = "1.0.0"

// Point 表示二维坐标点
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NewPoint 创建新的 Point
func NewPoint(x, y int) Point {
	return Point{X: x, Y: y}
}

// Rectangle 表示矩形区域（四个角点）
type Rectangle struct {
	TopLeft     Point `json:"top_left"`
	BottomLeft  Point `json:"bottom_left"`
	BottomRight Point `json:"bottom_right"`
	TopRight    Point `json:"top_right"`
}

// NewRectangle 从左上角坐标和宽高创建矩形
func NewRectangle(x, y, w, h int) Rectangle {
	return Rectangle{
		TopLeft:     Point{X: x, Y: y},
		BottomLeft:  Point{X: x, Y: y + h},
		BottomRight: Point{X: x + w, Y: y + h},
		TopRight:    Point{X: x + w, Y: y},
	}
}

// Center 返回矩形中心点
func (r Rectangle) Center() Point {
	return Point{
		X: (r.TopLeft.X + r.BottomRight.X) / 2,
		Y: (r.TopLeft.Y + r.BottomRight.Y) / 2,
	}
}

// Width 返回矩形宽度
func (r Rectangle) Width() int {
	return r.TopRight.X - r.TopLeft.X
}

// Height 返回矩形高度
func (r Rectangle) Height() int {
	return r.BottomLeft.Y - r.TopLeft.Y
}

// Offset 平移矩形
func (r Rectangle) Offset(dx, dy int) Rectangle {
	return NewRectangle(r.TopLeft.X+dx, r.TopLeft.Y+dy, r.Width(), r.Height())
}

// ToImageRect 转换为 image.Rectangle
func (r Rectangle) ToImageRect() image.Rectangle {
	return image.Rect(r.TopLeft.X, r.TopLeft.Y, r.BottomRight.X, r.BottomRight.Y)
}

// MatchResult 模板搜索结果
type MatchResult struct {
	// X 匹配窗口左上角所在列
	X int `json:"x"`
	// Y 匹配窗口左上角所在行
	Y int `json:"y"`
	// Accuracy 偏差分数，0 为完全匹配，越小越好
	Accuracy float64 `json:"accuracy"`
	// Rectangle 匹配区域的四个角点
	Rectangle Rectangle `json:"rectangle"`
}

// Center 匹配区域中心点
func (m MatchResult) Center() Point {
	return m.Rectangle.Center()
}

// TargetPos 目标位置枚举，用于指定返回匹配结果的哪个位置
type TargetPos int

const (
	// TargetPosMid 中心点（默认）
	TargetPosMid TargetPos = iota
	// TargetPosTopLeft 左上角
	TargetPosTopLeft
	// TargetPosTopRight 右上角
	TargetPosTopRight
	// TargetPosBottomLeft 左下角
	TargetPosBottomLeft
	// TargetPosBottomRight 右下角
	TargetPosBottomRight
)

// GetPosition 根据 TargetPos 从 MatchResult 获取对应位置
func (t TargetPos) GetPosition(result *MatchResult) Point {
	if result == nil {
		return Point{}
	}
	switch t {
	case TargetPosTopLeft:
		return result.Rectangle.TopLeft
	case TargetPosTopRight:
		return result.Rectangle.TopRight
	case TargetPosBottomLeft:
		return result.Rectangle.BottomLeft
	case TargetPosBottomRight:
		return result.Rectangle.BottomRight
	default:
		return result.Center()
	}
}

// ImageInput 支持的图像输入类型
// 可以是文件路径 (string)、image.Image、*Image 或 *matrix.Matrix
type ImageInput interface{}
