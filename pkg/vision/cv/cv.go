// Package cv 基于 OpenCV (gocv) 的图像输入输出
//
// 读取任意 OpenCV 支持的图像格式或 gocv.Mat 作为搜索输入，
// 并在 Mat 上绘制搜索结果。搜索本身由 vision/search 完成。
//
// 基本用法:
//
//	results, err := cv.FindAll("screen.png", "template.png",
//	    vision.WithColorTolerance(8),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("找到 %d 个位置\n", len(results))
package cv

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/zoeyai/tplsearch/pkg/vision"
)

var (
	bestColor  = color.RGBA{0, 255, 0, 255}
	otherColor = color.RGBA{255, 0, 0, 255}
)

// FindAll 在 screen 中查找 template 的所有不重叠位置
// screen, template: 文件路径、image.Image、gocv.Mat 或 *gocv.Mat
func FindAll(screen, template interface{}, opts ...vision.Option) ([]vision.MatchResult, error) {
	img, err := LoadMatrix(screen)
	if err != nil {
		return nil, fmt.Errorf("加载源图像失败: %w", err)
	}
	tpl, err := LoadMatrix(template)
	if err != nil {
		return nil, fmt.Errorf("加载模板失败: %w", err)
	}
	img, tpl = vision.PairColorDepth(img, tpl)
	return vision.SearchMatrix(img, tpl, opts...)
}

// FindInRegion 只在 screen 的 region 区域内查找，返回的坐标相对于整张图
func FindInRegion(screen gocv.Mat, region image.Rectangle, template interface{}, opts ...vision.Option) ([]vision.MatchResult, error) {
	sub, err := CropImage(screen, region)
	if err != nil {
		return nil, err
	}
	defer sub.Close()

	results, err := FindAll(sub, template, opts...)
	if err != nil {
		return nil, err
	}
	origin := region.Intersect(image.Rect(0, 0, screen.Cols(), screen.Rows())).Min
	for i := range results {
		results[i].X += origin.X
		results[i].Y += origin.Y
		results[i].Rectangle = results[i].Rectangle.Offset(origin.X, origin.Y)
	}
	return results, nil
}

// DrawResults 在 mat 上绘制结果框和分数，第一个结果用绿色
func DrawResults(mat *gocv.Mat, results []vision.MatchResult) {
	for i, r := range results {
		col := otherColor
		if i == 0 {
			col = bestColor
		}
		gocv.Rectangle(mat, r.Rectangle.ToImageRect(), col, 2)

		label := fmt.Sprintf("#%d %.1f", i, r.Accuracy)
		org := image.Pt(r.X, max(r.Y-4, 12))
		gocv.PutText(mat, label, org, gocv.FontHersheySimplex, 0.4, col, 1)
	}
}
