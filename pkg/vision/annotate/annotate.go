// Package annotate 在图像上标注搜索结果：匹配框和分数标签
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/zoeyai/tplsearch/pkg/vision"
	"github.com/zoeyai/tplsearch/pkg/vision/imageio"
)

var (
	// BestColor 分数最好的结果
	BestColor = color.RGBA{0, 255, 0, 255}
	// OtherColor 其余结果
	OtherColor = color.RGBA{255, 0, 0, 255}
)

// Config 标注参数
type Config struct {
	Thickness int     // 边框宽度
	FontSize  float64 // 标签字号，0 表示不绘制标签
}

// DefaultConfig 默认标注参数
var DefaultConfig = Config{Thickness: 2, FontSize: 12}

var (
	fontOnce sync.Once
	goFont   *truetype.Font
	fontErr  error
)

func loadFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		goFont, fontErr = truetype.Parse(goregular.TTF)
	})
	return goFont, fontErr
}

// Draw 复制 src 并画出每个结果的边框与 "#序号 分数" 标签
// results 应按分数升序排列，第一个使用 BestColor
func Draw(src image.Image, results []vision.MatchResult, cfg Config) (*image.RGBA, error) {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)

	if cfg.Thickness <= 0 {
		cfg.Thickness = 1
	}

	var ctx *freetype.Context
	if cfg.FontSize > 0 {
		f, err := loadFont()
		if err != nil {
			return nil, fmt.Errorf("加载字体失败: %w", err)
		}
		ctx = freetype.NewContext()
		ctx.SetDPI(72)
		ctx.SetFont(f)
		ctx.SetFontSize(cfg.FontSize)
		ctx.SetClip(dst.Bounds())
		ctx.SetDst(dst)
		ctx.SetHinting(font.HintingFull)
	}

	for i, r := range results {
		col := OtherColor
		if i == 0 {
			col = BestColor
		}
		strokeRect(dst, r.Rectangle.ToImageRect(), cfg.Thickness, col)

		if ctx != nil {
			ctx.SetSrc(image.NewUniform(col))
			label := fmt.Sprintf("#%d %.1f", i, r.Accuracy)
			// 标签放在框的上方，空间不够时放在框内
			y := r.Y - 2
			if y-int(cfg.FontSize) < 0 {
				y = r.Y + int(cfg.FontSize)
			}
			if _, err := ctx.DrawString(label, freetype.Pt(r.X, y)); err != nil {
				return nil, fmt.Errorf("绘制标签失败: %w", err)
			}
		}
	}
	return dst, nil
}

// DrawFile 加载图像、标注并保存到 outPath
func DrawFile(srcPath, outPath string, results []vision.MatchResult, cfg Config) error {
	src, err := imageio.Load(srcPath)
	if err != nil {
		return err
	}
	out, err := Draw(src, results, cfg)
	if err != nil {
		return err
	}
	return imageio.Save(outPath, out)
}

// strokeRect 在 rect 内侧画宽度为 thickness 的边框
func strokeRect(dst *image.RGBA, rect image.Rectangle, thickness int, col color.Color) {
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	u := image.NewUniform(col)
	t := min(thickness, rect.Dx(), rect.Dy())

	edges := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+t),
		image.Rect(rect.Min.X, rect.Max.Y-t, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+t, rect.Max.Y),
		image.Rect(rect.Max.X-t, rect.Min.Y, rect.Max.X, rect.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e, u, image.Point{}, draw.Src)
	}
}
