package annotate

import (
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zoeyai/tplsearch/pkg/vision"
	"github.com/zoeyai/tplsearch/pkg/vision/imageio"
)

func gray(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	return img
}

func TestDrawRectangles(t *testing.T) {
	results := []vision.MatchResult{
		{X: 10, Y: 20, Rectangle: vision.NewRectangle(10, 20, 8, 6)},
		{X: 40, Y: 5, Accuracy: 3, Rectangle: vision.NewRectangle(40, 5, 8, 6)},
	}

	out, err := Draw(gray(64, 48), results, Config{Thickness: 1})
	if err != nil {
		t.Fatalf("Draw() 失败: %v", err)
	}

	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{10, 20, BestColor},
		{17, 25, BestColor},
		{40, 5, OtherColor},
		{47, 10, OtherColor},
		// 框内部保持原样
		{13, 22, color.RGBA{128, 128, 128, 128}},
	}
	for _, tt := range tests {
		if got := out.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestDrawLabels(t *testing.T) {
	src := gray(80, 60)
	results := []vision.MatchResult{
		{X: 20, Y: 30, Rectangle: vision.NewRectangle(20, 30, 10, 10)},
	}

	out, err := Draw(src, results, DefaultConfig)
	if err != nil {
		t.Fatalf("Draw() 失败: %v", err)
	}

	// 标签位于框上方
	changed := 0
	for y := 14; y < 30; y++ {
		for x := 20; x < 80; x++ {
			if out.RGBAAt(x, y) != src.RGBAAt(x, y) {
				changed++
			}
		}
	}
	if changed == 0 {
		t.Error("框上方应绘制标签")
	}
	t.Logf("标签像素: %d", changed)
}

func TestDrawClipsOutOfBounds(t *testing.T) {
	results := []vision.MatchResult{
		{X: 60, Y: 40, Rectangle: vision.NewRectangle(60, 40, 20, 20)},
		{X: 200, Y: 200, Rectangle: vision.NewRectangle(200, 200, 5, 5)},
	}
	if _, err := Draw(gray(64, 48), results, DefaultConfig); err != nil {
		t.Fatalf("越界结果不应报错: %v", err)
	}
}

func TestDrawFile(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.png")
	outPath := filepath.Join(dir, "out.png")
	if err := imageio.Save(srcPath, gray(32, 32)); err != nil {
		t.Fatalf("Save() 失败: %v", err)
	}

	results := []vision.MatchResult{{X: 4, Y: 4, Rectangle: vision.NewRectangle(4, 4, 6, 6)}}
	if err := DrawFile(srcPath, outPath, results, Config{Thickness: 1}); err != nil {
		t.Fatalf("DrawFile() 失败: %v", err)
	}

	out, err := imageio.Load(outPath)
	if err != nil {
		t.Fatalf("加载输出失败: %v", err)
	}
	r, g, b, _ := out.At(4, 4).RGBA()
	if r != 0 || g != 0xffff || b != 0 {
		t.Errorf("输出图像 (4,4) 应为绿色, got %d %d %d", r, g, b)
	}
}

func TestToDataURL(t *testing.T) {
	img := gray(4, 4)

	tests := []struct {
		format  string
		prefix  string
		wantErr bool
	}{
		{"", "data:image/png;base64,", false},
		{"png", "data:image/png;base64,", false},
		{"jpeg", "data:image/jpeg;base64,", false},
		{"gif", "", true},
	}
	for _, tt := range tests {
		got, err := ToDataURL(img, tt.format, 0)
		if (err != nil) != tt.wantErr {
			t.Errorf("ToDataURL(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !strings.HasPrefix(got, tt.prefix) {
			t.Errorf("ToDataURL(%q) 前缀错误: %.40s", tt.format, got)
		}
	}

	if _, err := ToDataURL(nil, "png", 0); err == nil {
		t.Error("nil 图像应返回错误")
	}
}
