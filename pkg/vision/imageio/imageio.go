// Package imageio 纯 Go 的图像读写，以及 image.Image 与采样矩阵之间的转换
//
// 支持的格式: png, jpeg, gif, bmp, tiff, webp（webp 只读）
package imageio

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/zoeyai/tplsearch/pkg/vision/matrix"
)

// Decode 从 reader 解码图像，返回图像和格式名
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(bufio.NewReader(r))
	if err != nil {
		return nil, "", fmt.Errorf("解码图像失败: %w", err)
	}
	return img, format, nil
}

// Load 从文件加载图像
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开图像 %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Save 按扩展名编码保存图像，未知扩展名按 png 保存
func Save(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("无法创建文件 %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("关闭文件 %s 失败: %w", path, cerr)
		}
	}()

	return encode(f, path, img)
}

func encode(out io.Writer, path string, img image.Image) error {
	w := bufio.NewWriter(out)
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp":
		err = bmp.Encode(w, img)
	case ".tif", ".tiff":
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = png.Encode(w, img)
	}
	if err != nil {
		return fmt.Errorf("编码图像失败: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("写入图像失败: %w", err)
	}
	return nil
}

// ToMatrix 把图像转换为采样矩阵
// 灰度图得到 1 通道（keepAlpha 时 2 通道），其余得到 RGB（keepAlpha 时 RGBA），
// 采样值为非预乘的 0~255
func ToMatrix(img image.Image, keepAlpha bool) (*matrix.Matrix, error) {
	if img == nil {
		return nil, fmt.Errorf("图像为空")
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("图像尺寸无效: %dx%d", w, h)
	}

	gray := isGray(img)
	channels := 3
	if gray {
		channels = 1
	}
	if keepAlpha {
		channels++
	}

	planes := make([][]float32, channels)
	for c := range planes {
		planes[c] = make([]float32, w*h)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			px := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			if gray {
				planes[0][i] = float32(px.R)
			} else {
				planes[0][i] = float32(px.R)
				planes[1][i] = float32(px.G)
				planes[2][i] = float32(px.B)
			}
			if keepAlpha {
				planes[channels-1][i] = float32(px.A)
			}
		}
	}

	return matrix.New(h, w, channels, planes)
}

// FromMatrix 把采样矩阵转换回 NRGBA 图像，不带 Alpha 的矩阵视为不透明
func FromMatrix(m *matrix.Matrix) (*image.NRGBA, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	out := image.NewNRGBA(image.Rect(0, 0, m.Cols(), m.Rows()))
	color3 := m.ColorChannels() >= 3
	for r := 0; r < m.Rows(); r++ {
		for c := 0; c < m.Cols(); c++ {
			px := color.NRGBA{A: 255}
			px.R = clamp(m.At(0, r, c))
			if color3 {
				px.G = clamp(m.At(1, r, c))
				px.B = clamp(m.At(2, r, c))
			} else {
				px.G, px.B = px.R, px.R
			}
			if m.HasAlpha() {
				px.A = clamp(m.At(m.Channels()-1, r, c))
			}
			out.SetNRGBA(c, r, px)
		}
	}
	return out, nil
}

// LoadMatrix 加载图像文件并转换为采样矩阵
func LoadMatrix(path string, keepAlpha bool) (*matrix.Matrix, error) {
	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	return ToMatrix(img, keepAlpha)
}

func isGray(img image.Image) bool {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return true
	}
	return false
}

func clamp(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
