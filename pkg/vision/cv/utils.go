package cv

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"
)

// ReadImage 读取图像文件，保留 Alpha 通道
func ReadImage(filename string) (gocv.Mat, error) {
	mat := gocv.IMRead(filename, gocv.IMReadUnchanged)
	if mat.Empty() {
		return mat, fmt.Errorf("无法读取图像: %s", filename)
	}
	return mat, nil
}

// ReadImageGray 读取灰度图像
func ReadImageGray(filename string) (gocv.Mat, error) {
	mat := gocv.IMRead(filename, gocv.IMReadGrayScale)
	if mat.Empty() {
		return mat, fmt.Errorf("无法读取图像: %s", filename)
	}
	return mat, nil
}

// WriteImage 保存图像文件
func WriteImage(filename string, img gocv.Mat) error {
	// 确保目录存在
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	if ok := gocv.IMWrite(filename, img); !ok {
		return fmt.Errorf("保存图像失败: %s", filename)
	}
	return nil
}

// CropImage 裁剪图像，rect 超出部分被截掉
func CropImage(img gocv.Mat, rect image.Rectangle) (gocv.Mat, error) {
	rect = rect.Intersect(image.Rect(0, 0, img.Cols(), img.Rows()))
	if rect.Empty() {
		return gocv.Mat{}, fmt.Errorf("裁剪区域为空")
	}
	region := img.Region(rect)
	defer region.Close()
	return region.Clone(), nil
}

// ImageToMat 将 image.Image 转换为 BGR 的 gocv.Mat，Alpha 被丢弃
func ImageToMat(img image.Image) (gocv.Mat, error) {
	b := img.Bounds()
	if b.Empty() {
		return gocv.Mat{}, fmt.Errorf("图像为空")
	}
	data := make([]byte, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			data = append(data, px.B, px.G, px.R)
		}
	}
	mat, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC3, data)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("图像转换失败: %w", err)
	}
	return mat, nil
}

// MatToImage 将 gocv.Mat 转换为 image.Image
func MatToImage(mat gocv.Mat) (image.Image, error) {
	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("Mat 转换失败: %w", err)
	}
	return img, nil
}

// LoadImageInput 加载图像输入
// 支持 string (文件路径)、image.Image、gocv.Mat
func LoadImageInput(input interface{}) (gocv.Mat, error) {
	switch v := input.(type) {
	case string:
		return ReadImage(v)
	case image.Image:
		return ImageToMat(v)
	case gocv.Mat:
		return v.Clone(), nil
	case *gocv.Mat:
		return v.Clone(), nil
	default:
		return gocv.Mat{}, fmt.Errorf("不支持的图像输入类型: %T", input)
	}
}
