package screen

import (
	"image"

	"github.com/zoeyai/tplsearch/pkg/vision"
)

// Capture 截取 region 区域，region 为 nil 时截取全屏
func Capture(region *Region) (image.Image, CaptureMeta, error) {
	var (
		img image.Image
		err error
	)
	if region.Empty() {
		img, err = CaptureScreen()
	} else {
		img, err = CaptureRegion(region.X, region.Y, region.Width, region.Height)
	}
	if err != nil {
		return nil, CaptureMeta{}, err
	}

	w, h := GetScreenSize()
	return img, BuildCaptureMeta(region, img, w, h), nil
}

// FindOnScreen 截屏并查找 template 的所有位置，结果为屏幕坐标
// template: 文件路径、image.Image、*vision.Image 或 *matrix.Matrix
func FindOnScreen(template vision.ImageInput, region *Region, opts ...vision.Option) ([]vision.MatchResult, error) {
	img, meta, err := Capture(region)
	if err != nil {
		return nil, err
	}
	return FindInCapture(img, meta, template, opts...)
}

// FindInCapture 在已截取的图像上查找，并按 meta 换算坐标
func FindInCapture(img image.Image, meta CaptureMeta, template vision.ImageInput, opts ...vision.Option) ([]vision.MatchResult, error) {
	results, err := vision.FindAll(img, template, opts...)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i] = AdjustMatchResult(results[i], meta)
	}
	return results, nil
}
