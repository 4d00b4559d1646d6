package cv

import (
	"image"
	"image/color"
	"path/filepath"
	"runtime"
	"testing"

	"gocv.io/x/gocv"

	"github.com/zoeyai/tplsearch/pkg/vision"
)

// getTestDataDir 获取测试资源目录
func getTestDataDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "testdata")
}

// blocksMat 在白色背景上放置 3x3 的 (200,200,200) 方块
func blocksMat(t *testing.T, rows, cols int, origins ...[2]int) gocv.Mat {
	t.Helper()
	data := make([]byte, rows*cols*3)
	for i := range data {
		data[i] = 255
	}
	for _, o := range origins {
		for r := o[0]; r < o[0]+3; r++ {
			for c := o[1]; c < o[1]+3; c++ {
				i := (r*cols + c) * 3
				data[i], data[i+1], data[i+2] = 200, 200, 200
			}
		}
	}
	mat, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8UC3, data)
	if err != nil {
		t.Fatalf("创建 Mat 失败: %v", err)
	}
	return mat
}

func TestMatToMatrixChannelOrder(t *testing.T) {
	// 一个 BGR 像素
	mat, err := gocv.NewMatFromBytes(1, 2, gocv.MatTypeCV8UC3, []byte{10, 20, 30, 40, 50, 60})
	if err != nil {
		t.Fatalf("创建 Mat 失败: %v", err)
	}
	defer mat.Close()

	m, err := MatToMatrix(mat)
	if err != nil {
		t.Fatalf("MatToMatrix() 失败: %v", err)
	}
	if m.Rows() != 1 || m.Cols() != 2 || m.Channels() != 3 {
		t.Fatalf("矩阵尺寸错误: %s", m)
	}
	if m.At(0, 0, 0) != 30 || m.At(1, 0, 0) != 20 || m.At(2, 0, 0) != 10 {
		t.Errorf("BGR 应转换为 RGB: R=%v G=%v B=%v", m.At(0, 0, 0), m.At(1, 0, 0), m.At(2, 0, 0))
	}
	if m.At(0, 0, 1) != 60 {
		t.Errorf("第二个像素 R = %v, want 60", m.At(0, 0, 1))
	}
}

func TestMatToMatrixGray(t *testing.T) {
	mat, err := gocv.NewMatFromBytes(2, 2, gocv.MatTypeCV8UC1, []byte{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("创建 Mat 失败: %v", err)
	}
	defer mat.Close()

	m, err := MatToMatrix(mat)
	if err != nil {
		t.Fatalf("MatToMatrix() 失败: %v", err)
	}
	if m.Channels() != 1 || m.At(0, 1, 0) != 3 {
		t.Errorf("灰度转换错误: %s", m)
	}
}

func TestMatToMatrixEmpty(t *testing.T) {
	mat := gocv.NewMat()
	defer mat.Close()
	if _, err := MatToMatrix(mat); err == nil {
		t.Error("空 Mat 应返回错误")
	}
}

func TestFindAllMat(t *testing.T) {
	screen := blocksMat(t, 12, 12, [2]int{0, 0}, [2]int{6, 7})
	defer screen.Close()
	tpl := blocksMat(t, 3, 3, [2]int{0, 0})
	defer tpl.Close()

	results, err := FindAll(screen, &tpl)
	if err != nil {
		t.Fatalf("FindAll() 失败: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d 个结果, want 2: %+v", len(results), results)
	}
	if results[0].X != 0 || results[0].Y != 0 || results[1].X != 7 || results[1].Y != 6 {
		t.Errorf("结果位置错误: %+v", results)
	}
}

func TestFindInRegion(t *testing.T) {
	screen := blocksMat(t, 12, 12, [2]int{0, 0}, [2]int{6, 7})
	defer screen.Close()
	tpl := blocksMat(t, 3, 3, [2]int{0, 0})
	defer tpl.Close()

	results, err := FindInRegion(screen, image.Rect(5, 4, 12, 12), tpl)
	if err != nil {
		t.Fatalf("FindInRegion() 失败: %v", err)
	}
	if len(results) != 1 || results[0].X != 7 || results[0].Y != 6 {
		t.Fatalf("区域搜索结果错误: %+v", results)
	}
	if results[0].Rectangle.TopLeft != (vision.Point{X: 7, Y: 6}) {
		t.Errorf("矩形未平移: %+v", results[0].Rectangle)
	}
}

func TestFindAllFiles(t *testing.T) {
	testDataDir := getTestDataDir()
	targetPath := filepath.Join(testDataDir, "target.png")
	templatePath := filepath.Join(testDataDir, "template1.png")

	results, err := FindAll(targetPath, templatePath, vision.WithColorTolerance(16), vision.WithPixelTolerance(8))
	if err != nil {
		t.Skipf("跳过测试：无法读取测试图像: %v", err)
		return
	}
	t.Logf("找到 %d 个匹配", len(results))
	for i, r := range results {
		t.Logf("  匹配 %d: 位置=(%d, %d), 分数=%.1f", i, r.X, r.Y, r.Accuracy)
	}
}

func TestWriteAndReadImage(t *testing.T) {
	mat := blocksMat(t, 8, 8, [2]int{2, 2})
	defer mat.Close()

	DrawResults(&mat, []vision.MatchResult{{X: 2, Y: 2, Rectangle: vision.NewRectangle(2, 2, 3, 3)}})

	path := filepath.Join(t.TempDir(), "sub", "out.png")
	if err := WriteImage(path, mat); err != nil {
		t.Fatalf("WriteImage() 失败: %v", err)
	}
	back, err := ReadImage(path)
	if err != nil {
		t.Fatalf("ReadImage() 失败: %v", err)
	}
	defer back.Close()
	if back.Rows() != 8 || back.Cols() != 8 {
		t.Errorf("读回尺寸错误: %dx%d", back.Cols(), back.Rows())
	}
}

func TestImageToMatRoundTrip(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 30, G: 20, B: 10, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 60, G: 50, B: 40, A: 255})

	mat, err := ImageToMat(img)
	if err != nil {
		t.Fatalf("ImageToMat() 失败: %v", err)
	}
	defer mat.Close()

	m, err := MatToMatrix(mat)
	if err != nil {
		t.Fatalf("MatToMatrix() 失败: %v", err)
	}
	if m.At(0, 0, 0) != 30 || m.At(2, 0, 0) != 10 || m.At(0, 0, 1) != 60 {
		t.Errorf("RGB 往返错误: %s", m)
	}
}
