package cv

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/zoeyai/tplsearch/pkg/vision/matrix"
)

// MatToMatrix 把 gocv.Mat 拆分为采样矩阵
// OpenCV 的 BGR/BGRA 通道顺序会被转换为 RGB/RGBA，非 8 位深度先转换为 8 位
func MatToMatrix(mat gocv.Mat) (*matrix.Matrix, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("Mat 为空")
	}
	channels := mat.Channels()
	if channels < 1 || channels > matrix.MaxChannels {
		return nil, fmt.Errorf("%w: %d", matrix.ErrBadChannels, channels)
	}

	src := mat
	if mat.Type()&7 != gocv.MatTypeCV8U {
		conv := gocv.NewMat()
		defer conv.Close()
		mat.ConvertTo(&conv, gocv.MatTypeCV8U)
		src = conv
	}

	split := gocv.Split(src)
	defer func() {
		for _, p := range split {
			p.Close()
		}
	}()

	order := channelOrder(channels)
	planes := make([][]float32, channels)
	for i, idx := range order {
		raw := split[idx].ToBytes()
		plane := make([]float32, len(raw))
		for j, v := range raw {
			plane[j] = float32(v)
		}
		planes[i] = plane
	}
	return matrix.New(mat.Rows(), mat.Cols(), channels, planes)
}

// channelOrder 采样矩阵第 i 个平面对应的 Mat 通道下标
func channelOrder(channels int) []int {
	switch channels {
	case 3:
		return []int{2, 1, 0}
	case 4:
		return []int{2, 1, 0, 3}
	case 2:
		return []int{0, 1}
	default:
		return []int{0}
	}
}

// LoadMatrix 加载图像输入为采样矩阵
// 支持 string (文件路径)、image.Image、gocv.Mat、*gocv.Mat
func LoadMatrix(input interface{}) (*matrix.Matrix, error) {
	mat, err := LoadImageInput(input)
	if err != nil {
		return nil, err
	}
	defer mat.Close()
	return MatToMatrix(mat)
}
