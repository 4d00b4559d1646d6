package matrix

import "fmt"

// FromInterleaved 将交错排列的像素缓冲（RGBRGB... 或 KAKA...）拆分为平面矩阵
// width 对应列数，height 对应行数
func FromInterleaved(data []byte, width, height, channels int) (*Matrix, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d height=%d", ErrBadArgument, width, height)
	}
	if err := CheckChannels(channels); err != nil {
		return nil, err
	}
	size, ok := Size(width, height)
	total, okTotal := Size(width, height, channels)
	if !ok || !okTotal || len(data) != total {
		return nil, fmt.Errorf("%w: %d bytes for %dx%dx%d", ErrBadArgument, len(data), width, height, channels)
	}

	planes := make([][]float32, channels)
	for c := range planes {
		planes[c] = make([]float32, size)
	}
	for i, k := 0, 0; k < size; k++ {
		for c := 0; c < channels; c++ {
			planes[c][k] = float32(data[i])
			i++
		}
	}

	// planes 由本函数独占，无需再次复制
	return &Matrix{rows: height, cols: width, channels: channels, planes: planes}, nil
}

// Interleave 将矩阵还原为交错排列的字节缓冲，采样值截断到 [0,255]
func (m *Matrix) Interleave() []byte {
	size := m.rows * m.cols
	out := make([]byte, size*m.channels)
	for i, k := 0, 0; k < size; k++ {
		for c := 0; c < m.channels; c++ {
			out[i] = clampByte(m.planes[c][k])
			i++
		}
	}
	return out
}

func clampByte(v float32) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return byte(v + 0.5)
	}
}
