// Package matrix 提供图像的平面采样矩阵表示
//
// 一个 Matrix 是 rows × cols 的像素网格，每个通道一个 float32 平面（行优先）。
// 通道数为 1~4：1=K，2=K+A，3=RGB，4=RGB+A。偶数通道数的最后一个平面视为 Alpha。
package matrix

import (
	"errors"
	"fmt"
	"math"
)

// MaxChannels 支持的最大通道数
const MaxChannels = 4

var (
	// ErrBadArgument 矩阵结构不合法（尺寸、平面数量或平面长度）
	ErrBadArgument = errors.New("bad matrix argument")
	// ErrBadChannels 通道数不在 [1,4] 范围内
	ErrBadChannels = errors.New("Bad number of channels")
)

// Matrix 不可变的平面采样矩阵
type Matrix struct {
	rows     int
	cols     int
	channels int
	planes   [][]float32
}

// New 创建矩阵，planes 会被复制，调用方之后修改原切片不影响矩阵
func New(rows, cols, channels int, planes [][]float32) (*Matrix, error) {
	if err := check(rows, cols, channels, planes); err != nil {
		return nil, err
	}

	owned := make([][]float32, channels)
	for i, p := range planes {
		owned[i] = append([]float32(nil), p...)
	}
	return &Matrix{rows: rows, cols: cols, channels: channels, planes: owned}, nil
}

// Size 返回各维度之积，任一维度非正或乘积溢出 int 时 ok 为 false
func Size(dims ...int) (n int, ok bool) {
	n = 1
	for _, d := range dims {
		if d <= 0 || n > math.MaxInt/d {
			return 0, false
		}
		n *= d
	}
	return n, true
}

// CheckChannels 通道数必须在 [1,4] 内
func CheckChannels(channels int) error {
	if channels < 1 || channels > MaxChannels {
		return fmt.Errorf("%w: %d", ErrBadChannels, channels)
	}
	return nil
}

// check 按 rows/cols → channels → 平面数量 → 平面长度 的顺序校验
func check(rows, cols, channels int, planes [][]float32) error {
	size, err := checkShape(rows, cols)
	if err != nil {
		return err
	}
	if err := CheckChannels(channels); err != nil {
		return err
	}
	if len(planes) != channels {
		return fmt.Errorf("%w: %d planes for %d channels", ErrBadArgument, len(planes), channels)
	}
	for i, p := range planes {
		if len(p) != size {
			return fmt.Errorf("%w: plane %d has %d samples, want %d", ErrBadArgument, i, len(p), size)
		}
	}
	return nil
}

// checkShape rows、cols 为正且 rows*cols 不溢出，返回每个平面的长度
func checkShape(rows, cols int) (int, error) {
	if rows <= 0 || cols <= 0 {
		return 0, fmt.Errorf("%w: rows=%d cols=%d", ErrBadArgument, rows, cols)
	}
	size, ok := Size(rows, cols)
	if !ok {
		return 0, fmt.Errorf("%w: rows=%d cols=%d overflows", ErrBadArgument, rows, cols)
	}
	return size, nil
}

// Validate 重新检查不变式，用于拦截 nil 或零值矩阵
func (m *Matrix) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil matrix", ErrBadArgument)
	}
	return check(m.rows, m.cols, m.channels, m.planes)
}

// CheckShape 只检查矩阵非空且尺寸合法，不检查通道和平面
func (m *Matrix) CheckShape() error {
	if m == nil {
		return fmt.Errorf("%w: nil matrix", ErrBadArgument)
	}
	_, err := checkShape(m.rows, m.cols)
	return err
}

// Rows 行数
func (m *Matrix) Rows() int { return m.rows }

// Cols 列数
func (m *Matrix) Cols() int { return m.cols }

// Channels 通道数（含 Alpha）
func (m *Matrix) Channels() int { return m.channels }

// HasAlpha 偶数通道数的矩阵带有尾部 Alpha 平面
func (m *Matrix) HasAlpha() bool { return m.channels%2 == 0 }

// ColorChannels 去掉 Alpha 之后的颜色通道数
func (m *Matrix) ColorChannels() int {
	if m.HasAlpha() {
		return m.channels - 1
	}
	return m.channels
}

// Plane 返回第 c 个通道平面，只读
func (m *Matrix) Plane(c int) []float32 {
	return m.planes[c]
}

// At 返回 (row, col) 处第 c 个通道的采样值
func (m *Matrix) At(c, row, col int) float32 {
	return m.planes[c][row*m.cols+col]
}

// WithAlpha 追加一个 Alpha 平面，返回新矩阵
// 已带 Alpha 的矩阵返回 ErrBadChannels
func (m *Matrix) WithAlpha(alpha []float32) (*Matrix, error) {
	if m.HasAlpha() {
		return nil, fmt.Errorf("%w: matrix already has alpha", ErrBadChannels)
	}
	planes := make([][]float32, 0, m.channels+1)
	planes = append(planes, m.planes...)
	planes = append(planes, alpha)
	return New(m.rows, m.cols, m.channels+1, planes)
}

// ExpandGray 把 K/KA 矩阵展开为 RGB/RGBA，K 平面复制到三个颜色通道
// 不是灰度的矩阵原样返回
func (m *Matrix) ExpandGray() *Matrix {
	if m.ColorChannels() != 1 {
		return m
	}
	k := m.planes[0]
	planes := [][]float32{k, k, k}
	if m.HasAlpha() {
		planes = append(planes, m.planes[1])
	}
	return &Matrix{rows: m.rows, cols: m.cols, channels: len(planes), planes: planes}
}

// String 便于日志输出
func (m *Matrix) String() string {
	if m == nil {
		return "Matrix(nil)"
	}
	return fmt.Sprintf("Matrix(%dx%dx%d)", m.rows, m.cols, m.channels)
}
