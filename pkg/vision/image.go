package vision

import (
	"errors"
	"fmt"

	"github.com/zoeyai/tplsearch/pkg/vision/matrix"
)

// 图像角色，用于错误信息
const (
	RoleImage    = "image"
	RoleTemplate = "template"
)

// DefaultChannels 未指定通道数时的默认值
const DefaultChannels = 3

// 图像描述校验错误，按检查顺序排列
var (
	ErrBadObject         = errors.New("bad object")
	ErrMissingData       = errors.New("missing data")
	ErrBadChannels       = errors.New("bad number of channels")
	ErrMissingDimensions = errors.New("missing dimensions")
	ErrBadDimensions     = errors.New("bad dimensions")
)

// ImageError 图像描述未通过校验
type ImageError struct {
	Role string
	Err  error
}

func (e *ImageError) Error() string {
	switch e.Err {
	case ErrBadObject:
		return fmt.Sprintf("Bad %s object", e.Role)
	case ErrMissingData:
		return fmt.Sprintf("Missing %s data", e.Role)
	case ErrMissingDimensions:
		return fmt.Sprintf("Missing %s dimensions", e.Role)
	case ErrBadChannels:
		return fmt.Sprintf("Bad number of %s channels", e.Role)
	case ErrBadDimensions:
		return fmt.Sprintf("Bad %s dimensions", e.Role)
	default:
		return fmt.Sprintf("%s: %v", e.Role, e.Err)
	}
}

func (e *ImageError) Unwrap() error {
	return e.Err
}

// Image 交错存储的原始像素缓冲区
// Width 与 Height 至多缺省一个，缺省的一边由数据长度推算；Channels 缺省为 3
type Image struct {
	Data     []byte `json:"data"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Channels int    `json:"channels,omitempty"`
}

// Resolve 校验描述并补全缺省字段
func (img *Image) Resolve(role string) (Image, error) {
	if img == nil {
		return Image{}, &ImageError{Role: role, Err: ErrBadObject}
	}
	if img.Data == nil {
		return Image{}, &ImageError{Role: role, Err: ErrMissingData}
	}

	out := *img
	if out.Channels == 0 {
		out.Channels = DefaultChannels
	}
	if out.Channels < 1 || out.Channels > matrix.MaxChannels {
		return Image{}, &ImageError{Role: role, Err: ErrBadChannels}
	}
	if out.Width <= 0 && out.Height <= 0 {
		return Image{}, &ImageError{Role: role, Err: ErrMissingDimensions}
	}

	switch {
	case out.Width <= 0:
		if per, ok := matrix.Size(out.Height, out.Channels); ok {
			out.Width = len(out.Data) / per
		}
	case out.Height <= 0:
		if per, ok := matrix.Size(out.Width, out.Channels); ok {
			out.Height = len(out.Data) / per
		}
	}
	if total, ok := matrix.Size(out.Width, out.Height, out.Channels); !ok || total != len(out.Data) {
		return Image{}, &ImageError{Role: role, Err: ErrBadDimensions}
	}
	return out, nil
}

// Matrix 校验描述并转换为采样矩阵
func (img *Image) Matrix(role string) (*matrix.Matrix, error) {
	resolved, err := img.Resolve(role)
	if err != nil {
		return nil, err
	}
	return matrix.FromInterleaved(resolved.Data, resolved.Width, resolved.Height, resolved.Channels)
}
