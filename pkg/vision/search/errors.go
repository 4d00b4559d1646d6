package search

import (
	"errors"
	"fmt"

	"github.com/zoeyai/tplsearch/pkg/vision/matrix"
)

// 参数名，与错误信息中的名称一致
const (
	ArgImage    = "imgMatrix"
	ArgTemplate = "tplMatrix"
)

// ErrChannelMismatch 源图像与模板的通道数相差超过 1
var ErrChannelMismatch = errors.New("Channel mismatch")

// ArgumentError 某个输入矩阵未通过校验
type ArgumentError struct {
	Arg string
	Err error
}

func (e *ArgumentError) Error() string {
	if errors.Is(e.Err, matrix.ErrBadChannels) {
		return fmt.Sprintf("Bad number of channels in '%s': %v", e.Arg, e.Err)
	}
	return fmt.Sprintf("Bad argument '%s': %v", e.Arg, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// Validate 在扫描前校验两个矩阵，返回第一个发现的错误
// 检查顺序：两个矩阵的尺寸 → 两个矩阵的通道数 → 通道数差 → 平面数据
func Validate(img, tpl *matrix.Matrix) error {
	if err := img.CheckShape(); err != nil {
		return &ArgumentError{Arg: ArgImage, Err: err}
	}
	if err := tpl.CheckShape(); err != nil {
		return &ArgumentError{Arg: ArgTemplate, Err: err}
	}
	if err := matrix.CheckChannels(img.Channels()); err != nil {
		return &ArgumentError{Arg: ArgImage, Err: err}
	}
	if err := matrix.CheckChannels(tpl.Channels()); err != nil {
		return &ArgumentError{Arg: ArgTemplate, Err: err}
	}

	diff := img.Channels() - tpl.Channels()
	if diff > 1 || diff < -1 {
		return fmt.Errorf("%w: %s has %d channels, %s has %d",
			ErrChannelMismatch, ArgImage, img.Channels(), ArgTemplate, tpl.Channels())
	}

	if err := img.Validate(); err != nil {
		return &ArgumentError{Arg: ArgImage, Err: err}
	}
	if err := tpl.Validate(); err != nil {
		return &ArgumentError{Arg: ArgTemplate, Err: err}
	}
	return nil
}
