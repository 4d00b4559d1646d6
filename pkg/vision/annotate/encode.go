package annotate

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
)

// ToDataURL 将图像编码为 data URL
// format: "png" 或 "jpeg"，默认 "png"（标注框边缘不失真）
// quality: JPEG 质量 1-100，默认 80
func ToDataURL(img image.Image, format string, quality int) (string, error) {
	if img == nil {
		return "", fmt.Errorf("图像为空")
	}

	var buf bytes.Buffer
	var mimeType string

	if format == "" {
		format = "png"
	}
	if quality <= 0 || quality > 100 {
		quality = 80
	}

	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return "", fmt.Errorf("PNG 编码失败: %w", err)
		}
		mimeType = "image/png"
	case "jpeg", "jpg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", fmt.Errorf("JPEG 编码失败: %w", err)
		}
		mimeType = "image/jpeg"
	default:
		return "", fmt.Errorf("不支持的图像格式: %s", format)
	}

	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}
