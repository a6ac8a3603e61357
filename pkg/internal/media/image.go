package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // 注册 gif 解码器
	"image/jpeg"
	_ "image/png" // 注册 png 解码器

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // 注册 webp 解码器
)

// imageSize 只解析头部获取尺寸.
func imageSize(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}

	return cfg.Width, cfg.Height, nil
}

// Orientation 读取 JPEG 的 EXIF 方向值，缺失或非法时返回 1.
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}

	return v
}

// Orient 把 EXIF 方向应用到像素上.
// imaging 的 Rotate90/Rotate270 为逆时针，顺时针 90° 对应 Rotate270.
func Orient(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipH(imaging.Rotate180(img))
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// NormalizeJPEG 按 EXIF 方向旋转并重新编码，输出不含 EXIF.
// 返回新字节与旋转后的尺寸.
func NormalizeJPEG(data []byte, quality int) ([]byte, int, int, error) {
	orientation := Orientation(data)

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode jpeg: %w", err)
	}

	img = Orient(img, orientation)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, 0, 0, fmt.Errorf("encode jpeg: %w", err)
	}

	b := img.Bounds()

	return buf.Bytes(), b.Dx(), b.Dy(), nil
}
