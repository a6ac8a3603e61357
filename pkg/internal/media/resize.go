package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strconv"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"

	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

// ResizeParams 缩略图参数，0 表示未设置.
type ResizeParams struct {
	Size    int
	MaxSide int
	Width   int
	Height  int
}

// ParseResize 解析查询参数，非正数或无法解析的值视为未设置.
func ParseResize(q types.ResizeQuery) ResizeParams {
	return ResizeParams{
		Size:    positive(q.Size),
		MaxSide: positive(q.MaxSide),
		Width:   positive(q.Width),
		Height:  positive(q.Height),
	}
}

func positive(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}

	return n
}

// IsZero 是否未设置任何参数.
func (p ResizeParams) IsZero() bool {
	return p == ResizeParams{}
}

// Target 计算目标尺寸，优先级 size > max_side > width&height > width > height.
// 比例缩放的一边向零截断且不小于 1；未设置参数时 ok 为 false.
func Target(width, height int, p ResizeParams) (tw, th int, ok bool) {
	if width <= 0 || height <= 0 {
		return 0, 0, false
	}

	switch {
	case p.Size > 0:
		s := min(p.Size, min(width, height))
		tw, th = s, s
	case p.MaxSide > 0:
		if width >= height {
			tw = min(p.MaxSide, width)
			th = scale(height, tw, width)
		} else {
			th = min(p.MaxSide, height)
			tw = scale(width, th, height)
		}
	case p.Width > 0 && p.Height > 0:
		tw, th = min(p.Width, width), min(p.Height, height)
	case p.Width > 0:
		tw = min(p.Width, width)
		th = scale(height, tw, width)
	case p.Height > 0:
		th = min(p.Height, height)
		tw = scale(width, th, height)
	default:
		return 0, 0, false
	}

	return max(tw, 1), max(th, 1), true
}

// scale 返回 v*num/den，向零截断.
func scale(v, num, den int) int {
	return int(int64(v) * int64(num) / int64(den))
}

// Encoder 把缩略图编码为进程统一的输出格式.
type Encoder struct {
	Format  configs.ServeFormat
	Quality float32
}

// ContentType 返回输出格式的 MIME 类型.
func (e Encoder) ContentType() string {
	switch e.Format {
	case configs.ServeWEBP:
		return "image/webp"
	case configs.ServeJPEG:
		return "image/jpeg"
	default:
		return "image/png"
	}
}

// Thumbnail 使用近似双线性插值缩放并编码.
func (e Encoder) Thumbnail(data []byte, tw, th int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer

	switch e.Format {
	case configs.ServeWEBP:
		err = webp.Encode(&buf, dst, &webp.Options{Lossless: e.Quality == 0, Quality: e.Quality})
	case configs.ServeJPEG:
		q := int(e.Quality)
		if q <= 0 {
			q = jpeg.DefaultQuality
		}

		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: q})
	default:
		err = png.Encode(&buf, dst)
	}

	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Format, err)
	}

	return buf.Bytes(), nil
}
