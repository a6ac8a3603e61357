package media

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Class 按魔数识别出的媒体大类.
type Class int

const (
	ClassOther Class = iota
	ClassImage
	ClassVideo
	ClassAudio
)

// String 返回大类名称.
func (c Class) String() string {
	switch c {
	case ClassImage:
		return "image"
	case ClassVideo:
		return "video"
	case ClassAudio:
		return "audio"
	default:
		return "other"
	}
}

// Sniffed 内容嗅探结果.
type Sniffed struct {
	// ContentType 不带参数的 MIME 类型，例如 image/jpeg
	ContentType string
	Class       Class
	// Text 对于 ClassOther，内容是否为可打印文本
	Text bool
}

var classes = map[string]Class{
	"image/jpeg":      ClassImage,
	"image/png":       ClassImage,
	"image/gif":       ClassImage,
	"image/webp":      ClassImage,
	"video/mp4":       ClassVideo,
	"video/webm":      ClassVideo,
	"video/quicktime": ClassVideo,
	"audio/mpeg":      ClassAudio,
}

// Sniff 只依据字节内容判断类型，不信任文件名与客户端头.
func Sniff(data []byte) Sniffed {
	mt := mimetype.Detect(data)
	contentType := bareType(mt.String())

	s := Sniffed{ContentType: contentType, Class: classes[contentType]}
	if s.Class == ClassOther {
		s.Text = isText(mt)
	}

	return s
}

// isText 沿类型树向上查找 text/plain.
func isText(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}

	return false
}

func bareType(s string) string {
	t, _, _ := strings.Cut(s, ";")

	return strings.TrimSpace(t)
}
