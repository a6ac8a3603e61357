package model

// MetadataType 元数据变体名称.
type MetadataType string

const (
	MetadataFile  MetadataType = "File"
	MetadataText  MetadataType = "Text"
	MetadataImage MetadataType = "Image"
	MetadataVideo MetadataType = "Video"
	MetadataAudio MetadataType = "Audio"
)

// Metadata 是封闭的元数据变体集合，只有本包内的类型可以实现.
type Metadata interface {
	Type() MetadataType
	sealed()
}

type (
	// FileMeta 普通二进制文件.
	FileMeta struct{}
	// TextMeta 可打印文本.
	TextMeta struct{}
	// ImageMeta 图片及其像素尺寸.
	ImageMeta struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	// VideoMeta 视频及首个带尺寸的流的尺寸.
	VideoMeta struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	// AudioMeta 音频.
	AudioMeta struct{}
)

func (FileMeta) Type() MetadataType  { return MetadataFile }
func (TextMeta) Type() MetadataType  { return MetadataText }
func (ImageMeta) Type() MetadataType { return MetadataImage }
func (VideoMeta) Type() MetadataType { return MetadataVideo }
func (AudioMeta) Type() MetadataType { return MetadataAudio }

func (FileMeta) sealed()  {}
func (TextMeta) sealed()  {}
func (ImageMeta) sealed() {}
func (VideoMeta) sealed() {}
func (AudioMeta) sealed() {}

// Dimensions 返回图片与视频的尺寸.
func Dimensions(m Metadata) (width, height int, ok bool) {
	switch v := m.(type) {
	case ImageMeta:
		return v.Width, v.Height, true
	case VideoMeta:
		return v.Width, v.Height, true
	case FileMeta, TextMeta, AudioMeta:
		return 0, 0, false
	default:
		return 0, 0, false
	}
}
