package model

import (
	"time"
)

// TableAttachments 文件记录表名.
const TableAttachments = "attachments"

// LinkFields 记录上由聊天后端写入的关联字段，标签可据此限制下发.
var LinkFields = []string{"message_id", "user_id", "server_id", "object_id"}

// File 单个已存储对象的元数据记录.
type File struct {
	// ID 由标签的 ID 方案生成，与 Tag 一起唯一定位记录
	ID  string `gorm:"primaryKey;size:64"          json:"_id"`
	Tag string `gorm:"size:64;index;not null"      json:"tag"`
	// Filename 客户端提供的原始文件名，仅用于展示与 Content-Disposition
	Filename     string       `gorm:"size:1024"           json:"filename"`
	MetadataType MetadataType `gorm:"size:16;not null"    json:"-"`
	Width        *int         `json:"-"`
	Height       *int         `json:"-"`
	ContentType  string       `gorm:"size:255"            json:"content_type"`
	Size         int64        `json:"size"`
	// Deleted 软删除标记，由外部服务设置
	Deleted *bool `gorm:"index" json:"deleted,omitempty"`
	// Reported 被举报的内容即使已删除也不会被回收
	Reported *bool `json:"reported,omitempty"`

	MessageID *string `gorm:"size:64;index" json:"message_id,omitempty"`
	UserID    *string `gorm:"size:64;index" json:"user_id,omitempty"`
	ServerID  *string `gorm:"size:64;index" json:"server_id,omitempty"`
	ObjectID  *string `gorm:"size:64;index" json:"object_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName 返回表名.
func (File) TableName() string {
	return TableAttachments
}

// Metadata 从扁平列还原元数据变体.
func (f *File) Metadata() Metadata {
	w, h := 0, 0
	if f.Width != nil {
		w = *f.Width
	}

	if f.Height != nil {
		h = *f.Height
	}

	switch f.MetadataType {
	case MetadataText:
		return TextMeta{}
	case MetadataImage:
		return ImageMeta{Width: w, Height: h}
	case MetadataVideo:
		return VideoMeta{Width: w, Height: h}
	case MetadataAudio:
		return AudioMeta{}
	default:
		return FileMeta{}
	}
}

// SetMetadata 把元数据变体写入扁平列.
func (f *File) SetMetadata(m Metadata) {
	f.MetadataType = m.Type()
	f.Width, f.Height = nil, nil

	if w, h, ok := Dimensions(m); ok {
		f.Width, f.Height = &w, &h
	}
}

// IsDeleted 是否已软删除.
func (f *File) IsDeleted() bool {
	return f.Deleted != nil && *f.Deleted
}

// IsReported 是否被举报.
func (f *File) IsReported() bool {
	return f.Reported != nil && *f.Reported
}
