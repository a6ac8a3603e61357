package configs

import (
	"errors"
	"strings"
)

// ContentKind 标签可限制的媒体类别.
type ContentKind string

const (
	KindImage ContentKind = "Image"
	KindVideo ContentKind = "Video"
	KindAudio ContentKind = "Audio"
)

// IDScheme 对象 ID 生成方式.
type IDScheme string

const (
	// IDRandom 42 位随机短 ID.
	IDRandom IDScheme = "random"
	// IDULID 单调可排序的 ULID.
	IDULID IDScheme = "ulid"
)

const (
	mib = 1024 * 1024
)

// reservedTags 与固定路由冲突的名字.
var reservedTags = map[string]bool{"health": true, "metrics": true, "debug": true}

// ReservedTagName 标签名是否被固定路由占用.
func ReservedTagName(name string) bool {
	return reservedTags[strings.ToLower(name)]
}

// TagConfig 单个标签的上传策略.
// Viper 会把 map 键转为小写，因此标签名按小写匹配.
type TagConfig struct {
	MaxSize  int64    `mapstructure:"max_size"  json:"max_size"            rule:"min=1"`
	IDScheme IDScheme `mapstructure:"id_scheme" json:"id_scheme,omitempty" rule:"omitempty,oneof=random ulid"`
	// UseULID 兼容旧配置，等价于 id_scheme: ulid.
	UseULID bool `mapstructure:"use_ulid" json:"use_ulid"`
	// Enabled 为空表示启用.
	Enabled             *bool       `mapstructure:"enabled"                json:"enabled"`
	ServeIfFieldPresent []string    `mapstructure:"serve_if_field_present" json:"serve_if_field_present,omitempty" rule:"dive,oneof=message_id user_id server_id object_id"`
	RestrictContentType ContentKind `mapstructure:"restrict_content_type"  json:"restrict_content_type,omitempty" rule:"omitempty,oneof=Image Video Audio"`
}

// IsEnabled 返回标签是否启用.
func (t *TagConfig) IsEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

// Scheme 返回实际生效的 ID 生成方式.
func (t *TagConfig) Scheme() IDScheme {
	if t.IDScheme != "" {
		return t.IDScheme
	}

	if t.UseULID {
		return IDULID
	}

	return IDRandom
}

func (t *TagConfig) validate() error {
	if t.UseULID && t.IDScheme == IDRandom {
		return errors.New("use_ulid conflicts with id_scheme random")
	}

	return nil
}

// DefaultTags 未配置标签表时使用的一组聊天应用常用标签.
func DefaultTags() map[string]TagConfig {
	return map[string]TagConfig{
		"attachments": {MaxSize: 20 * mib, ServeIfFieldPresent: []string{"message_id"}},
		"avatars":     {MaxSize: 4 * mib, RestrictContentType: KindImage},
		"backgrounds": {MaxSize: 6 * mib, RestrictContentType: KindImage},
		"icons":       {MaxSize: 5 * mib / 2, RestrictContentType: KindImage},
		"banners":     {MaxSize: 6 * mib, RestrictContentType: KindImage},
		"emojis":      {MaxSize: 500 * 1024, UseULID: true, RestrictContentType: KindImage},
	}
}
