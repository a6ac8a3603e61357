// Package tags 解析标签策略：大小上限、ID 方案、内容类型限制与下发门控字段.
// Table 在启动时构造一次，之后只读，可被并发请求无锁访问.
package tags

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/oklog/ulid"

	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

// RandomIDLength 随机 ID 的长度.
const RandomIDLength = 42

// Tag 解析后的标签策略.
type Tag struct {
	Name string
	configs.TagConfig
}

// Table 标签名到策略的只读映射.
type Table struct {
	tags map[string]Tag
}

// New 由配置构造标签表，标签名统一转为小写.
func New(cfg map[string]configs.TagConfig) *Table {
	t := &Table{tags: make(map[string]Tag, len(cfg))}
	for name, c := range cfg {
		name = strings.ToLower(name)
		t.tags[name] = Tag{Name: name, TagConfig: c}
	}

	return t
}

// Resolve 返回启用的标签；不存在或已禁用时返回 UnknownTag.
func (t *Table) Resolve(name string) (Tag, error) {
	tag, ok := t.tags[name]
	if !ok || !tag.IsEnabled() {
		return Tag{}, types.NewError(types.KindUnknownTag, fmt.Errorf("tag %q", name))
	}

	return tag, nil
}

// Snapshot 返回完整标签表（含禁用标签），用于索引接口.
// 默认值会被展开，客户端无需了解缺省规则.
func (t *Table) Snapshot() map[string]configs.TagConfig {
	out := make(map[string]configs.TagConfig, len(t.tags))
	for name, tag := range t.tags {
		c := tag.TagConfig
		enabled := c.IsEnabled()
		c.Enabled = &enabled
		c.IDScheme = c.Scheme()
		c.UseULID = c.IDScheme == configs.IDULID
		out[name] = c
	}

	return out
}

// Names 返回全部标签名.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.tags))
	for name := range t.tags {
		names = append(names, name)
	}

	return names
}

// Allows 检查元数据是否满足内容类型限制.
func (tag Tag) Allows(m model.Metadata) bool {
	switch tag.RestrictContentType {
	case "":
		return true
	case configs.KindImage:
		return m.Type() == model.MetadataImage
	case configs.KindVideo:
		return m.Type() == model.MetadataVideo
	case configs.KindAudio:
		return m.Type() == model.MetadataAudio
	default:
		return false
	}
}

// NewID 按标签的 ID 方案生成对象 ID.
func (tag Tag) NewID() (string, error) {
	switch tag.Scheme() {
	case configs.IDULID:
		return newULID(), nil
	default:
		return gonanoid.New(RandomIDLength)
	}
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newULID 生成单调递增的 ULID，同一毫秒内也保持有序.
func newULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
