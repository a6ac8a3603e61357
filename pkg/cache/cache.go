// Package cache 提供基于键值存储的缩略图缓存.
//
// 缩略图由 (tag, id, 缩放参数, 输出格式) 唯一确定，文件内容不可变，
// 缓存项平时依赖 TTL 回收；文件被删除或回收时由 Forget 清除该文件的全部缩略图.
// 缓存读写失败不影响请求，调用方在未命中时重新生成缩略图.
//
// 基本用法:
//
//	c := cache.New(store, cache.Options{TTL: time.Hour, MaxBytes: 4 << 20})
//	key := cache.ThumbnailKey("attachments", id, "w100", "webp")
//	thumb, ok := c.GetThumbnail(ctx, key)
//	if !ok {
//	    thumb = render()
//	    c.PutThumbnail(ctx, key, thumb)
//	}
//
// 底层值使用 sonic 序列化，可配合 memory、redis、nats、groupcache 任一实现.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/mediavault/pkg/internal/storage/kv"
)

// KeyPrefix 缩略图键前缀.
const KeyPrefix = "thumb."

// Options 缓存选项.
type Options struct {
	TTL      time.Duration
	MaxBytes int // 超过该大小的缩略图不缓存，0 表示不限制
}

// Cache 基于KV存储的缓存实现.
type Cache struct {
	kvStore kv.KVStore
	opts    Options
}

// Thumbnail 缓存的缩略图.
type Thumbnail struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// New 创建一个新的缓存实例.
func New(kvStore kv.KVStore, opts Options) *Cache {
	return &Cache{kvStore: kvStore, opts: opts}
}

// ThumbnailKey 生成缩略图缓存键，只使用 NATS KV 允许的字符.
func ThumbnailKey(tag, id, variant, format string) string {
	return KeyPrefix + strings.Join([]string{tag, id, variant, format}, ".")
}

// Get 泛型获取缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	data, err := c.kvStore.Get(ctx, key)
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, key, data, ttl)
}

// GetThumbnail 读取缩略图，任何错误都视为未命中.
func (c *Cache) GetThumbnail(ctx context.Context, key string) (Thumbnail, bool) {
	thumb, err := Get[Thumbnail](ctx, c, key)
	if err != nil || thumb.ContentType == "" {
		return Thumbnail{}, false
	}

	return thumb, true
}

// PutThumbnail 写入缩略图，超过 MaxBytes 时跳过并返回 false.
func (c *Cache) PutThumbnail(ctx context.Context, key string, thumb Thumbnail) (bool, error) {
	if c.opts.MaxBytes > 0 && len(thumb.Data) > c.opts.MaxBytes {
		return false, nil
	}

	if err := Set(ctx, c, key, thumb, c.opts.TTL); err != nil {
		return false, err
	}

	return true, nil
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.kvStore.Delete(ctx, key)
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, key)
}

// Keys 列出匹配前缀的缓存键.
func (c *Cache) Keys(ctx context.Context, prefix string) ([]string, error) {
	return c.kvStore.Keys(ctx, prefix)
}

// Forget 删除某个文件的全部缩略图.
func (c *Cache) Forget(ctx context.Context, tag, id string) error {
	keys, err := c.kvStore.Keys(ctx, KeyPrefix+tag+"."+id+".")
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := c.kvStore.Delete(ctx, key); err != nil {
			return err
		}
	}

	return nil
}

// Clear 清空所有缩略图.
func (c *Cache) Clear(ctx context.Context) error {
	keys, err := c.kvStore.Keys(ctx, KeyPrefix)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := c.kvStore.Delete(ctx, key); err != nil {
			return err
		}
	}

	return nil
}

// Close 关闭底层存储.
func (c *Cache) Close() error {
	return c.kvStore.Close()
}
