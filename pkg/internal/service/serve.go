package service

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yeisme/mediavault/pkg/cache"
	"github.com/yeisme/mediavault/pkg/internal/media"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/tags"
	"github.com/yeisme/mediavault/pkg/internal/types"
	"github.com/yeisme/mediavault/pkg/metrics"
	"github.com/yeisme/mediavault/pkg/tracing"
)

// inlineTypes 可以直接在浏览器内展示的类型，其余类型一律作为附件下载.
var inlineTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"video/mp4":       true,
	"video/webm":      true,
	"video/quicktime": true,
	"audio/mpeg":      true,
}

// Serve 读取对象并按参数生成缩略图.
// 非图片、未设置参数或缩放失败时返回原始字节与原始类型.
func (s *Service) Serve(ctx context.Context, tagName, id string, q types.ResizeQuery) (out *types.ServedFile, err error) {
	ctx, span := tracing.StartSpan(ctx, "service.serve")
	defer func() { tracing.End(span, err) }()

	tag, f, err := s.lookup(ctx, tagName, id)
	if err != nil {
		return nil, err
	}

	out = &types.ServedFile{ContentType: f.ContentType, Disposition: Disposition(f.ContentType, f.Filename)}

	meta := f.Metadata()
	params := media.ParseResize(q)

	var key string

	if img, ok := meta.(model.ImageMeta); ok {
		if tw, th, ok := media.Target(img.Width, img.Height, params); ok && s.cache != nil {
			key = cache.ThumbnailKey(tag.Name, id, fmt.Sprintf("%dx%d", tw, th), string(s.enc.Format))

			if thumb, hit := s.cache.GetThumbnail(ctx, key); hit {
				span.SetAttributes(attribute.Bool("cache_hit", true))
				metrics.Served.WithLabelValues(tag.Name, "cached").Inc()

				out.Body, out.ContentType = thumb.Data, thumb.ContentType

				return out, nil
			}
		}
	}

	data, err := s.blob.Get(ctx, tag.Name, id)
	if err != nil {
		return nil, err
	}

	body, contentType := s.media.Resize(ctx, data, meta, params, s.enc)
	out.Body = body

	if contentType == "" {
		if _, isImage := meta.(model.ImageMeta); isImage && !params.IsZero() {
			metrics.ResizeFailures.Inc()
		}

		metrics.Served.WithLabelValues(tag.Name, "original").Inc()

		return out, nil
	}

	out.ContentType = contentType

	metrics.Served.WithLabelValues(tag.Name, "resized").Inc()

	if key != "" {
		if _, err := s.cache.PutThumbnail(ctx, key, cache.Thumbnail{ContentType: contentType, Data: body}); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("cache thumbnail failed")
		}
	}

	return out, nil
}

// Download 读取对象原始字节，强制以附件形式使用原始文件名下载.
func (s *Service) Download(ctx context.Context, tagName, id string) (out *types.ServedFile, err error) {
	ctx, span := tracing.StartSpan(ctx, "service.download")
	defer func() { tracing.End(span, err) }()

	tag, f, err := s.lookup(ctx, tagName, id)
	if err != nil {
		return nil, err
	}

	data, err := s.blob.Get(ctx, tag.Name, id)
	if err != nil {
		return nil, err
	}

	metrics.Served.WithLabelValues(tag.Name, "download").Inc()

	return &types.ServedFile{
		Body:        data,
		ContentType: f.ContentType,
		Disposition: attachment(f.Filename),
	}, nil
}

// lookup 解析标签并按下发门控查找记录.
func (s *Service) lookup(ctx context.Context, tagName, id string) (tags.Tag, *model.File, error) {
	tag, err := s.tags.Resolve(tagName)
	if err != nil {
		return tags.Tag{}, nil, err
	}

	f, err := s.files.Find(ctx, id, tag.Name, tag.ServeIfFieldPresent)
	if err != nil {
		return tags.Tag{}, nil, err
	}

	return tag, f, nil
}

// Disposition 按内容类型决定 inline 或附件下载.
func Disposition(contentType, filename string) string {
	if inlineTypes[contentType] {
		return "inline"
	}

	return attachment(filename)
}

func attachment(filename string) string {
	return `attachment; filename="` + escapeFilename(filename) + `"`
}

// escapeFilename 替换文件名中会破坏头部格式的字符.
func escapeFilename(s string) string {
	replacer := strings.NewReplacer("\\", "_", "\"", "_", ";", "_", "\n", "_", "\r", "_")
	return replacer.Replace(s)
}
