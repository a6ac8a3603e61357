// Package context 拓展上下文功能，将存储、标签表、媒体处理器等集成到上下文中，方便在请求链路中传递.
package context

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/internal/media"
	"github.com/yeisme/mediavault/pkg/internal/storage"
	"github.com/yeisme/mediavault/pkg/internal/tags"
)

type ContextKey string

const (
	StorageManagerKey ContextKey = "storageManager"
	TagTableKey       ContextKey = "tagTable"
	ProcessorKey      ContextKey = "mediaProcessor"
	ConfigKey         ContextKey = "appConfig"
)

// Deps 请求处理需要的全部依赖，由应用层在启动时构建一次.
type Deps struct {
	Config    *configs.AppConfig
	Storage   *storage.Manager
	Tags      *tags.Table
	Processor *media.Processor
}

// WithDeps 将依赖一次性存入 context.
func WithDeps(ctx context.Context, d Deps) context.Context {
	ctx = context.WithValue(ctx, ConfigKey, d.Config)
	ctx = context.WithValue(ctx, StorageManagerKey, d.Storage)
	ctx = context.WithValue(ctx, TagTableKey, d.Tags)

	return context.WithValue(ctx, ProcessorKey, d.Processor)
}

// GetDeps 从 context 中取出依赖.
func GetDeps(ctx context.Context) Deps {
	return Deps{
		Config:    GetConfig(ctx),
		Storage:   GetManager(ctx),
		Tags:      GetTags(ctx),
		Processor: GetProcessor(ctx),
	}
}

// GetManager 从 context 中获取 Manager.
func GetManager(ctx context.Context) *storage.Manager {
	if mgr, ok := ctx.Value(StorageManagerKey).(*storage.Manager); ok {
		return mgr
	}

	return nil
}

// GetTags 从 context 中获取标签表.
func GetTags(ctx context.Context) *tags.Table {
	if t, ok := ctx.Value(TagTableKey).(*tags.Table); ok {
		return t
	}

	return nil
}

// GetProcessor 从 context 中获取媒体处理器.
func GetProcessor(ctx context.Context) *media.Processor {
	if p, ok := ctx.Value(ProcessorKey).(*media.Processor); ok {
		return p
	}

	return nil
}

// GetConfig 从 context 中获取配置，未设置时回退到全局配置.
func GetConfig(ctx context.Context) *configs.AppConfig {
	if c, ok := ctx.Value(ConfigKey).(*configs.AppConfig); ok && c != nil {
		return c
	}

	return configs.GetConfig()
}

// WithTraceContext 创建带有追踪上下文的logger.
func WithTraceContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return logger.With().
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String()).
			Logger()
	}

	return logger
}
