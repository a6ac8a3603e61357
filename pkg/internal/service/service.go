// Package service 实现上传、下发与回收的业务流程，不处理 HTTP 细节.
package service

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/yeisme/mediavault/pkg/cache"
	"github.com/yeisme/mediavault/pkg/configs"
	ctxPkg "github.com/yeisme/mediavault/pkg/context"
	"github.com/yeisme/mediavault/pkg/internal/media"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/storage/blob"
	"github.com/yeisme/mediavault/pkg/internal/tags"
	nlog "github.com/yeisme/mediavault/pkg/log"
)

// MetadataStore 服务依赖的元数据操作，由 db.Files 实现.
type MetadataStore interface {
	Insert(ctx context.Context, f *model.File) error
	Find(ctx context.Context, id, tag string, anyOf []string) (*model.File, error)
	MarkDeleted(ctx context.Context, tag, id string) error
	Delete(ctx context.Context, tag, id string) error
	Reapable(ctx context.Context, after string, limit int) ([]model.File, error)
}

// Deps 构造 Service 所需的依赖；Cache 与 Publisher 可以为 nil.
type Deps struct {
	Config    *configs.AppConfig
	Tags      *tags.Table
	Files     MetadataStore
	Blob      blob.Backend
	Cache     *cache.Cache
	Publisher message.Publisher
	Processor *media.Processor
}

// Service 媒体存储业务逻辑.
type Service struct {
	cfg   *configs.AppConfig
	tags  *tags.Table
	files MetadataStore
	blob  blob.Backend
	cache *cache.Cache
	pub   message.Publisher
	media *media.Processor
	enc   media.Encoder
	log   zerolog.Logger
}

// New 由显式依赖创建 Service.
func New(d Deps) *Service {
	return &Service{
		cfg:   d.Config,
		tags:  d.Tags,
		files: d.Files,
		blob:  d.Blob,
		cache: d.Cache,
		pub:   d.Publisher,
		media: d.Processor,
		enc:   media.Encoder{Format: d.Config.Serve.Format, Quality: d.Config.Serve.Quality},
		log:   nlog.Component("service"),
	}
}

// FromContext 从请求上下文中的依赖创建 Service.
// 依赖缺失说明启动流程有误，直接终止进程.
func FromContext(ctx context.Context) *Service {
	d := ctxPkg.GetDeps(ctx)
	if d.Storage == nil || d.Tags == nil || d.Processor == nil {
		nlog.Logger().Fatal().Msg("service dependencies not initialized")
	}

	return New(Deps{
		Config:    d.Config,
		Tags:      d.Tags,
		Files:     d.Storage.Files,
		Blob:      d.Storage.Blob,
		Cache:     d.Storage.Cache,
		Publisher: d.Storage.Publisher(),
		Processor: d.Processor,
	})
}

// Tags 返回标签表.
func (s *Service) Tags() *tags.Table {
	return s.tags
}
