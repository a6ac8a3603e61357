// Package storage 聚合服务使用的全部存储资源：元数据库、字节存储后端、缩略图缓存与事件队列.
//
// Example:
//
//	mgr, err := storage.New(ctx, cfg, pool, table.Names())
//	if err != nil {
//	    return err
//	}
//	defer mgr.Close()
//
//	f, err := mgr.Files.Find(ctx, id, "attachments", nil)
//	data, err := mgr.Blob.Get(ctx, f.Tag, f.ID)
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/mediavault/pkg/cache"
	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/internal/storage/blob"
	dbc "github.com/yeisme/mediavault/pkg/internal/storage/db"
	"github.com/yeisme/mediavault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/mediavault/pkg/internal/storage/mq"
	nlog "github.com/yeisme/mediavault/pkg/log"
	"github.com/yeisme/mediavault/pkg/worker"
)

// Manager 聚合所有存储资源，Cache 与 MQ 未启用时为 nil.
type Manager struct {
	DB    *dbc.Client
	Files *dbc.Files
	Blob  blob.Backend
	Cache *cache.Cache
	MQ    *mqc.Client
}

// New 按配置初始化存储资源，任一必需资源失败时关闭已打开的资源并返回错误.
func New(ctx context.Context, cfg *configs.AppConfig, pool *worker.Pool, tagNames []string) (*Manager, error) {
	m := &Manager{}

	dbi, err := dbc.New(ctx, &cfg.DB, cfg.Metrics.Enabled && cfg.Metrics.DBMetrics)
	if err != nil {
		return nil, err
	}

	m.DB = dbi
	m.Files = dbc.NewFiles(dbi)

	if m.Blob, err = blob.New(ctx, cfg, pool, tagNames); err != nil {
		_ = m.Close()
		return nil, err
	}

	if cfg.KV.Enabled {
		store, err := kv.New(ctx, &cfg.KV)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("init thumbnail cache: %w", err)
		}

		m.Cache = cache.New(store, cache.Options{TTL: cfg.KV.TTL, MaxBytes: cfg.KV.MaxBytes})
	}

	if cfg.Events.Enabled {
		if m.MQ, err = mqc.New(ctx, &cfg.MQ, cfg.Metrics.Enabled); err != nil {
			_ = m.Close()
			return nil, err
		}
	}

	nlog.Logger().Info().
		Str("db", string(cfg.DB.Type)).
		Str("blob", m.Blob.Name()).
		Bool("cache", m.Cache != nil).
		Bool("events", m.MQ != nil).
		Msg("storage manager initialized")

	return m, nil
}

// Publisher 返回事件发布器，未启用事件时为 nil.
func (m *Manager) Publisher() message.Publisher {
	if m == nil || m.MQ == nil {
		return nil
	}

	return m.MQ.Publisher()
}

// Close 关闭所有已打开的资源.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.Cache != nil {
		errs = append(errs, m.Cache.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}
