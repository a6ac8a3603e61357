// Package blob 提供按对象 ID 读写原始字节的存储后端.
// 后端在启动时选定一次，调用方只依赖 Backend 接口.
package blob

import (
	"context"
	"fmt"

	minio "github.com/minio/minio-go/v7"
	"github.com/sony/gobreaker"

	"github.com/yeisme/mediavault/pkg/configs"
	s3c "github.com/yeisme/mediavault/pkg/internal/storage/s3"
	"github.com/yeisme/mediavault/pkg/worker"
)

// Backend 字节存储后端.
type Backend interface {
	// Put 写入对象，已存在时覆盖.
	Put(ctx context.Context, tag, id string, data []byte) error
	// Get 读取对象，不存在视为存储错误.
	Get(ctx context.Context, tag, id string) ([]byte, error)
	// Delete 删除对象，不存在视为存储错误.
	Delete(ctx context.Context, tag, id string) error
	// HealthCheck 检查后端可用性.
	HealthCheck(ctx context.Context) error
	// Name 后端名称，用于日志与指标.
	Name() string
}

// New 按配置创建后端.
func New(ctx context.Context, cfg *configs.AppConfig, pool *worker.Pool, tagNames []string) (Backend, error) {
	switch cfg.Storage.ResolveBackend(&cfg.S3) {
	case configs.BackendS3:
		cli, err := s3c.New(cfg.S3)
		if err != nil {
			return nil, err
		}

		if cfg.S3.AutoCreateBuckets {
			if err := cli.EnsureBuckets(ctx, tagNames); err != nil {
				return nil, err
			}
		}

		return NewS3(cli, NewBreaker(cfg.CircuitBreaker)), nil
	case configs.BackendLocal:
		return NewLocal(cfg.Storage.LocalPath, pool)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

// NewBreaker 根据配置创建熔断器，未启用时返回 nil.
// 对象或存储桶不存在属于正常状态，不计入失败.
func NewBreaker(cfg configs.CircuitBreakerConfig) *gobreaker.CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "s3",
		MaxRequests: cfg.MaxRequestsInHalf,
		Interval:    cfg.Interval(),
		Timeout:     cfg.Timeout(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}

			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRate
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isMissing(err)
		},
	})
}

// isMissing 判断是否为对象或存储桶不存在.
func isMissing(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return true
	default:
		return false
	}
}
