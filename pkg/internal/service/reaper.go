package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/metrics"
	"github.com/yeisme/mediavault/pkg/queue"
	"github.com/yeisme/mediavault/pkg/tracing"
)

// ReapStats 一轮回收的统计.
type ReapStats struct {
	Scanned  int
	Reaped   int
	Failed   int
	Duration time.Duration
}

// Reap 回收所有已删除且未被举报的记录：先删除存储内容（失败只记录日志），再删除元数据.
// 记录按 id 顺序逐条处理，每条之间等待 reaper.delay；上下文只在两条记录之间检查.
// 单条失败不会中断本轮，失败的记录留待下一轮.
func (s *Service) Reap(ctx context.Context) (stats ReapStats, err error) {
	ctx, span := tracing.StartSpan(ctx, "service.reap")
	start := time.Now()

	defer func() {
		stats.Duration = time.Since(start)
		metrics.ReaperPassDuration.Observe(stats.Duration.Seconds())
		span.SetAttributes(
			attribute.Int("scanned", stats.Scanned),
			attribute.Int("reaped", stats.Reaped),
			attribute.Int("failed", stats.Failed),
		)
		tracing.End(span, err)
	}()

	batchSize := max(s.cfg.Reaper.BatchSize, 1)
	after := ""

	for {
		batch, err := s.files.Reapable(ctx, after, batchSize)
		if err != nil {
			return stats, err
		}

		for i := range batch {
			if err := ctx.Err(); err != nil {
				return stats, err
			}

			f := &batch[i]
			after = f.ID
			stats.Scanned++

			if s.reapOne(context.WithoutCancel(ctx), f) {
				stats.Reaped++
			} else {
				stats.Failed++
			}

			if err := sleep(ctx, s.cfg.Reaper.Delay); err != nil {
				return stats, err
			}
		}

		if len(batch) < batchSize {
			break
		}
	}

	if stats.Scanned > 0 {
		s.log.Info().
			Int("scanned", stats.Scanned).
			Int("reaped", stats.Reaped).
			Int("failed", stats.Failed).
			Dur("duration", time.Since(start)).
			Msg("reaper pass finished")
	}

	s.publishPass(stats, time.Since(start))

	return stats, nil
}

// reapOne 回收单条记录，返回元数据是否已删除.
func (s *Service) reapOne(ctx context.Context, f *model.File) bool {
	blobErr := s.blob.Delete(ctx, f.Tag, f.ID)
	if blobErr != nil {
		s.log.Warn().Err(blobErr).Str("tag", f.Tag).Str("id", f.ID).Msg("reaper: delete content failed, removing record anyway")
	}

	if err := s.files.Delete(ctx, f.Tag, f.ID); err != nil {
		s.log.Error().Err(err).Str("tag", f.Tag).Str("id", f.ID).Msg("reaper: delete record failed")
		metrics.Reaped.WithLabelValues("failed").Inc()

		return false
	}

	metrics.Reaped.WithLabelValues("reaped").Inc()

	if s.forget(ctx, f) {
		s.log.Debug().Str("id", f.ID).Msg("reaper: cached thumbnails dropped")
	}

	if s.pub != nil && s.cfg.Events.Enabled && s.cfg.Events.Attachment.Reaped {
		payload := queue.AttachmentReapedPayload{Attachment: attachmentRef(f), BlobFailed: blobErr != nil}
		if err := queue.PublishAttachmentReaped(s.pub, payload, queue.WithProducer(producer)); err != nil {
			s.log.Warn().Err(err).Str("id", f.ID).Msg("publish reaped event failed")
		}
	}

	return true
}

// forget 删除记录的缓存缩略图.
func (s *Service) forget(ctx context.Context, f *model.File) bool {
	if s.cache == nil {
		return false
	}

	if err := s.cache.Forget(ctx, f.Tag, f.ID); err != nil {
		s.log.Warn().Err(err).Str("id", f.ID).Msg("drop cached thumbnails failed")
		return false
	}

	return true
}

func (s *Service) publishPass(stats ReapStats, d time.Duration) {
	if s.pub == nil || !s.cfg.Events.Enabled || stats.Scanned == 0 {
		return
	}

	payload := queue.ReaperPassPayload{Scanned: stats.Scanned, Reaped: stats.Reaped, Failed: stats.Failed, Duration: d}
	if err := queue.PublishReaperPass(s.pub, payload, queue.WithProducer(producer)); err != nil {
		s.log.Warn().Err(err).Msg("publish reaper pass event failed")
	}
}

// sleep 等待 d，期间上下文取消则提前返回.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
