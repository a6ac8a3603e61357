// Package jobs 负责注册与实现业务定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/log"
	"github.com/yeisme/mediavault/pkg/scheduler"
)

// Reaper 执行一轮回收，由 *service.Service 实现.
type Reaper interface {
	Reap(ctx context.Context) (service.ReapStats, error)
}

// RegisterJobs 配置业务定时任务：
//   - 回收任务：reaper.cron 非空时按 cron 调度，否则每 reaper.interval 执行一次
//
// ctx 取消后正在执行的回收在当前记录处理完后停止.
func RegisterJobs(ctx context.Context, sched *scheduler.Scheduler, cfg configs.ReaperConfig, r Reaper) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if r == nil {
		return errors.New("reaper is nil")
	}

	if !cfg.Enabled {
		log.Component("jobs").Info().Msg("reaper disabled")
		return nil
	}

	if cfg.Cron != "" {
		return sched.AddCron(ctx, JobReaper, cfg.Cron, ReapJob(r))
	}

	if cfg.Interval <= 0 {
		return fmt.Errorf("reaper interval must be positive, got %s", cfg.Interval)
	}

	return sched.AddInterval(ctx, JobReaper, cfg.Interval, ReapJob(r))
}

// ReapJob 包装一轮回收；停机导致的取消不算失败.
func ReapJob(r Reaper) scheduler.JobFunc {
	l := log.Component("jobs").With().Str("job", JobReaper).Logger()

	return func(ctx context.Context) error {
		stats, err := r.Reap(ctx)
		if errors.Is(err, context.Canceled) {
			l.Info().Int("reaped", stats.Reaped).Msg("reaper interrupted by shutdown")
			return nil
		}

		if err != nil {
			return err
		}

		if stats.Failed > 0 {
			l.Warn().Int("failed", stats.Failed).Int("reaped", stats.Reaped).Msg("some records left for the next pass")
		}

		return nil
	}
}
