// Package worker 提供有界的阻塞任务池.
// 磁盘读写、子进程与图像编解码等阻塞操作都通过 Do 提交，调用方在调用点等待结果，
// 并发量受池容量限制，避免挤占处理网络请求的 goroutine.
package worker

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/yeisme/mediavault/pkg/internal/types"
	nlog "github.com/yeisme/mediavault/pkg/log"
)

// Pool 有界阻塞任务池.
type Pool struct {
	sem   *semaphore.Weighted
	size  int64
	inUse atomic.Int64
}

// New 创建容量为 size 的任务池，size 小于 1 时按 1 处理.
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}

	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: int64(size)}
}

// Size 返回池容量.
func (p *Pool) Size() int {
	return int(p.size)
}

// InUse 返回正在执行的任务数.
func (p *Pool) InUse() int {
	return int(p.inUse.Load())
}

// Run 在池中执行 fn 并等待其完成.
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	_, err := Do(ctx, p, func() (struct{}, error) {
		return struct{}{}, fn()
	})

	return err
}

// Do 在池中执行 fn 并返回其结果.
// 等待槽位时上下文取消、或 fn 发生 panic，返回 BlockingError；fn 自身的错误原样返回.
func Do[T any](ctx context.Context, p *Pool, fn func() (T, error)) (result T, err error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return result, types.NewError(types.KindBlockingError, fmt.Errorf("acquire worker: %w", err))
	}

	p.inUse.Add(1)

	defer func() {
		p.inUse.Add(-1)
		p.sem.Release(1)

		if r := recover(); r != nil {
			nlog.Logger().Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("blocking task panicked")

			err = types.NewError(types.KindBlockingError, fmt.Errorf("task panicked: %v", r))
		}
	}()

	return fn()
}
