// Package app 组装服务依赖、HTTP 引擎与定时任务，并负责优雅关闭.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/mediavault/pkg/configs"
	ctxPkg "github.com/yeisme/mediavault/pkg/context"
	"github.com/yeisme/mediavault/pkg/internal/clamd"
	"github.com/yeisme/mediavault/pkg/internal/jobs"
	"github.com/yeisme/mediavault/pkg/internal/media"
	"github.com/yeisme/mediavault/pkg/internal/router"
	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/storage"
	"github.com/yeisme/mediavault/pkg/internal/tags"
	"github.com/yeisme/mediavault/pkg/log"
	"github.com/yeisme/mediavault/pkg/metrics"
	"github.com/yeisme/mediavault/pkg/middleware"
	"github.com/yeisme/mediavault/pkg/scheduler"
	"github.com/yeisme/mediavault/pkg/tracing"
	"github.com/yeisme/mediavault/pkg/worker"
)

// App 持有一次启动构建的全部依赖；HTTP 引擎在首次需要时创建，命令行一次性任务不会启动指标端口.
type App struct {
	engine *gin.Engine
	config *configs.AppConfig
	deps   ctxPkg.Deps
	svc    *service.Service
	pool   *worker.Pool
	logger zerolog.Logger
}

// NewApp 按已加载的配置初始化全部依赖.
// clamd 启用时会阻塞直到守护进程就绪或 ctx 结束.
func NewApp(ctx context.Context, config *configs.AppConfig) (*App, error) {
	l := log.Component("app")

	if err := tracing.InitTracer(ctx, config.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	if err := clamd.WaitReady(ctx, config.Clamd); err != nil {
		return nil, fmt.Errorf("wait for clamd: %w", err)
	}

	pool := worker.New(config.Storage.Workers)
	table := tags.New(config.Tags)

	manager, err := storage.New(ctx, config, pool, table.Names())
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	deps := ctxPkg.Deps{
		Config:    config,
		Storage:   manager,
		Tags:      table,
		Processor: media.NewProcessor(config.Media, pool),
	}

	svc := service.New(service.Deps{
		Config:    config,
		Tags:      table,
		Files:     manager.Files,
		Blob:      manager.Blob,
		Cache:     manager.Cache,
		Publisher: manager.Publisher(),
		Processor: deps.Processor,
	})

	if err := metrics.RegisterGaugeFunc("blocking_pool_in_use", "Blocking tasks currently running", func() float64 {
		return float64(pool.InUse())
	}); err != nil {
		l.Warn().Err(err).Msg("register pool gauge failed")
	}

	a := &App{
		config: config,
		deps:   deps,
		svc:    svc,
		pool:   pool,
		logger: l,
	}

	l.Info().
		Strs("tags", table.Names()).
		Str("backend", manager.Blob.Name()).
		Int("workers", pool.Size()).
		Msg("app initialized")

	return a, nil
}

func (a *App) newEngine() *gin.Engine {
	if !a.config.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(a.config.CORS),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.RateLimitMiddleware(a.config.RateLimit),
		middleware.DepsMiddleware(a.deps),
	)

	if err := metrics.StartMetricsServer(a.config.Metrics, engine); err != nil {
		l.Error().Err(err).Msg("metrics endpoint not mounted")
	}

	router.Register(engine, a.config)

	return engine
}

// Handler 返回 HTTP 引擎，首次调用时注册中间件与路由.
func (a *App) Handler() http.Handler {
	if a.engine == nil {
		a.engine = a.newEngine()
	}

	return a.engine
}

// Service 返回业务服务，供命令行直接调用.
func (a *App) Service() *service.Service {
	return a.svc
}

// Storage 返回存储管理器.
func (a *App) Storage() *storage.Manager {
	return a.deps.Storage
}

// Run 启动 HTTP 服务与定时任务，收到 SIGINT/SIGTERM 后优雅关闭.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched, err := scheduler.NewScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	if err := jobs.RegisterJobs(ctx, sched, a.config.Reaper, a.svc); err != nil {
		_ = sched.Stop()
		return fmt.Errorf("register jobs: %w", err)
	}

	sched.Start()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
		IdleTimeout:       2 * a.config.Server.GetTimeoutDuration(),
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	var serveErr error

	select {
	case <-ctx.Done():
		a.logger.Info().Msg("shutdown signal received")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.GetShutdownTimeout())
	defer cancel()

	errs := []error{serveErr}
	errs = append(errs, srv.Shutdown(shutdownCtx))

	// 回收任务在 ctx 取消后于当前记录结束时返回
	stop()
	errs = append(errs, sched.Stop(), a.Close(shutdownCtx))

	return errors.Join(errs...)
}

// Close 释放存储连接并刷新追踪数据.
func (a *App) Close(ctx context.Context) error {
	start := time.Now()

	err := errors.Join(a.deps.Storage.Close(), tracing.ShutdownTracer(ctx))
	a.logger.Info().Dur("took", time.Since(start)).Msg("resources released")

	return err
}
