// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集 HTTP、上传、下发与回收任务的指标.
//
// Example:
//
//	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
//		log.Fatal(err)
//	}
//
//	metrics.Uploads.WithLabelValues("attachments", "Image").Inc()
//
// 指标变量在包初始化时创建，未启用时仍可安全调用，只是不会被导出.
package metrics

import (
	"fmt"
	"net/http"
	_ "net/http/pprof" // 注册 pprof 端点
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/mediavault/pkg/configs"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Uploads 成功上传数，按标签与元数据类型.
	Uploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "Number of stored uploads by tag and metadata type",
		},
		[]string{"tag", "kind"},
	)

	// UploadBytes 成功写入的字节数.
	UploadBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upload_bytes_total",
			Help: "Bytes written to the storage backend by tag",
		},
		[]string{"tag"},
	)

	// UploadRejected 被拒绝的上传，reason 为错误类型.
	UploadRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upload_rejected_total",
			Help: "Rejected uploads by tag and error type",
		},
		[]string{"tag", "reason"},
	)

	// Served 下发次数，mode 为 original、resized、cached 或 download.
	Served = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "served_total",
			Help: "Served files by tag and mode",
		},
		[]string{"tag", "mode"},
	)

	// ResizeFailures 缩放失败后回退原图的次数.
	ResizeFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "resize_failures_total",
			Help: "Thumbnail generations that fell back to the original bytes",
		},
	)

	// Reaped 回收结果，result 为 reaped 或 failed.
	Reaped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reaped_total",
			Help: "Soft-deleted records processed by the reaper",
		},
		[]string{"result"},
	)

	// ReaperPassDuration 单轮回收耗时.
	ReaperPassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reaper_pass_duration_seconds",
			Help:    "Duration of a full reaper pass",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
	// registerer 带命名空间与默认标签的注册器.
	registerer prometheus.Registerer = registry
)

// InitMetrics 初始化Metrics.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	registerer = registry
	if len(config.Labels) > 0 {
		registerer = prometheus.WrapRegistererWith(config.Labels, registerer)
	}

	if config.Namespace != "" {
		registerer = prometheus.WrapRegistererWithPrefix(config.Namespace+"_", registerer)
	}

	if config.RuntimeMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	for _, c := range []prometheus.Collector{
		RequestCounter, RequestDuration,
		Uploads, UploadBytes, UploadRejected,
		Served, ResizeFailures,
		Reaped, ReaperPassDuration,
	} {
		if err := registerer.Register(c); err != nil {
			return err
		}
	}

	return nil
}

// RegisterGaugeFunc 注册由回调取值的仪表盘指标，例如阻塞任务池占用.
func RegisterGaugeFunc(name, help string, fn func() float64) error {
	return registerer.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn))
}

// StartMetricsServer 在引擎上挂载指标端点，同时导出默认注册表中的 gorm 与 watermill 指标.
func StartMetricsServer(config configs.MetricsConfig, engine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	if !strings.HasPrefix(config.Path, "/") {
		return fmt.Errorf("invalid metrics path %q: must start with /", config.Path)
	}

	gatherers := prometheus.Gatherers{registry, prometheus.DefaultGatherer}
	engine.GET(config.Path, gin.WrapH(promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})))

	if config.Pprof {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
