package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/mediavault/pkg/context"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

const timeout = 2 * time.Second

// HealthDB 数据库健康检查.
func HealthDB(c *gin.Context) {
	mgr := ctxPkg.GetManager(c.Request.Context())
	if mgr == nil || mgr.DB == nil {
		c.JSON(http.StatusServiceUnavailable, types.HealthResponse{Component: "db", Status: "unhealthy", Error: "db client not initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := mgr.DB.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, types.HealthResponse{Component: "db", Status: "unhealthy", Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, types.HealthResponse{Component: "db", Status: "ok"})
}

// HealthStorage 字节存储后端健康检查.
func HealthStorage(c *gin.Context) {
	mgr := ctxPkg.GetManager(c.Request.Context())
	if mgr == nil || mgr.Blob == nil {
		c.JSON(http.StatusServiceUnavailable, types.HealthResponse{Component: "storage", Status: "unhealthy", Error: "storage backend not initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	backend := mgr.Blob.Name()
	if err := mgr.Blob.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, types.HealthResponse{Component: "storage", Backend: backend, Status: "unhealthy", Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, types.HealthResponse{Component: "storage", Backend: backend, Status: "ok"})
}

// HealthMQ 事件队列健康检查；未启用事件时视为正常.
func HealthMQ(c *gin.Context) {
	mgr := ctxPkg.GetManager(c.Request.Context())
	if mgr == nil {
		c.JSON(http.StatusServiceUnavailable, types.HealthResponse{Component: "mq", Status: "unhealthy", Error: "storage not initialized"})
		return
	}

	if mgr.MQ == nil {
		c.JSON(http.StatusOK, types.HealthResponse{Component: "mq", Status: "disabled"})
		return
	}

	c.JSON(http.StatusOK, types.HealthResponse{Component: "mq", Status: "ok"})
}
