package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/configs"
	ctxPkg "github.com/yeisme/mediavault/pkg/context"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

// Index 返回服务版本与完整标签表.
func Index(c *gin.Context) {
	resp := types.IndexResponse{Version: configs.AppVersion}
	if table := ctxPkg.GetTags(c.Request.Context()); table != nil {
		resp.Tags = table.Snapshot()
	}

	c.JSON(http.StatusOK, resp)
}
