package handle

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/mediavault/pkg/context"
	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

// Serve 处理 GET /:tag/*path.
//
//	/{id}                  原图或缩略图
//	/{id}/{任意后缀}        同上，后缀只用于让客户端保存时带上文件名
//	/download/{id}         强制附件下载，不缩放
func Serve(c *gin.Context) {
	ctx := c.Request.Context()
	svc := service.FromContext(ctx)
	tag := c.Param("tag")

	segments := strings.Split(strings.TrimPrefix(c.Param("path"), "/"), "/")

	var (
		file *types.ServedFile
		err  error
	)

	switch {
	case segments[0] == "":
		if _, err = svc.Tags().Resolve(tag); err != nil {
			break
		}

		err = types.NewError(types.KindNotFound, fmt.Errorf("no id in %q", c.Request.URL.Path))
	case segments[0] == "download" && len(segments) > 1:
		file, err = svc.Download(ctx, tag, segments[1])
	default:
		var q types.ResizeQuery
		_ = c.ShouldBindQuery(&q)

		file, err = svc.Serve(ctx, tag, segments[0], q)
	}

	if err != nil {
		writeError(c, err)
		return
	}

	writeFile(c, file, ctxPkg.GetConfig(ctx).Serve.CacheControl)
}

// writeFile 写回文件内容，If-None-Match 命中时返回 304.
func writeFile(c *gin.Context, f *types.ServedFile, cacheControl string) {
	etag := ETag(f.Body)

	h := c.Writer.Header()
	h.Set("ETag", etag)
	h.Set("Content-Disposition", f.Disposition)

	if cacheControl != "" {
		h.Set("Cache-Control", cacheControl)
	}

	if etagMatch(c.GetHeader("If-None-Match"), etag) {
		c.Status(http.StatusNotModified)
		return
	}

	c.Data(http.StatusOK, f.ContentType, f.Body)
}

// ETag 内容的强校验值.
func ETag(body []byte) string {
	return fmt.Sprintf(`"%016x"`, xxhash.Sum64(body))
}

func etagMatch(header, etag string) bool {
	if header == "" {
		return false
	}

	for candidate := range strings.SplitSeq(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}

	return false
}
