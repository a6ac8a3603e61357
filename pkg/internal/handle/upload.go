package handle

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

// Upload 处理 POST /:tag，只读取 multipart 的第一个字段.
// 字段以流的方式交给 service，不会先落盘或整体缓冲.
func Upload(c *gin.Context) {
	ctx := c.Request.Context()
	svc := service.FromContext(ctx)
	tag := c.Param("tag")

	if _, err := svc.Tags().Resolve(tag); err != nil {
		writeError(c, err)
		return
	}

	reader, err := c.Request.MultipartReader()
	if err != nil {
		writeError(c, types.NewError(types.KindFailedToReceive, err))
		return
	}

	part, err := reader.NextPart()
	if errors.Is(err, io.EOF) {
		writeError(c, types.NewError(types.KindMissingData, errors.New("no multipart field")))
		return
	}

	if err != nil {
		writeError(c, types.NewError(types.KindFailedToReceive, err))
		return
	}
	defer part.Close()

	filename := part.FileName()
	if filename == "" {
		writeError(c, types.NewError(types.KindFailedToReceive, errors.New("multipart field has no filename")))
		return
	}

	id, err := svc.Upload(ctx, tag, filename, part)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.UploadResponse{ID: id})
}
