package types

import "github.com/yeisme/mediavault/pkg/configs"

// UploadResponse 上传成功响应.
type UploadResponse struct {
	ID string `json:"id"`
}

// IndexResponse 服务标识与标签表，供客户端发现上传策略.
type IndexResponse struct {
	Version string                       `json:"mediavault"`
	Tags    map[string]configs.TagConfig `json:"tags"`
}

// ResizeQuery 缩略图查询参数；非正数或无法解析的值视为未设置.
type ResizeQuery struct {
	Size    string `form:"size"`
	MaxSide string `form:"max_side"`
	Width   string `form:"width"`
	Height  string `form:"height"`
}

// ServedFile 下发给客户端的文件.
type ServedFile struct {
	Body        []byte
	ContentType string
	Disposition string
}

// HealthResponse 依赖健康检查结果.
type HealthResponse struct {
	Status    string `json:"status"`
	Component string `json:"component"`
	Backend   string `json:"backend,omitempty"`
	Error     string `json:"error,omitempty"`
}
