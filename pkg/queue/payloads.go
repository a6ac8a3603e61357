package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// AttachmentRef 标识一个已存储的文件.
type AttachmentRef struct {
	ID          string `json:"id"`
	Tag         string `json:"tag"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// AttachmentStoredPayload 上传完成.
type AttachmentStoredPayload struct {
	Attachment AttachmentRef `json:"attachment"`
	// Metadata 元数据类型：File、Text、Image、Video、Audio.
	Metadata string `json:"metadata"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// AttachmentDeletedPayload 文件被标记删除.
type AttachmentDeletedPayload struct {
	Attachment AttachmentRef `json:"attachment"`
}

// AttachmentReapedPayload 文件已被回收.
type AttachmentReapedPayload struct {
	Attachment AttachmentRef `json:"attachment"`
	// BlobFailed 删除存储内容失败（通常是内容已不存在），元数据仍已删除.
	BlobFailed bool `json:"blob_failed,omitempty"`
}

// ReaperPassPayload 一轮回收的统计.
type ReaperPassPayload struct {
	Scanned  int           `json:"scanned"`
	Reaped   int           `json:"reaped"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}
