// Package queue 定义消息主题常量，供发布/订阅使用.
package queue

// 主题命名规范：mv.<域>.<动作>，保持稳定且向后兼容.
const (
	// TopicAttachmentStored 文件写入存储且元数据已入库.
	TopicAttachmentStored = "mv.attachment.stored"
	// TopicAttachmentDeleted 文件被标记删除，等待回收.
	TopicAttachmentDeleted = "mv.attachment.deleted"
	// TopicAttachmentReaped 回收任务已删除文件内容与元数据.
	TopicAttachmentReaped = "mv.attachment.reaped"
	// TopicReaperPass 一轮回收结束的汇总.
	TopicReaperPass = "mv.reaper.pass"
)

// AttachmentTopics 附件相关主题集合.
var AttachmentTopics = []string{
	TopicAttachmentStored, TopicAttachmentDeleted, TopicAttachmentReaped, TopicReaperPass,
}
