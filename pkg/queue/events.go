package queue

import "github.com/ThreeDotsLabs/watermill/message"

// Publish 将负载封装为消息后发布到 topic.
func Publish[T any](pub message.Publisher, topic string, payload T, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(topic, msg)
}

// PublishAttachmentStored 发布 mv.attachment.stored 事件.
func PublishAttachmentStored(pub message.Publisher, payload AttachmentStoredPayload, opts ...func(*EventHeader)) error {
	return Publish(pub, TopicAttachmentStored, payload, opts...)
}

// PublishAttachmentDeleted 发布 mv.attachment.deleted 事件.
func PublishAttachmentDeleted(pub message.Publisher, payload AttachmentDeletedPayload, opts ...func(*EventHeader)) error {
	return Publish(pub, TopicAttachmentDeleted, payload, opts...)
}

// PublishAttachmentReaped 发布 mv.attachment.reaped 事件.
func PublishAttachmentReaped(pub message.Publisher, payload AttachmentReapedPayload, opts ...func(*EventHeader)) error {
	return Publish(pub, TopicAttachmentReaped, payload, opts...)
}

// PublishReaperPass 发布 mv.reaper.pass 事件.
func PublishReaperPass(pub message.Publisher, payload ReaperPassPayload, opts ...func(*EventHeader)) error {
	return Publish(pub, TopicReaperPass, payload, opts...)
}

// ParseAttachmentStored 将 Watermill 消息解析为强类型 Envelope.
func ParseAttachmentStored(msg *message.Message) (Message[AttachmentStoredPayload], error) {
	return ParseWatermillMessage[AttachmentStoredPayload](msg)
}

// ParseAttachmentReaped 将 Watermill 消息解析为强类型 Envelope.
func ParseAttachmentReaped(msg *message.Message) (Message[AttachmentReapedPayload], error) {
	return ParseWatermillMessage[AttachmentReapedPayload](msg)
}
