package service

import (
	"context"

	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/queue"
)

// MarkDeleted 软删除记录，内容由回收任务稍后清理.
func (s *Service) MarkDeleted(ctx context.Context, tagName, id string) error {
	tag, err := s.tags.Resolve(tagName)
	if err != nil {
		return err
	}

	f, err := s.files.Find(ctx, id, tag.Name, nil)
	if err != nil {
		return err
	}

	if err := s.files.MarkDeleted(ctx, tag.Name, id); err != nil {
		return err
	}

	if s.pub != nil && s.cfg.Events.Enabled {
		payload := queue.AttachmentDeletedPayload{Attachment: attachmentRef(f)}
		if err := queue.PublishAttachmentDeleted(s.pub, payload, queue.WithProducer(producer)); err != nil {
			s.log.Warn().Err(err).Str("id", id).Msg("publish deleted event failed")
		}
	}

	return nil
}

// Delete 立即删除记录与内容；存储删除失败只记录日志，元数据删除才是权威的"已删除"信号.
func (s *Service) Delete(ctx context.Context, tagName, id string) error {
	tag, err := s.tags.Resolve(tagName)
	if err != nil {
		return err
	}

	if _, err := s.files.Find(ctx, id, tag.Name, nil); err != nil {
		return err
	}

	if err := s.blob.Delete(ctx, tag.Name, id); err != nil {
		s.log.Warn().Err(err).Str("tag", tag.Name).Str("id", id).Msg("delete content failed, removing record anyway")
	}

	if err := s.files.Delete(ctx, tag.Name, id); err != nil {
		return err
	}

	s.forget(ctx, &model.File{ID: id, Tag: tag.Name})

	return nil
}
