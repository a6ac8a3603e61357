package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/types"
	"github.com/yeisme/mediavault/pkg/metrics"
	"github.com/yeisme/mediavault/pkg/queue"
	"github.com/yeisme/mediavault/pkg/tracing"
)

// Upload 读取上传内容，归一化后按标签策略写入元数据与存储，返回新对象 ID.
// 记录先于字节写入；字节写入失败时记录被标记为已删除，由回收任务清理.
func (s *Service) Upload(ctx context.Context, tagName, filename string, body io.Reader) (id string, err error) {
	ctx, span := tracing.StartSpan(ctx, "service.upload")
	defer func() { tracing.End(span, err) }()

	tag, err := s.tags.Resolve(tagName)
	if err != nil {
		return "", err
	}

	defer func() {
		if err != nil {
			metrics.UploadRejected.WithLabelValues(tag.Name, string(types.AsError(err).Kind)).Inc()
		}
	}()

	data, err := ReadBounded(ctx, body, tag.MaxSize, s.cfg.Media.ChunkSize)
	if err != nil {
		return "", err
	}

	res, err := s.media.Normalize(ctx, data)
	if err != nil {
		return "", err
	}

	if !tag.Allows(res.Metadata) {
		return "", types.NewError(types.KindFileTypeNotAllowed,
			fmt.Errorf("%s is %s, tag %s requires %s", res.ContentType, res.Metadata.Type(), tag.Name, tag.RestrictContentType))
	}

	if id, err = tag.NewID(); err != nil {
		return "", types.NewError(types.KindIOError, fmt.Errorf("generate id: %w", err))
	}

	file := &model.File{
		ID:          id,
		Tag:         tag.Name,
		Filename:    filename,
		ContentType: res.ContentType,
		Size:        int64(len(res.Data)),
	}
	file.SetMetadata(res.Metadata)

	span.SetAttributes(
		attribute.String("tag", tag.Name),
		attribute.String("id", id),
		attribute.String("content_type", res.ContentType),
		attribute.Int64("size", file.Size),
	)

	if err := s.files.Insert(ctx, file); err != nil {
		return "", err
	}

	if err := s.blob.Put(ctx, tag.Name, id, res.Data); err != nil {
		s.orphan(tag.Name, id, err)
		return "", err
	}

	metrics.Uploads.WithLabelValues(tag.Name, string(file.MetadataType)).Inc()
	metrics.UploadBytes.WithLabelValues(tag.Name).Add(float64(file.Size))

	s.log.Info().
		Str("tag", tag.Name).
		Str("id", id).
		Str("content_type", file.ContentType).
		Str("metadata", string(file.MetadataType)).
		Int64("size", file.Size).
		Msg("file stored")

	s.publishStored(file)

	return id, nil
}

const orphanTimeout = 5 * time.Second

// orphan 字节写入失败后尽力把记录标记为已删除.
func (s *Service) orphan(tag, id string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), orphanTimeout)
	defer cancel()

	ev := s.log.Error().Err(cause).Str("tag", tag).Str("id", id)
	if err := s.files.MarkDeleted(ctx, tag, id); err != nil {
		ev.AnErr("mark_deleted", err).Msg("storage write failed, record left orphaned")
		return
	}

	ev.Msg("storage write failed, record marked deleted")
}

// ReadBounded 按块读取 r，累计长度超过 maxSize 时立即返回 FileTooLarge.
// 读取错误与上下文取消返回 FailedToReceive，此时没有任何内容被提交.
func ReadBounded(ctx context.Context, r io.Reader, maxSize int64, chunkSize int) ([]byte, error) {
	if chunkSize <= 0 {
		chunkSize = 64 * 1024
	}

	var (
		buf   []byte
		total int64
		chunk = make([]byte, chunkSize)
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, types.NewError(types.KindFailedToReceive, err)
		}

		n, err := r.Read(chunk)
		if n > 0 {
			total += int64(n)
			if total > maxSize {
				return nil, types.FileTooLarge(maxSize)
			}

			buf = append(buf, chunk[:n]...)
		}

		if errors.Is(err, io.EOF) {
			return buf, nil
		}

		if err != nil {
			return nil, types.NewError(types.KindFailedToReceive, err)
		}
	}
}

func (s *Service) publishStored(f *model.File) {
	if s.pub == nil || !s.cfg.Events.Enabled || !s.cfg.Events.Attachment.Stored {
		return
	}

	payload := queue.AttachmentStoredPayload{
		Attachment: attachmentRef(f),
		Metadata:   string(f.MetadataType),
	}
	if w, h, ok := model.Dimensions(f.Metadata()); ok {
		payload.Width, payload.Height = w, h
	}

	if err := queue.PublishAttachmentStored(s.pub, payload, queue.WithProducer(producer)); err != nil {
		s.log.Warn().Err(err).Str("id", f.ID).Msg("publish stored event failed")
	}
}

const producer = "mediavault"

func attachmentRef(f *model.File) queue.AttachmentRef {
	return queue.AttachmentRef{
		ID:          f.ID,
		Tag:         f.Tag,
		Filename:    f.Filename,
		ContentType: f.ContentType,
		Size:        f.Size,
	}
}
