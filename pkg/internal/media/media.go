// Package media 实现上传归一化与下发缩放：内容嗅探、JPEG 方向校正、视频元数据剥离和缩略图生成.
// 所有磁盘、子进程与 CPU 密集操作都提交到 worker.Pool 执行.
package media

import (
	"context"

	"github.com/rs/zerolog"
	ffprobe "gopkg.in/vansante/go-ffprobe.v2"

	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/types"
	nlog "github.com/yeisme/mediavault/pkg/log"
	"github.com/yeisme/mediavault/pkg/worker"
)

// Processor 上传内容归一化处理器.
type Processor struct {
	cfg  configs.MediaConfig
	pool *worker.Pool
	log  zerolog.Logger
}

// Result 归一化结果.
type Result struct {
	Data        []byte
	ContentType string
	Metadata    model.Metadata
}

// NewProcessor 创建处理器.
func NewProcessor(cfg configs.MediaConfig, pool *worker.Pool) *Processor {
	if cfg.FFprobePath != "" {
		ffprobe.SetFFProbeBinPath(cfg.FFprobePath)
	}

	return &Processor{cfg: cfg, pool: pool, log: nlog.Component("media")}
}

// Normalize 嗅探内容并按类别归一化.
// 图片尺寸解析失败与视频探测失败降级为 File，不返回错误.
func (p *Processor) Normalize(ctx context.Context, data []byte) (*Result, error) {
	sniffed := Sniff(data)
	res := &Result{Data: data, ContentType: sniffed.ContentType}

	switch sniffed.Class {
	case ClassImage:
		return res, p.normalizeImage(ctx, res)
	case ClassVideo:
		return res, p.normalizeVideoResult(ctx, res)
	case ClassAudio:
		res.Metadata = model.AudioMeta{}
	case ClassOther:
		if sniffed.Text {
			res.Metadata = model.TextMeta{}
		} else {
			res.Metadata = model.FileMeta{}
		}
	}

	return res, nil
}

func (p *Processor) normalizeImage(ctx context.Context, res *Result) error {
	type decoded struct {
		data []byte
		w, h int
		ok   bool
	}

	out, err := worker.Do(ctx, p.pool, func() (decoded, error) {
		w, h, err := imageSize(res.Data)
		if err != nil {
			return decoded{}, nil
		}

		if res.ContentType != "image/jpeg" {
			return decoded{data: res.Data, w: w, h: h, ok: true}, nil
		}

		data, w, h, err := NormalizeJPEG(res.Data, p.cfg.JPEGQuality)
		if err != nil {
			return decoded{}, types.NewError(types.KindIOError, err)
		}

		return decoded{data: data, w: w, h: h, ok: true}, nil
	})
	if err != nil {
		return err
	}

	if !out.ok {
		p.log.Debug().Str("content_type", res.ContentType).Msg("image dimensions unreadable, storing as file")

		res.Metadata = model.FileMeta{}

		return nil
	}

	res.Data = out.data
	res.Metadata = model.ImageMeta{Width: out.w, Height: out.h}

	return nil
}

func (p *Processor) normalizeVideoResult(ctx context.Context, res *Result) error {
	type remuxed struct {
		data []byte
		w, h int
		ok   bool
	}

	out, err := worker.Do(ctx, p.pool, func() (remuxed, error) {
		data, w, h, ok, err := p.normalizeVideo(ctx, res.Data, res.ContentType)

		return remuxed{data: data, w: w, h: h, ok: ok}, err
	})
	if err != nil {
		return err
	}

	if !out.ok {
		res.Metadata = model.FileMeta{}

		return nil
	}

	res.Data = out.data
	res.Metadata = model.VideoMeta{Width: out.w, Height: out.h}

	return nil
}

// Resize 按参数生成缩略图；非图片、未设置参数或缩放失败时返回原始字节与空类型.
func (p *Processor) Resize(ctx context.Context, data []byte, meta model.Metadata, params ResizeParams, enc Encoder) ([]byte, string) {
	img, isImage := meta.(model.ImageMeta)
	if !isImage {
		return data, ""
	}

	tw, th, ok := Target(img.Width, img.Height, params)
	if !ok {
		return data, ""
	}

	out, err := worker.Do(ctx, p.pool, func() ([]byte, error) {
		return enc.Thumbnail(data, tw, th)
	})
	if err != nil {
		p.log.Warn().Err(err).Int("width", tw).Int("height", th).Msg("resize failed, serving original")

		return data, ""
	}

	return out, enc.ContentType()
}
