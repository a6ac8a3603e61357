package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	ffprobe "gopkg.in/vansante/go-ffprobe.v2"

	"github.com/yeisme/mediavault/pkg/internal/types"
)

// containerFormats ffmpeg -f 参数.
var containerFormats = map[string]string{
	"video/mp4":       "mp4",
	"video/webm":      "webm",
	"video/quicktime": "mov",
}

// errNoStream 探测不到同时带宽高的流.
var errNoStream = errors.New("no stream with width and height")

// probeSize 返回第一个同时带宽与高的流的尺寸.
func (p *Processor) probeSize(ctx context.Context, path string) (int, int, error) {
	data, err := ffprobe.ProbeURL(ctx, path)
	if err != nil {
		return 0, 0, types.NewError(types.KindProbeError, err)
	}

	for _, s := range data.Streams {
		if s.Width > 0 && s.Height > 0 {
			return s.Width, s.Height, nil
		}
	}

	return 0, 0, types.NewError(types.KindProbeError, errNoStream)
}

// remux 去除容器元数据，音视频流直接拷贝不重新编码.
func (p *Processor) remux(ctx context.Context, in, out, format string) error {
	cmd := exec.CommandContext(ctx, p.cfg.FFmpegPath,
		"-y",
		"-i", in,
		"-map_metadata", "-1",
		"-c:v", "copy", "-c:a", "copy",
		"-f", format,
		out,
	)

	if output, err := cmd.CombinedOutput(); err != nil {
		p.log.Warn().Err(err).Bytes("ffmpeg", tail(output, 2048)).Msg("ffmpeg remux failed")

		return types.NewError(types.KindIOError, fmt.Errorf("ffmpeg: %w", err))
	}

	return nil
}

// normalizeVideo 写入临时文件探测尺寸并重新封装.
// 探测失败返回 ok=false，调用方按普通文件处理.
func (p *Processor) normalizeVideo(ctx context.Context, data []byte, contentType string) (out []byte, width, height int, ok bool, err error) {
	dir, err := os.MkdirTemp(p.cfg.TempDir, "mediavault-*")
	if err != nil {
		return nil, 0, 0, false, types.NewError(types.KindIOError, err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, 0, 0, false, types.NewError(types.KindIOError, err)
	}

	width, height, err = p.probeSize(ctx, in)
	if err != nil {
		p.log.Debug().Err(err).Str("content_type", contentType).Msg("video probe failed, storing as file")

		return nil, 0, 0, false, nil
	}

	target := filepath.Join(dir, "out")
	if err := p.remux(ctx, in, target, containerFormats[contentType]); err != nil {
		return nil, 0, 0, false, err
	}

	out, err = os.ReadFile(target)
	if err != nil {
		return nil, 0, 0, false, types.NewError(types.KindIOError, err)
	}

	return out, width, height, true, nil
}

func tail(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}

	return b[len(b)-n:]
}
