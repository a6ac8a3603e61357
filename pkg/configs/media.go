package configs

import "github.com/spf13/viper"

const (
	DefaultJPEGQuality = 80        // 重新编码 JPEG 的质量
	DefaultFFmpegPath  = "ffmpeg"  // ffmpeg 可执行文件
	DefaultFFprobePath = "ffprobe" // ffprobe 可执行文件
	// DefaultChunkSize 上传流每次读取的字节数.
	DefaultChunkSize = 64 * 1024
)

// MediaConfig 上传阶段的媒体归一化配置.
type MediaConfig struct {
	JPEGQuality int    `mapstructure:"jpeg_quality" rule:"min=1,max=100"`
	FFmpegPath  string `mapstructure:"ffmpeg_path"  rule:"required"`
	FFprobePath string `mapstructure:"ffprobe_path" rule:"required"`
	// TempDir 视频处理的临时目录，为空时使用系统默认目录.
	TempDir   string `mapstructure:"temp_dir"`
	ChunkSize int    `mapstructure:"chunk_size" rule:"min=512"`
}

func (c *MediaConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("media.jpeg_quality", DefaultJPEGQuality)
	v.SetDefault("media.ffmpeg_path", DefaultFFmpegPath)
	v.SetDefault("media.ffprobe_path", DefaultFFprobePath)
	v.SetDefault("media.temp_dir", "")
	v.SetDefault("media.chunk_size", DefaultChunkSize)
}
