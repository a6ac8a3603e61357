package media_test

import (
	"testing"

	"github.com/yeisme/mediavault/pkg/internal/media"
)

// TestSniff 测试按魔数分类，忽略文件扩展名.
func TestSniff(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		ctype string
		class media.Class
		text  bool
	}{
		{"png", encodePNG(t, quadrantImage(4, 4)), "image/png", media.ClassImage, false},
		{"jpeg", encodeJPEG(t, quadrantImage(4, 4)), "image/jpeg", media.ClassImage, false},
		{"mp4", mp4Header(), "video/mp4", media.ClassVideo, false},
		{"mp3", mp3Frame(), "audio/mpeg", media.ClassAudio, false},
		{"text", []byte("hello, world\nsecond line\n"), "text/plain", media.ClassOther, true},
		{"json", []byte(`{"a": [1, 2, 3]}`), "application/json", media.ClassOther, true},
		{"binary", []byte{0x00, 0x01, 0x02, 0xFE, 0xFF, 0x00, 0x10, 0x80}, "application/octet-stream", media.ClassOther, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := media.Sniff(tt.data)
			if got.ContentType != tt.ctype || got.Class != tt.class || got.Text != tt.text {
				t.Errorf("Sniff() = %+v, want %s/%s/%v", got, tt.ctype, tt.class, tt.text)
			}
		})
	}
}
