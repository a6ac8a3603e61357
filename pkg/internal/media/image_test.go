package media_test

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"testing"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/internal/media"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/worker"
)

func newProcessor() *media.Processor {
	return media.NewProcessor(configs.MediaConfig{
		JPEGQuality: 90,
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
	}, worker.New(2))
}

// TestNormalizeJPEGOrientation 测试 8 种 EXIF 方向的像素变换.
// 原图 64x32，左上四分之一为红色，记录变换后红色所在的象限.
func TestNormalizeJPEGOrientation(t *testing.T) {
	const (
		tl = iota
		tr
		bl
		br
	)

	tests := []struct {
		orientation uint16
		swapped     bool
		redAt       int
	}{
		{1, false, tl},
		{2, false, tr},
		{3, false, br},
		{4, false, bl},
		{5, true, tl},
		{6, true, tr},
		{7, true, br},
		{8, true, bl},
	}

	src := encodeJPEG(t, quadrantImage(64, 32))

	for _, tt := range tests {
		data := withOrientation(t, src, tt.orientation)
		if got := media.Orientation(data); got != int(tt.orientation) {
			t.Fatalf("Orientation() = %d, want %d", got, tt.orientation)
		}

		out, w, h, err := media.NormalizeJPEG(data, 95)
		if err != nil {
			t.Fatalf("orientation %d: %v", tt.orientation, err)
		}

		wantW, wantH := 64, 32
		if tt.swapped {
			wantW, wantH = 32, 64
		}

		if w != wantW || h != wantH {
			t.Errorf("orientation %d: size = %dx%d, want %dx%d", tt.orientation, w, h, wantW, wantH)
		}

		img, err := jpeg.Decode(bytes.NewReader(out))
		if err != nil {
			t.Fatal(err)
		}

		points := [4]image.Point{
			tl: {wantW / 4, wantH / 4},
			tr: {wantW * 3 / 4, wantH / 4},
			bl: {wantW / 4, wantH * 3 / 4},
			br: {wantW * 3 / 4, wantH * 3 / 4},
		}

		for q, p := range points {
			c := img.At(p.X, p.Y)
			if q == tt.redAt && !isRed(c) {
				t.Errorf("orientation %d: quadrant %d should be red, got %v", tt.orientation, q, c)
			}

			if q != tt.redAt && !isBlue(c) {
				t.Errorf("orientation %d: quadrant %d should be blue, got %v", tt.orientation, q, c)
			}
		}

		if _, err := exif.Decode(bytes.NewReader(out)); err == nil {
			t.Errorf("orientation %d: output still carries EXIF", tt.orientation)
		}

		// 再次归一化应为恒等变换
		if media.Orientation(out) != 1 {
			t.Errorf("orientation %d: normalized output is not upright", tt.orientation)
		}
	}
}

// TestNormalizeImage 测试图片分类与尺寸.
func TestNormalizeImage(t *testing.T) {
	p := newProcessor()
	ctx := context.Background()

	pngData := encodePNG(t, quadrantImage(40, 30))

	res, err := p.Normalize(ctx, pngData)
	if err != nil {
		t.Fatal(err)
	}

	if res.Metadata != (model.ImageMeta{Width: 40, Height: 30}) || res.ContentType != "image/png" {
		t.Errorf("png result = %+v", res.Metadata)
	}

	if !bytes.Equal(res.Data, pngData) {
		t.Error("png bytes should be stored unmodified")
	}

	jpg := withOrientation(t, encodeJPEG(t, quadrantImage(40, 30)), 6)

	res, err = p.Normalize(ctx, jpg)
	if err != nil {
		t.Fatal(err)
	}

	if res.Metadata != (model.ImageMeta{Width: 30, Height: 40}) || res.ContentType != "image/jpeg" {
		t.Errorf("jpeg result = %+v %s", res.Metadata, res.ContentType)
	}
}

// TestNormalizeBrokenImage 测试尺寸解析失败时降级为 File.
func TestNormalizeBrokenImage(t *testing.T) {
	p := newProcessor()

	data := encodePNG(t, quadrantImage(8, 8))[:24]

	res, err := p.Normalize(context.Background(), data)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if res.Metadata != (model.FileMeta{}) {
		t.Errorf("metadata = %#v, want File", res.Metadata)
	}
}

// TestNormalizeAudioAndText 测试音频与文本原样保存.
func TestNormalizeAudioAndText(t *testing.T) {
	p := newProcessor()
	ctx := context.Background()

	mp3 := mp3Frame()

	res, err := p.Normalize(ctx, mp3)
	if err != nil {
		t.Fatal(err)
	}

	if res.Metadata != (model.AudioMeta{}) || !bytes.Equal(res.Data, mp3) || res.ContentType != "audio/mpeg" {
		t.Errorf("audio result = %+v %s", res.Metadata, res.ContentType)
	}

	res, err = p.Normalize(ctx, []byte("just some notes\n"))
	if err != nil {
		t.Fatal(err)
	}

	if res.Metadata != (model.TextMeta{}) {
		t.Errorf("text metadata = %#v", res.Metadata)
	}
}
