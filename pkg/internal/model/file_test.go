package model_test

import (
	"testing"

	"github.com/yeisme/mediavault/pkg/internal/model"
)

// TestMetadataColumns 测试元数据变体与扁平列之间的转换.
func TestMetadataColumns(t *testing.T) {
	tests := []model.Metadata{
		model.FileMeta{},
		model.TextMeta{},
		model.ImageMeta{Width: 800, Height: 600},
		model.VideoMeta{Width: 1920, Height: 1080},
		model.AudioMeta{},
	}

	for _, m := range tests {
		var f model.File
		f.SetMetadata(m)

		if f.MetadataType != m.Type() {
			t.Errorf("type = %s, want %s", f.MetadataType, m.Type())
		}

		if got := f.Metadata(); got != m {
			t.Errorf("Metadata() = %#v, want %#v", got, m)
		}

		_, _, hasDims := model.Dimensions(m)
		if hasDims != (f.Width != nil && f.Height != nil) {
			t.Errorf("%s: width/height columns mismatch", m.Type())
		}
	}
}

// TestFileFlags 测试可空布尔标记.
func TestFileFlags(t *testing.T) {
	yes, no := true, false

	f := model.File{}
	if f.IsDeleted() || f.IsReported() {
		t.Error("absent flags should read as false")
	}

	f.Deleted, f.Reported = &yes, &no
	if !f.IsDeleted() || f.IsReported() {
		t.Errorf("flags = %v/%v", f.IsDeleted(), f.IsReported())
	}
}
