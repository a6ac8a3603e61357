package tags_test

import (
	"errors"
	"sort"
	"testing"

	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/tags"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

func newTable() *tags.Table {
	off := false

	return tags.New(map[string]configs.TagConfig{
		"attachments": {MaxSize: 1024, ServeIfFieldPresent: []string{"message_id"}},
		"avatars":     {MaxSize: 512, RestrictContentType: configs.KindImage},
		"emojis":      {MaxSize: 512, UseULID: true},
		"legacy":      {MaxSize: 1, Enabled: &off},
	})
}

// TestResolve 测试标签解析与禁用标签.
func TestResolve(t *testing.T) {
	table := newTable()

	tag, err := table.Resolve("attachments")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if tag.Name != "attachments" || tag.MaxSize != 1024 {
		t.Errorf("tag = %+v", tag)
	}

	for _, name := range []string{"legacy", "missing", ""} {
		if _, err := table.Resolve(name); !errors.Is(err, types.ErrUnknownTag) {
			t.Errorf("Resolve(%q) error = %v, want UnknownTag", name, err)
		}
	}
}

// TestAllows 测试内容类型限制.
func TestAllows(t *testing.T) {
	tests := []struct {
		restrict configs.ContentKind
		meta     model.Metadata
		want     bool
	}{
		{"", model.FileMeta{}, true},
		{configs.KindImage, model.ImageMeta{Width: 1, Height: 1}, true},
		{configs.KindImage, model.FileMeta{}, false},
		{configs.KindVideo, model.ImageMeta{Width: 1, Height: 1}, false},
		{configs.KindVideo, model.VideoMeta{Width: 1, Height: 1}, true},
		{configs.KindAudio, model.AudioMeta{}, true},
		{configs.KindAudio, model.TextMeta{}, false},
	}

	for _, tt := range tests {
		tag := tags.Tag{TagConfig: configs.TagConfig{RestrictContentType: tt.restrict}}
		if got := tag.Allows(tt.meta); got != tt.want {
			t.Errorf("Allows(%s, %s) = %v, want %v", tt.restrict, tt.meta.Type(), got, tt.want)
		}
	}
}

// TestNewID 测试两种 ID 方案.
func TestNewID(t *testing.T) {
	table := newTable()

	att, _ := table.Resolve("attachments")

	id, err := att.NewID()
	if err != nil || len(id) != tags.RandomIDLength {
		t.Fatalf("random id = %q, %v", id, err)
	}

	emojis, _ := table.Resolve("emojis")

	ids := make([]string, 0, 100)
	for range 100 {
		id, err := emojis.NewID()
		if err != nil || len(id) != 26 {
			t.Fatalf("ulid = %q, %v", id, err)
		}

		ids = append(ids, id)
	}

	if !sort.StringsAreSorted(ids) {
		t.Error("ulids should be monotonically sortable")
	}
}

// TestSnapshotKeepsDisabled 测试索引快照包含禁用标签.
func TestSnapshotKeepsDisabled(t *testing.T) {
	snap := newTable().Snapshot()
	if len(snap) != 4 {
		t.Fatalf("snapshot = %v", snap)
	}

	if snap["legacy"].IsEnabled() {
		t.Error("legacy should stay disabled in snapshot")
	}
}

// TestSnapshotExpandsDefaults 测试快照展开默认值.
func TestSnapshotExpandsDefaults(t *testing.T) {
	snap := newTable().Snapshot()

	att := snap["attachments"]
	if att.Enabled == nil || !*att.Enabled || att.IDScheme != configs.IDRandom || att.UseULID {
		t.Errorf("attachments = %+v", att)
	}

	if emojis := snap["emojis"]; emojis.IDScheme != configs.IDULID || !emojis.UseULID {
		t.Errorf("emojis = %+v", emojis)
	}
}
