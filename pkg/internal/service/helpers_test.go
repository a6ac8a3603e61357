package service_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sort"
	"sync"
	"testing"

	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/internal/media"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/storage/blob"
	"github.com/yeisme/mediavault/pkg/internal/tags"
	"github.com/yeisme/mediavault/pkg/internal/types"
	"github.com/yeisme/mediavault/pkg/worker"
)

// fakeFiles 内存元数据存储，记录调用次数.
type fakeFiles struct {
	mu        sync.Mutex
	records   map[string]*model.File
	calls     int
	deleteErr map[string]error
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{records: map[string]*model.File{}, deleteErr: map[string]error{}}
}

func key(tag, id string) string { return tag + "/" + id }

func (f *fakeFiles) Insert(_ context.Context, file *model.File) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	cp := *file
	f.records[key(file.Tag, file.ID)] = &cp

	return nil
}

func (f *fakeFiles) Find(_ context.Context, id, tag string, anyOf []string) (*model.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	r, ok := f.records[key(tag, id)]
	if !ok || (len(anyOf) > 0 && !linked(r, anyOf)) {
		return nil, types.NewError(types.KindNotFound, fmt.Errorf("%s/%s", tag, id))
	}

	cp := *r

	return &cp, nil
}

func linked(r *model.File, fields []string) bool {
	values := map[string]*string{
		"message_id": r.MessageID, "user_id": r.UserID, "server_id": r.ServerID, "object_id": r.ObjectID,
	}
	for _, name := range fields {
		if values[name] != nil {
			return true
		}
	}

	return false
}

func (f *fakeFiles) MarkDeleted(_ context.Context, tag, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	r, ok := f.records[key(tag, id)]
	if !ok {
		return types.NewError(types.KindNotFound, nil)
	}

	deleted := true
	r.Deleted = &deleted

	return nil
}

func (f *fakeFiles) Delete(_ context.Context, tag, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	if err := f.deleteErr[id]; err != nil {
		return err
	}

	if _, ok := f.records[key(tag, id)]; !ok {
		return types.NewError(types.KindNotFound, nil)
	}

	delete(f.records, key(tag, id))

	return nil
}

func (f *fakeFiles) Reapable(_ context.Context, after string, limit int) ([]model.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	var out []model.File

	for _, r := range f.records {
		if r.IsDeleted() && !r.IsReported() && r.ID > after {
			out = append(out, *r)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (f *fakeFiles) get(tag, id string) *model.File {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.records[key(tag, id)]
}

// fakeBlob 内存字节存储，记录调用次数.
type fakeBlob struct {
	mu        sync.Mutex
	objects   map[string][]byte
	gets      int
	calls     int
	putErr    error
	deleteErr error
}

var _ blob.Backend = (*fakeBlob)(nil)

func newFakeBlob() *fakeBlob {
	return &fakeBlob{objects: map[string][]byte{}}
}

func (b *fakeBlob) Put(_ context.Context, tag, id string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls++
	if b.putErr != nil {
		return b.putErr
	}

	b.objects[key(tag, id)] = append([]byte(nil), data...)

	return nil
}

func (b *fakeBlob) Get(_ context.Context, tag, id string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls++
	b.gets++

	data, ok := b.objects[key(tag, id)]
	if !ok {
		return nil, types.NewError(types.KindIOError, fmt.Errorf("missing %s", id))
	}

	return data, nil
}

func (b *fakeBlob) Delete(_ context.Context, tag, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls++
	if b.deleteErr != nil {
		return b.deleteErr
	}

	if _, ok := b.objects[key(tag, id)]; !ok {
		return types.NewError(types.KindIOError, fmt.Errorf("missing %s", id))
	}

	delete(b.objects, key(tag, id))

	return nil
}

func (b *fakeBlob) HealthCheck(context.Context) error { return nil }

func (b *fakeBlob) Name() string { return "fake" }

func (b *fakeBlob) has(tag, id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.objects[key(tag, id)]

	return ok
}

func testConfig() *configs.AppConfig {
	disabled := false

	return &configs.AppConfig{
		Media: configs.MediaConfig{JPEGQuality: 80, FFmpegPath: "ffmpeg", FFprobePath: "ffprobe", ChunkSize: 1024},
		Serve: configs.ServeConfig{Format: configs.ServePNG},
		Tags: map[string]configs.TagConfig{
			"attachments": {MaxSize: 1 << 20, ServeIfFieldPresent: []string{"message_id"}},
			"avatars":     {MaxSize: 1 << 20, RestrictContentType: configs.KindImage},
			"music":       {MaxSize: 1 << 20, RestrictContentType: configs.KindAudio},
			"clips":       {MaxSize: 1 << 20, RestrictContentType: configs.KindVideo},
			"open":        {MaxSize: 4096},
			"emojis":      {MaxSize: 1 << 20, UseULID: true},
			"retired":     {MaxSize: 1 << 20, Enabled: &disabled},
		},
		Reaper: configs.ReaperConfig{BatchSize: 2},
	}
}

type fixture struct {
	svc   *service.Service
	files *fakeFiles
	blob  *fakeBlob
	cfg   *configs.AppConfig
}

func newFixture(t *testing.T, mutate ...func(*service.Deps)) *fixture {
	t.Helper()

	cfg := testConfig()
	fx := &fixture{files: newFakeFiles(), blob: newFakeBlob(), cfg: cfg}

	deps := service.Deps{
		Config:    cfg,
		Tags:      tags.New(cfg.Tags),
		Files:     fx.files,
		Blob:      fx.blob,
		Processor: media.NewProcessor(cfg.Media, worker.New(4)),
	}
	for _, m := range mutate {
		m(&deps)
	}

	fx.svc = service.New(deps)

	return fx
}

func gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, gradient(w, h)); err != nil {
		t.Fatal(err)
	}

	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gradient(w, h), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}

	return buf.Bytes()
}

// mp3Bytes 带 ID3 头的 mp3 字节.
func mp3Bytes() []byte {
	b := []byte("ID3\x03\x00\x00\x00\x00\x00\x0a")
	b = append(b, make([]byte, 10)...)
	b = append(b, 0xFF, 0xFB, 0x90, 0x64)

	return append(b, bytes.Repeat([]byte{0x55}, 400)...)
}

func ptr[T any](v T) *T { return &v }
