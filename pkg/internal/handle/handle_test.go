package handle_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"

	"github.com/yeisme/mediavault/pkg/configs"
	ctxPkg "github.com/yeisme/mediavault/pkg/context"
	"github.com/yeisme/mediavault/pkg/internal/handle"
	"github.com/yeisme/mediavault/pkg/internal/media"
	"github.com/yeisme/mediavault/pkg/internal/router"
	"github.com/yeisme/mediavault/pkg/internal/storage"
	"github.com/yeisme/mediavault/pkg/internal/storage/blob"
	"github.com/yeisme/mediavault/pkg/internal/storage/db"
	"github.com/yeisme/mediavault/pkg/internal/tags"
	"github.com/yeisme/mediavault/pkg/middleware"
	"github.com/yeisme/mediavault/pkg/worker"
)

type server struct {
	engine *gin.Engine
	mgr    *storage.Manager
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &configs.AppConfig{
		Media: configs.MediaConfig{JPEGQuality: 80, FFmpegPath: "ffmpeg", FFprobePath: "ffprobe", ChunkSize: 512},
		Serve: configs.ServeConfig{Format: configs.ServePNG, CacheControl: configs.DefaultCacheControl},
		Tags: map[string]configs.TagConfig{
			"attachments": {MaxSize: 1 << 20, ServeIfFieldPresent: []string{"message_id"}},
			"avatars":     {MaxSize: 1 << 20, RestrictContentType: configs.KindImage},
			"small":       {MaxSize: 16},
		},
	}

	client, err := db.Open(context.Background(), sqlite.Open(":memory:"), &configs.DBConfig{MaxOpenConns: 1, MaxIdleConns: 1, AutoMigrate: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	pool := worker.New(2)

	local, err := blob.NewLocal(t.TempDir(), pool)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}

	mgr := &storage.Manager{DB: client, Files: db.NewFiles(client), Blob: local}
	t.Cleanup(func() { _ = mgr.Close() })

	engine := gin.New()
	engine.Use(middleware.DepsMiddleware(ctxPkg.Deps{
		Config:    cfg,
		Storage:   mgr,
		Tags:      tags.New(cfg.Tags),
		Processor: media.NewProcessor(cfg.Media, pool),
	}))
	router.Register(engine, cfg)

	return &server{engine: engine, mgr: mgr}
}

func (s *server) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	return w
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)

	var (
		part io.Writer
		err  error
	)

	if filename == "" {
		part, err = mw.CreateFormField(field)
	} else {
		part, err = mw.CreateFormFile(field, filename)
	}

	if err != nil {
		t.Fatal(err)
	}

	_, _ = part.Write(data)
	_ = mw.Close()

	return &buf, mw.FormDataContentType()
}

func (s *server) upload(t *testing.T, tag, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, "file", filename, data)
	req := httptest.NewRequest(http.MethodPost, "/"+tag, body)
	req.Header.Set("Content-Type", contentType)

	return s.do(req)
}

func errorType(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}

	return body.Type
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x), B: uint8(y), A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	return buf.Bytes()
}

// TestUploadAndServe 测试上传后按 ID 下发与缩放.
func TestUploadAndServe(t *testing.T) {
	s := newServer(t)
	data := pngBytes(t, 64, 32)

	w := s.upload(t, "avatars", "me.png", data)
	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body = %s", w.Code, w.Body)
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.ID == "" {
		t.Fatalf("upload body = %s", w.Body)
	}

	w = s.do(httptest.NewRequest(http.MethodGet, "/avatars/"+resp.ID, nil))
	if w.Code != http.StatusOK || !bytes.Equal(w.Body.Bytes(), data) {
		t.Fatalf("serve status = %d, %d bytes", w.Code, w.Body.Len())
	}

	if got := w.Header().Get("Content-Disposition"); got != "inline" {
		t.Errorf("Content-Disposition = %q", got)
	}

	if got := w.Header().Get("Cache-Control"); got != configs.DefaultCacheControl {
		t.Errorf("Cache-Control = %q", got)
	}

	if got := w.Header().Get("ETag"); got != handle.ETag(data) {
		t.Errorf("ETag = %q, want %q", got, handle.ETag(data))
	}

	w = s.do(httptest.NewRequest(http.MethodGet, "/avatars/"+resp.ID+"/me.png?width=16", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("resize status = %d", w.Code)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(w.Body.Bytes()))
	if err != nil || cfg.Width != 16 || cfg.Height != 8 {
		t.Errorf("resized = %+v, %v", cfg, err)
	}
}

// TestConditionalGet 测试 If-None-Match 命中返回 304.
func TestConditionalGet(t *testing.T) {
	s := newServer(t)
	data := pngBytes(t, 8, 8)

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(s.upload(t, "avatars", "a.png", data).Body.Bytes(), &resp)

	req := httptest.NewRequest(http.MethodGet, "/avatars/"+resp.ID, nil)
	req.Header.Set("If-None-Match", `"abc", `+handle.ETag(data))

	if w := s.do(req); w.Code != http.StatusNotModified || w.Body.Len() != 0 {
		t.Errorf("status = %d, body %d bytes", w.Code, w.Body.Len())
	}
}

// TestDownload 测试下载强制附件且使用原始文件名.
func TestDownload(t *testing.T) {
	s := newServer(t)

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(s.upload(t, "avatars", "holiday.png", pngBytes(t, 20, 20)).Body.Bytes(), &resp)

	w := s.do(httptest.NewRequest(http.MethodGet, "/avatars/download/"+resp.ID+"?size=4", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="holiday.png"` {
		t.Errorf("Content-Disposition = %q", got)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(w.Body.Bytes()))
	if err != nil || cfg.Width != 20 {
		t.Errorf("download was resized: %+v, %v", cfg, err)
	}
}

// TestUploadErrors 测试上传错误的状态码与响应体.
func TestUploadErrors(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name   string
		req    func() *http.Request
		status int
		kind   string
	}{
		{
			name: "unknown tag",
			req: func() *http.Request {
				body, ct := multipartBody(t, "file", "a.png", []byte("x"))
				r := httptest.NewRequest(http.MethodPost, "/nope", body)
				r.Header.Set("Content-Type", ct)

				return r
			},
			status: http.StatusBadRequest, kind: "UnknownTag",
		},
		{
			name: "not multipart",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/small", bytes.NewBufferString("raw"))
				r.Header.Set("Content-Type", "application/octet-stream")

				return r
			},
			status: http.StatusBadRequest, kind: "FailedToReceive",
		},
		{
			name: "no field",
			req: func() *http.Request {
				var buf bytes.Buffer
				mw := multipart.NewWriter(&buf)
				_ = mw.Close()
				r := httptest.NewRequest(http.MethodPost, "/small", &buf)
				r.Header.Set("Content-Type", mw.FormDataContentType())

				return r
			},
			status: http.StatusBadRequest, kind: "MissingData",
		},
		{
			name: "no filename",
			req: func() *http.Request {
				body, ct := multipartBody(t, "file", "", []byte("x"))
				r := httptest.NewRequest(http.MethodPost, "/small", body)
				r.Header.Set("Content-Type", ct)

				return r
			},
			status: http.StatusBadRequest, kind: "FailedToReceive",
		},
		{
			name: "too large",
			req: func() *http.Request {
				body, ct := multipartBody(t, "file", "a.bin", make([]byte, 17))
				r := httptest.NewRequest(http.MethodPost, "/small", body)
				r.Header.Set("Content-Type", ct)

				return r
			},
			status: http.StatusRequestEntityTooLarge, kind: "FileTooLarge",
		},
		{
			name: "wrong type",
			req: func() *http.Request {
				body, ct := multipartBody(t, "file", "a.txt", []byte("just some text"))
				r := httptest.NewRequest(http.MethodPost, "/avatars", body)
				r.Header.Set("Content-Type", ct)

				return r
			},
			status: http.StatusBadRequest, kind: "FileTypeNotAllowed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(tt.req())
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d, body = %s", w.Code, tt.status, w.Body)
			}

			if got := errorType(t, w); got != tt.kind {
				t.Errorf("type = %q, want %q", got, tt.kind)
			}
		})
	}
}

// TestFileTooLargeBody 测试 FileTooLarge 响应携带上限.
func TestFileTooLargeBody(t *testing.T) {
	s := newServer(t)

	w := s.upload(t, "small", "a.bin", make([]byte, 64))

	var body struct {
		Type    string `json:"type"`
		MaxSize int64  `json:"max_size"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.MaxSize != 16 {
		t.Errorf("body = %s", w.Body)
	}
}

// TestServeErrors 测试下发路径的错误.
func TestServeErrors(t *testing.T) {
	s := newServer(t)

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(s.upload(t, "attachments", "a.png", pngBytes(t, 4, 4)).Body.Bytes(), &resp)

	tests := []struct {
		path   string
		status int
		kind   string
	}{
		{"/nope/abc", http.StatusBadRequest, "UnknownTag"},
		{"/nope/", http.StatusBadRequest, "UnknownTag"},
		{"/small/", http.StatusNotFound, "NotFound"},
		{"/small/missing", http.StatusNotFound, "NotFound"},
		{"/attachments/" + resp.ID, http.StatusNotFound, "NotFound"},
		{"/attachments/download/" + resp.ID, http.StatusNotFound, "NotFound"},
	}

	for _, tt := range tests {
		w := s.do(httptest.NewRequest(http.MethodGet, tt.path, nil))
		if w.Code != tt.status || errorType(t, w) != tt.kind {
			t.Errorf("GET %s = %d %s, want %d %s", tt.path, w.Code, w.Body, tt.status, tt.kind)
		}
	}
}

// TestIndex 测试索引接口返回版本与标签表，并支持 gzip.
func TestIndex(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")

	w := s.do(req)
	if w.Code != http.StatusOK || w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("status = %d, encoding = %q", w.Code, w.Header().Get("Content-Encoding"))
	}

	zr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatal(err)
	}

	var body struct {
		Version string                       `json:"mediavault"`
		Tags    map[string]configs.TagConfig `json:"tags"`
	}
	if err := json.NewDecoder(zr).Decode(&body); err != nil {
		t.Fatal(err)
	}

	if body.Version != configs.AppVersion || len(body.Tags) != 3 || body.Tags["small"].MaxSize != 16 {
		t.Errorf("index = %+v", body)
	}
}

// TestHealth 测试健康检查.
func TestHealth(t *testing.T) {
	s := newServer(t)

	for _, path := range []string{"/health/db", "/health/storage", "/health/mq"} {
		if w := s.do(httptest.NewRequest(http.MethodGet, path, nil)); w.Code != http.StatusOK {
			t.Errorf("GET %s = %d %s", path, w.Code, w.Body)
		}
	}
}
