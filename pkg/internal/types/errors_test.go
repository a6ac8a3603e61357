package types_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/yeisme/mediavault/pkg/internal/types"
)

// TestErrorStatus 测试错误类型到 HTTP 状态码的映射.
func TestErrorStatus(t *testing.T) {
	tests := []struct {
		kind types.Kind
		want int
	}{
		{types.KindUnknownTag, http.StatusBadRequest},
		{types.KindFailedToReceive, http.StatusBadRequest},
		{types.KindFileTypeNotAllowed, http.StatusBadRequest},
		{types.KindMissingData, http.StatusBadRequest},
		{types.KindNotFound, http.StatusNotFound},
		{types.KindFileTooLarge, http.StatusRequestEntityTooLarge},
		{types.KindDatabaseError, http.StatusInternalServerError},
		{types.KindProbeError, http.StatusInternalServerError},
		{types.KindIOError, http.StatusInternalServerError},
		{types.KindBlockingError, http.StatusInternalServerError},
		{types.KindS3Error, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := types.NewError(tt.kind, nil).Status(); got != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

// TestErrorBody 测试响应体只包含 type 与 max_size.
func TestErrorBody(t *testing.T) {
	b, err := json.Marshal(types.FileTooLarge(1024).Body())
	if err != nil {
		t.Fatal(err)
	}

	if string(b) != `{"type":"FileTooLarge","max_size":1024}` {
		t.Errorf("body = %s", b)
	}

	b, err = json.Marshal(types.NewError(types.KindIOError, errors.New("open /srv/files/x: permission denied")).Body())
	if err != nil {
		t.Fatal(err)
	}

	if string(b) != `{"type":"IOError"}` {
		t.Errorf("body = %s", b)
	}
}

// TestAsError 测试包装链中的错误提取.
func TestAsError(t *testing.T) {
	wrapped := fmt.Errorf("find: %w", types.NewError(types.KindNotFound, nil))

	if got := types.AsError(wrapped); got.Kind != types.KindNotFound {
		t.Errorf("kind = %s, want NotFound", got.Kind)
	}

	if !errors.Is(wrapped, types.ErrNotFound) {
		t.Error("errors.Is should match by kind")
	}

	if got := types.AsError(errors.New("boom")); got.Kind != types.KindIOError {
		t.Errorf("kind = %s, want IOError", got.Kind)
	}
}
