package blob_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sony/gobreaker"

	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/internal/storage/blob"
	s3c "github.com/yeisme/mediavault/pkg/internal/storage/s3"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

const accessDenied = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>AccessDenied</Code><Message>Access Denied</Message><RequestId>1</RequestId></Error>`

func deniedServer(t *testing.T, hits *atomic.Int64) *s3c.Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(accessDenied))
	}))
	t.Cleanup(srv.Close)

	cli, err := s3c.New(configs.S3Config{Endpoint: srv.URL, Region: "us-east-1", AccessKeyID: "k", SecretAccessKey: "s"})
	if err != nil {
		t.Fatal(err)
	}

	return cli
}

// TestS3ErrorsMapToS3Error 测试后端非成功状态映射为 S3Error.
func TestS3ErrorsMapToS3Error(t *testing.T) {
	var hits atomic.Int64

	b := blob.NewS3(deniedServer(t, &hits), nil)
	ctx := context.Background()

	if err := b.Put(ctx, "attachments", "id", []byte("x")); !errors.Is(err, types.ErrS3) {
		t.Errorf("Put() error = %v, want S3Error", err)
	}

	if _, err := b.Get(ctx, "attachments", "id"); !errors.Is(err, types.ErrS3) {
		t.Errorf("Get() error = %v, want S3Error", err)
	}

	if err := b.Delete(ctx, "attachments", "id"); !errors.Is(err, types.ErrS3) {
		t.Errorf("Delete() error = %v, want S3Error", err)
	}

	if hits.Load() == 0 {
		t.Error("server was never called")
	}
}

// TestS3BreakerOpens 测试熔断打开后不再请求后端.
func TestS3BreakerOpens(t *testing.T) {
	var hits atomic.Int64

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "test",
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 1
		},
	})

	b := blob.NewS3(deniedServer(t, &hits), cb)

	_, _ = b.Get(context.Background(), "attachments", "id")
	before := hits.Load()

	_, err := b.Get(context.Background(), "attachments", "id")
	if !errors.Is(err, types.ErrS3) || !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("error = %v, want S3Error wrapping open state", err)
	}

	if hits.Load() != before {
		t.Error("open breaker should short-circuit requests")
	}

	if b.Name() != "s3" {
		t.Errorf("Name() = %q", b.Name())
	}
}

const noSuchKey = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message><RequestId>1</RequestId></Error>`

// TestS3MissingKeyKeepsBreakerClosed 测试对象不存在不会打开熔断器.
func TestS3MissingKeyKeepsBreakerClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
			w.WriteHeader(http.StatusOK)

			return
		}

		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(noSuchKey))
	}))
	t.Cleanup(srv.Close)

	cli, err := s3c.New(configs.S3Config{Endpoint: srv.URL, Region: "us-east-1", AccessKeyID: "k", SecretAccessKey: "s"})
	if err != nil {
		t.Fatal(err)
	}

	cb := blob.NewBreaker(configs.CircuitBreakerConfig{
		Enabled:           true,
		MaxRequestsInHalf: configs.DefaultCBMaxRequestsInHalf,
		IntervalSeconds:   configs.DefaultCBIntervalSeconds,
		TimeoutSeconds:    configs.DefaultCBTimeoutSeconds,
		FailureRate:       configs.DefaultCBFailureRate,
		MinRequests:       configs.DefaultCBMinRequests,
	})

	b := blob.NewS3(cli, cb)
	ctx := context.Background()

	for range configs.DefaultCBMinRequests * 2 {
		if _, err := b.Get(ctx, "attachments", "orphan"); !errors.Is(err, types.ErrS3) {
			t.Fatalf("Get() error = %v, want S3Error", err)
		}
	}

	if cb.State() != gobreaker.StateClosed {
		t.Fatalf("breaker state = %v, want closed", cb.State())
	}

	if err := b.Put(ctx, "attachments", "healthy", []byte("x")); err != nil {
		t.Errorf("Put() error = %v", err)
	}
}
