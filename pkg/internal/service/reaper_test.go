package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"

	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/storage/db"
)

func sqliteFiles(t *testing.T) *db.Files {
	t.Helper()

	client, err := db.Open(context.Background(), sqlite.Open(":memory:"), &configs.DBConfig{
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		AutoMigrate:  true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })

	return db.NewFiles(client)
}

func seed(t *testing.T, store service.MetadataStore, blob *fakeBlob, id string, deleted, reported bool) {
	t.Helper()

	f := &model.File{ID: id, Tag: "open", Filename: id + ".bin", ContentType: "application/octet-stream", Size: 3}
	f.SetMetadata(model.FileMeta{})

	if deleted {
		f.Deleted = ptr(true)
	}

	if reported {
		f.Reported = ptr(true)
	}

	if err := store.Insert(context.Background(), f); err != nil {
		t.Fatalf("Insert(%s) error = %v", id, err)
	}

	if err := blob.Put(context.Background(), "open", id, []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
}

// TestReap 测试只回收已删除且未被举报的记录，跨越多个批次.
func TestReap(t *testing.T) {
	files := sqliteFiles(t)
	blob := newFakeBlob()
	fx := newFixture(t, func(d *service.Deps) { d.Files = files; d.Blob = blob })

	for i := range 5 {
		seed(t, files, blob, fmt.Sprintf("del%d", i), true, false)
	}

	seed(t, files, blob, "live", false, false)
	seed(t, files, blob, "reported", true, true)

	stats, err := fx.svc.Reap(context.Background())
	if err != nil {
		t.Fatalf("Reap() error = %v", err)
	}

	if stats.Scanned != 5 || stats.Reaped != 5 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want 5 reaped", stats)
	}

	for i := range 5 {
		id := fmt.Sprintf("del%d", i)
		if _, err := files.Find(context.Background(), id, "open", nil); err == nil {
			t.Errorf("record %s still present", id)
		}

		if blob.has("open", id) {
			t.Errorf("blob %s still present", id)
		}
	}

	for _, id := range []string{"live", "reported"} {
		if _, err := files.Find(context.Background(), id, "open", nil); err != nil {
			t.Errorf("record %s removed: %v", id, err)
		}

		if !blob.has("open", id) {
			t.Errorf("blob %s removed", id)
		}
	}

	again, err := fx.svc.Reap(context.Background())
	if err != nil || again.Scanned != 0 {
		t.Errorf("second pass = %+v, %v, want nothing to do", again, err)
	}
}

// TestReapBlobFailure 测试存储删除失败时仍删除记录.
func TestReapBlobFailure(t *testing.T) {
	fx := newFixture(t)
	seed(t, fx.files, fx.blob, "a", true, false)
	fx.blob.deleteErr = errors.New("permission denied")

	stats, err := fx.svc.Reap(context.Background())
	if err != nil {
		t.Fatalf("Reap() error = %v", err)
	}

	if stats.Reaped != 1 || fx.files.get("open", "a") != nil {
		t.Errorf("stats = %+v, record left = %v", stats, fx.files.get("open", "a") != nil)
	}
}

// TestReapContinuesOnFailure 测试单条记录删除失败不影响其它记录.
func TestReapContinuesOnFailure(t *testing.T) {
	fx := newFixture(t)

	for _, id := range []string{"a", "b", "c"} {
		seed(t, fx.files, fx.blob, id, true, false)
	}

	fx.files.deleteErr["b"] = errors.New("lock timeout")

	stats, err := fx.svc.Reap(context.Background())
	if err != nil {
		t.Fatalf("Reap() error = %v", err)
	}

	if stats.Scanned != 3 || stats.Reaped != 2 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want 2 reaped 1 failed", stats)
	}

	if fx.files.get("open", "b") == nil {
		t.Error("failed record removed")
	}

	delete(fx.files.deleteErr, "b")

	if stats, _ := fx.svc.Reap(context.Background()); stats.Reaped != 1 {
		t.Errorf("retry stats = %+v, want the failed record reaped", stats)
	}
}

// TestReapCancel 测试取消后在两条记录之间停止.
func TestReapCancel(t *testing.T) {
	fx := newFixture(t)
	fx.cfg.Reaper.Delay = 50 * time.Millisecond

	for _, id := range []string{"a", "b", "c", "d"} {
		seed(t, fx.files, fx.blob, id, true, false)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 75*time.Millisecond)
	defer cancel()

	stats, err := fx.svc.Reap(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Reap() error = %v, want deadline exceeded", err)
	}

	if stats.Reaped == 0 || stats.Reaped >= 4 {
		t.Errorf("reaped = %d, want a partial pass", stats.Reaped)
	}

	if stats.Reaped+stats.Failed != stats.Scanned {
		t.Errorf("stats = %+v, every scanned record must be finished", stats)
	}
}

// TestMarkDeleted 测试软删除后记录进入回收队列.
func TestMarkDeleted(t *testing.T) {
	fx := newFixture(t)
	seed(t, fx.files, fx.blob, "a", false, false)

	if err := fx.svc.MarkDeleted(context.Background(), "open", "a"); err != nil {
		t.Fatalf("MarkDeleted() error = %v", err)
	}

	if !fx.files.get("open", "a").IsDeleted() {
		t.Error("record not marked deleted")
	}

	if err := fx.svc.MarkDeleted(context.Background(), "open", "missing"); kindOf(err) == "" {
		t.Error("MarkDeleted(missing) error = nil")
	}
}
