package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/internal/jobs"
	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/scheduler"
)

type fakeReaper struct {
	stats service.ReapStats
	err   error
}

func (f fakeReaper) Reap(context.Context) (service.ReapStats, error) {
	return f.stats, f.err
}

// TestReapJob 测试取消不视为失败，其它错误向上返回.
func TestReapJob(t *testing.T) {
	tests := []struct {
		name    string
		r       fakeReaper
		wantErr bool
	}{
		{"ok", fakeReaper{stats: service.ReapStats{Scanned: 2, Reaped: 2}}, false},
		{"partial", fakeReaper{stats: service.ReapStats{Scanned: 2, Reaped: 1, Failed: 1}}, false},
		{"cancelled", fakeReaper{err: context.Canceled}, false},
		{"db down", fakeReaper{err: errors.New("connection refused")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := jobs.ReapJob(tt.r)(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("ReapJob() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestRegisterJobs 测试按配置注册回收任务.
func TestRegisterJobs(t *testing.T) {
	sched, err := scheduler.NewScheduler()
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { _ = sched.Stop() })

	ctx := context.Background()

	if err := jobs.RegisterJobs(ctx, sched, configs.ReaperConfig{Enabled: false}, fakeReaper{}); err != nil {
		t.Fatalf("disabled: %v", err)
	}

	if len(sched.GetJobInfos()) != 0 {
		t.Fatal("disabled reaper registered a job")
	}

	if err := jobs.RegisterJobs(ctx, sched, configs.ReaperConfig{Enabled: true}, fakeReaper{}); err == nil {
		t.Error("zero interval accepted")
	}

	if err := jobs.RegisterJobs(ctx, sched, configs.ReaperConfig{Enabled: true, Interval: time.Minute}, fakeReaper{}); err != nil {
		t.Fatalf("interval: %v", err)
	}

	info, err := sched.GetJobInfoByName(jobs.JobReaper)
	if err != nil || info.Schedule != "every 1m0s" {
		t.Errorf("job = %+v, %v", info, err)
	}

	if err := sched.RemoveJobByName(jobs.JobReaper); err != nil {
		t.Fatal(err)
	}

	if err := jobs.RegisterJobs(ctx, sched, configs.ReaperConfig{Enabled: true, Cron: "*/5 * * * *"}, fakeReaper{}); err != nil {
		t.Fatalf("cron: %v", err)
	}

	if info, _ := sched.GetJobInfoByName(jobs.JobReaper); info.Schedule != "*/5 * * * *" {
		t.Errorf("schedule = %q", info.Schedule)
	}
}
