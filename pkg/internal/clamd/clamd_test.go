package clamd_test

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/internal/clamd"
)

// fakeClamd 前 failFirst 次连接返回错误回复，之后回复 PONG.
func fakeClamd(t *testing.T, failFirst int32) (string, *atomic.Int32) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { _ = ln.Close() })

	var conns atomic.Int32

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}

			n := conns.Add(1)

			go func(c net.Conn) {
				defer c.Close()

				cmd, err := bufio.NewReader(c).ReadString(0)
				if err != nil || cmd != "zPING\x00" {
					return
				}

				if n <= failFirst {
					_, _ = c.Write([]byte("LOADING\x00"))
					return
				}

				_, _ = c.Write([]byte("PONG\x00"))
			}(conn)
		}
	}()

	return ln.Addr().String(), &conns
}

// TestPing 测试 PING/PONG 交互.
func TestPing(t *testing.T) {
	addr, _ := fakeClamd(t, 0)

	if err := clamd.Ping(context.Background(), addr, time.Second); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

// TestPingBadReply 测试非 PONG 回复.
func TestPingBadReply(t *testing.T) {
	addr, _ := fakeClamd(t, 1)

	if err := clamd.Ping(context.Background(), addr, time.Second); err == nil {
		t.Fatal("Ping() error = nil for LOADING reply")
	}
}

// TestWaitReadyRetries 测试未就绪时按间隔重试.
func TestWaitReadyRetries(t *testing.T) {
	addr, conns := fakeClamd(t, 2)

	cfg := configs.ClamdConfig{Enabled: true, Host: addr, RetryInterval: 10 * time.Millisecond, Timeout: time.Second}
	if err := clamd.WaitReady(context.Background(), cfg); err != nil {
		t.Fatalf("WaitReady() error = %v", err)
	}

	if got := conns.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

// TestWaitReadyCancel 测试守护进程不可达时可被取消.
func TestWaitReadyCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	addr := ln.Addr().String()
	_ = ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	cfg := configs.ClamdConfig{Enabled: true, Host: addr, RetryInterval: 10 * time.Millisecond, Timeout: 20 * time.Millisecond}
	if err := clamd.WaitReady(ctx, cfg); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitReady() error = %v, want deadline exceeded", err)
	}
}

// TestWaitReadyZeroInterval 测试重试间隔为 0 时按默认间隔等待.
func TestWaitReadyZeroInterval(t *testing.T) {
	addr, conns := fakeClamd(t, 1000)

	ctx, cancel := context.WithTimeout(context.Background(), clamd.DefaultRetryInterval/2)
	defer cancel()

	cfg := configs.ClamdConfig{Enabled: true, Host: addr, Timeout: 100 * time.Millisecond}
	if err := clamd.WaitReady(ctx, cfg); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("WaitReady() error = %v, want deadline exceeded", err)
	}

	if got := conns.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

// TestWaitReadyDisabled 测试未启用时不连接.
func TestWaitReadyDisabled(t *testing.T) {
	if err := clamd.WaitReady(context.Background(), configs.ClamdConfig{Host: "127.0.0.1:1"}); err != nil {
		t.Errorf("WaitReady() error = %v", err)
	}
}
