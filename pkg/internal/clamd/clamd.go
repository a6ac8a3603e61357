// Package clamd 等待 ClamAV 守护进程就绪.
// 只使用 PING 命令确认守护进程可用，上传内容不经过扫描.
package clamd

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/log"
)

// DefaultRetryInterval 未配置重试间隔时使用.
const DefaultRetryInterval = time.Second

var (
	pingCommand  = []byte("zPING\x00")
	pongResponse = []byte("PONG")
)

// Ping 发送一次 zPING 并校验 PONG 回复.
func Ping(ctx context.Context, addr string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer

	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial clamd %s: %w", addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := conn.Write(pingCommand); err != nil {
		return fmt.Errorf("write ping: %w", err)
	}

	reply, err := bufio.NewReader(conn).ReadBytes(0)
	if err != nil {
		return fmt.Errorf("read pong: %w", err)
	}

	if got := bytes.TrimRight(reply, "\x00\n"); !bytes.Equal(got, pongResponse) {
		return fmt.Errorf("unexpected clamd reply %q", got)
	}

	return nil
}

// WaitReady 每隔 retry_interval 重试 Ping，直到成功或 ctx 结束；未启用时立即返回.
func WaitReady(ctx context.Context, cfg configs.ClamdConfig) error {
	if !cfg.Enabled {
		return nil
	}

	l := log.Component("clamd").With().Str("host", cfg.Host).Logger()
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	retry := cfg.RetryInterval
	if retry <= 0 {
		retry = DefaultRetryInterval
	}

	for attempt := 1; ; attempt++ {
		err := Ping(ctx, cfg.Host, timeout)
		if err == nil {
			l.Info().Int("attempt", attempt).Msg("clamd ready")
			return nil
		}

		l.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", retry).Msg("clamd not ready")

		t := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
