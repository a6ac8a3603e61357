package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

// limiterIdleTTL 超过该时长未访问的限流器会被回收.
const limiterIdleTTL = 10 * time.Minute

// RateLimitMiddleware 全局请求限流.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	return newRateLimiter(cfg, cfg.RPS)
}

// UploadRateLimitMiddleware 上传接口的附加限流，upload_rps 为 0 时只受全局限流约束.
func UploadRateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	return newRateLimiter(cfg, cfg.UploadRPS)
}

func newRateLimiter(cfg configs.RateLimitConfig, rps float64) gin.HandlerFunc {
	if !cfg.Enabled || rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	keyOf := keyFunc(cfg.Key)
	store := newLimiterStore(rate.Limit(rps), max(cfg.Burst, 1))

	return func(c *gin.Context) {
		if !store.allow(keyOf(c), time.Now()) {
			e := types.ErrRateLimited
			c.AbortWithStatusJSON(e.Status(), e.Body())

			return
		}

		c.Next()
	}
}

// keyFunc 解析限流维度：global、ip 或 header:Name，缺失请求头时退回客户端 IP.
func keyFunc(mode string) func(c *gin.Context) string {
	mode = strings.TrimSpace(mode)

	switch lower := strings.ToLower(mode); {
	case lower == "" || lower == "global":
		return func(*gin.Context) string { return "" }
	case strings.HasPrefix(lower, "header:"):
		header := strings.TrimSpace(mode[len("header:"):])

		return func(c *gin.Context) string {
			if v := c.GetHeader(header); v != "" {
				return "h:" + v
			}

			return c.ClientIP()
		}
	default:
		return func(c *gin.Context) string { return c.ClientIP() }
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore 按键保存限流器，访问时顺带清理闲置条目.
type limiterStore struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	entries   map[string]*limiterEntry
	lastSweep time.Time
}

func newLimiterStore(limit rate.Limit, burst int) *limiterStore {
	return &limiterStore{
		limit:     limit,
		burst:     burst,
		entries:   make(map[string]*limiterEntry),
		lastSweep: time.Now(),
	}
}

func (s *limiterStore) allow(key string, now time.Time) bool {
	s.mu.Lock()

	if now.Sub(s.lastSweep) > limiterIdleTTL {
		for k, e := range s.entries {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(s.entries, k)
			}
		}

		s.lastSweep = now
	}

	e, ok := s.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.entries[key] = e
	}

	e.lastSeen = now
	s.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}
