package ratelimit

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/EDWINCHENC/c-transfer-unique/internal/pkg/apperrors"
	"github.com/EDWINCHENC/c-transfer-unique/internal/pkg/httputils"
)

// Limiter throttles request frequency per client IP with a redis
// fixed-window counter. This is independent of the daily creation quota:
// the limiter caps how often an endpoint may be called at all.
type Limiter struct {
	rdb      *redis.Client
	clientIP func(*http.Request) string
}

func New(rdb *redis.Client, clientIP func(*http.Request) string) *Limiter {
	return &Limiter{rdb: rdb, clientIP: clientIP}
}

// PerMinute wraps a handler with an N-requests-per-minute cap. The limiter
// fails open: if redis is unreachable the request is served and the error
// logged.
func (l *Limiter) PerMinute(name string, limit int, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := l.clientIP(r)
		window := time.Now().Unix() / 60
		key := fmt.Sprintf("ratelimit:%s:%s:%d", name, ip, window)

		count, err := l.rdb.Incr(r.Context(), key).Result()
		if err != nil {
			slog.Error("rate limiter unavailable", "endpoint", name, "error", err)
			next(w, r)
			return
		}
		if count == 1 {
			l.rdb.Expire(r.Context(), key, time.Minute)
		}

		if count > int64(limit) {
			slog.Warn("rate limit exceeded", "endpoint", name, "ip", ip, "limit", limit)
			httputils.ResponseError(w, http.StatusTooManyRequests, apperrors.CodeQuotaExceeded,
				"rate limit exceeded, please try again later")
			return
		}

		next(w, r)
	}
}
