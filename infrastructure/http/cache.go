package http

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	sessioncookie "gpdash/infrastructure/session"
)

const responseCachePrefix = "gpdash:pagecache"

// captureWriter buffers the response body while forwarding it to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.size < cw.limit {
		remain := cw.limit - cw.size
		if int64(len(b)) <= remain {
			cw.buf.Write(b)
		} else {
			cw.buf.Write(b[:remain])
		}
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// ResponseCacheMiddleware serves repeated GET page loads from Redis for a
// short window. ERP browse pages are read-only snapshots anyway, so a few
// seconds of staleness is acceptable and saves a SQL Server round trip.
// The session token is part of the key: pages embed per-user navigation.
// With no Redis client configured the middleware is a passthrough.
func ResponseCacheMiddleware(rdb *redis.Client, ttl time.Duration) func(http.Handler) http.Handler {
	if rdb == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	const maxBody = 1 << 20

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := responseCacheKey(r)
			if body, err := rdb.Get(r.Context(), key).Bytes(); err == nil && len(body) > 0 {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.Header().Set("X-Cache", "HIT")
				_, _ = w.Write(body)
				return
			}

			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK, limit: maxBody}
			w.Header().Set("X-Cache", "MISS")
			next.ServeHTTP(cw, r)

			if cw.status == http.StatusOK && cw.size <= maxBody {
				// Best effort; a Redis outage must not fail the page.
				_ = rdb.SetEx(r.Context(), key, cw.buf.Bytes(), ttl).Err()
			}
		})
	}
}

func responseCacheKey(r *http.Request) string {
	token := ""
	if c, err := r.Cookie(sessioncookie.CookieName); err == nil {
		token = c.Value
	}
	sum := sha1.Sum([]byte(strings.Join([]string{r.URL.Path, r.URL.RawQuery, token}, "|")))
	return fmt.Sprintf("%s:%x", responseCachePrefix, sum)
}
