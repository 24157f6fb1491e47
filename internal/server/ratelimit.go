package server

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// rateLimiter is a per-key token bucket, used to slow down PIN guessing
// against the login endpoint.
type rateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]chan struct{}
	perMinute int
	keyFn     func(*http.Request) string
}

func newRateLimiter(perMinute int, keyFn func(*http.Request) string) *rateLimiter {
	return &rateLimiter{
		buckets:   make(map[string]chan struct{}),
		perMinute: perMinute,
		keyFn:     keyFn,
	}
}

func (l *rateLimiter) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := l.keyFn(r)

		l.mu.Lock()
		bucket, ok := l.buckets[key]
		if !ok {
			bucket = make(chan struct{}, l.perMinute)
			for i := 0; i < l.perMinute; i++ {
				bucket <- struct{}{}
			}
			l.buckets[key] = bucket
			go refillBucket(bucket, l.perMinute)
		}
		l.mu.Unlock()

		select {
		case <-bucket:
			next(w, r)
		default:
			writeError(w, http.StatusTooManyRequests, "Too many login attempts")
		}
	}
}

func refillBucket(bucket chan struct{}, perMinute int) {
	ticker := time.NewTicker(time.Minute / time.Duration(perMinute))
	defer ticker.Stop()

	for range ticker.C {
		select {
		case bucket <- struct{}{}:
		default:
		}
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
