package middlewares

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
)

var errTooManyRequests = httpx.TooManyRequests("Too many requests, please try again later.")

type clientLimiter struct {
	*rate.Limiter
	lastSeen time.Time
}

// RateLimiter admits at most max requests per client address per window,
// as a token bucket refilled evenly over the window. Excess requests are
// rejected right away.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	window   time.Duration
	max      int
	every    rate.Limit

	now func() time.Time
}

func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		window:   window,
		max:      max,
		every:    rate.Every(window / time.Duration(max)),
		now:      time.Now,
	}
}

func (rl *RateLimiter) get(key string) *clientLimiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[key]
	if !ok {
		l = &clientLimiter{Limiter: rate.NewLimiter(rl.every, rl.max)}
		rl.limiters[key] = l
	}
	l.lastSeen = rl.now()
	return l
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientAddr(r)
		l := rl.get(key)
		now := rl.now()

		w.Header().Set("RateLimit-Limit", strconv.Itoa(rl.max))
		if !l.AllowN(now, 1) {
			res := l.ReserveN(now, 1)
			retry := res.DelayFrom(now)
			res.CancelAt(now)

			w.Header().Set("RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
			httpx.LogError(w, r, "rate_limit.exceeded "+key, errTooManyRequests)
			return
		}
		w.Header().Set("RateLimit-Remaining", strconv.Itoa(int(l.TokensAt(now))))

		next.ServeHTTP(w, r)
	})
}

// Sweep drops the limiters of clients idle for a whole window:
// their buckets are full again, so forgetting them changes nothing.
func (rl *RateLimiter) Sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.window)
	for key, l := range rl.limiters {
		if l.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}
}

// StartSweeper sweeps every interval until ctx is done.
func (rl *RateLimiter) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Sweep()
				log.Debugf("rate_limit.sweep: %d clients tracked", rl.size())
			}
		}
	}()
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// clientAddr is the host part of RemoteAddr, which middleware.RealIP may have rewritten.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
