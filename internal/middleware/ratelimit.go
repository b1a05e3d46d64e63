package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/motor-insurance/internal/respond"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware limits requests per client IP with a token bucket.
// The key is the host part of r.RemoteAddr; proxy headers are only honoured
// when a middleware such as chi's RealIP has already rewritten RemoteAddr.
type RateLimitMiddleware struct {
	limit    rate.Limit
	burst    int
	interval time.Duration
	// idle is how long a client may stay unseen before its bucket is
	// dropped. A bucket unseen that long has refilled completely.
	idle time.Duration
	now  func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimitMiddleware creates a limiter allowing maxRequests per window.
// The budget refills evenly across the window.
func NewRateLimitMiddleware(maxRequests int, window time.Duration) *RateLimitMiddleware {
	if maxRequests < 1 {
		maxRequests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	interval := window / time.Duration(maxRequests)
	return &RateLimitMiddleware{
		limit:    rate.Every(interval),
		burst:    maxRequests,
		interval: interval,
		idle:     window,
		now:      time.Now,
		clients:  make(map[string]*clientLimiter),
	}
}

// RateLimit applies rate limiting based on IP address
func (m *RateLimitMiddleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getClientIP(r)
		if !m.allow(ip) {
			log.WithFields(log.Fields{
				"client_ip": ip,
				"method":    r.Method,
				"path":      r.URL.Path,
			}).Warn("Rate limit exceeded")
			w.Header().Set("Retry-After", m.retryAfter())
			respond.Error(w, http.StatusTooManyRequests, respond.CodeRateLimited, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) allow(clientIP string) bool {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastSweep) >= m.idle {
		m.sweep(now)
	}

	c, ok := m.clients[clientIP]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.clients[clientIP] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// sweep drops clients unseen for longer than the idle period. Callers hold mu.
func (m *RateLimitMiddleware) sweep(now time.Time) {
	for ip, c := range m.clients {
		if now.Sub(c.lastSeen) >= m.idle {
			delete(m.clients, ip)
		}
	}
	m.lastSweep = now
}

// tracked reports how many clients currently hold a bucket.
func (m *RateLimitMiddleware) tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

// retryAfter is the time until one more request is allowed, in whole seconds.
func (m *RateLimitMiddleware) retryAfter() string {
	secs := int(math.Ceil(m.interval.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// getClientIP returns the host part of the request's remote address.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
