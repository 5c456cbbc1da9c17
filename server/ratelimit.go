package server

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 5 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter keeps a token bucket per client IP. A nil limiter allows everything.
type ipRateLimiter struct {
	lock    sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	nowFunc func() time.Time
}

func newIPRateLimiter(perSecond float64, burst int) *ipRateLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &ipRateLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		nowFunc: time.Now,
	}
}

func (l *ipRateLimiter) Allow(ip string) bool {
	if l == nil {
		return true
	}
	if ip == "" {
		ip = "unknown"
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	now := l.nowFunc()
	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// Prune drops buckets that have been idle longer than limiterIdleTTL
func (l *ipRateLimiter) Prune() int {
	if l == nil {
		return 0
	}
	l.lock.Lock()
	defer l.lock.Unlock()

	now := l.nowFunc()
	removed := 0
	for ip, b := range l.buckets {
		if now.Sub(b.lastSeen) > limiterIdleTTL {
			delete(l.buckets, ip)
			removed++
		}
	}
	return removed
}

// PruneLimiters is run periodically by the owner of the server
func (s *Server) PruneLimiters() int {
	return s.signInLimiter.Prune()
}

// clientIPResolver finds the address a request came from. X-Forwarded-For is
// only read when the socket peer is a trusted proxy.
type clientIPResolver struct {
	trusted []netip.Prefix
}

func (c clientIPResolver) isTrusted(addr netip.Addr) bool {
	for _, prefix := range c.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP walks X-Forwarded-For from the right, past trusted proxies, to the first untrusted hop
func (c clientIPResolver) ClientIP(r *http.Request) string {
	peer := remoteHost(r)
	peerAddr, err := netip.ParseAddr(peer)
	if err != nil || !c.isTrusted(peerAddr.Unmap()) {
		return peer
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		addr, err := netip.ParseAddr(hop)
		if err != nil {
			// Anything left of a malformed hop is unverifiable
			return peer
		}
		if !c.isTrusted(addr.Unmap()) {
			return addr.Unmap().String()
		}
		peer = addr.Unmap().String()
	}
	return peer
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
