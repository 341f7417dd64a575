// Package ratelimit provides a per-client request rate limit as an
// application extension. It keeps one token bucket per client address
// and rejects over-limit requests from a before-request hook with 429,
// before any resource binder opens a handle for the request.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/km-arc/go-flask/framework/app"
	"github.com/km-arc/go-flask/framework/reqctx"
)

// Option keys read by the extension, with their defaults.
const (
	OptionRPS   = "RATELIMIT_RPS"   // tokens per second, default 10
	OptionBurst = "RATELIMIT_BURST" // bucket size, default 20
)

// Extension limits request rates per client IP. Like any extension it
// can be attached to several applications; each attachment gets its own
// bucket table sized from that application's configuration.
type Extension struct {
	// IdleTTL controls eviction of buckets for clients that went
	// quiet. Zero means 10 minutes.
	IdleTTL time.Duration
}

// New creates the extension with default settings.
func New() *Extension { return &Extension{} }

// Name implements app.Extension.
func (e *Extension) Name() string { return "ratelimit" }

// Init implements app.Extension.
func (e *Extension) Init(a *app.Application) error {
	a.Config.SetDefault(OptionRPS, "10")
	a.Config.SetDefault(OptionBurst, "20")

	rps := a.Config.GetInt(OptionRPS, 10)
	burst := a.Config.GetInt(OptionBurst, 20)
	lim := newTable(rate.Limit(rps), burst, e.IdleTTL)

	a.Services.Instance(e.Name(), e)
	a.BeforeRequest(func(s *reqctx.Scope) error {
		if !lim.allow(clientKey(s.Request()), time.Now()) {
			return app.NewStatusError(http.StatusTooManyRequests, "")
		}
		return nil
	})
	return nil
}

// clientKey extracts the bucket key for a request. Before hooks run
// ahead of the router's middleware chain, so chi's RealIP has not
// rewritten RemoteAddr yet — resolve the forwarded address here, in
// the same header order RealIP uses, or clients behind one proxy all
// collapse into the proxy's bucket.
func clientKey(r *http.Request) string {
	if ip := r.Header.Get("True-Client-IP"); ip != "" && net.ParseIP(ip) != nil {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" && net.ParseIP(ip) != nil {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First hop is the client; later entries are proxies.
		first, _, _ := strings.Cut(xff, ",")
		first = strings.TrimSpace(first)
		if net.ParseIP(first) != nil {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ── bucket table ─────────────────────────────────────────────────────────────

// table applies a token bucket per key and periodically evicts idle
// entries so the map does not grow with every client ever seen.
type table struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu    sync.Mutex
	byKey map[string]*bucket
	hits  uint64
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newTable(limit rate.Limit, burst int, idleTTL time.Duration) *table {
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &table{
		limit:   limit,
		burst:   burst,
		idleTTL: idleTTL,
		byKey:   make(map[string]*bucket),
	}
}

func (t *table) allow(key string, now time.Time) bool {
	if key == "" {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.byKey[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.byKey[key] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)

	t.hits++
	if t.hits%512 == 0 {
		cutoff := now.Add(-t.idleTTL)
		for k, v := range t.byKey {
			if v.lastSeen.Before(cutoff) {
				delete(t.byKey, k)
			}
		}
	}

	return allowed
}
