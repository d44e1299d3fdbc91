package moderation

import (
	"net"
	"time"

	"golang.org/x/time/rate"

	"wordroom-server/config"
	"wordroom-server/roomerrors"
)

// failureDecay is how long password failures are remembered per IP.
const failureDecay = 10 * time.Minute

// Identity groups the identifiers a connecting client presents. Any of
// them appearing in the ban set rejects the connection; banning a player
// records all identifiers it presented.
type Identity struct {
	IP       string
	ConnID   string
	ClientID string // stable across reconnects, may be empty
}

type passwordFailures struct {
	count    int
	lastFail time.Time
}

// Ledger tracks bans, per-IP connection rates, and per-IP password
// failures for one room. It lives for the lifetime of the room process and
// is never serialized. A Ledger belongs to a single room actor; the only
// concurrency-safe member is the rate.Limiter values themselves.
type Ledger struct {
	cfg config.ModerationConfig

	banned       map[string]struct{}
	connLimiters map[string]*rate.Limiter
	failures     map[string]*passwordFailures

	now func() time.Time // injected in tests
}

// NewLedger creates an empty Ledger.
func NewLedger(cfg config.ModerationConfig) *Ledger {
	return &Ledger{
		cfg:          cfg,
		banned:       make(map[string]struct{}),
		connLimiters: make(map[string]*rate.Limiter),
		failures:     make(map[string]*passwordFailures),
		now:          time.Now,
	}
}

// CheckConnect applies the connect-time gates in order: ban list first,
// then the per-IP connection rate limit (local IPs are exempt).
func (l *Ledger) CheckConnect(id Identity) error {
	if l.IsBanned(id) {
		return roomerrors.ErrBanned
	}
	if id.IP != "" && !isLocal(id.IP) && !l.connLimiter(id.IP).Allow() {
		return roomerrors.ErrRateLimited
	}
	return nil
}

func (l *Ledger) connLimiter(ip string) *rate.Limiter {
	lim, ok := l.connLimiters[ip]
	if !ok {
		perMin := l.cfg.ConnectionsPerMinute
		if perMin <= 0 {
			perMin = 30
		}
		burst := perMin / 3
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(float64(perMin)/60.0), burst)
		l.connLimiters[ip] = lim
	}
	return lim
}

// Ban records every non-empty identifier of the identity.
func (l *Ledger) Ban(id Identity) {
	for _, key := range []string{id.IP, id.ConnID, id.ClientID} {
		if key != "" {
			l.banned[key] = struct{}{}
		}
	}
}

// IsBanned reports whether any identifier of the identity is banned.
func (l *Ledger) IsBanned(id Identity) bool {
	for _, key := range []string{id.IP, id.ConnID, id.ClientID} {
		if key == "" {
			continue
		}
		if _, ok := l.banned[key]; ok {
			return true
		}
	}
	return false
}

// PasswordFailure records one failed password attempt from an IP. Counts
// decay after failureDecay of quiet. Reaching the configured limit bans
// the IP; the return value reports whether that happened on this call.
func (l *Ledger) PasswordFailure(ip string) bool {
	f, ok := l.failures[ip]
	if !ok || l.now().Sub(f.lastFail) > failureDecay {
		f = &passwordFailures{}
		l.failures[ip] = f
	}
	f.count++
	f.lastFail = l.now()

	limit := l.cfg.PasswordFailureLimit
	if limit <= 0 {
		limit = 3
	}
	if f.count >= limit {
		l.Ban(Identity{IP: ip})
		delete(l.failures, ip)
		return true
	}
	return false
}

// ClearPasswordFailures resets the failure counter after a successful join.
func (l *Ledger) ClearPasswordFailures(ip string) {
	delete(l.failures, ip)
}

func isLocal(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return parsed.IsLoopback()
}
