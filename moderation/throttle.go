package moderation

import (
	"golang.org/x/time/rate"

	"wordroom-server/config"
)

// ChatThrottle rate-limits chat and name-change messages per sender. It is
// a fixed ceiling, not adaptive: enough to bound worst-case CPU per room.
type ChatThrottle struct {
	perSec   rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// NewChatThrottle creates a throttle from the configured ceiling.
func NewChatThrottle(cfg config.ModerationConfig) *ChatThrottle {
	perSec := cfg.ChatMessagesPerSec
	if perSec <= 0 {
		perSec = 4
	}
	burst := cfg.ChatBurst
	if burst <= 0 {
		burst = perSec
	}
	return &ChatThrottle{
		perSec:   rate.Limit(perSec),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether the sender may emit one more message now.
func (t *ChatThrottle) Allow(senderID string) bool {
	lim, ok := t.limiters[senderID]
	if !ok {
		lim = rate.NewLimiter(t.perSec, t.burst)
		t.limiters[senderID] = lim
	}
	return lim.Allow()
}

// Forget drops the sender's limiter on disconnect.
func (t *ChatThrottle) Forget(senderID string) {
	delete(t.limiters, senderID)
}
