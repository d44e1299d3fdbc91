package moderation

import (
	"errors"
	"testing"
	"time"

	"wordroom-server/config"
	"wordroom-server/roomerrors"
)

func testModConfig() config.ModerationConfig {
	return config.ModerationConfig{
		PasswordFailureLimit: 3,
		ConnectionsPerMinute: 30,
		ChatMessagesPerSec:   2,
		ChatBurst:            2,
	}
}

func TestBanRejectsAllIdentifiers(t *testing.T) {
	l := NewLedger(testModConfig())
	l.Ban(Identity{IP: "10.0.0.9", ConnID: "conn-1", ClientID: "client-a"})

	cases := []Identity{
		{IP: "10.0.0.9"},
		{ConnID: "conn-1"},
		{ClientID: "client-a", IP: "10.0.0.50"},
	}
	for _, id := range cases {
		if err := l.CheckConnect(id); !errors.Is(err, roomerrors.ErrBanned) {
			t.Errorf("expected ErrBanned for %+v, got %v", id, err)
		}
	}
	if err := l.CheckConnect(Identity{IP: "10.0.0.10", ConnID: "conn-2"}); err != nil {
		t.Errorf("expected clean identity to pass, got %v", err)
	}
}

func TestConnectionRateLimit(t *testing.T) {
	l := NewLedger(testModConfig())

	var limited bool
	for i := 0; i < 40; i++ {
		err := l.CheckConnect(Identity{IP: "203.0.113.7"})
		if errors.Is(err, roomerrors.ErrRateLimited) {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("expected burst of connects from one IP to hit the rate limit")
	}

	// Loopback is exempt.
	for i := 0; i < 40; i++ {
		if err := l.CheckConnect(Identity{IP: "127.0.0.1"}); err != nil {
			t.Fatalf("expected local IP to be exempt, got %v", err)
		}
	}
}

func TestThreePasswordFailuresBanIP(t *testing.T) {
	l := NewLedger(testModConfig())
	ip := "198.51.100.4"

	if l.PasswordFailure(ip) {
		t.Error("first failure should not ban")
	}
	if l.PasswordFailure(ip) {
		t.Error("second failure should not ban")
	}
	if !l.PasswordFailure(ip) {
		t.Error("third failure should ban")
	}
	if err := l.CheckConnect(Identity{IP: ip}); !errors.Is(err, roomerrors.ErrBanned) {
		t.Errorf("expected banned code after three failures, got %v", err)
	}
}

func TestPasswordFailuresDecay(t *testing.T) {
	l := NewLedger(testModConfig())
	ip := "198.51.100.5"
	current := time.Now()
	l.now = func() time.Time { return current }

	l.PasswordFailure(ip)
	l.PasswordFailure(ip)
	current = current.Add(failureDecay + time.Minute)

	if l.PasswordFailure(ip) {
		t.Error("expected decayed counter, not a ban on the third stale failure")
	}
}

func TestClearPasswordFailures(t *testing.T) {
	l := NewLedger(testModConfig())
	ip := "198.51.100.6"

	l.PasswordFailure(ip)
	l.PasswordFailure(ip)
	l.ClearPasswordFailures(ip)
	if l.PasswordFailure(ip) {
		t.Error("expected counter cleared after successful join")
	}
}

func TestChatThrottle(t *testing.T) {
	th := NewChatThrottle(testModConfig())

	allowed := 0
	for i := 0; i < 10; i++ {
		if th.Allow("conn-1") {
			allowed++
		}
	}
	if allowed != 2 {
		t.Errorf("expected burst of 2 allowed, got %d", allowed)
	}

	// Another sender has its own budget.
	if !th.Allow("conn-2") {
		t.Error("expected fresh sender to be allowed")
	}

	th.Forget("conn-1")
	if !th.Allow("conn-1") {
		t.Error("expected budget reset after Forget")
	}
}
