// Package ratelimit implements the global gate that blocks outbound GitHub
// calls after a quota violation. The guard has two states, Clear and
// Blocked(until); there is exactly one guard per client and it makes no
// distinction between endpoints, tokens or call types.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dipcp/dipcp/internal/client/events"
	"github.com/dipcp/dipcp/internal/client/models"
	"github.com/dipcp/dipcp/internal/client/settings"
	"github.com/dipcp/dipcp/internal/common"
	"github.com/dipcp/dipcp/internal/logging"
)

// Window is the fixed cool-down after the first detected violation. Repeat
// violations inside the window do not extend it.
const Window = time.Hour

const settingsKey = common.SettingsPrefix + "rate-limit"

// Notification is the payload published on events.TopicRateLimitExceeded.
type Notification struct {
	BlockedUntil time.Time     `json:"blocked_until"`
	Remaining    time.Duration `json:"remaining"`
}

// Guard tracks the blocked-until deadline, persisted across restarts via the
// settings store. The Blocked→Clear transition is lazy: it happens on the
// first status check past the deadline, which also purges the persisted
// record.
type Guard struct {
	mu       sync.Mutex
	settings *settings.Store
	bus      *events.Bus
	log      logging.Logger
	now      func() time.Time

	state *models.RateLimitState // nil when clear (as far as memory knows)
}

func NewGuard(st *settings.Store, bus *events.Bus, log logging.Logger) *Guard {
	g := &Guard{settings: st, bus: bus, log: log, now: time.Now}

	var persisted models.RateLimitState
	if err := st.Get(settingsKey, &persisted); err == nil {
		g.state = &persisted
	} else if !errors.Is(err, common.ErrNotFound) {
		log.Warn(context.Background(), "failed to load rate-limit state", "error", err)
	}

	return g
}

// IsBlocked reports whether outbound calls are currently gated.
func (g *Guard) IsBlocked() bool {
	return g.Remaining() > 0
}

// Remaining returns how long the current block still lasts, or 0 when clear.
// Checking past the deadline clears the persisted state.
func (g *Guard) Remaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == nil {
		return 0
	}

	remaining := g.state.BlockedUntil.Sub(g.now())
	if remaining <= 0 {
		g.state = nil
		if err := g.settings.Delete(settingsKey); err != nil {
			g.log.Warn(context.Background(), "failed to purge rate-limit state", "error", err)
		}
		return 0
	}
	return remaining
}

// RecordViolation transitions the guard to Blocked for the fixed window and
// publishes a rate-limit-exceeded notification. Recording while already
// blocked is a no-op; the window is never extended.
func (g *Guard) RecordViolation() {
	g.mu.Lock()

	now := g.now()
	if g.state != nil && now.Before(g.state.BlockedUntil) {
		g.mu.Unlock()
		return
	}

	state := &models.RateLimitState{
		BlockedUntil: now.Add(Window),
		RecordedAt:   now,
	}
	g.state = state
	if err := g.settings.Set(settingsKey, state); err != nil {
		g.log.Warn(context.Background(), "failed to persist rate-limit state", "error", err)
	}
	g.mu.Unlock()

	g.log.Warn(context.Background(), "github rate limit hit, pausing outbound calls",
		"blocked_until", state.BlockedUntil)
	g.bus.Publish(events.TopicRateLimitExceeded, Notification{
		BlockedUntil: state.BlockedUntil,
		Remaining:    Window,
	})
}
