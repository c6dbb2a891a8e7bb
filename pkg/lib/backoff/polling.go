package backoff

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Polling phases.
const (
	PhaseFast    = "fast"
	PhaseRamp    = "ramp"
	PhasePlateau = "plateau"
)

const minPollingDelay = 50 * time.Millisecond

// PollingConfig tunes a Polling strategy. Zero fields take the defaults of
// DefaultPollingConfig.
type PollingConfig struct {
	// Context names the operation in log lines.
	Context        string
	FastAttempts   int
	FastDelay      time.Duration
	RampUntil      time.Duration
	PlateauDelay   time.Duration
	JitterRatio    float64
	MaxLogInterval time.Duration
}

func DefaultPollingConfig() PollingConfig {
	return PollingConfig{
		Context:        "operation",
		FastAttempts:   10,
		FastDelay:      100 * time.Millisecond,
		RampUntil:      20 * time.Second,
		PlateauDelay:   5 * time.Second,
		JitterRatio:    0.4,
		MaxLogInterval: 15 * time.Second,
	}
}

func (c PollingConfig) withDefaults() PollingConfig {
	d := DefaultPollingConfig()
	if c.Context == "" {
		c.Context = d.Context
	}
	if c.FastAttempts <= 0 {
		c.FastAttempts = d.FastAttempts
	}
	if c.FastDelay <= 0 {
		c.FastDelay = d.FastDelay
	}
	if c.RampUntil <= 0 {
		c.RampUntil = d.RampUntil
	}
	if c.PlateauDelay <= 0 {
		c.PlateauDelay = d.PlateauDelay
	}
	if c.JitterRatio <= 0 {
		c.JitterRatio = d.JitterRatio
	}
	if c.MaxLogInterval <= 0 {
		c.MaxLogInterval = d.MaxLogInterval
	}
	return c
}

// Polling waits between request-status polls in three phases: a number of
// fast attempts, a ramp towards the plateau delay along a 0.7 power curve,
// then a steady plateau. Every delay is jittered and never below 50ms.
// A Polling value tracks one request; create a new one per request.
type Polling struct {
	cfg     PollingConfig
	start   time.Time
	now     func() time.Time
	jitter  func() float64
	mu      sync.Mutex
	lastLog time.Time
}

func NewPolling(cfg PollingConfig) *Polling {
	return &Polling{
		cfg:    cfg.withDefaults(),
		start:  time.Now(),
		now:    time.Now,
		jitter: rand.Float64,
	}
}

// Delay returns the jittered delay and phase for an attempt.
func (p *Polling) Delay(attempts int) (time.Duration, string) {
	elapsed := p.now().Sub(p.start)
	if attempts < p.cfg.FastAttempts {
		return p.withJitter(p.cfg.FastDelay), PhaseFast
	}
	if elapsed < p.cfg.RampUntil {
		progress := float64(elapsed) / float64(p.cfg.RampUntil)
		base := float64(p.cfg.FastDelay) + float64(p.cfg.PlateauDelay-p.cfg.FastDelay)*math.Pow(progress, 0.7)
		return p.withJitter(time.Duration(base)), PhaseRamp
	}
	return p.withJitter(p.cfg.PlateauDelay), PhasePlateau
}

func (p *Polling) withJitter(base time.Duration) time.Duration {
	spread := float64(base) * p.cfg.JitterRatio
	d := time.Duration(float64(base) - spread + p.jitter()*spread*2)
	if d < minPollingDelay {
		return minPollingDelay
	}
	return d
}

func (p *Polling) BackoffDuration(attempts int) time.Duration {
	d, _ := p.Delay(attempts)
	return d
}

func (p *Polling) Backoff(ctx context.Context, attempts int) {
	p.Wait(ctx, attempts, "")
}

// Wait sleeps before the next poll of a request whose last known status is
// given. It logs at most once a second outside the fast phase, with a
// heartbeat when nothing was logged for MaxLogInterval.
func (p *Polling) Wait(ctx context.Context, attempts int, status string) {
	delay, phase := p.Delay(attempts)
	p.log(ctx, attempts, status, phase, delay)
	sleep(ctx, delay)
}

func (p *Polling) log(ctx context.Context, attempts int, status, phase string, delay time.Duration) {
	p.mu.Lock()
	now := p.now()
	sinceLast := now.Sub(p.lastLog)
	if sinceLast < time.Second && phase != PhaseFast && delay < time.Second {
		p.mu.Unlock()
		return
	}
	heartbeat := !p.lastLog.IsZero() && sinceLast > p.cfg.MaxLogInterval
	p.lastLog = now
	p.mu.Unlock()

	log.Ctx(ctx).Debug().
		Str("context", p.cfg.Context).
		Int("attempt", attempts).
		Dur("elapsed", now.Sub(p.start)).
		Str("status", status).
		Str("phase", phase).
		Bool("heartbeat", heartbeat).
		Dur("next_delay", delay).
		Msg("polling request status")
}

var _ Backoff = (*Polling)(nil)
