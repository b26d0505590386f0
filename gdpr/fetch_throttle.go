package gdpr

import (
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/prebid/prebid-privacy-server/config"
	"github.com/prebid/prebid-privacy-server/util/randomutil"
)

// RetryPolicy decides how long to wait after a failed vendor list fetch.
type RetryPolicy interface {
	// NextDelay returns the wait before another attempt may follow attempt number attempt (1-based).
	// A false second value means no more attempts are allowed.
	NextDelay(attempt int) (time.Duration, bool)
}

// NonRetryable allows a single attempt per version.
type NonRetryable struct{}

func (NonRetryable) NextDelay(int) (time.Duration, bool) {
	return 0, false
}

// ExponentialBackoff grows the delay by Factor after every attempt up to MaxDelay. Jitter spreads the
// delay by up to +/- Jitter of its value. MaxAttempts of zero means unlimited.
type ExponentialBackoff struct {
	Delay       time.Duration
	MaxDelay    time.Duration
	Factor      float64
	Jitter      float64
	MaxAttempts int

	Random randomutil.RandomGenerator
}

func (b ExponentialBackoff) NextDelay(attempt int) (time.Duration, bool) {
	if b.MaxAttempts > 0 && attempt >= b.MaxAttempts {
		return 0, false
	}
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(b.Delay) * math.Pow(b.Factor, float64(attempt-1))
	if b.MaxDelay > 0 && delay > float64(b.MaxDelay) {
		delay = float64(b.MaxDelay)
	}
	if b.Jitter > 0 && b.Random != nil {
		delay += delay * b.Jitter * (2*b.Random.GenerateFloat64() - 1)
	}
	return time.Duration(delay), true
}

// NewRetryPolicy builds the retry policy described by the config.
func NewRetryPolicy(cfg config.RetryPolicy, random randomutil.RandomGenerator) RetryPolicy {
	if cfg.Type == config.RetryPolicyNone {
		return NonRetryable{}
	}
	return ExponentialBackoff{
		Delay:       time.Duration(cfg.DelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.MaxDelayMs) * time.Millisecond,
		Factor:      cfg.Factor,
		Jitter:      cfg.Jitter,
		MaxAttempts: cfg.MaxAttempts,
		Random:      random,
	}
}

type fetchThrottleState struct {
	attempts    int
	nextAllowed time.Time
	exhausted   bool
}

// FetchThrottler rate limits fetches of vendor list versions that keep failing. It is safe for concurrent use.
type FetchThrottler struct {
	policy RetryPolicy
	clock  clock.Clock

	mu    sync.Mutex
	state map[int]*fetchThrottleState
}

func NewFetchThrottler(policy RetryPolicy, clk clock.Clock) *FetchThrottler {
	return &FetchThrottler{
		policy: policy,
		clock:  clk,
		state:  make(map[int]*fetchThrottleState),
	}
}

// RegisterFetchAttempt returns true if a fetch of the version may start now, and records the attempt if so.
func (t *FetchThrottler) RegisterFetchAttempt(version int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	s, exists := t.state[version]
	if !exists {
		s = &fetchThrottleState{}
		t.state[version] = s
	} else if s.exhausted || now.Before(s.nextAllowed) {
		return false
	}

	s.attempts++
	delay, ok := t.policy.NextDelay(s.attempts)
	if !ok {
		s.exhausted = true
		return true
	}
	s.nextAllowed = now.Add(delay)
	return true
}

// SucceedFetchAttempt forgets all recorded attempts for the version.
func (t *FetchThrottler) SucceedFetchAttempt(version int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.state, version)
}
