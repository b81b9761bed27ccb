package commit

import "time"

// DefaultMaxAttempts bounds the commit loop when Policy.MaxAttempts is unset.
const DefaultMaxAttempts = 16

// Policy controls how a commit reacts to losing the generation race.
type Policy struct {
	// MaxAttempts is the number of transform runs before giving up.
	// Values <= 0 select DefaultMaxAttempts; the loop is never unbounded.
	MaxAttempts int
	// Backoff is the delay before the first retry, doubled on each further
	// retry. Zero retries immediately after yielding the processor.
	Backoff time.Duration
	// MaxBackoff caps the retry delay. Zero means no cap.
	MaxBackoff time.Duration
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts}
}

func (p Policy) attempts() int {
	if p.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return p.MaxAttempts
}

// delay returns the wait before retry number retry (1-based).
func (p Policy) delay(retry int) time.Duration {
	if p.Backoff <= 0 || retry <= 0 {
		return 0
	}
	d := p.Backoff
	for i := 1; i < retry; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}
