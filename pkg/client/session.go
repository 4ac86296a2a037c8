package client

import "time"

// DefaultGateTTL is how long a verified site password is remembered.
const DefaultGateTTL = 24 * time.Hour

// GateSession remembers when the site password was last verified.
type GateSession struct {
	VerifiedAt time.Time     `json:"verifiedAt"`
	TTL        time.Duration `json:"ttl"`
}

// NewGateSession records a verification at now.
func NewGateSession(now time.Time, ttl time.Duration) GateSession {
	if ttl <= 0 {
		ttl = DefaultGateTTL
	}
	return GateSession{VerifiedAt: now, TTL: ttl}
}

// IsValid reports whether the verification is still fresh at now.
func (s GateSession) IsValid(now time.Time) bool {
	if s.VerifiedAt.IsZero() {
		return false
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultGateTTL
	}
	return now.Sub(s.VerifiedAt) < ttl
}
