package model

import "time"

// GateWindow is how long a passcode verification keeps sensitive sections open.
const GateWindow = 30 * time.Minute

// AccessGate is the per-session passcode verification state. It is carried
// in the session and passed through the request context, never held globally.
type AccessGate struct {
	Verified   bool
	VerifiedAt *time.Time
}

// Grant moves the gate to Verified as of now.
func (g *AccessGate) Grant(now time.Time) {
	t := now.UTC()
	g.Verified = true
	g.VerifiedAt = &t
}

// Clear moves the gate back to Unverified.
func (g *AccessGate) Clear() {
	g.Verified = false
	g.VerifiedAt = nil
}

// Open reports whether the gate is Verified and still inside window at now.
// It does not mutate the gate; see Expire.
func (g *AccessGate) Open(now time.Time, window time.Duration) bool {
	if !g.Verified || g.VerifiedAt == nil {
		return false
	}
	return now.Sub(*g.VerifiedAt) <= window
}

// Expire clears a stale verification and reports whether the gate is still open.
func (g *AccessGate) Expire(now time.Time, window time.Duration) bool {
	if g.Open(now, window) {
		return true
	}
	if g.Verified || g.VerifiedAt != nil {
		g.Clear()
	}
	return false
}
