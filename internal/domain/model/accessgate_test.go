package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessGate_ZeroValueIsClosed(t *testing.T) {
	var g AccessGate
	assert.False(t, g.Open(time.Now(), GateWindow))
}

func TestAccessGate_Window(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"immediately", at, true},
		{"inside window", at.Add(29 * time.Minute), true},
		{"at window edge", at.Add(GateWindow), true},
		{"past window", at.Add(GateWindow + time.Second), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var g AccessGate
			g.Grant(at)
			assert.Equal(t, tc.want, g.Open(tc.now, GateWindow))
			assert.True(t, g.Verified, "Open must not mutate")
		})
	}
}

func TestAccessGate_ExpireClearsStaleVerification(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	var g AccessGate
	g.Grant(at)
	require.True(t, g.Expire(at.Add(10*time.Minute), GateWindow))
	require.NotNil(t, g.VerifiedAt)

	assert.False(t, g.Expire(at.Add(GateWindow+time.Second), GateWindow))
	assert.False(t, g.Verified)
	assert.Nil(t, g.VerifiedAt)
}

func TestAccessGate_ExpireClearsTimestampWithoutFlag(t *testing.T) {
	at := time.Now()
	g := AccessGate{VerifiedAt: &at}

	assert.False(t, g.Expire(at, GateWindow))
	assert.Nil(t, g.VerifiedAt)
}

func TestAccessGate_GrantStoresUTC(t *testing.T) {
	loc := time.FixedZone("EST", -5*60*60)
	var g AccessGate
	g.Grant(time.Date(2026, 3, 1, 4, 0, 0, 0, loc))

	require.NotNil(t, g.VerifiedAt)
	assert.Equal(t, time.UTC, g.VerifiedAt.Location())
	assert.Equal(t, 9, g.VerifiedAt.Hour())

	g.Clear()
	assert.False(t, g.Verified)
	assert.Nil(t, g.VerifiedAt)
}
