package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.IssueToken("session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id, err := issuer.ParseToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "session-1" {
		t.Errorf("expected session-1, got %q", id)
	}
}

func TestTokenIssuer_RejectsForeignSignature(t *testing.T) {
	token, err := NewTokenIssuer("other", time.Hour).IssueToken("session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = NewTokenIssuer("secret", time.Hour).ParseToken(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	start := time.Now()
	issuer.now = func() time.Time { return start }

	token, err := issuer.IssueToken("session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	issuer.now = func() time.Time { return start.Add(2 * time.Hour) }
	if _, err := issuer.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenIssuer_RejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := issuer.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestTokenIssuer_NeedsRefresh(t *testing.T) {
	start := time.Date(2021, 1, 8, 12, 0, 0, 0, time.UTC)
	now := start
	issuer := NewTokenIssuer("secret", 12*time.Hour, WithClock(func() time.Time { return now }))

	token, err := issuer.IssueToken("session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		elapsed time.Duration
		want    bool
	}{
		{0, false},
		{5 * time.Hour, false},
		{6*time.Hour + time.Second, true},
		{11 * time.Hour, true},
	}

	for _, tt := range tests {
		now = start.Add(tt.elapsed)
		claims, err := issuer.Parse(token)
		if err != nil {
			t.Fatalf("after %v: unexpected error: %v", tt.elapsed, err)
		}
		if claims.SessionID != "session-1" {
			t.Errorf("expected session-1, got %q", claims.SessionID)
		}
		if got := issuer.NeedsRefresh(claims); got != tt.want {
			t.Errorf("after %v: NeedsRefresh = %v, want %v", tt.elapsed, got, tt.want)
		}
	}
}
