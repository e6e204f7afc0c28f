package core

import (
	"testing"
	"time"
)

func TestBearerCredential_IsExpired(t *testing.T) {
	now := time.Date(2026, 2, 13, 15, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		issuedAt time.Time
		expired  bool
	}{
		{name: "fresh", issuedAt: now, expired: false},
		{name: "one hour old", issuedAt: now.Add(-time.Hour), expired: false},
		{name: "just under ttl", issuedAt: now.Add(-BearerCredentialTTL + time.Millisecond), expired: false},
		{name: "exactly ttl", issuedAt: now.Add(-BearerCredentialTTL), expired: true},
		{name: "three hours and change", issuedAt: now.Add(-3*time.Hour - time.Minute), expired: true},
		{name: "zero issued at", issuedAt: time.Time{}, expired: true},
		{name: "unix epoch", issuedAt: time.UnixMilli(0), expired: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cred := BearerCredential{TokenType: TokenTypeBearer, AccessToken: "access", GuestToken: "guest", IssuedAt: tc.issuedAt}
			if got := cred.IsExpired(now); got != tc.expired {
				t.Fatalf("expected expired=%v, got %v", tc.expired, got)
			}
		})
	}
}

func TestBearerCredential_AuthType(t *testing.T) {
	if got := (BearerCredential{AccessToken: "a", GuestToken: "g"}).AuthType(); got != AuthTypeGuest {
		t.Fatalf("expected guest auth type, got %q", got)
	}
	if got := (BearerCredential{AccessToken: "a"}).AuthType(); got != AuthTypeOAuth2 {
		t.Fatalf("expected oauth2 auth type, got %q", got)
	}
	if got := (SignedPairCredential{Token: "t", Secret: "s"}).AuthType(); got != AuthTypeOAuth1a {
		t.Fatalf("expected oauth1a auth type, got %q", got)
	}
}

func TestSignedPairCredential_NeverExpires(t *testing.T) {
	cred := SignedPairCredential{Token: "t", Secret: "s"}
	if cred.IsExpired(time.Now().Add(100 * 365 * 24 * time.Hour)) {
		t.Fatalf("signed pair credentials must not expire")
	}
}

func TestBearerCredential_EqualComparesTokenMaterial(t *testing.T) {
	a := BearerCredential{AccessToken: "a", GuestToken: "g", IssuedAt: time.Unix(1, 0)}
	b := BearerCredential{AccessToken: "a", GuestToken: "g", IssuedAt: time.Unix(2, 0)}
	if !a.Equal(b) {
		t.Fatalf("expected equal token material")
	}
	b.GuestToken = "other"
	if a.Equal(b) {
		t.Fatalf("expected different guest tokens to differ")
	}
}

func TestNewUserSession_RequiresToken(t *testing.T) {
	if _, err := NewUserSession(SignedPairCredential{Secret: "s"}, 1, "user"); err == nil {
		t.Fatalf("expected missing token to fail")
	}
	session, err := NewUserSession(SignedPairCredential{Token: "t", Secret: "s"}, 42, " user ")
	if err != nil {
		t.Fatalf("new user session: %v", err)
	}
	if session.ID != 42 || session.UserName != "user" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if session.IsGuest() {
		t.Fatalf("user session must not be guest")
	}
}

func TestAtomicCell_CompareAndSet(t *testing.T) {
	cell := NewAtomicCell(false)
	if !cell.CompareAndSet(false, true) {
		t.Fatalf("expected first swap to succeed")
	}
	if cell.CompareAndSet(false, true) {
		t.Fatalf("expected stale expectation to fail")
	}
	if !cell.Load() {
		t.Fatalf("expected stored value true")
	}

	var zero AtomicCell[*int]
	value := 7
	if !zero.CompareAndSet(nil, &value) {
		t.Fatalf("expected zero-value cell to hold nil")
	}
	if zero.Load() != &value {
		t.Fatalf("expected pointer to be installed")
	}
}
