package core

import (
	"fmt"
	"strings"
)

const (
	// InvalidSessionID marks a session whose identifier was never set.
	InvalidSessionID int64 = -1
	// GuestSessionID identifies the logged-out app-only session.
	GuestSessionID int64 = 0
)

type Session struct {
	ID         int64
	UserName   string
	Credential Credential
}

func NewUserSession(cred SignedPairCredential, userID int64, userName string) (Session, error) {
	if strings.TrimSpace(cred.Token) == "" {
		return Session{}, fmt.Errorf("core: session auth token is required")
	}
	return Session{
		ID:         userID,
		UserName:   strings.TrimSpace(userName),
		Credential: cred,
	}, nil
}

func NewGuestSession(cred BearerCredential) Session {
	return Session{
		ID:         GuestSessionID,
		Credential: cred,
	}
}

func (s Session) IsGuest() bool {
	_, ok := s.Credential.(BearerCredential)
	return ok
}

func (s Session) SignedPair() (SignedPairCredential, bool) {
	cred, ok := s.Credential.(SignedPairCredential)
	return cred, ok
}

func (s Session) Bearer() (BearerCredential, bool) {
	cred, ok := s.Credential.(BearerCredential)
	return cred, ok
}

func (s Session) Validate() error {
	if s.ID == InvalidSessionID {
		return fmt.Errorf("core: session id is invalid")
	}
	if s.Credential == nil {
		return fmt.Errorf("core: session credential is required")
	}
	return nil
}
