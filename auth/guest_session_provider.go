package auth

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitterkit/core"
)

type GuestCredentialIssuer interface {
	IssueGuestCredential(ctx context.Context) (core.BearerCredential, error)
}

type GuestSessionProviderConfig struct {
	Issuer   GuestCredentialIssuer
	Sessions core.SessionManager
	Now      func() time.Time
	Logger   core.Logger
	Metrics  core.MetricsRecorder
}

// GuestSessionProvider owns the shared guest credential. Fetches are
// serialized so concurrent refreshes of the same expired credential issue
// a single new one.
type GuestSessionProvider struct {
	issuer   GuestCredentialIssuer
	sessions core.SessionManager
	now      func() time.Time
	observer core.Observer

	mu      sync.Mutex
	current core.BearerCredential
}

func NewGuestSessionProvider(cfg GuestSessionProviderConfig) (*GuestSessionProvider, error) {
	if cfg.Issuer == nil {
		return nil, core.NewError("auth: guest session provider requires an issuer", goerrors.CategoryBadInput, core.ErrorGuestIssuance)
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &GuestSessionProvider{
		issuer:   cfg.Issuer,
		sessions: cfg.Sessions,
		now:      now,
		observer: core.NewObserver(cfg.Logger, cfg.Metrics),
	}, nil
}

func (p *GuestSessionProvider) CurrentCredential(ctx context.Context) (core.BearerCredential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current.IsZero() {
		p.restore(ctx)
	}
	if !p.current.IsZero() && !p.current.IsExpired(p.now()) {
		return p.current, nil
	}
	return p.fetchLocked(ctx)
}

// RefreshCredential replaces expired with a new credential unless another
// caller already did.
func (p *GuestSessionProvider) RefreshCredential(ctx context.Context, expired core.BearerCredential) (core.BearerCredential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.current.IsZero() && !p.current.Equal(expired) && !p.current.IsExpired(p.now()) {
		p.observer.IncCounter(ctx, "guest_refresh.collapsed", 1, nil)
		return p.current, nil
	}
	return p.fetchLocked(ctx)
}

func (p *GuestSessionProvider) fetchLocked(ctx context.Context) (core.BearerCredential, error) {
	cred, err := p.issuer.IssueGuestCredential(ctx)
	if err != nil {
		return core.BearerCredential{}, err
	}
	p.current = cred
	if p.sessions != nil {
		if err := p.sessions.SetSession(ctx, core.NewGuestSession(cred)); err != nil {
			p.observer.Warn(ctx, "guest session not stored", map[string]any{"error": err.Error()})
		}
	}
	return cred, nil
}

func (p *GuestSessionProvider) restore(ctx context.Context) {
	if p.sessions == nil {
		return
	}
	session, ok, err := p.sessions.Session(ctx, core.GuestSessionID)
	if err != nil || !ok {
		return
	}
	if cred, ok := session.Bearer(); ok {
		p.current = cred
	}
}

var _ core.GuestCredentialProvider = (*GuestSessionProvider)(nil)
