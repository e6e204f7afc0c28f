package security

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitterkit/core"
)

// SealedSessionCodec wraps a SessionCodec so stored tokens are encrypted.
// Payloads written before sealing was enabled still decode.
type SealedSessionCodec struct {
	Inner  core.SessionCodec
	Sealer *AppKeySealer
}

func NewSealedSessionCodec(sealer *AppKeySealer) SealedSessionCodec {
	return SealedSessionCodec{Inner: core.JSONSessionCodec{}, Sealer: sealer}
}

func (c SealedSessionCodec) Encode(session core.Session) ([]byte, error) {
	if c.Sealer == nil {
		return nil, core.NewError("security: sealed codec requires a sealer", goerrors.CategoryInternal, core.ErrorInternal)
	}
	payload, err := c.inner().Encode(session)
	if err != nil {
		return nil, err
	}
	return c.Sealer.Seal(payload)
}

func (c SealedSessionCodec) Decode(payload []byte) (core.Session, error) {
	if !IsSealed(payload) {
		return c.inner().Decode(payload)
	}
	if c.Sealer == nil {
		return core.Session{}, core.NewError("security: sealed codec requires a sealer", goerrors.CategoryInternal, core.ErrorInternal)
	}
	plaintext, err := c.Sealer.Open(payload)
	if err != nil {
		return core.Session{}, err
	}
	return c.inner().Decode(plaintext)
}

func (c SealedSessionCodec) inner() core.SessionCodec {
	if c.Inner == nil {
		return core.JSONSessionCodec{}
	}
	return c.Inner
}

var _ core.SessionCodec = SealedSessionCodec{}
