package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitterkit/core"
)

const envelopePrefix = "twitterkit.sealed.v1:"

type Option func(*AppKeySealer)

// AppKeySealer encrypts payloads with AES-GCM under a single application
// key. Keys that are not 16, 24 or 32 bytes are stretched with SHA-256.
type AppKeySealer struct {
	key     []byte
	keyID   string
	version int
}

type envelope struct {
	KeyID      string `json:"kid"`
	Version    int    `json:"ver"`
	Algorithm  string `json:"alg"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

func WithKeyID(id string) Option {
	return func(s *AppKeySealer) {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			s.keyID = trimmed
		}
	}
}

func WithVersion(version int) Option {
	return func(s *AppKeySealer) {
		if version > 0 {
			s.version = version
		}
	}
}

func NewAppKeySealer(keyMaterial []byte, opts ...Option) (*AppKeySealer, error) {
	key := bytes.TrimSpace(keyMaterial)
	if len(key) == 0 {
		return nil, core.NewError("security: key material is required", goerrors.CategoryBadInput, core.ErrorConfigurationFail)
	}
	sealer := &AppKeySealer{
		key:     normalizeKey(key),
		keyID:   "app-key",
		version: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(sealer)
		}
	}
	return sealer, nil
}

func NewAppKeySealerFromString(key string, opts ...Option) (*AppKeySealer, error) {
	return NewAppKeySealer([]byte(key), opts...)
}

func (s *AppKeySealer) Seal(plaintext []byte) ([]byte, error) {
	if s == nil {
		return nil, core.NewError("security: sealer is nil", goerrors.CategoryInternal, core.ErrorInternal)
	}
	if len(plaintext) == 0 {
		return nil, core.NewError("security: plaintext is required", goerrors.CategoryBadInput, core.ErrorBadInput)
	}
	gcm, err := s.aead()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, core.WrapError(err, goerrors.CategoryInternal, "security: nonce generation failed", core.ErrorInternal)
	}

	data, err := json.Marshal(envelope{
		KeyID:      s.keyID,
		Version:    s.version,
		Algorithm:  "aes-gcm",
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(gcm.Seal(nil, nonce, plaintext, nil)),
	})
	if err != nil {
		return nil, core.WrapError(err, goerrors.CategoryInternal, "security: encode envelope", core.ErrorInternal)
	}
	return append([]byte(envelopePrefix), data...), nil
}

func (s *AppKeySealer) Open(sealed []byte) ([]byte, error) {
	if s == nil {
		return nil, core.NewError("security: sealer is nil", goerrors.CategoryInternal, core.ErrorInternal)
	}
	if !IsSealed(sealed) {
		return nil, core.NewError("security: payload is not sealed", goerrors.CategoryBadInput, core.ErrorBadInput)
	}

	var parsed envelope
	if err := json.Unmarshal(sealed[len(envelopePrefix):], &parsed); err != nil {
		return nil, core.WrapError(err, goerrors.CategoryBadInput, "security: decode envelope", core.ErrorBadInput)
	}
	if parsed.KeyID != s.keyID || parsed.Version != s.version {
		return nil, core.NewError("security: key mismatch", goerrors.CategoryBadInput, core.ErrorBadInput).
			WithMetadata(map[string]any{
				"kid":      parsed.KeyID,
				"ver":      parsed.Version,
				"want_kid": s.keyID,
				"want_ver": s.version,
			})
	}

	nonce, err := base64.StdEncoding.DecodeString(parsed.Nonce)
	if err != nil {
		return nil, core.WrapError(err, goerrors.CategoryBadInput, "security: decode nonce", core.ErrorBadInput)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(parsed.Ciphertext)
	if err != nil {
		return nil, core.WrapError(err, goerrors.CategoryBadInput, "security: decode ciphertext", core.ErrorBadInput)
	}
	gcm, err := s.aead()
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, core.NewError("security: nonce has the wrong size", goerrors.CategoryBadInput, core.ErrorBadInput)
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, core.WrapError(err, goerrors.CategoryBadInput, "security: open payload", core.ErrorBadInput)
	}
	return plaintext, nil
}

func (s *AppKeySealer) KeyID() string {
	if s == nil {
		return ""
	}
	return s.keyID
}

func (s *AppKeySealer) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, core.WrapError(err, goerrors.CategoryInternal, "security: create cipher", core.ErrorInternal)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, core.WrapError(err, goerrors.CategoryInternal, "security: create gcm", core.ErrorInternal)
	}
	return gcm, nil
}

// IsSealed reports whether payload carries the sealed envelope prefix.
func IsSealed(payload []byte) bool {
	return bytes.HasPrefix(payload, []byte(envelopePrefix))
}

func normalizeKey(value []byte) []byte {
	if len(value) == 16 || len(value) == 24 || len(value) == 32 {
		key := make([]byte, len(value))
		copy(key, value)
		return key
	}
	sum := sha256.Sum256(value)
	return sum[:]
}
