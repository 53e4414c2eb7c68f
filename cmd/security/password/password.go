package password

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log/slog"
)

// Hash validates password against the policy and issues a new explicit-format credential
// with a fresh random salt.
func (c Config) Hash(password string) (string, error) {
	if err := c.Validate(password); err != nil {
		return "", err
	}

	salt := make([]byte, c.Params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	return Encode(password, salt, c.Params.N, c.Params.R, c.Params.P)
}

// Verification outcomes reported to an Observer.
const (
	ResultMatch    = "match"
	ResultMismatch = "mismatch"
	ResultInvalid  = "invalid"
)

// Observer receives one outcome per Verify call.
type Observer interface {
	ObserveVerify(result string)
}

// Verifier checks candidate passwords against stored credentials.
// It holds no mutable state and is safe for concurrent use.
type Verifier struct {
	limits   Limits
	log      *slog.Logger
	observer Observer
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithObserver reports each verification outcome to o.
func WithObserver(o Observer) VerifierOption {
	return func(v *Verifier) {
		if o != nil {
			v.observer = o
		}
	}
}

// NewVerifier builds a Verifier that enforces cfg.Limits.
func NewVerifier(cfg Config, log *slog.Logger, opts ...VerifierOption) *Verifier {
	if log == nil {
		log = slog.Default()
	}
	v := &Verifier{limits: cfg.Limits, log: log}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Verify reports whether candidate matches the stored credential.
//
// A malformed, undecodable or over-limit credential yields false exactly like a wrong
// password; the specific kind is logged for operators and never returned.
// Verify blocks for the duration of one key derivation and cannot be cancelled.
func (v *Verifier) Verify(stored, candidate string) bool {
	cred, err := Decode(stored)
	if err == nil {
		err = v.checkLimits(cred)
	}

	var key []byte
	if err == nil {
		key, err = deriveKey(candidate, cred.Salt, cred.N, cred.R, cred.P)
	}
	if err != nil {
		v.log.Warn("password.verify.invalid_credential", "kind", ErrorKind(err), "err", err)
		v.observe(ResultInvalid)
		return false
	}

	if subtle.ConstantTimeCompare(key, cred.Key) == 1 {
		v.observe(ResultMatch)
		return true
	}
	v.observe(ResultMismatch)
	return false
}

// checkLimits refuses attacker-inflated costs before any derivation work is done.
func (v *Verifier) checkLimits(c Credential) error {
	if c.N > v.limits.MaxN || c.R > v.limits.MaxR || c.P > v.limits.MaxP {
		return fmt.Errorf("%w: costs (%d,%d,%d) exceed limits", ErrCrypto, c.N, c.R, c.P)
	}
	return nil
}

func (v *Verifier) observe(result string) {
	if v.observer != nil {
		v.observer.ObserveVerify(result)
	}
}
