package operators

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"

	"herd/cmd/security/password"
)

// Authenticator checks operator username/password pairs.
type Authenticator struct {
	store    Store
	verifier *password.Verifier
	log      *slog.Logger

	// dummyHash is verified against when the username is unknown so both failure
	// paths cost one key derivation.
	dummyHash string
}

// NewAuthenticator builds an Authenticator. cfg.Params shapes the dummy credential.
func NewAuthenticator(store Store, verifier *password.Verifier, cfg password.Config, log *slog.Logger) (*Authenticator, error) {
	if store == nil {
		return nil, errors.New("operators: nil store")
	}
	if verifier == nil {
		return nil, errors.New("operators: nil verifier")
	}
	if log == nil {
		log = slog.Default()
	}

	salt := make([]byte, cfg.Params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("operators: dummy salt: %w", err)
	}
	dummy, err := password.Encode("dummy-password-for-timing-only", salt, cfg.Params.N, cfg.Params.R, cfg.Params.P)
	if err != nil {
		return nil, fmt.Errorf("operators: dummy hash: %w", err)
	}

	return &Authenticator{
		store:     store,
		verifier:  verifier,
		log:       log,
		dummyHash: dummy,
	}, nil
}

// Authenticate reports whether pw is the password of username.
//
// Unknown usernames and wrong passwords both yield ok=false with a nil error. An
// error is returned only when the operator store could not be consulted.
func (a *Authenticator) Authenticate(ctx context.Context, username, pw string) (Operator, bool, error) {
	cred, err := a.store.GetCredential(ctx, username)
	if err != nil {
		if IsNotFound(err) {
			_ = a.verifier.Verify(a.dummyHash, pw)
			a.log.Info("operators.auth.fail", "reason", "not_found")
			return Operator{}, false, nil
		}
		a.log.Error("operators.auth.lookup.fail", "err", err)
		return Operator{}, false, err
	}

	if !a.verifier.Verify(cred.PasswordHash, pw) {
		a.log.Info("operators.auth.fail", "reason", "bad_password", "operator_id", cred.Operator.ID)
		return Operator{}, false, nil
	}

	a.log.Debug("operators.auth.ok", "operator_id", cred.Operator.ID)
	return cred.Operator, true, nil
}
