package password

import (
	"bytes"
	"encoding/base64"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/scrypt"
)

// fastConfig keeps derivations cheap; production costs are covered by the benchmark.
func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.Params.N = 16
	cfg.Params.R = 1
	cfg.Params.P = 1
	return cfg
}

type recordingObserver struct {
	mu      sync.Mutex
	results []string
}

func (o *recordingObserver) ObserveVerify(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, result)
}

func quietVerifier(cfg Config, opts ...VerifierOption) *Verifier {
	return NewVerifier(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
}

func TestHashAndVerify_OK(t *testing.T) {
	cfg := fastConfig()

	h, err := cfg.Hash("this is a strong password 123!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	c, err := Decode(h)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(c.Salt) != int(cfg.Params.SaltLength) {
		t.Fatalf("salt length=%d want %d", len(c.Salt), cfg.Params.SaltLength)
	}

	if !quietVerifier(cfg).Verify(h, "this is a strong password 123!") {
		t.Fatalf("expected match")
	}
}

func TestHash_FreshSaltPerCall(t *testing.T) {
	cfg := fastConfig()

	h1, err := cfg.Hash("same password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	h2, err := cfg.Hash("same password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("expected distinct encodings for distinct salts")
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	cfg := fastConfig()
	obs := &recordingObserver{}
	v := quietVerifier(cfg, WithObserver(obs))

	h, err := Encode("right password", []byte("0123456789abcdef"), 16, 1, 1)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	if v.Verify(h, "wrong password") {
		t.Fatalf("expected mismatch")
	}
	if !v.Verify(h, "right password") {
		t.Fatalf("expected match")
	}
	if len(obs.results) != 2 || obs.results[0] != ResultMismatch || obs.results[1] != ResultMatch {
		t.Fatalf("observer results=%v", obs.results)
	}
}

func TestVerify_DefaultCosts(t *testing.T) {
	cfg := DefaultConfig()
	v := quietVerifier(cfg)

	h, err := Encode("admin123", []byte("temporary-salt"), 16384, 8, 1)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if !v.Verify(h, "admin123") {
		t.Fatalf("expected match")
	}
	if v.Verify(h, "admin124") {
		t.Fatalf("expected mismatch")
	}
}

func TestVerify_ImplicitFormat(t *testing.T) {
	salt := []byte("0123456789abcdef")
	key, err := scrypt.Key([]byte("legacy pw"), salt, ImplicitN, ImplicitR, ImplicitP, KeyLength)
	if err != nil {
		t.Fatalf("scrypt: %v", err)
	}
	stored := "scrypt$" + base64.StdEncoding.EncodeToString(salt) + "$" + base64.StdEncoding.EncodeToString(key)

	v := quietVerifier(DefaultConfig())
	if !v.Verify(stored, "legacy pw") {
		t.Fatalf("expected match for implicit-format credential")
	}
	if v.Verify(stored, "Legacy pw") {
		t.Fatalf("expected mismatch")
	}
}

func TestVerify_InvalidCredentialIsFalseAndLogged(t *testing.T) {
	cases := []struct {
		name     string
		stored   string
		wantKind string
	}{
		{name: "format", stored: "not-a-valid-string", wantKind: "kind=format"},
		{name: "decode", stored: "scrypt:16:1:1$c2FsdA==$zz", wantKind: "kind=decode"},
		{name: "crypto", stored: "scrypt:1000:1:1$c2FsdA==$deadbeef", wantKind: "kind=crypto"},
		{name: "limits", stored: "scrypt:33554432:8:1$c2FsdA==$deadbeef", wantKind: "kind=crypto"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			obs := &recordingObserver{}
			v := NewVerifier(fastConfig(), slog.New(slog.NewTextHandler(&buf, nil)), WithObserver(obs))

			if v.Verify(tc.stored, "whatever") {
				t.Fatalf("expected false")
			}
			if !strings.Contains(buf.String(), tc.wantKind) {
				t.Fatalf("log %q does not contain %q", buf.String(), tc.wantKind)
			}
			if len(obs.results) != 1 || obs.results[0] != ResultInvalid {
				t.Fatalf("observer results=%v", obs.results)
			}
		})
	}
}

func TestVerify_ShortStoredKeyNeverMatches(t *testing.T) {
	v := quietVerifier(fastConfig())
	if v.Verify("scrypt:16:1:1$c2FsdA==$deadbeef", "anything") {
		t.Fatalf("a 4-byte stored key must not match a 64-byte derived key")
	}
}

func TestVerify_ConcurrentCalls(t *testing.T) {
	cfg := fastConfig()
	v := quietVerifier(cfg)

	h, err := cfg.Hash("shared password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			want := i%2 == 0
			pw := "shared password"
			if !want {
				pw = "other password"
			}
			if got := v.Verify(h, pw); got != want {
				errs <- pw
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for pw := range errs {
		t.Fatalf("unexpected verify result for %q", pw)
	}
}

func TestValidate_MinMax(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy.MinLength = 12
	cfg.Policy.MaxLength = 16

	if err := cfg.Validate("short"); err != ErrPasswordTooShort {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if err := cfg.Validate("this password is definitely too long"); err != ErrPasswordTooLong {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if err := cfg.Validate("goodpassw0rd!"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestPolicy_RejectVeryWeak(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy.RejectVeryWeak = true
	cfg.Policy.MinLength = 8

	for _, pw := range []string{"password", "Admin123", "11111111", "aaaaaaaaaa", "20240101"} {
		if err := cfg.Validate(pw); err != ErrWeakPassword {
			t.Fatalf("Validate(%q): expected ErrWeakPassword, got %v", pw, err)
		}
	}
	if err := cfg.Validate("a-very-ok-pass"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestHash_PolicyViolation(t *testing.T) {
	cfg := fastConfig()
	if _, err := cfg.Hash("short"); err != ErrPasswordTooShort {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}
