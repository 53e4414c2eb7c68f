package password

import (
	"fmt"
	"math/bits"
	"os"
	"strconv"
	"strings"
)

// ScryptParams controls the cost of newly issued credentials.
// N must be a power of two greater than 1.
type ScryptParams struct {
	N          uint32
	R          uint32
	P          uint32
	SaltLength uint32
}

// Limits bounds the costs Verify is willing to spend on a stored credential.
type Limits struct {
	MaxN uint32
	MaxR uint32
	MaxP uint32
}

// Policy controls password validation for newly issued credentials.
type Policy struct {
	MinLength      int
	MaxLength      int
	RejectVeryWeak bool
}

// Config is the single configuration surface for this package.
type Config struct {
	Params ScryptParams
	Limits Limits
	Policy Policy
}

// DefaultConfig returns the baseline: the legacy implicit costs, 16-byte salts, and
// verification limits that leave headroom for stronger future settings.
func DefaultConfig() Config {
	return Config{
		Params: ScryptParams{
			N:          ImplicitN,
			R:          ImplicitR,
			P:          ImplicitP,
			SaltLength: 16,
		},
		Limits: Limits{
			MaxN: 1 << 20,
			MaxR: 16,
			MaxP: 4,
		},
		Policy: Policy{
			MinLength:      8,
			MaxLength:      256,
			RejectVeryWeak: false,
		},
	}
}

// FromEnv loads config from environment variables.
//
// Env surface:
// - HERD_SCRYPT_N (power of two)
// - HERD_SCRYPT_R
// - HERD_SCRYPT_P
// - HERD_SCRYPT_SALT_LEN
// - HERD_SCRYPT_MAX_N
// - HERD_SCRYPT_MAX_R
// - HERD_SCRYPT_MAX_P
// - HERD_PASSWORD_MIN_LEN
// - HERD_PASSWORD_MAX_LEN
// - HERD_PASSWORD_REJECT_VERY_WEAK (true/false)
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	u32 := []struct {
		key      string
		dst      *uint32
		min, max uint32
	}{
		{"HERD_SCRYPT_N", &cfg.Params.N, 2, 1 << 22},
		{"HERD_SCRYPT_R", &cfg.Params.R, 1, 64},
		{"HERD_SCRYPT_P", &cfg.Params.P, 1, 16},
		{"HERD_SCRYPT_SALT_LEN", &cfg.Params.SaltLength, 8, 64},
		{"HERD_SCRYPT_MAX_N", &cfg.Limits.MaxN, 2, 1 << 24},
		{"HERD_SCRYPT_MAX_R", &cfg.Limits.MaxR, 1, 64},
		{"HERD_SCRYPT_MAX_P", &cfg.Limits.MaxP, 1, 16},
	}
	for _, f := range u32 {
		v, ok := os.LookupEnv(f.key)
		if !ok {
			continue
		}
		u, err := atou32(v, f.min, f.max)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = u
	}

	if v, ok := os.LookupEnv("HERD_PASSWORD_MIN_LEN"); ok {
		n, err := atoiPositiveInt(v, 1, 1024)
		if err != nil {
			return Config{}, fmt.Errorf("HERD_PASSWORD_MIN_LEN: %w", err)
		}
		cfg.Policy.MinLength = n
	}

	if v, ok := os.LookupEnv("HERD_PASSWORD_MAX_LEN"); ok {
		n, err := atoiPositiveInt(v, 1, 4096)
		if err != nil {
			return Config{}, fmt.Errorf("HERD_PASSWORD_MAX_LEN: %w", err)
		}
		cfg.Policy.MaxLength = n
	}

	if v, ok := os.LookupEnv("HERD_PASSWORD_REJECT_VERY_WEAK"); ok {
		b, err := parseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("HERD_PASSWORD_REJECT_VERY_WEAK: %w", err)
		}
		cfg.Policy.RejectVeryWeak = b
	}

	if err := cfg.Check(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Check reports inconsistent settings: a non power-of-two N, issuing costs that Verify
// would itself refuse, or an inverted length policy.
func (c Config) Check() error {
	if c.Params.N < 2 || bits.OnesCount32(c.Params.N) != 1 {
		return fmt.Errorf("scrypt N must be a power of two > 1, got %d", c.Params.N)
	}
	if c.Params.R == 0 || c.Params.P == 0 {
		return fmt.Errorf("scrypt r and p must be positive")
	}
	if c.Params.N > c.Limits.MaxN || c.Params.R > c.Limits.MaxR || c.Params.P > c.Limits.MaxP {
		return fmt.Errorf(
			"scrypt params (%d,%d,%d) exceed verify limits (%d,%d,%d)",
			c.Params.N, c.Params.R, c.Params.P,
			c.Limits.MaxN, c.Limits.MaxR, c.Limits.MaxP,
		)
	}
	if c.Policy.MinLength > c.Policy.MaxLength {
		return fmt.Errorf(
			"password policy invalid: min_len(%d) > max_len(%d)",
			c.Policy.MinLength,
			c.Policy.MaxLength,
		)
	}
	return nil
}

func atoiPositiveInt(s string, minVal, maxVal int) (int, error) {
	s = strings.TrimSpace(s)
	i64, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}

	i := int(i64)
	if i < minVal || i > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return i, nil
}

func atou32(s string, minVal, maxVal uint32) (uint32, error) {
	s = strings.TrimSpace(s)
	u64, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an unsigned integer")
	}

	u := uint32(u64)
	if u < minVal || u > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return u, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean")
	}
}
