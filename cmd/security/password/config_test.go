package password

import (
	"os"
	"testing"
)

var envKeys = []string{
	"HERD_SCRYPT_N",
	"HERD_SCRYPT_R",
	"HERD_SCRYPT_P",
	"HERD_SCRYPT_SALT_LEN",
	"HERD_SCRYPT_MAX_N",
	"HERD_SCRYPT_MAX_R",
	"HERD_SCRYPT_MAX_P",
	"HERD_PASSWORD_MIN_LEN",
	"HERD_PASSWORD_MAX_LEN",
	"HERD_PASSWORD_REJECT_VERY_WEAK",
}

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range envKeys {
		_ = os.Unsetenv(k)
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}

	def := DefaultConfig()
	if cfg != def {
		t.Fatalf("defaults mismatch: %+v vs %+v", cfg, def)
	}
	if cfg.Params.N != 16384 || cfg.Params.R != 8 || cfg.Params.P != 1 || cfg.Params.SaltLength != 16 {
		t.Fatalf("unexpected default params: %+v", cfg.Params)
	}
}

func TestFromEnv_Override(t *testing.T) {
	t.Setenv("HERD_SCRYPT_N", "32768")
	t.Setenv("HERD_SCRYPT_R", "8")
	t.Setenv("HERD_SCRYPT_P", "2")
	t.Setenv("HERD_SCRYPT_SALT_LEN", "24")
	t.Setenv("HERD_SCRYPT_MAX_N", "65536")
	t.Setenv("HERD_PASSWORD_MIN_LEN", "10")
	t.Setenv("HERD_PASSWORD_MAX_LEN", "200")
	t.Setenv("HERD_PASSWORD_REJECT_VERY_WEAK", "true")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}

	if cfg.Params.N != 32768 || cfg.Params.R != 8 || cfg.Params.P != 2 || cfg.Params.SaltLength != 24 {
		t.Fatalf("scrypt override failed: %+v", cfg.Params)
	}
	if cfg.Limits.MaxN != 65536 {
		t.Fatalf("limits override failed: %+v", cfg.Limits)
	}
	if cfg.Policy.MinLength != 10 || cfg.Policy.MaxLength != 200 || !cfg.Policy.RejectVeryWeak {
		t.Fatalf("policy override failed: %+v", cfg.Policy)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{name: "min above max", env: map[string]string{"HERD_PASSWORD_MIN_LEN": "20", "HERD_PASSWORD_MAX_LEN": "10"}},
		{name: "n not power of two", env: map[string]string{"HERD_SCRYPT_N": "10000"}},
		{name: "n above limit", env: map[string]string{"HERD_SCRYPT_N": "2097152"}},
		{name: "r not integer", env: map[string]string{"HERD_SCRYPT_R": "eight"}},
		{name: "p out of range", env: map[string]string{"HERD_SCRYPT_P": "0"}},
		{name: "bad bool", env: map[string]string{"HERD_PASSWORD_REJECT_VERY_WEAK": "maybe"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
