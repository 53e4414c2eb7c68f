package password

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	// KDFScrypt is the only key-derivation tag herd understands.
	KDFScrypt = "scrypt"

	// KeyLength is the derived key size for every credential, whatever the password length.
	KeyLength = 64

	// Costs implied by the legacy form, which carries no cost fields.
	ImplicitN = 16384
	ImplicitR = 8
	ImplicitP = 1
)

// Format identifies which textual form a credential was read from or will be written as.
type Format int

const (
	// FormatExplicit is scrypt:<n>:<r>:<p>$<salt_b64>$<key_hex>.
	FormatExplicit Format = iota
	// FormatImplicit is scrypt$<salt_b64>$<key_b64>.
	FormatImplicit
)

func (f Format) String() string {
	switch f {
	case FormatExplicit:
		return "explicit"
	case FormatImplicit:
		return "implicit"
	default:
		return "unknown"
	}
}

// Credential is a decoded stored password hash.
type Credential struct {
	KDF    string
	N      uint32
	R      uint32
	P      uint32
	Salt   []byte
	Key    []byte
	Format Format
}

// String serializes the credential in its own format.
func (c Credential) String() string {
	b64 := base64.StdEncoding
	if c.Format == FormatImplicit {
		return KDFScrypt + "$" + b64.EncodeToString(c.Salt) + "$" + b64.EncodeToString(c.Key)
	}
	return fmt.Sprintf("%s:%d:%d:%d$%s$%s",
		KDFScrypt, c.N, c.R, c.P,
		b64.EncodeToString(c.Salt),
		hex.EncodeToString(c.Key),
	)
}

// Encode derives a key from password and salt with the given scrypt costs and returns
// it in the explicit format.
func Encode(password string, salt []byte, n, r, p uint32) (string, error) {
	key, err := deriveKey(password, salt, n, r, p)
	if err != nil {
		return "", err
	}
	c := Credential{
		KDF:    KDFScrypt,
		N:      n,
		R:      r,
		P:      p,
		Salt:   salt,
		Key:    key,
		Format: FormatExplicit,
	}
	return c.String(), nil
}

// Decode parses a stored credential in either format.
// Structural problems wrap ErrFormat; bad base64/hex payloads wrap ErrDecode.
func Decode(encoded string) (Credential, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 {
		return Credential{}, fmt.Errorf("%w: expected 3 '$'-separated fields, got %d", ErrFormat, len(parts))
	}

	c := Credential{KDF: KDFScrypt}

	head := strings.Split(parts[0], ":")
	if head[0] != KDFScrypt {
		return Credential{}, fmt.Errorf("%w: unsupported kdf", ErrFormat)
	}
	switch len(head) {
	case 1:
		c.Format = FormatImplicit
		c.N, c.R, c.P = ImplicitN, ImplicitR, ImplicitP
	case 4:
		c.Format = FormatExplicit
		costs := [3]*uint32{&c.N, &c.R, &c.P}
		for i, dst := range costs {
			v, err := strconv.ParseUint(head[i+1], 10, 32)
			if err != nil {
				return Credential{}, fmt.Errorf("%w: cost field %d is not an integer", ErrFormat, i+1)
			}
			*dst = uint32(v)
		}
	default:
		return Credential{}, fmt.Errorf("%w: expected 0 or 3 cost fields, got %d", ErrFormat, len(head)-1)
	}

	salt, err := decodeB64(parts[1])
	if err != nil {
		return Credential{}, fmt.Errorf("%w: salt: %v", ErrDecode, err)
	}

	var key []byte
	if c.Format == FormatImplicit {
		key, err = decodeB64(parts[2])
	} else {
		key, err = hex.DecodeString(parts[2])
	}
	if err != nil {
		return Credential{}, fmt.Errorf("%w: key: %v", ErrDecode, err)
	}
	if len(key) == 0 {
		return Credential{}, fmt.Errorf("%w: empty key", ErrDecode)
	}

	c.Salt = salt
	c.Key = key
	return c, nil
}

// decodeB64 accepts padded standard base64 (what we write) and the unpadded variant.
func decodeB64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return b, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(s); rawErr == nil {
		return raw, nil
	}
	return nil, err
}

func deriveKey(password string, salt []byte, n, r, p uint32) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), salt, int(n), int(r), int(p), KeyLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	return key, nil
}
