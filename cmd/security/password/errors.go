package password

import "errors"

// Error kinds returned by Decode, Encode and Hash. Verify never returns them; it logs them.
var (
	ErrFormat = errors.New("malformed credential")
	ErrDecode = errors.New("undecodable credential payload")
	ErrCrypto = errors.New("key derivation failed")

	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrWeakPassword     = errors.New("weak password")
)

// ErrorKind returns a stable label for logs and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFormat):
		return "format"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrCrypto):
		return "crypto"
	default:
		return "unknown"
	}
}
