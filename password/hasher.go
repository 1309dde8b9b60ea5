package password

import (
	"errors"
	"strings"
)

// ErrUnknownHashFormat is returned when no verifier recognizes a stored hash.
var ErrUnknownHashFormat = errors.New("unknown password hash format")

// Verifier checks a plaintext password against a stored hash. A mismatch is
// (false, nil); errors are reserved for malformed hashes.
type Verifier interface {
	Verify(password, encodedHash string) (bool, error)
}

// Hasher produces new hashes as well as verifying them.
type Hasher interface {
	Verifier
	Hash(password string) (string, error)
}

// Multi hashes with Primary and verifies any format it has a verifier for.
type Multi struct {
	Primary Hasher
	Bcrypt  Verifier
}

// NewMulti returns a Multi that hashes with primary and also accepts bcrypt.
func NewMulti(primary Hasher) *Multi {
	return &Multi{Primary: primary, Bcrypt: NewBcrypt(0)}
}

func (m *Multi) Hash(password string) (string, error) {
	return m.Primary.Hash(password)
}

func (m *Multi) Verify(password, encodedHash string) (bool, error) {
	switch {
	case strings.HasPrefix(encodedHash, "$"+algorithmID+"$"):
		return m.Primary.Verify(password, encodedHash)
	case isBcrypt(encodedHash):
		if m.Bcrypt == nil {
			return false, ErrUnknownHashFormat
		}
		return m.Bcrypt.Verify(password, encodedHash)
	default:
		return false, ErrUnknownHashFormat
	}
}
