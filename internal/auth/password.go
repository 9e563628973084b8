package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"
	yescrypt "github.com/openwall/yescrypt-go"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUnsupportedHash      = errors.New("unsupported password hash")
	ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")
)

// Algorithm names the scheme used for freshly computed hashes.
type Algorithm string

const (
	SHA512   Algorithm = "sha512"
	SHA256   Algorithm = "sha256"
	Bcrypt   Algorithm = "bcrypt"
	Yescrypt Algorithm = "yescrypt"
)

// Modular-crypt prefixes.
const (
	prefixMD5      = "$1$"
	prefixSHA256   = "$5$"
	prefixSHA512   = "$6$"
	prefixYescrypt = "$y$"

	// yescryptParams is the libxcrypt default cost (N=4096, r=32, p=1).
	yescryptParams = "j9T"
)

// Hasher computes and verifies modular-crypt hashes.
type Hasher interface {
	// Hash returns a fresh hash of plain with a newly generated salt.
	Hash(plain string) (string, error)
	// Verify reports whether hash, recomputed from plain with its own
	// embedded algorithm and salt, matches. It fails with
	// ErrUnsupportedHash for schemes it cannot compute.
	Verify(hash, plain string) (bool, error)
}

type cryptHasher struct {
	alg  Algorithm
	rand io.Reader
}

// NewHasher returns a Hasher that generates alg hashes. Verification
// supports md5-crypt, sha256-crypt, sha512-crypt, bcrypt and yescrypt
// regardless of alg.
func NewHasher(alg Algorithm) (Hasher, error) {
	switch alg {
	case SHA512, SHA256, Bcrypt, Yescrypt:
		return &cryptHasher{alg: alg, rand: rand.Reader}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}
}

func (h *cryptHasher) Hash(plain string) (string, error) {
	switch h.alg {
	case Bcrypt:
		b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case Yescrypt:
		salt := make([]byte, 16)
		if _, err := io.ReadFull(h.rand, salt); err != nil {
			return "", fmt.Errorf("generate salt: %w", err)
		}
		setting := prefixYescrypt + yescryptParams + "$" + encode64(salt)
		b, err := yescrypt.Hash([]byte(plain), []byte(setting))
		if err != nil {
			return "", err
		}
		return string(b), nil
	case SHA256:
		return h.generate(sha256_crypt.New(), prefixSHA256, plain)
	default:
		return h.generate(sha512_crypt.New(), prefixSHA512, plain)
	}
}

func (h *cryptHasher) generate(c crypt.Crypter, prefix, plain string) (string, error) {
	salt, err := newSalt(h.rand, 16)
	if err != nil {
		return "", err
	}
	return c.Generate([]byte(plain), []byte(prefix+salt))
}

func (h *cryptHasher) Verify(hash, plain string) (bool, error) {
	var c crypt.Crypter
	switch {
	case strings.HasPrefix(hash, prefixSHA512):
		c = sha512_crypt.New()
	case strings.HasPrefix(hash, prefixSHA256):
		c = sha256_crypt.New()
	case strings.HasPrefix(hash, prefixMD5):
		c = md5_crypt.New()
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
		return err == nil, nil
	case strings.HasPrefix(hash, prefixYescrypt):
		// The full hash doubles as the setting.
		b, err := yescrypt.Hash([]byte(plain), []byte(hash))
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrUnsupportedHash, err)
		}
		return subtle.ConstantTimeCompare(b, []byte(hash)) == 1, nil
	default:
		// gost-yescrypt ($gy$), scrypt ($7$) and friends are not computable here.
		return false, ErrUnsupportedHash
	}
	// Verify returns nil on success.
	return c.Verify(hash, []byte(plain)) == nil, nil
}

const saltAlphabet = "./0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func newSalt(r io.Reader, n int) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	for i := range b {
		b[i] = saltAlphabet[int(b[i])%len(saltAlphabet)]
	}
	return string(b), nil
}

// encode64 is the little-endian crypt base64 used by yescrypt settings.
func encode64(src []byte) string {
	var sb strings.Builder
	for i := 0; i < len(src); {
		var value, bits uint
		for bits < 24 && i < len(src) {
			value |= uint(src[i]) << bits
			bits += 8
			i++
		}
		for n := uint(0); n < bits; n += 6 {
			sb.WriteByte(saltAlphabet[value&0x3f])
			value >>= 6
		}
	}
	return sb.String()
}
