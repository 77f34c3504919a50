package auth

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

// ErrUnsupportedHash is returned for a password hash in an unknown format
var ErrUnsupportedHash = errors.New("unsupported password hash format")

const defaultPBKDF2Iterations = 600000

// VerifyPassword checks password against a stored hash. Accepted formats are
// bcrypt ($2a$, $2b$, $2y$) and the "method$salt$hex" layout written by
// werkzeug with pbkdf2:<digest>[:iterations] or scrypt[:n:r:p].
func VerifyPassword(encoded, password string) (bool, error) {
	if strings.HasPrefix(encoded, "$2") {
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return err == nil, err
	}

	parts := strings.SplitN(encoded, "$", 3)
	if len(parts) != 3 {
		return false, ErrUnsupportedHash
	}
	method, salt, want := parts[0], parts[1], parts[2]
	expected, err := hex.DecodeString(want)
	if err != nil {
		return false, ErrUnsupportedHash
	}

	got, err := derive(method, []byte(salt), []byte(password), len(expected))
	if err != nil {
		return false, err
	}
	return hmac.Equal(got, expected), nil
}

func derive(method string, salt, password []byte, keyLen int) ([]byte, error) {
	fields := strings.Split(method, ":")
	switch fields[0] {
	case "pbkdf2":
		if len(fields) < 2 {
			return nil, ErrUnsupportedHash
		}
		h, ok := digests[fields[1]]
		if !ok {
			return nil, ErrUnsupportedHash
		}
		iterations := defaultPBKDF2Iterations
		if len(fields) > 2 {
			n, err := strconv.Atoi(fields[2])
			if err != nil || n <= 0 {
				return nil, ErrUnsupportedHash
			}
			iterations = n
		}
		return pbkdf2.Key(password, salt, iterations, keyLen, h), nil
	case "scrypt":
		n, r, p := 1<<15, 8, 1
		if len(fields) == 4 {
			var err error
			if n, err = strconv.Atoi(fields[1]); err != nil {
				return nil, ErrUnsupportedHash
			}
			if r, err = strconv.Atoi(fields[2]); err != nil {
				return nil, ErrUnsupportedHash
			}
			if p, err = strconv.Atoi(fields[3]); err != nil {
				return nil, ErrUnsupportedHash
			}
		}
		return scrypt.Key(password, salt, n, r, p, keyLen)
	}
	return nil, ErrUnsupportedHash
}

var digests = map[string]func() hash.Hash{
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha512": sha512.New,
}

// HashPassword returns a bcrypt hash suitable for login.json
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
