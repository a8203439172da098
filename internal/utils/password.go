package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a bcrypt digest for storage.  The cost comes from
// configuration so tests can use a cheap value.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored digest.  The
// comparison is constant-time inside bcrypt; any error counts as a
// mismatch.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
