package auth

import "golang.org/x/crypto/bcrypt"

// MaxSecretBytes is bcrypt's input limit, counted in bytes.
const MaxSecretBytes = 72

// HashSecret hashes a plaintext secret with the configured cost. A cost outside
// bcrypt's range falls back to bcrypt.DefaultCost.
func HashSecret(secret string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CompareSecret verifies a secret against its hashed value.
func CompareSecret(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
