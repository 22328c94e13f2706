package auth

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost is used when no cost is configured.
const DefaultBcryptCost = 10

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
