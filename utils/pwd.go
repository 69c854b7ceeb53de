package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// GetPwd hashes an account password.
func GetPwd(pwd string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPwd verifies a password against its bcrypt hash.
func CheckPwd(pwd string, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pwd)) == nil
}
