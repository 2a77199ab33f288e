package auth

import (
	"digitrack/pkg/apperrors"

	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"
)

const (
	HashCost               = 12
	PasswordMinLength      = 8
	PasswordMinEntropyBits = 30
)

var ErrPasswordTooShort = apperrors.Validation("Password must be at least 8 characters long.")

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	return string(bytes), err
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword enforces the length floor and a minimum entropy.
func ValidatePassword(password string) error {
	if len(password) < PasswordMinLength {
		return ErrPasswordTooShort
	}
	if err := passwordvalidator.Validate(password, PasswordMinEntropyBits); err != nil {
		return apperrors.Validation("Password is not strong enough: " + err.Error())
	}
	return nil
}
