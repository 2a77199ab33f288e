package booking

import (
	"unicode"

	"github.com/go-playground/validator/v10"
)

// ValidContactNumber rejects any string holding an alphabetic character.
// Digit count and separators are deliberately left unchecked.
func ValidContactNumber(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// ContactNumberTag is the binding tag registered with the request validator.
const ContactNumberTag = "contactnumber"

// RegisterValidators adds the contactnumber tag to v.
func RegisterValidators(v *validator.Validate) error {
	return v.RegisterValidation(ContactNumberTag, func(fl validator.FieldLevel) bool {
		return ValidContactNumber(fl.Field().String())
	})
}
