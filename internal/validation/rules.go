// Package validation holds the jellydator/validation rules shared by the KDS request DTOs.
package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/kds/internal/errors"
	kdsDomain "github.com/allisson/kds/internal/kds/domain"
)

// WrapValidationError classifies a validator error as apperrors.ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank rejects strings that are empty after trimming whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// NoControlChars rejects NUL and other control characters.
// Principal ids are joined with NUL separators during key derivation.
var NoControlChars = validation.NewStringRuleWithError(
	func(s string) bool {
		return !strings.ContainsFunc(s, unicode.IsControl)
	},
	validation.NewError("validation_no_control_chars", "must not contain control characters"),
)

// ValidUTF8 rejects byte sequences that are not UTF-8.
var ValidUTF8 = validation.NewStringRuleWithError(
	utf8.ValidString,
	validation.NewError("validation_utf8", "must be valid UTF-8"),
)

// PrincipalID is the rule set for every field naming a principal: requestor,
// target and key owner. The length limit is in bytes and matches the key store column.
var PrincipalID = []validation.Rule{
	validation.Required,
	NotBlank,
	ValidUTF8,
	NoControlChars,
	validation.Length(1, kdsDomain.MaxPrincipalIDLength),
}
