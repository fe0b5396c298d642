package domain

import (
	"regexp"
	"strings"

	dErrors "medgate/pkg/domain-errors"
)

// NationalID is a canonical CI (cédula de identidad): a nationality letter
// (V, E or P) followed by 7 to 9 digits, upper-case, without separators.
type NationalID string

var nationalIDPattern = regexp.MustCompile(`^[VEP]-?\d{7,9}$`)

// ParseNationalID validates raw input against the CI format and returns its
// canonical form. Input is trimmed and upper-cased; an optional dash after the
// letter is accepted and dropped, so "v-12345678" becomes "V12345678".
func ParseNationalID(s string) (NationalID, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeMalformedInput, "ci is required")
	}
	if !nationalIDPattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeMalformedInput, "ci must match [VEP]-?\\d{7,9}")
	}
	return NationalID(strings.Replace(s, "-", "", 1)), nil
}

func (n NationalID) String() string {
	return string(n)
}
