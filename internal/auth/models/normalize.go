package models

import (
	pstrings "medgate/pkg/platform/strings"
)

// NormalizeName folds a personal name for comparison: diacritics removed,
// lower-cased, internal whitespace collapsed. Word content and order are kept,
// so "Carlos Garcia Lopez" never equals "Carlos Garcia".
func NormalizeName(name string) string {
	return pstrings.Fold(name)
}

// NamesMatch compares two names after NormalizeName.
func NamesMatch(a, b string) bool {
	na, nb := NormalizeName(a), NormalizeName(b)
	return na != "" && na == nb
}
