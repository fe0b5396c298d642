package models

import "strings"

// SanitizeKeySegment escapes the key delimiter so a user-controlled segment
// such as "a:b" cannot address a neighbouring key.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// AuthLockoutKey identifies the failure counter of one login identity.
type AuthLockoutKey struct {
	identifier string
}

// NewAuthLockoutKey keys lockouts by the lower-cased email only, so rotating
// client IPs does not reset the counter.
func NewAuthLockoutKey(email string) AuthLockoutKey {
	return AuthLockoutKey{identifier: SanitizeKeySegment(strings.ToLower(strings.TrimSpace(email)))}
}

func (k AuthLockoutKey) String() string {
	return "auth_lockout:" + k.identifier
}
