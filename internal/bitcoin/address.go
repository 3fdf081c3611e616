// Package bitcoin provides the syntactic address format gate used when a
// withdrawal is submitted. It checks prefix and character set only; it does
// not verify checksums.
package bitcoin

import "regexp"

var (
	// Legacy and P2SH addresses: base58, which excludes 0, O, I and l.
	legacyRe = regexp.MustCompile(`^[13][1-9A-HJ-NP-Za-km-z]{25,62}$`)
	// Bech32 addresses: lowercase, excludes 1, b, i and o after the prefix.
	bech32Re = regexp.MustCompile(`^bc1[02-9ac-hj-np-z]{25,62}$`)
)

// ValidAddress reports whether s looks like a Bitcoin address: prefix bc1,
// 1 or 3 followed by 25-62 characters from the matching character set.
func ValidAddress(s string) bool {
	return legacyRe.MatchString(s) || bech32Re.MatchString(s)
}
