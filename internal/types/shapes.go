package types

import "regexp"

// AddressPattern matches "<number> <words>, <words>, <ST>" with an optional 5-digit zip.
var AddressPattern = regexp.MustCompile(`\d+\s+[A-Za-z0-9.#' ]+?,\s*[A-Za-z.' ]+?,\s*[A-Z]{2}\b(?:\s+\d{5}\b)?`)

var (
	phoneShape   = regexp.MustCompile(`^\(\d{3}\) \d{3}-\d{4}$`)
	payRateShape = regexp.MustCompile(`\$\d+`)
)

// HasAddressShape reports whether s contains a well-formed street address.
func HasAddressShape(s string) bool { return AddressPattern.MatchString(s) }

// HasPhoneShape reports whether s is a normalized (AAA) PPP-LLLL phone number.
func HasPhoneShape(s string) bool { return phoneShape.MatchString(s) }

// HasPayRateShape reports whether s carries a $<digits> amount.
func HasPayRateShape(s string) bool { return payRateShape.MatchString(s) }
