// Package isbn normalizes, validates and converts ISBN-10 and ISBN-13 identifiers.
package isbn

import (
	"strings"
)

// Normalize strips every character except digits and X/x, then uppercases the result.
func Normalize(raw string) string {
	var sb strings.Builder
	sb.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == 'x' || r == 'X':
			sb.WriteByte('X')
		}
	}
	return sb.String()
}

// IsValidISBN10 reports whether s is a well-formed ISBN-10 with a correct mod-11 check value.
func IsValidISBN10(s string) bool {
	if len(s) != 10 {
		return false
	}

	sum := 0
	for i := 0; i < 9; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		sum += (10 - i) * int(c-'0')
	}

	check, ok := checkValue10(s[9])
	if !ok {
		return false
	}
	return (sum+check)%11 == 0
}

// IsValidISBN13 reports whether s is a 978/979-prefixed ISBN-13 with a correct check digit.
func IsValidISBN13(s string) bool {
	if len(s) != 13 || !hasBooklandPrefix(s) {
		return false
	}
	for i := 0; i < 13; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return checkDigit13(s[:12]) == s[12]
}

// IsValid reports whether the normalized form of raw is a valid ISBN-10 or ISBN-13.
func IsValid(raw string) bool {
	s := Normalize(raw)
	return IsValidISBN10(s) || IsValidISBN13(s)
}

// ToISBN13 converts a valid ISBN-10 to its 978-prefixed ISBN-13 form.
// The second return value is false when the input is not a valid ISBN-10.
func ToISBN13(isbn10 string) (string, bool) {
	s := Normalize(isbn10)
	if !IsValidISBN10(s) {
		return "", false
	}
	body := "978" + s[:9]
	return body + string(checkDigit13(body)), true
}

// ToISBN10 converts a valid ISBN-13 to ISBN-10 form using digits 4-12.
// Only the 978/979 prefixes are accepted; a check value of 10 is written as X.
func ToISBN10(isbn13 string) (string, bool) {
	s := Normalize(isbn13)
	if !IsValidISBN13(s) {
		return "", false
	}
	body := s[3:12]
	return body + string(checkChar10(body)), true
}

// EquivalenceSet returns the normalized identifier together with its converted
// counterpart. Invalid input yields an empty (non-nil) set.
func EquivalenceSet(raw string) map[string]struct{} {
	set := make(map[string]struct{}, 2)
	s := Normalize(raw)

	switch {
	case IsValidISBN10(s):
		set[s] = struct{}{}
		if thirteen, ok := ToISBN13(s); ok {
			set[thirteen] = struct{}{}
		}
	case IsValidISBN13(s):
		set[s] = struct{}{}
		if ten, ok := ToISBN10(s); ok {
			set[ten] = struct{}{}
		}
	}

	return set
}

// Equivalent reports whether a and b name the same edition once normalized and converted.
func Equivalent(a, b string) bool {
	setA := EquivalenceSet(a)
	if len(setA) == 0 {
		return false
	}
	for id := range EquivalenceSet(b) {
		if _, ok := setA[id]; ok {
			return true
		}
	}
	return false
}

// Canonical returns the ISBN-13 form of a valid identifier, or "" when raw is invalid.
func Canonical(raw string) string {
	s := Normalize(raw)
	if IsValidISBN13(s) {
		return s
	}
	if thirteen, ok := ToISBN13(s); ok {
		return thirteen
	}
	return ""
}

func hasBooklandPrefix(s string) bool {
	return strings.HasPrefix(s, "978") || strings.HasPrefix(s, "979")
}

func checkValue10(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c == 'X' || c == 'x':
		return 10, true
	}
	return 0, false
}

// checkChar10 computes the ISBN-10 check character for a 9-digit body.
func checkChar10(body string) byte {
	sum := 0
	for i := 0; i < 9; i++ {
		sum += (10 - i) * int(body[i]-'0')
	}
	check := (11 - sum%11) % 11
	if check == 10 {
		return 'X'
	}
	return byte('0' + check)
}

// checkDigit13 computes the ISBN-13 check digit for a 12-digit body.
func checkDigit13(body string) byte {
	sum := 0
	for i := 0; i < 12; i++ {
		weight := 1
		if i%2 == 1 {
			weight = 3
		}
		sum += weight * int(body[i]-'0')
	}
	return byte('0' + (10-sum%10)%10)
}
