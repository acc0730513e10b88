// Package normalizers provides the string normalization shared by matching, duplicate
// detection and contact comparison.
package normalizers

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

var registry = make(map[string]Normalizer)

func init() {
	Register("trim", Trim)
	Register("lowercase", Lowercase)
	Register("collapse_whitespace", CollapseWhitespace)
	Register("remove_punctuation", RemovePunctuation)
	Register("match", ForMatching)
	Register("nphone", NormalizePhone)
	Register("nemail", NormalizeEmail)
	Register("ntelegram", NormalizeTelegram)
	Register("nwebsite", NormalizeWebsite)
	Register("digits_only", DigitsOnly)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer. Unknown names leave the value untouched.
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// Canonical repairs invalid UTF-8 and folds compatibility forms (NFKC), so that
// non-breaking spaces, full-width letters and composed/decomposed "й" compare equal.
func Canonical(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return norm.NFKC.String(s)
}

// ForMatching is the catalog matching normalization: canonical form, trimmed,
// lowercased, internal whitespace collapsed. Punctuation is kept because hyphens and
// separators carry meaning in names.
func ForMatching(s string) string {
	return CollapseWhitespace(strings.ToLower(Canonical(s)))
}

func Trim(s string) string {
	return strings.TrimSpace(s)
}

func Lowercase(s string) string {
	return strings.ToLower(s)
}

// CollapseWhitespace trims and replaces every whitespace run with one space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RemovePunctuation drops punctuation and symbol runes.
func RemovePunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone keeps digits only. Russian trunk-prefixed numbers (8XXXXXXXXXX) are
// rewritten to the +7 form so both spellings compare equal.
func NormalizePhone(s string) string {
	digits := DigitsOnly(Canonical(s))
	if len(digits) == 11 && digits[0] == '8' {
		digits = "7" + digits[1:]
	}
	return digits
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(Canonical(s)))
}

// NormalizeTelegram lowercases a handle and strips the leading "@" and any t.me prefix.
func NormalizeTelegram(s string) string {
	s = strings.ToLower(strings.TrimSpace(Canonical(s)))
	for _, prefix := range []string{"https://t.me/", "http://t.me/", "t.me/"} {
		s = strings.TrimPrefix(s, prefix)
	}
	return strings.TrimPrefix(s, "@")
}

// NormalizeWebsite drops scheme, "www." and trailing slashes.
func NormalizeWebsite(s string) string {
	s = strings.ToLower(strings.TrimSpace(Canonical(s)))
	for _, prefix := range []string{"https://", "http://"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimPrefix(s, "www.")
	return strings.TrimRight(s, "/")
}
