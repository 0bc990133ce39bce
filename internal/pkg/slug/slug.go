// Package slug builds URL-safe identifiers from free text.
package slug

import (
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	notSlugChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	spaces       = regexp.MustCompile(`\s+`)
	dashes       = regexp.MustCompile(`-+`)
	notFileChars = regexp.MustCompile(`[^a-z0-9.-]`)
)

// stripMarks decomposes s and drops combining marks, so "Ñoño" becomes "Nono".
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Generate lowercases text, removes diacritics and anything outside
// [a-z0-9 -], turns whitespace runs into single dashes and trims dashes.
//
//	"Casa 3 Hab. en El Poblado" -> "casa-3-hab-en-el-poblado"
//	"Ñoño & Cía. S.A.S."       -> "nono-cia-sas"
func Generate(text string) string {
	s := strings.ToLower(strings.TrimSpace(stripMarks(text)))
	s = notSlugChars.ReplaceAllString(s, "")
	s = spaces.ReplaceAllString(s, "-")
	s = dashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SanitizeFileName makes an uploaded file name safe for an object key:
// lowercase ASCII letters, digits, dots and dashes only.
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	s := strings.ToLower(stripMarks(name))
	s = notFileChars.ReplaceAllString(s, "-")
	s = dashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-.")
	if s == "" {
		return "imagen"
	}
	return s
}
