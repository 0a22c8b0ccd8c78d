package resolve

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var punctuation = strings.NewReplacer(".", "", "’", "'", "‘", "'", ",", " ")

// Fold reduces a name to its comparison form: diacritics stripped,
// lowercased, periods dropped and whitespace collapsed. "Luka Dončić" and
// "luka  doncic" fold to the same string.
func Fold(name string) string {
	// Chains hold state, so one is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, name)
	if err != nil {
		s = name
	}
	s = punctuation.Replace(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}
