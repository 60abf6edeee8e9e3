package util

import "strings"

var prohibitedSubstrings = []string{ // nolint:gochecknoglobals
	"nigger",
	"nigga",
	"faggot",
	"kike",
	"chink",
	"spic",
	"wetback",
	"gook",
	"coon",
	"paki",
	"raghead",
	"tranny",
	"porchmonkey",
	"zipperhead",
	"sandnigger",
}

// Leetspeak and separators commonly used to dodge the filter. An empty string
// drops the character.
var slurSubstitutions = map[rune]string{ // nolint:gochecknoglobals
	'0': "o", '1': "i", '2': "z", '3': "e", '4': "a",
	'5': "s", '6': "g", '7': "t", '8': "b", '9': "g",
	'@': "a", '$': "s", '!': "i",
	'?': "", '*': "", '#': "", '^': "", '&': "",
	'_': "", '-': "", '.': "", ',': "",
}

// ContainsProhibitedSlur reports whether the normalized input contains one of
// the prohibited terms.
func ContainsProhibitedSlur(input string) bool {
	if input == "" {
		return false
	}

	var sanitized strings.Builder
	for _, c := range strings.ToLower(input) {
		if c >= 'a' && c <= 'z' {
			sanitized.WriteRune(c)
			continue
		}

		if sub, ok := slurSubstitutions[c]; ok {
			sanitized.WriteString(sub)
		}
	}

	str := sanitized.String()
	for _, term := range prohibitedSubstrings {
		if strings.Contains(str, term) {
			return true
		}
	}

	return false
}
