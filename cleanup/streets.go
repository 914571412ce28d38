package cleanup

import (
	"fmt"
	"regexp"
	"strings"
)

type abbreviation struct {
	pattern     *regexp.Regexp
	replacement string
}

func abbreviations(m ...string) []abbreviation {
	var result []abbreviation
	for i := 0; i+1 < len(m); i += 2 {
		result = append(result, abbreviation{
			pattern:     regexp.MustCompile(fmt.Sprintf(`(?i)\b(?:%s)\b`, m[i])),
			replacement: m[i+1],
		})
	}
	return result
}

var streetTypes = abbreviations(
	"ave|av", "Avenue",
	"rd", "Road",
	"dr", "Drive",
	"blvd", "Boulevard",
	"cres|cr", "Crescent",
	"ct", "Court",
	"pl", "Place",
	"trl|tr", "Trail",
	"pkwy", "Parkway",
	"hwy", "Highway",
	"gt", "Gate",
	"cir", "Circle",
	"ln", "Lane",
	"sq", "Square",
	"terr", "Terrace",
	"hts", "Heights",
	"mtn", "Mountain",
)

// "St." followed by a capitalised word is Saint, as in "St. Mary", and is kept.
var street = regexp.MustCompile(`(?i:\bst\b)(\.\s+\p{Lu}\p{Ll})?`)

// StreetTypes expands abbreviated street types ("St", "Ave", "Rd", ...) to their full names.
func StreetTypes(s string) string {
	s = street.ReplaceAllStringFunc(s, func(m string) string {
		if len(m) > len("st") {
			return m
		}
		return "Street"
	})
	for _, a := range streetTypes {
		s = a.pattern.ReplaceAllString(s, a.replacement)
	}
	return s
}

var ordinalWords = abbreviations(
	"first", "1st",
	"second", "2nd",
	"third", "3rd",
	"fourth", "4th",
	"fifth", "5th",
	"sixth", "6th",
	"seventh", "7th",
	"eighth", "8th",
	"ninth", "9th",
	"tenth", "10th",
	"eleventh", "11th",
	"twelfth", "12th",
)

var ordinalSuffix = regexp.MustCompile(`(?i)\b(\d+)(st|nd|rd|th)\b`)

// Numbers writes ordinals as digits with a lower case suffix: "First" and "1ST" become "1st".
func Numbers(s string) string {
	for _, a := range ordinalWords {
		s = a.pattern.ReplaceAllString(s, a.replacement)
	}
	return ordinalSuffix.ReplaceAllStringFunc(s, func(m string) string {
		groups := ordinalSuffix.FindStringSubmatch(m)
		return groups[1] + strings.ToLower(groups[2])
	})
}
