// Package cleanup contains generic text utilities for turning raw GTFS labels into display labels.
//
// Agency rule sets compose these into ordered chains of named transforms.
package cleanup

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Transform is a single named rewrite step.
type Transform struct {
	Name  string
	Apply func(string) string
}

// Replace returns a transform that replaces every match of pattern with replacement.
// The replacement may reference capture groups using the regexp.Expand syntax.
func Replace(name string, pattern *regexp.Regexp, replacement string) Transform {
	return Transform{
		Name: name,
		Apply: func(s string) string {
			return pattern.ReplaceAllString(s, replacement)
		},
	}
}

// Chain applies the transforms to s from left to right.
func Chain(s string, transforms ...Transform) string {
	for _, t := range transforms {
		s = t.Apply(s)
	}
	return s
}

var wordRegex = regexp.MustCompile(`[\p{L}\p{N}]+`)

// LowerCaseUpperCaseWords title-cases every word written entirely in upper case.
//
// Words matching one of the ignored words, regardless of case, are replaced by the ignored
// word verbatim. Words containing lower case letters are left alone.
func LowerCaseUpperCaseWords(s string, ignoredWords ...string) string {
	return wordRegex.ReplaceAllStringFunc(s, func(word string) string {
		for _, ignored := range ignoredWords {
			if strings.EqualFold(word, ignored) {
				return ignored
			}
		}
		if !isUpperCase(word) {
			return word
		}
		return capitalize(cases.Lower(language.English).String(word))
	})
}

func isUpperCase(word string) bool {
	hasLetter := false
	for _, r := range word {
		if !unicode.IsLetter(r) {
			continue
		}
		if !unicode.IsUpper(r) {
			return false
		}
		hasLetter = true
	}
	return hasLetter
}

func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError || !unicode.IsLetter(r) {
		return word
	}
	return string(unicode.ToUpper(r)) + word[size:]
}

// Word returns a case-insensitive pattern matching any of the words as a whole word.
func Word(words ...string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

var slashes = regexp.MustCompile(`(\S)\s*/\s*(\S)`)

// Slashes puts exactly one space on each side of a slash between two words.
func Slashes(s string) string {
	return slashes.ReplaceAllString(s, "$1 / $2")
}

var (
	spaces           = regexp.MustCompile(`\s+`)
	openParenthesis  = regexp.MustCompile(`\(\s+`)
	closeParenthesis = regexp.MustCompile(`\s+\)`)
)

// Label is the terminal cleanup applied to every display label: whitespace is collapsed,
// dangling separators are trimmed and the first letter of each word is upper-cased.
func Label(s string) string {
	s = spaces.ReplaceAllString(s, " ")
	s = openParenthesis.ReplaceAllString(s, "(")
	s = closeParenthesis.ReplaceAllString(s, ")")
	s = strings.Trim(s, " -/,")
	return capitalizeWords(s)
}

func capitalizeWords(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	startOfWord := true
	for _, r := range s {
		if startOfWord && unicode.IsLetter(r) {
			r = unicode.ToUpper(r)
		}
		startOfWord = strings.ContainsRune(" -/(.", r)
		b.WriteRune(r)
	}
	return b.String()
}
