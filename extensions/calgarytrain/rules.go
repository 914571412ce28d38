package calgarytrain

import (
	"regexp"
	"strings"

	"github.com/yyctransit/gtfs/cleanup"
)

// Words kept verbatim whatever their case in the feed.
var ignoredWords = []string{
	"AM", "PM",
	"EB", "WB", "NB", "SB",
	"SE", "SW", "NE", "NW",
	"LRT", "YYC", "TRW", "MRU", "SAIT", "JG", "EEEL",
	"AUArts", "CTrain",
}

var (
	UpperCaseWords = cleanup.Transform{
		Name: "upper-case-words",
		Apply: func(s string) string {
			return cleanup.LowerCaseUpperCaseWords(s, ignoredWords...)
		},
	}

	// Matches "Station", "CTrain Station", "Sta" and the "Staion" typo at the end of a name.
	CTrainStationSuffix = cleanup.Replace(
		"ctrain-station-suffix",
		regexp.MustCompile(`(?i)(?:\s+(?:ctrain\s+)?sta(?:t?ion)?\.?)+[\s,/-]*$`),
		"",
	)

	AtSign = cleanup.Transform{Name: "at-sign", Apply: replaceAtSigns}

	CTrainWord = cleanup.Replace(
		"ctrain-word",
		cleanup.Word("ctrain"),
		"",
	)

	StreetTypes = cleanup.Transform{Name: "street-types", Apply: cleanup.StreetTypes}
	Numbers     = cleanup.Transform{Name: "numbers", Apply: cleanup.Numbers}
	Slashes     = cleanup.Transform{Name: "slashes", Apply: cleanup.Slashes}
	Label       = cleanup.Transform{Name: "label", Apply: cleanup.Label}
)

// A run of "@" signs and the spaces around it. Since the match takes every space on both
// sides, it is surrounded by non-space characters unless it touches an end of the string.
var atSigns = regexp.MustCompile(`\s*@[\s@]*`)

// replaceAtSigns writes "X @ Y", "X@Y" and "X @@ Y" as "X / Y". A run of "@" at the start or
// end of the text is left alone.
func replaceAtSigns(s string) string {
	matches := atSigns.FindAllStringIndex(s, -1)
	if matches == nil {
		return s
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		if m[0] == 0 || m[1] == len(s) {
			continue
		}
		b.WriteString(s[last:m[0]])
		b.WriteString(" / ")
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// StopNameRules are applied in order to every stop name.
var StopNameRules = []cleanup.Transform{
	UpperCaseWords,
	CTrainStationSuffix,
	AtSign,
	StreetTypes,
	Numbers,
	Label,
}

// TripHeadsignRules are applied in order to every GTFS trip headsign.
var TripHeadsignRules = []cleanup.Transform{
	UpperCaseWords,
	AtSign,
	StreetTypes,
	Numbers,
	Label,
}

// RouteLongNameRules are applied in order to route long names present in the feed.
var RouteLongNameRules = []cleanup.Transform{
	Slashes,
	CTrainWord,
	Label,
}
