package feed

import "regexp"

// Labels are the line patterns of one feed layout. Fallback patterns are tried with the loose
// first-number rule when the exact label is missing.
type Labels struct {
	Gold           *regexp.Regexp
	Silver         *regexp.Regexp
	SilverFallback *regexp.Regexp
	Spot           *regexp.Regexp
	SpotFallback   *regexp.Regexp
}

// DefaultLabels match the Nagpur RTGS broadcast.
func DefaultLabels() Labels {
	return Labels{
		Gold:           regexp.MustCompile(`(?i)GOLD NAGPUR 99\.5 RTGS \(Rate 50 gm\)`),
		Silver:         regexp.MustCompile(`(?i)SILVER NAGPUR RTGS`),
		SilverFallback: regexp.MustCompile(`(?i)\bSILVER\b`),
		Spot:           regexp.MustCompile(`(?i)SPOT\s*GOLD`),
		SpotFallback:   regexp.MustCompile(`(?i)\bSPOT\b`),
	}
}

// Value is an optional observation.
type Value struct {
	V  float64
	OK bool
}

func Some(v float64) Value { return Value{V: v, OK: true} }

// Reading is everything extracted from one feed payload.
type Reading struct {
	Gold   float64
	Silver Value
	Spot   Value
}

// Parse extracts a Reading from raw feed text. Only the gold line is mandatory; its
// *ParseError is returned as is. Negative secondary values count as absent.
func Parse(text string, labels Labels) (Reading, error) {
	lines := SplitLines(text)
	gold, err := ParseGoldLine(lines, labels.Gold)
	if err != nil {
		return Reading{}, err
	}
	return Reading{
		Gold:   gold,
		Silver: secondary(lines, labels.Silver, labels.SilverFallback),
		Spot:   secondary(lines, labels.Spot, labels.SpotFallback),
	}, nil
}

func secondary(lines []string, exact, fallback *regexp.Regexp) Value {
	var (
		v   float64
		err error
	)
	switch {
	case exact != nil && matchesAny(lines, exact):
		v, err = ScanLabeled(lines, exact)
	case fallback != nil:
		v, err = FirstNumberOnLine(lines, fallback)
	default:
		return Value{}
	}
	if err != nil || v < 0 {
		return Value{}
	}
	return Some(v)
}

func matchesAny(lines []string, re *regexp.Regexp) bool {
	_, _, ok := findLine(lines, re)
	return ok
}
