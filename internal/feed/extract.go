package feed

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	signedNumberRe   = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	unsignedNumberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
	dashColumnRe     = regexp.MustCompile(`^[-–—]+$`)
	lineBreakRe      = regexp.MustCompile(`\r?\n`)
	tabRunRe         = regexp.MustCompile(`\t+`)
	wideSpaceRe      = regexp.MustCompile(`\s{2,}`)
)

// NumericToken returns the first signed decimal number inside token.
func NumericToken(token string) (string, bool) {
	m := signedNumberRe.FindString(token)
	if m == "" {
		return "", false
	}
	return m, true
}

// IsDashToken reports whether col is a placeholder made only of dash-like characters.
func IsDashToken(col string) bool {
	return dashColumnRe.MatchString(col)
}

// CleanNumber prepares user input for parsing: trims and drops thousands separators.
func CleanNumber(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}

// ParseNumber parses a cleaned numeric string. NaN and ±Inf are rejected.
func ParseNumber(s string) (float64, bool) {
	s = CleanNumber(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// SplitLines splits raw feed text into trimmed, non-blank lines.
func SplitLines(text string) []string {
	var out []string
	for _, l := range lineBreakRe.Split(text, -1) {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func splitColumns(s string, sep *regexp.Regexp) []string {
	var cols []string
	for _, c := range sep.Split(s, -1) {
		c = strings.TrimSpace(c)
		if c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

func firstNumericColumn(cols []string) (string, bool) {
	for _, col := range cols {
		if IsDashToken(col) {
			continue
		}
		if num, ok := NumericToken(col); ok {
			return num, true
		}
	}
	return "", false
}
