package utils

import (
	"math"
	"strconv"
	"strings"
)

// Placeholder is shown wherever a value is absent.
const Placeholder = "—"

var devanagariDigits = map[rune]rune{
	'0': '०',
	'1': '१',
	'2': '२',
	'3': '३',
	'4': '४',
	'5': '५',
	'6': '६',
	'7': '७',
	'8': '८',
	'9': '९',
}

func ToDevanagariDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for _, r := range s {
		if dr, ok := devanagariDigits[r]; ok {
			b.WriteRune(dr)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// FormatInt rounds to a whole number with Indian grouping: 1234567 → "12,34,567".
func FormatInt(v float64) string {
	if !finite(v) {
		return Placeholder
	}
	return groupIndian(strconv.FormatInt(int64(math.Round(v)), 10))
}

// FormatDecimal keeps exactly decimals fraction digits.
func FormatDecimal(v float64, decimals int) string {
	if !finite(v) {
		return Placeholder
	}
	if decimals < 0 {
		decimals = 0
	}
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	intPart, frac, hasFrac := strings.Cut(s, ".")
	out := groupIndian(intPart)
	if hasFrac {
		out += "." + frac
	}
	return out
}

// FormatNumber renders a value in its unit. digits "hi" switches to Devanagari numerals.
func FormatNumber(value float64, unit string, digits string) string {
	if !finite(value) {
		return Placeholder
	}
	var out string
	switch unit {
	case "usd":
		out = "$ " + FormatDecimal(value, 2)
	case "rate":
		out = FormatDecimal(value, 2)
	default:
		out = "₹ " + FormatInt(value)
	}
	if digits == "hi" {
		out = ToDevanagariDigits(out)
	}
	return out
}

// groupIndian inserts separators after the last three digits and then every two.
func groupIndian(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	if s == "0" {
		sign = ""
	}
	if len(s) <= 3 {
		return sign + s
	}
	head, tail := s[:len(s)-3], s[len(s)-3:]
	var b strings.Builder
	b.Grow(len(s) + len(s)/2 + 1)
	b.WriteString(sign)
	rem := len(head) % 2
	if rem == 1 {
		b.WriteString(head[:1])
	}
	for i := rem; i < len(head); i += 2 {
		if b.Len() > len(sign) {
			b.WriteByte(',')
		}
		b.WriteString(head[i : i+2])
	}
	b.WriteByte(',')
	b.WriteString(tail)
	return b.String()
}
