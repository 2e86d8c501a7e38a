package feed

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Stage string

const (
	StageLineNotFound   Stage = "line_not_found"
	StageNumberNotFound Stage = "number_not_found"
)

var (
	ErrLineNotFound   = errors.New("label line not found")
	ErrNumberNotFound = errors.New("no number after label")
)

// ParseError tells callers which extraction stage failed for a label.
type ParseError struct {
	Stage Stage
	Label string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s", e.Label, e.Unwrap())
}

func (e *ParseError) Unwrap() error {
	if e.Stage == StageLineNotFound {
		return ErrLineNotFound
	}
	return ErrNumberNotFound
}

func findLine(lines []string, label *regexp.Regexp) (string, []int, bool) {
	for _, l := range lines {
		if loc := label.FindStringIndex(l); loc != nil {
			return l, loc, true
		}
	}
	return "", nil, false
}

// ScanLabeled finds the first line matching label and returns the first plausible number after
// the label. Tab columns are tried first, then columns split on runs of two or more spaces,
// then any number after the label.
func ScanLabeled(lines []string, label *regexp.Regexp) (float64, error) {
	line, loc, ok := findLine(lines, label)
	if !ok {
		return 0, &ParseError{Stage: StageLineNotFound, Label: label.String()}
	}
	after := line[loc[1]:]

	if num, ok := firstNumericColumn(splitColumns(after, tabRunRe)); ok {
		if v, ok := ParseNumber(num); ok {
			return v, nil
		}
	}
	if num, ok := firstNumericColumn(splitColumns(after, wideSpaceRe)); ok {
		if v, ok := ParseNumber(num); ok {
			return v, nil
		}
	}
	if num := unsignedNumberRe.FindString(after); num != "" {
		if v, ok := ParseNumber(num); ok {
			return v, nil
		}
	}
	return 0, &ParseError{Stage: StageNumberNotFound, Label: label.String()}
}

// FirstNumberOnLine is the loose fallback used when only a generic label matched:
// the first unsigned number anywhere on the line.
func FirstNumberOnLine(lines []string, label *regexp.Regexp) (float64, error) {
	line, _, ok := findLine(lines, label)
	if !ok {
		return 0, &ParseError{Stage: StageLineNotFound, Label: label.String()}
	}
	if v, ok := ParseNumber(unsignedNumberRe.FindString(line)); ok {
		return v, nil
	}
	return 0, &ParseError{Stage: StageNumberNotFound, Label: label.String()}
}

// ParseGoldLine extracts the base rate from the primary product line.
//
// Order matters: the value right after a dash column, then the first number after any raw '-',
// then the largest number on the line (smaller ones are usually change indicators).
func ParseGoldLine(lines []string, label *regexp.Regexp) (float64, error) {
	line, _, ok := findLine(lines, label)
	if !ok {
		return 0, &ParseError{Stage: StageLineNotFound, Label: label.String()}
	}

	cols := splitColumns(line, tabRunRe)
	for i, c := range cols {
		if !IsDashToken(c) {
			continue
		}
		if i+1 < len(cols) {
			rest := strings.Join(cols[i+1:], " ")
			if v, ok := ParseNumber(unsignedNumberRe.FindString(rest)); ok {
				return v, nil
			}
		}
		break
	}

	if pos := strings.Index(line, "-"); pos != -1 {
		if v, ok := ParseNumber(unsignedNumberRe.FindString(line[pos+1:])); ok {
			return v, nil
		}
	}

	best, found := 0.0, false
	for _, m := range unsignedNumberRe.FindAllString(line, -1) {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		if !found || v > best {
			best, found = v, true
		}
	}
	if found {
		return best, nil
	}
	return 0, &ParseError{Stage: StageNumberNotFound, Label: label.String()}
}
