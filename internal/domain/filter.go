package domain

import (
	"strconv"
	"strings"
)

// FilterValue is either a display-name literal or a numeric id. Raw caller
// input is parsed once with ParseFilterValue and never re-sniffed.
type FilterValue struct {
	id      int64
	literal string
	isID    bool
}

// FilterLiteral builds a name-matching filter value.
func FilterLiteral(name string) FilterValue {
	return FilterValue{literal: strings.TrimSpace(name)}
}

// FilterID builds an id-matching filter value.
func FilterID(id int64) FilterValue {
	return FilterValue{id: id, isID: true}
}

// ParseFilterValue treats all-digit input as an id and anything else as a
// literal. The resolver also matches an id value against names spelled with
// the same digits, so a status or user named "2024" can still be filtered.
func ParseFilterValue(raw string) FilterValue {
	s := strings.TrimSpace(raw)
	if s != "" && isDigits(s) {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return FilterID(n)
		}
	}
	return FilterLiteral(s)
}

// ParseFilterValues parses each element, splitting comma-separated entries
// and dropping blanks.
func ParseFilterValues(raw []string) []FilterValue {
	var out []FilterValue
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			out = append(out, ParseFilterValue(part))
		}
	}
	return out
}

// ID returns the id and true when v is an id value.
func (v FilterValue) ID() (int64, bool) { return v.id, v.isID }

// Literal returns the literal name; empty for id values.
func (v FilterValue) Literal() string { return v.literal }

func (v FilterValue) String() string {
	if v.isID {
		return strconv.FormatInt(v.id, 10)
	}
	return v.literal
}

// SplitFilterValues separates ids from literal names.
func SplitFilterValues(values []FilterValue) (ids []int64, names []string) {
	for _, v := range values {
		if id, ok := v.ID(); ok {
			ids = append(ids, id)
			continue
		}
		if v.literal != "" {
			names = append(names, v.literal)
		}
	}
	return ids, names
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
