package util

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var weightPattern = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)\s*(kg|g)?$`)

// NormalizeWeight canonicalizes a packet weight token into the key form used
// for catalog lookups: grams of a kilo or more become kilograms, trailing
// zeros are stripped. Unit-less values follow seller shorthand: fractions
// below 1 are kilograms, whole values up to 10 are kilograms, everything
// else is grams. Unreadable input returns "".
func NormalizeWeight(raw string) string {
	m := weightPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return ""
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil || value <= 0 {
		return ""
	}
	switch strings.ToLower(m[2]) {
	case "g":
		if value >= 1000 {
			return formatWeight(value/1000) + "kg"
		}
		return formatWeight(value) + "g"
	case "kg":
		return formatWeight(value) + "kg"
	}
	if value < 1 {
		return formatWeight(value) + "kg"
	}
	if value == math.Trunc(value) && value <= 10 {
		return formatWeight(value) + "kg"
	}
	return formatWeight(value) + "g"
}

func formatWeight(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// Kilograms reads any weight token through NormalizeWeight and reports its
// value in kilograms.
func Kilograms(raw string) (float64, bool) {
	norm := NormalizeWeight(raw)
	if norm == "" {
		return 0, false
	}
	if strings.HasSuffix(norm, "kg") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(norm, "kg"), 64)
		return v, err == nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(norm, "g"), 64)
	return v / 1000, err == nil
}

// WeightsMatch reports whether two weight tokens denote the same packet
// size, within a 10 gram tolerance. Either side unreadable is a mismatch.
func WeightsMatch(a, b string) bool {
	ka, okA := Kilograms(a)
	kb, okB := Kilograms(b)
	if !okA || !okB {
		return false
	}
	return math.Abs(ka-kb) < 0.01
}
