package invoice

import (
	"regexp"
	"strings"
)

var (
	weightToken     = regexp.MustCompile(`(\d+(?:\.\d+)?(?:kg|g))`)
	strictSKURow    = regexp.MustCompile(`^\d+\s+(.+?)\s+(\d+(?:\.\d+)?(?:kg|g))$`)
	flipkartItemRow = regexp.MustCompile(`^(\d+\s+[A-Za-z].*?)\s*\|\s*(.*?)\s*\|\s*(\d+)$`)
	leadingSerial   = regexp.MustCompile(`^\d+\s+`)
	orderIDPattern  = regexp.MustCompile(`OD\d+`)
	awbPattern      = regexp.MustCompile(`AWB\s+No\.\s*(FMP[CP]\d+)`)
)

// stopWords end the scan of a Flipkart item table; anything after them is
// address or courier boilerplate.
var stopWords = []string{"SOLD BY", "SHIPPING", "AWB", "ORDERED", "HBD", "CPD"}

// ParseSKU splits a Flipkart SKU cell into product name and packet weight.
// Strategies run in order, first success wins:
//
//  1. cut everything after the first "|" and retry on the remainder
//  2. the last weight token in the string is the weight, the text before
//     it (minus a leading serial number) is the name
//  3. strict "<serial> <name> <weight>" row form
//  4. strip a leading serial and a trailing packet count (<= 10); the rest
//     is the name, weight unknown
func ParseSKU(raw string) (name, weight string, ok bool) {
	sku := strings.TrimSpace(raw)
	if sku == "" {
		return "", "", false
	}
	if i := strings.Index(sku, "|"); i >= 0 {
		sku = strings.TrimSpace(sku[:i])
	}

	if matches := weightToken.FindAllStringIndex(sku, -1); len(matches) > 0 {
		last := matches[len(matches)-1]
		w := sku[last[0]:last[1]]
		n := strings.TrimSpace(sku[:last[0]])
		n = leadingSerial.ReplaceAllString(n, "")
		if n != "" {
			return strings.ToLower(strings.TrimSpace(n)), w, true
		}
	}

	if m := strictSKURow.FindStringSubmatch(sku); m != nil {
		return strings.ToLower(strings.TrimSpace(m[1])), m[2], true
	}

	fields := strings.Fields(sku)
	if len(fields) > 1 && isInteger(fields[0]) {
		fields = fields[1:]
	}
	if len(fields) > 1 {
		if n, isInt := parseInteger(fields[len(fields)-1]); isInt && n <= 10 {
			fields = fields[:len(fields)-1]
		}
	}
	rest := strings.Join(fields, " ")
	if rest == "" || isInteger(rest) {
		return "", "", false
	}
	return strings.ToLower(rest), "", true
}

func isInteger(s string) bool {
	_, ok := parseInteger(s)
	return ok
}

func parseInteger(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

func startsWithStopWord(upper string) bool {
	for _, w := range stopWords {
		if strings.HasPrefix(upper, w) {
			return true
		}
	}
	return false
}

// flipkartTableHeader marks the start of the item table on a Flipkart
// label page.
func flipkartTableHeader(upper string) bool {
	if !strings.Contains(upper, "SKU ID") {
		return false
	}
	return strings.Contains(upper, "DESCRIPTION") || strings.Contains(upper, "QTY")
}
