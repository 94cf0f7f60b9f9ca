package invoice

import (
	"regexp"
	"strconv"
	"strings"

	"packhouse/internal/pdftext"
)

var (
	asinPattern    = regexp.MustCompile(`\b(B[0-9A-Z]{9})\b`)
	amazonOrderID  = regexp.MustCompile(`\d{3}-\d{7}-\d{7}`)
	rupeePattern   = regexp.MustCompile(`₹[\d,]+\.?\d*`)
	qtyCellPattern = regexp.MustCompile(`\bQty\b.*?(\d+)`)
	qtyPricePair   = regexp.MustCompile(`₹[\d,.]+\s+(\d+)\s+₹[\d,.]+`)
	qtyTaxRow      = regexp.MustCompile(`^(\d+)\s+₹[\d,]+\.?\d*\s+\d+%?\s*(IGST|CGST|SGST)`)
	leadingInt     = regexp.MustCompile(`^(\d+)\b`)
	percentLead    = regexp.MustCompile(`^\d+%`)
	postalCode     = regexp.MustCompile(`\b\d{6}\b`)
)

var addressWords = []string{"SOLD BY", "SHIPPING", "SHIP-TO", "BILL-TO"}

var tableWords = []string{"qty", "hsn", "description", "unit price", "total"}

// validASINContext guards against ASIN-shaped tokens in address blocks:
// the hit line itself must not look like an address, and an item-table
// signal must appear within the surrounding window.
func validASINContext(lines []pdftext.Line, hit, window int) bool {
	text := lines[hit].Text
	upper := strings.ToUpper(text)
	for _, w := range addressWords {
		if strings.Contains(upper, w) {
			return false
		}
	}
	if postalCode.MatchString(text) && !rupeePattern.MatchString(text) {
		return false
	}

	lo := hit - window
	if lo < 0 {
		lo = 0
	}
	hi := hit + window
	if hi > len(lines)-1 {
		hi = len(lines) - 1
	}
	for i := lo; i <= hi; i++ {
		lower := strings.ToLower(lines[i].Text)
		for _, w := range tableWords {
			if strings.Contains(lower, w) {
				return true
			}
		}
	}
	for i := hit - 1; i <= hit+1; i++ {
		if i < 0 || i >= len(lines) {
			continue
		}
		if rupeePattern.MatchString(lines[i].Text) {
			return true
		}
	}
	return false
}

// detectQty scans the hit line and the following window lines. Methods run
// in fixed order over the whole window; the first strictly positive value
// wins. No hit means quantity 1.
func detectQty(lines []pdftext.Line, start, window int) (qty int, line int, token string) {
	end := start + window
	if end > len(lines)-1 {
		end = len(lines) - 1
	}

	for i := start; i <= end; i++ {
		if m := qtyCellPattern.FindStringSubmatch(lines[i].Text); m != nil {
			if q := atoiSafe(m[1]); q > 0 {
				return q, i, m[1]
			}
		}
	}
	for i := start; i <= end; i++ {
		if m := qtyPricePair.FindStringSubmatch(lines[i].Text); m != nil {
			if q := atoiSafe(m[1]); q > 0 {
				return q, i, m[1]
			}
		}
	}
	for i := start; i <= end; i++ {
		if m := qtyTaxRow.FindStringSubmatch(lines[i].Text); m != nil {
			if q := atoiSafe(m[1]); q > 0 {
				return q, i, m[1]
			}
		}
	}

	hasAmount := false
	for i := start; i <= end; i++ {
		if rupeePattern.MatchString(lines[i].Text) {
			hasAmount = true
			break
		}
	}
	if hasAmount {
		for i := start; i <= end; i++ {
			text := lines[i].Text
			if percentLead.MatchString(text) || strings.Contains(text, "HSN:") {
				continue
			}
			if m := leadingInt.FindStringSubmatch(text); m != nil {
				if q := atoiSafe(m[1]); q >= 1 && q <= 100 {
					return q, i, m[1]
				}
			}
		}
	}

	return 1, -1, ""
}

func atoiSafe(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
