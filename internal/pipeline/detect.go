package pipeline

import (
	"regexp"
	"strings"
)

type DetectResult struct {
	IsInvoice bool
	Score     float64
	Reason    string
}

var detectKeywords = []string{"invoice", "shipping label", "order", "shipment", "dispatch", "packing"}

var detectSenders = []string{"amazon", "flipkart"}

var orderIDHint = regexp.MustCompile(`\b(\d{3}-\d{7}-\d{7}|OD\d{9,})\b`)

// DetectInvoice scores how likely an email is a marketplace invoice or
// label notification. The rules are additive and capped at 1; anything at
// or above 0.45 is treated as an invoice mail.
func DetectInvoice(subject, from, text string, attachmentNames []string) DetectResult {
	hits := len(orderIDHint.FindAllString(text, -1))

	subject = strings.ToLower(subject)
	from = strings.ToLower(from)
	text = strings.ToLower(text)

	score := 0.0
	for _, kw := range detectKeywords {
		if strings.Contains(subject, kw) {
			score += 0.2
		}
		if strings.Contains(text, kw) {
			score += 0.1
		}
	}
	for _, sender := range detectSenders {
		if strings.Contains(from, sender) {
			score += 0.3
			break
		}
	}

	if hits >= 2 {
		score += 0.4
	} else if hits == 1 {
		score += 0.2
	}

	for _, name := range attachmentNames {
		if strings.HasSuffix(strings.ToLower(name), ".pdf") {
			score += 0.25
			break
		}
	}

	if score > 1 {
		score = 1
	}

	isInvoice := score >= 0.45
	reason := "rules_negative"
	if isInvoice {
		reason = "rules_positive"
	}
	return DetectResult{IsInvoice: isInvoice, Score: score, Reason: reason}
}
