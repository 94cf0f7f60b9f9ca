package pipeline

import "testing"

func TestDetectInvoice(t *testing.T) {
	tests := []struct {
		name        string
		subject     string
		from        string
		text        string
		attachments []string
		want        bool
	}{
		{
			name:        "amazon shipment mail",
			subject:     "Your Amazon.in order has shipped",
			from:        "ship-confirm@amazon.in",
			text:        "Invoice attached for order 171-1234567-1234567",
			attachments: []string{"invoice.pdf"},
			want:        true,
		},
		{
			name:    "flipkart label mail without attachment",
			subject: "Shipping label ready",
			from:    "noreply@flipkart.com",
			text:    "Your shipping label for OD123456789012 is ready",
			want:    true,
		},
		{
			name:    "newsletter",
			subject: "Weekly deals inside",
			from:    "promo@shopmail.example",
			text:    "Save big this week",
			want:    false,
		},
		{
			name:        "lone pdf attachment is not enough",
			attachments: []string{"scan.pdf"},
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectInvoice(tt.subject, tt.from, tt.text, tt.attachments)
			if got.IsInvoice != tt.want {
				t.Fatalf("IsInvoice = %v (score %.2f)", got.IsInvoice, got.Score)
			}
		})
	}
}

func TestDetectInvoiceScoreCapped(t *testing.T) {
	got := DetectInvoice(
		"Invoice for your order shipment",
		"auto-confirm@amazon.in",
		"invoice order shipping label dispatch 171-1234567-1234567 404-7654321-7654321",
		[]string{"invoice.pdf"},
	)
	if got.Score > 1.0 {
		t.Fatalf("score = %f", got.Score)
	}
	if !got.IsInvoice || got.Reason != "rules_positive" {
		t.Fatalf("result = %+v", got)
	}
}
