package pipeline

import (
	"bytes"
	"strings"

	"github.com/jhillyerd/enmime"

	"packhouse/internal"
	"packhouse/internal/invoice"
)

// MailAttachment is one PDF pulled out of an invoice email.
type MailAttachment struct {
	Name    string
	Content []byte
}

// MailPayload is everything a run needs from one raw email: the invoice
// PDFs, order-manifest rows from HTML tables, and the header fields the
// detector scores.
type MailPayload struct {
	Subject         string
	From            string
	Text            string
	AttachmentNames []string
	PDFs            []MailAttachment
	ManifestItems   []internal.InvoiceItem
}

func ExtractMailPayload(raw []byte) (MailPayload, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return MailPayload{}, err
	}

	payload := MailPayload{
		Subject: env.GetHeader("Subject"),
		From:    env.GetHeader("From"),
		Text:    env.Text,
	}
	if env.HTML != "" {
		payload.ManifestItems = invoice.ParseHTMLManifest(env.HTML)
	}

	for _, att := range env.Attachments {
		name := strings.TrimSpace(att.FileName)
		if name == "" {
			name = "attachment"
		}
		payload.AttachmentNames = append(payload.AttachmentNames, name)
		if strings.HasSuffix(strings.ToLower(name), ".pdf") {
			payload.PDFs = append(payload.PDFs, MailAttachment{Name: name, Content: att.Content})
		}
	}
	return payload, nil
}
