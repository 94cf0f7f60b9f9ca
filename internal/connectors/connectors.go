package connectors

import "packhouse/internal"

// MailConnector pulls recent messages from one mailbox. Implementations
// return full raw RFC 5322 bytes; parsing happens downstream so the stored
// copy stays authoritative.
type MailConnector interface {
	FetchInbox(label string, max int) ([]internal.FetchedMailMessage, error)
}
