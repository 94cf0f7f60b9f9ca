package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/mail"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"packhouse/internal"
	"packhouse/internal/config"
)

// Connector reads a Gmail mailbox through the REST API with a standing
// refresh token. One raw download per message; subject, sender and dedupe
// key come from the downloaded bytes, so what the store records is exactly
// what the parser will see later. Read-only scope on purpose: handled mail
// is tracked in the database, never by mutating the mailbox.
type Connector struct {
	service *gmail.Service
}

func NewConnector(cfg config.Config) (*Connector, error) {
	if err := cfg.Require("GOOGLE_CLIENT_ID", cfg.GoogleClientID); err != nil {
		return nil, err
	}
	if err := cfg.Require("GOOGLE_CLIENT_SECRET", cfg.GoogleClientSecret); err != nil {
		return nil, err
	}
	if err := cfg.Require("GOOGLE_REFRESH_TOKEN", cfg.GoogleRefreshToken); err != nil {
		return nil, err
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.GoogleRedirectURI,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}
	token := &oauth2.Token{RefreshToken: cfg.GoogleRefreshToken}
	svc, err := gmail.NewService(context.Background(),
		option.WithTokenSource(oauthCfg.TokenSource(context.Background(), token)))
	if err != nil {
		return nil, err
	}
	return &Connector{service: svc}, nil
}

func (c *Connector) FetchInbox(label string, max int) ([]internal.FetchedMailMessage, error) {
	listResp, err := c.service.Users.Messages.List("me").LabelIds(label).MaxResults(int64(max)).Do()
	if err != nil {
		return nil, err
	}

	out := make([]internal.FetchedMailMessage, 0, len(listResp.Messages))
	for _, ref := range listResp.Messages {
		if ref.Id == "" {
			continue
		}
		rawResp, err := c.service.Users.Messages.Get("me", ref.Id).Format("raw").Do()
		if err != nil {
			return nil, err
		}
		if rawResp.Raw == "" {
			continue
		}
		raw, err := decodeBase64URL(rawResp.Raw)
		if err != nil {
			return nil, err
		}
		out = append(out, fromRaw(ref.Id, raw))
	}
	return out, nil
}

// fromRaw builds the fetched record from the RFC 5322 bytes. The Message-ID
// header is the dedupe key when present; Gmail's internal id changes across
// account migrations, the header does not.
func fromRaw(gmailID string, raw []byte) internal.FetchedMailMessage {
	m := internal.FetchedMailMessage{
		Provider:   "gmail",
		MessageID:  gmailID,
		ReceivedAt: time.Now().UTC().Format(time.RFC3339),
		Raw:        raw,
	}

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return m
	}
	if id := parsed.Header.Get("Message-Id"); id != "" {
		m.MessageID = id
	}
	m.Subject = decodeHeader(parsed.Header.Get("Subject"))
	m.From = decodeHeader(parsed.Header.Get("From"))
	if date, err := parsed.Header.Date(); err == nil {
		m.ReceivedAt = date.UTC().Format(time.RFC3339)
	}
	return m
}

// decodeHeader unpacks RFC 2047 encoded words; marketplace senders encode
// anything with the rupee sign in the subject.
func decodeHeader(value string) string {
	dec := mime.WordDecoder{}
	decoded, err := dec.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

func decodeBase64URL(input string) ([]byte, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	decoded, err = base64.URLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	return nil, fmt.Errorf("decode gmail raw payload: %w", err)
}
