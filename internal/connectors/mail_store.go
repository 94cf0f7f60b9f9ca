package connectors

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"packhouse/internal"
	"packhouse/internal/storage"
)

// MailStoreService lands raw messages on disk and registers them for the
// processing pipeline. Files are content-addressed under a per-provider
// directory, so refetching the same mail never writes twice and a renamed
// provider message id still points at the same .eml.
type MailStoreService struct {
	db         *storage.DB
	rawMailDir string
}

func NewMailStoreService(db *storage.DB, rawMailDir string) *MailStoreService {
	return &MailStoreService{db: db, rawMailDir: rawMailDir}
}

// Store persists one fetched message. known reports whether the provider
// message id was already registered; such rows keep their processing status,
// so replaying a mailbox never reopens handled mail.
func (s *MailStoreService) Store(msg internal.FetchedMailMessage) (internal.EmailRow, bool, error) {
	existing, err := s.db.GetEmailByProviderMessageID(msg.Provider, msg.MessageID)
	if err != nil {
		return internal.EmailRow{}, false, err
	}

	rawPath, hash, err := s.writeRaw(msg)
	if err != nil {
		return internal.EmailRow{}, existing != nil, err
	}

	row, err := s.db.UpsertEmail(msg.Provider, msg.MessageID, msg.Subject, msg.From, msg.ReceivedAt, hash, rawPath, "fetched")
	return row, existing != nil, err
}

func (s *MailStoreService) writeRaw(msg internal.FetchedMailMessage) (path, hash string, err error) {
	sum := sha256.Sum256(msg.Raw)
	hash = hex.EncodeToString(sum[:])

	dir := filepath.Join(s.rawMailDir, msg.Provider)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("raw mail dir: %w", err)
	}

	path = filepath.Join(dir, hash+".eml")
	if _, err := os.Stat(path); err == nil {
		return path, hash, nil
	}
	if err := os.WriteFile(path, msg.Raw, 0o644); err != nil {
		return "", "", fmt.Errorf("write raw mail: %w", err)
	}
	return path, hash, nil
}
