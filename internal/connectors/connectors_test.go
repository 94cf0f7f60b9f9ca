package connectors

import (
	"os"
	"path/filepath"
	"testing"

	"packhouse/internal"
	"packhouse/internal/storage"
)

type fakeConnector struct {
	messages []internal.FetchedMailMessage
}

func (f *fakeConnector) FetchInbox(label string, max int) ([]internal.FetchedMailMessage, error) {
	if len(f.messages) > max {
		return f.messages[:max], nil
	}
	return f.messages, nil
}

func openTestDB(t *testing.T, dir string) *storage.DB {
	t.Helper()

	db, err := storage.Open(filepath.Join(dir, "app.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func fetchedMail(id, subject, body string) internal.FetchedMailMessage {
	return internal.FetchedMailMessage{
		Provider:   "imap",
		MessageID:  id,
		Subject:    subject,
		From:       "noreply@flipkart.com",
		ReceivedAt: "2026-03-01T08:00:00Z",
		Raw:        []byte("Subject: " + subject + "\r\n\r\n" + body),
	}
}

func TestFetchAndStoreCountsNewAndKnown(t *testing.T) {
	dir := t.TempDir()
	db := openTestDB(t, dir)
	conn := &fakeConnector{messages: []internal.FetchedMailMessage{
		fetchedMail("m-1", "Invoice one", "first"),
		fetchedMail("m-2", "Invoice two", "second"),
	}}
	svc := NewFetchService(db, filepath.Join(dir, "raw"), conn)

	res, err := svc.FetchAndStore("INBOX", 10)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if res.Fetched != 2 || res.New != 2 || res.Known != 0 {
		t.Fatalf("first pass = %+v", res)
	}

	res, err = svc.FetchAndStore("INBOX", 10)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if res.Fetched != 2 || res.New != 0 || res.Known != 2 {
		t.Fatalf("second pass = %+v", res)
	}

	pending, err := db.ListEmailsByStatus("fetched", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
}

func TestFetchAndStoreHonorsBatchLimit(t *testing.T) {
	dir := t.TempDir()
	db := openTestDB(t, dir)
	conn := &fakeConnector{messages: []internal.FetchedMailMessage{
		fetchedMail("m-1", "Invoice one", "first"),
		fetchedMail("m-2", "Invoice two", "second"),
		fetchedMail("m-3", "Invoice three", "third"),
	}}
	svc := NewFetchService(db, filepath.Join(dir, "raw"), conn)

	res, err := svc.FetchAndStore("INBOX", 2)
	if err != nil {
		t.Fatal(err)
	}
	if res.Fetched != 2 || res.New != 2 {
		t.Fatalf("result = %+v", res)
	}
}

func TestStoreKeepsProcessingStatusOnRefetch(t *testing.T) {
	dir := t.TempDir()
	db := openTestDB(t, dir)
	store := NewMailStoreService(db, filepath.Join(dir, "raw"))
	msg := fetchedMail("m-1", "Invoice one", "first")

	row, known, err := store.Store(msg)
	if err != nil || known {
		t.Fatalf("first store: known=%v err=%v", known, err)
	}
	if err := db.UpdateEmailStatus(row.ID, "processed"); err != nil {
		t.Fatal(err)
	}

	again, known, err := store.Store(msg)
	if err != nil {
		t.Fatalf("refetch store: %v", err)
	}
	if !known {
		t.Fatal("refetched mail not reported as known")
	}
	if again.ID != row.ID || again.Status != "processed" {
		t.Fatalf("refetched row = %+v", again)
	}
}

func TestStoreContentAddressesRawFiles(t *testing.T) {
	dir := t.TempDir()
	db := openTestDB(t, dir)
	store := NewMailStoreService(db, filepath.Join(dir, "raw"))

	first := fetchedMail("m-1", "Invoice one", "same body")
	second := fetchedMail("m-2", "Invoice one", "same body")
	second.Raw = first.Raw

	rowA, _, err := store.Store(first)
	if err != nil {
		t.Fatal(err)
	}
	rowB, _, err := store.Store(second)
	if err != nil {
		t.Fatal(err)
	}
	if rowA.RawRef != rowB.RawRef {
		t.Fatalf("raw refs differ: %q vs %q", rowA.RawRef, rowB.RawRef)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "raw", "imap"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("raw files = %d, want 1", len(entries))
	}
}
