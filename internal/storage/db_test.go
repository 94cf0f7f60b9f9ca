package storage

import (
	"path/filepath"
	"testing"

	"packhouse/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCatalogSnapshotRoundTrip(t *testing.T) {
	db := openTestDB(t)

	rows := []internal.CatalogRow{
		{Index: 2, Item: "Raw Makhana", Weight: "250g", ASIN: "B0AAAAAAA1", FNSKU: "X00AAA0001", PacketUsed: "Sticker Pouch"},
		{Index: 3, Item: "Sabudana", Weight: "1kg", FkSKU: "Sabudana 1kg", SplitInto: "500g+500g"},
	}
	if err := db.ReplaceCatalogRows(rows); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListCatalogRows()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2", len(got))
	}
	if got[0].Item != "Raw Makhana" || got[0].ASIN != "B0AAAAAAA1" {
		t.Errorf("first row = %+v", got[0])
	}
	if got[1].SplitInto != "500g+500g" {
		t.Errorf("splitInto = %q", got[1].SplitInto)
	}

	// Replace drops rows missing from the new snapshot.
	if err := db.ReplaceCatalogRows(rows[:1]); err != nil {
		t.Fatal(err)
	}
	got, err = db.ListCatalogRows()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("rows after replace = %d, want 1", len(got))
	}
}

func TestEmailUpsertAndStatus(t *testing.T) {
	db := openTestDB(t)

	row, err := db.UpsertEmail("gmail", "<m1@example.com>", "Invoice", "orders@amazon.in", "2026-03-01T10:00:00Z", "hash1", "/raw/hash1.eml", "fetched")
	if err != nil {
		t.Fatal(err)
	}
	if row.ID == 0 || row.Status != "fetched" {
		t.Fatalf("row = %+v", row)
	}

	// Second upsert with the same provider/messageId must not create a new row.
	again, err := db.UpsertEmail("gmail", "<m1@example.com>", "Invoice resend", "orders@amazon.in", "2026-03-01T11:00:00Z", "hash2", "/raw/hash2.eml", "fetched")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != row.ID {
		t.Fatalf("dedupe failed: id %d then %d", row.ID, again.ID)
	}
	if again.Hash != "hash2" {
		t.Errorf("hash not updated: %q", again.Hash)
	}

	if err := db.UpdateEmailStatus(row.ID, "processed"); err != nil {
		t.Fatal(err)
	}
	pending, err := db.ListEmailsByStatus("fetched", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("fetched list = %d, want 0", len(pending))
	}
	processed, err := db.ListEmailsByStatus("processed", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(processed) != 1 {
		t.Fatalf("processed list = %d, want 1", len(processed))
	}

	missing, err := db.GetEmailByProviderMessageID("gmail", "<nope>")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatal("expected nil for unknown message id")
	}
}

func TestRunAndPlanLines(t *testing.T) {
	db := openTestDB(t)

	counts := map[string]int{"items": 3, "matched": 2}
	timings := map[string]float64{"totalMs": 120}
	runID, err := db.InsertRun("trace-1", "/out/plan.xlsx", counts, timings, []string{"bad.pdf: unreadable"}, []string{"/out/doc1.pdf"})
	if err != nil {
		t.Fatal(err)
	}
	if runID == 0 {
		t.Fatal("runID = 0")
	}

	lines := []internal.PlanLine{
		{Item: "Raw Makhana", Weight: "250g", Qty: 4, FNSKU: "X00AAA0001", Status: internal.PlanReady},
		{Item: "Sabudana", Weight: "500g", Qty: 2, Status: internal.PlanMissingFNSKU, Issue: internal.IssueMissingFNSKU},
	}
	if err := db.InsertPlanLines(runID, lines); err != nil {
		t.Fatal(err)
	}

	rec, err := db.GetRun(runID)
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil {
		t.Fatal("run not found")
	}
	if rec.TraceID != "trace-1" || rec.PlanPath != "/out/plan.xlsx" {
		t.Errorf("record = %+v", rec)
	}
	if rec.ErrorsJSON == "" || rec.ErrorsJSON == "null" {
		t.Errorf("errorsJson = %q", rec.ErrorsJSON)
	}

	got, err := db.ListPlanLines(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("plan lines = %d, want 2", len(got))
	}
	if got[0].Status != internal.PlanReady || got[1].Issue != internal.IssueMissingFNSKU {
		t.Errorf("lines = %+v", got)
	}

	list, err := db.ListRuns(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("runs = %d, want 1", len(list))
	}

	none, err := db.GetRun(999)
	if err != nil {
		t.Fatal(err)
	}
	if none != nil {
		t.Fatal("expected nil for unknown run")
	}
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)

	if err := db.SetMetadata("catalog_synced_at", "2026-03-01T00:00:00Z"); err != nil {
		t.Fatal(err)
	}
	v, err := db.GetMetadata("catalog_synced_at")
	if err != nil {
		t.Fatal(err)
	}
	if v == nil || *v != "2026-03-01T00:00:00Z" {
		t.Fatalf("value = %v", v)
	}

	if err := db.SetMetadata("catalog_synced_at", "2026-03-02T00:00:00Z"); err != nil {
		t.Fatal(err)
	}
	v, err = db.GetMetadata("catalog_synced_at")
	if err != nil {
		t.Fatal(err)
	}
	if v == nil || *v != "2026-03-02T00:00:00Z" {
		t.Fatalf("value after update = %v", v)
	}

	missing, err := db.GetMetadata("nope")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatal("expected nil for unknown key")
	}
}
