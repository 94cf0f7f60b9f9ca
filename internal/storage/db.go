package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"packhouse/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS catalog_rows (
  idx INTEGER PRIMARY KEY,
  item TEXT NOT NULL,
  weight TEXT,
  packetSize TEXT,
  packetUsed TEXT,
  asin TEXT,
  fkSku TEXT,
  mRef TEXT,
  mrp TEXT,
  fnsku TEXT,
  fssai TEXT,
  splitInto TEXT,
  productLabel TEXT,
  lastSeenAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_catalog_asin ON catalog_rows(asin);
CREATE INDEX IF NOT EXISTS idx_catalog_fkSku ON catalog_rows(fkSku);
CREATE INDEX IF NOT EXISTS idx_catalog_item ON catalog_rows(item);

CREATE TABLE IF NOT EXISTS emails (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  planPath TEXT NOT NULL DEFAULT '',
  countsJson TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  errorsJson TEXT NOT NULL DEFAULT '[]',
  docsJson TEXT NOT NULL DEFAULT '[]',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS plan_lines (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL,
  item TEXT,
  weight TEXT,
  packetSize TEXT,
  packetUsed TEXT,
  asin TEXT,
  mrp TEXT,
  fnsku TEXT,
  fssai TEXT,
  productLabel TEXT,
  splitFrom TEXT,
  qty INTEGER NOT NULL,
  status TEXT NOT NULL,
  issue TEXT,
  FOREIGN KEY(runId) REFERENCES runs(id)
);
CREATE INDEX IF NOT EXISTS idx_plan_lines_run ON plan_lines(runId);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// ReplaceCatalogRows swaps the stored snapshot for a freshly projected
// table. Full replace keeps the snapshot free of rows deleted upstream.
func (d *DB) ReplaceCatalogRows(rows []internal.CatalogRow) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM catalog_rows`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO catalog_rows (
  idx, item, weight, packetSize, packetUsed, asin, fkSku, mRef,
  mrp, fnsku, fssai, splitInto, productLabel, lastSeenAt
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(
			r.Index, r.Item, r.Weight, r.PacketSize, r.PacketUsed, r.ASIN, r.FkSKU, r.MRef,
			r.MRP, r.FNSKU, r.FSSAI, r.SplitInto, r.ProductLabel,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListCatalogRows() ([]internal.CatalogRow, error) {
	rows, err := d.conn.Query(`
SELECT idx, item, weight, packetSize, packetUsed, asin, fkSku, mRef,
       mrp, fnsku, fssai, splitInto, productLabel
FROM catalog_rows ORDER BY idx ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CatalogRow
	for rows.Next() {
		var r internal.CatalogRow
		if err := rows.Scan(
			&r.Index, &r.Item, &r.Weight, &r.PacketSize, &r.PacketUsed, &r.ASIN, &r.FkSKU, &r.MRef,
			&r.MRP, &r.FNSKU, &r.FSSAI, &r.SplitInto, &r.ProductLabel,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}

	return out, rows.Err()
}

func (d *DB) UpsertEmail(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.EmailRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO emails (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.EmailRow{}, err
	}

	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, errors.New("failed to upsert email")
	}
	return *row, nil
}

func (d *DB) GetEmailByProviderMessageID(provider, messageID string) (*internal.EmailRow, error) {
	var row internal.EmailRow
	err := d.conn.QueryRow(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM emails WHERE provider = ? AND messageId = ?
`, provider, messageID).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) GetEmailByID(id int) (*internal.EmailRow, error) {
	var row internal.EmailRow
	err := d.conn.QueryRow(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM emails WHERE id = ?
`, id).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListEmailsByStatus(status string, limit int) ([]internal.EmailRow, error) {
	rows, err := d.conn.Query(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM emails WHERE status = ? ORDER BY receivedAt ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.EmailRow
	for rows.Next() {
		var row internal.EmailRow
		if err := rows.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateEmailStatus(emailID int, status string) error {
	_, err := d.conn.Exec(`UPDATE emails SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, emailID)
	return err
}

func (d *DB) MustEmailByProviderMessageID(provider, messageID string) (internal.EmailRow, error) {
	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, fmt.Errorf("email not found: provider=%s messageId=%s", provider, messageID)
	}
	return *row, nil
}

func (d *DB) InsertRun(traceID, planPath string, counts map[string]int, timings map[string]float64, fileErrors []string, docPaths []string) (int64, error) {
	countsJSON, _ := json.Marshal(counts)
	timingsJSON, _ := json.Marshal(timings)
	errorsJSON, _ := json.Marshal(emptyAsList(fileErrors))
	docsJSON, _ := json.Marshal(emptyAsList(docPaths))

	result, err := d.conn.Exec(`
INSERT INTO runs (traceId, planPath, countsJson, timingsJson, errorsJson, docsJson)
VALUES (?, ?, ?, ?, ?, ?)
`, traceID, planPath, string(countsJSON), string(timingsJSON), string(errorsJSON), string(docsJSON))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (d *DB) GetRun(id int64) (*internal.RunRecord, error) {
	var rec internal.RunRecord
	err := d.conn.QueryRow(`
SELECT id, traceId, planPath, countsJson, timingsJson, errorsJson, docsJson, createdAt
FROM runs WHERE id = ?
`, id).Scan(&rec.ID, &rec.TraceID, &rec.PlanPath, &rec.CountsJSON, &rec.TimingsJSON, &rec.ErrorsJSON, &rec.DocsJSON, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (d *DB) ListRuns(limit int) ([]internal.RunRecord, error) {
	rows, err := d.conn.Query(`
SELECT id, traceId, planPath, countsJson, timingsJson, errorsJson, docsJson, createdAt
FROM runs ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRecord
	for rows.Next() {
		var rec internal.RunRecord
		if err := rows.Scan(&rec.ID, &rec.TraceID, &rec.PlanPath, &rec.CountsJSON, &rec.TimingsJSON, &rec.ErrorsJSON, &rec.DocsJSON, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (d *DB) InsertPlanLines(runID int64, lines []internal.PlanLine) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO plan_lines (
  runId, item, weight, packetSize, packetUsed, asin, mrp, fnsku, fssai,
  productLabel, splitFrom, qty, status, issue
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range lines {
		if _, err := stmt.Exec(
			runID, p.Item, p.Weight, p.PacketSize, p.PacketUsed, p.ASIN, p.MRP, p.FNSKU, p.FSSAI,
			p.ProductLabel, p.SplitFrom, p.Qty, string(p.Status), p.Issue,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListPlanLines(runID int64) ([]internal.PlanLine, error) {
	rows, err := d.conn.Query(`
SELECT item, weight, packetSize, packetUsed, asin, mrp, fnsku, fssai,
       productLabel, splitFrom, qty, status, issue
FROM plan_lines WHERE runId = ? ORDER BY id ASC
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.PlanLine
	for rows.Next() {
		var p internal.PlanLine
		var status string
		if err := rows.Scan(
			&p.Item, &p.Weight, &p.PacketSize, &p.PacketUsed, &p.ASIN, &p.MRP, &p.FNSKU, &p.FSSAI,
			&p.ProductLabel, &p.SplitFrom, &p.Qty, &status, &p.Issue,
		); err != nil {
			return nil, err
		}
		p.Status = internal.PlanStatus(status)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// emptyAsList keeps JSON columns as [] instead of null for nil slices.
func emptyAsList(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
