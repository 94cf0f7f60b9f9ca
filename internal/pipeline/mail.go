package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"packhouse/internal"
	"packhouse/internal/config"
	"packhouse/internal/logger"
	"packhouse/internal/storage"
)

// MailService turns stored emails into runs. Fetching and storing raw
// messages is the connectors' job; this service only reads what they wrote.
type MailService struct {
	db   *storage.DB
	cfg  config.Config
	runs *RunService
}

func NewMailService(db *storage.DB, cfg config.Config) (*MailService, error) {
	runs, err := NewRunService(db, cfg)
	if err != nil {
		return nil, err
	}
	return &MailService{db: db, cfg: cfg, runs: runs}, nil
}

// MailProcessResult reports what happened to one email. Run is set only
// when Status is "processed".
type MailProcessResult struct {
	EmailID int
	Status  string
	Run     *RunResult
}

func (s *MailService) ProcessByProviderMessageID(ctx context.Context, provider, messageID string) (MailProcessResult, error) {
	email, err := s.db.MustEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return MailProcessResult{}, err
	}
	return s.ProcessEmail(ctx, email)
}

// ProcessPending works through fetched emails oldest-first and stops at the
// first hard failure so a broken message is not silently skipped.
func (s *MailService) ProcessPending(ctx context.Context, limit int, provider string) (processed, skipped int, err error) {
	emails, err := s.db.ListEmailsByStatus("fetched", limit)
	if err != nil {
		return 0, 0, err
	}
	for _, email := range emails {
		if provider != "" && email.Provider != provider {
			continue
		}
		res, err := s.ProcessEmail(ctx, email)
		if err != nil {
			return processed, skipped, fmt.Errorf("email %d: %w", email.ID, err)
		}
		if res.Status == "processed" {
			processed++
		} else {
			skipped++
		}
	}
	return processed, skipped, nil
}

// ProcessEmail classifies one stored email and, when it looks like an
// invoice mail, runs the pipeline over its PDF attachments. HTML manifests
// stand in only when the mail carries no PDFs; counting both would double
// every order.
func (s *MailService) ProcessEmail(ctx context.Context, email internal.EmailRow) (MailProcessResult, error) {
	result := MailProcessResult{EmailID: email.ID, Status: "skipped"}

	raw, err := os.ReadFile(email.RawRef)
	if err != nil {
		return result, fmt.Errorf("read stored mail: %w", err)
	}
	payload, err := ExtractMailPayload(raw)
	if err != nil {
		return result, fmt.Errorf("parse mail: %w", err)
	}

	detect := DetectInvoice(firstNonEmpty(payload.Subject, email.Subject), payload.From, payload.Text, payload.AttachmentNames)
	if !detect.IsInvoice {
		logger.Info("email skipped", "emailId", email.ID, "reason", detect.Reason, "score", detect.Score)
		return result, s.db.UpdateEmailStatus(email.ID, "skipped")
	}

	tmpDir, err := os.MkdirTemp(s.cfg.WorkDir, "mail-run-*")
	if err != nil {
		return result, err
	}
	defer os.RemoveAll(tmpDir)

	var pdfPaths []string
	for i, att := range payload.PDFs {
		name := filepath.Base(att.Name)
		if name == "" || name == "." || name == string(filepath.Separator) {
			name = fmt.Sprintf("attachment-%d.pdf", i+1)
		}
		path := filepath.Join(tmpDir, fmt.Sprintf("%02d-%s", i+1, name))
		if err := os.WriteFile(path, att.Content, 0o644); err != nil {
			return result, err
		}
		pdfPaths = append(pdfPaths, path)
	}

	manifest := payload.ManifestItems
	if len(pdfPaths) > 0 {
		manifest = nil
	}
	if len(pdfPaths) == 0 && len(manifest) == 0 {
		logger.Info("email skipped", "emailId", email.ID, "reason", "no usable content")
		return result, s.db.UpdateEmailStatus(email.ID, "skipped")
	}

	run, err := s.runs.Execute(ctx, pdfPaths, manifest)
	if err != nil {
		if uerr := s.db.UpdateEmailStatus(email.ID, "failed"); uerr != nil {
			logger.Error("mark email failed", "emailId", email.ID, "err", uerr)
		}
		return result, fmt.Errorf("run for email %d: %w", email.ID, err)
	}

	if err := s.db.UpdateEmailStatus(email.ID, "processed"); err != nil {
		return result, err
	}
	result.Status = "processed"
	result.Run = &run
	logger.Info("email processed", "emailId", email.ID, "runTrace", run.TraceID,
		"planLines", run.PlanLines, "docs", len(run.DocPaths))
	return result, nil
}
