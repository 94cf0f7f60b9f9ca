package listener

import (
	"context"
	"fmt"
	"strings"
	"time"

	"packhouse/internal/config"
	"packhouse/internal/connectors"
	gmailconnector "packhouse/internal/connectors/gmail"
	imapconnector "packhouse/internal/connectors/imap"
	"packhouse/internal/logger"
	"packhouse/internal/pipeline"
	"packhouse/internal/storage"
)

// Service polls one mailbox on an interval. Each cycle fetches new mail
// into the store and, when auto-export is on, processes pending emails into
// runs. With auto-export off the listener only accumulates mail and the
// operator drains it with mail:process.
type Service struct {
	db   *storage.DB
	cfg  config.Config
	mail *pipeline.MailService
}

func NewService(db *storage.DB, cfg config.Config) (*Service, error) {
	mail, err := pipeline.NewMailService(db, cfg)
	if err != nil {
		return nil, err
	}
	return &Service{db: db, cfg: cfg, mail: mail}, nil
}

// Run loops until the context is canceled. A failing cycle is logged and
// retried on the next tick; transient mailbox outages should not kill the
// daemon.
func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.runCycle(ctx); err != nil {
			logger.Error("listener cycle failed", "err", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.MailListenerIntervalSec) * time.Second):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
	mailConnector, err := s.makeConnector(provider)
	if err != nil {
		return err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, mailConnector)
	fetchResult, err := fetchService.FetchAndStore(s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", provider, err)
	}

	processed, skipped := 0, 0
	if s.cfg.MailListenerAutoExport {
		processed, skipped, err = s.mail.ProcessPending(ctx, s.cfg.MailListenerProcessBatch, provider)
		if err != nil {
			return fmt.Errorf("process pending: %w", err)
		}
	}

	logger.Info("listener cycle done", "provider", provider,
		"fetched", fetchResult.Fetched, "new", fetchResult.New,
		"processed", processed, "skipped", skipped)
	return nil
}

func (s *Service) makeConnector(provider string) (connectors.MailConnector, error) {
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(s.cfg)
	case "imap":
		return imapconnector.NewConnector(s.cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", provider)
	}
}
