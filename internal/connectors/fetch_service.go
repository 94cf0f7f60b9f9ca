package connectors

import (
	"packhouse/internal/logger"
	"packhouse/internal/storage"
)

// FetchService drives one connector and lands everything it returns in the
// mail store.
type FetchService struct {
	connector MailConnector
	store     *MailStoreService
}

// FetchResult splits a batch into mail seen for the first time and mail the
// store already knew. Known mail is normal steady-state noise: unseen-only
// mailboxes still overlap across cycles when processing lags fetching.
type FetchResult struct {
	Fetched int
	New     int
	Known   int
}

func NewFetchService(db *storage.DB, rawMailDir string, connector MailConnector) *FetchService {
	return &FetchService{
		connector: connector,
		store:     NewMailStoreService(db, rawMailDir),
	}
}

// FetchAndStore pulls up to max messages and stores each one. A store
// failure aborts the batch; the connector fetch is cheap to repeat and
// already-stored messages dedupe on the next pass.
func (s *FetchService) FetchAndStore(label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(label, max)
	if err != nil {
		return FetchResult{}, err
	}

	res := FetchResult{Fetched: len(messages)}
	for _, msg := range messages {
		row, known, err := s.store.Store(msg)
		if err != nil {
			return res, err
		}
		if known {
			res.Known++
			continue
		}
		res.New++
		logger.Debug("mail stored", "provider", msg.Provider, "emailId", row.ID, "subject", msg.Subject)
	}
	if res.Fetched > 0 {
		logger.Info("mail batch stored", "label", label, "fetched", res.Fetched, "new", res.New, "known", res.Known)
	}
	return res, nil
}
