package catalog

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"packhouse/internal/config"
)

// SheetClient reads the master table straight from the Google Sheets API,
// for deployments where the workbook never leaves Drive.
type SheetClient struct {
	cfg config.Config
}

func NewSheetClient(cfg config.Config) (*SheetClient, error) {
	checks := []struct{ name, value string }{
		{"GOOGLE_CLIENT_ID", cfg.GoogleClientID},
		{"GOOGLE_CLIENT_SECRET", cfg.GoogleClientSecret},
		{"GOOGLE_REFRESH_TOKEN", cfg.GoogleRefreshToken},
		{"CATALOG_SHEET_ID", cfg.CatalogSheetID},
	}
	for _, c := range checks {
		if err := cfg.Require(c.name, c.value); err != nil {
			return nil, err
		}
	}
	return &SheetClient{cfg: cfg}, nil
}

func (s *SheetClient) Fetch(ctx context.Context) (Table, error) {
	oauthCfg := &oauth2.Config{
		ClientID:     s.cfg.GoogleClientID,
		ClientSecret: s.cfg.GoogleClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  s.cfg.GoogleRedirectURI,
		Scopes:       []string{sheets.SpreadsheetsReadonlyScope},
	}
	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: s.cfg.GoogleRefreshToken})

	svc, err := sheets.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return Table{}, fmt.Errorf("sheets service: %w", err)
	}

	resp, err := svc.Spreadsheets.Values.Get(s.cfg.CatalogSheetID, s.cfg.CatalogSheetRange).Context(ctx).Do()
	if err != nil {
		return Table{}, fmt.Errorf("sheets values get: %w", err)
	}
	if len(resp.Values) == 0 {
		return Table{}, fmt.Errorf("sheet range %q is empty", s.cfg.CatalogSheetRange)
	}

	table := Table{Headers: toStrings(resp.Values[0])}
	for _, row := range resp.Values[1:] {
		table.Rows = append(table.Rows, toStrings(row))
	}
	return table, nil
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = fmt.Sprintf("%v", v)
	}
	return out
}
