package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"packhouse/internal"
	"packhouse/internal/assemble"
	"packhouse/internal/catalog"
	"packhouse/internal/config"
	"packhouse/internal/invoice"
	"packhouse/internal/logger"
	"packhouse/internal/pdftext"
	"packhouse/internal/storage"
)

// RunService executes batch runs: extract, match, plan, rework the source
// documents, export. Single-threaded on purpose; runs are operator-paced
// and deterministic input order keeps artifacts reproducible.
type RunService struct {
	db       *storage.DB
	cfg      config.Config
	catalog  *catalog.Service
	profiles config.Profiles
}

func NewRunService(db *storage.DB, cfg config.Config) (*RunService, error) {
	profiles, err := config.LoadProfiles(cfg.ProfilePath)
	if err != nil {
		return nil, err
	}
	return &RunService{
		db:       db,
		cfg:      cfg,
		catalog:  catalog.NewService(db, cfg),
		profiles: profiles,
	}, nil
}

// RunResult summarizes one run for callers and for the stored run record.
type RunResult struct {
	RunID         int64
	TraceID       string
	Items         int
	Matched       int
	Unmatched     int
	PlanLines     int
	Ready         int
	MissingFNSKU  int
	MissingMaster int
	PlanPath      string
	DocPaths      []string
	FileErrors    []string
}

type docState struct {
	index int
	path  string
	doc   *pdftext.Document
	hits  [][]invoice.Hit
}

// Execute runs the pipeline over local PDFs plus optional manifest items.
// A file that cannot be read or exceeds the limits fails alone: its error
// lands in FileErrors and the rest of the run proceeds. Catalog, export and
// storage failures abort the run.
func (s *RunService) Execute(ctx context.Context, pdfPaths []string, manifest []internal.InvoiceItem) (RunResult, error) {
	if len(pdfPaths) == 0 && len(manifest) == 0 {
		return RunResult{}, fmt.Errorf("run: nothing to process")
	}
	if s.cfg.MaxFiles > 0 && len(pdfPaths) > s.cfg.MaxFiles {
		return RunResult{}, fmt.Errorf("run: %d files exceed the limit of %d", len(pdfPaths), s.cfg.MaxFiles)
	}

	start := time.Now()
	result := RunResult{TraceID: traceID()}
	timings := map[string]float64{}

	catalogStart := time.Now()
	rows, err := s.catalog.Load(ctx)
	if err != nil {
		return result, fmt.Errorf("load catalog: %w", err)
	}
	timings["catalogMs"] = elapsedMs(catalogStart)

	idx := catalog.BuildIndex(rows)
	matcher := NewMatcher(idx)
	window := s.profiles.For(string(internal.MarketplaceAmazon)).ContextWindow

	extractStart := time.Now()
	var docs []docState
	var items []internal.InvoiceItem
	for di, path := range pdfPaths {
		doc, err := pdftext.Read(path, s.cfg.MaxFileBytes)
		if err != nil {
			result.FileErrors = append(result.FileErrors, fmt.Sprintf("%s: %v", filepath.Base(path), err))
			logger.Warn("skipping unreadable pdf", "file", path, "err", err)
			continue
		}
		if s.cfg.MaxPages > 0 && len(doc.Pages) > s.cfg.MaxPages {
			result.FileErrors = append(result.FileErrors,
				fmt.Sprintf("%s: %d pages exceed the limit of %d", filepath.Base(path), len(doc.Pages), s.cfg.MaxPages))
			continue
		}

		state := docState{index: di, path: path, doc: doc, hits: make([][]invoice.Hit, len(doc.Pages))}
		for i, page := range doc.Pages {
			hits := invoice.ExtractPageHits(page, window)
			state.hits[i] = hits
			for _, h := range hits {
				item := h.Item
				item.DocIndex = di
				items = append(items, item)
			}
		}
		docs = append(docs, state)
	}
	items = append(items, manifest...)
	timings["extractMs"] = elapsedMs(extractStart)

	matchStart := time.Now()
	results := make([]internal.MatchResult, len(items))
	for i, item := range items {
		results[i] = matcher.Match(item)
		if results[i].Status == internal.Matched {
			result.Matched++
		} else {
			result.Unmatched++
		}
	}
	timings["matchMs"] = elapsedMs(matchStart)

	plan := Expand(Aggregate(items, results), idx)

	outDir := filepath.Join(s.cfg.OutputDir, "run-"+result.TraceID)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return result, err
	}

	assembleStart := time.Now()
	resolve := func(item internal.InvoiceItem) *internal.CatalogRow {
		if m := matcher.Match(item); m.Status == internal.Matched {
			return m.Row
		}
		return nil
	}
	for _, d := range docs {
		prof := s.profiles.For(string(docMarketplace(d)))
		outPath := filepath.Join(outDir, packedName(d.index, d.path))
		res, err := assemble.New(prof).Assemble(d.path, d.doc, d.hits, resolve, outPath)
		if err != nil {
			result.FileErrors = append(result.FileErrors, fmt.Sprintf("%s: %v", filepath.Base(d.path), err))
			logger.Warn("assembly failed", "file", d.path, "err", err)
			continue
		}
		for _, warning := range res.Warnings {
			logger.Warn("assembly degraded", "file", filepath.Base(d.path), "warning", warning)
		}
		logger.Info("document assembled", "file", filepath.Base(d.path),
			"pages", res.Pages, "groups", res.Groups, "cropped", res.Cropped, "highlighted", res.Highlighted)
		result.DocPaths = append(result.DocPaths, outPath)
	}
	timings["assembleMs"] = elapsedMs(assembleStart)

	exportStart := time.Now()
	result.PlanPath = filepath.Join(outDir, "packing-plan.xlsx")
	if err := ExportPlanXLSX(plan, result.PlanPath); err != nil {
		return result, fmt.Errorf("export plan: %w", err)
	}
	timings["exportMs"] = elapsedMs(exportStart)
	timings["totalMs"] = elapsedMs(start)

	result.Items = len(items)
	result.PlanLines = len(plan)
	for _, p := range plan {
		switch p.Status {
		case internal.PlanReady:
			result.Ready++
		case internal.PlanMissingFNSKU:
			result.MissingFNSKU++
		default:
			result.MissingMaster++
		}
	}

	if s.db != nil {
		counts := map[string]int{
			"files":         len(pdfPaths),
			"items":         result.Items,
			"matched":       result.Matched,
			"unmatched":     result.Unmatched,
			"planLines":     result.PlanLines,
			"ready":         result.Ready,
			"missingFnsku":  result.MissingFNSKU,
			"missingMaster": result.MissingMaster,
		}
		runID, err := s.db.InsertRun(result.TraceID, result.PlanPath, counts, timings, result.FileErrors, result.DocPaths)
		if err != nil {
			return result, fmt.Errorf("record run: %w", err)
		}
		result.RunID = runID
		if err := s.db.InsertPlanLines(runID, plan); err != nil {
			return result, fmt.Errorf("record plan: %w", err)
		}
	}

	logger.Info("run complete", "trace", result.TraceID,
		"items", result.Items, "matched", result.Matched, "planLines", result.PlanLines, "fileErrors", len(result.FileErrors))
	return result, nil
}

// docMarketplace picks the profile key for a document: the first extracted
// item decides; a document of bare label pages is Flipkart.
func docMarketplace(d docState) internal.Marketplace {
	for _, hits := range d.hits {
		for _, h := range hits {
			return h.Item.Marketplace
		}
	}
	for _, p := range d.doc.Pages {
		if invoice.FindAWB(p) != "" {
			return internal.MarketplaceFlipkart
		}
	}
	return internal.MarketplaceAmazon
}

func packedName(index int, path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return fmt.Sprintf("%02d-%s-packed.pdf", index+1, base)
}

func elapsedMs(since time.Time) float64 {
	return float64(time.Since(since).Milliseconds())
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
