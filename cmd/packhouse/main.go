package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"packhouse/internal"
	"packhouse/internal/catalog"
	"packhouse/internal/config"
	"packhouse/internal/connectors"
	gmailconnector "packhouse/internal/connectors/gmail"
	imapconnector "packhouse/internal/connectors/imap"
	"packhouse/internal/httpapi"
	"packhouse/internal/labels"
	"packhouse/internal/listener"
	"packhouse/internal/logger"
	"packhouse/internal/pipeline"
	"packhouse/internal/reports"
	"packhouse/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "catalog:sync":
		svc := catalog.NewService(db, cfg)
		rows, err := svc.Load(context.Background())
		must(err)
		fmt.Printf("catalog sync complete source=%s rows=%d\n", cfg.CatalogSource, len(rows))

	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		source := fs.String("catalog", "", "override catalog source (sheets|csv|xlsx|cache)")
		_ = fs.Parse(os.Args[2:])
		paths := fs.Args()
		if len(paths) == 0 {
			must(fmt.Errorf("usage: packhouse run [--catalog=cache] <invoice.pdf> [more.pdf ...]"))
		}
		if strings.TrimSpace(*source) != "" {
			cfg.CatalogSource = *source
		}
		svc, err := pipeline.NewRunService(db, cfg)
		must(err)
		res, err := svc.Execute(context.Background(), paths, nil)
		must(err)
		printRun(res)

	case "plan:export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		runID := fs.Int64("runId", 0, "run id (0 = latest)")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		plan := loadPlan(db, *runID)
		must(pipeline.ExportPlanXLSX(plan, *out))
		fmt.Printf("exported %d plan lines to %s\n", len(plan), *out)

	case "labels:generate":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		runID := fs.Int64("runId", 0, "run id (0 = latest)")
		outDir := fs.String("outDir", cfg.OutputDir, "directory for label pdfs")
		_ = fs.Parse(os.Args[2:])
		plan := loadPlan(db, *runID)
		run := labels.BuildLabelRun(plan)
		for _, sk := range run.Skipped {
			fmt.Printf("skipped %s %s: %s\n", sk.Item, sk.Weight, sk.Reason)
		}
		if len(run.Barcode) > 0 {
			out := filepath.Join(*outDir, "fnsku-labels.pdf")
			must(labels.RenderFNSKULabels(run, out))
			fmt.Printf("fnsku labels: %d jobs -> %s\n", len(run.Barcode), out)
		}
		if len(run.MRP) > 0 {
			out := filepath.Join(*outDir, "mrp-labels.pdf")
			must(labels.RenderMRPLabels(run, out))
			fmt.Printf("mrp labels: %d jobs -> %s\n", len(run.MRP), out)
		}
		if len(run.Barcode) == 0 && len(run.MRP) == 0 {
			must(fmt.Errorf("no ready plan lines to label"))
		}

	case "labels:extract":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		master := fs.String("master", "", "master barcode pdf")
		fnsku := fs.String("fnsku", "", "fnsku to extract")
		out := fs.String("out", "", "output pdf path")
		_ = fs.Parse(os.Args[2:])
		if *master == "" || *fnsku == "" || *out == "" {
			must(fmt.Errorf("--master --fnsku --out are required"))
		}
		must(labels.ExtractFNSKUPage(*master, *fnsku, *out))
		fmt.Printf("extracted %s page to %s\n", *fnsku, *out)

	case "report:summary":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		runID := fs.Int64("runId", 0, "run id (0 = latest)")
		out := fs.String("out", "", "output pdf path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		plan := loadPlan(db, *runID)
		must(reports.PackingSummaryPDF(plan, *out))
		fmt.Printf("packing summary: %d lines -> %s\n", len(plan), *out)

	case "report:orders":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		ordersPath := fs.String("orders", "", "marketplace order export xlsx")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *ordersPath == "" || *out == "" {
			must(fmt.Errorf("--orders and --out are required"))
		}
		orders, err := catalog.LoadXLSX(*ordersPath)
		must(err)
		rows, err := catalog.NewService(db, cfg).Load(context.Background())
		must(err)
		stats, err := reports.OrderReportXLSX(orders, catalog.BuildIndex(rows), *out)
		must(err)
		fmt.Printf("order report: %d rows, %d orders (%d multi-item) -> %s\n",
			stats.Rows, stats.Orders, stats.MultiItemOrders, *out)

	case "plan:bulk":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		pivotPath := fs.String("pivot", "", "sales pivot xlsx")
		item := fs.String("item", "", "limit to one parent item")
		target := fs.Float64("target", 0, "kilograms to pack")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *pivotPath == "" || *out == "" {
			must(fmt.Errorf("--pivot and --out are required"))
		}
		pivot, err := catalog.LoadXLSX(*pivotPath)
		must(err)
		lines, err := reports.BulkPlan(pivot, *item, *target)
		must(err)
		must(reports.BulkPlanXLSX(lines, *out))
		packets := 0
		for _, l := range lines {
			packets += l.Packets
		}
		fmt.Printf("bulk plan: %d variations, %d packets -> %s\n", len(lines), packets, *out)

	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		label := fs.String("label", cfg.MailListenerLabel, "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := makeConnector(cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, conn)
		result, err := fetch.FetchAndStore(*label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d new=%d known=%d\n",
			*provider, result.Fetched, result.New, result.Known)

	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		messageID := fs.String("messageId", "", "specific message-id")
		batch := fs.Int("batch", 20, "batch size")
		_ = fs.Parse(os.Args[2:])
		svc, err := pipeline.NewMailService(db, cfg)
		must(err)
		ctx := context.Background()
		if strings.TrimSpace(*messageID) != "" {
			res, err := svc.ProcessByProviderMessageID(ctx, *provider, *messageID)
			must(err)
			fmt.Printf("email %d %s\n", res.EmailID, res.Status)
			if res.Run != nil {
				printRun(*res.Run)
			}
			return
		}
		processed, skipped, err := svc.ProcessPending(ctx, *batch, *provider)
		must(err)
		fmt.Printf("mail process done processed=%d skipped=%d\n", processed, skipped)

	case "mail:listen":
		logger.Init()
		svc, err := listener.NewService(db, cfg)
		must(err)
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		must(svc.Run(ctx))

	case "serve":
		logger.Init()
		srv, err := httpapi.NewServer(db, cfg)
		must(err)
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		must(srv.ListenAndServe(ctx))

	default:
		usage()
		os.Exit(1)
	}
}

func printRun(res pipeline.RunResult) {
	fmt.Printf("run %s done items=%d matched=%d unmatched=%d\n",
		res.TraceID, res.Items, res.Matched, res.Unmatched)
	fmt.Printf("plan lines=%d ready=%d missingFnsku=%d missingMaster=%d\n",
		res.PlanLines, res.Ready, res.MissingFNSKU, res.MissingMaster)
	fmt.Printf("plan: %s\n", res.PlanPath)
	for _, doc := range res.DocPaths {
		fmt.Printf("document: %s\n", doc)
	}
	for _, fe := range res.FileErrors {
		fmt.Printf("file error: %s\n", fe)
	}
}

// loadPlan resolves a run id (0 means the most recent run) to its stored
// plan lines.
func loadPlan(db *storage.DB, runID int64) []internal.PlanLine {
	if runID == 0 {
		runs, err := db.ListRuns(1)
		must(err)
		if len(runs) == 0 {
			must(fmt.Errorf("no runs recorded yet"))
		}
		runID = int64(runs[0].ID)
	}
	plan, err := db.ListPlanLines(runID)
	must(err)
	if len(plan) == 0 {
		must(fmt.Errorf("run %d has no plan lines", runID))
	}
	return plan
}

func makeConnector(cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func usage() {
	fmt.Println("usage: packhouse <command>")
	fmt.Println("commands:")
	fmt.Println("  catalog:sync")
	fmt.Println("  run [--catalog=sheets|csv|xlsx|cache] <invoice.pdf> [more.pdf ...]")
	fmt.Println("  plan:export [--runId=N] --out=./plan.xlsx")
	fmt.Println("  labels:generate [--runId=N] [--outDir=./out]")
	fmt.Println("  labels:extract --master=./labels.pdf --fnsku=X001... --out=./label.pdf")
	fmt.Println("  report:summary [--runId=N] --out=./summary.pdf")
	fmt.Println("  report:orders --orders=./orders.xlsx --out=./report.xlsx")
	fmt.Println("  plan:bulk --pivot=./sales.xlsx [--item=name] --target=KG --out=./bulk.xlsx")
	fmt.Println("  mail:fetch [--provider=gmail|imap] [--label=INBOX] [--max=50]")
	fmt.Println("  mail:process [--provider=gmail|imap] [--messageId=...] [--batch=20]")
	fmt.Println("  mail:listen")
	fmt.Println("  serve")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
