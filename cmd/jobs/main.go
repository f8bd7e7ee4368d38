package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"resume-screener/internal/common"
	"resume-screener/internal/export"
	"resume-screener/internal/repository"
)

// Job admin tool: list stored screening jobs, delete one (candidates go with
// it), or re-export a job's candidates to XLSX or CSV.
func main() {
	var (
		list     = flag.Bool("list", false, "list all jobs")
		deleteID = flag.Int64("delete", 0, "delete the job with this ID and all its candidates")
		exportID = flag.Int64("export", 0, "export candidates for the job with this ID")
		outPath  = flag.String("out", "candidates.xlsx", "output path for --export (.xlsx or .csv)")
		dbPath   = flag.String("db", "", "SQLite database path (defaults to DATABASE_PATH or resumes.db)")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if !*list && *deleteID == 0 && *exportID == 0 {
		fmt.Fprintln(os.Stderr, "Error: one of --list, --delete or --export is required")
		flag.Usage()
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}
	cfg := common.LoadConfig()
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	ctx := context.Background()

	store, err := repository.Open(cfg.Database.Path, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("close database", "error", cerr)
		}
	}()
	if err := store.InitSchema(ctx); err != nil {
		logger.Error("schema init failed", "error", err)
		os.Exit(1)
	}

	switch {
	case *list:
		jobs, err := store.ListJobs(ctx)
		if err != nil {
			logger.Error("failed to list jobs", "error", err)
			os.Exit(1)
		}
		if len(jobs) == 0 {
			fmt.Println("No jobs found.")
			return
		}
		for _, j := range jobs {
			fmt.Printf("%d\t%s\t%s\t%s\n", j.ID, j.Name, j.PDFFilename, j.CreatedAt.Format("2006-01-02 15:04"))
		}

	case *deleteID != 0:
		if store.DeleteJobAndCandidates(ctx, *deleteID) {
			fmt.Printf("Deleted job %d and its candidates.\n", *deleteID)
			return
		}
		fmt.Fprintf(os.Stderr, "Job %d not found.\n", *deleteID)
		os.Exit(1)

	case *exportID != 0:
		svc := export.NewService(store, logger)
		var data []byte
		if strings.HasSuffix(strings.ToLower(*outPath), ".csv") {
			data, err = svc.ExportCSV(ctx, *exportID)
		} else {
			data, err = svc.ExportXLSX(ctx, *exportID)
		}
		if err != nil {
			logger.Error("export failed", "job_id", *exportID, "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*outPath, data, 0644); err != nil {
			logger.Error("failed to write output file", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Exported job %d to %s\n", *exportID, *outPath)
	}
}
