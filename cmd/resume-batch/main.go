package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"resume-screener/internal/common"
	"resume-screener/internal/export"
	"resume-screener/internal/llm/openai"
	"resume-screener/internal/ocr"
	"resume-screener/internal/pipeline"
	"resume-screener/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		pdfPath = flag.String("pdf", "", "multi-resume PDF to process (required)")
		groups  = flag.String("groups", "", "page groups, one per resume, e.g. \"1-2,3,4-6\" (required)")
		jobName = flag.String("job-name", "", "unique job name (defaults to the PDF name plus timestamp)")
		jdPath  = flag.String("jd", "", "file holding the job description text (required)")
		dbPath  = flag.String("db", "", "SQLite database path (defaults to DATABASE_PATH or resumes.db)")
		outPath = flag.String("out", "", "output XLSX file path (optional, defaults next to the PDF)")
	)
	flag.Parse()

	if *pdfPath == "" || *groups == "" || *jdPath == "" {
		printError("Error: --pdf, --groups and --jd are required\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}
	cfg := common.LoadConfig()
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	if cfg.OCR.APIKey == "" {
		logger.Error("configuration invalid", "error", "MISTRAL_API_KEY is required")
		os.Exit(1)
	}

	pageGroups, err := pipeline.ParsePageGroups(*groups)
	if err != nil {
		logger.Error("invalid --groups", "error", err)
		os.Exit(1)
	}

	jdBytes, err := os.ReadFile(*jdPath)
	if err != nil {
		logger.Error("failed to read job description", "path", *jdPath, "error", err)
		os.Exit(1)
	}
	jobDescription := strings.TrimSpace(string(jdBytes))

	pdfBytes, err := os.ReadFile(*pdfPath)
	if err != nil {
		logger.Error("failed to read pdf", "path", *pdfPath, "error", err)
		os.Exit(1)
	}
	pdfName := filepath.Base(*pdfPath)

	name := *jobName
	if name == "" {
		name = fmt.Sprintf("%s %s", pdfName, time.Now().Format("2006-01-02 15:04"))
	}
	if *outPath == "" {
		*outPath = filepath.Join(filepath.Dir(*pdfPath), "candidates.xlsx")
	}

	ctx := context.Background()

	// OCR the whole document once; the pipeline slices pages per resume.
	ocrClient := ocr.NewClient(ocr.Config{
		APIKey:       cfg.OCR.APIKey,
		BaseURL:      cfg.OCR.BaseURL,
		Model:        cfg.OCR.Model,
		SignedURLTTL: cfg.OCR.SignedURLTTL,
		HTTPTimeout:  cfg.OCR.UploadTimeout,
	}, logger)
	pagesText, err := ocrClient.ExtractPages(ctx, pdfName, pdfBytes)
	if err != nil {
		logger.Error("ocr failed", "error", err)
		os.Exit(1)
	}
	logger.Info("ocr complete", "pages", len(pagesText), "resumes", len(pageGroups))

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

	snippet := jobDescription
	if len(snippet) > 100 {
		snippet = snippet[:100] + "..."
	}
	jobID, err := store.CreateJob(ctx, name, pdfName, snippet)
	if err != nil {
		logger.Error("failed to create job", "job_name", name, "error", err)
		os.Exit(1)
	}
	logger.Info("using job", "job_id", jobID, "job_name", name)

	runner := openai.NewClient(openai.Config{
		APIKey:       cfg.Assistant.APIKey,
		BaseURL:      cfg.Assistant.BaseURL,
		PollInterval: cfg.Assistant.PollInterval,
		RunTimeout:   cfg.Assistant.Timeout,
	}, logger)
	processor := pipeline.NewProcessor(runner, cfg.Assistant.ExtractID, cfg.Assistant.ScoreID, logger)

	stored, errored, err := processor.ProcessBatch(ctx, store, jobID, pageGroups, pagesText, jobDescription,
		func(p pipeline.Progress) {
			logger.Info("progress", "resume", p.Index+1, "total", p.Total, "pages", p.PageRange, "phase", p.Phase)
		})
	if err != nil {
		logger.Error("batch aborted", "job_id", jobID, "stored", stored, "errored", errored, "error", err)
		os.Exit(1)
	}

	exportService := export.NewService(store, logger)
	xlsxBytes, err := exportService.ExportXLSX(ctx, jobID)
	if err != nil {
		logger.Error("failed to export candidates", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outPath, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Job: %s (ID %d)\n", name, jobID)
	fmt.Printf("- Resumes stored: %d\n", stored)
	fmt.Printf("- Resumes errored: %d\n", errored)
	fmt.Printf("- Output: %s\n", *outPath)
}
