package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"resume-screener/internal/common"
	"resume-screener/internal/ocr"
)

// Standalone OCR runner: extracts per-page text from a PDF and prints it with
// page markers, useful for checking what the pipeline will see before a batch.
func main() {
	var (
		pdfPath = flag.String("pdf", "", "PDF file to OCR (required)")
		raw     = flag.Bool("raw", false, "print pages without markers, separated by form feeds")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *pdfPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --pdf is required")
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}
	cfg := common.LoadConfig()
	if cfg.OCR.APIKey == "" {
		logger.Error("configuration invalid", "error", "MISTRAL_API_KEY is required")
		os.Exit(1)
	}

	pdfBytes, err := os.ReadFile(*pdfPath)
	if err != nil {
		logger.Error("failed to read pdf", "path", *pdfPath, "error", err)
		os.Exit(1)
	}

	client := ocr.NewClient(ocr.Config{
		APIKey:       cfg.OCR.APIKey,
		BaseURL:      cfg.OCR.BaseURL,
		Model:        cfg.OCR.Model,
		SignedURLTTL: cfg.OCR.SignedURLTTL,
		HTTPTimeout:  cfg.OCR.UploadTimeout,
	}, logger)

	pages, err := client.ExtractPages(context.Background(), filepath.Base(*pdfPath), pdfBytes)
	if err != nil {
		logger.Error("ocr failed", "error", err)
		os.Exit(1)
	}

	for i, page := range pages {
		if *raw {
			if i > 0 {
				fmt.Print("\f")
			}
			fmt.Println(page)
			continue
		}
		fmt.Printf("--- Start Page %d ---\n%s\n--- End Page %d ---\n", i+1, page, i+1)
	}
	logger.Info("ocr complete", "pages", len(pages))
}
