package ocr

import (
	"fmt"
	"log/slog"
	"strings"
)

// EmptyOCRError is returned by CombinePages when there is no OCR data at all.
// Callers must treat it as a hard failure for the whole resume, unlike the
// per-page markers which only degrade the aggregate.
const EmptyOCRError = "--- Error: OCR data is empty ---"

// CombinePages joins the OCR text of the requested 1-based page numbers into
// one document. Each present page is wrapped in explicit Start/End delimiters
// so the extraction stage can attribute content to pages; empty and
// out-of-range pages contribute a visible marker block instead of failing
// the call.
func CombinePages(pages []string, pageNumbers []int, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}
	if len(pages) == 0 {
		logger.Warn("aggregate.empty_ocr_data", "requested_pages", len(pageNumbers))
		return EmptyOCRError
	}

	blocks := make([]string, 0, len(pageNumbers))
	for _, pageNum := range pageNumbers {
		idx := pageNum - 1
		if idx < 0 || idx >= len(pages) {
			logger.Warn("aggregate.page_out_of_range", "page", pageNum, "total_pages", len(pages))
			blocks = append(blocks, fmt.Sprintf("--- Error: Page %d not found ---", pageNum))
			continue
		}
		content := pages[idx]
		if strings.TrimSpace(content) == "" {
			logger.Warn("aggregate.page_empty", "page", pageNum)
			blocks = append(blocks, fmt.Sprintf("--- Warning: Page %d content is empty ---", pageNum))
			continue
		}
		blocks = append(blocks, fmt.Sprintf("--- Start Page %d ---\n%s\n--- End Page %d ---", pageNum, content, pageNum))
	}

	combined := strings.Join(blocks, "\n\n")
	logger.Debug("aggregate.ok", "pages", len(pageNumbers), "length", len(combined))
	return combined
}
