package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"resume-screener/internal/entity"
)

// listSeparator joins list-valued fields ("matched_skills" etc.) when they
// are flattened to a single tabular cell.
const listSeparator = "; "

// CandidateLister is the slice of the job store the export surface needs.
type CandidateLister interface {
	ListCandidatesForJob(ctx context.Context, jobID int64) ([]entity.Candidate, error)
}

// Service produces tabular exports (XLSX or CSV bytes) of a job's candidates.
type Service struct {
	store  CandidateLister
	logger *slog.Logger
}

func NewService(store CandidateLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

var exportHeaders = []string{
	"ID",
	"Name",
	"Email",
	"Pages",
	"Fit Score (%)",
	"Overall Score (%)",
	"Exp (Yrs)",
	"Internships",
	"Matched Skills",
	"Missing Skills",
	"Reasoning (Fit)",
	"Processed At",
}

// ExportXLSX returns an XLSX workbook (as bytes) with one row per candidate,
// best fit first.
func (s *Service) ExportXLSX(ctx context.Context, jobID int64) ([]byte, error) {
	start := time.Now()
	records, err := s.load(ctx, jobID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Candidates"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defIndex, _ := f.GetSheetIndex("Sheet1"); defIndex != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for rowIdx, rec := range records {
		for colIdx, v := range flatten(rec) {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	// Widen the prose-heavy columns
	_ = f.SetColWidth(sheet, "B", "C", 24) // name, email
	_ = f.SetColWidth(sheet, "I", "J", 32) // skills
	_ = f.SetColWidth(sheet, "K", "K", 60) // reasoning
	_ = f.SetColWidth(sheet, "L", "L", 18) // timestamp

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok", "job_id", jobID, "rows", len(records), "elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

// ExportCSV returns the same table as UTF-8 CSV bytes.
func (s *Service) ExportCSV(ctx context.Context, jobID int64) ([]byte, error) {
	records, err := s.load(ctx, jobID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeaders); err != nil {
		return nil, fmt.Errorf("csv write: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(flatten(rec)); err != nil {
			return nil, fmt.Errorf("csv write: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}
	s.logger.Info("export.csv.ok", "job_id", jobID, "rows", len(records))
	return buf.Bytes(), nil
}

func (s *Service) load(ctx context.Context, jobID int64) ([]entity.DisplayRecord, error) {
	candidates, err := s.store.ListCandidatesForJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	return DenormalizeAll(candidates, s.logger), nil
}

func flatten(rec entity.DisplayRecord) []string {
	return []string{
		fmt.Sprintf("%d", rec.ID),
		rec.CandidateName,
		rec.Email,
		rec.ResumePageRange,
		formatScore(rec.ScorePercent),
		formatScore(rec.OverallScorePercent),
		stringValue(rec.TotalYearsExperience),
		stringValue(rec.TotalInternshipDuration),
		joinList(rec.MatchedSkills),
		joinList(rec.MissingSkills),
		stringValue(rec.ScoreReasoning),
		formatTimestamp(rec.ProcessingTimestamp),
	}
}

func formatScore(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.0f", *v)
}

func stringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

// joinList flattens a JSON string list to "a; b; c". Anything unlist-like
// degrades to the empty string rather than leaking raw JSON into the table.
func joinList(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return ""
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			parts = append(parts, s)
		} else {
			parts = append(parts, fmt.Sprintf("%v", it))
		}
	}
	return strings.Join(parts, listSeparator)
}
