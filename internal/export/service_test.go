package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"resume-screener/internal/entity"
)

type fakeLister struct {
	candidates []entity.Candidate
	err        error
}

func (f *fakeLister) ListCandidatesForJob(context.Context, int64) ([]entity.Candidate, error) {
	return f.candidates, f.err
}

func testCandidates() []entity.Candidate {
	score := 85.0
	overall := 90.0
	reasoning := "Strong Go background"
	years := "5+ years"
	return []entity.Candidate{
		{
			ID:                   1,
			ResumePageRange:      "1-2",
			ProcessingTimestamp:  time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC),
			PersonalInformation:  json.RawMessage(`{"full_name": "Jane Doe", "email": "jane@example.com"}`),
			ScorePercent:         &score,
			OverallScorePercent:  &overall,
			ScoreReasoning:       &reasoning,
			TotalYearsExperience: &years,
			MatchedSkills:        json.RawMessage(`["Go", "SQL"]`),
			MissingSkills:        json.RawMessage(`["Kubernetes"]`),
		},
		{
			ID:              2,
			ResumePageRange: "3",
		},
	}
}

func newTestService(lister *fakeLister) *Service {
	return NewService(lister, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestExportCSV(t *testing.T) {
	svc := newTestService(&fakeLister{candidates: testCandidates()})

	data, err := svc.ExportCSV(context.Background(), 1)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, exportHeaders, rows[0])
	assert.Equal(t, []string{
		"1", "Jane Doe", "jane@example.com", "1-2", "85", "90",
		"5+ years", "", "Go; SQL", "Kubernetes", "Strong Go background", "2026-03-15 09:30",
	}, rows[1])
	// Unscored, nameless candidate: N/A identity, blank metrics.
	assert.Equal(t, []string{"2", "N/A", "N/A", "3", "", "", "", "", "", "", "", ""}, rows[2])
}

func TestExportXLSX(t *testing.T) {
	svc := newTestService(&fakeLister{candidates: testCandidates()})

	data, err := svc.ExportXLSX(context.Background(), 1)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Candidates"}, f.GetSheetList())

	rows, err := f.GetRows("Candidates")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeaders, rows[0])
	assert.Equal(t, "Jane Doe", rows[1][1])
	assert.Equal(t, "85", rows[1][4])
	assert.Equal(t, "Go; SQL", rows[1][8])
	assert.Equal(t, "N/A", rows[2][1])
}

func TestExportEmptyJob(t *testing.T) {
	svc := newTestService(&fakeLister{})

	data, err := svc.ExportCSV(context.Background(), 1)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}

func TestExportPropagatesStoreErrors(t *testing.T) {
	svc := newTestService(&fakeLister{err: errors.New("db gone")})

	_, err := svc.ExportCSV(context.Background(), 1)
	assert.Error(t, err)
	_, err = svc.ExportXLSX(context.Background(), 1)
	assert.Error(t, err)
}
