package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"resume-screener/constants"
	"resume-screener/internal/llm"
	"resume-screener/internal/ocr"
)

// Raw-response markers stored when a stage produced nothing parseable. These
// land in the audit columns, so they are stable strings.
const (
	rawNoExtractionResponse = "Error: No response from Extraction AI"
	rawNoScoringResponse    = "Error: No response from Scoring AI"
)

// CandidateStore is the slice of the job store the batch loop needs.
type CandidateStore interface {
	InsertCandidate(ctx context.Context, jobID int64, pageRange, jobDescription string, extracted, scored map[string]any, rawExtract, rawScore string) (int64, bool)
}

// Progress is reported once per phase transition for each resume in a batch.
type Progress struct {
	Index     int // 0-based resume index within the batch
	Total     int
	PageRange string
	Phase     constants.Phase
}

type ProgressFunc func(Progress)

// Processor runs the two-stage pipeline (extraction, then fit scoring) over
// operator-defined page groups. One resume at a time, strictly sequential:
// scoring must see extraction's completed output, and a failed resume never
// stops the rest of the batch.
type Processor struct {
	log       *slog.Logger
	runner    llm.StageRunner
	extractID string
	scoreID   string
	now       func() time.Time
}

func NewProcessor(runner llm.StageRunner, extractID, scoreID string, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		log:       logger,
		runner:    runner,
		extractID: extractID,
		scoreID:   scoreID,
		now:       time.Now,
	}
}

// ProcessOne aggregates the group's pages, extracts a structured resume, and
// scores it against the job description. A nil extracted map means the resume
// failed outright and must not be stored. A nil scored map cannot happen when
// extraction succeeded: scoring failures degrade to a placeholder instead.
func (p *Processor) ProcessOne(ctx context.Context, pageGroup []int, pagesText []string, jobDescription string) (map[string]any, map[string]any, string, string) {
	return p.processOne(ctx, pageGroup, pagesText, jobDescription, nil)
}

func (p *Processor) processOne(ctx context.Context, pageGroup []int, pagesText []string, jobDescription string, emit func(constants.Phase)) (map[string]any, map[string]any, string, string) {
	pageRange := FormatPageRange(pageGroup)
	p.log.Info("resume.process.start", "pages", pageRange)

	// Step 1: aggregate. Without valid extraction input there is nothing to
	// send downstream, so the resume fails here.
	phase(emit, constants.PhaseAggregating)
	combined := ocr.CombinePages(pagesText, pageGroup, p.log)
	if combined == "" || combined == ocr.EmptyOCRError {
		p.log.Error("resume.aggregate.failed", "pages", pageRange)
		return nil, nil, fmt.Sprintf("Error: failed text aggregation for pages %s", pageRange), ""
	}

	// Step 2: extraction.
	phase(emit, constants.PhaseExtracting)
	rawExtract, _, ok := p.runner.RunStage(ctx, p.extractID, combined, "")
	if !ok {
		p.log.Warn("resume.extract.no_response", "pages", pageRange)
		return nil, nil, rawNoExtractionResponse, ""
	}
	extracted, parsed := llm.ParseLenientJSON(rawExtract)
	if !parsed {
		p.log.Error("resume.extract.unparsable", "pages", pageRange, "response_len", len(rawExtract))
		return nil, nil, rawExtract, ""
	}
	if err := llm.ValidateJSONAgainstSchema(llm.BuildResumeJSONSchema(), []byte(llm.StripCodeFence(rawExtract))); err != nil {
		// Shape drift is tolerated; the store defaults any unusable field.
		p.log.Warn("resume.extract.shape_mismatch", "pages", pageRange, "error", err)
	}

	// Step 3: scoring, only on top of a successful extraction. The current
	// date goes into the prompt so age-relative experience judgments hold.
	phase(emit, constants.PhaseScoring)
	rawScore, _, ok := p.runner.RunStage(ctx, p.scoreID, p.buildScorePrompt(extracted, jobDescription), "")
	if !ok {
		rawScore = rawNoScoringResponse
	}

	scored, parsed := llm.ParseLenientJSON(rawScore)
	if !parsed {
		// Scoring failure does not fail the resume; the extraction is still
		// worth keeping, with the fit fields blanked out.
		p.log.Warn("resume.score.failed", "pages", pageRange)
		scored = llm.ScorePlaceholder()
	}

	p.log.Info("resume.process.ok", "pages", pageRange, "scored", parsed)
	return extracted, scored, rawExtract, rawScore
}

func (p *Processor) buildScorePrompt(extracted map[string]any, jobDescription string) string {
	candidateJSON, err := json.MarshalIndent(extracted, "", "  ")
	if err != nil {
		candidateJSON = []byte("{}")
	}
	return fmt.Sprintf("Current Date: %s.\n\nCandidate Data: ```json\n%s\n```\nJob Description: ```\n%s\n```",
		p.now().Format("02/01/2006"), candidateJSON, jobDescription)
}

// ProcessBatch runs every page group through ProcessOne and stores the
// survivors. Failure isolation is per resume: an aggregation or extraction
// failure counts against errored and the loop moves on. Only context
// cancellation aborts the remaining resumes, leaving the job with whatever
// candidates were already stored.
func (p *Processor) ProcessBatch(ctx context.Context, store CandidateStore, jobID int64, groups [][]int, pagesText []string, jobDescription string, progress ProgressFunc) (stored, errored int, err error) {
	total := len(groups)
	for i, group := range groups {
		if ctx.Err() != nil {
			p.log.Error("batch.aborted", "job_id", jobID, "completed", i, "total", total, "error", ctx.Err())
			return stored, errored, ctx.Err()
		}

		pageRange := FormatPageRange(group)
		emit := func(ph constants.Phase) {
			if progress != nil {
				progress(Progress{Index: i, Total: total, PageRange: pageRange, Phase: ph})
			}
		}

		extracted, scored, rawExtract, rawScore := p.processOne(ctx, group, pagesText, jobDescription, emit)
		if extracted == nil {
			p.log.Warn("batch.resume_failed", "job_id", jobID, "pages", pageRange)
			errored++
			continue
		}

		emit(constants.PhaseStoring)
		if _, ok := store.InsertCandidate(ctx, jobID, pageRange, jobDescription, extracted, scored, rawExtract, rawScore); !ok {
			p.log.Warn("batch.store_failed", "job_id", jobID, "pages", pageRange)
			errored++
			continue
		}
		stored++
	}
	p.log.Info("batch.done", "job_id", jobID, "stored", stored, "errored", errored)
	return stored, errored, nil
}

func phase(emit func(constants.Phase), ph constants.Phase) {
	if emit != nil {
		emit(ph)
	}
}
