package constants

// Phase marks where a resume currently is in the batch loop. Progress
// callbacks report these so a UI can show per-resume status.
type Phase string

const (
	PhaseAggregating Phase = "AGGREGATING"
	PhaseExtracting  Phase = "EXTRACTING"
	PhaseScoring     Phase = "SCORING"
	PhaseStoring     Phase = "STORING"
)
