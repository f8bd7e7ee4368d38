package llm

import "context"

// StageRunner runs one AI assistant stage and hands back the raw response
// text. Implementations never return errors for expected failure modes: a
// missing or unusable response comes back as ok=false with the reason logged,
// and the caller decides what that means for the resume being processed.
type StageRunner interface {
	// RunStage submits prompt to the assistant identified by assistantID.
	// When threadID is empty a fresh conversation is created seeded with the
	// prompt; otherwise the prompt is appended to the existing conversation.
	// The thread ID in use is always returned so callers can continue it.
	RunStage(ctx context.Context, assistantID, prompt, threadID string) (text string, usedThreadID string, ok bool)
}

// ScorePlaceholder is stored when extraction succeeded but scoring did not.
// The resume is still kept; only the fit fields are blanked out.
func ScorePlaceholder() map[string]any {
	return map[string]any{
		"score_percent":         nil,
		"reasoning":             "Scoring failed",
		"matched_skills":        []any{},
		"missing_skills":        []any{},
		"overall_score_percent": nil,
	}
}
