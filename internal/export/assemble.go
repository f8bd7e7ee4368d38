package export

import (
	"encoding/json"
	"log/slog"

	"resume-screener/internal/entity"
)

const notAvailable = "N/A"

// Denormalize flattens a stored candidate into a display record: the name
// and email buried in the personal_information blob become first-class
// fields. The blob itself (and every other nested field) stays on the record
// for consumers that need more than the flat view. A malformed blob never
// propagates — the fields degrade to "N/A" with a logged warning.
func Denormalize(c entity.Candidate, logger *slog.Logger) entity.DisplayRecord {
	if logger == nil {
		logger = slog.Default()
	}
	rec := entity.DisplayRecord{
		Candidate:     c,
		CandidateName: notAvailable,
		Email:         notAvailable,
	}
	if len(c.PersonalInformation) == 0 {
		return rec
	}

	var info map[string]any
	if err := json.Unmarshal(c.PersonalInformation, &info); err != nil {
		logger.Warn("assemble.personal_info_unparsable", "candidate_id", c.ID, "error", err)
		return rec
	}
	if name, ok := info["full_name"].(string); ok && name != "" {
		rec.CandidateName = name
	}
	if email, ok := info["email"].(string); ok && email != "" {
		rec.Email = email
	}
	return rec
}

// DenormalizeAll maps Denormalize over a candidate list, preserving order.
func DenormalizeAll(cs []entity.Candidate, logger *slog.Logger) []entity.DisplayRecord {
	out := make([]entity.DisplayRecord, len(cs))
	for i, c := range cs {
		out[i] = Denormalize(c, logger)
	}
	return out
}
