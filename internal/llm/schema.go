package llm

// BuildResumeJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map describing the extraction stage's output. The shapes are loose
// on purpose: nothing is required, and property mismatches are advisory —
// the store defaults unusable fields rather than rejecting the resume.
func BuildResumeJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"personal_information": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"full_name":    map[string]any{"type": "string"},
					"email":        map[string]any{"type": "string"},
					"phone_number": map[string]any{"type": "string"},
				},
			},
			"professional_summary": map[string]any{"type": "string"},
			"work_experience": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"total_internship_duration": map[string]any{"type": "string"},
					"entries":                   map[string]any{"type": "array"},
				},
			},
			"education":      map[string]any{"type": "array"},
			"skills":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"certifications": map[string]any{"type": "array"},
		},
	}
}

// BuildScoreJSONSchema describes the scoring stage's output.
func BuildScoreJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score_percent":         scoreProp(),
			"overall_score_percent": scoreProp(),
			"reasoning":             map[string]any{"type": "string"},
			"matched_skills":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"missing_skills":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
	}
}

func scoreProp() map[string]any {
	return map[string]any{
		"type":    "number",
		"minimum": 0.0,
		"maximum": 100.0,
	}
}
