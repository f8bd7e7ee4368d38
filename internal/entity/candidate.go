package entity

import (
	"encoding/json"
	"time"
)

// Candidate represents one processed resume for data transfer between layers.
// The nested AI output is carried as raw JSON; consumers parse the blobs they
// need with the usual tolerant-parse-with-default discipline.
type Candidate struct {
	ID                  int64           `json:"id"`
	JobID               int64           `json:"job_id"`
	JobName             string          `json:"job_name"`
	ResumePageRange     string          `json:"resume_page_range"`
	ProcessingTimestamp time.Time       `json:"processing_timestamp"`
	JobDescriptionUsed  string          `json:"job_description_used,omitempty"`
	PersonalInformation json.RawMessage `json:"personal_information,omitempty"`
	ProfessionalSummary *string         `json:"professional_summary,omitempty"`
	WorkExperience      json.RawMessage `json:"work_experience,omitempty"`
	Education           json.RawMessage `json:"education,omitempty"`
	Skills              json.RawMessage `json:"skills,omitempty"`
	Certifications      json.RawMessage `json:"certifications,omitempty"`
	ScorePercent        *float64        `json:"score_percent,omitempty"`
	ScoreReasoning      *string         `json:"score_reasoning,omitempty"`
	MatchedSkills       json.RawMessage `json:"matched_skills,omitempty"`
	MissingSkills       json.RawMessage `json:"missing_skills,omitempty"`
	OverallScorePercent *float64        `json:"overall_score_percent,omitempty"`
	// Free-form by upstream contract: the extractor emits values like "5" or
	// "5+ years", so this is text even though it usually holds a number.
	TotalYearsExperience    *string `json:"total_years_experience,omitempty"`
	TotalInternshipDuration *string `json:"total_internship_duration,omitempty"`
	RawExtractionJSON       *string `json:"raw_assistant1_json,omitempty"`
	RawScoringJSON          *string `json:"raw_assistant2_json,omitempty"`
}

// DisplayRecord is a Candidate flattened for tabular review: name and email
// are pulled out of personal_information as first-class fields. The original
// blobs stay on the embedded Candidate.
type DisplayRecord struct {
	Candidate
	CandidateName string `json:"candidate_name"`
	Email         string `json:"email"`
}
