package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"resume-screener/internal/common"
	"resume-screener/internal/entity"
)

// InsertCandidate stores one processed resume under jobID. Every field coming
// out of the AI stages is treated as hostile: scores go through numeric
// parsing with a [0,100] gate (anything else becomes NULL), nested structures
// are serialized with empty-object/empty-list fallbacks, and a dangling job
// reference surfaces as a foreign-key violation on the pinned write
// connection instead of a silent orphan. Failures are logged and reported as
// ok=false; nothing raises past this boundary.
func (s *Store) InsertCandidate(ctx context.Context, jobID int64, pageRange, jobDescription string, extracted, scored map[string]any, rawExtract, rawScore string) (int64, bool) {
	if jobID <= 0 {
		s.log.Error("store.candidate.invalid_job_id", "job_id", jobID)
		return 0, false
	}
	if extracted == nil {
		extracted = map[string]any{}
	}
	if scored == nil {
		scored = map[string]any{}
	}

	workExp, _ := extracted["work_experience"].(map[string]any)

	cols := strings.Join(candidateColumns, ", ")
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(candidateColumns)), ", ")
	insertSQL := fmt.Sprintf(`INSERT INTO candidates (%s) VALUES (%s)`, cols, placeholders)

	args := []any{
		pageRange,
		time.Now().UTC().Format(timestampLayout),
		jobDescription,
		s.jsonOrDefault(extracted["personal_information"], "{}"),
		textOrNil(extracted["professional_summary"]),
		s.jsonOrDefault(anyMap(workExp), "{}"),
		s.jsonOrDefault(extracted["education"], "[]"),
		s.jsonOrDefault(extracted["skills"], "[]"),
		s.jsonOrDefault(extracted["certifications"], "[]"),
		s.parseScore("score_percent", scored["score_percent"]),
		textOrNil(scored["reasoning"]),
		s.jsonOrDefault(scored["matched_skills"], "[]"),
		s.jsonOrDefault(scored["missing_skills"], "[]"),
		textOrNil(rawExtract),
		textOrNil(rawScore),
		jobID,
		freeform(workExp["total_years_experience"]),
		textOrNil(workExp["total_internship_duration"]),
		s.parseScore("overall_score_percent", scored["overall_score_percent"]),
	}

	conn, err := s.writeConn(ctx)
	if err != nil {
		s.log.Error("store.candidate.conn_failed", "job_id", jobID, "error", err)
		return 0, false
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx, insertSQL, args...)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			s.log.Error("store.candidate.dangling_job", "job_id", jobID, "pages", pageRange, "error", common.ErrConstraint)
		} else {
			s.log.Error("store.candidate.insert_failed", "job_id", jobID, "pages", pageRange, "error", err)
		}
		return 0, false
	}
	id, err := res.LastInsertId()
	if err != nil {
		s.log.Error("store.candidate.insert_id_failed", "job_id", jobID, "error", err)
		return 0, false
	}
	s.log.Info("store.candidate.ok", "candidate_id", id, "job_id", jobID, "pages", pageRange)
	return id, true
}

// ListCandidatesForJob returns the job's candidates best-fit first: fit score
// descending, then overall score descending. SQLite sorts NULL below any
// number, so unscored candidates sink to the bottom. The owning job's name is
// joined onto every record.
func (s *Store) ListCandidatesForJob(ctx context.Context, jobID int64) ([]entity.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.job_id, j.job_name, c.resume_page_range, c.processing_timestamp,
		       c.job_description_used, c.personal_information, c.professional_summary,
		       c.work_experience, c.education, c.skills, c.certifications,
		       c.score_percent, c.score_reasoning, c.matched_skills, c.missing_skills,
		       c.raw_assistant1_json, c.raw_assistant2_json,
		       c.total_years_experience, c.total_internship_duration, c.overall_score_percent
		FROM candidates c
		JOIN jobs j ON j.job_id = c.job_id
		WHERE c.job_id = ?
		ORDER BY c.score_percent DESC, c.overall_score_percent DESC`, jobID)
	if err != nil {
		return nil, common.WrapError(err, "list candidates")
	}
	defer rows.Close()

	var out []entity.Candidate
	for rows.Next() {
		var (
			c                                  entity.Candidate
			processedAt                        sql.NullString
			jobDesc, personal, summary         sql.NullString
			workExp, education, skills, certs  sql.NullString
			scorePct, overallPct               sql.NullFloat64
			reasoning, matched, missing        sql.NullString
			raw1, raw2, totalYears, internship sql.NullString
		)
		err := rows.Scan(&c.ID, &c.JobID, &c.JobName, &c.ResumePageRange, &processedAt,
			&jobDesc, &personal, &summary,
			&workExp, &education, &skills, &certs,
			&scorePct, &reasoning, &matched, &missing,
			&raw1, &raw2,
			&totalYears, &internship, &overallPct)
		if err != nil {
			return nil, common.WrapError(err, "scan candidate row")
		}

		c.ProcessingTimestamp = parseTimestamp(processedAt.String)
		c.JobDescriptionUsed = jobDesc.String
		c.PersonalInformation = rawJSON(personal)
		c.ProfessionalSummary = nullableString(summary)
		c.WorkExperience = rawJSON(workExp)
		c.Education = rawJSON(education)
		c.Skills = rawJSON(skills)
		c.Certifications = rawJSON(certs)
		c.ScorePercent = nullableFloat(scorePct)
		c.ScoreReasoning = nullableString(reasoning)
		c.MatchedSkills = rawJSON(matched)
		c.MissingSkills = rawJSON(missing)
		c.RawExtractionJSON = nullableString(raw1)
		c.RawScoringJSON = nullableString(raw2)
		c.TotalYearsExperience = nullableString(totalYears)
		c.TotalInternshipDuration = nullableString(internship)
		c.OverallScorePercent = nullableFloat(overallPct)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "iterate candidate rows")
	}
	s.log.Debug("store.candidates.listed", "job_id", jobID, "count", len(out))
	return out, nil
}

// parseScore coerces an AI-supplied score into a float in [0,100]. Anything
// non-numeric or out of range is persisted as NULL, never as-is.
func (s *Store) parseScore(field string, v any) any {
	var f float64
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		f = t
	case int:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			s.log.Warn("store.score.unparsable", "field", field, "value", t)
			return nil
		}
		f = parsed
	default:
		s.log.Warn("store.score.unparsable", "field", field, "value", fmt.Sprintf("%v", v))
		return nil
	}
	if f < 0 || f > 100 {
		s.log.Warn("store.score.out_of_range", "field", field, "value", f)
		return nil
	}
	return f
}

// jsonOrDefault serializes a nested value, substituting the field's empty
// default on any failure so the column always holds valid JSON.
func (s *Store) jsonOrDefault(v any, def string) string {
	if v == nil {
		return def
	}
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("store.json.marshal_failed", "default", def, "error", err)
		return def
	}
	return string(b)
}

// anyMap keeps a nil map distinguishable from an empty one for jsonOrDefault.
func anyMap(m map[string]any) any {
	if m == nil {
		return nil
	}
	return m
}

func textOrNil(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

// freeform passes a value through for a loosely typed column. The extractor
// reports experience as a number or as prose ("5+ years"); both are kept
// verbatim, which is inherited behavior the review layer compensates for.
func freeform(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case float64, int, int64, string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func rawJSON(v sql.NullString) json.RawMessage {
	if !v.Valid || v.String == "" {
		return nil
	}
	return json.RawMessage(v.String)
}
