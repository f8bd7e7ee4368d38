package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"resume-screener/internal/common"
	"resume-screener/internal/entity"
)

// CreateJob inserts a new job row and returns its id. Creation is idempotent
// by name: when the unique constraint on job_name fires, the existing job's
// id is returned instead of an error, so re-running a batch under the same
// name resumes against the same job.
func (s *Store) CreateJob(ctx context.Context, name, pdfFilename, descSnippet string) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, common.NewAppError("INVALID_JOB", "job name is required", common.ErrInvalidInput)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (job_name, pdf_filename, job_description_snippet) VALUES (?, ?, ?)`,
		name, pdfFilename, descSnippet)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			s.log.Warn("store.job.exists", "job_name", name)
			if id, ok := s.GetJobIDByName(ctx, name); ok {
				return id, nil
			}
		}
		s.log.Error("store.job.create_failed", "job_name", name, "error", err)
		return 0, common.WrapError(err, "create job")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, common.WrapError(err, "job insert id")
	}
	s.log.Info("store.job.created", "job_id", id, "job_name", name)
	return id, nil
}

// GetJobIDByName looks up a job by its unique name. A missing job is an
// expected condition, reported as ok=false rather than an error.
func (s *Store) GetJobIDByName(ctx context.Context, name string) (int64, bool) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT job_id FROM jobs WHERE job_name = ?`, name).Scan(&id)
	if err == sql.ErrNoRows {
		s.log.Warn("store.job.not_found", "job_name", name)
		return 0, false
	}
	if err != nil {
		s.log.Error("store.job.lookup_failed", "job_name", name, "error", err)
		return 0, false
	}
	return id, true
}

// ListJobs returns all jobs, most recently created first.
func (s *Store) ListJobs(ctx context.Context) ([]entity.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_id, job_name, pdf_filename, job_description_snippet, created_at
		 FROM jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, common.WrapError(err, "list jobs")
	}
	defer rows.Close()

	var jobs []entity.Job
	for rows.Next() {
		var (
			j                          entity.Job
			pdfName, snippet, createdAt sql.NullString
		)
		if err := rows.Scan(&j.ID, &j.Name, &pdfName, &snippet, &createdAt); err != nil {
			return nil, common.WrapError(err, "scan job row")
		}
		j.PDFFilename = pdfName.String
		j.DescriptionSnippet = snippet.String
		j.CreatedAt = parseTimestamp(createdAt.String)
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "iterate job rows")
	}
	s.log.Debug("store.jobs.listed", "count", len(jobs))
	return jobs, nil
}

// DeleteJobAndCandidates deletes a job row; the candidates rows go with it
// via the cascading foreign key, which the pinned write connection enforces.
// Returns false, without raising, when no such job exists or the delete
// failed (the reason is logged either way).
func (s *Store) DeleteJobAndCandidates(ctx context.Context, jobID int64) bool {
	if jobID <= 0 {
		s.log.Warn("store.job.delete_invalid_id", "job_id", jobID)
		return false
	}

	conn, err := s.writeConn(ctx)
	if err != nil {
		s.log.Error("store.job.delete_conn_failed", "job_id", jobID, "error", err)
		return false
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx, `DELETE FROM jobs WHERE job_id = ?`, jobID)
	if err != nil {
		s.log.Error("store.job.delete_failed", "job_id", jobID, "error", err)
		return false
	}
	affected, err := res.RowsAffected()
	if err != nil || affected == 0 {
		s.log.Warn("store.job.delete_missing", "job_id", jobID)
		return false
	}
	s.log.Info("store.job.deleted", "job_id", jobID)
	return true
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	// CURRENT_TIMESTAMP writes seconds precision; tolerate fractional too.
	for _, layout := range []string{timestampLayout, "2006-01-02 15:04:05.999999999", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
