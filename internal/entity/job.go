package entity

import "time"

// Job represents one batch run over a single uploaded PDF. Candidates hang
// off a job and are deleted with it.
type Job struct {
	ID                 int64     `json:"job_id"`
	Name               string    `json:"job_name"`
	PDFFilename        string    `json:"pdf_filename"`
	DescriptionSnippet string    `json:"job_description_snippet"`
	CreatedAt          time.Time `json:"created_at"`
}
