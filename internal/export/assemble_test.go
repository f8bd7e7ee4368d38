package export

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"resume-screener/internal/entity"
)

func TestDenormalize(t *testing.T) {
	t.Run("pulls name and email out of the blob", func(t *testing.T) {
		c := entity.Candidate{
			ID:                  3,
			PersonalInformation: json.RawMessage(`{"full_name": "Jane Doe", "email": "jane@example.com", "phone_number": "123"}`),
		}
		rec := Denormalize(c, nil)
		assert.Equal(t, "Jane Doe", rec.CandidateName)
		assert.Equal(t, "jane@example.com", rec.Email)
		// The blob stays on the embedded candidate for richer consumers.
		assert.JSONEq(t, string(c.PersonalInformation), string(rec.PersonalInformation))
	})

	t.Run("empty blob degrades to N/A", func(t *testing.T) {
		rec := Denormalize(entity.Candidate{}, nil)
		assert.Equal(t, "N/A", rec.CandidateName)
		assert.Equal(t, "N/A", rec.Email)
	})

	t.Run("malformed blob degrades to N/A", func(t *testing.T) {
		c := entity.Candidate{PersonalInformation: json.RawMessage(`not json at all`)}
		rec := Denormalize(c, nil)
		assert.Equal(t, "N/A", rec.CandidateName)
		assert.Equal(t, "N/A", rec.Email)
	})

	t.Run("blank or wrongly typed fields degrade to N/A", func(t *testing.T) {
		c := entity.Candidate{PersonalInformation: json.RawMessage(`{"full_name": "", "email": 42}`)}
		rec := Denormalize(c, nil)
		assert.Equal(t, "N/A", rec.CandidateName)
		assert.Equal(t, "N/A", rec.Email)
	})
}

func TestDenormalizeAll(t *testing.T) {
	cs := []entity.Candidate{
		{PersonalInformation: json.RawMessage(`{"full_name": "A"}`)},
		{PersonalInformation: json.RawMessage(`{"full_name": "B"}`)},
	}
	recs := DenormalizeAll(cs, nil)
	assert.Equal(t, "A", recs[0].CandidateName)
	assert.Equal(t, "B", recs[1].CandidateName)
}
