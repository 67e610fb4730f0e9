package evaluation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRosterEntry_JSON(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantState State
	}{
		{name: "persisted", data: `{"student_id": "S1", "evaluation_id": "E1"}`, wantState: Persisted{EvaluationID: "E1"}},
		{name: "null id", data: `{"student_id": "S1", "evaluation_id": null}`, wantState: Unpersisted{}},
		{name: "missing id", data: `{"student_id": "S1"}`, wantState: Unpersisted{}},
		{name: "empty id", data: `{"student_id": "S1", "evaluation_id": ""}`, wantState: Unpersisted{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entry RosterEntry
			require.NoError(t, json.Unmarshal([]byte(tt.data), &entry))
			assert.Equal(t, "S1", entry.StudentID)
			assert.Equal(t, tt.wantState, entry.State)
		})
	}

	entry := RosterEntry{
		StudentID:       "S1",
		State:           Unpersisted{},
		Header:          Header{FinalScore: fPtr(8), FinalEvaluation: LabelCompleted},
		QualityRatings:  map[string]Rating{"Chăm chỉ": RatingA},
		SubjectComments: map[string]string{"Toán": ""},
	}
	b, err := json.Marshal(entry)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"student_id": "S1",
		"student_name": "",
		"evaluation_id": null,
		"final_score": 8,
		"final_evaluation": "Hoàn thành",
		"general_comment": "",
		"quality_ratings": {"Chăm chỉ": "A"},
		"subject_comments": {"Toán": ""}
	}`, string(b))

	entry.State = Persisted{EvaluationID: "E1"}
	b, err = json.Marshal(&entry)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"evaluation_id":"E1"`)
}

func TestRosterEntry_applyEvaluation(t *testing.T) {
	roster := &Roster{Subjects: []Subject{toan, van}, Traits: []string{"Chăm chỉ"}}
	entry := roster.newEntry(StudentProfile{ID: "S1"})
	entry.applyFinalRecords([]FinalTermRecord{{SubjectID: "Văn", Comment: "final"}})
	entry.applyEvaluation(Evaluation{
		ID:              "E1",
		SubjectComments: []SubjectComment{{SubjectID: "Văn", Comment: ""}},
		QualityRatings:  []QualityRating{{TraitID: "Chăm chỉ", Rating: RatingC}},
	})

	// a comment stored empty still overrides the final term comment
	assert.Equal(t, "", entry.SubjectComments["Văn"])
	assert.Equal(t, RatingC, entry.QualityRatings["Chăm chỉ"])
	id, ok := entry.EvaluationID()
	assert.True(t, ok)
	assert.Equal(t, "E1", id)
}
