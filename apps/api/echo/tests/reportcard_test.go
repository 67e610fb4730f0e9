package tests

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/solienlac/apps/api/echo"
	"github.com/trezcool/solienlac/core"
	"github.com/trezcool/solienlac/core/evaluation"
	"github.com/trezcool/solienlac/tests"
)

const rosterPath = "/v1/report-cards/1A?semester=1&school_year=2023-2024"

func loadRoster(t *testing.T, app testApp, token string) *evaluation.Roster {
	req, rec := newAuthRequest(http.MethodGet, rosterPath, token)
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var roster evaluation.Roster
	unmarchallObj(t, rec.Body.Bytes(), &roster)
	return &roster
}

func saveRoster(t *testing.T, app testApp, token string, roster *evaluation.Roster) SaveResponse {
	req, rec := newAuthRequest(http.MethodPost, "/v1/report-cards/1A", token, marchallObj(t, roster))
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res SaveResponse
	unmarchallObj(t, rec.Body.Bytes(), &res)
	return res
}

func Test_reportCardApi_load(t *testing.T) {
	app := setup(t)
	token := app.token(t, RoleTeacher)

	tests := []httpTest{
		{
			name: "Teacher required", path: rosterPath, token: app.token(t, RoleRecords),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "semester not a number", path: "/v1/report-cards/1A?semester=one&school_year=2023-2024", token: token,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"semester": "semester must be 1 or 2"}),
		},
		{
			name: "unknown semester", path: "/v1/report-cards/1A?semester=3&school_year=2023-2024", token: token,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"semester": "semester must be one of [1 2]"}),
		},
		{
			name: "bad school year", path: "/v1/report-cards/1A?semester=1&school_year=2023", token: token,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"school_year": "school year must look like 2023-2024"}),
		},
		{
			name: "unknown class", path: "/v1/report-cards/9Z?semester=1&school_year=2023-2024", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "traits", path: "/v1/traits", token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, core.DefaultTraits),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			checkCodeAndData(t, tt, app.do(req, rec))
		})
	}

	t.Run("roster", func(t *testing.T) {
		roster := loadRoster(t, app, token)
		assert.Equal(t, evaluation.Scope{ClassID: "1A", Semester: evaluation.SemesterOne, SchoolYear: "2023-2024"}, roster.Scope)
		assert.Equal(t, testutil.DefaultClass.Subjects, roster.Subjects)
		require.Len(t, roster.Entries, len(testutil.DefaultClass.Students))
		for i, st := range testutil.DefaultClass.Students {
			entry := roster.Entries[i]
			assert.Equal(t, st.ID, entry.StudentID)
			assert.Equal(t, evaluation.Unpersisted{}, entry.State)
			assert.Len(t, entry.QualityRatings, len(core.DefaultTraits))
			assert.Len(t, entry.SubjectComments, len(testutil.DefaultClass.Subjects))
		}
	})
}

func Test_reportCardApi_save(t *testing.T) {
	app := setup(t)
	token := app.token(t, RoleTeacher)
	ctx := context.Background()

	roster := loadRoster(t, app, token)
	s1 := roster.Entry("S1")
	s1.Header = evaluation.Header{FinalScore: testutil.Float(10), FinalEvaluation: evaluation.LabelExcellent, GeneralComment: "Xuất sắc"}
	s1.SubjectComments["Toán"] = "Tính nhanh"
	s1.QualityRatings["Chăm chỉ"] = evaluation.RatingA

	res := saveRoster(t, app, token, roster)
	assert.True(t, res.Success)
	assert.Empty(t, res.Failures)
	assert.Equal(t, evaluation.Summary{
		Students:    3,
		Saved:       3,
		Created:     3,
		ChildWrites: 3 * (len(testutil.DefaultClass.Subjects) + len(core.DefaultTraits)),
	}, res.Summary)

	ids := make(map[string]bool)
	for _, entry := range res.Roster.Entries {
		id, ok := entry.EvaluationID()
		require.True(t, ok, "no evaluation id for %s", entry.StudentID)
		ids[id] = true
	}
	assert.Len(t, ids, 3)

	id, _ := res.Roster.Entry("S1").EvaluationID()
	ev, err := app.store.GetEvaluation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Xuất sắc", ev.GeneralComment)
	assert.Contains(t, ev.SubjectComments, evaluation.SubjectComment{SubjectID: "Toán", Comment: "Tính nhanh"})
	assert.Contains(t, ev.QualityRatings, evaluation.QualityRating{TraitID: "Chăm chỉ", Rating: evaluation.RatingA})

	t.Run("saving the returned roster updates in place", func(t *testing.T) {
		again := res.Roster
		again.Entry("S1").SubjectComments["Toán"] = ""

		res2 := saveRoster(t, app, token, again)
		assert.True(t, res2.Success)
		assert.Equal(t, 0, res2.Summary.Created)

		evals, err := app.store.LookupEvaluations(ctx, "S1", evaluation.SemesterOne, "2023-2024")
		require.NoError(t, err)
		require.Len(t, evals, 1)
		assert.Contains(t, evals[0].SubjectComments, evaluation.SubjectComment{SubjectID: "Toán", Comment: ""})
	})

	t.Run("invalid entries are reported", func(t *testing.T) {
		bad := loadRoster(t, app, token)
		bad.Entry("S2").Header.FinalScore = testutil.Float(15)

		res3 := saveRoster(t, app, token, bad)
		assert.False(t, res3.Success)
		require.Len(t, res3.Failures, 1)
		assert.Equal(t, "S2", res3.Failures[0].StudentID)
		assert.Equal(t, evaluation.OutcomeInvalid, res3.Failures[0].Outcome)
		assert.Contains(t, res3.Failures[0].Error, "final_score must be 10 or less")
		assert.Equal(t, 2, res3.Summary.Saved)

		sent := app.mailSvc.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, "principal@school.test", sent[0].To[0].Address)
	})

	t.Run("metrics", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/metrics")
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(body), `solienlac_roster_saves_total{result="success"} 2`), string(body))
		assert.True(t, strings.Contains(string(body), `solienlac_roster_saves_total{result="failure"} 1`), string(body))
	})
}

func Test_reportCardApi_saveBadRoster(t *testing.T) {
	app := setup(t)
	token := app.token(t, RoleTeacher)

	tests := []httpTest{
		{
			name: "class mismatch", body: []byte(`{"class_id": "2B", "semester": 1, "school_year": "2023-2024"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"class_id": "does not match the url"}),
		},
		{
			name: "missing semester", body: []byte(`{"school_year": "2023-2024"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"semester": "semester must be one of [1 2]"}),
		},
		{
			name:     "duplicate student",
			body:     []byte(`{"semester": 1, "school_year": "2023-2024", "entries": [{"student_id": "S1"}, {"student_id": "S1"}]}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "student S1 has more than one roster entry"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/report-cards/1A", token, tt.body)
			checkCodeAndData(t, tt, app.do(req, rec))
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/report-cards/1A", token, []byte(`{"entries": 1}`))
		app.do(req, rec)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func Test_reportCardApi_saveResolvesRoster(t *testing.T) {
	app := setup(t)
	token := app.token(t, RoleTeacher)
	ctx := context.Background()

	res := saveRoster(t, app, token, loadRoster(t, app, token))
	require.True(t, res.Success)
	s1ID, _ := res.Roster.Entry("S1").EvaluationID()

	t.Run("subjects outside the class are not written", func(t *testing.T) {
		roster := loadRoster(t, app, token)
		roster.Subjects = append(roster.Subjects, evaluation.Subject{ID: "Sử", Name: "Lịch sử"})
		roster.Entry("S1").SubjectComments["Sử"] = "không có môn này"

		res := saveRoster(t, app, token, roster)
		assert.True(t, res.Success)
		assert.Equal(t, testutil.DefaultClass.Subjects, res.Roster.Subjects)

		ev, err := app.store.GetEvaluation(ctx, s1ID)
		require.NoError(t, err)
		assert.Len(t, ev.SubjectComments, len(testutil.DefaultClass.Subjects))
	})

	t.Run("evaluation of another student", func(t *testing.T) {
		roster := loadRoster(t, app, token)
		roster.Entry("S2").State = evaluation.Persisted{EvaluationID: s1ID}
		roster.Entry("S2").Header.GeneralComment = "ghi đè"

		req, rec := newAuthRequest(http.MethodPost, "/v1/report-cards/1A", token, marchallObj(t, roster))
		app.do(req, rec)
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

		var fields map[string]string
		unmarchallObj(t, rec.Body.Bytes(), &fields)
		assert.Contains(t, fields, "entries[1].evaluation_id")

		ev, err := app.store.GetEvaluation(ctx, s1ID)
		require.NoError(t, err)
		assert.NotEqual(t, "ghi đè", ev.GeneralComment)
	})

	t.Run("student of another class", func(t *testing.T) {
		body := []byte(`{"semester": 1, "school_year": "2023-2024", "entries": [{"student_id": "S9"}]}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/report-cards/1A", token, body)
		app.do(req, rec)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "entries[0].student_id")
	})
}
