package recordsvc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/solienlac/core"
	"github.com/trezcool/solienlac/core/evaluation"
)

type captured struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]interface{}
}

func setup(t *testing.T, status int, response string) (*Client, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.EscapedPath()
		got.query = r.URL.RawQuery
		got.auth = r.Header.Get("Authorization")
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			_ = json.Unmarshal(b, &got.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)

	conf := &core.Config{Records: core.RecordsConfig{BaseURL: srv.URL, Token: "secret", Timeout: 5 * time.Second}}
	return NewClient(conf), got
}

func TestClient_LookupEvaluations(t *testing.T) {
	client, got := setup(t, http.StatusOK, `[{
		"id": "E1", "student_id": "S1", "class_id": "1A", "semester": 1, "school_year": "2023-2024",
		"final_score": 8.5, "final_evaluation": "Hoàn thành tốt", "general_comment": "Ngoan",
		"subject_comments": [{"subject_id": "Toán", "comment": "Giỏi"}],
		"quality_ratings": [{"trait_id": "Chăm chỉ", "rating": "A"}]
	}]`)

	evals, err := client.LookupEvaluations(context.Background(), "S1", evaluation.SemesterOne, "2023-2024")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/v1/evaluations", got.path)
	assert.Equal(t, "school_year=2023-2024&semester=1&student_id=S1", got.query)
	assert.Equal(t, "Bearer secret", got.auth)

	require.Len(t, evals, 1)
	ev := evals[0]
	assert.Equal(t, "E1", ev.ID)
	require.NotNil(t, ev.FinalScore)
	assert.Equal(t, 8.5, *ev.FinalScore)
	assert.Equal(t, evaluation.LabelExcellent, ev.FinalEvaluation)
	assert.Equal(t, []evaluation.SubjectComment{{SubjectID: "Toán", Comment: "Giỏi"}}, ev.SubjectComments)
	assert.Equal(t, []evaluation.QualityRating{{TraitID: "Chăm chỉ", Rating: evaluation.RatingA}}, ev.QualityRatings)
}

func TestClient_CreateEvaluation(t *testing.T) {
	score := 8.0
	ne := evaluation.NewEvaluation{
		StudentID: "S1",
		Scope:     evaluation.Scope{ClassID: "1A", Semester: evaluation.SemesterTwo, SchoolYear: "2023-2024"},
		Header:    evaluation.Header{FinalScore: &score},
	}

	tests := []struct {
		name     string
		status   int
		response string
		wantID   string
		wantErr  bool
	}{
		{name: "created", status: http.StatusCreated, response: `{"id": "E9"}`, wantID: "E9"},
		{name: "no id", status: http.StatusCreated, response: `{}`, wantErr: true},
		{name: "rejected", status: http.StatusBadRequest, response: `{"error": "invalid"}`, wantErr: true},
		{name: "bad body", status: http.StatusCreated, response: `not json`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, got := setup(t, tt.status, tt.response)
			id, err := client.CreateEvaluation(context.Background(), ne)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateEvaluation() error = %v, wantErr %v", err, tt.wantErr)
			}
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, http.MethodPost, got.method)
			assert.Equal(t, "S1", got.body["student_id"])
			assert.Equal(t, "1A", got.body["class_id"])
			assert.Equal(t, float64(2), got.body["semester"])
			assert.Equal(t, float64(8), got.body["final_score"])
		})
	}
}

func TestClient_writes(t *testing.T) {
	tests := []struct {
		name     string
		call     func(c *Client) error
		wantPath string
		wantBody map[string]interface{}
	}{
		{
			name: "update evaluation",
			call: func(c *Client) error {
				return c.UpdateEvaluation(context.Background(), "E1", evaluation.Header{GeneralComment: "x"})
			},
			wantPath: "/v1/evaluations/E1",
			wantBody: map[string]interface{}{"final_score": nil, "final_evaluation": "", "general_comment": "x"},
		},
		{
			name:     "subject comment",
			call:     func(c *Client) error { return c.CreateSubjectComment(context.Background(), "E1", "Toán", "") },
			wantPath: "/v1/subject-comments",
			wantBody: map[string]interface{}{"evaluation_id": "E1", "subject_id": "Toán", "comment": ""},
		},
		{
			name: "quality rating",
			call: func(c *Client) error {
				return c.CreateQualityRating(context.Background(), "E1", "Chăm chỉ", evaluation.RatingB)
			},
			wantPath: "/v1/quality-ratings",
			wantBody: map[string]interface{}{"evaluation_id": "E1", "trait_id": "Chăm chỉ", "rating": "B"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, got := setup(t, http.StatusNoContent, "")
			require.NoError(t, tt.call(client))
			assert.Equal(t, tt.wantPath, got.path)
			assert.Equal(t, tt.wantBody, got.body)
		})
	}
}

func TestClient_classLookups(t *testing.T) {
	client, got := setup(t, http.StatusOK, `[{"id": "Toán", "name": "Toán học"}]`)
	subjects, err := client.LookupClassSubjects(context.Background(), "1A")
	require.NoError(t, err)
	assert.Equal(t, "/v1/classes/1A/subjects", got.path)
	assert.Equal(t, []evaluation.Subject{{ID: "Toán", Name: "Toán học"}}, subjects)

	client, got = setup(t, http.StatusOK, `[{"id": "S1", "name": "An"}]`)
	students, err := client.LookupClassRoster(context.Background(), "1A")
	require.NoError(t, err)
	assert.Equal(t, "/v1/classes/1A/students", got.path)
	assert.Equal(t, []evaluation.StudentProfile{{ID: "S1", Name: "An"}}, students)

	client, got = setup(t, http.StatusOK, `[{"student_id": "S1", "subject_id": "Toán", "score": 9, "evaluation": "Hoàn thành"}]`)
	records, err := client.LookupFinalTermRecords(context.Background(), "1A")
	require.NoError(t, err)
	assert.Equal(t, "class_id=1A", got.query)
	require.Len(t, records, 1)
	assert.Equal(t, evaluation.LabelCompleted, records[0].Evaluation)
}

func TestClient_errors(t *testing.T) {
	client, _ := setup(t, http.StatusNotFound, `{"error": "class not found"}`)
	_, err := client.LookupClassRoster(context.Background(), "9Z")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "record store: status 404: class not found", apiErr.Error())
	assert.True(t, errors.Is(err, evaluation.ErrNotFound))

	client, _ = setup(t, http.StatusInternalServerError, `oops`)
	err = client.CreateSubjectComment(context.Background(), "E1", "Toán", "")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "record store: status 500", apiErr.Error())
	assert.False(t, errors.Is(err, evaluation.ErrNotFound))

	// unreachable server
	conf := &core.Config{Records: core.RecordsConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}}
	_, err = NewClient(conf).LookupClassSubjects(context.Background(), "1A")
	assert.Error(t, err)
}
