// Package recordsvc talks to a remote record store over its REST API.
package recordsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/solienlac/core"
	"github.com/trezcool/solienlac/core/evaluation"
)

// APIError is returned when the record store answers with a non 2xx status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("record store: status %d", e.StatusCode)
	}
	return fmt.Sprintf("record store: status %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets errors.Is match evaluation.ErrNotFound on 404 responses.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return evaluation.ErrNotFound
	}
	return nil
}

type (
	idResponse struct {
		ID string `json:"id"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}

	subjectCommentRequest struct {
		EvaluationID string `json:"evaluation_id"`
		SubjectID    string `json:"subject_id"`
		Comment      string `json:"comment"`
	}

	qualityRatingRequest struct {
		EvaluationID string            `json:"evaluation_id"`
		TraitID      string            `json:"trait_id"`
		Rating       evaluation.Rating `json:"rating"`
	}
)

// Client implements evaluation.Repository against the record store API.
type Client struct {
	baseURL string
	headers map[string]string
	rest    *rest.Client
}

var _ evaluation.Repository = (*Client)(nil)

func NewClient(conf *core.Config) *Client {
	headers := map[string]string{"Accept": "application/json"}
	if conf.Records.Token != "" {
		headers["Authorization"] = "Bearer " + conf.Records.Token
	}
	return &Client{
		baseURL: conf.Records.BaseURL,
		headers: headers,
		rest:    &rest.Client{HTTPClient: &http.Client{Timeout: conf.Records.Timeout}},
	}
}

func (c *Client) do(ctx context.Context, method rest.Method, path string, query map[string]string, in, out interface{}) error {
	req := rest.Request{
		Method:      method,
		BaseURL:     c.baseURL + path,
		Headers:     c.headers,
		QueryParams: query,
	}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		req.Body = body
	}

	res, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: res.StatusCode}
		var errRes errorResponse
		if json.Unmarshal([]byte(res.Body), &errRes) == nil {
			apiErr.Message = errRes.Error
		}
		return apiErr
	}
	if out != nil {
		if err := json.Unmarshal([]byte(res.Body), out); err != nil {
			return errors.Wrapf(err, "decoding %s %s response", method, path)
		}
	}
	return nil
}

func (c *Client) LookupEvaluations(ctx context.Context, studentID string, semester evaluation.Semester, schoolYear string) ([]evaluation.Evaluation, error) {
	var evals []evaluation.Evaluation
	query := map[string]string{
		"student_id":  studentID,
		"semester":    strconv.Itoa(int(semester)),
		"school_year": schoolYear,
	}
	if err := c.do(ctx, rest.Get, "/v1/evaluations", query, nil, &evals); err != nil {
		return nil, err
	}
	return evals, nil
}

func (c *Client) CreateEvaluation(ctx context.Context, ne evaluation.NewEvaluation) (string, error) {
	var res idResponse
	if err := c.do(ctx, rest.Post, "/v1/evaluations", nil, ne, &res); err != nil {
		return "", err
	}
	if res.ID == "" {
		return "", errors.New("record store: created evaluation has no id")
	}
	return res.ID, nil
}

func (c *Client) UpdateEvaluation(ctx context.Context, id string, header evaluation.Header) error {
	return c.do(ctx, rest.Put, "/v1/evaluations/"+url.PathEscape(id), nil, header, nil)
}

func (c *Client) CreateSubjectComment(ctx context.Context, evaluationID, subjectID, comment string) error {
	req := subjectCommentRequest{EvaluationID: evaluationID, SubjectID: subjectID, Comment: comment}
	return c.do(ctx, rest.Post, "/v1/subject-comments", nil, req, nil)
}

func (c *Client) CreateQualityRating(ctx context.Context, evaluationID, traitID string, rating evaluation.Rating) error {
	req := qualityRatingRequest{EvaluationID: evaluationID, TraitID: traitID, Rating: rating}
	return c.do(ctx, rest.Post, "/v1/quality-ratings", nil, req, nil)
}

func (c *Client) LookupFinalTermRecords(ctx context.Context, classID string) ([]evaluation.FinalTermRecord, error) {
	var records []evaluation.FinalTermRecord
	query := map[string]string{"class_id": classID}
	if err := c.do(ctx, rest.Get, "/v1/final-term-records", query, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) LookupClassSubjects(ctx context.Context, classID string) ([]evaluation.Subject, error) {
	var subjects []evaluation.Subject
	if err := c.do(ctx, rest.Get, "/v1/classes/"+url.PathEscape(classID)+"/subjects", nil, nil, &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

func (c *Client) LookupClassRoster(ctx context.Context, classID string) ([]evaluation.StudentProfile, error) {
	var students []evaluation.StudentProfile
	if err := c.do(ctx, rest.Get, "/v1/classes/"+url.PathEscape(classID)+"/students", nil, nil, &students); err != nil {
		return nil, err
	}
	return students, nil
}
