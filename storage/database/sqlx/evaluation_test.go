package sqlxrepos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/solienlac/core"
	"github.com/trezcool/solienlac/core/evaluation"
	testutil "github.com/trezcool/solienlac/tests"
)

func TestEvaluationRepository(t *testing.T) {
	testutil.RunStoreTests(t, func(t *testing.T) evaluation.Store {
		return NewEvaluationRepository(testutil.PrepareDB(t))
	})
}

// saving through the service against a real database
func TestEvaluationRepository_SaveAll(t *testing.T) {
	repo := NewEvaluationRepository(testutil.PrepareDB(t))
	testutil.SeedClass(t, repo, testutil.DefaultClass)
	validate, translator := testutil.NewValidator()
	svc := evaluation.NewService(evaluation.Deps{
		Repo:       repo,
		Logger:     &testutil.Logger{},
		Validate:   validate,
		Translator: translator,
		Conf:       &core.Config{Evaluation: core.EvaluationConfig{SaveConcurrency: 2}},
	})
	ctx := context.Background()

	roster, err := svc.LoadRoster(ctx, "1A", evaluation.SemesterOne, "2023-2024")
	require.NoError(t, err)
	require.Len(t, roster.Entries, 3)

	s1 := roster.Entry("S1")
	s1.Header.FinalScore = testutil.Float(8)
	s1.QualityRatings["Chăm chỉ"] = evaluation.RatingA
	s1.SubjectComments["Toán"] = "Tính toán nhanh"

	res, err := svc.SaveAll(ctx, roster)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 3, res.Summary().Created)

	// saving again updates in place
	s1.SubjectComments["Toán"] = ""
	res, err = svc.SaveAll(ctx, roster)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 0, res.Summary().Created)

	id, ok := s1.EvaluationID()
	require.True(t, ok)
	evals, err := repo.LookupEvaluations(ctx, "S1", evaluation.SemesterOne, "2023-2024")
	require.NoError(t, err)
	require.Len(t, evals, 1)
	assert.Equal(t, id, evals[0].ID)
	assert.Equal(t, []evaluation.SubjectComment{{SubjectID: "Toán", Comment: ""}, {SubjectID: "Văn", Comment: ""}}, evals[0].SubjectComments)
	assert.Len(t, evals[0].QualityRatings, len(core.DefaultTraits))

	// a fresh load sees what was saved
	reloaded, err := svc.LoadRoster(ctx, "1A", evaluation.SemesterOne, "2023-2024")
	require.NoError(t, err)
	entry := reloaded.Entry("S1")
	assert.Equal(t, evaluation.Persisted{EvaluationID: id}, entry.State)
	require.NotNil(t, entry.Header.FinalScore)
	assert.Equal(t, 8.0, *entry.Header.FinalScore)
	assert.Equal(t, evaluation.RatingA, entry.QualityRatings["Chăm chỉ"])
}
