package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/solienlac/core/evaluation"
)

// RunStoreTests checks the behaviour shared by every evaluation.Store implementation.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) evaluation.Store) {
	ctx := context.Background()
	scope := evaluation.Scope{ClassID: DefaultClass.ID, Semester: evaluation.SemesterOne, SchoolYear: "2023-2024"}

	t.Run("class lookups", func(t *testing.T) {
		store := newStore(t)
		SeedClass(t, store, DefaultClass)

		subjects, err := store.LookupClassSubjects(ctx, DefaultClass.ID)
		require.NoError(t, err)
		assert.Equal(t, DefaultClass.Subjects, subjects)

		students, err := store.LookupClassRoster(ctx, DefaultClass.ID)
		require.NoError(t, err)
		assert.Equal(t, DefaultClass.Students, students)

		assert.Equal(t, evaluation.ErrConflict, store.CreateClass(ctx, DefaultClass.ID, "again"))

		// re-adding keeps the order, updating the profile
		require.NoError(t, store.AddStudent(ctx, DefaultClass.ID, evaluation.StudentProfile{ID: "S1", Name: "An Nguyễn"}))
		students, err = store.LookupClassRoster(ctx, DefaultClass.ID)
		require.NoError(t, err)
		require.Len(t, students, len(DefaultClass.Students))
		assert.Equal(t, evaluation.StudentProfile{ID: "S1", Name: "An Nguyễn"}, students[0])

		_, err = store.LookupClassRoster(ctx, "9Z")
		assert.Equal(t, evaluation.ErrNotFound, err)
		_, err = store.LookupClassSubjects(ctx, "9Z")
		assert.Equal(t, evaluation.ErrNotFound, err)
	})

	t.Run("empty class", func(t *testing.T) {
		store := newStore(t)
		SeedClass(t, store, Class{ID: "2B"})

		subjects, err := store.LookupClassSubjects(ctx, "2B")
		require.NoError(t, err)
		assert.Empty(t, subjects)
		assert.NotNil(t, subjects)
	})

	t.Run("create then update evaluation", func(t *testing.T) {
		store := newStore(t)
		SeedClass(t, store, DefaultClass)

		id, err := store.CreateEvaluation(ctx, evaluation.NewEvaluation{
			StudentID: "S1",
			Scope:     scope,
			Header:    evaluation.Header{FinalScore: Float(7.5), FinalEvaluation: evaluation.LabelCompleted},
		})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		require.NoError(t, store.UpdateEvaluation(ctx, id, evaluation.Header{GeneralComment: "Tiến bộ"}))

		ev, err := store.GetEvaluation(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "S1", ev.StudentID)
		assert.Equal(t, scope.ClassID, ev.ClassID)
		assert.Equal(t, scope.Semester, ev.Semester)
		assert.Equal(t, scope.SchoolYear, ev.SchoolYear)
		assert.Nil(t, ev.FinalScore)
		assert.Equal(t, evaluation.LabelNone, ev.FinalEvaluation)
		assert.Equal(t, "Tiến bộ", ev.GeneralComment)

		assert.Equal(t, evaluation.ErrNotFound, store.UpdateEvaluation(ctx, "missing", evaluation.Header{}))
		_, err = store.GetEvaluation(ctx, "missing")
		assert.Equal(t, evaluation.ErrNotFound, err)
	})

	t.Run("child writes overwrite", func(t *testing.T) {
		store := newStore(t)
		SeedClass(t, store, DefaultClass)
		id, err := store.CreateEvaluation(ctx, evaluation.NewEvaluation{StudentID: "S1", Scope: scope})
		require.NoError(t, err)

		require.NoError(t, store.CreateSubjectComment(ctx, id, "Toán", "Giỏi"))
		require.NoError(t, store.CreateSubjectComment(ctx, id, "Toán", ""))
		require.NoError(t, store.CreateSubjectComment(ctx, id, "Văn", "Khá"))
		require.NoError(t, store.CreateQualityRating(ctx, id, "Chăm chỉ", evaluation.RatingA))
		require.NoError(t, store.CreateQualityRating(ctx, id, "Chăm chỉ", evaluation.RatingB))

		ev, err := store.GetEvaluation(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []evaluation.SubjectComment{{SubjectID: "Toán", Comment: ""}, {SubjectID: "Văn", Comment: "Khá"}}, ev.SubjectComments)
		assert.Equal(t, []evaluation.QualityRating{{TraitID: "Chăm chỉ", Rating: evaluation.RatingB}}, ev.QualityRatings)

		assert.Equal(t, evaluation.ErrNotFound, store.CreateSubjectComment(ctx, "missing", "Toán", ""))
		assert.Equal(t, evaluation.ErrNotFound, store.CreateQualityRating(ctx, "missing", "Chăm chỉ", ""))
	})

	t.Run("lookup evaluations", func(t *testing.T) {
		store := newStore(t)
		SeedClass(t, store, DefaultClass)

		first, err := store.CreateEvaluation(ctx, evaluation.NewEvaluation{StudentID: "S1", Scope: scope})
		require.NoError(t, err)
		require.NoError(t, store.CreateSubjectComment(ctx, first, "Toán", "Giỏi"))
		_, err = store.CreateEvaluation(ctx, evaluation.NewEvaluation{StudentID: "S1", Scope: scope})
		require.NoError(t, err)

		other := scope
		other.Semester = evaluation.SemesterTwo
		_, err = store.CreateEvaluation(ctx, evaluation.NewEvaluation{StudentID: "S1", Scope: other})
		require.NoError(t, err)

		evals, err := store.LookupEvaluations(ctx, "S1", evaluation.SemesterOne, "2023-2024")
		require.NoError(t, err)
		require.Len(t, evals, 2)
		assert.Equal(t, first, evals[0].ID)
		assert.Equal(t, []evaluation.SubjectComment{{SubjectID: "Toán", Comment: "Giỏi"}}, evals[0].SubjectComments)
		assert.Empty(t, evals[1].SubjectComments)

		evals, err = store.LookupEvaluations(ctx, "S2", evaluation.SemesterOne, "2023-2024")
		require.NoError(t, err)
		assert.Empty(t, evals)
	})

	t.Run("final term records", func(t *testing.T) {
		store := newStore(t)
		SeedClass(t, store, DefaultClass)

		require.NoError(t, store.SaveFinalTermRecord(ctx, DefaultClass.ID, evaluation.FinalTermRecord{
			StudentID: "S1", SubjectID: "Toán", Score: Float(6), Evaluation: evaluation.LabelCompleted,
		}))
		require.NoError(t, store.SaveFinalTermRecord(ctx, DefaultClass.ID, evaluation.FinalTermRecord{
			StudentID: "S1", SubjectID: "Toán", Score: Float(9), Evaluation: evaluation.LabelExcellent, Comment: "Tốt",
		}))
		require.NoError(t, store.SaveFinalTermRecord(ctx, DefaultClass.ID, evaluation.FinalTermRecord{
			StudentID: "S2", SubjectID: "Văn",
		}))

		records, err := store.LookupFinalTermRecords(ctx, DefaultClass.ID)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, evaluation.FinalTermRecord{
			StudentID: "S1", SubjectID: "Toán", Score: Float(9), Evaluation: evaluation.LabelExcellent, Comment: "Tốt",
		}, records[0])
		assert.Nil(t, records[1].Score)
	})
}
