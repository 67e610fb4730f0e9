package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/solienlac/core/evaluation"
)

var nowFunc = time.Now // mockable

type (
	evaluationRow struct {
		ID              string       `db:"id"`
		StudentID       string       `db:"student_id"`
		ClassID         string       `db:"class_id"`
		Semester        int          `db:"semester"`
		SchoolYear      string       `db:"school_year"`
		FinalScore      null.Float64 `db:"final_score"`
		FinalEvaluation string       `db:"final_evaluation"`
		GeneralComment  string       `db:"general_comment"`
	}

	subjectCommentRow struct {
		EvaluationID string `db:"evaluation_id"`
		SubjectID    string `db:"subject_id"`
		Comment      string `db:"comment"`
	}

	qualityRatingRow struct {
		EvaluationID string `db:"evaluation_id"`
		TraitID      string `db:"trait_id"`
		Rating       string `db:"rating"`
	}

	finalTermRecordRow struct {
		StudentID  string       `db:"student_id"`
		SubjectID  string       `db:"subject_id"`
		Score      null.Float64 `db:"score"`
		Evaluation string       `db:"evaluation"`
		Comment    string       `db:"comment"`
	}
)

const evaluationColumns = `id, student_id, class_id, semester, school_year, final_score, final_evaluation, general_comment`

type evaluationRepository struct {
	db *sqlx.DB
}

var _ evaluation.Store = (*evaluationRepository)(nil) // interface compliance check

func NewEvaluationRepository(db *sqlx.DB) *evaluationRepository {
	return &evaluationRepository{db: db}
}

func (repo evaluationRepository) unmarshal(row evaluationRow) evaluation.Evaluation {
	return evaluation.Evaluation{
		ID:         row.ID,
		StudentID:  row.StudentID,
		ClassID:    row.ClassID,
		Semester:   evaluation.Semester(row.Semester),
		SchoolYear: row.SchoolYear,
		Header: evaluation.Header{
			FinalScore:      row.FinalScore.Ptr(),
			FinalEvaluation: evaluation.Label(row.FinalEvaluation),
			GeneralComment:  row.GeneralComment,
		},
		SubjectComments: []evaluation.SubjectComment{},
		QualityRatings:  []evaluation.QualityRating{},
	}
}

// withChildren loads the subject comments and quality ratings of evals.
func (repo evaluationRepository) withChildren(ctx context.Context, rows []evaluationRow) ([]evaluation.Evaluation, error) {
	evals := make([]evaluation.Evaluation, 0, len(rows))
	if len(rows) == 0 {
		return evals, nil
	}
	ids := make([]string, 0, len(rows))
	index := make(map[string]int, len(rows))
	for i, row := range rows {
		ids = append(ids, row.ID)
		index[row.ID] = i
		evals = append(evals, repo.unmarshal(row))
	}

	q, args, err := sqlx.In(`SELECT evaluation_id, subject_id, comment FROM subject_comment WHERE evaluation_id IN (?) ORDER BY subject_id`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building subject comment query")
	}
	var comments []subjectCommentRow
	if err = repo.db.SelectContext(ctx, &comments, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting subject comments")
	}
	for _, c := range comments {
		ev := &evals[index[c.EvaluationID]]
		ev.SubjectComments = append(ev.SubjectComments, evaluation.SubjectComment{SubjectID: c.SubjectID, Comment: c.Comment})
	}

	q, args, err = sqlx.In(`SELECT evaluation_id, trait_id, rating FROM quality_rating WHERE evaluation_id IN (?) ORDER BY trait_id`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building quality rating query")
	}
	var ratings []qualityRatingRow
	if err = repo.db.SelectContext(ctx, &ratings, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting quality ratings")
	}
	for _, r := range ratings {
		ev := &evals[index[r.EvaluationID]]
		ev.QualityRatings = append(ev.QualityRatings, evaluation.QualityRating{TraitID: r.TraitID, Rating: evaluation.Rating(r.Rating)})
	}
	return evals, nil
}

func (repo evaluationRepository) LookupEvaluations(ctx context.Context, studentID string, semester evaluation.Semester, schoolYear string) ([]evaluation.Evaluation, error) {
	q := repo.db.Rebind(`SELECT ` + evaluationColumns + ` FROM evaluation
		WHERE student_id = ? AND semester = ? AND school_year = ?
		ORDER BY created_at, id`)
	var rows []evaluationRow
	if err := repo.db.SelectContext(ctx, &rows, q, studentID, int(semester), schoolYear); err != nil {
		return nil, errors.Wrap(err, "selecting evaluations")
	}
	return repo.withChildren(ctx, rows)
}

func (repo evaluationRepository) GetEvaluation(ctx context.Context, id string) (evaluation.Evaluation, error) {
	q := repo.db.Rebind(`SELECT ` + evaluationColumns + ` FROM evaluation WHERE id = ?`)
	var row evaluationRow
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return evaluation.Evaluation{}, evaluation.ErrNotFound
		}
		return evaluation.Evaluation{}, errors.Wrap(err, "selecting evaluation")
	}
	evals, err := repo.withChildren(ctx, []evaluationRow{row})
	if err != nil {
		return evaluation.Evaluation{}, err
	}
	return evals[0], nil
}

func (repo evaluationRepository) CreateEvaluation(ctx context.Context, ne evaluation.NewEvaluation) (string, error) {
	id := uuid.NewString()
	now := nowFunc().UTC()
	q := repo.db.Rebind(`INSERT INTO evaluation (` + evaluationColumns + `, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := repo.db.ExecContext(ctx, q,
		id, ne.StudentID, ne.ClassID, int(ne.Semester), ne.SchoolYear,
		null.Float64FromPtr(ne.FinalScore), string(ne.FinalEvaluation), ne.GeneralComment,
		now, now,
	)
	if err != nil {
		return "", errors.Wrap(err, "inserting evaluation")
	}
	return id, nil
}

func (repo evaluationRepository) UpdateEvaluation(ctx context.Context, id string, header evaluation.Header) error {
	q := repo.db.Rebind(`UPDATE evaluation
		SET final_score = ?, final_evaluation = ?, general_comment = ?, updated_at = ?
		WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q,
		null.Float64FromPtr(header.FinalScore), string(header.FinalEvaluation), header.GeneralComment,
		nowFunc().UTC(), id,
	)
	if err != nil {
		return errors.Wrap(err, "updating evaluation")
	}
	return mustAffect(res)
}

func (repo evaluationRepository) CreateSubjectComment(ctx context.Context, evaluationID, subjectID, comment string) error {
	q := repo.db.Rebind(`INSERT INTO subject_comment (evaluation_id, subject_id, comment)
		SELECT ?, ?, ? WHERE EXISTS (SELECT 1 FROM evaluation WHERE id = ?)
		ON CONFLICT (evaluation_id, subject_id) DO UPDATE SET comment = excluded.comment`)
	res, err := repo.db.ExecContext(ctx, q, evaluationID, subjectID, comment, evaluationID)
	if err != nil {
		return errors.Wrap(err, "upserting subject comment")
	}
	return mustAffect(res)
}

func (repo evaluationRepository) CreateQualityRating(ctx context.Context, evaluationID, traitID string, rating evaluation.Rating) error {
	q := repo.db.Rebind(`INSERT INTO quality_rating (evaluation_id, trait_id, rating)
		SELECT ?, ?, ? WHERE EXISTS (SELECT 1 FROM evaluation WHERE id = ?)
		ON CONFLICT (evaluation_id, trait_id) DO UPDATE SET rating = excluded.rating`)
	res, err := repo.db.ExecContext(ctx, q, evaluationID, traitID, string(rating), evaluationID)
	if err != nil {
		return errors.Wrap(err, "upserting quality rating")
	}
	return mustAffect(res)
}

func (repo evaluationRepository) LookupFinalTermRecords(ctx context.Context, classID string) ([]evaluation.FinalTermRecord, error) {
	q := repo.db.Rebind(`SELECT student_id, subject_id, score, evaluation, comment FROM final_term_record
		WHERE class_id = ? ORDER BY student_id, subject_id`)
	var rows []finalTermRecordRow
	if err := repo.db.SelectContext(ctx, &rows, q, classID); err != nil {
		return nil, errors.Wrap(err, "selecting final term records")
	}
	records := make([]evaluation.FinalTermRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, evaluation.FinalTermRecord{
			StudentID:  row.StudentID,
			SubjectID:  row.SubjectID,
			Score:      row.Score.Ptr(),
			Evaluation: evaluation.Label(row.Evaluation),
			Comment:    row.Comment,
		})
	}
	return records, nil
}

func (repo evaluationRepository) SaveFinalTermRecord(ctx context.Context, classID string, rec evaluation.FinalTermRecord) error {
	q := repo.db.Rebind(`INSERT INTO final_term_record (class_id, student_id, subject_id, score, evaluation, comment)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (class_id, student_id, subject_id) DO UPDATE
		SET score = excluded.score, evaluation = excluded.evaluation, comment = excluded.comment`)
	_, err := repo.db.ExecContext(ctx, q,
		classID, rec.StudentID, rec.SubjectID, null.Float64FromPtr(rec.Score), string(rec.Evaluation), rec.Comment,
	)
	return errors.Wrap(err, "upserting final term record")
}

// mustAffect returns evaluation.ErrNotFound when no row was written.
func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "reading affected rows")
	}
	if n == 0 {
		return evaluation.ErrNotFound
	}
	return nil
}
