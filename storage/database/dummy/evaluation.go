package dummydb

import (
	"context"
	"sort"
	"strconv"

	"github.com/trezcool/solienlac/core/evaluation"
)

type evaluationRepository struct {
	classes *classTable
	db      *evaluationTable
}

var _ evaluation.Store = (*evaluationRepository)(nil) // interface compliance check

func NewEvaluationRepository(db *DB) evaluation.Store {
	return &evaluationRepository{classes: db.class, db: db.evaluation}
}

func copyHeader(h evaluation.Header) evaluation.Header {
	if h.FinalScore != nil {
		score := *h.FinalScore
		h.FinalScore = &score
	}
	return h
}

// export copies a record, children sorted by key.
func (repo *evaluationRepository) export(rec *evaluationRecord) evaluation.Evaluation {
	ev := rec.Evaluation
	ev.Header = copyHeader(ev.Header)
	ev.SubjectComments = make([]evaluation.SubjectComment, 0, len(rec.comments))
	for subj, comment := range rec.comments {
		ev.SubjectComments = append(ev.SubjectComments, evaluation.SubjectComment{SubjectID: subj, Comment: comment})
	}
	sort.Slice(ev.SubjectComments, func(i, j int) bool { return ev.SubjectComments[i].SubjectID < ev.SubjectComments[j].SubjectID })

	ev.QualityRatings = make([]evaluation.QualityRating, 0, len(rec.ratings))
	for trait, rating := range rec.ratings {
		ev.QualityRatings = append(ev.QualityRatings, evaluation.QualityRating{TraitID: trait, Rating: rating})
	}
	sort.Slice(ev.QualityRatings, func(i, j int) bool { return ev.QualityRatings[i].TraitID < ev.QualityRatings[j].TraitID })
	return ev
}

func (repo *evaluationRepository) LookupEvaluations(_ context.Context, studentID string, semester evaluation.Semester, schoolYear string) ([]evaluation.Evaluation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var recs []*evaluationRecord
	for _, rec := range repo.db.table {
		if rec.StudentID == studentID && rec.Semester == semester && rec.SchoolYear == schoolYear {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	evals := make([]evaluation.Evaluation, 0, len(recs))
	for _, rec := range recs {
		evals = append(evals, repo.export(rec))
	}
	return evals, nil
}

func (repo *evaluationRepository) GetEvaluation(_ context.Context, id string) (evaluation.Evaluation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[id]; ok {
		return repo.export(rec), nil
	}
	return evaluation.Evaluation{}, evaluation.ErrNotFound
}

func (repo *evaluationRepository) CreateEvaluation(_ context.Context, ne evaluation.NewEvaluation) (string, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pkCount++
	id := strconv.Itoa(repo.db.pkCount)
	repo.db.table[id] = &evaluationRecord{
		Evaluation: evaluation.Evaluation{
			ID:         id,
			StudentID:  ne.StudentID,
			ClassID:    ne.ClassID,
			Semester:   ne.Semester,
			SchoolYear: ne.SchoolYear,
			Header:     copyHeader(ne.Header),
		},
		seq:      repo.db.pkCount,
		comments: make(map[string]string),
		ratings:  make(map[string]evaluation.Rating),
	}
	return id, nil
}

func (repo *evaluationRepository) UpdateEvaluation(_ context.Context, id string, header evaluation.Header) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec, ok := repo.db.table[id]
	if !ok {
		return evaluation.ErrNotFound
	}
	rec.Header = copyHeader(header)
	return nil
}

func (repo *evaluationRepository) CreateSubjectComment(_ context.Context, evaluationID, subjectID, comment string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec, ok := repo.db.table[evaluationID]
	if !ok {
		return evaluation.ErrNotFound
	}
	rec.comments[subjectID] = comment
	return nil
}

func (repo *evaluationRepository) CreateQualityRating(_ context.Context, evaluationID, traitID string, rating evaluation.Rating) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec, ok := repo.db.table[evaluationID]
	if !ok {
		return evaluation.ErrNotFound
	}
	rec.ratings[traitID] = rating
	return nil
}
