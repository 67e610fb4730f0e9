package evaluation

import (
	"context"
	"errors"
)

var (
	// errors
	ErrNotFound       = errors.New("record not found")
	ErrConflict       = errors.New("record already exists")
	ErrSaveInProgress = errors.New("a save is already in progress for this roster")
)

// Repository is the remote record store holding evaluations and the class data they depend on.
// Writes are not transactional: each call succeeds or fails on its own.
// CreateSubjectComment and CreateQualityRating overwrite any previous value for the same key.
type Repository interface {
	// LookupEvaluations returns the evaluations of a student for a semester, most relevant first.
	LookupEvaluations(ctx context.Context, studentID string, semester Semester, schoolYear string) ([]Evaluation, error)
	// CreateEvaluation creates a header record and returns its id.
	CreateEvaluation(ctx context.Context, ne NewEvaluation) (string, error)
	UpdateEvaluation(ctx context.Context, id string, header Header) error
	CreateSubjectComment(ctx context.Context, evaluationID, subjectID, comment string) error
	CreateQualityRating(ctx context.Context, evaluationID, traitID string, rating Rating) error

	LookupFinalTermRecords(ctx context.Context, classID string) ([]FinalTermRecord, error)
	LookupClassSubjects(ctx context.Context, classID string) ([]Subject, error)
	LookupClassRoster(ctx context.Context, classID string) ([]StudentProfile, error)
}

// Store is a Repository that also holds the class data it serves.
// It is implemented by the database backends behind the record store API.
type Store interface {
	Repository

	GetEvaluation(ctx context.Context, id string) (Evaluation, error)
	CreateClass(ctx context.Context, id, name string) error
	CreateSubject(ctx context.Context, subj Subject) error
	AddClassSubject(ctx context.Context, classID, subjectID string) error
	AddStudent(ctx context.Context, classID string, st StudentProfile) error
	SaveFinalTermRecord(ctx context.Context, classID string, rec FinalTermRecord) error
}
