package dummydb

import (
	"context"

	"github.com/trezcool/solienlac/core/evaluation"
)

func (repo *evaluationRepository) LookupClassSubjects(_ context.Context, classID string) ([]evaluation.Subject, error) {
	repo.classes.RLock()
	defer repo.classes.RUnlock()

	cls, ok := repo.classes.classes[classID]
	if !ok {
		return nil, evaluation.ErrNotFound
	}
	subjects := make([]evaluation.Subject, 0, len(cls.subjects))
	for _, id := range cls.subjects {
		subjects = append(subjects, repo.classes.subjects[id])
	}
	return subjects, nil
}

func (repo *evaluationRepository) LookupClassRoster(_ context.Context, classID string) ([]evaluation.StudentProfile, error) {
	repo.classes.RLock()
	defer repo.classes.RUnlock()

	cls, ok := repo.classes.classes[classID]
	if !ok {
		return nil, evaluation.ErrNotFound
	}
	students := make([]evaluation.StudentProfile, 0, len(cls.students))
	for _, id := range cls.students {
		students = append(students, repo.classes.students[id])
	}
	return students, nil
}

func (repo *evaluationRepository) LookupFinalTermRecords(_ context.Context, classID string) ([]evaluation.FinalTermRecord, error) {
	repo.classes.RLock()
	defer repo.classes.RUnlock()
	return append([]evaluation.FinalTermRecord{}, repo.classes.finals[classID]...), nil
}

func (repo *evaluationRepository) CreateClass(_ context.Context, id, name string) error {
	repo.classes.Lock()
	defer repo.classes.Unlock()

	if _, exists := repo.classes.classes[id]; exists {
		return evaluation.ErrConflict
	}
	repo.classes.classes[id] = &class{id: id, name: name}
	return nil
}

func (repo *evaluationRepository) CreateSubject(_ context.Context, subj evaluation.Subject) error {
	repo.classes.Lock()
	defer repo.classes.Unlock()
	repo.classes.subjects[subj.ID] = subj
	return nil
}

func (repo *evaluationRepository) AddClassSubject(_ context.Context, classID, subjectID string) error {
	repo.classes.Lock()
	defer repo.classes.Unlock()

	cls, ok := repo.classes.classes[classID]
	if !ok {
		return evaluation.ErrNotFound
	}
	if _, ok = repo.classes.subjects[subjectID]; !ok {
		return evaluation.ErrNotFound
	}
	for _, id := range cls.subjects {
		if id == subjectID {
			return nil
		}
	}
	cls.subjects = append(cls.subjects, subjectID)
	return nil
}

// AddStudent adds the student to the class, or moves it there.
func (repo *evaluationRepository) AddStudent(_ context.Context, classID string, st evaluation.StudentProfile) error {
	repo.classes.Lock()
	defer repo.classes.Unlock()

	cls, ok := repo.classes.classes[classID]
	if !ok {
		return evaluation.ErrNotFound
	}
	repo.classes.students[st.ID] = st
	for _, other := range repo.classes.classes {
		for i, id := range other.students {
			if id != st.ID {
				continue
			}
			if other == cls {
				return nil
			}
			other.students = append(other.students[:i:i], other.students[i+1:]...)
			break
		}
	}
	cls.students = append(cls.students, st.ID)
	return nil
}

func (repo *evaluationRepository) SaveFinalTermRecord(_ context.Context, classID string, rec evaluation.FinalTermRecord) error {
	repo.classes.Lock()
	defer repo.classes.Unlock()

	records := repo.classes.finals[classID]
	for i, r := range records {
		if r.StudentID == rec.StudentID && r.SubjectID == rec.SubjectID {
			records[i] = rec
			return nil
		}
	}
	repo.classes.finals[classID] = append(records, rec)
	return nil
}
