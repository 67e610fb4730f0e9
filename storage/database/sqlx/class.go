package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/solienlac/core/evaluation"
)

func (repo evaluationRepository) classExists(ctx context.Context, classID string) error {
	var n int
	if err := repo.db.GetContext(ctx, &n, repo.db.Rebind(`SELECT COUNT(*) FROM class WHERE id = ?`), classID); err != nil {
		return errors.Wrap(err, "checking class")
	}
	if n == 0 {
		return evaluation.ErrNotFound
	}
	return nil
}

func (repo evaluationRepository) LookupClassSubjects(ctx context.Context, classID string) ([]evaluation.Subject, error) {
	if err := repo.classExists(ctx, classID); err != nil {
		return nil, err
	}
	subjects := make([]evaluation.Subject, 0)
	q := repo.db.Rebind(`SELECT s.id, s.name FROM subject s
		JOIN class_subject cs ON cs.subject_id = s.id
		WHERE cs.class_id = ? ORDER BY cs.position, s.id`)
	if err := repo.db.SelectContext(ctx, &subjects, q, classID); err != nil {
		return nil, errors.Wrap(err, "selecting class subjects")
	}
	return subjects, nil
}

func (repo evaluationRepository) LookupClassRoster(ctx context.Context, classID string) ([]evaluation.StudentProfile, error) {
	if err := repo.classExists(ctx, classID); err != nil {
		return nil, err
	}
	students := make([]evaluation.StudentProfile, 0)
	q := repo.db.Rebind(`SELECT id, name FROM student WHERE class_id = ? ORDER BY position, id`)
	if err := repo.db.SelectContext(ctx, &students, q, classID); err != nil {
		return nil, errors.Wrap(err, "selecting class students")
	}
	return students, nil
}

func (repo evaluationRepository) CreateClass(ctx context.Context, id, name string) error {
	q := repo.db.Rebind(`INSERT INTO class (id, name) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`)
	res, err := repo.db.ExecContext(ctx, q, id, name)
	if err != nil {
		return errors.Wrap(err, "inserting class")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "inserting class")
	} else if n == 0 {
		return evaluation.ErrConflict
	}
	return nil
}

func (repo evaluationRepository) CreateSubject(ctx context.Context, subj evaluation.Subject) error {
	q := repo.db.Rebind(`INSERT INTO subject (id, name) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name`)
	_, err := repo.db.ExecContext(ctx, q, subj.ID, subj.Name)
	return errors.Wrap(err, "upserting subject")
}

func (repo evaluationRepository) AddClassSubject(ctx context.Context, classID, subjectID string) error {
	q := repo.db.Rebind(`INSERT INTO class_subject (class_id, subject_id, position)
		SELECT ?, ?, COUNT(*) FROM class_subject WHERE class_id = ?
		ON CONFLICT (class_id, subject_id) DO NOTHING`)
	_, err := repo.db.ExecContext(ctx, q, classID, subjectID, classID)
	return errors.Wrap(err, "inserting class subject")
}

// AddStudent adds the student to the class, or moves it there.
func (repo evaluationRepository) AddStudent(ctx context.Context, classID string, st evaluation.StudentProfile) error {
	q := repo.db.Rebind(`INSERT INTO student (id, name, class_id, position)
		SELECT ?, ?, ?, COUNT(*) FROM student WHERE class_id = ?
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			class_id = excluded.class_id,
			position = CASE WHEN student.class_id = excluded.class_id THEN student.position ELSE excluded.position END`)
	_, err := repo.db.ExecContext(ctx, q, st.ID, st.Name, classID, classID)
	return errors.Wrap(err, "upserting student")
}
