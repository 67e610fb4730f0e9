package evaluation

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/solienlac/core"
)

// ResolveRoster prepares a roster received from a client for SaveAll.
//
// Subjects and Traits are replaced with the class subjects held by the record store and the
// configured traits. Every entry must be a student of the class, and every persisted entry must
// refer to an evaluation of that student in the roster's scope.
func (svc *Service) ResolveRoster(ctx context.Context, roster *Roster) error {
	if roster == nil {
		return core.NewValidationError(errors.New("nil roster"))
	}
	if err := svc.validate.Struct(roster.Scope); err != nil {
		return core.TranslateValidationErrors(err, svc.translator)
	}
	if err := checkEntries(roster.Entries); err != nil {
		return err
	}

	students, err := svc.repo.LookupClassRoster(ctx, roster.ClassID)
	if err != nil {
		return errors.Wrapf(err, "looking up students of class %s", roster.ClassID)
	}
	subjects, err := svc.repo.LookupClassSubjects(ctx, roster.ClassID)
	if err != nil {
		return errors.Wrapf(err, "looking up subjects of class %s", roster.ClassID)
	}
	roster.Subjects = subjects
	roster.Traits = svc.Traits()

	inClass := make(map[string]bool, len(students))
	for _, st := range students {
		inClass[st.ID] = true
	}

	var flds []core.FieldError
	owned := make([]bool, len(roster.Entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(svc.concurrency)
	for i, entry := range roster.Entries {
		if !inClass[entry.StudentID] {
			flds = append(flds, core.FieldError{
				Field: fmt.Sprintf("entries[%d].student_id", i),
				Error: fmt.Sprintf("student %s is not in class %s", entry.StudentID, roster.ClassID),
			})
			continue
		}
		id, ok := entry.EvaluationID()
		if !ok {
			owned[i] = true
			continue
		}

		i, studentID := i, entry.StudentID
		g.Go(func() error {
			evals, err := svc.repo.LookupEvaluations(gctx, studentID, roster.Semester, roster.SchoolYear)
			if err != nil {
				return errors.Wrapf(err, "looking up evaluations of student %s", studentID)
			}
			for _, ev := range evals {
				if ev.ID == id {
					owned[i] = true
					break
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, entry := range roster.Entries {
		if inClass[entry.StudentID] && !owned[i] {
			flds = append(flds, core.FieldError{
				Field: fmt.Sprintf("entries[%d].evaluation_id", i),
				Error: fmt.Sprintf("not an evaluation of student %s for %s", entry.StudentID, roster.Scope),
			})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}
