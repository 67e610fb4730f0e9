package evaluation

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/solienlac/core"
)

// LoadRoster builds the roster of a class for one semester, merging whatever the record store
// already holds for each student.
//
// Only the class roster and class subject lookups are fatal. A failed evaluation lookup degrades
// that student's entry to defaults and a failed final-term lookup degrades to "no final records".
func (svc *Service) LoadRoster(ctx context.Context, classID string, semester Semester, schoolYear string) (*Roster, error) {
	scope := Scope{ClassID: classID, Semester: semester, SchoolYear: schoolYear}
	if err := svc.validate.Struct(scope); err != nil {
		return nil, core.TranslateValidationErrors(err, svc.translator)
	}

	students, err := svc.repo.LookupClassRoster(ctx, classID)
	if err != nil {
		return nil, errors.Wrapf(err, "looking up students of class %s", classID)
	}
	subjects, err := svc.repo.LookupClassSubjects(ctx, classID)
	if err != nil {
		return nil, errors.Wrapf(err, "looking up subjects of class %s", classID)
	}

	roster := &Roster{
		Scope:    scope,
		Subjects: subjects,
		Traits:   svc.Traits(),
	}

	finalRecords := make(map[string][]FinalTermRecord)
	if records, err := svc.repo.LookupFinalTermRecords(ctx, classID); err != nil {
		svc.logger.Warn(fmt.Sprintf("looking up final term records of class %s: %v", classID, err), err)
	} else {
		for _, rec := range records {
			finalRecords[rec.StudentID] = append(finalRecords[rec.StudentID], rec)
		}
	}

	seen := make(map[string]bool, len(students))
	for _, st := range students {
		if seen[st.ID] {
			svc.logger.Warn(fmt.Sprintf("student %s is listed twice in class %s", st.ID, classID))
			continue
		}
		seen[st.ID] = true
		entry := roster.newEntry(st)
		entry.applyFinalRecords(finalRecords[st.ID])
		roster.Entries = append(roster.Entries, entry)
	}

	// each goroutine owns one entry, so the roster order is kept whatever the completion order
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(svc.concurrency)
	for _, entry := range roster.Entries {
		entry := entry
		g.Go(func() error {
			evals, err := svc.repo.LookupEvaluations(gctx, entry.StudentID, semester, schoolYear)
			if err != nil {
				svc.logger.Warn(fmt.Sprintf("looking up evaluation of student %s: %v", entry.StudentID, err), err)
				return nil
			}
			if len(evals) > 0 {
				entry.applyEvaluation(evals[0])
			}
			return nil
		})
	}
	_ = g.Wait() // lookup failures never abort the load

	return roster, nil
}
