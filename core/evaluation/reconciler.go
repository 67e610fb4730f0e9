package evaluation

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/solienlac/core"
)

// SaveAll writes every entry of the roster to the record store and waits for all writes to settle.
//
// Per student, the header record is created or updated according to the entry's State, then one
// subject comment per class subject and one quality rating per trait are written, empty values
// included. Students are saved independently: a failure of one never stops another.
// The only change made to the roster is setting State to Persisted after a header create.
//
// An error is returned only when the roster cannot be saved at all (malformed roster or a save of
// the same scope already in flight); per-student failures are reported in the Result.
// Cancelling ctx does not interrupt a save that has started.
func (svc *Service) SaveAll(ctx context.Context, roster *Roster) (Result, error) {
	if roster == nil {
		return Result{}, core.NewValidationError(errors.New("nil roster"))
	}
	if err := svc.validate.Struct(roster.Scope); err != nil {
		return Result{}, core.TranslateValidationErrors(err, svc.translator)
	}
	if err := checkEntries(roster.Entries); err != nil {
		return Result{}, err
	}

	if !svc.acquire(roster.Scope) {
		return Result{}, ErrSaveInProgress
	}
	defer svc.release(roster.Scope)

	ctx = context.WithoutCancel(ctx)
	start := nowFunc()
	traits := roster.Traits
	if len(traits) == 0 {
		traits = svc.traits
	}

	results := make([]StudentResult, len(roster.Entries))
	var g errgroup.Group
	g.SetLimit(svc.concurrency)
	for i, entry := range roster.Entries {
		i, entry := i, entry
		g.Go(func() error {
			results[i] = svc.saveEntry(ctx, roster, traits, entry)
			return nil
		})
	}
	_ = g.Wait() // student saves record their failures instead of returning them

	res := Aggregate(results)
	svc.logResult(roster.Scope, res)
	if !res.Success {
		svc.reportFailure(roster.Scope, res)
	}
	if svc.observer != nil {
		svc.observer.ObserveSave(roster.Scope, res, nowFunc().Sub(start))
	}
	return res, nil
}

// checkEntries rejects rosters with nil entries or two entries for the same student.
func checkEntries(entries []*RosterEntry) error {
	seen := make(map[string]bool, len(entries))
	for i, entry := range entries {
		if entry == nil {
			return core.NewValidationError(errors.Errorf("roster entry %d is nil", i))
		}
		if seen[entry.StudentID] {
			return core.NewValidationError(errors.Errorf("student %s has more than one roster entry", entry.StudentID))
		}
		seen[entry.StudentID] = true
	}
	return nil
}

func (svc *Service) saveEntry(ctx context.Context, roster *Roster, traits []string, entry *RosterEntry) StudentResult {
	sr := StudentResult{StudentID: entry.StudentID}

	if err := svc.validate.Struct(entry); err != nil {
		sr.Outcome = OutcomeInvalid
		sr.Err = core.TranslateValidationErrors(err, svc.translator)
		return sr
	}

	id, created, err := svc.upsertHeader(ctx, roster.Scope, entry)
	if err != nil {
		sr.Outcome = OutcomeHeaderFailed
		sr.Err = err
		return sr
	}
	entry.State = Persisted{EvaluationID: id}
	sr.EvaluationID = id
	sr.Created = created

	sr.Children = svc.writeChildren(ctx, id, roster.Subjects, traits, entry)
	sr.Outcome = OutcomeSaved
	for _, c := range sr.Children {
		if c.Failed() {
			sr.Outcome = OutcomeChildrenFailed
			break
		}
	}
	return sr
}

// upsertHeader updates the header of a persisted entry or creates it otherwise.
// It returns the effective evaluation id and whether the record was created.
func (svc *Service) upsertHeader(ctx context.Context, scope Scope, entry *RosterEntry) (string, bool, error) {
	switch st := entry.State.(type) {
	case Persisted:
		if st.EvaluationID == "" {
			return "", false, errors.New("persisted entry without evaluation id")
		}
		if err := svc.repo.UpdateEvaluation(ctx, st.EvaluationID, entry.Header); err != nil {
			return "", false, errors.Wrapf(err, "updating evaluation %s", st.EvaluationID)
		}
		return st.EvaluationID, false, nil

	case Unpersisted, nil:
		id, err := svc.repo.CreateEvaluation(ctx, NewEvaluation{
			StudentID: entry.StudentID,
			Scope:     scope,
			Header:    entry.Header,
		})
		if err != nil {
			return "", false, errors.Wrap(err, "creating evaluation")
		}
		if id == "" {
			return "", false, errors.New("creating evaluation: empty id returned")
		}
		return id, true, nil

	default:
		return "", false, errors.Errorf("unknown entry state %T", st)
	}
}

// writeChildren writes one subject comment per subject and one quality rating per trait,
// concurrently, and returns the outcome of each write in subjects then traits order.
func (svc *Service) writeChildren(ctx context.Context, evaluationID string, subjects []Subject, traits []string, entry *RosterEntry) []ChildWrite {
	children := make([]ChildWrite, 0, len(subjects)+len(traits))
	for _, subj := range subjects {
		children = append(children, ChildWrite{
			Kind:  ChildSubjectComment,
			Key:   subj.ID,
			Value: entry.SubjectComments[subj.ID],
		})
	}
	for _, trait := range traits {
		children = append(children, ChildWrite{
			Kind:  ChildQualityRating,
			Key:   trait,
			Value: string(entry.QualityRatings[trait]),
		})
	}

	var g errgroup.Group
	g.SetLimit(svc.concurrency)
	for i := range children {
		c := &children[i]
		g.Go(func() error {
			switch c.Kind {
			case ChildSubjectComment:
				c.Err = svc.repo.CreateSubjectComment(ctx, evaluationID, c.Key, c.Value)
			case ChildQualityRating:
				c.Err = svc.repo.CreateQualityRating(ctx, evaluationID, c.Key, Rating(c.Value))
			}
			return nil
		})
	}
	_ = g.Wait()
	return children
}
